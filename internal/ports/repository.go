// Package ports define repository interfaces for data persistence abstraction.
// These interfaces enable the repository pattern and allow swapping persistence mechanisms.
package ports

import (
	"time"

	"github.com/tejashwikalptaru/dancepractice/internal/domain"
)

// PresetLayer is one parsed preset document in document order.
type PresetLayer struct {
	// Presets are the entries in the order they appear in the document
	Presets []domain.Preset

	// Err is set when the document could not be parsed; Presets is then empty
	Err error
}

// PresetRepository reads the built-in preset document and reads and writes
// the custom one.
//
// Thread-safety: Implementations must be thread-safe.
type PresetRepository interface {
	// LoadBuiltIn parses the read-only layer.
	LoadBuiltIn() PresetLayer

	// LoadCustom parses the user layer. A missing document is an empty layer.
	LoadCustom() PresetLayer

	// SaveCustom creates or replaces a custom preset.
	SaveCustom(preset domain.Preset) error

	// DeleteCustom removes a custom preset.
	// Returns domain.ErrPresetNotFound if it does not exist.
	DeleteCustom(name string) error

	// CustomPath is the location of the user layer.
	CustomPath() string
}

// SettingsRepository persists user settings between runs.
//
// Thread-safety: Implementations must be thread-safe.
type SettingsRepository interface {
	GetVolume() float64
	SetVolume(volume float64) error

	GetMusicDir() string
	SetMusicDir(dir string) error

	GetMaxPlaytime() time.Duration
	SetMaxPlaytime(d time.Duration) error

	GetPracticeType() string
	SetPracticeType(name string) error
}

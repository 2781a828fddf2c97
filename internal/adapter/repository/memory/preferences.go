// Package memory provides repositories backed by the Fyne preferences store.
package memory

import (
	"sync"
	"time"

	"fyne.io/fyne/v2"

	"github.com/tejashwikalptaru/dancepractice/internal/domain"
	"github.com/tejashwikalptaru/dancepractice/internal/ports"
)

const (
	keyVolume       = "settings.volume"
	keyMusicDir     = "settings.music_dir"
	keyMaxPlaytime  = "settings.song_max_playtime"
	keyPracticeType = "settings.practice_type"
)

// Defaults are returned for settings that were never saved.
type Defaults struct {
	Volume       float64
	MusicDir     string
	MaxPlaytime  time.Duration
	PracticeType string
}

// SettingsRepository implements ports.SettingsRepository using Fyne preferences.
//
// Thread-safe: All operations protected by sync.RWMutex.
type SettingsRepository struct {
	prefs    fyne.Preferences
	defaults Defaults
	mu       sync.RWMutex
}

// NewSettingsRepository creates a settings repository.
// The preferences parameter should be obtained from fyne.CurrentApp().Preferences().
func NewSettingsRepository(prefs fyne.Preferences, defaults Defaults) *SettingsRepository {
	return &SettingsRepository{
		prefs:    prefs,
		defaults: defaults,
	}
}

// GetVolume returns the saved volume level.
func (r *SettingsRepository) GetVolume() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v := r.prefs.FloatWithFallback(keyVolume, r.defaults.Volume)
	if !domain.ValidVolume(v) {
		return r.defaults.Volume
	}
	return v
}

// SetVolume persists the volume level.
func (r *SettingsRepository) SetVolume(volume float64) error {
	if !domain.ValidVolume(volume) {
		return domain.ErrInvalidVolume
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefs.SetFloat(keyVolume, volume)
	return nil
}

// GetMusicDir returns the saved music folder.
func (r *SettingsRepository) GetMusicDir() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.prefs.StringWithFallback(keyMusicDir, r.defaults.MusicDir)
}

// SetMusicDir persists the music folder.
func (r *SettingsRepository) SetMusicDir(dir string) error {
	if dir == "" {
		return domain.ErrInvalidFilePath
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefs.SetString(keyMusicDir, dir)
	return nil
}

// GetMaxPlaytime returns the default maximum playtime.
func (r *SettingsRepository) GetMaxPlaytime() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	secs := r.prefs.FloatWithFallback(keyMaxPlaytime, r.defaults.MaxPlaytime.Seconds())
	d, ok := domain.PlaytimeFromSeconds(secs)
	if !ok {
		return r.defaults.MaxPlaytime
	}
	return d
}

// SetMaxPlaytime persists the default maximum playtime.
func (r *SettingsRepository) SetMaxPlaytime(d time.Duration) error {
	if d <= 0 {
		return domain.ErrInvalidPlaytime
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefs.SetFloat(keyMaxPlaytime, d.Seconds())
	return nil
}

// GetPracticeType returns the active practice type name.
func (r *SettingsRepository) GetPracticeType() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.prefs.StringWithFallback(keyPracticeType, r.defaults.PracticeType)
}

// SetPracticeType persists the active practice type name.
func (r *SettingsRepository) SetPracticeType(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefs.SetString(keyPracticeType, name)
	return nil
}

// Clear removes all saved settings.
func (r *SettingsRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, key := range []string{keyVolume, keyMusicDir, keyMaxPlaytime, keyPracticeType} {
		r.prefs.RemoveValue(key)
	}
}

var _ ports.SettingsRepository = (*SettingsRepository)(nil)

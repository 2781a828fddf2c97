// Package file provides file-backed repositories.
// The preset store combines an embedded read-only document with a
// user-editable JSON file.
package file

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/tejashwikalptaru/dancepractice/internal/domain"
	"github.com/tejashwikalptaru/dancepractice/internal/ports"
)

// CustomFileName is the default name of the user preset document.
const CustomFileName = "custom_practice_types.json"

//go:embed builtin_presets.json
var builtinDocument []byte

// PresetStore implements ports.PresetRepository.
//
// Thread-safety: This implementation is thread-safe.
type PresetStore struct {
	logger     *slog.Logger
	builtin    []byte
	customPath string
	mu         sync.Mutex
}

// NewPresetStore creates a store over the embedded built-ins and the custom
// document at customPath.
func NewPresetStore(customPath string, logger *slog.Logger) *PresetStore {
	return NewPresetStoreWithBuiltIn(builtinDocument, customPath, logger)
}

// NewPresetStoreWithBuiltIn replaces the embedded built-in document.
func NewPresetStoreWithBuiltIn(builtin []byte, customPath string, logger *slog.Logger) *PresetStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PresetStore{
		logger:     logger.With(slog.String("component", "presets")),
		builtin:    builtin,
		customPath: customPath,
	}
}

// CustomPath returns the location of the user document.
func (s *PresetStore) CustomPath() string {
	return s.customPath
}

// LoadBuiltIn parses the read-only layer.
func (s *PresetStore) LoadBuiltIn() ports.PresetLayer {
	entries, err := readEntries(bytes.NewReader(s.builtin))
	if err != nil {
		return ports.PresetLayer{Err: s.malformed("builtin", err)}
	}
	presets, err := decodePresets(entries, true)
	if err != nil {
		return ports.PresetLayer{Err: s.malformed("builtin", err)}
	}
	return ports.PresetLayer{Presets: presets}
}

// LoadCustom parses the user layer. A missing file is an empty layer.
func (s *PresetStore) LoadCustom() ports.PresetLayer {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readCustom()
	if err != nil {
		return ports.PresetLayer{Err: err}
	}
	presets, err := decodePresets(entries, false)
	if err != nil {
		return ports.PresetLayer{Err: s.malformed(s.customPath, err)}
	}
	return ports.PresetLayer{Presets: presets}
}

// SaveCustom inserts or replaces a preset in the user document,
// keeping comment keys and the order of other entries.
func (s *PresetStore) SaveCustom(preset domain.Preset) error {
	if err := preset.Validate(); err != nil {
		return err
	}
	raw, err := encodePreset(preset)
	if err != nil {
		return domain.NewRepositoryError("save", "presets", "cannot encode practice type", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readCustom()
	if err != nil {
		return domain.NewRepositoryError("save", "presets", "refusing to overwrite unreadable custom document", err)
	}

	i := slices.IndexFunc(entries, func(e entry) bool { return e.Key == preset.Name })
	if i >= 0 {
		entries[i].Value = raw
	} else {
		entries = append(entries, entry{Key: preset.Name, Value: raw})
	}

	if err := s.writeCustom(entries); err != nil {
		return err
	}
	s.logger.Info("custom practice type saved", slog.String("name", preset.Name))
	return nil
}

// DeleteCustom removes a preset from the user document.
func (s *PresetStore) DeleteCustom(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readCustom()
	if err != nil {
		return domain.NewRepositoryError("delete", "presets", "cannot read custom document", err)
	}

	i := slices.IndexFunc(entries, func(e entry) bool { return e.Key == name && !isComment(e.Key) })
	if i < 0 {
		return fmt.Errorf("%w: %s", domain.ErrPresetNotFound, name)
	}
	entries = slices.Delete(entries, i, i+1)

	if err := s.writeCustom(entries); err != nil {
		return err
	}
	s.logger.Info("custom practice type deleted", slog.String("name", name))
	return nil
}

// readCustom must be called with s.mu held.
func (s *PresetStore) readCustom() ([]entry, error) {
	if s.customPath == "" {
		return nil, nil
	}
	data, err := os.ReadFile(s.customPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewRepositoryError("load", "presets", "cannot read "+s.customPath, err)
	}
	entries, err := readEntries(bytes.NewReader(data))
	if err != nil {
		return nil, s.malformed(s.customPath, err)
	}
	return entries, nil
}

// writeCustom replaces the user document atomically. Must be called with s.mu held.
func (s *PresetStore) writeCustom(entries []entry) error {
	if s.customPath == "" {
		return domain.NewRepositoryError("save", "presets", "no custom document configured", domain.ErrInvalidFilePath)
	}
	if err := os.MkdirAll(filepath.Dir(s.customPath), 0o755); err != nil {
		return domain.NewRepositoryError("save", "presets", "cannot create directory", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.customPath), ".practice-types-*.json")
	if err != nil {
		return domain.NewRepositoryError("save", "presets", "cannot create temporary file", err)
	}
	defer os.Remove(tmp.Name())

	if err := writeEntries(tmp, entries); err != nil {
		_ = tmp.Close()
		return domain.NewRepositoryError("save", "presets", "cannot write document", err)
	}
	if err := tmp.Close(); err != nil {
		return domain.NewRepositoryError("save", "presets", "cannot write document", err)
	}
	if err := os.Rename(tmp.Name(), s.customPath); err != nil {
		return domain.NewRepositoryError("save", "presets", "cannot replace document", err)
	}
	return nil
}

func (s *PresetStore) malformed(source string, err error) error {
	return domain.NewRepositoryError("load", "presets", source+" is not a valid practice type document",
		fmt.Errorf("%w: %w", domain.ErrMalformedPresets, err))
}

var _ ports.PresetRepository = (*PresetStore)(nil)

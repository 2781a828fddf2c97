package service

import (
	"log/slog"
	"slices"
	"sort"
	"sync"

	"github.com/tejashwikalptaru/dancepractice/internal/domain"
	"github.com/tejashwikalptaru/dancepractice/internal/ports"
)

const (
	layerBuiltIn = "builtin"
	layerCustom  = "custom"
)

// PresetService resolves practice type names to generation parameters,
// layering custom presets over the built-in ones.
// All operations are thread-safe via sync.RWMutex.
type PresetService struct {
	logger *slog.Logger
	repo   ports.PresetRepository
	bus    ports.EventBus

	mu       sync.RWMutex
	builtin  []domain.Preset
	custom   []domain.Preset
	reported map[string]string
}

// NewPresetService creates the service and loads both layers.
func NewPresetService(logger *slog.Logger, repo ports.PresetRepository, bus ports.EventBus) *PresetService {
	s := &PresetService{
		logger:   logger.With(slog.String("service", "presets")),
		repo:     repo,
		bus:      bus,
		reported: make(map[string]string),
	}
	s.Reload()
	return s
}

// Reload re-reads both layers. A layer that fails to parse is treated as
// empty; each distinct failure is reported once.
func (s *PresetService) Reload() {
	builtin := s.repo.LoadBuiltIn()
	custom := s.repo.LoadCustom()

	s.mu.Lock()
	s.builtin = builtin.Presets
	s.custom = custom.Presets
	builtinErr := s.noteFailure(layerBuiltIn, builtin.Err)
	customErr := s.noteFailure(layerCustom, custom.Err)
	names := s.namesLocked()
	s.mu.Unlock()

	s.report(layerBuiltIn, builtinErr)
	s.report(layerCustom, customErr)

	s.logger.Debug("practice types loaded",
		slog.Int("builtin", len(builtin.Presets)),
		slog.Int("custom", len(custom.Presets)))
	s.bus.Publish(domain.NewPresetsReloadedEvent(names))
}

func (s *PresetService) report(layer string, err error) {
	if err == nil {
		return
	}
	s.logger.Error("practice types could not be loaded", slog.String("layer", layer), slog.Any("error", err))
	s.bus.Publish(domain.NewPresetErrorEvent(layer, err))
}

// noteFailure returns err when it has not been reported yet. Must hold s.mu.
func (s *PresetService) noteFailure(layer string, err error) error {
	if err == nil {
		delete(s.reported, layer)
		return nil
	}
	if s.reported[layer] == err.Error() {
		return nil
	}
	s.reported[layer] = err.Error()
	return err
}

// ListPresetNames returns built-in names in document order followed by
// custom-only names sorted alphabetically.
func (s *PresetService) ListPresetNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.namesLocked()
}

func (s *PresetService) namesLocked() []string {
	names := make([]string, 0, len(s.builtin)+len(s.custom))
	seen := make(map[string]bool, len(s.builtin))
	for _, p := range s.builtin {
		names = append(names, p.Name)
		seen[p.Name] = true
	}

	var extra []string
	for _, p := range s.custom {
		if !seen[p.Name] {
			extra = append(extra, p.Name)
			seen[p.Name] = true
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

// Lookup returns the preset called name, custom entries first.
func (s *PresetService) Lookup(name string) (domain.Preset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookupLocked(name)
}

func (s *PresetService) lookupLocked(name string) (domain.Preset, bool) {
	match := func(p domain.Preset) bool { return p.Name == name }
	if i := slices.IndexFunc(s.custom, match); i >= 0 {
		return s.custom[i].Normalize(), true
	}
	if i := slices.IndexFunc(s.builtin, match); i >= 0 {
		return s.builtin[i].Normalize(), true
	}
	return domain.Preset{}, false
}

// ResolvePreset returns the preset called name. Unknown names resolve to the
// built-in "default" practice type, or to the code-level fallback when that
// is missing too. The result is a private copy.
func (s *PresetService) ResolvePreset(name string) domain.Preset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.lookupLocked(name); ok {
		return p
	}
	s.logger.Warn("unknown practice type, using default", slog.String("name", name))
	if p, ok := s.lookupLocked(domain.DefaultPresetName); ok {
		return p
	}
	return domain.FallbackPreset()
}

// IsCustom reports whether name is defined in the custom layer.
func (s *PresetService) IsCustom(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.ContainsFunc(s.custom, func(p domain.Preset) bool { return p.Name == name })
}

// SaveCustom validates and stores a custom preset, then reloads.
// Saving under a built-in name shadows the built-in entry.
func (s *PresetService) SaveCustom(preset domain.Preset) error {
	if err := preset.Validate(); err != nil {
		return err
	}
	preset.BuiltIn = false
	if err := s.repo.SaveCustom(preset); err != nil {
		return domain.NewServiceError("PresetService", "SaveCustom", "could not save practice type", err)
	}
	s.Reload()
	return nil
}

// DeleteCustom removes a custom preset, then reloads. A built-in entry of
// the same name becomes visible again.
func (s *PresetService) DeleteCustom(name string) error {
	if !s.IsCustom(name) {
		if _, ok := s.Lookup(name); ok {
			return domain.ErrPresetReadOnly
		}
		return domain.ErrPresetNotFound
	}
	if err := s.repo.DeleteCustom(name); err != nil {
		return domain.NewServiceError("PresetService", "DeleteCustom", "could not delete practice type", err)
	}
	s.Reload()
	return nil
}

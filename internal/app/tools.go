package app

import (
	"context"
	"log/slog"

	"github.com/tejashwikalptaru/dancepractice/internal/config"
	"github.com/tejashwikalptaru/dancepractice/internal/domain"
	"github.com/tejashwikalptaru/dancepractice/internal/service"
)

// Tools exposes playlist generation and practice type management without
// audio output or a window. The command line uses it.
type Tools struct {
	*core
}

// NewTools wires the headless components.
func NewTools(cfg Config) (*Tools, error) {
	c, err := newCore(cfg)
	if err != nil {
		return nil, err
	}
	return &Tools{core: c}, nil
}

// Settings returns the loaded configuration.
func (t *Tools) Settings() *config.Config {
	return t.settings
}

// Presets returns the practice type service.
func (t *Tools) Presets() *service.PresetService {
	return t.presetService
}

// Logger returns the configured logger.
func (t *Tools) Logger() *slog.Logger {
	return t.logger
}

// Generate builds one playlist. Empty arguments fall back to the configured
// music folder and practice type.
func (t *Tools) Generate(ctx context.Context, dir, practiceType string) (domain.Playlist, error) {
	if dir == "" {
		dir = t.settings.MusicDir
	}
	if practiceType == "" {
		practiceType = t.settings.PracticeType
	}
	preset := t.presetService.ResolvePreset(practiceType)
	return t.builder.Build(ctx, dir, preset)
}

// Close releases the event bus.
func (t *Tools) Close() error {
	return t.eventBus.Close()
}

package service

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tejashwikalptaru/dancepractice/internal/domain"
	"github.com/tejashwikalptaru/dancepractice/internal/ports"
)

// Setting keys accepted by ApplyRaw.
const (
	SettingVolume       = "volume"
	SettingMusicDir     = "music_dir"
	SettingMaxPlaytime  = "song_max_playtime"
	SettingPracticeType = "practice_type"
)

// SettingKeys lists the editable settings in display order.
var SettingKeys = []string{SettingPracticeType, SettingMusicDir, SettingMaxPlaytime, SettingVolume}

// Settings is a snapshot of the user settings.
type Settings struct {
	Volume       float64
	MusicDir     string
	MaxPlaytime  time.Duration
	PracticeType string
}

// SettingsService manages the persisted user settings.
// All operations are thread-safe via sync.RWMutex.
type SettingsService struct {
	logger     *slog.Logger
	repository ports.SettingsRepository
	bus        ports.EventBus

	mu     sync.RWMutex
	cached Settings
}

// NewSettingsService creates a settings service and loads the saved values.
func NewSettingsService(
	logger *slog.Logger,
	repository ports.SettingsRepository,
	bus ports.EventBus,
) *SettingsService {
	s := &SettingsService{
		logger:     logger.With(slog.String("service", "settings")),
		repository: repository,
		bus:        bus,
	}
	s.cached = Settings{
		Volume:       repository.GetVolume(),
		MusicDir:     repository.GetMusicDir(),
		MaxPlaytime:  repository.GetMaxPlaytime(),
		PracticeType: repository.GetPracticeType(),
	}

	s.logger.Debug("settings service initialized",
		slog.Float64("volume", s.cached.Volume),
		slog.String("music_dir", s.cached.MusicDir),
		slog.Duration("max_playtime", s.cached.MaxPlaytime),
		slog.String("practice_type", s.cached.PracticeType))
	return s
}

// Get returns the current settings.
func (s *SettingsService) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cached
}

// SetVolume saves the volume (0.0 to 1.0).
func (s *SettingsService) SetVolume(volume float64) error {
	if !domain.ValidVolume(volume) {
		return domain.ErrInvalidVolume
	}
	return s.update(SettingVolume, strconv.FormatFloat(volume, 'f', -1, 64), func(c *Settings) error {
		if err := s.repository.SetVolume(volume); err != nil {
			return err
		}
		c.Volume = volume
		return nil
	})
}

// SetMusicDir saves the music root.
func (s *SettingsService) SetMusicDir(dir string) error {
	if dir == "" {
		return domain.ErrInvalidFilePath
	}
	return s.update(SettingMusicDir, dir, func(c *Settings) error {
		if err := s.repository.SetMusicDir(dir); err != nil {
			return err
		}
		c.MusicDir = dir
		return nil
	})
}

// SetMaxPlaytime saves the default per-song play limit.
func (s *SettingsService) SetMaxPlaytime(d time.Duration) error {
	if d <= 0 {
		return domain.ErrInvalidPlaytime
	}
	return s.update(SettingMaxPlaytime, strconv.FormatFloat(d.Seconds(), 'f', -1, 64), func(c *Settings) error {
		if err := s.repository.SetMaxPlaytime(d); err != nil {
			return err
		}
		c.MaxPlaytime = d
		return nil
	})
}

// SetPracticeType saves the active practice type name.
func (s *SettingsService) SetPracticeType(name string) error {
	if name == "" {
		return domain.NewValidationError(SettingPracticeType, name, "practice type cannot be empty")
	}
	return s.update(SettingPracticeType, name, func(c *Settings) error {
		if err := s.repository.SetPracticeType(name); err != nil {
			return err
		}
		c.PracticeType = name
		return nil
	})
}

func (s *SettingsService) update(key, value string, apply func(*Settings) error) error {
	s.mu.Lock()
	err := apply(&s.cached)
	s.mu.Unlock()

	if err != nil {
		return domain.NewServiceError("SettingsService", "set "+key, "could not save setting", err)
	}
	s.logger.Info("setting changed", slog.String("key", key), slog.String("value", value))
	s.bus.Publish(domain.NewSettingsChangedEvent(key, value))
	return nil
}

// ApplyRaw parses and saves a value typed into the settings panel.
// Invalid values are logged and reported; the previous value is kept.
func (s *SettingsService) ApplyRaw(key, value string) error {
	err := s.applyRaw(key, strings.TrimSpace(value))
	if err != nil {
		s.logger.Warn("setting rejected", slog.String("key", key), slog.String("value", value), slog.Any("error", err))
		s.bus.Publish(domain.NewSettingsRejectedEvent(key, value, err))
	}
	return err
}

func (s *SettingsService) applyRaw(key, value string) error {
	switch key {
	case SettingVolume:
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return domain.NewValidationError(key, value, "volume must be a number")
		}
		if !domain.ValidVolume(v) {
			return domain.NewValidationError(key, value, "volume must be between 0.0 and 1.0")
		}
		return s.SetVolume(v)

	case SettingMaxPlaytime:
		secs, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return domain.NewValidationError(key, value, "playtime must be a number of seconds")
		}
		d, ok := domain.PlaytimeFromSeconds(secs)
		if !ok {
			return domain.NewValidationError(key, value, "playtime must be a positive number of seconds")
		}
		return s.SetMaxPlaytime(d)

	case SettingMusicDir:
		if value == "" {
			return domain.NewValidationError(key, value, "music folder cannot be empty")
		}
		info, err := os.Stat(value)
		if err != nil || !info.IsDir() {
			return domain.NewValidationError(key, value, "music folder does not exist")
		}
		return s.SetMusicDir(value)

	case SettingPracticeType:
		return s.SetPracticeType(value)

	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownSetting, key)
	}
}

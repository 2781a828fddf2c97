// Package config loads startup configuration from TOML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/tejashwikalptaru/dancepractice/internal/domain"
)

// AppName names the per-user configuration directory.
const AppName = "dancepractice"

const (
	DefaultVolume          = 0.7
	DefaultSongMaxPlaytime = 210 * time.Second
	DefaultFadeTime        = 10 * time.Second
	DefaultTickInterval    = 100 * time.Millisecond
	DefaultPracticeType    = "60min"
	customPresetsFile      = "custom_practice_types.json"
)

// Config holds the startup settings. Durations are given in seconds in the
// file, except tick_ms.
type Config struct {
	MusicDir          string  `koanf:"music_dir"`
	AnnounceDir       string  `koanf:"announce_dir"` // empty means <music_dir>/announce
	Volume            float64 `koanf:"volume"`
	SongMaxPlaytime   float64 `koanf:"song_max_playtime"`
	FadeTime          float64 `koanf:"fade_time"`
	TickMillis        int     `koanf:"tick_ms"`
	PracticeType      string  `koanf:"practice_type"`
	CustomPresetsPath string  `koanf:"custom_presets_path"`
	WatchPresets      bool    `koanf:"watch_presets"`

	Log LogConfig `koanf:"log"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // "text" or "json"
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		MusicDir:          defaultMusicDir(),
		Volume:            DefaultVolume,
		SongMaxPlaytime:   DefaultSongMaxPlaytime.Seconds(),
		FadeTime:          DefaultFadeTime.Seconds(),
		TickMillis:        int(DefaultTickInterval / time.Millisecond),
		PracticeType:      DefaultPracticeType,
		CustomPresetsPath: filepath.Join(xdg.ConfigHome, AppName, customPresetsFile),
		WatchPresets:      true,
		Log:               LogConfig{Level: "info", Format: "text"},
	}
}

func defaultMusicDir() string {
	if xdg.UserDirs.Music != "" {
		return xdg.UserDirs.Music
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "Music")
	}
	return "Music"
}

// SearchPaths lists the config files read by Load, lowest priority first.
func SearchPaths() []string {
	return []string{
		filepath.Join(xdg.ConfigHome, AppName, "config.toml"),
		"config.toml",
	}
}

// Load reads the standard config files. An explicit path, when given,
// replaces the search list and must exist.
//
// Values that fail validation are reset to their defaults; the returned
// problems describe each reset.
func Load(explicit string) (*Config, []error, error) {
	paths := SearchPaths()
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return nil, nil, fmt.Errorf("config file: %w", err)
		}
		paths = []string{explicit}
	}

	k := koanf.New(".")
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.MusicDir = expandPath(cfg.MusicDir)
	cfg.AnnounceDir = expandPath(cfg.AnnounceDir)
	cfg.CustomPresetsPath = expandPath(cfg.CustomPresetsPath)

	problems := cfg.sanitize()
	return cfg, problems, nil
}

// sanitize resets invalid values to their defaults.
func (c *Config) sanitize() []error {
	def := Default()
	var problems []error

	if !domain.ValidVolume(c.Volume) {
		problems = append(problems, fmt.Errorf("volume %v is outside 0.0-1.0, using %v", c.Volume, def.Volume))
		c.Volume = def.Volume
	}
	if _, ok := domain.PlaytimeFromSeconds(c.SongMaxPlaytime); !ok {
		problems = append(problems, fmt.Errorf("song_max_playtime %v must be positive, using %v", c.SongMaxPlaytime, def.SongMaxPlaytime))
		c.SongMaxPlaytime = def.SongMaxPlaytime
	}
	if _, ok := domain.PlaytimeFromSeconds(c.FadeTime); c.FadeTime != 0 && !ok {
		problems = append(problems, fmt.Errorf("fade_time %v must be zero or a positive number of seconds, using %v", c.FadeTime, def.FadeTime))
		c.FadeTime = def.FadeTime
	}
	if c.TickMillis <= 0 {
		problems = append(problems, fmt.Errorf("tick_ms %d must be positive, using %d", c.TickMillis, def.TickMillis))
		c.TickMillis = def.TickMillis
	}
	if c.MusicDir == "" {
		problems = append(problems, errors.New("music_dir is empty, using "+def.MusicDir))
		c.MusicDir = def.MusicDir
	}
	if c.PracticeType == "" {
		c.PracticeType = def.PracticeType
	}
	return problems
}

// MaxPlaytime returns song_max_playtime as a duration.
func (c *Config) MaxPlaytime() time.Duration {
	return seconds(c.SongMaxPlaytime)
}

// Fade returns fade_time as a duration. Zero disables fading.
func (c *Config) Fade() time.Duration {
	return seconds(c.FadeTime)
}

// Tick returns the playback tick interval.
func (c *Config) Tick() time.Duration {
	return time.Duration(c.TickMillis) * time.Millisecond
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

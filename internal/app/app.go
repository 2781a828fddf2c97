// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"

	"github.com/tejashwikalptaru/dancepractice/internal/adapter/audio/beep"
	"github.com/tejashwikalptaru/dancepractice/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/dancepractice/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/dancepractice/internal/adapter/metadata"
	"github.com/tejashwikalptaru/dancepractice/internal/adapter/repository/file"
	"github.com/tejashwikalptaru/dancepractice/internal/adapter/repository/memory"
	fyneui "github.com/tejashwikalptaru/dancepractice/internal/adapter/ui/fyne"
	"github.com/tejashwikalptaru/dancepractice/internal/config"
	"github.com/tejashwikalptaru/dancepractice/internal/domain"
	"github.com/tejashwikalptaru/dancepractice/internal/logger"
	"github.com/tejashwikalptaru/dancepractice/internal/ports"
	"github.com/tejashwikalptaru/dancepractice/internal/service"
)

// presetWatchDebounce collapses the burst of writes an editor makes on save.
const presetWatchDebounce = 250 * time.Millisecond

// Config holds application configuration.
type Config struct {
	// AppID is the unique application identifier (also keys the fyne preferences)
	AppID string

	// ConfigPath replaces the config.toml search list when set
	ConfigPath string

	// MusicDir overrides the saved music folder when set
	MusicDir string

	// PracticeType overrides the saved practice type when set
	PracticeType string

	// UseMockAudio determines whether to use a mock audio engine (for testing)
	UseMockAudio bool

	// Settings skips loading config files when set
	Settings *config.Config

	// TestFyneApp allows injecting a test Fyne app for testing (nil for production)
	TestFyneApp fyne.App
}

// DefaultConfig returns the default application configuration.
func DefaultConfig() Config {
	return Config{
		AppID: "com.dancepractice.app",
	}
}

// core holds the components shared by the GUI and the command line tools.
type core struct {
	logger   *slog.Logger
	settings *config.Config
	eventBus *eventbus.SyncEventBus

	presetStore   *file.PresetStore
	presetService *service.PresetService
	builder       *service.PlaylistBuilder
}

// loadSettings reads config.toml unless cfg already carries settings.
func loadSettings(cfg Config) (*config.Config, []error, error) {
	if cfg.Settings != nil {
		return cfg.Settings, nil, nil
	}
	return config.Load(cfg.ConfigPath)
}

func newCore(cfg Config) (*core, error) {
	settings, problems, err := loadSettings(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	c := &core{settings: settings}
	c.logger = logger.NewLogger(logger.FromSettings(settings.Log.Level, settings.Log.Format))
	for _, problem := range problems {
		c.logger.Warn("invalid configuration value", slog.Any("error", problem))
	}

	c.eventBus = eventbus.NewSyncEventBus(c.logger.With(slog.String("component", "eventbus")))

	c.presetStore = file.NewPresetStore(settings.CustomPresetsPath, c.logger)
	c.presetService = service.NewPresetService(c.logger, c.presetStore, c.eventBus)

	var opts []service.SelectorOption
	if settings.AnnounceDir != "" {
		opts = append(opts, service.WithAnnounceDir(settings.AnnounceDir))
	}
	reader := metadata.NewReader(c.logger.With(slog.String("component", "metadata")))
	selector := service.NewSongSelector(c.logger, reader, opts...)
	c.builder = service.NewPlaylistBuilder(c.logger, selector, c.eventBus)

	return c, nil
}

// Application is the root application structure that holds all dependencies.
// It follows the Dependency Injection pattern with constructor-based injection.
//
// The Application struct is responsible for:
// - Creating and wiring all dependencies
// - Managing the application lifecycle (startup, shutdown)
// - Providing a clean entry point for main.go
type Application struct {
	*core

	fyneApp fyne.App

	// Infrastructure
	audioEngine   ports.AudioEngine
	presetWatcher *file.Watcher

	// Repositories
	settingsRepo ports.SettingsRepository

	// Services
	settingsService *service.SettingsService
	practiceService *service.PracticeService

	// UI
	presenter  *fyneui.Presenter
	mainWindow *fyneui.MainWindow

	bindings     []domain.SubscriptionID
	shutdownOnce sync.Once
	shutdownErr  error
}

// NewApplication creates a new application with all dependencies wired.
// This is the main dependency injection function.
func NewApplication(cfg Config) (*Application, error) {
	c, err := newCore(cfg)
	if err != nil {
		return nil, err
	}
	app := &Application{core: c}

	app.logger.Info("initializing application",
		slog.String("app_id", cfg.AppID),
		slog.String("version", GetVersionInfo().FullString()))

	// Step 1: Create Fyne application
	if cfg.TestFyneApp != nil {
		app.fyneApp = cfg.TestFyneApp
	} else {
		app.fyneApp = fyneapp.NewWithID(cfg.AppID)
	}

	// Step 2: Create an audio engine
	if cfg.UseMockAudio {
		engine := mock.NewEngine()
		engine.SetLogger(app.logger.With(slog.String("engine", "mock")))
		app.audioEngine = engine
	} else {
		app.audioEngine = beep.NewEngine(app.logger.With(slog.String("engine", "beep")))
	}
	if err := app.audioEngine.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize audio engine: %w", err)
	}

	// Step 3: Settings, seeded from config.toml for values never saved
	app.settingsRepo = memory.NewSettingsRepository(app.fyneApp.Preferences(), memory.Defaults{
		Volume:       app.settings.Volume,
		MusicDir:     app.settings.MusicDir,
		MaxPlaytime:  app.settings.MaxPlaytime(),
		PracticeType: app.settings.PracticeType,
	})
	app.settingsService = service.NewSettingsService(app.logger, app.settingsRepo, app.eventBus)
	app.applyOverrides(cfg)

	// Step 4: Playback engine
	saved := app.settingsService.Get()
	app.practiceService = service.NewPracticeService(
		app.logger,
		app.audioEngine,
		app.builder,
		app.eventBus,
		app.presetService.ResolvePreset(saved.PracticeType),
		service.PracticeConfig{
			MusicDir:           saved.MusicDir,
			Volume:             saved.Volume,
			DefaultMaxPlaytime: saved.MaxPlaytime,
			FadeDuration:       app.settings.Fade(),
			TickInterval:       app.settings.Tick(),
		},
	)
	app.bindSettings()

	// Step 5: Follow edits to the custom practice types
	if app.settings.WatchPresets {
		watcher, err := file.NewWatcher(app.presetStore.CustomPath(), presetWatchDebounce,
			app.presetService.Reload, app.logger)
		if err != nil {
			app.logger.Warn("custom practice types will not reload automatically", slog.Any("error", err))
		} else {
			app.presetWatcher = watcher
		}
	}

	// Step 6: Create UI and presenter
	app.mainWindow = fyneui.NewMainWindow(app.fyneApp)
	app.presenter = fyneui.NewPresenter(
		app.logger.With(slog.String("component", "presenter")),
		app.practiceService,
		app.presetService,
		app.settingsService,
		app.eventBus,
		app.mainWindow,
	)
	app.mainWindow.SetPresenter(app.presenter)

	return app, nil
}

// applyOverrides stores command line overrides as the saved settings.
func (a *Application) applyOverrides(cfg Config) {
	if cfg.MusicDir != "" {
		if err := a.settingsService.ApplyRaw(service.SettingMusicDir, cfg.MusicDir); err != nil {
			a.logger.Warn("ignoring music folder override", slog.Any("error", err))
		}
	}
	if cfg.PracticeType != "" {
		if _, ok := a.presetService.Lookup(cfg.PracticeType); !ok {
			a.logger.Warn("ignoring unknown practice type override", slog.String("practice_type", cfg.PracticeType))
			return
		}
		if err := a.settingsService.SetPracticeType(cfg.PracticeType); err != nil {
			a.logger.Warn("ignoring practice type override", slog.Any("error", err))
		}
	}
}

// bindSettings pushes saved setting changes into the playback engine.
func (a *Application) bindSettings() {
	a.bindings = append(a.bindings,
		eventbus.On(a.eventBus, domain.EventSettingsChanged, func(e domain.SettingsChangedEvent) {
			s := a.settingsService.Get()
			var err error
			switch e.Key {
			case service.SettingVolume:
				err = a.practiceService.SetVolume(s.Volume)
			case service.SettingMusicDir:
				err = a.practiceService.SetMusicDir(s.MusicDir)
			case service.SettingMaxPlaytime:
				err = a.practiceService.SetDefaultMaxPlaytime(s.MaxPlaytime)
			case service.SettingPracticeType:
				err = a.practiceService.SetPreset(a.presetService.ResolvePreset(s.PracticeType))
			}
			if err != nil {
				a.logger.Warn("setting not applied to playback",
					slog.String("key", e.Key), slog.Any("error", err))
			}
		}),
		eventbus.On(a.eventBus, domain.EventPresetsReloaded, func(domain.PresetsReloadedEvent) {
			a.refreshActivePreset()
		}),
	)
}

// refreshActivePreset rebuilds the playlist when the active practice type's
// definition changed on disk.
func (a *Application) refreshActivePreset() {
	next := a.presetService.ResolvePreset(a.settingsService.Get().PracticeType).Normalize()
	current := a.practiceService.Preset()
	next.BuiltIn, current.BuiltIn = false, false
	if reflect.DeepEqual(next, current) {
		return
	}
	a.logger.Info("active practice type changed, rebuilding playlist", slog.String("practice_type", next.Name))
	if err := a.practiceService.SetPreset(next); err != nil {
		a.logger.Warn("failed to apply changed practice type", slog.Any("error", err))
	}
}

// Start builds the first playlist.
func (a *Application) Start() error {
	if err := a.practiceService.Regenerate(); err != nil && !errors.Is(err, domain.ErrGenerationInProgress) {
		return err
	}
	return nil
}

// Run starts the application.
// This is called from main.go after the application is created.
func (a *Application) Run() error {
	a.logger.Info("Dance Practice started")
	if err := a.Start(); err != nil {
		a.logger.Error("failed to generate the first playlist", slog.Any("error", err))
	}

	// Show and run UI (blocks until the window is closed)
	return a.mainWindow.Run()
}

// Shutdown gracefully shuts down the application.
// It's safe to call multiple times (idempotent).
func (a *Application) Shutdown() error {
	a.shutdownOnce.Do(func() {
		a.logger.Info("shutting down application")
		var errs []error

		for _, id := range a.bindings {
			a.eventBus.Unsubscribe(id)
		}
		a.bindings = nil

		if a.presenter != nil {
			a.presenter.Shutdown()
		}
		if a.presetWatcher != nil {
			if err := a.presetWatcher.Close(); err != nil {
				errs = append(errs, fmt.Errorf("preset watcher: %w", err))
			}
		}
		if a.practiceService != nil {
			if err := a.practiceService.Shutdown(); err != nil {
				errs = append(errs, fmt.Errorf("practice service: %w", err))
			}
		}
		if a.audioEngine != nil {
			if err := a.audioEngine.Shutdown(); err != nil {
				errs = append(errs, fmt.Errorf("audio engine: %w", err))
			}
		}
		if err := a.eventBus.Close(); err != nil {
			errs = append(errs, fmt.Errorf("event bus: %w", err))
		}

		a.shutdownErr = errors.Join(errs...)
		a.logger.Info("application shutdown complete")
	})
	return a.shutdownErr
}

// GetServices returns the services for tests and tools.
func (a *Application) GetServices() (*service.PracticeService, *service.PresetService, *service.SettingsService) {
	return a.practiceService, a.presetService, a.settingsService
}

// GetEventBus returns the application event bus.
func (a *Application) GetEventBus() ports.EventBus {
	return a.eventBus
}

// GetFyneApp returns the Fyne application.
func (a *Application) GetFyneApp() fyne.App {
	return a.fyneApp
}

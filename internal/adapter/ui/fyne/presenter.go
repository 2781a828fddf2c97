// Package fyne provides Fyne UI adapter implementations.
// This package implements the UI layer using the Fyne toolkit.
package fyne

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tejashwikalptaru/dancepractice/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/dancepractice/internal/domain"
	"github.com/tejashwikalptaru/dancepractice/internal/ports"
	"github.com/tejashwikalptaru/dancepractice/internal/service"
)

// Presenter implements the Presenter pattern (MVP architecture).
// It coordinates between services and the UI, handling all event-driven updates.
//
// Responsibilities:
// - Subscribe to events from the event bus
// - Map domain events to UI updates
// - Translate UI commands to service method calls
//
// Thread-safety: All operations are thread-safe via sync.RWMutex.
// View methods are invoked from whichever goroutine published the event;
// the view is responsible for marshalling onto its UI thread.
type Presenter struct {
	logger *slog.Logger

	practice *service.PracticeService
	presets  *service.PresetService
	settings *service.SettingsService

	bus  ports.EventBus
	view ports.UI

	// duration of the current track, used to turn slider fractions into offsets
	duration      time.Duration
	subscriptions []domain.SubscriptionID

	mu           sync.RWMutex
	shutdownOnce sync.Once
}

// NewPresenter creates a new presenter and syncs the view with current state.
func NewPresenter(
	logger *slog.Logger,
	practice *service.PracticeService,
	presets *service.PresetService,
	settings *service.SettingsService,
	bus ports.EventBus,
	view ports.UI,
) *Presenter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	p := &Presenter{
		logger:   logger,
		practice: practice,
		presets:  presets,
		settings: settings,
		bus:      bus,
		view:     view,
	}

	p.subscribeToEvents()
	p.syncInitialState()

	return p
}

func (p *Presenter) subscribeToEvents() {
	p.subscriptions = []domain.SubscriptionID{
		eventbus.On(p.bus, domain.EventPlaylistReplaced, p.onPlaylistReplaced),
		eventbus.On(p.bus, domain.EventGenerationStarted, p.onGenerationStarted),
		eventbus.On(p.bus, domain.EventGenerationProgress, p.onGenerationProgress),
		eventbus.On(p.bus, domain.EventGenerationFailed, p.onGenerationFailed),
		eventbus.On(p.bus, domain.EventTrackChanged, p.onTrackChanged),
		eventbus.On(p.bus, domain.EventTrackStarted, func(domain.TrackStartedEvent) { p.view.SetPlayState(true) }),
		eventbus.On(p.bus, domain.EventTrackPaused, func(domain.TrackPausedEvent) { p.view.SetPlayState(false) }),
		eventbus.On(p.bus, domain.EventTrackStopped, p.onTrackStopped),
		eventbus.On(p.bus, domain.EventTrackProgress, p.onTrackProgress),
		eventbus.On(p.bus, domain.EventTrackError, p.onTrackError),
		eventbus.On(p.bus, domain.EventVolumeChanged, func(e domain.VolumeChangedEvent) { p.view.SetVolume(e.Volume) }),
		eventbus.On(p.bus, domain.EventPresetsReloaded, p.onPresetsReloaded),
		eventbus.On(p.bus, domain.EventPresetError, p.onPresetError),
		eventbus.On(p.bus, domain.EventSettingsChanged, p.onSettingsChanged),
		eventbus.On(p.bus, domain.EventSettingsRejected, p.onSettingsRejected),
	}
}

// syncInitialState pushes the values that exist before any event fires.
func (p *Presenter) syncInitialState() {
	s := p.settings.Get()
	state := p.practice.GetState()

	p.view.SetVolume(s.Volume)
	p.view.SetMusicDir(s.MusicDir)
	p.view.SetPresets(p.presets.ListPresetNames(), s.PracticeType)
	p.view.SetPlaylist(p.practice.Playlist().Labels())
	p.view.SetPlayState(state.Status == domain.StatusPlaying)
	p.view.SetProgress(domain.InitialProgressText, 0)

	if state.CurrentTrack != nil {
		p.setDuration(state.CurrentTrack.Duration())
		p.view.HighlightTrack(state.Index)
		p.view.SetNowPlaying(state.CurrentTrack.Label())
	}
	if state.Status == domain.StatusGenerating {
		p.view.SetBusy(true, "Generating playlist, please wait...")
	}
}

// Event handlers

func (p *Presenter) onPlaylistReplaced(e domain.PlaylistReplacedEvent) {
	p.view.SetPlaylist(e.Playlist.Labels())
	p.view.SetBusy(false, "")
	if e.Playlist.IsEmpty() {
		p.view.SetNowPlaying("")
		p.view.ShowNotification("No Songs Found",
			fmt.Sprintf("No playable songs for %q in %s", e.Playlist.PresetName, e.Playlist.MusicDir))
	}
}

func (p *Presenter) onGenerationStarted(e domain.GenerationStartedEvent) {
	p.view.SetBusy(true, fmt.Sprintf("Generating %s playlist, please wait...", e.PresetName))
}

func (p *Presenter) onGenerationProgress(e domain.GenerationProgressEvent) {
	pr := e.Progress
	p.view.SetBusy(true, fmt.Sprintf("Selecting %s (%d/%d), %d songs found",
		pr.Dance, pr.DancesDone, pr.TotalDances, pr.TracksFound))
}

func (p *Presenter) onGenerationFailed(e domain.GenerationFailedEvent) {
	p.view.SetBusy(false, "")
	p.view.ShowError("Playlist Generation Failed", errorText(e.Error))
}

func (p *Presenter) onTrackChanged(e domain.TrackChangedEvent) {
	p.setDuration(e.Track.Duration())
	p.view.HighlightTrack(e.Index)
	p.view.SetNowPlaying(e.Track.Label())
}

func (p *Presenter) onTrackStopped(domain.TrackStoppedEvent) {
	p.view.SetPlayState(false)
	p.view.SetProgress(domain.InitialProgressText, 0)
}

func (p *Presenter) onTrackProgress(e domain.TrackProgressEvent) {
	if e.Duration > 0 {
		p.setDuration(e.Duration)
	}
	p.view.SetProgress(e.Text, e.Fraction)
}

func (p *Presenter) onTrackError(e domain.TrackErrorEvent) {
	p.view.ShowNotification("Skipped Track", e.Message)
}

func (p *Presenter) onPresetsReloaded(e domain.PresetsReloadedEvent) {
	p.view.SetPresets(e.Names, p.settings.Get().PracticeType)
}

func (p *Presenter) onPresetError(e domain.PresetErrorEvent) {
	p.view.ShowError("Practice Types", fmt.Sprintf("Could not load %s practice types: %s", e.Source, errorText(e.Error)))
}

func (p *Presenter) onSettingsChanged(e domain.SettingsChangedEvent) {
	switch e.Key {
	case service.SettingMusicDir:
		p.view.SetMusicDir(e.Value)
	case service.SettingPracticeType:
		p.view.SetPresets(p.presets.ListPresetNames(), e.Value)
	}
}

func (p *Presenter) onSettingsRejected(e domain.SettingsRejectedEvent) {
	p.view.ShowError("Invalid Setting", fmt.Sprintf("%s: %s", e.Key, errorText(e.Error)))
}

func (p *Presenter) setDuration(d time.Duration) {
	p.mu.Lock()
	p.duration = d
	p.mu.Unlock()
}

// report surfaces a command failure. Commands rejected during generation get
// a gentle notice instead of an error dialog.
func (p *Presenter) report(action string, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, domain.ErrGenerationInProgress) {
		p.view.ShowNotification("Please Wait", "The playlist is being generated")
		return
	}
	p.logger.Error(action+" failed", slog.Any("error", err))
	p.view.ShowError(action, errorText(err))
}

func errorText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

// UI Command handlers (called by UI)

// OnPlayPause handles the play/pause button.
func (p *Presenter) OnPlayPause() {
	p.report("Play", p.practice.TogglePlayPause())
}

// OnStop handles the stop button.
func (p *Presenter) OnStop() {
	p.report("Stop", p.practice.Stop())
}

// OnRestartTrack rewinds the current song.
func (p *Presenter) OnRestartTrack() {
	p.report("Restart Song", p.practice.RestartTrack())
}

// OnRestartPlaylist starts again from the first entry.
func (p *Presenter) OnRestartPlaylist() {
	p.report("Restart Playlist", p.practice.RestartPlaylist())
}

// OnTrackSelected handles a double tap on a playlist entry.
func (p *Presenter) OnTrackSelected(index int) {
	p.report("Select Track", p.practice.SelectTrack(index))
}

// OnSeek handles the progress slider; fraction is 0.0 to 1.0 of the current track.
func (p *Presenter) OnSeek(fraction float64) {
	p.mu.RLock()
	d := p.duration
	p.mu.RUnlock()
	if d <= 0 {
		return
	}
	p.report("Seek", p.practice.Seek(time.Duration(fraction*float64(d))))
}

// OnRegenerate builds a fresh playlist from the current practice type.
func (p *Presenter) OnRegenerate() {
	p.report("Regenerate", p.practice.Regenerate())
}

// OnVolumeChanged handles the volume slider (0.0 to 1.0).
func (p *Presenter) OnVolumeChanged(volume float64) {
	p.report("Volume", p.settings.SetVolume(volume))
}

// OnPresetSelected handles the practice type selector.
func (p *Presenter) OnPresetSelected(name string) {
	if name == "" || name == p.settings.Get().PracticeType {
		return
	}
	p.report("Practice Type", p.settings.SetPracticeType(name))
}

// OnMusicDirSelected handles the folder dialog result.
func (p *Presenter) OnMusicDirSelected(dir string) {
	p.OnSettingChanged(service.SettingMusicDir, dir)
}

// OnSettingChanged applies a raw value typed into the settings form.
// Rejections are reported through SettingsRejectedEvent.
func (p *Presenter) OnSettingChanged(key, value string) {
	if err := p.settings.ApplyRaw(key, value); err != nil {
		p.logger.Debug("setting rejected", slog.String("key", key), slog.Any("error", err))
	}
}

// PresetNames returns the practice types in display order.
func (p *Presenter) PresetNames() []string {
	return p.presets.ListPresetNames()
}

// IsCustomPreset reports whether name can be deleted.
func (p *Presenter) IsCustomPreset(name string) bool {
	return p.presets.IsCustom(name)
}

// PresetDetails describes a practice type as Markdown.
func (p *Presenter) PresetDetails(name string) string {
	preset, ok := p.presets.Lookup(name)
	if !ok {
		return fmt.Sprintf("Practice type %q not found", name)
	}
	return describePreset(preset)
}

// OnPresetDeleted removes a custom practice type.
func (p *Presenter) OnPresetDeleted(name string) {
	p.report("Delete Practice Type", p.presets.DeleteCustom(name))
}

// OnPresetDuplicated saves a copy of source as a custom practice type.
func (p *Presenter) OnPresetDuplicated(source, name string) {
	preset, ok := p.presets.Lookup(source)
	if !ok {
		p.report("Copy Practice Type", domain.ErrPresetNotFound)
		return
	}
	preset.Name = strings.TrimSpace(name)
	p.report("Copy Practice Type", p.presets.SaveCustom(preset))
}

// EventBus exposes the bus to secondary windows.
func (p *Presenter) EventBus() ports.EventBus {
	return p.bus
}

func describePreset(preset domain.Preset) string {
	var b strings.Builder
	yesNo := func(v bool) string {
		if v {
			return "yes"
		}
		return "no"
	}

	kind := "built-in"
	if !preset.BuiltIn {
		kind = "custom"
	}
	fmt.Fprintf(&b, "## %s\n\n*%s*\n\n", preset.Name, kind)
	fmt.Fprintf(&b, "**Dances:** %s\n\n", strings.Join(preset.Dances, ", "))
	if preset.PlayAllSongs {
		b.WriteString("**Songs per dance:** all\n\n")
	} else {
		fmt.Fprintf(&b, "**Songs per dance:** %d\n\n", preset.NumSelections)
	}
	fmt.Fprintf(&b, "**Random order:** %s\n\n", yesNo(preset.RandomizePlaylist))
	fmt.Fprintf(&b, "**New playlist at the end:** %s\n\n", yesNo(preset.AutoUpdate))
	fmt.Fprintf(&b, "**Stop after each song:** %s\n\n", yesNo(preset.PlaySingleSong))

	if preset.AdjustSongCounts && len(preset.DanceAdjustments) > 0 {
		b.WriteString("**Adjusted counts:**\n\n")
		for _, dance := range sortedKeys(preset.DanceAdjustments) {
			raw, err := domain.MarshalCountRule(preset.DanceAdjustments[dance])
			if err != nil {
				continue
			}
			fmt.Fprintf(&b, "- %s: %s\n", dance, raw)
		}
		b.WriteString("\n")
	}
	if len(preset.DanceMaxPlaytimes) > 0 {
		b.WriteString("**Max playtimes:**\n\n")
		for _, dance := range sortedKeys(preset.DanceMaxPlaytimes) {
			fmt.Fprintf(&b, "- %s: %s\n", dance, domain.FormatDuration(preset.DanceMaxPlaytimes[dance]))
		}
	}
	return b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// SettingValues returns the current settings as the strings shown in the settings form.
func (p *Presenter) SettingValues() map[string]string {
	s := p.settings.Get()
	return map[string]string{
		service.SettingVolume:       strconv.FormatFloat(s.Volume, 'f', 2, 64),
		service.SettingMusicDir:     s.MusicDir,
		service.SettingMaxPlaytime:  strconv.Itoa(int(s.MaxPlaytime / time.Second)),
		service.SettingPracticeType: s.PracticeType,
	}
}

// Shutdown cleans up resources.
// It's safe to call multiple times (idempotent).
func (p *Presenter) Shutdown() {
	p.shutdownOnce.Do(func() {
		for _, id := range p.subscriptions {
			p.bus.Unsubscribe(id)
		}
		p.subscriptions = nil
	})
}

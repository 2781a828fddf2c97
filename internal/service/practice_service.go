package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tejashwikalptaru/dancepractice/internal/domain"
	"github.com/tejashwikalptaru/dancepractice/internal/ports"
)

const (
	// DefaultTickInterval is how often a playing track is checked.
	DefaultTickInterval = 100 * time.Millisecond

	// DefaultFadeDuration is the length of the fade-out after the max playtime.
	DefaultFadeDuration = 10 * time.Second

	// DefaultMaxPlaytime applies to songs whose dance has no override.
	DefaultMaxPlaytime = 210 * time.Second

	// endMargin ends a track slightly before its natural length.
	endMargin = time.Second
)

// PlaylistGenerator builds a playlist for a music root and a preset.
type PlaylistGenerator interface {
	Build(ctx context.Context, rootDir string, preset domain.Preset) (domain.Playlist, error)
}

// PracticeConfig holds the startup values of a PracticeService.
type PracticeConfig struct {
	MusicDir           string
	Volume             float64
	DefaultMaxPlaytime time.Duration

	// FadeDuration of zero disables fading.
	FadeDuration time.Duration

	// TickInterval is the progress period and the fade step.
	TickInterval time.Duration

	// ManualTick disables the internal ticker; the caller drives Tick.
	ManualTick bool
}

type generationResult struct {
	playlist  domain.Playlist
	err       error
	automatic bool
}

// PracticeService is the playback engine of the practice player.
// It owns the active playlist and the playback state, drives the audio
// engine and rebuilds the playlist in the background.
//
// Events are collected while the state lock is held and published after it
// is released, so handlers may call back into the service.
type PracticeService struct {
	logger    *slog.Logger
	engine    ports.AudioEngine
	generator PlaylistGenerator
	bus       ports.EventBus

	tick time.Duration
	fade time.Duration

	mu          sync.RWMutex
	playlist    domain.Playlist
	preset      domain.Preset
	musicDir    string
	defaultMax  time.Duration
	index       int
	offset      time.Duration
	status      domain.PlaybackStatus
	volume      float64
	applied     float64
	handle      domain.TrackHandle
	maxPlaytime time.Duration
	failures    int
	cancelGen   context.CancelFunc
	rebuild     bool
	closed      bool
	pending     []domain.Event

	ctx     context.Context
	cancel  context.CancelFunc
	results chan generationResult
	wg      sync.WaitGroup
}

// NewPracticeService creates the engine with an empty playlist and starts its loop.
// Call Regenerate to build the first playlist.
func NewPracticeService(
	logger *slog.Logger,
	engine ports.AudioEngine,
	generator PlaylistGenerator,
	bus ports.EventBus,
	preset domain.Preset,
	cfg PracticeConfig,
) *PracticeService {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.FadeDuration < 0 {
		cfg.FadeDuration = 0
	}
	if cfg.DefaultMaxPlaytime <= 0 {
		cfg.DefaultMaxPlaytime = DefaultMaxPlaytime
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &PracticeService{
		logger:     logger.With(slog.String("service", "practice")),
		engine:     engine,
		generator:  generator,
		bus:        bus,
		tick:       cfg.TickInterval,
		fade:       cfg.FadeDuration,
		preset:     preset.Normalize(),
		musicDir:   cfg.MusicDir,
		defaultMax: cfg.DefaultMaxPlaytime,
		status:     domain.StatusStopped,
		volume:     clampVolume(cfg.Volume),
		handle:     domain.InvalidTrackHandle,
		ctx:        ctx,
		cancel:     cancel,
		results:    make(chan generationResult, 1),
	}
	s.applied = s.volume

	var ticks <-chan time.Time
	var ticker *time.Ticker
	if !cfg.ManualTick {
		ticker = time.NewTicker(s.tick)
		ticks = ticker.C
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if ticker != nil {
			defer ticker.Stop()
		}
		s.run(ticks)
	}()

	s.logger.Debug("practice service initialized",
		slog.Duration("tick", s.tick),
		slog.Duration("fade", s.fade),
		slog.Duration("max_playtime", s.defaultMax))
	return s
}

func (s *PracticeService) run(ticks <-chan time.Time) {
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticks:
			s.Tick()
		case res := <-s.results:
			s.finishGeneration(res)
		}
	}
}

// unlockAndPublish releases the state lock and publishes the collected events.
func (s *PracticeService) unlockAndPublish() {
	events := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, e := range events {
		s.bus.Publish(e)
	}
}

func (s *PracticeService) emit(e domain.Event) {
	s.pending = append(s.pending, e)
}

// Play starts the current track, or resumes it when paused.
func (s *PracticeService) Play() error {
	s.mu.Lock()
	defer s.unlockAndPublish()

	if s.status == domain.StatusGenerating {
		return domain.ErrGenerationInProgress
	}
	return s.playLocked()
}

// Pause keeps the track loaded and remembers the offset.
func (s *PracticeService) Pause() error {
	s.mu.Lock()
	defer s.unlockAndPublish()

	if s.status == domain.StatusGenerating {
		return domain.ErrGenerationInProgress
	}
	s.pauseLocked()
	return nil
}

// TogglePlayPause pauses while playing and plays otherwise.
func (s *PracticeService) TogglePlayPause() error {
	s.mu.Lock()
	defer s.unlockAndPublish()

	switch s.status {
	case domain.StatusGenerating:
		return domain.ErrGenerationInProgress
	case domain.StatusPlaying:
		s.pauseLocked()
		return nil
	default:
		return s.playLocked()
	}
}

// Stop unloads the track and rewinds it. The playlist position is kept.
func (s *PracticeService) Stop() error {
	s.mu.Lock()
	defer s.unlockAndPublish()

	if s.status == domain.StatusGenerating {
		return domain.ErrGenerationInProgress
	}
	s.stopLocked()
	return nil
}

// RestartTrack plays the current track again from the beginning.
func (s *PracticeService) RestartTrack() error {
	s.mu.Lock()
	defer s.unlockAndPublish()

	if s.status == domain.StatusGenerating {
		return domain.ErrGenerationInProgress
	}
	if s.playlist.IsEmpty() {
		return domain.ErrPlaylistEmpty
	}

	s.offset = 0
	if s.handle == domain.InvalidTrackHandle {
		s.startLocked()
		return nil
	}

	if err := s.engine.Seek(s.handle, 0); err != nil {
		s.logger.Warn("failed to rewind track", slog.Any("error", err))
	}
	s.restoreVolumeLocked()
	if s.status != domain.StatusPlaying {
		if err := s.engine.Play(s.handle); err != nil {
			return err
		}
		s.setStatusLocked(domain.StatusPlaying)
	}
	s.emit(domain.NewTrackStartedEvent(s.playlist.Tracks[s.index], s.index))
	return nil
}

// RestartPlaylist stops playback and moves back to the first track.
func (s *PracticeService) RestartPlaylist() error {
	s.mu.Lock()
	defer s.unlockAndPublish()

	if s.status == domain.StatusGenerating {
		return domain.ErrGenerationInProgress
	}
	s.stopLocked()
	s.index = 0
	s.emitTrackChangedLocked()
	return nil
}

// SelectTrack stops the current track and plays the track at index.
func (s *PracticeService) SelectTrack(index int) error {
	s.mu.Lock()
	defer s.unlockAndPublish()

	if s.status == domain.StatusGenerating {
		return domain.ErrGenerationInProgress
	}
	if index < 0 || index >= s.playlist.Len() {
		return domain.ErrInvalidIndex
	}

	s.stopLocked()
	s.index = index
	s.emitTrackChangedLocked()
	s.startLocked()
	return nil
}

// Seek moves within the loaded track. Without a loaded track it does nothing.
func (s *PracticeService) Seek(position time.Duration) error {
	s.mu.Lock()
	defer s.unlockAndPublish()

	if s.handle == domain.InvalidTrackHandle {
		return nil
	}

	duration := s.durationLocked()
	position = max(0, min(position, duration))
	if err := s.engine.Seek(s.handle, position); err != nil {
		s.logger.Warn("seek failed", slog.Duration("position", position), slog.Any("error", err))
		return nil
	}

	s.offset = position
	if position < s.maxPlaytime {
		s.restoreVolumeLocked()
	}
	s.emit(domain.NewTrackProgressEvent(position, duration))
	return nil
}

// SetVolume sets the user volume (0.0 to 1.0). A running fade restarts from it.
func (s *PracticeService) SetVolume(volume float64) error {
	if !domain.ValidVolume(volume) {
		return domain.ErrInvalidVolume
	}

	s.mu.Lock()
	defer s.unlockAndPublish()

	s.volume = volume
	s.restoreVolumeLocked()
	s.emit(domain.NewVolumeChangedEvent(volume))
	return nil
}

// SetDefaultMaxPlaytime changes the limit for songs without a dance override.
func (s *PracticeService) SetDefaultMaxPlaytime(d time.Duration) error {
	if d <= 0 {
		return domain.ErrInvalidPlaytime
	}

	s.mu.Lock()
	defer s.unlockAndPublish()

	s.defaultMax = d
	if s.handle != domain.InvalidTrackHandle {
		s.maxPlaytime = s.limitLocked(s.playlist.Tracks[s.index], s.durationLocked())
	}
	return nil
}

// SetPreset makes preset active and rebuilds the playlist. A build that is
// already running is cancelled and started again with the new preset.
func (s *PracticeService) SetPreset(preset domain.Preset) error {
	s.mu.Lock()
	defer s.unlockAndPublish()

	s.preset = preset.Normalize()
	return s.rebuildLocked()
}

// SetMusicDir changes the music root and rebuilds the playlist. A build that
// is already running is cancelled and started again from the new root.
func (s *PracticeService) SetMusicDir(dir string) error {
	s.mu.Lock()
	defer s.unlockAndPublish()

	s.musicDir = dir
	return s.rebuildLocked()
}

// rebuildLocked starts a build, or supersedes the running one.
func (s *PracticeService) rebuildLocked() error {
	if s.closed {
		return domain.ErrNotInitialized
	}
	if s.status != domain.StatusGenerating {
		return s.startGenerationLocked(false)
	}
	s.logger.Info("generation superseded",
		slog.String("preset", s.preset.Name),
		slog.String("music_dir", s.musicDir))
	s.rebuild = true
	if s.cancelGen != nil {
		s.cancelGen()
	}
	return nil
}

// Regenerate rebuilds the playlist from the active preset and music root.
// The new playlist replaces the old one when the build finishes; playback
// is left stopped at the first track.
func (s *PracticeService) Regenerate() error {
	s.mu.Lock()
	defer s.unlockAndPublish()

	if s.status == domain.StatusGenerating {
		return domain.ErrGenerationInProgress
	}
	return s.startGenerationLocked(false)
}

// Tick checks a playing track: it publishes progress, applies the fade-out
// and advances when the track is done. The internal ticker calls it; with
// ManualTick the caller does.
func (s *PracticeService) Tick() {
	s.mu.Lock()
	defer s.unlockAndPublish()

	if s.status != domain.StatusPlaying || s.handle == domain.InvalidTrackHandle {
		return
	}

	elapsed, err := s.engine.Position(s.handle)
	if err != nil {
		s.logger.Warn("failed to read position", slog.Any("error", err))
		return
	}
	duration := s.durationLocked()
	s.offset = elapsed
	s.emit(domain.NewTrackProgressEvent(elapsed, duration))

	ended := elapsed >= duration-endMargin
	if status, err := s.engine.Status(s.handle); err == nil && status == domain.StatusStopped {
		ended = true
	}

	if s.preset.PlaySingleSong {
		if ended {
			s.logger.Debug("single song finished", slog.Int("index", s.index))
			s.stopLocked()
		}
		return
	}

	if s.fade > 0 && elapsed >= s.maxPlaytime {
		s.fadeLocked(elapsed)
	}
	if ended || elapsed > s.maxPlaytime+s.fade {
		s.advanceLocked()
	}
}

func (s *PracticeService) fadeLocked(elapsed time.Duration) {
	factor := 1 + s.tick.Seconds()*(s.maxPlaytime-elapsed).Seconds()/s.fade.Seconds()
	s.applied *= max(0, factor)
	if err := s.engine.SetVolume(s.handle, s.applied); err != nil {
		s.logger.Warn("failed to apply fade", slog.Any("error", err))
	}
	s.emit(domain.NewTrackFadingEvent(s.playlist.Tracks[s.index], s.applied))
}

// GetState returns a snapshot of the playback state.
func (s *PracticeService) GetState() domain.PlaybackState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := domain.PlaybackState{
		Index:         s.index,
		Offset:        s.offset,
		Status:        s.status,
		Volume:        s.volume,
		AppliedVolume: s.applied,
		MaxPlaytime:   s.maxPlaytime,
		PlaylistLen:   s.playlist.Len(),
		PresetName:    s.preset.Name,
	}
	if track, ok := s.playlist.At(s.index); ok {
		state.CurrentTrack = &track
	}
	return state
}

// Playlist returns the active playlist. Playlists are never modified in place.
func (s *PracticeService) Playlist() domain.Playlist {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.playlist
}

// Preset returns a copy of the active preset.
func (s *PracticeService) Preset() domain.Preset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.preset.Clone()
}

// MusicDir returns the active music root.
func (s *PracticeService) MusicDir() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.musicDir
}

// Shutdown cancels any build in flight, unloads the track and stops the loop.
func (s *PracticeService) Shutdown() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.cancelGen != nil {
		s.cancelGen()
		s.cancelGen = nil
	}
	s.releaseLocked()
	s.setStatusLocked(domain.StatusStopped)
	s.unlockAndPublish()

	s.cancel()
	s.wg.Wait()

	s.logger.Debug("practice service stopped")
	return nil
}

func (s *PracticeService) playLocked() error {
	if s.status == domain.StatusPlaying {
		return nil
	}
	if s.playlist.IsEmpty() {
		return domain.ErrPlaylistEmpty
	}

	if s.status == domain.StatusPaused && s.handle != domain.InvalidTrackHandle {
		if err := s.engine.Play(s.handle); err != nil {
			return err
		}
		s.setStatusLocked(domain.StatusPlaying)
		s.emit(domain.NewTrackStartedEvent(s.playlist.Tracks[s.index], s.index))
		return nil
	}

	s.startLocked()
	return nil
}

func (s *PracticeService) pauseLocked() {
	if s.status != domain.StatusPlaying || s.handle == domain.InvalidTrackHandle {
		return
	}

	if pos, err := s.engine.Position(s.handle); err == nil {
		s.offset = pos
	}
	if err := s.engine.Pause(s.handle); err != nil {
		s.logger.Warn("failed to pause", slog.Any("error", err))
	}
	s.setStatusLocked(domain.StatusPaused)
	s.emit(domain.NewTrackPausedEvent(s.playlist.Tracks[s.index], s.offset))
}

func (s *PracticeService) stopLocked() {
	s.releaseLocked()
	s.offset = 0
	s.restoreVolumeLocked()
	if s.status != domain.StatusGenerating {
		s.setStatusLocked(domain.StatusStopped)
	}
	s.emit(domain.NewTrackStoppedEvent(s.index))
}

// startLocked plays the track at the current index, skipping tracks that
// cannot be played. Every failure moves forward, so it terminates.
func (s *PracticeService) startLocked() {
	for s.index < s.playlist.Len() {
		if err := s.playCurrentLocked(); err == nil {
			s.failures = 0
			return
		}
		s.failures++
		s.index++
		s.offset = 0
		if s.index < s.playlist.Len() {
			s.emitTrackChangedLocked()
		}
	}
	s.endOfPlaylistLocked()
}

func (s *PracticeService) playCurrentLocked() error {
	track := s.playlist.Tracks[s.index]

	if _, err := os.Stat(track.Path); err != nil {
		err = fmt.Errorf("%w: %s", domain.ErrFileNotFound, track.Path)
		s.reportLocked(track, err, "File not found: "+track.Path)
		return err
	}

	s.releaseLocked()

	handle, err := s.engine.Load(track.Path)
	if err == nil && handle == domain.InvalidTrackHandle {
		err = domain.ErrNullHandle
	}
	if err != nil {
		s.reportLocked(track, err, "Could not load "+filepath.Base(track.Path))
		return err
	}

	s.applied = s.volume
	if err := s.engine.SetVolume(handle, s.applied); err != nil {
		s.logger.Warn("failed to set volume", slog.Any("error", err))
	}
	if s.offset > 0 {
		if err := s.engine.Seek(handle, s.offset); err != nil {
			s.logger.Warn("failed to restore offset", slog.Duration("offset", s.offset), slog.Any("error", err))
		}
	}
	if err := s.engine.Play(handle); err != nil {
		if unloadErr := s.engine.Unload(handle); unloadErr != nil {
			s.logger.Warn("failed to unload track after play error", slog.Any("error", unloadErr))
		}
		s.reportLocked(track, err, "Could not play "+filepath.Base(track.Path))
		return err
	}

	s.handle = handle
	s.maxPlaytime = s.limitLocked(track, s.durationLocked())
	s.setStatusLocked(domain.StatusPlaying)
	s.emit(domain.NewTrackStartedEvent(track, s.index))

	s.logger.Debug("track started",
		slog.Int("index", s.index),
		slog.String("path", track.Path),
		slog.Duration("max_playtime", s.maxPlaytime))
	return nil
}

func (s *PracticeService) advanceLocked() {
	s.releaseLocked()
	s.index++
	s.offset = 0

	if s.index < s.playlist.Len() {
		s.emitTrackChangedLocked()
		s.startLocked()
		return
	}
	s.endOfPlaylistLocked()
}

// endOfPlaylistLocked rebuilds and continues when the preset asks for it,
// unless every track of the playlist just failed.
func (s *PracticeService) endOfPlaylistLocked() {
	s.releaseLocked()
	s.index = 0
	s.offset = 0

	if s.preset.AutoUpdate && s.failures < s.playlist.Len() {
		if err := s.startGenerationLocked(true); err == nil {
			return
		}
	}

	s.logger.Info("end of playlist", slog.String("preset", s.preset.Name))
	s.setStatusLocked(domain.StatusStopped)
	s.emit(domain.NewTrackStoppedEvent(s.index))
	s.emitTrackChangedLocked()
}

func (s *PracticeService) startGenerationLocked(automatic bool) error {
	if s.closed {
		return domain.ErrNotInitialized
	}
	if s.status == domain.StatusGenerating {
		return domain.ErrGenerationInProgress
	}

	s.releaseLocked()
	s.offset = 0
	s.setStatusLocked(domain.StatusGenerating)
	s.launchGenerationLocked(automatic)
	return nil
}

// launchGenerationLocked runs the build in the background. The result is
// handed to finishGeneration by the loop.
func (s *PracticeService) launchGenerationLocked(automatic bool) {
	s.emit(domain.NewGenerationStartedEvent(s.preset.Name, s.musicDir, automatic))

	preset := s.preset.Clone()
	dir := s.musicDir
	ctx, cancel := context.WithCancel(s.ctx)
	s.cancelGen = cancel

	s.logger.Info("generating playlist",
		slog.String("preset", preset.Name),
		slog.String("music_dir", dir),
		slog.Bool("automatic", automatic))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()

		playlist, err := s.generator.Build(ctx, dir, preset)
		select {
		case s.results <- generationResult{playlist: playlist, err: err, automatic: automatic}:
		case <-s.ctx.Done():
		}
	}()
}

// finishGeneration swaps in a finished playlist in one locked step.
func (s *PracticeService) finishGeneration(res generationResult) {
	s.mu.Lock()
	defer s.unlockAndPublish()

	s.cancelGen = nil
	if s.closed {
		return
	}
	if s.rebuild {
		s.rebuild = false
		s.launchGenerationLocked(res.automatic)
		return
	}

	if res.err != nil {
		if !errors.Is(res.err, context.Canceled) {
			s.logger.Error("playlist generation failed", slog.Any("error", res.err))
			s.emit(domain.NewGenerationFailedEvent(res.err))
		}
		s.setStatusLocked(domain.StatusStopped)
		return
	}

	s.playlist = res.playlist
	s.index = 0
	s.offset = 0
	s.failures = 0
	s.maxPlaytime = 0
	s.emit(domain.NewPlaylistReplacedEvent(res.playlist))

	if res.playlist.IsEmpty() {
		s.setStatusLocked(domain.StatusStopped)
		return
	}
	s.emitTrackChangedLocked()

	if res.automatic {
		s.startLocked()
		return
	}
	s.setStatusLocked(domain.StatusStopped)
}

// releaseLocked stops the engine handle, if any. Stop also unloads it.
func (s *PracticeService) releaseLocked() {
	if s.handle == domain.InvalidTrackHandle {
		return
	}
	if err := s.engine.Stop(s.handle); err != nil {
		s.logger.Warn("failed to stop track", slog.Any("error", err))
	}
	s.handle = domain.InvalidTrackHandle
}

func (s *PracticeService) restoreVolumeLocked() {
	s.applied = s.volume
	if s.handle == domain.InvalidTrackHandle {
		return
	}
	if err := s.engine.SetVolume(s.handle, s.applied); err != nil {
		s.logger.Warn("failed to set volume", slog.Any("error", err))
	}
}

func (s *PracticeService) setStatusLocked(status domain.PlaybackStatus) {
	if s.status == status {
		return
	}
	prev := s.status
	s.status = status
	s.emit(domain.NewStatusChangedEvent(prev, status))
}

func (s *PracticeService) emitTrackChangedLocked() {
	track, ok := s.playlist.At(s.index)
	if !ok {
		return
	}
	s.emit(domain.NewTrackChangedEvent(track, s.index, s.limitLocked(track, track.Duration())))
}

func (s *PracticeService) reportLocked(track domain.Track, err error, message string) {
	s.logger.Warn("skipping track", slog.String("path", track.Path), slog.Any("error", err))
	s.emit(domain.NewTrackErrorEvent(track, s.index, err, message))
}

// durationLocked returns the loaded track's length, or the track's nominal
// length when the engine does not know it.
func (s *PracticeService) durationLocked() time.Duration {
	if s.handle != domain.InvalidTrackHandle {
		if d, err := s.engine.Duration(s.handle); err == nil && d > 0 {
			return d
		}
	}
	if track, ok := s.playlist.At(s.index); ok {
		return track.Duration()
	}
	return 0
}

// limitLocked returns the play limit of track. Announcements always play out.
func (s *PracticeService) limitLocked(track domain.Track, duration time.Duration) time.Duration {
	if track.IsAnnouncement() {
		return duration
	}
	return s.preset.MaxPlaytimeFor(track.Dance, s.defaultMax)
}

// clampVolume treats NaN as silence.
func clampVolume(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return max(0, min(v, 1))
}

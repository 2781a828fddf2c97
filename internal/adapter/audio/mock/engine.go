// Package mock provides an in-memory implementation of the AudioEngine interface.
// It backs the service tests and the --mock-audio command line flag.
package mock

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/dancepractice/internal/domain"
	"github.com/tejashwikalptaru/dancepractice/internal/ports"
)

// DefaultDuration is the length reported for files without a configured duration.
const DefaultDuration = 3 * time.Minute

// Engine simulates audio playback in memory without producing sound.
//
// Thread-safety: This implementation is thread-safe.
type Engine struct {
	logger *slog.Logger

	mu          sync.RWMutex
	initialized bool
	tracks      map[domain.TrackHandle]*mockTrack
	nextHandle  domain.TrackHandle

	durations map[string]time.Duration
	loads     []string

	// Behavior configuration (for testing error scenarios)
	failInitialize bool
	failLoad       map[string]bool
	nullHandle     map[string]bool
	failPlay       bool
}

type mockTrack struct {
	path     string
	duration time.Duration
	position time.Duration
	volume   float64
	status   domain.PlaybackStatus
}

// NewEngine creates a new mock audio engine.
func NewEngine() *Engine {
	return &Engine{
		tracks:     make(map[domain.TrackHandle]*mockTrack),
		nextHandle: 1,
		durations:  make(map[string]time.Duration),
		failLoad:   make(map[string]bool),
		nullHandle: make(map[string]bool),
	}
}

// SetLogger sets the logger for this engine.
func (m *Engine) SetLogger(logger *slog.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = logger
}

// SetDuration sets the length reported for path. Zero means unknown.
func (m *Engine) SetDuration(path string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durations[path] = d
}

// SetFailInitialize configures the mock to fail initialization.
func (m *Engine) SetFailInitialize(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failInitialize = fail
}

// SetFailLoad makes Load of path return an error.
func (m *Engine) SetFailLoad(path string, fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failLoad[path] = fail
}

// SetNullHandle makes Load of path return InvalidTrackHandle without an error.
func (m *Engine) SetNullHandle(path string, null bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nullHandle[path] = null
}

// SetFailPlay configures the mock to fail playback.
func (m *Engine) SetFailPlay(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPlay = fail
}

// Initialize initializes the mock audio engine.
func (m *Engine) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failInitialize {
		return domain.NewAudioEngineError("initialize", "", -1, "mock initialization failed", nil)
	}
	if m.initialized {
		return domain.ErrAlreadyInitialized
	}
	m.initialized = true
	return nil
}

// Shutdown shuts down the mock audio engine.
func (m *Engine) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return domain.ErrNotInitialized
	}
	m.initialized = false
	m.tracks = make(map[domain.TrackHandle]*mockTrack)
	return nil
}

// IsInitialized returns true if the engine is initialized.
func (m *Engine) IsInitialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.initialized
}

// Load registers path as a loaded track.
func (m *Engine) Load(filePath string) (domain.TrackHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return domain.InvalidTrackHandle, domain.ErrNotInitialized
	}
	if filePath == "" {
		return domain.InvalidTrackHandle, domain.ErrInvalidFilePath
	}

	m.loads = append(m.loads, filePath)

	if m.failLoad[filePath] {
		return domain.InvalidTrackHandle, domain.NewAudioEngineError("load", filePath, -1, "mock load failed", nil)
	}
	if m.nullHandle[filePath] {
		return domain.InvalidTrackHandle, nil
	}

	duration, ok := m.durations[filePath]
	if !ok {
		duration = DefaultDuration
	}

	handle := m.nextHandle
	m.nextHandle++
	m.tracks[handle] = &mockTrack{
		path:     filePath,
		duration: duration,
		volume:   1.0,
		status:   domain.StatusStopped,
	}

	if m.logger != nil {
		m.logger.Debug("mock track loaded", slog.String("path", filePath), slog.Int64("handle", int64(handle)))
	}
	return handle, nil
}

func (m *Engine) lookup(handle domain.TrackHandle) (*mockTrack, error) {
	if !m.initialized {
		return nil, domain.ErrNotInitialized
	}
	track, ok := m.tracks[handle]
	if !ok {
		return nil, domain.ErrInvalidTrackHandle
	}
	return track, nil
}

// Unload unloads a previously loaded track.
func (m *Engine) Unload(handle domain.TrackHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.lookup(handle); err != nil {
		return err
	}
	delete(m.tracks, handle)
	return nil
}

// Play starts or resumes playback from the current position.
func (m *Engine) Play(handle domain.TrackHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	track, err := m.lookup(handle)
	if err != nil {
		return err
	}
	if m.failPlay {
		return domain.ErrPlaybackFailed
	}
	track.status = domain.StatusPlaying
	return nil
}

// Pause pauses playback.
func (m *Engine) Pause(handle domain.TrackHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	track, err := m.lookup(handle)
	if err != nil {
		return err
	}
	if track.status == domain.StatusPlaying {
		track.status = domain.StatusPaused
	}
	return nil
}

// Stop stops playback and unloads the track.
func (m *Engine) Stop(handle domain.TrackHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.lookup(handle); err != nil {
		return err
	}
	delete(m.tracks, handle)
	return nil
}

// Status returns the playback status.
func (m *Engine) Status(handle domain.TrackHandle) (domain.PlaybackStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	track, err := m.lookup(handle)
	if err != nil {
		return domain.StatusStopped, err
	}
	return track.status, nil
}

// Position returns the current playback position.
func (m *Engine) Position(handle domain.TrackHandle) (time.Duration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	track, err := m.lookup(handle)
	if err != nil {
		return 0, err
	}
	return track.position, nil
}

// Duration returns the total track duration.
func (m *Engine) Duration(handle domain.TrackHandle) (time.Duration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	track, err := m.lookup(handle)
	if err != nil {
		return 0, err
	}
	return track.duration, nil
}

// Seek sets the playback position.
func (m *Engine) Seek(handle domain.TrackHandle, position time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	track, err := m.lookup(handle)
	if err != nil {
		return err
	}
	if position < 0 || (track.duration > 0 && position > track.duration) {
		return domain.ErrInvalidPosition
	}
	track.position = position
	return nil
}

// SetVolume sets the playback volume.
func (m *Engine) SetVolume(handle domain.TrackHandle, volume float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	track, err := m.lookup(handle)
	if err != nil {
		return err
	}
	if !domain.ValidVolume(volume) {
		return domain.ErrInvalidVolume
	}
	track.volume = volume
	return nil
}

// GetVolume returns the current volume.
func (m *Engine) GetVolume(handle domain.TrackHandle) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	track, err := m.lookup(handle)
	if err != nil {
		return 0, err
	}
	return track.volume, nil
}

// GetLoadedTracks returns the number of currently loaded tracks.
func (m *Engine) GetLoadedTracks() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tracks)
}

// Loads returns every path passed to Load, in call order.
func (m *Engine) Loads() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.loads...)
}

// Current returns the handle of the single loaded track, or InvalidTrackHandle.
func (m *Engine) Current() domain.TrackHandle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for handle := range m.tracks {
		return handle
	}
	return domain.InvalidTrackHandle
}

// SimulateProgress advances a playing track by delta.
// Reaching the end stops the track.
func (m *Engine) SimulateProgress(handle domain.TrackHandle, delta time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	track, err := m.lookup(handle)
	if err != nil {
		return err
	}
	if track.status != domain.StatusPlaying {
		return fmt.Errorf("track %s is not playing", track.path)
	}

	track.position += delta
	if track.duration > 0 && track.position >= track.duration {
		track.position = track.duration
		track.status = domain.StatusStopped
	}
	return nil
}

var _ ports.AudioEngine = (*Engine)(nil)

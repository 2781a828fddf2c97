// Package beep provides the speaker-backed AudioEngine built on gopxl/beep.
package beep

import (
	"log/slog"
	"math"
	"sync"
	"time"

	gobeep "github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/tejashwikalptaru/dancepractice/internal/domain"
	"github.com/tejashwikalptaru/dancepractice/internal/ports"
)

const (
	// SampleRate is the output rate; decoded streams are resampled to it.
	SampleRate gobeep.SampleRate = 44100

	// bufferDuration is the speaker buffer length.
	bufferDuration = 100 * time.Millisecond

	resampleQuality = 4
)

// Engine plays audio through the default output device.
//
// Thread-safety: engine state is guarded by mu; stream state shared with the
// speaker goroutine is only touched under speaker.Lock.
type Engine struct {
	logger *slog.Logger

	mu          sync.RWMutex
	initialized bool
	tracks      map[domain.TrackHandle]*stream
	nextHandle  domain.TrackHandle
}

type stream struct {
	path     string
	decoder  gobeep.StreamSeekCloser
	format   gobeep.Format
	ctrl     *gobeep.Ctrl
	volume   *effects.Volume
	level    float64
	started  bool
	finished bool
	paused   bool
}

// NewEngine creates a new beep audio engine.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		logger:     logger.With(slog.String("component", "audio")),
		tracks:     make(map[domain.TrackHandle]*stream),
		nextHandle: 1,
	}
}

// Initialize opens the speaker.
func (e *Engine) Initialize() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return domain.ErrAlreadyInitialized
	}
	if err := speaker.Init(SampleRate, SampleRate.N(bufferDuration)); err != nil {
		return domain.NewAudioEngineError("initialize", "", -1, "cannot open output device", err)
	}
	e.initialized = true
	return nil
}

// Shutdown unloads every track and closes the speaker.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return domain.ErrNotInitialized
	}
	for handle := range e.tracks {
		e.release(handle)
	}
	speaker.Clear()
	speaker.Close()
	e.initialized = false
	return nil
}

// IsInitialized returns true if the speaker is open.
func (e *Engine) IsInitialized() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.initialized
}

// Load decodes the file header and prepares the stream paused at the start.
func (e *Engine) Load(filePath string) (domain.TrackHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return domain.InvalidTrackHandle, domain.ErrNotInitialized
	}
	if filePath == "" {
		return domain.InvalidTrackHandle, domain.ErrInvalidFilePath
	}

	decoder, format, err := openStream(filePath)
	if err != nil {
		return domain.InvalidTrackHandle, domain.NewAudioEngineError("load", filePath, -1, "cannot decode file", err)
	}

	s := &stream{
		path:    filePath,
		decoder: decoder,
		format:  format,
		ctrl:    &gobeep.Ctrl{Streamer: decoder, Paused: true},
		level:   1.0,
	}
	s.volume = &effects.Volume{Streamer: s.ctrl, Base: 2}

	handle := e.nextHandle
	e.nextHandle++
	e.tracks[handle] = s

	e.logger.Debug("track loaded",
		slog.String("path", filePath),
		slog.Int("sample_rate", int(format.SampleRate)),
		slog.Duration("length", format.SampleRate.D(decoder.Len())))
	return handle, nil
}

func (e *Engine) lookup(handle domain.TrackHandle) (*stream, error) {
	if !e.initialized {
		return nil, domain.ErrNotInitialized
	}
	s, ok := e.tracks[handle]
	if !ok {
		return nil, domain.ErrInvalidTrackHandle
	}
	return s, nil
}

// Unload detaches the stream from the speaker and closes the file.
func (e *Engine) Unload(handle domain.TrackHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.lookup(handle); err != nil {
		return err
	}
	e.release(handle)
	return nil
}

// release must be called with e.mu held.
func (e *Engine) release(handle domain.TrackHandle) {
	s := e.tracks[handle]
	delete(e.tracks, handle)

	speaker.Lock()
	s.ctrl.Streamer = nil
	speaker.Unlock()

	if err := s.decoder.Close(); err != nil {
		e.logger.Warn("closing decoder failed", slog.String("path", s.path), slog.Any("error", err))
	}
}

// Play starts the stream on first use and unpauses it afterwards.
func (e *Engine) Play(handle domain.TrackHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.lookup(handle)
	if err != nil {
		return err
	}

	if !s.started {
		s.started = true
		s.ctrl.Paused = false
		var out gobeep.Streamer = s.volume
		if s.format.SampleRate != SampleRate {
			out = gobeep.Resample(resampleQuality, s.format.SampleRate, SampleRate, s.volume)
		}
		speaker.Play(gobeep.Seq(out, gobeep.Callback(func() {
			e.markFinished(handle)
		})))
		s.paused = false
		return nil
	}

	speaker.Lock()
	s.ctrl.Paused = false
	speaker.Unlock()
	s.paused = false
	return nil
}

// markFinished runs on the speaker goroutine when a stream drains.
func (e *Engine) markFinished(handle domain.TrackHandle) {
	go func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if s, ok := e.tracks[handle]; ok {
			s.finished = true
		}
	}()
}

// Pause pauses output, keeping the position.
func (e *Engine) Pause(handle domain.TrackHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.lookup(handle)
	if err != nil {
		return err
	}
	speaker.Lock()
	s.ctrl.Paused = true
	speaker.Unlock()
	s.paused = true
	return nil
}

// Stop stops output and unloads the track.
func (e *Engine) Stop(handle domain.TrackHandle) error {
	return e.Unload(handle)
}

// Status reports playing, paused or stopped (not started or drained).
func (e *Engine) Status(handle domain.TrackHandle) (domain.PlaybackStatus, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s, err := e.lookup(handle)
	if err != nil {
		return domain.StatusStopped, err
	}
	switch {
	case !s.started || s.finished:
		return domain.StatusStopped, nil
	case s.paused:
		return domain.StatusPaused, nil
	default:
		return domain.StatusPlaying, nil
	}
}

// Position returns the decoder position.
func (e *Engine) Position(handle domain.TrackHandle) (time.Duration, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s, err := e.lookup(handle)
	if err != nil {
		return 0, err
	}
	speaker.Lock()
	pos := s.format.SampleRate.D(s.decoder.Position())
	speaker.Unlock()
	return pos, nil
}

// Duration returns the decoded length, or zero when the decoder cannot tell.
func (e *Engine) Duration(handle domain.TrackHandle) (time.Duration, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s, err := e.lookup(handle)
	if err != nil {
		return 0, err
	}
	n := s.decoder.Len()
	if n <= 0 {
		return 0, nil
	}
	return s.format.SampleRate.D(n), nil
}

// Seek moves the decoder to position.
func (e *Engine) Seek(handle domain.TrackHandle, position time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.lookup(handle)
	if err != nil {
		return err
	}
	n := s.format.SampleRate.N(position)
	if n < 0 || (s.decoder.Len() > 0 && n > s.decoder.Len()) {
		return domain.ErrInvalidPosition
	}

	speaker.Lock()
	err = s.decoder.Seek(n)
	speaker.Unlock()
	if err != nil {
		return domain.NewAudioEngineError("seek", s.path, -1, "seek failed", err)
	}
	return nil
}

// SetVolume maps a linear level onto the base-2 gain of effects.Volume.
func (e *Engine) SetVolume(handle domain.TrackHandle, volume float64) error {
	if !domain.ValidVolume(volume) {
		return domain.ErrInvalidVolume
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.lookup(handle)
	if err != nil {
		return err
	}

	speaker.Lock()
	s.volume.Silent = volume == 0
	if volume > 0 {
		s.volume.Volume = math.Log2(volume)
	}
	speaker.Unlock()
	s.level = volume
	return nil
}

// GetVolume returns the last level set.
func (e *Engine) GetVolume(handle domain.TrackHandle) (float64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s, err := e.lookup(handle)
	if err != nil {
		return 0, err
	}
	return s.level, nil
}

var _ ports.AudioEngine = (*Engine)(nil)

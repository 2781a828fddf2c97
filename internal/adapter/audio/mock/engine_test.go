package mock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/dancepractice/internal/domain"
)

func newInitializedEngine(t *testing.T) *Engine {
	t.Helper()
	engine := NewEngine()
	require.NoError(t, engine.Initialize())
	return engine
}

func TestInitializeTwice(t *testing.T) {
	engine := newInitializedEngine(t)
	assert.ErrorIs(t, engine.Initialize(), domain.ErrAlreadyInitialized)

	require.NoError(t, engine.Shutdown())
	assert.ErrorIs(t, engine.Shutdown(), domain.ErrNotInitialized)
}

func TestInitializeFailure(t *testing.T) {
	engine := NewEngine()
	engine.SetFailInitialize(true)

	var engErr *domain.AudioEngineError
	assert.ErrorAs(t, engine.Initialize(), &engErr)
	assert.False(t, engine.IsInitialized())
}

func TestLoadPlayPauseStop(t *testing.T) {
	engine := newInitializedEngine(t)
	engine.SetDuration("/m/a.mp3", 200*time.Second)

	handle, err := engine.Load("/m/a.mp3")
	require.NoError(t, err)
	require.NotEqual(t, domain.InvalidTrackHandle, handle)

	d, err := engine.Duration(handle)
	require.NoError(t, err)
	assert.Equal(t, 200*time.Second, d)

	require.NoError(t, engine.Seek(handle, 30*time.Second))
	require.NoError(t, engine.Play(handle))
	require.NoError(t, engine.SimulateProgress(handle, 5*time.Second))

	pos, err := engine.Position(handle)
	require.NoError(t, err)
	assert.Equal(t, 35*time.Second, pos)

	require.NoError(t, engine.Pause(handle))
	status, err := engine.Status(handle)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaused, status)
	assert.Error(t, engine.SimulateProgress(handle, time.Second))

	require.NoError(t, engine.Stop(handle))
	assert.Zero(t, engine.GetLoadedTracks())
	assert.ErrorIs(t, engine.Play(handle), domain.ErrInvalidTrackHandle)
}

func TestLoadFailureModes(t *testing.T) {
	engine := newInitializedEngine(t)
	engine.SetFailLoad("/m/broken.mp3", true)
	engine.SetNullHandle("/m/null.mp3", true)

	_, err := engine.Load("/m/broken.mp3")
	var engErr *domain.AudioEngineError
	assert.ErrorAs(t, err, &engErr)

	handle, err := engine.Load("/m/null.mp3")
	assert.NoError(t, err)
	assert.Equal(t, domain.InvalidTrackHandle, handle)

	_, err = engine.Load("")
	assert.ErrorIs(t, err, domain.ErrInvalidFilePath)

	assert.Equal(t, []string{"/m/broken.mp3", "/m/null.mp3"}, engine.Loads())
	assert.Zero(t, engine.GetLoadedTracks())
}

func TestSeekAndVolumeBounds(t *testing.T) {
	engine := newInitializedEngine(t)
	engine.SetDuration("/m/a.mp3", time.Minute)
	handle, err := engine.Load("/m/a.mp3")
	require.NoError(t, err)

	assert.ErrorIs(t, engine.Seek(handle, 2*time.Minute), domain.ErrInvalidPosition)
	assert.ErrorIs(t, engine.Seek(handle, -time.Second), domain.ErrInvalidPosition)
	assert.ErrorIs(t, engine.SetVolume(handle, 1.5), domain.ErrInvalidVolume)

	require.NoError(t, engine.SetVolume(handle, 0.4))
	v, err := engine.GetVolume(handle)
	require.NoError(t, err)
	assert.InDelta(t, 0.4, v, 1e-9)
}

func TestSimulateProgressStopsAtEnd(t *testing.T) {
	engine := newInitializedEngine(t)
	engine.SetDuration("/m/a.mp3", 10*time.Second)
	handle, err := engine.Load("/m/a.mp3")
	require.NoError(t, err)
	require.NoError(t, engine.Play(handle))

	require.NoError(t, engine.SimulateProgress(handle, time.Minute))

	pos, _ := engine.Position(handle)
	status, _ := engine.Status(handle)
	assert.Equal(t, 10*time.Second, pos)
	assert.Equal(t, domain.StatusStopped, status)
	assert.Equal(t, handle, engine.Current())
}

func TestNotInitialized(t *testing.T) {
	engine := NewEngine()

	_, err := engine.Load("/m/a.mp3")
	assert.ErrorIs(t, err, domain.ErrNotInitialized)
	_, err = engine.Position(1)
	assert.ErrorIs(t, err, domain.ErrNotInitialized)
}

package service

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/dancepractice/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/dancepractice/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/dancepractice/internal/domain"
	"github.com/tejashwikalptaru/dancepractice/internal/logger"
	"github.com/tejashwikalptaru/dancepractice/internal/testutil"
)

const waitTimeout = 2 * time.Second

// stubGenerator hands out prepared playlists in order, repeating the last one.
type stubGenerator struct {
	mu        sync.Mutex
	playlists []domain.Playlist
	err       error
	calls     int
	gate      chan struct{}
}

func (g *stubGenerator) Build(ctx context.Context, rootDir string, preset domain.Preset) (domain.Playlist, error) {
	g.mu.Lock()
	gate := g.gate
	g.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return domain.Playlist{}, ctx.Err()
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return domain.Playlist{}, g.err
	}
	if len(g.playlists) == 0 {
		return domain.Playlist{ID: uuid.NewString(), PresetName: preset.Name, MusicDir: rootDir}, nil
	}
	i := min(g.calls-1, len(g.playlists)-1)
	return g.playlists[i], nil
}

func (g *stubGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type practiceFixture struct {
	svc    *PracticeService
	engine *mock.Engine
	gen    *stubGenerator
	bus    *eventbus.SyncEventBus
	rec    *testutil.EventRecorder
	logs   *logger.Recorder
	root   string
}

func (f *practiceFixture) close() {
	_ = f.svc.Shutdown()
	_ = f.engine.Shutdown()
	_ = f.bus.Close()
}

// song creates a file under the fixture root and returns its track.
func (f *practiceFixture) song(t *testing.T, dance, name string, d time.Duration) domain.Track {
	t.Helper()
	rel := dance + "/" + name
	writeFiles(t, f.root, rel)
	path := filepath.Join(f.root, dance, name)
	f.engine.SetDuration(path, d)
	return domain.Track{ID: uuid.NewString(), Path: path, Dance: dance}
}

func (f *practiceFixture) announcement(t *testing.T, dance string, d time.Duration) domain.Track {
	t.Helper()
	tr := f.song(t, AnnounceDirName, dance+".ogg", d)
	tr.Dance = domain.AnnounceDance
	tr.Introduces = dance
	return tr
}

func newPracticeFixture(t *testing.T, preset domain.Preset) *practiceFixture {
	t.Helper()

	engine := mock.NewEngine()
	require.NoError(t, engine.Initialize())

	bus := eventbus.NewSyncEventBus(nil)
	gen := &stubGenerator{}
	log, logs := logger.NewRecordingLogger()
	f := &practiceFixture{
		engine: engine,
		gen:    gen,
		bus:    bus,
		rec:    testutil.RecordEvents(t, bus),
		logs:   logs,
		root:   t.TempDir(),
	}
	f.svc = NewPracticeService(log, engine, gen, bus, preset, PracticeConfig{
		MusicDir:           f.root,
		Volume:             0.7,
		DefaultMaxPlaytime: 180 * time.Second,
		FadeDuration:       10 * time.Second,
		TickInterval:       100 * time.Millisecond,
		ManualTick:         true,
	})
	return f
}

// load queues the given playlists and waits until the first one is active.
func (f *practiceFixture) load(t *testing.T, playlists ...[]domain.Track) {
	t.Helper()
	for _, tracks := range playlists {
		f.gen.playlists = append(f.gen.playlists, domain.Playlist{ID: uuid.NewString(), MusicDir: f.root, Tracks: tracks})
	}
	require.NoError(t, f.svc.Regenerate())
	f.waitStatus(t, domain.StatusStopped)
	require.Equal(t, len(playlists[0]), f.svc.Playlist().Len())
}

func (f *practiceFixture) waitStatus(t *testing.T, status domain.PlaybackStatus) {
	t.Helper()
	require.Eventually(t, func() bool {
		if f.svc.GetState().Status != status {
			return false
		}
		changes := f.rec.Of(domain.EventStatusChanged)
		return len(changes) > 0 && changes[len(changes)-1].(domain.StatusChangedEvent).Status == status
	}, waitTimeout, 5*time.Millisecond, "status never became %s", status)
}

// advanceTo moves the playing track to position and runs one tick.
func (f *practiceFixture) advanceTo(t *testing.T, position time.Duration) {
	t.Helper()
	h := f.engine.Current()
	require.NotEqual(t, domain.InvalidTrackHandle, h)
	require.NoError(t, f.engine.Seek(h, position))
	f.svc.Tick()
}

func (f *practiceFixture) appliedVolume(t *testing.T) float64 {
	t.Helper()
	v, err := f.engine.GetVolume(f.engine.Current())
	require.NoError(t, err)
	return v
}

func basicPreset() domain.Preset {
	return domain.Preset{Name: "practice", Dances: []string{"Waltz", "Tango"}, NumSelections: 1}
}

func TestPracticeService_RegenerateReplacesPlaylist(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	f := newPracticeFixture(t, basicPreset())
	defer f.close()

	waltz := f.song(t, "Waltz", "a.mp3", time.Minute)
	f.load(t, []domain.Track{waltz})

	state := f.svc.GetState()
	assert.Equal(t, 0, state.Index)
	assert.Equal(t, time.Duration(0), state.Offset)
	assert.Equal(t, 1, state.PlaylistLen)
	require.NotNil(t, state.CurrentTrack)
	assert.Equal(t, waltz.Path, state.CurrentTrack.Path)

	started := f.rec.Of(domain.EventGenerationStarted)
	require.Len(t, started, 1)
	assert.False(t, started[0].(domain.GenerationStartedEvent).Automatic)
	assert.Equal(t, 1, f.rec.Count(domain.EventPlaylistReplaced))
	assert.Equal(t, 0, f.engine.GetLoadedTracks())
}

func TestPracticeService_PlayPauseResume(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	f := newPracticeFixture(t, basicPreset())
	defer f.close()

	f.load(t, []domain.Track{f.song(t, "Waltz", "a.mp3", time.Minute)})

	require.NoError(t, f.svc.Play())
	assert.Equal(t, domain.StatusPlaying, f.svc.GetState().Status)
	assert.InDelta(t, 0.7, f.appliedVolume(t), 1e-9)
	handle := f.engine.Current()

	require.NoError(t, f.engine.SimulateProgress(handle, 12*time.Second))
	require.NoError(t, f.svc.TogglePlayPause())
	state := f.svc.GetState()
	assert.Equal(t, domain.StatusPaused, state.Status)
	assert.Equal(t, 12*time.Second, state.Offset)
	assert.Equal(t, 1, f.engine.GetLoadedTracks())

	require.NoError(t, f.svc.TogglePlayPause())
	assert.Equal(t, domain.StatusPlaying, f.svc.GetState().Status)
	assert.Equal(t, handle, f.engine.Current())
	pos, err := f.engine.Position(handle)
	require.NoError(t, err)
	assert.Equal(t, 12*time.Second, pos)

	assert.Equal(t, 2, f.rec.Count(domain.EventTrackStarted))
	assert.Equal(t, 1, f.rec.Count(domain.EventTrackPaused))
}

func TestPracticeService_StopUnloadsAndRewinds(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	f := newPracticeFixture(t, basicPreset())
	defer f.close()

	f.load(t, []domain.Track{
		f.song(t, "Waltz", "a.mp3", time.Minute),
		f.song(t, "Tango", "b.mp3", time.Minute),
	})
	require.NoError(t, f.svc.SelectTrack(1))
	require.NoError(t, f.engine.SimulateProgress(f.engine.Current(), 20*time.Second))
	f.svc.Tick()
	f.rec.Reset()

	require.NoError(t, f.svc.Stop())
	state := f.svc.GetState()
	assert.Equal(t, domain.StatusStopped, state.Status)
	assert.Equal(t, 1, state.Index)
	assert.Equal(t, time.Duration(0), state.Offset)
	assert.Equal(t, 0, f.engine.GetLoadedTracks())
	assert.Equal(t, 1, f.rec.Count(domain.EventTrackStopped))
}

func TestPracticeService_ReleasingTracksLogsNoWarnings(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	f := newPracticeFixture(t, basicPreset())
	defer f.close()

	f.load(t, []domain.Track{
		f.song(t, "Waltz", "a.mp3", 30*time.Second),
		f.song(t, "Tango", "b.mp3", 30*time.Second),
	})

	require.NoError(t, f.svc.Play())
	f.advanceTo(t, 29*time.Second)
	require.Equal(t, 1, f.svc.GetState().Index)
	require.NoError(t, f.svc.SelectTrack(0))
	require.NoError(t, f.svc.RestartPlaylist())
	require.NoError(t, f.svc.Stop())
	require.NoError(t, f.svc.Play())
	require.NoError(t, f.svc.Shutdown())

	assert.Equal(t, 0, f.engine.GetLoadedTracks())
	assert.Empty(t, f.logs.AtLeast(slog.LevelWarn))
}

func TestPracticeService_PlayEmptyPlaylist(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	f := newPracticeFixture(t, basicPreset())
	defer f.close()

	assert.ErrorIs(t, f.svc.Play(), domain.ErrPlaylistEmpty)
	assert.ErrorIs(t, f.svc.RestartTrack(), domain.ErrPlaylistEmpty)
	assert.ErrorIs(t, f.svc.SelectTrack(0), domain.ErrInvalidIndex)
}

func TestPracticeService_FadeAndAdvanceAfterMaxPlaytime(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	f := newPracticeFixture(t, basicPreset())
	defer f.close()

	first := f.song(t, "Waltz", "long.mp3", 200*time.Second)
	second := f.song(t, "Tango", "next.mp3", 200*time.Second)
	f.load(t, []domain.Track{first, second})
	require.NoError(t, f.svc.Play())
	assert.Equal(t, 180*time.Second, f.svc.GetState().MaxPlaytime)

	f.advanceTo(t, 180*time.Second-100*time.Millisecond)
	assert.InDelta(t, 0.7, f.appliedVolume(t), 1e-9)
	assert.Zero(t, f.rec.Count(domain.EventTrackFading))

	f.advanceTo(t, 181*time.Second)
	prev := f.appliedVolume(t)
	assert.InDelta(t, 0.7*0.99, prev, 1e-9)

	handle := f.engine.Current()
	for elapsed := 181*time.Second + 100*time.Millisecond; elapsed <= 190*time.Second; elapsed += 100 * time.Millisecond {
		require.NoError(t, f.engine.SimulateProgress(handle, 100*time.Millisecond))
		f.svc.Tick()
		require.Equal(t, 0, f.svc.GetState().Index, "advanced early at %s", elapsed)

		v := f.appliedVolume(t)
		assert.Less(t, v, prev, "volume did not drop at %s", elapsed)
		prev = v
	}
	assert.Greater(t, prev, 0.0)

	require.NoError(t, f.engine.SimulateProgress(handle, 100*time.Millisecond))
	f.svc.Tick()

	state := f.svc.GetState()
	assert.Equal(t, 1, state.Index)
	assert.Equal(t, domain.StatusPlaying, state.Status)
	assert.Equal(t, time.Duration(0), state.Offset)
	assert.InDelta(t, 0.7, state.AppliedVolume, 1e-9)
	assert.Equal(t, []string{first.Path, second.Path}, f.engine.Loads())
	assert.Equal(t, 1, f.engine.GetLoadedTracks())
}

func TestPracticeService_AdvanceAtNaturalEnd(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	f := newPracticeFixture(t, basicPreset())
	defer f.close()

	f.load(t, []domain.Track{
		f.song(t, "Waltz", "a.mp3", 200*time.Second),
		f.song(t, "Tango", "b.mp3", 200*time.Second),
	})
	require.NoError(t, f.svc.SetDefaultMaxPlaytime(300*time.Second))
	require.NoError(t, f.svc.Play())

	f.advanceTo(t, 198*time.Second+900*time.Millisecond)
	assert.Equal(t, 0, f.svc.GetState().Index)
	assert.Zero(t, f.rec.Count(domain.EventTrackFading))

	f.advanceTo(t, 199*time.Second)
	assert.Equal(t, 1, f.svc.GetState().Index)
}

func TestPracticeService_NoFadeWhenDisabled(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	engine := mock.NewEngine()
	require.NoError(t, engine.Initialize())
	defer engine.Shutdown()
	bus := eventbus.NewSyncEventBus(nil)
	defer bus.Close()

	root := t.TempDir()
	writeFiles(t, root, "Waltz/a.mp3", "Waltz/b.mp3")
	a := filepath.Join(root, "Waltz", "a.mp3")
	engine.SetDuration(a, 200*time.Second)
	gen := &stubGenerator{playlists: []domain.Playlist{{Tracks: []domain.Track{
		{Path: a, Dance: "Waltz"},
		{Path: filepath.Join(root, "Waltz", "b.mp3"), Dance: "Waltz"},
	}}}}

	svc := NewPracticeService(logger.NewTestLogger(), engine, gen, bus, basicPreset(), PracticeConfig{
		MusicDir:           root,
		Volume:             0.5,
		DefaultMaxPlaytime: 180 * time.Second,
		ManualTick:         true,
	})
	defer svc.Shutdown()

	require.NoError(t, svc.Regenerate())
	require.Eventually(t, func() bool { return svc.Playlist().Len() == 2 }, waitTimeout, 5*time.Millisecond)
	require.Eventually(t, func() bool { return svc.GetState().Status == domain.StatusStopped }, waitTimeout, 5*time.Millisecond)
	require.NoError(t, svc.Play())

	require.NoError(t, engine.Seek(engine.Current(), 180*time.Second))
	svc.Tick()
	v, err := engine.GetVolume(engine.Current())
	require.NoError(t, err)
	assert.InDelta(t, 0.5, v, 1e-9)
	assert.Equal(t, 0, svc.GetState().Index)

	require.NoError(t, engine.Seek(engine.Current(), 180*time.Second+100*time.Millisecond))
	svc.Tick()
	assert.Equal(t, 1, svc.GetState().Index)
}

func TestPracticeService_AnnouncementPlaysOut(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	f := newPracticeFixture(t, basicPreset())
	defer f.close()

	require.NoError(t, f.svc.SetDefaultMaxPlaytime(2*time.Second))
	f.load(t, []domain.Track{
		f.announcement(t, "Waltz", 5*time.Second),
		f.song(t, "Waltz", "a.mp3", time.Minute),
	})
	require.NoError(t, f.svc.Play())
	assert.Equal(t, 5*time.Second, f.svc.GetState().MaxPlaytime)

	f.advanceTo(t, 3900*time.Millisecond)
	assert.Equal(t, 0, f.svc.GetState().Index)
	assert.InDelta(t, 0.7, f.appliedVolume(t), 1e-9)

	f.advanceTo(t, 4*time.Second)
	state := f.svc.GetState()
	assert.Equal(t, 1, state.Index)
	assert.Equal(t, 2*time.Second, state.MaxPlaytime)
}

func TestPracticeService_DanceMaxPlaytimeOverride(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	preset := basicPreset()
	preset.DanceMaxPlaytimes = map[string]time.Duration{"Tango": 90 * time.Second}
	f := newPracticeFixture(t, preset)
	defer f.close()

	f.load(t, []domain.Track{
		f.song(t, "Waltz", "a.mp3", 200*time.Second),
		f.song(t, "Tango", "b.mp3", 200*time.Second),
	})

	require.NoError(t, f.svc.Play())
	assert.Equal(t, 180*time.Second, f.svc.GetState().MaxPlaytime)

	require.NoError(t, f.svc.SelectTrack(1))
	assert.Equal(t, 90*time.Second, f.svc.GetState().MaxPlaytime)

	changed := f.rec.Of(domain.EventTrackChanged)
	last := changed[len(changed)-1].(domain.TrackChangedEvent)
	assert.Equal(t, 1, last.Index)
	assert.Equal(t, 90*time.Second, last.MaxPlaytime)
}

func TestPracticeService_EndOfPlaylistStops(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	f := newPracticeFixture(t, basicPreset())
	defer f.close()

	f.load(t, []domain.Track{
		f.song(t, "Waltz", "a.mp3", 30*time.Second),
		f.song(t, "Tango", "b.mp3", 30*time.Second),
	})
	require.NoError(t, f.svc.SelectTrack(1))

	f.advanceTo(t, 29*time.Second)

	state := f.svc.GetState()
	assert.Equal(t, domain.StatusStopped, state.Status)
	assert.Equal(t, 0, state.Index)
	assert.Equal(t, 0, f.engine.GetLoadedTracks())
	assert.Equal(t, 1, f.gen.Calls())
}

func TestPracticeService_EndOfPlaylistRegenerates(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	preset := basicPreset()
	preset.AutoUpdate = true
	f := newPracticeFixture(t, preset)
	defer f.close()

	first := []domain.Track{f.song(t, "Waltz", "a.mp3", 30*time.Second)}
	second := []domain.Track{
		f.song(t, "Waltz", "c.mp3", 30*time.Second),
		f.song(t, "Tango", "d.mp3", 30*time.Second),
	}
	f.load(t, first, second)
	firstID := f.svc.Playlist().ID
	require.NoError(t, f.svc.Play())

	f.advanceTo(t, 29*time.Second)
	f.rec.WaitFor(t, domain.EventPlaylistReplaced, 2, waitTimeout)
	f.waitStatus(t, domain.StatusPlaying)

	state := f.svc.GetState()
	assert.Equal(t, 0, state.Index)
	assert.Equal(t, 2, state.PlaylistLen)
	assert.NotEqual(t, firstID, f.svc.Playlist().ID)
	assert.Equal(t, second[0].Path, f.engine.Loads()[len(f.engine.Loads())-1])

	started := f.rec.Of(domain.EventGenerationStarted)
	require.Len(t, started, 2)
	assert.True(t, started[1].(domain.GenerationStartedEvent).Automatic)
}

func TestPracticeService_SingleSongStops(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	preset := basicPreset()
	preset.PlaySingleSong = true
	preset.AutoUpdate = true
	f := newPracticeFixture(t, preset)
	defer f.close()

	f.load(t, []domain.Track{
		f.song(t, "Waltz", "a.mp3", 200*time.Second),
		f.song(t, "Tango", "b.mp3", 200*time.Second),
	})
	require.NoError(t, f.svc.Play())

	f.advanceTo(t, 190*time.Second)
	assert.Zero(t, f.rec.Count(domain.EventTrackFading))
	assert.Equal(t, domain.StatusPlaying, f.svc.GetState().Status)

	f.advanceTo(t, 199*time.Second)
	state := f.svc.GetState()
	assert.Equal(t, domain.StatusStopped, state.Status)
	assert.Equal(t, 0, state.Index)
	assert.Equal(t, 0, f.engine.GetLoadedTracks())
	assert.Equal(t, 1, f.gen.Calls())
}

func TestPracticeService_SkipsMissingFile(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	f := newPracticeFixture(t, basicPreset())
	defer f.close()

	gone := domain.Track{Path: filepath.Join(f.root, "Waltz", "deleted.mp3"), Dance: "Waltz"}
	next := f.song(t, "Tango", "b.mp3", time.Minute)
	f.load(t, []domain.Track{gone, next})

	require.NoError(t, f.svc.Play())

	state := f.svc.GetState()
	assert.Equal(t, domain.StatusPlaying, state.Status)
	assert.Equal(t, 1, state.Index)
	assert.Equal(t, []string{next.Path}, f.engine.Loads())

	errs := f.rec.Of(domain.EventTrackError)
	require.Len(t, errs, 1)
	ev := errs[0].(domain.TrackErrorEvent)
	assert.ErrorIs(t, ev.Error, domain.ErrFileNotFound)
	assert.Equal(t, 0, ev.Index)
	assert.Contains(t, ev.Message, "deleted.mp3")
}

func TestPracticeService_SkipsLoadFailures(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	f := newPracticeFixture(t, basicPreset())
	defer f.close()

	broken := f.song(t, "Waltz", "broken.m4a", time.Minute)
	null := f.song(t, "Waltz", "null.mp3", time.Minute)
	good := f.song(t, "Tango", "good.mp3", time.Minute)
	f.engine.SetFailLoad(broken.Path, true)
	f.engine.SetNullHandle(null.Path, true)
	f.load(t, []domain.Track{broken, null, good})

	require.NoError(t, f.svc.Play())

	assert.Equal(t, 2, f.svc.GetState().Index)
	errs := f.rec.Of(domain.EventTrackError)
	require.Len(t, errs, 2)
	assert.ErrorIs(t, errs[1].(domain.TrackErrorEvent).Error, domain.ErrNullHandle)
}

func TestPracticeService_AllTracksBrokenTerminates(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	preset := basicPreset()
	preset.AutoUpdate = true
	f := newPracticeFixture(t, preset)
	defer f.close()

	a := f.song(t, "Waltz", "a.mp3", time.Minute)
	b := f.song(t, "Tango", "b.mp3", time.Minute)
	f.engine.SetFailLoad(a.Path, true)
	f.engine.SetFailLoad(b.Path, true)
	f.load(t, []domain.Track{a, b})

	require.NoError(t, f.svc.Play())

	state := f.svc.GetState()
	assert.Equal(t, domain.StatusStopped, state.Status)
	assert.Equal(t, 0, state.Index)
	assert.Equal(t, 1, f.gen.Calls())
	assert.Equal(t, 2, f.rec.Count(domain.EventTrackError))
}

func TestPracticeService_GeneratingRejectsTransport(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	f := newPracticeFixture(t, basicPreset())
	defer f.close()

	song := f.song(t, "Waltz", "a.mp3", time.Minute)
	f.gen.gate = make(chan struct{})
	f.gen.playlists = []domain.Playlist{{ID: "p1", Tracks: []domain.Track{song}}}

	require.NoError(t, f.svc.Regenerate())
	assert.Equal(t, domain.StatusGenerating, f.svc.GetState().Status)

	assert.ErrorIs(t, f.svc.Play(), domain.ErrGenerationInProgress)
	assert.ErrorIs(t, f.svc.TogglePlayPause(), domain.ErrGenerationInProgress)
	assert.ErrorIs(t, f.svc.Stop(), domain.ErrGenerationInProgress)
	assert.ErrorIs(t, f.svc.SelectTrack(0), domain.ErrGenerationInProgress)
	assert.ErrorIs(t, f.svc.Regenerate(), domain.ErrGenerationInProgress)
	assert.NoError(t, f.svc.SetVolume(0.3))

	close(f.gen.gate)
	f.waitStatus(t, domain.StatusStopped)

	assert.Equal(t, "p1", f.svc.Playlist().ID)
	assert.Equal(t, 1, f.gen.Calls())
	assert.Equal(t, 0.3, f.svc.GetState().Volume)
}

func TestPracticeService_GenerationFailureKeepsPlaylist(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	f := newPracticeFixture(t, basicPreset())
	defer f.close()

	f.load(t, []domain.Track{f.song(t, "Waltz", "a.mp3", time.Minute)})
	id := f.svc.Playlist().ID

	f.gen.mu.Lock()
	f.gen.err = errors.New("walk failed")
	f.gen.mu.Unlock()

	require.NoError(t, f.svc.Regenerate())
	f.rec.WaitFor(t, domain.EventGenerationFailed, 1, waitTimeout)
	f.waitStatus(t, domain.StatusStopped)
	assert.Equal(t, id, f.svc.Playlist().ID)
}

func TestPracticeService_SetPresetAndMusicDirRegenerate(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	f := newPracticeFixture(t, basicPreset())
	defer f.close()

	f.load(t, []domain.Track{f.song(t, "Waltz", "a.mp3", time.Minute)})
	require.NoError(t, f.svc.Play())

	other := domain.Preset{Name: "other", Dances: []string{"Jive"}, AdjustSongCounts: true}
	require.NoError(t, f.svc.SetPreset(other))
	f.rec.WaitFor(t, domain.EventPlaylistReplaced, 2, waitTimeout)
	f.waitStatus(t, domain.StatusStopped)
	assert.Equal(t, "other", f.svc.GetState().PresetName)
	assert.Equal(t, domain.DefaultDanceAdjustments(), f.svc.Preset().DanceAdjustments)
	assert.Equal(t, 0, f.engine.GetLoadedTracks())

	dir := t.TempDir()
	require.NoError(t, f.svc.SetMusicDir(dir))
	f.rec.WaitFor(t, domain.EventPlaylistReplaced, 3, waitTimeout)
	f.waitStatus(t, domain.StatusStopped)
	assert.Equal(t, dir, f.svc.MusicDir())
	assert.Equal(t, 3, f.gen.Calls())
}

func TestPracticeService_SettingsChangeSupersedesGeneration(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	f := newPracticeFixture(t, basicPreset())
	defer f.close()

	f.gen.gate = make(chan struct{})
	require.NoError(t, f.svc.Regenerate())
	require.Equal(t, domain.StatusGenerating, f.svc.GetState().Status)

	dir := t.TempDir()
	require.NoError(t, f.svc.SetMusicDir(dir))
	assert.Equal(t, dir, f.svc.MusicDir())
	f.rec.WaitFor(t, domain.EventGenerationStarted, 2, waitTimeout)

	other := domain.Preset{Name: "other", Dances: []string{"Jive"}}
	require.NoError(t, f.svc.SetPreset(other))
	assert.Equal(t, "other", f.svc.Preset().Name)
	started := f.rec.WaitFor(t, domain.EventGenerationStarted, 3, waitTimeout)
	last := started[len(started)-1].(domain.GenerationStartedEvent)
	assert.Equal(t, dir, last.MusicDir)
	assert.Equal(t, "other", last.PresetName)

	close(f.gen.gate)
	f.waitStatus(t, domain.StatusStopped)

	pl := f.svc.Playlist()
	assert.Equal(t, dir, pl.MusicDir)
	assert.Equal(t, "other", pl.PresetName)
	assert.Equal(t, 1, f.rec.Count(domain.EventPlaylistReplaced))
	assert.Zero(t, f.rec.Count(domain.EventGenerationFailed))
}

func TestPracticeService_SeekAndVolumeWithoutTrack(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	f := newPracticeFixture(t, basicPreset())
	defer f.close()

	f.load(t, []domain.Track{f.song(t, "Waltz", "a.mp3", time.Minute)})

	assert.NoError(t, f.svc.Seek(30*time.Second))
	assert.Equal(t, time.Duration(0), f.svc.GetState().Offset)

	assert.NoError(t, f.svc.SetVolume(0.4))
	assert.Equal(t, 0.4, f.svc.GetState().Volume)
	assert.ErrorIs(t, f.svc.SetVolume(1.2), domain.ErrInvalidVolume)
	assert.ErrorIs(t, f.svc.SetDefaultMaxPlaytime(0), domain.ErrInvalidPlaytime)

	require.NoError(t, f.svc.Play())
	assert.InDelta(t, 0.4, f.appliedVolume(t), 1e-9)
}

func TestPracticeService_SeekRestoresFadedVolume(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	f := newPracticeFixture(t, basicPreset())
	defer f.close()

	f.load(t, []domain.Track{f.song(t, "Waltz", "a.mp3", 200*time.Second)})
	require.NoError(t, f.svc.Play())

	f.advanceTo(t, 185*time.Second)
	assert.Less(t, f.appliedVolume(t), 0.7)

	require.NoError(t, f.svc.Seek(10*time.Second))
	assert.InDelta(t, 0.7, f.appliedVolume(t), 1e-9)
	assert.Equal(t, 10*time.Second, f.svc.GetState().Offset)
}

func TestPracticeService_SelectTrackKeepsOneHandle(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	f := newPracticeFixture(t, basicPreset())
	defer f.close()

	tracks := []domain.Track{
		f.song(t, "Waltz", "a.mp3", time.Minute),
		f.song(t, "Waltz", "b.mp3", time.Minute),
		f.song(t, "Tango", "c.mp3", time.Minute),
	}
	f.load(t, tracks)

	for _, i := range []int{2, 0, 1} {
		require.NoError(t, f.svc.SelectTrack(i))
		assert.Equal(t, i, f.svc.GetState().Index)
		assert.Equal(t, 1, f.engine.GetLoadedTracks())
	}
	assert.ErrorIs(t, f.svc.SelectTrack(3), domain.ErrInvalidIndex)
	assert.ErrorIs(t, f.svc.SelectTrack(-1), domain.ErrInvalidIndex)
}

func TestPracticeService_RestartTrack(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	f := newPracticeFixture(t, basicPreset())
	defer f.close()

	f.load(t, []domain.Track{f.song(t, "Waltz", "a.mp3", time.Minute)})
	require.NoError(t, f.svc.Play())
	handle := f.engine.Current()
	require.NoError(t, f.engine.SimulateProgress(handle, 40*time.Second))
	require.NoError(t, f.svc.Pause())

	require.NoError(t, f.svc.RestartTrack())
	assert.Equal(t, domain.StatusPlaying, f.svc.GetState().Status)
	assert.Equal(t, handle, f.engine.Current())
	pos, err := f.engine.Position(handle)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), pos)
}

func TestPracticeService_RestartPlaylist(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	f := newPracticeFixture(t, basicPreset())
	defer f.close()

	f.load(t, []domain.Track{
		f.song(t, "Waltz", "a.mp3", time.Minute),
		f.song(t, "Tango", "b.mp3", time.Minute),
	})
	require.NoError(t, f.svc.SelectTrack(1))
	require.NoError(t, f.svc.RestartPlaylist())

	state := f.svc.GetState()
	assert.Equal(t, domain.StatusStopped, state.Status)
	assert.Equal(t, 0, state.Index)
	assert.Equal(t, 0, f.engine.GetLoadedTracks())
}

func TestPracticeService_ProgressEvents(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	f := newPracticeFixture(t, basicPreset())
	defer f.close()

	f.load(t, []domain.Track{f.song(t, "Waltz", "a.mp3", 150*time.Second)})
	require.NoError(t, f.svc.Play())
	f.advanceTo(t, 75*time.Second)

	progress := f.rec.Of(domain.EventTrackProgress)
	require.NotEmpty(t, progress)
	ev := progress[len(progress)-1].(domain.TrackProgressEvent)
	assert.Equal(t, "01:15 / 02:30", ev.Text)
	assert.InDelta(t, 0.5, ev.Fraction, 1e-9)
}

func TestPracticeService_TickerDrivesPlayback(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	engine := mock.NewEngine()
	require.NoError(t, engine.Initialize())
	defer engine.Shutdown()
	bus := eventbus.NewSyncEventBus(nil)
	defer bus.Close()
	rec := testutil.RecordEvents(t, bus)

	root := t.TempDir()
	writeFiles(t, root, "Waltz/a.mp3")
	gen := &stubGenerator{playlists: []domain.Playlist{{Tracks: []domain.Track{
		{Path: filepath.Join(root, "Waltz", "a.mp3"), Dance: "Waltz"},
	}}}}

	svc := NewPracticeService(logger.NewTestLogger(), engine, gen, bus, basicPreset(), PracticeConfig{
		MusicDir:     root,
		Volume:       0.7,
		TickInterval: 5 * time.Millisecond,
	})
	defer svc.Shutdown()

	require.NoError(t, svc.Regenerate())
	require.Eventually(t, func() bool { return svc.Playlist().Len() == 1 }, waitTimeout, 5*time.Millisecond)
	require.Eventually(t, func() bool { return svc.GetState().Status == domain.StatusStopped }, waitTimeout, 5*time.Millisecond)
	require.NoError(t, svc.Play())

	rec.WaitFor(t, domain.EventTrackProgress, 3, waitTimeout)
}

func TestPracticeService_ShutdownIsIdempotent(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	f := newPracticeFixture(t, basicPreset())

	f.gen.gate = make(chan struct{})
	require.NoError(t, f.svc.Regenerate())

	require.NoError(t, f.svc.Shutdown())
	require.NoError(t, f.svc.Shutdown())
	assert.Equal(t, domain.StatusStopped, f.svc.GetState().Status)
	assert.ErrorIs(t, f.svc.Regenerate(), domain.ErrNotInitialized)
	f.close()
}

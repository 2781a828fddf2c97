package service

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/dancepractice/internal/domain"
	"github.com/tejashwikalptaru/dancepractice/internal/ports"
)

// stubReader returns fixed metadata per path and counts reads.
type stubReader struct {
	mu    sync.Mutex
	meta  map[string]domain.Metadata
	reads int
}

func newStubReader() *stubReader {
	return &stubReader{meta: make(map[string]domain.Metadata)}
}

func (r *stubReader) Read(path string) domain.Metadata {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	return r.meta[path]
}

// fakePresetRepo keeps both preset layers in memory.
type fakePresetRepo struct {
	mu         sync.Mutex
	builtin    ports.PresetLayer
	custom     ports.PresetLayer
	saveErr    error
	customLoad int
}

func (r *fakePresetRepo) LoadBuiltIn() ports.PresetLayer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return ports.PresetLayer{Presets: clonePresets(r.builtin.Presets), Err: r.builtin.Err}
}

func (r *fakePresetRepo) LoadCustom() ports.PresetLayer {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.customLoad++
	return ports.PresetLayer{Presets: clonePresets(r.custom.Presets), Err: r.custom.Err}
}

func (r *fakePresetRepo) SaveCustom(preset domain.Preset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	i := slices.IndexFunc(r.custom.Presets, func(p domain.Preset) bool { return p.Name == preset.Name })
	if i >= 0 {
		r.custom.Presets[i] = preset
	} else {
		r.custom.Presets = append(r.custom.Presets, preset)
	}
	return nil
}

func (r *fakePresetRepo) DeleteCustom(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := slices.IndexFunc(r.custom.Presets, func(p domain.Preset) bool { return p.Name == name })
	if i < 0 {
		return domain.ErrPresetNotFound
	}
	r.custom.Presets = slices.Delete(r.custom.Presets, i, i+1)
	return nil
}

func (r *fakePresetRepo) CustomPath() string { return "custom_presets.json" }

func (r *fakePresetRepo) setCustomErr(err error) {
	r.mu.Lock()
	r.custom = ports.PresetLayer{Err: err}
	r.mu.Unlock()
}

func clonePresets(in []domain.Preset) []domain.Preset {
	out := make([]domain.Preset, len(in))
	for i, p := range in {
		out[i] = p.Clone()
	}
	return out
}

// fakeSettingsRepo is an in-memory ports.SettingsRepository.
type fakeSettingsRepo struct {
	mu           sync.Mutex
	volume       float64
	musicDir     string
	maxPlaytime  time.Duration
	practiceType string
	failWrites   bool
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{
		volume:       0.7,
		maxPlaytime:  210 * time.Second,
		practiceType: domain.DefaultPresetName,
	}
}

var errWriteFailed = errors.New("write failed")

func (r *fakeSettingsRepo) GetVolume() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.volume
}

func (r *fakeSettingsRepo) SetVolume(volume float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrites {
		return errWriteFailed
	}
	r.volume = volume
	return nil
}

func (r *fakeSettingsRepo) GetMusicDir() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.musicDir
}

func (r *fakeSettingsRepo) SetMusicDir(dir string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrites {
		return errWriteFailed
	}
	r.musicDir = dir
	return nil
}

func (r *fakeSettingsRepo) GetMaxPlaytime() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maxPlaytime
}

func (r *fakeSettingsRepo) SetMaxPlaytime(d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrites {
		return errWriteFailed
	}
	r.maxPlaytime = d
	return nil
}

func (r *fakeSettingsRepo) GetPracticeType() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.practiceType
}

func (r *fakeSettingsRepo) SetPracticeType(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrites {
		return errWriteFailed
	}
	r.practiceType = name
	return nil
}

// writeFiles creates empty files (and their parents) under root.
func writeFiles(t *testing.T, root string, rel ...string) {
	t.Helper()
	for _, name := range rel {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, nil, 0o644))
	}
}

func trackPaths(tracks []domain.Track) []string {
	out := make([]string, len(tracks))
	for i, tr := range tracks {
		out[i] = tr.Path
	}
	return out
}

package memory

import (
	"math"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/dancepractice/internal/domain"
)

func newTestSettingsRepository() *SettingsRepository {
	app := test.NewApp()
	return NewSettingsRepository(app.Preferences(), Defaults{
		Volume:       0.7,
		MusicDir:     "/home/dancer/Music",
		MaxPlaytime:  210 * time.Second,
		PracticeType: "60min",
	})
}

func TestSettingsRepository_Defaults(t *testing.T) {
	repo := newTestSettingsRepository()

	assert.Equal(t, 0.7, repo.GetVolume())
	assert.Equal(t, "/home/dancer/Music", repo.GetMusicDir())
	assert.Equal(t, 210*time.Second, repo.GetMaxPlaytime())
	assert.Equal(t, "60min", repo.GetPracticeType())
}

func TestSettingsRepository_SaveAndLoad(t *testing.T) {
	repo := newTestSettingsRepository()

	require.NoError(t, repo.SetVolume(0.25))
	require.NoError(t, repo.SetMusicDir("/srv/music"))
	require.NoError(t, repo.SetMaxPlaytime(90*time.Second))
	require.NoError(t, repo.SetPracticeType("NC 90min"))

	assert.Equal(t, 0.25, repo.GetVolume())
	assert.Equal(t, "/srv/music", repo.GetMusicDir())
	assert.Equal(t, 90*time.Second, repo.GetMaxPlaytime())
	assert.Equal(t, "NC 90min", repo.GetPracticeType())

	repo.Clear()
	assert.Equal(t, 0.7, repo.GetVolume())
}

func TestSettingsRepository_RejectsInvalid(t *testing.T) {
	repo := newTestSettingsRepository()

	assert.ErrorIs(t, repo.SetVolume(1.2), domain.ErrInvalidVolume)
	assert.ErrorIs(t, repo.SetVolume(-0.1), domain.ErrInvalidVolume)
	assert.ErrorIs(t, repo.SetVolume(math.NaN()), domain.ErrInvalidVolume)
	assert.ErrorIs(t, repo.SetMaxPlaytime(0), domain.ErrInvalidPlaytime)
	assert.ErrorIs(t, repo.SetMusicDir(""), domain.ErrInvalidFilePath)

	assert.Equal(t, 0.7, repo.GetVolume())
	assert.Equal(t, 210*time.Second, repo.GetMaxPlaytime())
}

func TestSettingsRepository_CorruptValuesFallBack(t *testing.T) {
	repo := newTestSettingsRepository()
	repo.prefs.SetFloat(keyVolume, math.NaN())
	repo.prefs.SetFloat(keyMaxPlaytime, math.Inf(1))

	assert.Equal(t, 0.7, repo.GetVolume())
	assert.Equal(t, 210*time.Second, repo.GetMaxPlaytime())

	repo.prefs.SetFloat(keyVolume, 3)
	repo.prefs.SetFloat(keyMaxPlaytime, -1)
	assert.Equal(t, 0.7, repo.GetVolume())
	assert.Equal(t, 210*time.Second, repo.GetMaxPlaytime())
}

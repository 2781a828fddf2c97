package beep

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gobeep "github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/dancepractice/internal/domain"
)

func writeSilentWav(t *testing.T, path string, length time.Duration) {
	t.Helper()
	format := gobeep.Format{SampleRate: 22050, NumChannels: 1, Precision: 2}

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, wav.Encode(f, gobeep.Silence(format.SampleRate.N(length)), format))
}

func TestFileDuration_Wav(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Generic.wav")
	writeSilentWav(t, path, 2*time.Second)

	d, err := FileDuration(path)
	require.NoError(t, err)
	assert.InDelta(t, (2 * time.Second).Seconds(), d.Seconds(), 0.01)
}

func TestFileDuration_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := FileDuration(filepath.Join(dir, "missing.mp3"))
	assert.ErrorIs(t, err, domain.ErrFileNotFound)

	_, err = FileDuration(filepath.Join(dir, "song.m4a"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	corrupt := filepath.Join(dir, "corrupt.flac")
	require.NoError(t, os.WriteFile(corrupt, []byte("not audio"), 0o644))
	_, err = FileDuration(corrupt)
	assert.Error(t, err)
}

func TestCanDecode(t *testing.T) {
	assert.True(t, CanDecode("/m/Waltz/a.MP3"))
	assert.True(t, CanDecode("/m/announce/Waltz.ogg"))
	assert.True(t, CanDecode("x.flac"))
	assert.True(t, CanDecode("x.wav"))
	assert.False(t, CanDecode("x.m4a"))
	assert.False(t, CanDecode("x.txt"))
}

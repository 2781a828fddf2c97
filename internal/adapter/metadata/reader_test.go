package metadata

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/dancepractice/internal/domain"
	"github.com/tejashwikalptaru/dancepractice/internal/logger"
)

func TestRead_MissingFile(t *testing.T) {
	r := NewReader(logger.NewTestLogger())

	md := r.Read(filepath.Join(t.TempDir(), "gone.mp3"))
	assert.Equal(t, domain.Metadata{}, md)
}

func TestRead_UntaggedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.mp3")
	require.NoError(t, os.WriteFile(path, []byte("no tags in here at all"), 0o644))

	r := NewReaderWithDuration(logger.NewTestLogger(), func(string) (time.Duration, error) {
		return 0, errors.New("cannot decode")
	})

	md := r.Read(path)
	assert.False(t, md.HasText())
	assert.Zero(t, md.Duration)
}

func TestRead_ID3v1(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tagged.mp3")
	require.NoError(t, os.WriteFile(path, id3v1("Moon River", "Orchestra", "Ballroom Hits"), 0o644))

	r := NewReaderWithDuration(logger.NewTestLogger(), func(p string) (time.Duration, error) {
		assert.Equal(t, path, p)
		return 200 * time.Second, nil
	})

	md := r.Read(path)
	assert.Equal(t, "Moon River", md.Title)
	assert.Equal(t, "Orchestra", md.Artist)
	assert.Equal(t, "Ballroom Hits", md.Album)
	assert.Equal(t, 200*time.Second, md.Duration)
}

func TestRead_NilDurationFunc(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tagged.mp3")
	require.NoError(t, os.WriteFile(path, id3v1("Title", "", ""), 0o644))

	md := NewReaderWithDuration(nil, nil).Read(path)
	assert.Equal(t, "Title", md.Title)
	assert.Zero(t, md.Duration)
}

// id3v1 builds a file that is only an ID3v1 trailer.
func id3v1(title, artist, album string) []byte {
	buf := make([]byte, 128)
	copy(buf[0:3], "TAG")
	copy(buf[3:33], title)
	copy(buf[33:63], artist)
	copy(buf[63:93], album)
	copy(buf[93:97], "1999")
	buf[127] = 255 // no genre
	return buf
}

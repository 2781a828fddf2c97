package beep

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	gobeep "github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"github.com/tejashwikalptaru/dancepractice/internal/domain"
)

// CanDecode reports whether the engine can play files with path's extension.
// m4a files are selected for playlists but cannot be decoded here.
func CanDecode(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3", ".ogg", ".flac", ".wav":
		return true
	}
	return false
}

// openStream opens path and returns a decoder positioned at the start.
// Closing the returned streamer releases the file.
func openStream(path string) (gobeep.StreamSeekCloser, gobeep.Format, error) {
	if !CanDecode(path) {
		return nil, gobeep.Format{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, filepath.Ext(path))
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, gobeep.Format{}, fmt.Errorf("%w: %s", domain.ErrFileNotFound, path)
		}
		return nil, gobeep.Format{}, err
	}

	var (
		streamer gobeep.StreamSeekCloser
		format   gobeep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".ogg":
		streamer, format, err = vorbis.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	}
	if err != nil {
		_ = f.Close()
		return nil, gobeep.Format{}, err
	}
	return streamer, format, nil
}

// FileDuration decodes the header of path and returns its length.
func FileDuration(path string) (time.Duration, error) {
	streamer, format, err := openStream(path)
	if err != nil {
		return 0, err
	}
	defer streamer.Close()

	n := streamer.Len()
	if n <= 0 {
		return 0, nil
	}
	return format.SampleRate.D(n), nil
}

// Package metadata reads tag metadata and track lengths from audio files.
package metadata

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dhowden/tag"

	"github.com/tejashwikalptaru/dancepractice/internal/adapter/audio/beep"
	"github.com/tejashwikalptaru/dancepractice/internal/domain"
	"github.com/tejashwikalptaru/dancepractice/internal/ports"
)

// DurationFunc returns the playing length of a file.
type DurationFunc func(path string) (time.Duration, error)

// Reader implements ports.MetadataReader with dhowden/tag for text fields
// and a decoder for the length.
type Reader struct {
	logger *slog.Logger
	length DurationFunc
}

// NewReader creates a reader that reads lengths with the beep decoders.
func NewReader(logger *slog.Logger) *Reader {
	return NewReaderWithDuration(logger, beep.FileDuration)
}

// NewReaderWithDuration creates a reader with a custom length function.
// A nil function leaves every duration unknown.
func NewReaderWithDuration(logger *slog.Logger, length DurationFunc) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{
		logger: logger.With(slog.String("component", "metadata")),
		length: length,
	}
}

// Read returns whatever metadata can be recovered from path.
// It never fails; missing values are left empty.
func (r *Reader) Read(path string) domain.Metadata {
	var md domain.Metadata
	r.readTags(path, &md)

	if r.length != nil {
		d, err := r.length(path)
		if err != nil {
			r.logger.Debug("duration unavailable", slog.String("path", path), slog.Any("error", err))
		} else if d > 0 {
			md.Duration = d
		}
	}
	return md
}

func (r *Reader) readTags(path string, md *domain.Metadata) {
	file, err := os.Open(path)
	if err != nil {
		r.logger.Debug("cannot open file for tags", slog.String("path", path), slog.Any("error", err))
		return
	}
	defer file.Close()

	tags, err := tag.ReadFrom(file)
	if err != nil || tags == nil {
		return
	}

	md.Title = strings.TrimSpace(tags.Title())
	md.Artist = strings.TrimSpace(tags.Artist())
	md.Album = strings.TrimSpace(tags.Album())
	md.Genre = strings.TrimSpace(tags.Genre())
}

var _ ports.MetadataReader = (*Reader)(nil)

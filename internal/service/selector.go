// Package service provides the business logic of the dance practice player.
package service

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tejashwikalptaru/dancepractice/internal/domain"
	"github.com/tejashwikalptaru/dancepractice/internal/ports"
)

// AnnounceDirName is the folder under the music root holding announcements.
const AnnounceDirName = "announce"

// GenericAnnouncement is played for dances without their own announcement.
const GenericAnnouncement = "Generic.ogg"

var supportedExts = map[string]bool{
	".mp3":  true,
	".ogg":  true,
	".m4a":  true,
	".flac": true,
	".wav":  true,
}

// IsFormatSupported reports whether path has a selectable audio extension (case-insensitive).
func IsFormatSupported(path string) bool {
	return supportedExts[strings.ToLower(filepath.Ext(path))]
}

// SelectRequest describes one dance's selection.
type SelectRequest struct {
	RootDir   string
	Dance     string
	Count     int
	Randomize bool
	PlayAll   bool
	Rule      domain.CountRule
}

// SongSelector picks the songs for a single dance from <root>/<dance>.
//
// Thread-safe: the random source is guarded by a mutex.
type SongSelector struct {
	logger      *slog.Logger
	reader      ports.MetadataReader
	announceDir string

	mu  sync.Mutex
	rng *rand.Rand
}

// SelectorOption configures a SongSelector.
type SelectorOption func(*SongSelector)

// WithRand sets the random source used for randomized selection.
func WithRand(rng *rand.Rand) SelectorOption {
	return func(s *SongSelector) { s.rng = rng }
}

// WithAnnounceDir looks for announcements in dir instead of <root>/announce.
func WithAnnounceDir(dir string) SelectorOption {
	return func(s *SongSelector) { s.announceDir = dir }
}

// NewSongSelector creates a selector reading metadata through reader.
func NewSongSelector(logger *slog.Logger, reader ports.MetadataReader, opts ...SelectorOption) *SongSelector {
	s := &SongSelector{
		logger: logger.With(slog.String("service", "selector")),
		reader: reader,
		rng:    rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select returns the announcement (if any) followed by the chosen songs.
// A missing or empty dance folder yields an empty result, not an error;
// only context cancellation is reported.
func (s *SongSelector) Select(ctx context.Context, req SelectRequest) ([]domain.Track, error) {
	if err := domain.ValidateDanceName(req.Dance); err != nil {
		s.logger.Warn("skipping dance", slog.String("dance", req.Dance), slog.Any("error", err))
		return nil, nil
	}
	subdir := filepath.Join(req.RootDir, req.Dance)
	if info, err := os.Stat(subdir); err != nil || !info.IsDir() {
		s.logger.Debug("no folder for dance", slog.String("dance", req.Dance), slog.String("dir", subdir))
		return nil, nil
	}

	files, err := collectAudioFiles(ctx, subdir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}

	n := len(files)
	if !req.PlayAll {
		n = min(domain.AdjustCount(req.Rule, req.Count), len(files))
	}
	if n <= 0 {
		return nil, nil
	}

	var chosen []string
	if req.Randomize {
		chosen = s.sample(files, n)
	} else {
		sort.Strings(files)
		chosen = files[:n]
	}

	tracks := make([]domain.Track, 0, n+1)
	if announce := s.findAnnouncement(req.RootDir, req.Dance); announce != "" {
		tracks = append(tracks, s.newTrack(announce, domain.AnnounceDance, req.Dance))
	}
	for _, path := range chosen {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tracks = append(tracks, s.newTrack(path, req.Dance, ""))
	}

	s.logger.Debug("dance selected",
		slog.String("dance", req.Dance),
		slog.Int("available", len(files)),
		slog.Int("selected", n))
	return tracks, nil
}

// sample draws n paths uniformly without replacement with a partial Fisher-Yates shuffle.
func (s *SongSelector) sample(files []string, n int) []string {
	pool := append([]string(nil), files...)

	s.mu.Lock()
	for i := 0; i < n; i++ {
		j := i + s.rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	s.mu.Unlock()

	return pool[:n]
}

func (s *SongSelector) findAnnouncement(root, dance string) string {
	dir := s.announceDir
	if dir == "" {
		dir = filepath.Join(root, AnnounceDirName)
	}
	for _, name := range []string{dance + ".ogg", GenericAnnouncement} {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

func (s *SongSelector) newTrack(path, dance, introduces string) domain.Track {
	return domain.Track{
		ID:         uuid.NewString(),
		Path:       path,
		Dance:      dance,
		Introduces: introduces,
		Metadata:   s.reader.Read(path),
	}
}

// collectAudioFiles walks dir recursively, skipping entries it cannot read.
func collectAudioFiles(ctx context.Context, dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if IsFormatSupported(path) {
			files = append(files, path)
		}
		return nil
	})

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}
	return files, nil
}

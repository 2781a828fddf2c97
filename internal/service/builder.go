package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tejashwikalptaru/dancepractice/internal/domain"
	"github.com/tejashwikalptaru/dancepractice/internal/ports"
)

// Selector is the per-dance selection step used by PlaylistBuilder.
type Selector interface {
	Select(ctx context.Context, req SelectRequest) ([]domain.Track, error)
}

// PlaylistBuilder turns a music root and a preset into a playlist.
type PlaylistBuilder struct {
	logger   *slog.Logger
	selector Selector
	bus      ports.EventBus
}

// NewPlaylistBuilder creates a builder. bus may be nil when progress is not needed.
func NewPlaylistBuilder(logger *slog.Logger, selector Selector, bus ports.EventBus) *PlaylistBuilder {
	return &PlaylistBuilder{
		logger:   logger.With(slog.String("service", "builder")),
		selector: selector,
		bus:      bus,
	}
}

// Build selects songs for every dance of the preset in order and concatenates them.
// Dances without music contribute nothing; an empty playlist is a valid result.
// The only error is context cancellation.
func (b *PlaylistBuilder) Build(ctx context.Context, rootDir string, preset domain.Preset) (domain.Playlist, error) {
	preset = preset.Normalize()
	started := time.Now()

	var tracks []domain.Track
	for i, dance := range preset.Dances {
		if err := ctx.Err(); err != nil {
			return domain.Playlist{}, err
		}

		selected, err := b.selector.Select(ctx, SelectRequest{
			RootDir:   rootDir,
			Dance:     dance,
			Count:     preset.NumSelections,
			Randomize: preset.RandomizePlaylist,
			PlayAll:   preset.PlayAllSongs,
			Rule:      preset.RuleFor(dance),
		})
		if err != nil {
			return domain.Playlist{}, err
		}
		tracks = append(tracks, selected...)

		if b.bus != nil {
			b.bus.Publish(domain.NewGenerationProgressEvent(domain.GenerationProgress{
				Dance:       dance,
				DancesDone:  i + 1,
				TotalDances: len(preset.Dances),
				TracksFound: len(tracks),
			}))
		}
	}

	playlist := domain.Playlist{
		ID:         uuid.NewString(),
		PresetName: preset.Name,
		MusicDir:   rootDir,
		Tracks:     tracks,
		CreatedAt:  time.Now(),
	}

	b.logger.Info("playlist built",
		slog.String("preset", preset.Name),
		slog.String("music_dir", rootDir),
		slog.Int("tracks", playlist.Len()),
		slog.Duration("took", time.Since(started)))
	if playlist.IsEmpty() {
		b.logger.Warn("no songs found", slog.String("music_dir", rootDir), slog.String("preset", preset.Name))
	}
	return playlist, nil
}

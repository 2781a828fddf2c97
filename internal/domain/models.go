// Package domain contains core business models and logic with no external dependencies.
// This package defines the fundamental entities of the dance practice player.
package domain

import (
	"math"
	"path/filepath"
	"strings"
	"time"
)

// AnnounceDance is the sentinel dance category carried by announcement tracks.
const AnnounceDance = "announce"

const (
	// DefaultSongDuration is substituted when a song's length cannot be read.
	DefaultSongDuration = 300 * time.Second

	// DefaultAnnouncementDuration is substituted when an announcement's length cannot be read.
	DefaultAnnouncementDuration = 5 * time.Second
)

// Placeholders shown for missing tag fields.
const (
	TitleUnspecified  = "Title Unspecified"
	GenreUnspecified  = "Genre Unspecified"
	ArtistUnspecified = "Artist Unspecified"
	AlbumUnspecified  = "Album Unspecified"
)

// Metadata holds the tag information read from an audio file.
// Empty strings and a zero Duration mean the value was absent or unreadable.
type Metadata struct {
	Title    string
	Artist   string
	Album    string
	Genre    string
	Duration time.Duration
}

// HasText reports whether any of the four text fields is present.
func (m Metadata) HasText() bool {
	return m.Title != "" || m.Artist != "" || m.Album != "" || m.Genre != ""
}

// Track is one playable unit of a playlist.
// Tracks are immutable once constructed.
type Track struct {
	// ID is a unique identifier for the track (UUID)
	ID string

	// Path is the absolute path to the audio file
	Path string

	// Dance is the dance category, or AnnounceDance for announcements
	Dance string

	// Introduces is the dance an announcement introduces (empty for songs)
	Introduces string

	// Metadata is the tag data as read from the file
	Metadata Metadata
}

// IsAnnouncement reports whether the track is a spoken announcement.
func (t Track) IsAnnouncement() bool {
	return t.Dance == AnnounceDance
}

// Duration returns the natural length of the track, substituting
// the default for its kind when the length is unknown.
func (t Track) Duration() time.Duration {
	if t.Metadata.Duration > 0 {
		return t.Metadata.Duration
	}
	if t.IsAnnouncement() {
		return DefaultAnnouncementDuration
	}
	return DefaultSongDuration
}

// Title returns the display title of the track.
func (t Track) Title() string {
	if t.Metadata.Title != "" {
		return t.Metadata.Title
	}
	if t.IsAnnouncement() && t.Introduces != "" {
		return t.Introduces
	}
	return t.Stem()
}

// Stem returns the file base name without its extension.
func (t Track) Stem() string {
	base := filepath.Base(t.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Label returns the text shown for the track in the playlist and the now playing area.
func (t Track) Label() string {
	if t.IsAnnouncement() {
		return t.Title()
	}

	m := t.Metadata
	if !m.HasText() {
		return t.Stem()
	}

	return strings.Join([]string{
		orPlaceholder(m.Title, TitleUnspecified),
		orPlaceholder(m.Genre, GenreUnspecified),
		orPlaceholder(m.Artist, ArtistUnspecified),
		orPlaceholder(m.Album, AlbumUnspecified),
	}, " / ")
}

func orPlaceholder(value, placeholder string) string {
	if value == "" {
		return placeholder
	}
	return value
}

// Playlist is an ordered sequence of tracks generated from a preset.
// A playlist is built in one step and replaced wholesale, never edited in place.
type Playlist struct {
	// ID is a unique identifier for the playlist (UUID)
	ID string

	// PresetName is the practice type the playlist was generated from
	PresetName string

	// MusicDir is the root directory the playlist was generated from
	MusicDir string

	// Tracks is the playback order
	Tracks []Track

	// CreatedAt is when generation finished
	CreatedAt time.Time
}

// Len returns the number of tracks.
func (p Playlist) Len() int {
	return len(p.Tracks)
}

// IsEmpty reports whether the playlist has no tracks.
func (p Playlist) IsEmpty() bool {
	return len(p.Tracks) == 0
}

// At returns the track at index i, or false when i is out of range.
func (p Playlist) At(i int) (Track, bool) {
	if i < 0 || i >= len(p.Tracks) {
		return Track{}, false
	}
	return p.Tracks[i], true
}

// Labels returns the display label of every track in order.
func (p Playlist) Labels() []string {
	labels := make([]string, len(p.Tracks))
	for i, t := range p.Tracks {
		labels[i] = t.Label()
	}
	return labels
}

// PlaybackState is a snapshot of the practice player state.
// Only the playback engine mutates the underlying state.
type PlaybackState struct {
	// Index is the current playlist position (0-based)
	Index int

	// Offset is the playback offset within the current track
	Offset time.Duration

	// Status is the transport status
	Status PlaybackStatus

	// Volume is the user volume (0.0 to 1.0)
	Volume float64

	// AppliedVolume is the volume after any fade-out has been applied
	AppliedVolume float64

	// MaxPlaytime is the active play limit for the current track
	MaxPlaytime time.Duration

	// CurrentTrack is the track at Index (nil if the playlist is empty)
	CurrentTrack *Track

	// PlaylistLen is the number of tracks in the active playlist
	PlaylistLen int

	// PresetName is the active practice type
	PresetName string
}

// PlaybackStatus represents the current playback state.
type PlaybackStatus int

const (
	// StatusStopped indicates playback is stopped
	StatusStopped PlaybackStatus = iota

	// StatusPlaying indicates playback is active
	StatusPlaying

	// StatusPaused indicates playback is paused
	StatusPaused

	// StatusGenerating indicates a playlist rebuild is in progress
	StatusGenerating
)

// String returns a human-readable representation of the playback status.
func (s PlaybackStatus) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	case StatusGenerating:
		return "generating"
	default:
		return "unknown"
	}
}

// ValidVolume reports whether v is a linear volume level between 0.0 and 1.0.
// NaN is never valid.
func ValidVolume(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}

var maxPlaytimeSeconds = time.Duration(math.MaxInt64).Seconds()

// PlaytimeFromSeconds converts a playtime in seconds. It reports false for
// values that are not finite, not positive or too long for a time.Duration.
func PlaytimeFromSeconds(secs float64) (time.Duration, bool) {
	if math.IsNaN(secs) || math.IsInf(secs, 0) || secs <= 0 || secs >= maxPlaytimeSeconds {
		return 0, false
	}
	d := time.Duration(secs * float64(time.Second))
	return d, d > 0
}

// TrackHandle represents a handle to an audio track in the audio engine.
// This is an opaque identifier used by the audio engine to reference loaded tracks.
type TrackHandle int64

const (
	// InvalidTrackHandle represents an invalid or uninitialized track handle
	InvalidTrackHandle TrackHandle = 0
)

// GenerationProgress reports how far a playlist build has got.
type GenerationProgress struct {
	// Dance is the dance currently being selected
	Dance string

	// DancesDone is the number of dances already processed
	DancesDone int

	// TotalDances is the number of dances in the preset
	TotalDances int

	// TracksFound is the number of tracks collected so far
	TracksFound int
}

// Percentage returns the completion percentage (0-100).
func (p GenerationProgress) Percentage() float64 {
	if p.TotalDances <= 0 {
		return 100
	}
	return float64(p.DancesDone) / float64(p.TotalDances) * 100
}

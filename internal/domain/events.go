// Package domain defines events for the event-driven architecture.
// Services publish events after each state transition; observers subscribe to specific kinds.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Playback events
	EventTrackChanged  EventType = "track.changed"
	EventTrackStarted  EventType = "track.started"
	EventTrackPaused   EventType = "track.paused"
	EventTrackStopped  EventType = "track.stopped"
	EventTrackProgress EventType = "track.progress"
	EventTrackFading   EventType = "track.fading"
	EventTrackError    EventType = "track.error"
	EventStatusChanged EventType = "playback.status"

	// Volume events
	EventVolumeChanged EventType = "volume.changed"

	// Playlist events
	EventPlaylistReplaced   EventType = "playlist.replaced"
	EventGenerationStarted  EventType = "generation.started"
	EventGenerationProgress EventType = "generation.progress"
	EventGenerationFailed   EventType = "generation.failed"

	// Preset and settings events
	EventPresetsReloaded  EventType = "presets.reloaded"
	EventPresetError      EventType = "presets.error"
	EventSettingsChanged  EventType = "settings.changed"
	EventSettingsRejected EventType = "settings.rejected"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

// newBaseEvent creates a new base event with the current timestamp.
func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// TrackChangedEvent is published when the current playlist position moves.
type TrackChangedEvent struct {
	baseEvent
	Track       Track
	Index       int
	MaxPlaytime time.Duration
}

// Type returns the event type.
func (e TrackChangedEvent) Type() EventType {
	return EventTrackChanged
}

// NewTrackChangedEvent creates a new TrackChangedEvent.
func NewTrackChangedEvent(track Track, index int, maxPlaytime time.Duration) TrackChangedEvent {
	return TrackChangedEvent{
		baseEvent:   newBaseEvent(),
		Track:       track,
		Index:       index,
		MaxPlaytime: maxPlaytime,
	}
}

// TrackStartedEvent is published when playback starts or resumes.
type TrackStartedEvent struct {
	baseEvent
	Track Track
	Index int
}

// Type returns the event type.
func (e TrackStartedEvent) Type() EventType {
	return EventTrackStarted
}

// NewTrackStartedEvent creates a new TrackStartedEvent.
func NewTrackStartedEvent(track Track, index int) TrackStartedEvent {
	return TrackStartedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Index:     index,
	}
}

// TrackPausedEvent is published when playback is paused.
type TrackPausedEvent struct {
	baseEvent
	Track    Track
	Position time.Duration
}

// Type returns the event type.
func (e TrackPausedEvent) Type() EventType {
	return EventTrackPaused
}

// NewTrackPausedEvent creates a new TrackPausedEvent.
func NewTrackPausedEvent(track Track, position time.Duration) TrackPausedEvent {
	return TrackPausedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Position:  position,
	}
}

// TrackStoppedEvent is published when playback stops and the track is unloaded.
type TrackStoppedEvent struct {
	baseEvent
	Index int
}

// Type returns the event type.
func (e TrackStoppedEvent) Type() EventType {
	return EventTrackStopped
}

// NewTrackStoppedEvent creates a new TrackStoppedEvent.
func NewTrackStoppedEvent(index int) TrackStoppedEvent {
	return TrackStoppedEvent{
		baseEvent: newBaseEvent(),
		Index:     index,
	}
}

// TrackProgressEvent is published on every playback tick.
type TrackProgressEvent struct {
	baseEvent
	Position time.Duration
	Duration time.Duration
	Text     string
	Fraction float64
}

// Type returns the event type.
func (e TrackProgressEvent) Type() EventType {
	return EventTrackProgress
}

// NewTrackProgressEvent creates a new TrackProgressEvent.
func NewTrackProgressEvent(position, duration time.Duration) TrackProgressEvent {
	fraction := 0.0
	if duration > 0 {
		fraction = float64(position) / float64(duration)
		if fraction > 1 {
			fraction = 1
		}
	}
	return TrackProgressEvent{
		baseEvent: newBaseEvent(),
		Position:  position,
		Duration:  duration,
		Text:      ProgressText(position, duration),
		Fraction:  fraction,
	}
}

// TrackFadingEvent is published on each tick of a fade-out.
type TrackFadingEvent struct {
	baseEvent
	Track  Track
	Volume float64
}

// Type returns the event type.
func (e TrackFadingEvent) Type() EventType {
	return EventTrackFading
}

// NewTrackFadingEvent creates a new TrackFadingEvent.
func NewTrackFadingEvent(track Track, volume float64) TrackFadingEvent {
	return TrackFadingEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Volume:    volume,
	}
}

// TrackErrorEvent is published when a track cannot be played.
// The engine moves on to the next track after publishing it.
type TrackErrorEvent struct {
	baseEvent
	Track   Track
	Index   int
	Error   error
	Message string
}

// Type returns the event type.
func (e TrackErrorEvent) Type() EventType {
	return EventTrackError
}

// NewTrackErrorEvent creates a new TrackErrorEvent.
func NewTrackErrorEvent(track Track, index int, err error, message string) TrackErrorEvent {
	return TrackErrorEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Index:     index,
		Error:     err,
		Message:   message,
	}
}

// StatusChangedEvent is published whenever the transport status changes.
type StatusChangedEvent struct {
	baseEvent
	Previous PlaybackStatus
	Status   PlaybackStatus
}

// Type returns the event type.
func (e StatusChangedEvent) Type() EventType {
	return EventStatusChanged
}

// NewStatusChangedEvent creates a new StatusChangedEvent.
func NewStatusChangedEvent(previous, status PlaybackStatus) StatusChangedEvent {
	return StatusChangedEvent{
		baseEvent: newBaseEvent(),
		Previous:  previous,
		Status:    status,
	}
}

// VolumeChangedEvent is published when the user volume changes.
type VolumeChangedEvent struct {
	baseEvent
	Volume float64
}

// Type returns the event type.
func (e VolumeChangedEvent) Type() EventType {
	return EventVolumeChanged
}

// NewVolumeChangedEvent creates a new VolumeChangedEvent.
func NewVolumeChangedEvent(volume float64) VolumeChangedEvent {
	return VolumeChangedEvent{
		baseEvent: newBaseEvent(),
		Volume:    volume,
	}
}

// PlaylistReplacedEvent is published when a freshly built playlist is swapped in.
type PlaylistReplacedEvent struct {
	baseEvent
	Playlist Playlist
}

// Type returns the event type.
func (e PlaylistReplacedEvent) Type() EventType {
	return EventPlaylistReplaced
}

// NewPlaylistReplacedEvent creates a new PlaylistReplacedEvent.
func NewPlaylistReplacedEvent(playlist Playlist) PlaylistReplacedEvent {
	return PlaylistReplacedEvent{
		baseEvent: newBaseEvent(),
		Playlist:  playlist,
	}
}

// GenerationStartedEvent is published when a playlist build begins.
type GenerationStartedEvent struct {
	baseEvent
	PresetName string
	MusicDir   string
	Automatic  bool
}

// Type returns the event type.
func (e GenerationStartedEvent) Type() EventType {
	return EventGenerationStarted
}

// NewGenerationStartedEvent creates a new GenerationStartedEvent.
func NewGenerationStartedEvent(presetName, musicDir string, automatic bool) GenerationStartedEvent {
	return GenerationStartedEvent{
		baseEvent:  newBaseEvent(),
		PresetName: presetName,
		MusicDir:   musicDir,
		Automatic:  automatic,
	}
}

// GenerationProgressEvent is published after each dance is selected.
type GenerationProgressEvent struct {
	baseEvent
	Progress GenerationProgress
}

// Type returns the event type.
func (e GenerationProgressEvent) Type() EventType {
	return EventGenerationProgress
}

// NewGenerationProgressEvent creates a new GenerationProgressEvent.
func NewGenerationProgressEvent(progress GenerationProgress) GenerationProgressEvent {
	return GenerationProgressEvent{
		baseEvent: newBaseEvent(),
		Progress:  progress,
	}
}

// GenerationFailedEvent is published when a build is abandoned.
// The previous playlist stays active.
type GenerationFailedEvent struct {
	baseEvent
	Error error
}

// Type returns the event type.
func (e GenerationFailedEvent) Type() EventType {
	return EventGenerationFailed
}

// NewGenerationFailedEvent creates a new GenerationFailedEvent.
func NewGenerationFailedEvent(err error) GenerationFailedEvent {
	return GenerationFailedEvent{
		baseEvent: newBaseEvent(),
		Error:     err,
	}
}

// PresetsReloadedEvent is published after both preset layers are read.
type PresetsReloadedEvent struct {
	baseEvent
	Names []string
}

// Type returns the event type.
func (e PresetsReloadedEvent) Type() EventType {
	return EventPresetsReloaded
}

// NewPresetsReloadedEvent creates a new PresetsReloadedEvent.
func NewPresetsReloadedEvent(names []string) PresetsReloadedEvent {
	return PresetsReloadedEvent{
		baseEvent: newBaseEvent(),
		Names:     names,
	}
}

// PresetErrorEvent is published once when a preset layer cannot be parsed.
type PresetErrorEvent struct {
	baseEvent
	Source string
	Error  error
}

// Type returns the event type.
func (e PresetErrorEvent) Type() EventType {
	return EventPresetError
}

// NewPresetErrorEvent creates a new PresetErrorEvent.
func NewPresetErrorEvent(source string, err error) PresetErrorEvent {
	return PresetErrorEvent{
		baseEvent: newBaseEvent(),
		Source:    source,
		Error:     err,
	}
}

// SettingsChangedEvent is published when a setting is accepted.
type SettingsChangedEvent struct {
	baseEvent
	Key   string
	Value string
}

// Type returns the event type.
func (e SettingsChangedEvent) Type() EventType {
	return EventSettingsChanged
}

// NewSettingsChangedEvent creates a new SettingsChangedEvent.
func NewSettingsChangedEvent(key, value string) SettingsChangedEvent {
	return SettingsChangedEvent{
		baseEvent: newBaseEvent(),
		Key:       key,
		Value:     value,
	}
}

// SettingsRejectedEvent is published when a setting value is invalid.
// The prior value stays in effect.
type SettingsRejectedEvent struct {
	baseEvent
	Key   string
	Value string
	Error error
}

// Type returns the event type.
func (e SettingsRejectedEvent) Type() EventType {
	return EventSettingsRejected
}

// NewSettingsRejectedEvent creates a new SettingsRejectedEvent.
func NewSettingsRejectedEvent(key, value string, err error) SettingsRejectedEvent {
	return SettingsRejectedEvent{
		baseEvent: newBaseEvent(),
		Key:       key,
		Value:     value,
		Error:     err,
	}
}

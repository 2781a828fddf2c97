// Package ports define interfaces for dependency inversion.
// These interfaces allow the core business logic to remain independent of external frameworks.
package ports

import (
	"time"

	"github.com/tejashwikalptaru/dancepractice/internal/domain"
)

// AudioEngine is the interface for audio output devices.
// This abstracts the underlying audio library and allows for testing with mocks.
//
// Implementations must be thread-safe as they may be called from multiple goroutines.
type AudioEngine interface {
	// Lifecycle methods

	// Initialize opens the output device.
	// Returns an error if initialization fails.
	Initialize() error

	// Shutdown releases all audio engine resources.
	Shutdown() error

	// IsInitialized returns true if the engine has been successfully initialized.
	IsInitialized() bool

	// Track loading methods

	// Load loads an audio file and returns a handle to it.
	// An engine may return domain.InvalidTrackHandle with a nil error when
	// it could not open the file; callers treat that as a load failure.
	Load(filePath string) (domain.TrackHandle, error)

	// Unload releases resources for a previously loaded track.
	Unload(handle domain.TrackHandle) error

	// Playback control methods

	// Play starts or resumes playback of the specified track.
	Play(handle domain.TrackHandle) error

	// Pause pauses playback, keeping the position.
	Pause(handle domain.TrackHandle) error

	// Stop stops playback of the specified track and unloads it.
	Stop(handle domain.TrackHandle) error

	// State query methods

	// Status returns the current playback status of the specified track.
	Status(handle domain.TrackHandle) (domain.PlaybackStatus, error)

	// Position returns the current playback position within the track.
	Position(handle domain.TrackHandle) (time.Duration, error)

	// Duration returns the total duration of the specified track.
	// Zero means the length is unknown.
	Duration(handle domain.TrackHandle) (time.Duration, error)

	// Seek sets the playback position to the specified time.
	Seek(handle domain.TrackHandle, position time.Duration) error

	// SetVolume sets the playback volume for the specified track (0.0 to 1.0).
	SetVolume(handle domain.TrackHandle, volume float64) error

	// GetVolume returns the current volume level for the specified track.
	GetVolume(handle domain.TrackHandle) (float64, error)
}

// MetadataReader reads tag metadata from audio files.
// Read never fails: unreadable values come back empty or zero.
type MetadataReader interface {
	Read(path string) domain.Metadata
}

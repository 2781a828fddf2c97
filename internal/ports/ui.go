// Package ports define the UI interface for view abstraction.
// This interface allows the presenter to update the UI without depending on Fyne directly.
package ports

// UI is the interface for the user interface layer.
// This abstracts the Fyne UI implementation and allows for testing without a real UI.
//
// The presenter receives events from the event bus and calls these methods
// to update the view.
//
// Thread-safety: All methods must be called from the main UI thread.
type UI interface {
	// SetPlaylist replaces the displayed playlist entries.
	// An empty slice shows the "no songs found" state.
	SetPlaylist(labels []string)

	// HighlightTrack marks the entry at index as current.
	HighlightTrack(index int)

	// SetNowPlaying updates the current track label.
	SetNowPlaying(label string)

	// SetProgress updates the progress text and bar.
	// fraction: 0.0 to 1.0
	SetProgress(text string, fraction float64)

	// SetPlayState updates the play/pause button icon.
	SetPlayState(playing bool)

	// SetBusy shows or hides the "please wait" indication.
	SetBusy(busy bool, message string)

	// SetVolume updates the volume slider and label.
	SetVolume(volume float64)

	// SetPresets refreshes the practice type selector.
	SetPresets(names []string, selected string)

	// SetMusicDir shows the active music folder.
	SetMusicDir(dir string)

	// ShowError displays an error dialog to the user.
	ShowError(title, message string)

	// ShowNotification displays a non-blocking notice.
	ShowNotification(title, message string)

	// Run starts the UI event loop.
	// This is a blocking call that runs until the application quits.
	Run() error

	// Quit closes the application.
	Quit()
}

package fyne

import (
	"fmt"
	"sync"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/tejashwikalptaru/dancepractice/internal/adapter/ui/fyne/widgets"
	"github.com/tejashwikalptaru/dancepractice/internal/domain"
	"github.com/tejashwikalptaru/dancepractice/internal/ports"
	"github.com/tejashwikalptaru/dancepractice/res"
)

// Window defaults.
const (
	AppTitle     = "Dance Practice"
	WindowWidth  = 760
	WindowHeight = 560
)

// MainWindow is the main UI window implementing ports.UI.
// It handles all UI rendering and user interactions.
//
// The MainWindow follows the MVP pattern:
// - It's a "dumb view" that just displays data
// - All business logic is in the Presenter
// - User interactions are forwarded to the Presenter
//
// ports.UI methods may be called from any goroutine; each one is
// marshalled onto the Fyne thread with fyne.Do.
type MainWindow struct {
	app    fyneapp.App
	window fyneapp.Window

	// UI components
	presetSelect    *widget.Select
	musicDirLabel   *widget.Label
	playlist        *widget.List
	busyBar         *widget.ProgressBarInfinite
	busyLabel       *widget.Label
	busyBox         *fyneapp.Container
	nowPlaying      *widget.Label
	progressSlider  *widget.Slider
	progressLabel   *widget.Label
	playButton      *widget.Button
	stopButton      *widget.Button
	restartButton   *widget.Button
	playlistButton  *widget.Button
	regenerateBtn   *widget.Button
	volumeSlider    *widget.Slider

	// State (Fyne thread only)
	labels       []string
	current      int
	syncing      bool
	presetWindow *PresetWindow

	// Lifecycle management
	closeOnce sync.Once

	// Presenter (set after construction)
	presenter *Presenter
}

// NewMainWindow creates a new main window.
func NewMainWindow(app fyneapp.App) *MainWindow {
	w := &MainWindow{
		app:     app,
		current: -1,
	}

	w.window = app.NewWindow(AppTitle)
	w.buildUI()
	w.window.Resize(fyneapp.NewSize(WindowWidth, WindowHeight))

	return w
}

// SetPresenter connects the presenter to this view.
// This must be called before showing the window.
func (w *MainWindow) SetPresenter(presenter *Presenter) {
	w.presenter = presenter
	w.wirePresenterHandlers()
	w.addShortcuts()
}

// buildUI constructs the UI components.
func (w *MainWindow) buildUI() {
	w.presetSelect = widget.NewSelect(nil, nil)
	w.presetSelect.PlaceHolder = "Practice type"
	w.musicDirLabel = widget.NewLabel("No music folder selected")
	w.musicDirLabel.Truncation = fyneapp.TextTruncateEllipsis
	folderButton := widget.NewButtonWithIcon("", theme.FolderOpenIcon(), w.handleChooseFolder)
	w.regenerateBtn = widget.NewButtonWithIcon("New Playlist", theme.ViewRefreshIcon(), nil)

	top := container.NewBorder(nil, nil,
		container.NewHBox(w.presetSelect, w.regenerateBtn),
		folderButton,
		w.musicDirLabel,
	)

	w.playlist = widget.NewList(
		func() int { return len(w.labels) },
		func() fyneapp.CanvasObject { return widgets.NewDoubleTapLabel(w.onEntryDoubleTapped) },
		w.updateEntry,
	)

	w.busyBar = widget.NewProgressBarInfinite()
	w.busyLabel = widget.NewLabel("")
	w.busyBox = container.NewVBox(w.busyLabel, w.busyBar)
	w.busyBox.Hide()
	w.busyBar.Stop()

	w.nowPlaying = widget.NewLabel("")
	w.nowPlaying.Truncation = fyneapp.TextTruncateClip
	w.nowPlaying.TextStyle = fyneapp.TextStyle{Bold: true, Italic: true}
	nowPlaying := widgets.NewTappableStack(w.nowPlaying, w.showTransportMenu)

	w.playButton = widget.NewButtonWithIcon("", theme.MediaPlayIcon(), nil)
	w.stopButton = widget.NewButtonWithIcon("", theme.MediaStopIcon(), nil)
	w.restartButton = widget.NewButtonWithIcon("", theme.MediaReplayIcon(), nil)
	w.playlistButton = widget.NewButtonWithIcon("", theme.MediaSkipPreviousIcon(), nil)

	w.volumeSlider = widget.NewSlider(0, 100)
	w.volumeSlider.Orientation = widget.Horizontal
	volumeHolder := container.NewBorder(nil, nil, widget.NewIcon(theme.VolumeUpIcon()), nil, w.volumeSlider)

	buttons := container.NewHBox(w.playButton, w.stopButton, w.restartButton, w.playlistButton)
	buttonsHolder := container.NewBorder(nil, nil, buttons, container.NewGridWrap(fyneapp.NewSize(160, 36), volumeHolder), nowPlaying)

	w.progressSlider = widget.NewSlider(0, 1)
	w.progressSlider.Step = 0.001
	w.progressLabel = widget.NewLabel(domain.InitialProgressText)
	sliderHolder := container.NewBorder(nil, nil, nil, w.progressLabel, w.progressSlider)

	controls := container.NewVBox(w.busyBox, buttonsHolder, sliderHolder)
	content := container.NewBorder(top, controls, nil, nil, w.playlist)
	w.window.SetContent(container.NewPadded(content))

	w.window.SetMainMenu(fyneapp.NewMainMenu(w.createMenu()...))
}

// wirePresenterHandlers connects UI events to presenter handlers.
func (w *MainWindow) wirePresenterHandlers() {
	if w.presenter == nil {
		return
	}

	w.playButton.OnTapped = w.presenter.OnPlayPause
	w.stopButton.OnTapped = w.presenter.OnStop
	w.restartButton.OnTapped = w.presenter.OnRestartTrack
	w.playlistButton.OnTapped = w.presenter.OnRestartPlaylist
	w.regenerateBtn.OnTapped = w.presenter.OnRegenerate

	w.presetSelect.OnChanged = func(name string) {
		if w.syncing {
			return
		}
		w.presenter.OnPresetSelected(name)
	}

	// Programmatic updates set Value directly, so OnChangeEnded only sees the user.
	w.volumeSlider.OnChangeEnded = func(value float64) {
		w.presenter.OnVolumeChanged(value / 100.0)
	}
	w.progressSlider.OnChangeEnded = w.presenter.OnSeek
}

// createMenu creates the application menu.
func (w *MainWindow) createMenu() []*fyneapp.Menu {
	separator := fyneapp.NewMenuItemSeparator()

	chooseFolder := fyneapp.NewMenuItem("Choose Music Folder...", w.handleChooseFolder)
	settings := fyneapp.NewMenuItem("Settings...", w.handleSettings)
	practiceTypes := fyneapp.NewMenuItem("Practice Types...", w.handlePracticeTypes)
	exitMenu := fyneapp.NewMenuItem("Exit", func() {
		w.window.Close()
	})
	fileMenu := fyneapp.NewMenu("File", chooseFolder, settings, practiceTypes, separator, exitMenu)

	about := fyneapp.NewMenuItem("About", func() {
		NewAboutDialog(w.window, AppTitle, res.AboutContent).Show()
	})
	helpMenu := fyneapp.NewMenu("Help", about)

	return []*fyneapp.Menu{fileMenu, helpMenu}
}

func (w *MainWindow) updateEntry(i widget.ListItemID, obj fyneapp.CanvasObject) {
	label, ok := obj.(*widgets.DoubleTapLabel)
	if !ok || i < 0 || i >= len(w.labels) {
		return
	}
	label.SetIndex(i)
	label.TextStyle.Bold = i == w.current
	label.SetText(fmt.Sprintf("%d. %s", i+1, w.labels[i]))
}

func (w *MainWindow) onEntryDoubleTapped(index int) {
	if w.presenter != nil {
		w.presenter.OnTrackSelected(index)
	}
}

// showTransportMenu opens the now playing context menu.
func (w *MainWindow) showTransportMenu(pe *fyneapp.PointEvent) {
	if w.presenter == nil {
		return
	}
	menu := fyneapp.NewMenu("",
		fyneapp.NewMenuItem("Restart Song", w.presenter.OnRestartTrack),
		fyneapp.NewMenuItem("Restart Playlist", w.presenter.OnRestartPlaylist),
		fyneapp.NewMenuItem("New Playlist", w.presenter.OnRegenerate),
	)
	widget.ShowPopUpMenuAtPosition(menu, w.window.Canvas(), pe.AbsolutePosition)
}

func (w *MainWindow) handleChooseFolder() {
	if w.presenter == nil {
		return
	}
	NewFolderDialog(w.window, w.presenter.OnMusicDirSelected, w.presenter.logger).Show()
}

func (w *MainWindow) handleSettings() {
	if w.presenter == nil {
		return
	}
	NewSettingsDialog(w.window, w.presenter.SettingValues(), w.presenter.OnSettingChanged).Show()
}

func (w *MainWindow) handlePracticeTypes() {
	if w.presenter == nil {
		return
	}
	if w.presetWindow != nil {
		w.presetWindow.Show()
		return
	}
	w.presetWindow = NewPresetWindow(w.app, w.presenter)
	w.presetWindow.SetOnWindowClosed(func() {
		w.presetWindow = nil
	})
	w.presetWindow.Show()
}

// addShortcuts adds keyboard shortcuts.
func (w *MainWindow) addShortcuts() {
	step := func(delta float64) func(fyneapp.Shortcut) {
		return func(fyneapp.Shortcut) {
			vol := w.volumeSlider.Value + delta
			vol = max(0, min(100, vol))
			w.volumeSlider.Value = vol
			w.volumeSlider.Refresh()
			w.presenter.OnVolumeChanged(vol / 100.0)
		}
	}

	w.window.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyneapp.KeyUp,
		Modifier: fyneapp.KeyModifierAlt,
	}, step(5))
	w.window.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyneapp.KeyDown,
		Modifier: fyneapp.KeyModifierAlt,
	}, step(-5))
	w.window.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyneapp.KeySpace,
		Modifier: fyneapp.KeyModifierAlt,
	}, func(fyneapp.Shortcut) {
		w.presenter.OnPlayPause()
	})
}

// GetWindow returns the underlying Fyne window.
func (w *MainWindow) GetWindow() fyneapp.Window {
	return w.window
}

// SetOnBeforeClose registers a callback run before the window closes.
func (w *MainWindow) SetOnBeforeClose(callback func()) {
	w.window.SetCloseIntercept(func() {
		if callback != nil {
			callback()
		}
		w.Quit()
	})
}

// ports.UI implementation

// SetPlaylist replaces the displayed playlist entries.
func (w *MainWindow) SetPlaylist(labels []string) {
	labels = append([]string(nil), labels...)
	fyneapp.Do(func() {
		w.labels = labels
		w.current = -1
		w.playlist.UnselectAll()
		w.playlist.Refresh()
		w.window.SetTitle(fmt.Sprintf("%s (%d songs)", AppTitle, len(labels)))
	})
}

// HighlightTrack marks the entry at index as current.
func (w *MainWindow) HighlightTrack(index int) {
	fyneapp.Do(func() {
		w.current = index
		if index >= 0 && index < len(w.labels) {
			w.playlist.ScrollTo(index)
		}
		w.playlist.Refresh()
	})
}

// SetNowPlaying updates the current track label.
func (w *MainWindow) SetNowPlaying(label string) {
	fyneapp.Do(func() {
		w.nowPlaying.SetText(label)
	})
}

// SetProgress updates the progress text and slider.
func (w *MainWindow) SetProgress(text string, fraction float64) {
	fyneapp.Do(func() {
		w.progressLabel.SetText(text)
		w.progressSlider.Value = fraction
		w.progressSlider.Refresh()
	})
}

// SetPlayState updates the play/pause button icon.
func (w *MainWindow) SetPlayState(playing bool) {
	fyneapp.Do(func() {
		if playing {
			w.playButton.SetIcon(theme.MediaPauseIcon())
		} else {
			w.playButton.SetIcon(theme.MediaPlayIcon())
		}
	})
}

// SetBusy shows or hides the "please wait" indication.
func (w *MainWindow) SetBusy(busy bool, message string) {
	fyneapp.Do(func() {
		if !busy {
			w.busyBar.Stop()
			w.busyBox.Hide()
			w.regenerateBtn.Enable()
			return
		}
		w.busyLabel.SetText(message)
		w.busyBox.Show()
		w.busyBar.Start()
		w.regenerateBtn.Disable()
	})
}

// SetVolume updates the volume slider (0.0 to 1.0).
func (w *MainWindow) SetVolume(volume float64) {
	fyneapp.Do(func() {
		w.volumeSlider.Value = volume * 100.0
		w.volumeSlider.Refresh()
	})
}

// SetPresets refreshes the practice type selector.
func (w *MainWindow) SetPresets(names []string, selected string) {
	names = append([]string(nil), names...)
	fyneapp.Do(func() {
		w.syncing = true
		defer func() { w.syncing = false }()
		w.presetSelect.SetOptions(names)
		w.presetSelect.SetSelected(selected)
	})
}

// SetMusicDir shows the active music folder.
func (w *MainWindow) SetMusicDir(dir string) {
	fyneapp.Do(func() {
		if dir == "" {
			dir = "No music folder selected"
		}
		w.musicDirLabel.SetText(dir)
	})
}

// ShowError displays an error dialog to the user.
func (w *MainWindow) ShowError(title, message string) {
	fyneapp.Do(func() {
		dialog.ShowError(fmt.Errorf("%s: %s", title, message), w.window)
	})
}

// ShowNotification displays a system notification.
func (w *MainWindow) ShowNotification(title, message string) {
	w.app.SendNotification(fyneapp.NewNotification(title, message))
}

// Run shows the window and runs the application.
func (w *MainWindow) Run() error {
	w.window.ShowAndRun()
	return nil
}

// Quit closes the window.
// It's safe to call multiple times (idempotent).
func (w *MainWindow) Quit() {
	w.closeOnce.Do(func() {
		if w.presetWindow != nil {
			w.presetWindow.Close()
		}
		w.window.Close()
	})
}

var _ ports.UI = (*MainWindow)(nil)

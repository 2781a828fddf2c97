package fyne

import (
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/tejashwikalptaru/dancepractice/internal/service"
)

// FolderDialog is a helper for creating folder open dialogs.
type FolderDialog struct {
	window   fyne.Window
	callback func(string)
	logger   *slog.Logger
}

// NewFolderDialog creates a new folder dialog.
func NewFolderDialog(window fyne.Window, callback func(string), logger *slog.Logger) *FolderDialog {
	return &FolderDialog{
		window:   window,
		callback: callback,
		logger:   logger,
	}
}

// Show displays the folder dialog.
func (d *FolderDialog) Show() {
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil {
			d.logger.Error("folder dialog error", slog.Any("error", err))
			return
		}
		if uri == nil {
			return // User cancelled
		}

		if d.callback != nil {
			d.callback(uri.Path())
		}
	}, d.window)
}

var settingLabels = map[string]string{
	service.SettingPracticeType: "Practice type",
	service.SettingMusicDir:     "Music folder",
	service.SettingMaxPlaytime:  "Max playtime (seconds)",
	service.SettingVolume:       "Volume (0.0 - 1.0)",
}

// SettingsDialog edits the persisted settings as plain text fields.
// Only fields whose text changed are submitted.
type SettingsDialog struct {
	window   fyne.Window
	values   map[string]string
	callback func(key, value string)
}

// NewSettingsDialog creates a settings form prefilled with values.
func NewSettingsDialog(window fyne.Window, values map[string]string, callback func(key, value string)) *SettingsDialog {
	return &SettingsDialog{
		window:   window,
		values:   values,
		callback: callback,
	}
}

// Show displays the settings form.
func (d *SettingsDialog) Show() {
	entries := make(map[string]*widget.Entry, len(service.SettingKeys))
	items := make([]*widget.FormItem, 0, len(service.SettingKeys))
	for _, key := range service.SettingKeys {
		entry := widget.NewEntry()
		entry.SetText(d.values[key])
		entries[key] = entry
		items = append(items, widget.NewFormItem(settingLabels[key], entry))
	}

	form := dialog.NewForm("Settings", "Save", "Cancel", items, func(confirmed bool) {
		if !confirmed || d.callback == nil {
			return
		}
		for _, key := range service.SettingKeys {
			if text := entries[key].Text; text != d.values[key] {
				d.callback(key, text)
			}
		}
	}, d.window)
	form.Resize(fyne.NewSize(480, 0))
	form.Show()
}

// AboutDialog shows application information rendered from Markdown.
type AboutDialog struct {
	window  fyne.Window
	title   string
	content string
}

// NewAboutDialog creates a new about dialog.
func NewAboutDialog(window fyne.Window, title, content string) *AboutDialog {
	return &AboutDialog{window: window, title: title, content: content}
}

// Show displays the about dialog.
func (d *AboutDialog) Show() {
	body := widget.NewRichTextFromMarkdown(d.content)
	body.Wrapping = fyne.TextWrapWord
	dialog.ShowCustom("About "+d.title, "Close", container.NewPadded(body), d.window)
}

package fyne

import (
	"fmt"
	"strings"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/tejashwikalptaru/dancepractice/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/dancepractice/internal/adapter/ui/fyne/widgets"
	"github.com/tejashwikalptaru/dancepractice/internal/domain"
)

// PresetWindow lists the practice types with search, shows the details of
// the selected one and lets the user copy or delete custom entries.
// It follows PresetsReloadedEvent so edits to custom_presets.json show up live.
type PresetWindow struct {
	window      fyneapp.Window
	list        *widget.List
	searchEntry *widget.Entry
	details     *widget.RichText
	useButton   *widget.Button
	copyButton  *widget.Button
	delButton   *widget.Button

	// Data state
	data     []string // Filtered view (shown in the list)
	names    []string // All practice types
	selected string

	presenter     *Presenter
	subscriptions []domain.SubscriptionID

	onWindowClosed func()
}

// NewPresetWindow creates a new practice types window.
func NewPresetWindow(app fyneapp.App, presenter *Presenter) *PresetWindow {
	w := &PresetWindow{
		presenter: presenter,
	}

	w.window = app.NewWindow("Practice Types")
	w.window.Resize(fyneapp.NewSize(640, 480))
	w.buildUI()

	w.subscriptions = append(w.subscriptions,
		eventbus.On(presenter.EventBus(), domain.EventPresetsReloaded, func(e domain.PresetsReloadedEvent) {
			names := append([]string(nil), e.Names...)
			fyneapp.Do(func() { w.setNames(names) })
		}),
	)

	w.window.SetOnClosed(func() {
		w.unsubscribeFromEvents()
		if w.onWindowClosed != nil {
			w.onWindowClosed()
		}
	})

	w.setNames(presenter.PresetNames())
	return w
}

func (w *PresetWindow) buildUI() {
	w.searchEntry = widget.NewEntry()
	w.searchEntry.SetPlaceHolder("Search...")
	w.searchEntry.OnChanged = func(string) {
		w.applyFilter()
	}

	w.list = widget.NewList(
		func() int { return len(w.data) },
		func() fyneapp.CanvasObject {
			label := widgets.NewDoubleTapLabel(w.onUse)
			label.SetSecondaryTapped(w.onSecondaryTapped)
			return label
		},
		w.updateCell,
	)
	w.list.OnSelected = func(id widget.ListItemID) {
		if id >= 0 && id < len(w.data) {
			w.showDetails(w.data[id])
		}
	}

	w.details = widget.NewRichTextFromMarkdown("Select a practice type")
	w.details.Wrapping = fyneapp.TextWrapWord

	w.useButton = widget.NewButtonWithIcon("Use", theme.ConfirmIcon(), func() { w.useSelected() })
	w.copyButton = widget.NewButtonWithIcon("Copy...", theme.ContentCopyIcon(), func() { w.copySelected() })
	w.delButton = widget.NewButtonWithIcon("Delete", theme.DeleteIcon(), func() { w.deleteSelected() })
	w.useButton.Disable()
	w.copyButton.Disable()
	w.delButton.Disable()

	left := container.NewBorder(w.searchEntry, nil, nil, nil, w.list)
	right := container.NewBorder(nil,
		container.NewHBox(w.useButton, w.copyButton, w.delButton),
		nil, nil,
		container.NewVScroll(w.details),
	)
	split := container.NewHSplit(left, right)
	split.Offset = 0.35
	w.window.SetContent(split)
}

func (w *PresetWindow) updateCell(i widget.ListItemID, obj fyneapp.CanvasObject) {
	label, ok := obj.(*widgets.DoubleTapLabel)
	if !ok || i < 0 || i >= len(w.data) {
		return
	}
	name := w.data[i]
	label.SetIndex(i)
	if w.presenter.IsCustomPreset(name) {
		name += " (custom)"
	}
	label.SetText(name)
}

func (w *PresetWindow) setNames(names []string) {
	w.names = names
	w.applyFilter()
	if w.selected != "" {
		w.showDetails(w.selected)
	}
}

// applyFilter narrows the list to names containing the search text.
func (w *PresetWindow) applyFilter() {
	query := strings.ToLower(strings.TrimSpace(w.searchEntry.Text))
	if query == "" {
		w.data = w.names
	} else {
		w.data = make([]string, 0, len(w.names))
		for _, name := range w.names {
			if strings.Contains(strings.ToLower(name), query) {
				w.data = append(w.data, name)
			}
		}
	}
	w.window.SetTitle(fmt.Sprintf("Practice Types (%d)", len(w.data)))
	w.list.UnselectAll()
	w.list.Refresh()
}

func (w *PresetWindow) showDetails(name string) {
	w.selected = name
	w.details.ParseMarkdown(w.presenter.PresetDetails(name))
	w.useButton.Enable()
	w.copyButton.Enable()
	if w.presenter.IsCustomPreset(name) {
		w.delButton.Enable()
	} else {
		w.delButton.Disable()
	}
}

func (w *PresetWindow) onUse(index int) {
	if index >= 0 && index < len(w.data) {
		w.presenter.OnPresetSelected(w.data[index])
	}
}

func (w *PresetWindow) onSecondaryTapped(index int, pos fyneapp.Position) {
	if index < 0 || index >= len(w.data) {
		return
	}
	w.showDetails(w.data[index])
	items := []*fyneapp.MenuItem{
		fyneapp.NewMenuItem("Use", w.useSelected),
		fyneapp.NewMenuItem("Copy...", w.copySelected),
	}
	if w.presenter.IsCustomPreset(w.selected) {
		items = append(items, fyneapp.NewMenuItem("Delete", w.deleteSelected))
	}
	widget.ShowPopUpMenuAtPosition(fyneapp.NewMenu("", items...), w.window.Canvas(), pos)
}

func (w *PresetWindow) useSelected() {
	if w.selected != "" {
		w.presenter.OnPresetSelected(w.selected)
	}
}

func (w *PresetWindow) copySelected() {
	if w.selected == "" {
		return
	}
	source := w.selected
	entry := widget.NewEntry()
	entry.SetText(source + " copy")
	dialog.ShowForm("Copy Practice Type", "Save", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Name", entry)},
		func(confirmed bool) {
			if confirmed {
				w.presenter.OnPresetDuplicated(source, entry.Text)
			}
		}, w.window)
}

func (w *PresetWindow) deleteSelected() {
	name := w.selected
	if name == "" || !w.presenter.IsCustomPreset(name) {
		return
	}
	dialog.ShowConfirm("Delete Practice Type",
		fmt.Sprintf("Delete %q from the custom practice types?", name),
		func(confirmed bool) {
			if confirmed {
				w.selected = ""
				w.presenter.OnPresetDeleted(name)
			}
		}, w.window)
}

func (w *PresetWindow) unsubscribeFromEvents() {
	for _, sub := range w.subscriptions {
		w.presenter.EventBus().Unsubscribe(sub)
	}
	w.subscriptions = nil
}

// Show displays the window.
func (w *PresetWindow) Show() {
	w.window.Show()
}

// Close closes the window.
func (w *PresetWindow) Close() {
	w.unsubscribeFromEvents()
	w.window.Close()
}

// SetOnWindowClosed sets a callback to be invoked when the window is closed.
func (w *PresetWindow) SetOnWindowClosed(callback func()) {
	w.onWindowClosed = callback
}

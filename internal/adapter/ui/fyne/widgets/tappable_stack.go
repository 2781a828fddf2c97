package widgets

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
)

// TappableStack wraps content and opens a context menu on right click.
// The main window uses it around the now playing label.
type TappableStack struct {
	widget.BaseWidget

	content        fyne.CanvasObject
	onSecondaryTap func(*fyne.PointEvent)
}

// NewTappableStack creates a new tappable stack with the given content.
func NewTappableStack(content fyne.CanvasObject, onSecondaryTap func(*fyne.PointEvent)) *TappableStack {
	t := &TappableStack{
		content:        content,
		onSecondaryTap: onSecondaryTap,
	}
	t.ExtendBaseWidget(t)
	return t
}

// CreateRenderer implements fyne.Widget.
func (t *TappableStack) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(t.content)
}

// Tapped implements fyne.Tappable. Primary taps fall through to nothing.
func (t *TappableStack) Tapped(*fyne.PointEvent) {}

// TappedSecondary implements fyne.SecondaryTappable (right-click).
func (t *TappableStack) TappedSecondary(pe *fyne.PointEvent) {
	if t.onSecondaryTap != nil {
		t.onSecondaryTap(pe)
	}
}

var (
	_ fyne.Tappable          = (*TappableStack)(nil)
	_ fyne.SecondaryTappable = (*TappableStack)(nil)
)

// Package widgets provides custom Fyne widgets for the dance practice player.
package widgets

import (
	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
)

var (
	_ fyneapp.DoubleTappable    = (*DoubleTapLabel)(nil)
	_ fyneapp.SecondaryTappable = (*DoubleTapLabel)(nil)
)

// DoubleTapLabel is a list row label that reports double taps and right
// clicks together with the row index it currently displays.
// widget.List recycles rows, so the index must be refreshed with SetIndex
// on every update.
type DoubleTapLabel struct {
	widget.Label
	index           int
	doubleTapped    func(index int)
	secondaryTapped func(index int, pos fyneapp.Position)
}

// NewDoubleTapLabel creates a label that calls doubleTapped with its row index.
func NewDoubleTapLabel(doubleTapped func(index int)) *DoubleTapLabel {
	label := &DoubleTapLabel{
		index:        -1,
		doubleTapped: doubleTapped,
	}
	label.Truncation = fyneapp.TextTruncateEllipsis
	label.ExtendBaseWidget(label)
	return label
}

// SetIndex binds the label to a row.
func (l *DoubleTapLabel) SetIndex(index int) {
	l.index = index
}

// Index returns the bound row, or -1 before the first SetIndex.
func (l *DoubleTapLabel) Index() int {
	return l.index
}

// SetSecondaryTapped sets the right-click callback.
func (l *DoubleTapLabel) SetSecondaryTapped(callback func(index int, pos fyneapp.Position)) {
	l.secondaryTapped = callback
}

// DoubleTapped implements fyne.DoubleTappable.
func (l *DoubleTapLabel) DoubleTapped(_ *fyneapp.PointEvent) {
	if l.doubleTapped != nil && l.index >= 0 {
		l.doubleTapped(l.index)
	}
}

// TappedSecondary implements fyne.SecondaryTappable.
func (l *DoubleTapLabel) TappedSecondary(pe *fyneapp.PointEvent) {
	if l.secondaryTapped != nil && l.index >= 0 {
		l.secondaryTapped(l.index, pe.AbsolutePosition)
	}
}

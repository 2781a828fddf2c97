package widgets

import (
	"testing"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/widget"
	"github.com/stretchr/testify/assert"
)

func TestDoubleTapLabel(t *testing.T) {
	test.NewTempApp(t)

	var tapped []int
	label := NewDoubleTapLabel(func(index int) { tapped = append(tapped, index) })

	test.DoubleTap(label)
	assert.Empty(t, tapped, "unbound rows must not report taps")

	label.SetIndex(3)
	label.SetText("Waltz")
	test.DoubleTap(label)
	assert.Equal(t, []int{3}, tapped)
	assert.Equal(t, "Waltz", label.Text)
	assert.Equal(t, 3, label.Index())
}

func TestDoubleTapLabel_Secondary(t *testing.T) {
	test.NewTempApp(t)

	got := -1
	label := NewDoubleTapLabel(nil)
	label.SetSecondaryTapped(func(index int, _ fyneapp.Position) { got = index })
	label.SetIndex(7)

	test.TapSecondary(label)
	assert.Equal(t, 7, got)

	// No double tap callback set.
	test.DoubleTap(label)
}

func TestTappableStack(t *testing.T) {
	test.NewTempApp(t)

	calls := 0
	stack := NewTappableStack(widget.NewLabel("now playing"), func(*fyneapp.PointEvent) { calls++ })

	test.Tap(stack)
	assert.Zero(t, calls)

	test.TapSecondary(stack)
	assert.Equal(t, 1, calls)
}

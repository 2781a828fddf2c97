package domain

import (
	"fmt"
	"math"
	"time"
)

// InitialProgressText is shown when no track is loaded.
const InitialProgressText = "0:00 / 0:00"

// SecsToTimeStr formats seconds as MM:SS, or HH:MM:SS from one hour upwards.
func SecsToTimeStr(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int64(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// FormatDuration is SecsToTimeStr for a time.Duration.
func FormatDuration(d time.Duration) string {
	return SecsToTimeStr(d.Seconds())
}

// ProgressText renders "elapsed / total".
func ProgressText(elapsed, total time.Duration) string {
	return FormatDuration(elapsed) + " / " + FormatDuration(total)
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

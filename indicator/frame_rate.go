// Package indicator smooths noisy per-frame measurements.
package indicator

import (
	"math"
	"time"

	indicators "github.com/lmpizarro/go_ehlers_indicators"
)

// FrameRateMeter estimates the rate at which frames arrive, smoothing the
// intervals between them with the MESA adaptive moving average. It is not
// safe for concurrent use.
type FrameRateMeter struct {
	FastLimit float64
	SlowLimit float64

	intervals []float64
	ordered   []float64
	next      int
	observed  int
	lastAt    time.Time
}

func NewFrameRateMeter(window int) *FrameRateMeter {
	return &FrameRateMeter{
		FastLimit: 0.5,
		SlowLimit: 0.05,
		intervals: make([]float64, window),
		ordered:   make([]float64, window),
	}
}

// Observe records a frame that arrived at ts and returns the smoothed
// frames per second. ok is false until the window is filled.
func (m *FrameRateMeter) Observe(ts time.Time) (fps float64, ok bool) {
	prev := m.lastAt
	m.lastAt = ts
	if prev.IsZero() {
		return 0, false
	}
	interval := ts.Sub(prev).Seconds()
	if interval <= 0 {
		return 0, false
	}

	m.intervals[m.next] = interval
	m.next = (m.next + 1) % len(m.intervals)
	m.observed++
	if !m.Valid() {
		return 1 / interval, false
	}

	// oldest first
	n := copy(m.ordered, m.intervals[m.next:])
	copy(m.ordered[n:], m.intervals[:m.next])
	smoothed := indicators.MAMA(m.ordered, m.FastLimit, m.SlowLimit)
	last := smoothed[len(smoothed)-1]
	if last <= 0 || math.IsNaN(last) {
		return 1 / interval, true
	}
	return 1 / last, true
}

func (m *FrameRateMeter) Valid() bool {
	return m.observed >= len(m.intervals)
}

package compress

import (
	"math"
	"sync"
)

// reporter turns engine ratios into non-decreasing whole percentages.
type reporter struct {
	mu   sync.Mutex
	fn   func(percent int)
	last int // -1 until something was emitted
}

func newReporter(fn func(percent int)) *reporter {
	return &reporter{fn: fn, last: -1}
}

func (r *reporter) ratio(v float64) {
	if math.IsNaN(v) {
		return
	}
	r.emit(int(math.Round(math.Max(0, math.Min(1, v)) * 100)))
}

func (r *reporter) emit(percent int) {
	if r.fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if percent <= r.last {
		return
	}
	r.last = percent
	r.fn(percent)
}

// finish reports 100 unless it already was.
func (r *reporter) finish() {
	r.emit(100)
}

// reset reports 0 after a fallback, if anything was shown.
func (r *reporter) reset() {
	if r.fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last < 0 {
		return
	}
	r.last = 0
	r.fn(0)
}

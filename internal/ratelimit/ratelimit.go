// Package ratelimit implements a fixed-window request counter keyed by
// caller identity.
package ratelimit

import (
	"sync"
	"time"
)

type window struct {
	start time.Time
	count int
}

// FixedWindow allows at most limit calls per identity per window.
type FixedWindow struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	period  time.Duration
	now     func() time.Time
}

// New builds a limiter allowing limit calls per period.
func New(limit int, period time.Duration) *FixedWindow {
	return &FixedWindow{
		windows: map[string]*window{},
		limit:   limit,
		period:  period,
		now:     time.Now,
	}
}

// Allow reports whether identity may proceed, counting the call.
func (f *FixedWindow) Allow(identity string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	w, ok := f.windows[identity]
	if !ok || now.Sub(w.start) >= f.period {
		f.windows[identity] = &window{start: now, count: 1}
		return true
	}
	if w.count >= f.limit {
		return false
	}
	w.count++
	return true
}

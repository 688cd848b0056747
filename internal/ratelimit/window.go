// Package ratelimit implements the sliding-window admission control used
// by the policy enforcer (spec §4.G.4): one rejected check never records,
// and the admitted count in any window never exceeds its configured
// limit for any interleaving of concurrent checks (spec §8 invariant 6).
package ratelimit

import (
	"sync"
	"time"
)

// WindowName identifies one of the four standard windows.
type WindowName string

const (
	WindowRun    WindowName = "run"
	WindowMinute WindowName = "minute"
	WindowHour   WindowName = "hour"
	WindowDay    WindowName = "day"
)

// WindowConfig is one window's duration and admission limit. A zero
// Duration means "no expiry" (used by the run window, which never ages
// out within a single session).
type WindowConfig struct {
	Duration time.Duration
	Limit    int
}

// window is one configured window with the timestamps of the actions it
// admitted, kept as a sliding deque (spec §3 "RateLimitState ... sliding
// deques of (timestamp, action_kind)").
type window struct {
	cfg   WindowConfig
	times []time.Time
}

func (w *window) prune(now time.Time) {
	if w.cfg.Duration <= 0 {
		return
	}
	cutoff := now.Add(-w.cfg.Duration)
	i := 0
	for i < len(w.times) && w.times[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		w.times = w.times[i:]
	}
}

func (w *window) count(now time.Time) int {
	w.prune(now)
	return len(w.times)
}

func (w *window) utilization(now time.Time) float64 {
	if w.cfg.Limit <= 0 {
		return 1.0
	}
	return float64(w.count(now)) / float64(w.cfg.Limit)
}

// Limiter enforces all four windows for one action kind under a single
// mutex, so check-and-record is atomic: a rejected check never mutates
// state, matching spec §4.G.4 "Check-and-record is atomic under a single
// lock; a rejected check does not record."
type Limiter struct {
	mu      sync.Mutex
	windows map[WindowName]*window
	warnAt  float64
}

// NewLimiter builds a Limiter from the four configured windows.
func NewLimiter(cfgs map[WindowName]WindowConfig, warnUtilization float64) *Limiter {
	l := &Limiter{windows: make(map[WindowName]*window, len(cfgs)), warnAt: warnUtilization}
	for name, cfg := range cfgs {
		l.windows[name] = &window{cfg: cfg}
	}
	return l
}

// Decision is the outcome of one admission check.
type Decision struct {
	Admitted    bool
	Warnings    []WindowName // windows at or above the warn threshold, counting this admission
	Saturated   WindowName   // the smallest window that caused rejection, if any
}

// CheckAndRecord evaluates every window at time now; if all windows have
// room, it records the action in all of them atomically and reports
// Admitted=true. Otherwise nothing is recorded (spec §4.G.4).
func (l *Limiter) CheckAndRecord(now time.Time) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Evaluate smallest-window-first so the reported Saturated window
	// matches spec §4.G.4 "rejection when the smallest window is
	// saturated" — windows with zero/negative duration (the "run" window)
	// sort first since they represent the tightest scope.
	order := orderedWindowNames(l.windows)
	for _, name := range order {
		w := l.windows[name]
		if w.cfg.Limit > 0 && w.count(now) >= w.cfg.Limit {
			return Decision{Admitted: false, Saturated: name}
		}
	}

	for _, w := range l.windows {
		w.times = append(w.times, now)
	}

	var warnings []WindowName
	for _, name := range order {
		w := l.windows[name]
		if l.warnAt > 0 && w.utilization(now) >= l.warnAt {
			warnings = append(warnings, name)
		}
	}
	return Decision{Admitted: true, Warnings: warnings}
}

func orderedWindowNames(windows map[WindowName]*window) []WindowName {
	order := []WindowName{WindowRun, WindowMinute, WindowHour, WindowDay}
	out := make([]WindowName, 0, len(order))
	for _, n := range order {
		if _, ok := windows[n]; ok {
			out = append(out, n)
		}
	}
	return out
}

// Snapshot returns the current count in every window, for persistence and
// telemetry.
func (l *Limiter) Snapshot(now time.Time) map[WindowName]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[WindowName]int, len(l.windows))
	for name, w := range l.windows {
		out[name] = w.count(now)
	}
	return out
}

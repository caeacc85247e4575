package main

import (
	"sync"
	"time"
)

// Debouncer rate-limits per-category event streams. Continuous phenomena
// (rotor wash, suppression fire, scraping collisions) would otherwise flood
// the daemon with near-identical events every simulation tick.
//
// This is a rate limiter, not a queue: a suppressed event is dropped and
// never retried.
//
// Thread-safe: hooks may report from more than one engine thread.
type Debouncer struct {
	mu        sync.Mutex
	intervals map[string]time.Duration
	last      map[string]time.Time
}

// NewDebouncer creates a debouncer with the given per-category minimum
// intervals. Categories absent from the table are unthrottled.
func NewDebouncer(intervals map[string]time.Duration) *Debouncer {
	d := &Debouncer{
		intervals: make(map[string]time.Duration, len(intervals)),
		last:      make(map[string]time.Time),
	}
	for cat, iv := range intervals {
		d.intervals[cat] = iv
	}
	return d
}

// ShouldEmit reports whether an event of the given category at now passes
// the rate limit, and records now as the category's last emission when it
// does. The first event of a category always emits.
func (d *Debouncer) ShouldEmit(category string, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	minInterval := d.intervals[category]
	if last, ok := d.last[category]; ok && minInterval > 0 && now.Sub(last) < minInterval {
		return false
	}

	d.last[category] = now
	return true
}

// SetIntervals replaces the interval table. Last-emission timestamps are
// preserved so a reload cannot re-open a window that just closed.
func (d *Debouncer) SetIntervals(intervals map[string]time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.intervals = make(map[string]time.Duration, len(intervals))
	for cat, iv := range intervals {
		d.intervals[cat] = iv
	}
}

// Interval returns the configured minimum interval for a category
// (0 for unthrottled categories).
func (d *Debouncer) Interval(category string) time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.intervals[category]
}

// debounceIntervals builds the per-category interval table from config.
// Only categories produced by continuous or bursty phenomena are throttled;
// discrete one-shot categories (weapon fire, grenade throw) pass through.
func debounceIntervals(cfg DebounceConfig) map[string]time.Duration {
	continuous := time.Duration(cfg.ContinuousMS) * time.Millisecond
	impact := time.Duration(cfg.ImpactMS) * time.Millisecond

	return map[string]time.Duration{
		CategoryHelicopterRotor:  continuous,
		CategoryVehicleCollision: impact,
		CategoryPlayerSuppressed: impact,
		CategoryBulletImpactNear: impact,
	}
}

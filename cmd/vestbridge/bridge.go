package main

import (
	"log/slog"
	"sync"
	"time"
)

// eventSink is the delivery side of the bridge. Satisfied by *DaemonLink;
// tests substitute a recording fake.
type eventSink interface {
	Submit(encoded []byte)
}

// Bridge is the single entry point for hook call-sites. It composes the
// debounce gate, the bearing calculator, and the encoder in front of the
// daemon link.
type Bridge struct {
	debounce *Debouncer
	sink     eventSink
	logger   *slog.Logger

	// now is swappable for tests.
	now func() time.Time

	mu         sync.Mutex
	emitted    map[string]uint64
	suppressed map[string]uint64
	onEmit     func(WireEvent)
}

// NewBridge wires the facade. sink must be non-nil.
func NewBridge(debounce *Debouncer, sink eventSink, logger *slog.Logger) *Bridge {
	return &Bridge{
		debounce:   debounce,
		sink:       sink,
		logger:     logger,
		now:        time.Now,
		emitted:    make(map[string]uint64),
		suppressed: make(map[string]uint64),
	}
}

// SetEmitListener registers a callback invoked after each accepted event.
// Must be called before the bridge starts receiving events.
func (b *Bridge) SetEmitListener(fn func(WireEvent)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onEmit = fn
}

// Emit forwards one hook event toward the vest daemon.
//
// Safe to call from any goroutine and completes without blocking I/O: the
// bearing math and the debounce check run inline, delivery is handed off to
// the link's queue. Emit never reports failure to the caller; a telemetry
// fault must not reach the game's event path, so everything is absorbed
// into logs.
func (b *Bridge) Emit(ev HookEvent) {
	if _, ok := knownCategories[ev.Category]; !ok {
		b.logger.Warn("unknown event category, dropping", "category", ev.Category)
		return
	}

	angle := 0.0
	if ev.Observer != nil && ev.Target != nil {
		angle = BearingTo(*ev.Observer, ev.YawDeg, *ev.Target)
	}

	if !b.debounce.ShouldEmit(ev.Category, b.now()) {
		b.count(b.suppressed, ev.Category)
		b.logger.Debug("event suppressed by debounce", "category", ev.Category)
		return
	}

	magnitude := ev.Magnitude
	if magnitude < 0 {
		magnitude = 0
	}

	wev := NewWireEvent(ev.Category, angle, magnitude, clampIntensity(ev.Intensity))

	encoded, err := EncodeWireEvent(wev)
	if err != nil {
		b.logger.Error("encode failed, dropping event", "category", ev.Category, "error", err)
		return
	}

	b.sink.Submit(encoded)
	b.count(b.emitted, ev.Category)

	b.mu.Lock()
	fn := b.onEmit
	b.mu.Unlock()
	if fn != nil {
		fn(wev)
	}
}

// Counters returns per-category emitted/suppressed totals.
func (b *Bridge) Counters() (emitted, suppressed map[string]uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	emitted = make(map[string]uint64, len(b.emitted))
	for cat, n := range b.emitted {
		emitted[cat] = n
	}
	suppressed = make(map[string]uint64, len(b.suppressed))
	for cat, n := range b.suppressed {
		suppressed[cat] = n
	}
	return emitted, suppressed
}

func (b *Bridge) count(m map[string]uint64, category string) {
	b.mu.Lock()
	m[category]++
	b.mu.Unlock()
}

// clampIntensity bounds an intensity override to the daemon's 0-10 scale
// (0 meaning "no override").
func clampIntensity(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > intensityMax {
		return intensityMax
	}
	return v
}

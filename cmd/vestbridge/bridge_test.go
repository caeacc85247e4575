package main

import (
	"sync"
	"testing"
	"time"
)

// fakeSink records submitted frames in place of the daemon link.
type fakeSink struct {
	mu   sync.Mutex
	msgs [][]byte
}

func (s *fakeSink) Submit(encoded []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, append([]byte(nil), encoded...))
}

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

func (s *fakeSink) last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.msgs) == 0 {
		return ""
	}
	return string(s.msgs[len(s.msgs)-1])
}

func newTestBridge(intervals map[string]time.Duration) (*Bridge, *fakeSink) {
	sink := &fakeSink{}
	return NewBridge(NewDebouncer(intervals), sink, testLogger()), sink
}

func TestBridge_EmitEndToEnd(t *testing.T) {
	b, sink := newTestBridge(nil)

	observer := Vec3{X: 0, Y: 0, Z: 0}
	target := Vec3{X: 0, Y: 0, Z: -5}
	b.Emit(HookEvent{
		Category:  CategoryPlayerDamage,
		Observer:  &observer,
		YawDeg:    0,
		Target:    &target,
		Magnitude: 20,
	})

	if sink.count() != 1 {
		t.Fatalf("submitted %d frames, want 1", sink.count())
	}
	want := `{"cmd":"armareforger_event","event":"player_damage","angle":180,"damage":20}`
	if got := sink.last(); got != want {
		t.Errorf("frame mismatch:\n got: %s\nwant: %s", got, want)
	}
}

func TestBridge_NonDirectionalEvent(t *testing.T) {
	b, sink := newTestBridge(nil)

	b.Emit(HookEvent{Category: CategoryWeaponFireRifle})

	want := `{"cmd":"armareforger_event","event":"weapon_fire_rifle","angle":0,"damage":0}`
	if got := sink.last(); got != want {
		t.Errorf("frame mismatch:\n got: %s\nwant: %s", got, want)
	}
}

func TestBridge_DebounceSuppresses(t *testing.T) {
	b, sink := newTestBridge(map[string]time.Duration{
		CategoryPlayerSuppressed: 500 * time.Millisecond,
	})

	cur := time.Unix(1000, 0)
	b.now = func() time.Time { return cur }

	ev := HookEvent{Category: CategoryPlayerSuppressed}
	b.Emit(ev)
	cur = cur.Add(300 * time.Millisecond)
	b.Emit(ev)
	if sink.count() != 1 {
		t.Fatalf("submitted %d frames inside window, want 1", sink.count())
	}

	cur = cur.Add(300 * time.Millisecond)
	b.Emit(ev)
	if sink.count() != 2 {
		t.Fatalf("submitted %d frames past window, want 2", sink.count())
	}

	emitted, suppressed := b.Counters()
	if emitted[CategoryPlayerSuppressed] != 2 {
		t.Errorf("emitted counter = %d, want 2", emitted[CategoryPlayerSuppressed])
	}
	if suppressed[CategoryPlayerSuppressed] != 1 {
		t.Errorf("suppressed counter = %d, want 1", suppressed[CategoryPlayerSuppressed])
	}
}

func TestBridge_UnknownCategoryDropped(t *testing.T) {
	b, sink := newTestBridge(nil)

	b.Emit(HookEvent{Category: "tank_horn"})
	if sink.count() != 0 {
		t.Errorf("unknown category reached sink: %s", sink.last())
	}

	emitted, suppressed := b.Counters()
	if len(emitted) != 0 || len(suppressed) != 0 {
		t.Error("unknown category must not be counted")
	}
}

func TestBridge_ClampsMagnitudeAndIntensity(t *testing.T) {
	b, sink := newTestBridge(nil)

	b.Emit(HookEvent{Category: CategoryExplosionNearby, Magnitude: -3, Intensity: 42})

	got, err := DecodeWireEvent([]byte(sink.last()))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Damage != 0 {
		t.Errorf("damage = %d, want 0", got.Damage)
	}
	if got.Intensity != intensityMax {
		t.Errorf("intensity = %v, want %v", got.Intensity, intensityMax)
	}
}

func TestBridge_EmitListener(t *testing.T) {
	b, _ := newTestBridge(nil)

	var mu sync.Mutex
	var seen []WireEvent
	b.SetEmitListener(func(ev WireEvent) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, ev)
	})

	b.Emit(HookEvent{Category: CategoryPlayerDeath, Magnitude: 100})

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 {
		t.Fatalf("listener saw %d events, want 1", len(seen))
	}
	if seen[0].Event != CategoryPlayerDeath || seen[0].Damage != 100 {
		t.Errorf("listener event = %+v", seen[0])
	}
}

package main

import (
	"testing"
	"time"
)

func TestDebouncer_MinIntervalSequence(t *testing.T) {
	d := NewDebouncer(map[string]time.Duration{
		CategoryVehicleCollision: 500 * time.Millisecond,
	})
	base := time.Unix(1000, 0)

	if !d.ShouldEmit(CategoryVehicleCollision, base) {
		t.Fatal("first event must emit")
	}
	if d.ShouldEmit(CategoryVehicleCollision, base.Add(300*time.Millisecond)) {
		t.Error("event inside the window must be suppressed")
	}
	if !d.ShouldEmit(CategoryVehicleCollision, base.Add(600*time.Millisecond)) {
		t.Error("event past the window must emit")
	}
}

func TestDebouncer_CategoriesAreIndependent(t *testing.T) {
	d := NewDebouncer(map[string]time.Duration{
		CategoryVehicleCollision: 500 * time.Millisecond,
		CategoryPlayerSuppressed: 500 * time.Millisecond,
	})
	base := time.Unix(1000, 0)

	if !d.ShouldEmit(CategoryVehicleCollision, base) {
		t.Fatal("first collision must emit")
	}
	// A throttled collision must not close the suppression window.
	if !d.ShouldEmit(CategoryPlayerSuppressed, base.Add(100*time.Millisecond)) {
		t.Error("other categories must not share a window")
	}
	if d.ShouldEmit(CategoryVehicleCollision, base.Add(100*time.Millisecond)) {
		t.Error("collision window must still be closed")
	}
}

func TestDebouncer_UnthrottledCategory(t *testing.T) {
	d := NewDebouncer(map[string]time.Duration{
		CategoryHelicopterRotor: 200 * time.Millisecond,
	})
	base := time.Unix(1000, 0)

	for i := 0; i < 10; i++ {
		at := base.Add(time.Duration(i) * time.Millisecond)
		if !d.ShouldEmit(CategoryWeaponFireRifle, at) {
			t.Fatalf("unthrottled category suppressed at event %d", i)
		}
	}
}

func TestDebouncer_SetIntervalsKeepsTimestamps(t *testing.T) {
	d := NewDebouncer(map[string]time.Duration{
		CategoryHelicopterRotor: 200 * time.Millisecond,
	})
	base := time.Unix(1000, 0)

	if !d.ShouldEmit(CategoryHelicopterRotor, base) {
		t.Fatal("first event must emit")
	}

	// Reload widens the window; the emission that just happened still counts
	// against it.
	d.SetIntervals(map[string]time.Duration{
		CategoryHelicopterRotor: time.Second,
	})
	if d.ShouldEmit(CategoryHelicopterRotor, base.Add(500*time.Millisecond)) {
		t.Error("reload must not re-open a closed window")
	}
	if !d.ShouldEmit(CategoryHelicopterRotor, base.Add(1100*time.Millisecond)) {
		t.Error("event past the widened window must emit")
	}

	// Dropping a category from the table removes its throttle.
	d.SetIntervals(map[string]time.Duration{})
	if !d.ShouldEmit(CategoryHelicopterRotor, base.Add(1101*time.Millisecond)) {
		t.Error("category without an interval must be unthrottled")
	}
}

func TestDebounceIntervals_FromConfig(t *testing.T) {
	table := debounceIntervals(DebounceConfig{ContinuousMS: 200, ImpactMS: 500})

	cases := []struct {
		category string
		want     time.Duration
	}{
		{CategoryHelicopterRotor, 200 * time.Millisecond},
		{CategoryVehicleCollision, 500 * time.Millisecond},
		{CategoryPlayerSuppressed, 500 * time.Millisecond},
		{CategoryBulletImpactNear, 500 * time.Millisecond},
		{CategoryWeaponFireRifle, 0},
		{CategoryPlayerDamage, 0},
	}
	for _, tc := range cases {
		if got := table[tc.category]; got != tc.want {
			t.Errorf("%s: interval = %v, want %v", tc.category, got, tc.want)
		}
	}
}

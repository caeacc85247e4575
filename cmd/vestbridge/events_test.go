package main

import "testing"

func TestHookEventEnvelope_RoundTrip(t *testing.T) {
	observer := Vec3{X: 1, Y: 2, Z: 3}
	target := Vec3{X: 4, Y: 5, Z: 6}
	in := HookEvent{
		Category:  CategoryVehicleDamage,
		Observer:  &observer,
		YawDeg:    33.5,
		Target:    &target,
		Magnitude: 12,
		Intensity: 4,
	}

	data, err := MarshalHookEvent(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out, err := UnmarshalHookEvent(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if out.Category != in.Category || out.YawDeg != in.YawDeg ||
		out.Magnitude != in.Magnitude || out.Intensity != in.Intensity {
		t.Errorf("round trip mismatch: got %+v", out)
	}
	if out.Observer == nil || *out.Observer != observer {
		t.Errorf("observer = %+v, want %+v", out.Observer, observer)
	}
	if out.Target == nil || *out.Target != target {
		t.Errorf("target = %+v, want %+v", out.Target, target)
	}
}

func TestUnmarshalHookEvent_Errors(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"unknown type", `{"type":"status_request","data":{}}`},
		{"missing category", `{"type":"hook_event","data":{"magnitude":5}}`},
		{"malformed data", `{"type":"hook_event","data":"nope"}`},
	}
	for _, tc := range cases {
		if _, err := UnmarshalHookEvent([]byte(tc.data)); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ============================================================================
// Hook events - the ingest side of the bridge
// ============================================================================
// Hook call-sites (the engine-side glue) report occurrences as HookEvents.
// Over IPC they travel inside a small JSON envelope with a type
// discriminator, leaving room for non-event message kinds later.
// ============================================================================

// HookEvent is one in-game occurrence as reported by a hook call-site.
//
// Observer/Target are optional: categories without directionality (weapon
// fire, reloads) omit them and the wire angle defaults to 0. Magnitude is a
// damage-like quantity; Intensity is an explicit haptic-strength override
// (0 = let the daemon derive it from magnitude).
type HookEvent struct {
	Category  string  `json:"category"`
	Observer  *Vec3   `json:"observer,omitempty"`
	YawDeg    float64 `json:"yaw_deg,omitempty"`
	Target    *Vec3   `json:"target,omitempty"`
	Magnitude int     `json:"magnitude,omitempty"`
	Intensity float64 `json:"intensity,omitempty"`
}

// hookEnvelope wraps messages on the IPC socket with a type discriminator.
type hookEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

const envelopeTypeHookEvent = "hook_event"

// UnmarshalHookEvent deserializes a JSON envelope into a HookEvent.
func UnmarshalHookEvent(data []byte) (HookEvent, error) {
	var env hookEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return HookEvent{}, fmt.Errorf("unmarshal envelope: %w", err)
	}

	switch env.Type {
	case envelopeTypeHookEvent:
		var ev HookEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return HookEvent{}, fmt.Errorf("unmarshal hook event: %w", err)
		}
		if ev.Category == "" {
			return HookEvent{}, errors.New("hook event has no category")
		}
		return ev, nil

	default:
		return HookEvent{}, fmt.Errorf("unknown message type: %q", env.Type)
	}
}

// MarshalHookEvent serializes a HookEvent into its IPC envelope.
func MarshalHookEvent(ev HookEvent) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal hook event: %w", err)
	}
	return json.Marshal(hookEnvelope{
		Type: envelopeTypeHookEvent,
		Data: data,
	})
}

package main

import (
	"encoding/json"
	"fmt"
	"math"
)

// WireEvent is a single message on the vest daemon's wire protocol.
//
// Field order matters: the daemon's parser is shared with other game
// integrations and the encoded form must stay byte-stable, so keep the
// struct fields in wire order and let encoding/json preserve it.
// Intensity is an explicit haptic-strength override; when it is zero the
// field is omitted and the daemon derives strength from Damage.
type WireEvent struct {
	Cmd       string  `json:"cmd"`
	Event     string  `json:"event"`
	Angle     float64 `json:"angle"`
	Damage    int     `json:"damage"`
	Intensity float64 `json:"intensity,omitempty"`
}

// NewWireEvent builds the canonical wire message for one event. Categories
// are compile-time constants, so no escaping beyond JSON's own is needed.
func NewWireEvent(category string, angle float64, damage int, intensity float64) WireEvent {
	return WireEvent{
		Cmd:       wireCmdTag,
		Event:     category,
		Angle:     quantizeAngle(angle),
		Damage:    damage,
		Intensity: intensity,
	}
}

// quantizeAngle snaps a bearing to hundredths of a degree. The daemon only
// buckets angles into quadrants; quantizing scrubs float residue from the
// trig pipeline so identical geometry always encodes to identical bytes.
func quantizeAngle(deg float64) float64 {
	q := math.Round(deg*100) / 100
	if q >= 360 {
		q = 0
	}
	return q
}

// EncodeWireEvent serializes a wire event, without the trailing newline.
// Framing is the connection manager's concern.
func EncodeWireEvent(ev WireEvent) ([]byte, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal wire event: %w", err)
	}
	return b, nil
}

// DecodeWireEvent parses a wire message and verifies its cmd tag.
func DecodeWireEvent(data []byte) (WireEvent, error) {
	var ev WireEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return WireEvent{}, fmt.Errorf("unmarshal wire event: %w", err)
	}
	if ev.Cmd != wireCmdTag {
		return WireEvent{}, fmt.Errorf("unexpected cmd tag: %q", ev.Cmd)
	}
	return ev, nil
}

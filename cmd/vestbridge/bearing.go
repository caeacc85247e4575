package main

import "math"

// Vec3 is a world-space position in the engine's Y-up coordinate system.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// horizontalEpsilon is the squared-component threshold below which the
// observer-to-target direction is considered undefined.
const horizontalEpsilon = 1e-9

// BearingTo returns the front-relative horizontal bearing, in degrees, from
// an observer facing yawDeg toward target: 0 = directly ahead, 90 = left,
// 180 = behind, 270 = right. The result is always in [0, 360).
//
// The vertical component is discarded before normalization. When the target
// sits on the observer's vertical axis the direction is undefined and the
// bearing reports 0 rather than NaN.
func BearingTo(observer Vec3, yawDeg float64, target Vec3) float64 {
	dx := target.X - observer.X
	dz := target.Z - observer.Z

	if math.Abs(dx) < horizontalEpsilon && math.Abs(dz) < horizontalEpsilon {
		return 0
	}

	norm := math.Hypot(dx, dz)
	dx /= norm
	dz /= norm

	// Horizontal forward unit vector for a left-handed yaw.
	yaw := yawDeg * math.Pi / 180
	fx := math.Sin(yaw)
	fz := math.Cos(yaw)

	dot := fx*dx + fz*dz
	cross := fx*dz - fz*dx

	deg := math.Atan2(cross, dot) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg -= 360
	}
	return deg
}

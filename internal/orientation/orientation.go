// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
)

// Angles is a single tilt estimate in degrees.
// X is roll (lateral lean), Y is pitch (forward/back lean).
type Angles struct {
	X float64 `json:"angle_x"`
	Y float64 `json:"angle_y"`
}

// Source is anything that can provide tilt angles over time.
type Source interface {
	ReadAngles() (Angles, error)
}

// ComputeAnglesFromAccel computes roll and pitch from accelerometer data only.
//
// Uses simple tilt formulas:
//
//	roll  = atan2(ay, az)
//	pitch = atan2(-ax, sqrt(ay² + az²))
func ComputeAnglesFromAccel(ax, ay, az float64) Angles {
	rollRad := math.Atan2(ay, az)
	pitchRad := math.Atan2(-ax, math.Sqrt(ay*ay+az*az))

	return Angles{
		X: rollRad * 180.0 / math.Pi,
		Y: pitchRad * 180.0 / math.Pi,
	}
}

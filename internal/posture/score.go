// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package posture

// MaxReasonableAngle is the tilt at which the score reaches 0.
const MaxReasonableAngle = 50.0

// Score maps a combined tilt to a 0-100 posture score. Good posture always
// scores 100; bad posture degrades linearly from 100 at the threshold to 0 at
// MaxReasonableAngle.
func Score(maxAngle, threshold float64, isBadPosture bool) float64 {
	if !isBadPosture {
		return 100
	}

	tilt := maxAngle
	if tilt > MaxReasonableAngle {
		tilt = MaxReasonableAngle
	}
	// Also covers threshold >= MaxReasonableAngle, where the ramp is empty.
	if tilt <= threshold {
		return 100
	}

	score := 100 - (tilt-threshold)/(MaxReasonableAngle-threshold)*100
	return clamp(score, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

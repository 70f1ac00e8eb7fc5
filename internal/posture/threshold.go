// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package posture

// DefaultAge is used until a profile age is supplied.
const DefaultAge = 25

// ThresholdForAge maps an age to the allowed combined tilt in degrees.
//
// The device sits on the upper back; natural seated tilt grows with reduced
// flexibility, so the tolerance band widens with age.
func ThresholdForAge(age int) float64 {
	switch {
	case age <= 12:
		return 25
	case age <= 17:
		return 28
	case age <= 40:
		return 30
	case age <= 60:
		return 35
	default:
		return 40
	}
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package posture

// Offsets is the per-axis rest-position correction in degrees.
type Offsets struct {
	X float64 `json:"offset_x"`
	Y float64 `json:"offset_y"`
}

// Status is the result of evaluating one angle sample.
type Status struct {
	AngleX       float64 `json:"angle_x"`   // normalized roll deviation
	AngleY       float64 `json:"angle_y"`   // normalized pitch deviation
	MaxAngle     float64 `json:"max_angle"` // weighted combined tilt
	Threshold    float64 `json:"threshold"`
	IsBadPosture bool    `json:"bad_posture"`
}

// Score returns the 0-100 posture score for s.
func (s Status) Score() float64 {
	return Score(s.MaxAngle, s.Threshold, s.IsBadPosture)
}

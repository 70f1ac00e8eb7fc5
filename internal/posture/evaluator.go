// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package posture

import (
	"errors"
	"fmt"
	"math"
)

// Lateral lean is tolerated more than forward/back lean for a back-mounted
// device, so roll counts half.
const sideTiltWeight = 0.5

// ErrInvalidThreshold is returned when an override threshold is not a
// positive finite number of degrees.
var ErrInvalidThreshold = errors.New("posture: threshold must be a positive finite number of degrees")

// ThresholdMode tells where the active threshold came from.
type ThresholdMode int

const (
	// ThresholdFromAge means the threshold was derived by ThresholdForAge.
	ThresholdFromAge ThresholdMode = iota
	// ThresholdOverride means the threshold was set explicitly and holds
	// until the next SetAge.
	ThresholdOverride
)

func (m ThresholdMode) String() string {
	switch m {
	case ThresholdFromAge:
		return "age"
	case ThresholdOverride:
		return "override"
	default:
		return fmt.Sprintf("ThresholdMode(%d)", int(m))
	}
}

// Evaluator classifies tilt samples against calibration offsets and the
// active threshold. It is not safe for concurrent use; the monitor loop owns it.
type Evaluator struct {
	offsets    Offsets
	calibrated bool

	age       int
	threshold float64
	mode      ThresholdMode
}

// NewEvaluator returns an uncalibrated evaluator with the age-derived
// threshold for age.
func NewEvaluator(age int) *Evaluator {
	e := &Evaluator{}
	e.SetAge(age)
	return e
}

// SetAge stores the age and recomputes the threshold, discarding any override.
func (e *Evaluator) SetAge(age int) {
	e.age = age
	e.threshold = ThresholdForAge(age)
	e.mode = ThresholdFromAge
}

// SetThreshold overrides the age-derived threshold. Invalid values are
// rejected and the current threshold is kept.
func (e *Evaluator) SetThreshold(deg float64) error {
	if !(deg > 0) || math.IsInf(deg, 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidThreshold, deg)
	}
	e.threshold = deg
	e.mode = ThresholdOverride
	return nil
}

// SetOffsets replaces both calibration offsets.
func (e *Evaluator) SetOffsets(o Offsets) {
	e.offsets = o
	e.calibrated = true
}

// ResetOffsets returns to the uncalibrated state, where the current physical
// orientation reads as rest.
func (e *Evaluator) ResetOffsets() {
	e.offsets = Offsets{}
	e.calibrated = false
}

func (e *Evaluator) Offsets() Offsets             { return e.offsets }
func (e *Evaluator) Calibrated() bool             { return e.calibrated }
func (e *Evaluator) Age() int                     { return e.age }
func (e *Evaluator) Threshold() float64           { return e.threshold }
func (e *Evaluator) ThresholdMode() ThresholdMode { return e.mode }

// Evaluate applies offsets to raw roll/pitch angles and classifies the
// resulting weighted tilt. It has no side effects.
func (e *Evaluator) Evaluate(rawX, rawY float64) Status {
	x := NormalizeAngle(rawX - e.offsets.X)
	y := NormalizeAngle(rawY - e.offsets.Y)

	forwardTilt := math.Abs(y)
	sideTilt := math.Abs(x) * sideTiltWeight
	maxAngle := forwardTilt + sideTilt

	return Status{
		AngleX:       x,
		AngleY:       y,
		MaxAngle:     maxAngle,
		Threshold:    e.threshold,
		IsBadPosture: maxAngle > e.threshold,
	}
}

// NormalizeAngle wraps deg into (-180, 180].
func NormalizeAngle(deg float64) float64 {
	n := math.Mod(deg+180, 360)
	if n < 0 {
		n += 360
	}
	n -= 180
	if n <= -180 {
		n += 360
	}
	return n
}

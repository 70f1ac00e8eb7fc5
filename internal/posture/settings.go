// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package posture

import (
	"errors"
	"fmt"
	"math"
)

// MaxAge bounds accepted profile ages.
const MaxAge = 130

// Settings is the device configuration supplied by the backend. Every field
// is optional; a nil field leaves the current evaluator state untouched.
type Settings struct {
	DeviceID     string   `json:"device_id,omitempty"`
	Age          *int     `json:"age,omitempty"`
	ThresholdDeg *float64 `json:"threshold_deg,omitempty"`
	OffsetX      *float64 `json:"offset_x,omitempty"`
	OffsetY      *float64 `json:"offset_y,omitempty"`
}

// Validate reports every invalid field.
func (s Settings) Validate() error {
	return errors.Join(s.ageErr(), s.thresholdErr(), s.offsetsErr())
}

func (s Settings) ageErr() error {
	if s.Age == nil {
		return nil
	}
	if *s.Age < 0 || *s.Age > MaxAge {
		return fmt.Errorf("settings: age %d out of range [0, %d]", *s.Age, MaxAge)
	}
	return nil
}

func (s Settings) thresholdErr() error {
	if s.ThresholdDeg == nil {
		return nil
	}
	d := *s.ThresholdDeg
	if !(d > 0) || math.IsInf(d, 0) {
		return fmt.Errorf("settings: threshold_deg %v: %w", d, ErrInvalidThreshold)
	}
	return nil
}

func (s Settings) offsetsErr() error {
	if s.OffsetX == nil && s.OffsetY == nil {
		return nil
	}
	if s.OffsetX == nil || s.OffsetY == nil {
		return errors.New("settings: offset_x and offset_y must be supplied together")
	}
	if !finite(*s.OffsetX) || !finite(*s.OffsetY) {
		return fmt.Errorf("settings: offsets (%v, %v) must be finite", *s.OffsetX, *s.OffsetY)
	}
	return nil
}

// ApplyTo applies the validly supplied fields to e, in the order age,
// threshold override, offsets. Invalid fields are skipped and reported in
// the returned error.
func (s Settings) ApplyTo(e *Evaluator) error {
	ageErr := s.ageErr()
	if s.Age != nil && ageErr == nil {
		e.SetAge(*s.Age)
	}

	thresholdErr := s.thresholdErr()
	if s.ThresholdDeg != nil && thresholdErr == nil {
		// Already validated; SetThreshold cannot fail here.
		_ = e.SetThreshold(*s.ThresholdDeg)
	}

	offsetsErr := s.offsetsErr()
	if s.OffsetX != nil && s.OffsetY != nil && offsetsErr == nil {
		e.SetOffsets(Offsets{X: *s.OffsetX, Y: *s.OffsetY})
	}

	return errors.Join(ageErr, thresholdErr, offsetsErr)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

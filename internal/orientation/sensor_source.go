// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"fmt"

	"github.com/relabs-tech/posture_sense/internal/imu"
)

type sensorSource struct {
	reader      imu.RawReader
	sensitivity float64
}

// NewSensorSource returns a Source that reads raw accelerometer counts from
// reader and converts them to tilt angles. A non-positive sensitivity falls
// back to the ±2g scale.
func NewSensorSource(reader imu.RawReader, sensitivity float64) Source {
	if sensitivity <= 0 {
		sensitivity = imu.AccelSensitivity2G
	}
	return &sensorSource{reader: reader, sensitivity: sensitivity}
}

// ReadAngles performs one bus read and returns the single-shot tilt estimate.
func (s *sensorSource) ReadAngles() (Angles, error) {
	raw, err := s.reader.ReadRaw()
	if err != nil {
		return Angles{}, fmt.Errorf("read angles: %w", err)
	}
	ax, ay, az := raw.G(s.sensitivity)
	return ComputeAnglesFromAccel(ax, ay, az), nil
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

// AccelSensitivity2G is the accelerometer scale for the ±2g range, in counts per g.
const AccelSensitivity2G = 16384.0

// RawSample represents a single raw accelerometer sample.
type RawSample struct {
	Source string `json:"source"` // bus/device label, e.g. "mpu6050@0x68"

	Ax int16 `json:"ax"`
	Ay int16 `json:"ay"`
	Az int16 `json:"az"`
}

// G returns the acceleration in units of g using the given sensitivity
// (counts per g).
func (s RawSample) G(sensitivity float64) (x, y, z float64) {
	return float64(s.Ax) / sensitivity,
		float64(s.Ay) / sensitivity,
		float64(s.Az) / sensitivity
}

// RawReader is anything that can produce raw accelerometer samples.
type RawReader interface {
	ReadRaw() (RawSample, error)
}

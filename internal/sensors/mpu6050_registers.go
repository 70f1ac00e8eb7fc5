// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

// MPU6050 register map (subset used by this driver).
const (
	// DefaultMPU6050Addr is the I²C address with AD0 tied low.
	DefaultMPU6050Addr uint16 = 0x68

	regAccelConfig = 0x1C // ACCEL_FS_SEL in bits 4:3; 0 = ±2g
	regAccelXOutH  = 0x3B // ACCEL_XOUT_H, first of 6 big-endian bytes X/Y/Z
	regPwrMgmt1    = 0x6B // SLEEP in bit 6; writing 0 wakes the part on the internal 8MHz clock
	regWhoAmI      = 0x75

	accelBurstLen = 6
)

// knownWhoAmI lists WHO_AM_I values of the MPU-60x0/65x0 family parts that
// share the accelerometer register layout.
var knownWhoAmI = map[byte]string{
	0x68: "MPU6050",
	0x70: "MPU6500",
	0x71: "MPU9250",
	0x73: "MPU9255",
	0x98: "MPU6050 clone",
}

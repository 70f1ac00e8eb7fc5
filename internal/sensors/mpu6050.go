// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/posture_sense/internal/imu"
)

// ErrNotInitialized is returned by ReadRaw before Init has succeeded.
var ErrNotInitialized = errors.New("mpu6050: device not initialized")

// MPU6050 reads the accelerometer of an MPU-6050 class IMU over I²C.
type MPU6050 struct {
	dev         *i2c.Dev
	name        string
	model       string
	initialized bool
}

// NewMPU6050 wraps an already opened I²C bus. Init must be called before
// reading samples.
func NewMPU6050(bus i2c.Bus, addr uint16) *MPU6050 {
	return &MPU6050{
		dev:  &i2c.Dev{Bus: bus, Addr: addr},
		name: fmt.Sprintf("mpu6050@0x%02X", addr),
	}
}

// OpenMPU6050 initializes the periph host, opens the named I²C bus ("" picks
// the first available) and initializes the sensor at addr. The returned
// closer releases the bus.
func OpenMPU6050(busName string, addr uint16) (*MPU6050, io.Closer, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("mpu6050: periph host init: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, nil, fmt.Errorf("mpu6050: open I2C bus %q: %w", busName, err)
	}

	dev := NewMPU6050(bus, addr)
	if err := dev.Init(); err != nil {
		bus.Close()
		return nil, nil, err
	}
	return dev, bus, nil
}

// Init probes WHO_AM_I, wakes the device from sleep and selects the ±2g
// accelerometer range that imu.AccelSensitivity2G assumes.
func (m *MPU6050) Init() error {
	m.initialized = false

	id := make([]byte, 1)
	if err := m.dev.Tx([]byte{regWhoAmI}, id); err != nil {
		return fmt.Errorf("%s: read WHO_AM_I: %w", m.name, err)
	}
	model, ok := knownWhoAmI[id[0]]
	if !ok {
		return fmt.Errorf("%s: unexpected WHO_AM_I 0x%02X", m.name, id[0])
	}

	if _, err := m.dev.Write([]byte{regPwrMgmt1, 0x00}); err != nil {
		return fmt.Errorf("%s: wake (PWR_MGMT_1): %w", m.name, err)
	}
	if _, err := m.dev.Write([]byte{regAccelConfig, 0x00}); err != nil {
		return fmt.Errorf("%s: set accel range ±2g: %w", m.name, err)
	}

	m.model = model
	m.initialized = true
	return nil
}

// Model returns the part name detected by Init.
func (m *MPU6050) Model() string {
	return m.model
}

// String implements fmt.Stringer.
func (m *MPU6050) String() string {
	return m.name
}

// ReadRaw performs one burst read of the three accelerometer axes.
func (m *MPU6050) ReadRaw() (imu.RawSample, error) {
	if !m.initialized {
		return imu.RawSample{}, ErrNotInitialized
	}

	buf := make([]byte, accelBurstLen)
	if err := m.dev.Tx([]byte{regAccelXOutH}, buf); err != nil {
		return imu.RawSample{}, fmt.Errorf("%s: read accel: %w", m.name, err)
	}

	return imu.RawSample{
		Source: m.name,
		Ax:     int16(binary.BigEndian.Uint16(buf[0:2])),
		Ay:     int16(binary.BigEndian.Uint16(buf[2:4])),
		Az:     int16(binary.BigEndian.Uint16(buf[4:6])),
	}, nil
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package actuator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func TestAlertPatternTiming(t *testing.T) {
	assert.Equal(t, 1350*time.Millisecond, AlertPattern.Period())

	tests := []struct {
		at   time.Duration
		want gpio.Level
	}{
		{0, gpio.High},
		{199 * time.Millisecond, gpio.High},
		{200 * time.Millisecond, gpio.Low},
		{349 * time.Millisecond, gpio.Low},
		{350 * time.Millisecond, gpio.High},
		{550 * time.Millisecond, gpio.Low},
		{1349 * time.Millisecond, gpio.Low},
		{1350 * time.Millisecond, gpio.High},
		{-time.Millisecond, gpio.Low},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AlertPattern.LevelAt(tt.at), "at %v", tt.at)
	}
	assert.Equal(t, gpio.Low, Pattern{}.LevelAt(time.Second))
}

func TestVibratorStartStop(t *testing.T) {
	pin := &gpiotest.Pin{N: "GPIO17", Num: 17}
	pattern := Pattern{{gpio.High, time.Hour}, {gpio.Low, time.Hour}}
	v := NewVibrator(pin, pattern, zap.NewNop())

	assert.False(t, v.Active())
	v.Set(true)
	v.Set(true)
	assert.True(t, v.Active())
	assert.Eventually(t, func() bool { return pin.Read() == gpio.High }, time.Second, time.Millisecond)

	start := time.Now()
	v.Set(false)
	assert.Less(t, time.Since(start), time.Second, "stop must not wait for the segment to end")
	assert.False(t, v.Active())
	assert.Equal(t, gpio.Low, pin.Read())

	v.Stop()
	assert.Equal(t, gpio.Low, pin.Read())
}

func TestVibratorCyclesPattern(t *testing.T) {
	pin := &gpiotest.Pin{N: "GPIO17", Num: 17}
	v := NewVibrator(pin, Pattern{{gpio.High, 5 * time.Millisecond}, {gpio.Low, 5 * time.Millisecond}}, zap.NewNop())
	defer v.Stop()

	v.Start()
	assert.Eventually(t, func() bool { return pin.Read() == gpio.High }, time.Second, time.Millisecond)
	assert.Eventually(t, func() bool { return pin.Read() == gpio.Low }, time.Second, time.Millisecond)
	assert.Eventually(t, func() bool { return pin.Read() == gpio.High }, time.Second, time.Millisecond)
}

func TestNewVibratorDefaultsPattern(t *testing.T) {
	v := NewVibrator(&gpiotest.Pin{N: "P"}, nil, zap.NewNop())
	assert.Equal(t, AlertPattern, v.pattern)
}

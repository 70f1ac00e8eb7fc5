// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package actuator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAlertGate(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	g := NewAlertGate(3 * time.Second)

	assert.False(t, g.Update(true, t0))
	assert.False(t, g.Update(true, t0.Add(2*time.Second)))
	assert.False(t, g.Update(true, t0.Add(3*time.Second)), "exactly the delay is not yet longer than it")
	assert.True(t, g.Update(true, t0.Add(3*time.Second+time.Millisecond)))
	assert.True(t, g.Alerting())
	assert.Equal(t, 4*time.Second, g.BadFor(t0.Add(4*time.Second)))

	assert.False(t, g.Update(false, t0.Add(4*time.Second)), "good posture clears immediately")
	assert.Zero(t, g.BadFor(t0.Add(5*time.Second)))

	// the timer restarts after a good sample
	assert.False(t, g.Update(true, t0.Add(5*time.Second)))
	assert.False(t, g.Update(true, t0.Add(7*time.Second)))
	assert.True(t, g.Update(true, t0.Add(9*time.Second)))
}

func TestAlertGateZeroDelay(t *testing.T) {
	t0 := time.Now()
	g := NewAlertGate(-time.Second)

	assert.Zero(t, g.Delay)
	assert.False(t, g.Update(true, t0))
	assert.True(t, g.Update(true, t0.Add(time.Nanosecond)))
}

func TestAlertGateReset(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	g := NewAlertGate(3 * time.Second)

	assert.False(t, g.Update(true, t0))
	g.Reset()
	assert.Zero(t, g.BadFor(t0.Add(10*time.Second)))
	assert.False(t, g.Update(true, t0.Add(10*time.Second)), "the streak starts over after a reset")
	assert.True(t, g.Update(true, t0.Add(14*time.Second)))

	g.Reset()
	assert.False(t, g.Alerting())
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/posture_sense/internal/orientation"
	"github.com/relabs-tech/posture_sense/internal/posture"
)

func TestTiltBar(t *testing.T) {
	assert.Equal(t, "[....................]", TiltBar(0))
	assert.Equal(t, "[##########..........]", TiltBar(25))
	assert.Equal(t, "[####################]", TiltBar(80))
}

func TestFormatStatusLine(t *testing.T) {
	line := FormatStatusLine(posture.Status{AngleX: 10, AngleY: 30, MaxAngle: 35, Threshold: 30, IsBadPosture: true})

	assert.Equal(t, "X=  10.0 Y=  30.0 | TILT= 35.0/30.0 | BAD=YES [##############......] SCORE= 75", line)
}

type countingSource struct {
	n   int
	max int
}

func (c *countingSource) ReadAngles() (orientation.Angles, error) {
	c.n++
	if c.n > c.max {
		return orientation.Angles{}, errors.New("sensor gone")
	}
	return orientation.Angles{X: 0, Y: float64(c.n)}, nil
}

func TestRunConsoleStopsOnSensorError(t *testing.T) {
	var out bytes.Buffer
	err := runConsole(context.Background(), &out, &countingSource{max: 3}, posture.NewEvaluator(25), time.Millisecond)

	assert.EqualError(t, err, "sensor gone")
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[2], "Y=   3.0")
}

func TestRunMockConsoleStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	var out bytes.Buffer

	require.NoError(t, RunMockConsole(ctx, &out, 25, time.Millisecond))
	assert.Contains(t, out.String(), "TILT=")
}

func TestRunConsoleRejectsNonPositiveInterval(t *testing.T) {
	for _, interval := range []time.Duration{0, -time.Second} {
		err := RunMockConsole(context.Background(), io.Discard, 25, interval)
		assert.ErrorIs(t, err, ErrInvalidInterval)
	}
}

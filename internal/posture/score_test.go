// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package posture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name      string
		maxAngle  float64
		threshold float64
		bad       bool
		want      float64
	}{
		{"good posture", 45, 30, false, 100},
		{"at threshold", 30, 30, true, 100},
		{"halfway", 40, 30, true, 50},
		{"at ceiling", 50, 30, true, 0},
		{"clamped above ceiling", 200, 30, true, 0},
		{"quarter", 35, 30, true, 75},
		{"threshold above ceiling", 70, 60, true, 100},
		{"threshold at ceiling", 55, 50, true, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Score(tt.maxAngle, tt.threshold, tt.bad), 1e-9)
		})
	}
}

func TestScoreMonotonicAndBounded(t *testing.T) {
	for _, threshold := range []float64{0.5, 10, 25, 30, 40, 49.9, 50, 75} {
		prev := 100.0
		for maxAngle := 0.0; maxAngle <= 400; maxAngle += 0.25 {
			bad := maxAngle > threshold
			s := Score(maxAngle, threshold, bad)

			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 100.0)
			if maxAngle > threshold {
				assert.LessOrEqual(t, s, prev, "threshold=%v maxAngle=%v", threshold, maxAngle)
			} else {
				assert.Equal(t, 100.0, s)
			}
			prev = s
		}
	}
}

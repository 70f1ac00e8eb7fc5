// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package posture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThresholdForAge(t *testing.T) {
	tests := []struct {
		age  int
		want float64
	}{
		{0, 25}, {10, 25}, {12, 25},
		{13, 28}, {17, 28},
		{18, 30}, {25, 30}, {40, 30},
		{41, 35}, {60, 35},
		{61, 40}, {70, 40}, {120, 40},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ThresholdForAge(tt.age), "age %d", tt.age)
	}
}

func TestThresholdForAgeMonotonic(t *testing.T) {
	prev := ThresholdForAge(-1)
	for age := 0; age <= 130; age++ {
		cur := ThresholdForAge(age)
		assert.GreaterOrEqual(t, cur, prev, "age %d", age)
		assert.Greater(t, cur, 0.0)
		prev = cur
	}
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
	"time"
)

type mockSource struct {
	start time.Time
	now   func() time.Time
}

// NewMockSource creates a mock angle source that sways slowly around an
// upright posture and periodically slouches forward past typical thresholds.
func NewMockSource() Source {
	return &mockSource{start: time.Now(), now: time.Now}
}

func (m *mockSource) ReadAngles() (Angles, error) {
	elapsed := m.now().Sub(m.start).Seconds()

	return Angles{
		X: 12 * math.Sin(elapsed*0.5),
		Y: 22 + 18*math.Sin(elapsed*0.1),
	}, nil
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package actuator

import "time"

// DefaultAlertDelay is how long bad posture must persist before alerting.
const DefaultAlertDelay = 3 * time.Second

// AlertGate debounces the bad-posture flag. It raises an alert only once bad
// posture has been continuously reported for longer than Delay, and drops it
// as soon as posture is good again.
type AlertGate struct {
	Delay time.Duration

	bad      bool
	badSince time.Time
	alerting bool
}

// NewAlertGate returns a gate with the given delay. A negative delay is
// treated as zero.
func NewAlertGate(delay time.Duration) *AlertGate {
	if delay < 0 {
		delay = 0
	}
	return &AlertGate{Delay: delay}
}

// Update feeds one observation and returns whether the alert is active.
func (g *AlertGate) Update(bad bool, now time.Time) bool {
	if !bad {
		g.bad = false
		g.alerting = false
		return false
	}
	if !g.bad {
		g.bad = true
		g.badSince = now
	}
	if now.Sub(g.badSince) > g.Delay {
		g.alerting = true
	}
	return g.alerting
}

// Reset forgets any bad-posture streak and drops the alert.
func (g *AlertGate) Reset() {
	g.bad = false
	g.badSince = time.Time{}
	g.alerting = false
}

// Alerting reports the last result of Update.
func (g *AlertGate) Alerting() bool { return g.alerting }

// BadFor returns how long bad posture has been continuously observed.
func (g *AlertGate) BadFor(now time.Time) time.Duration {
	if !g.bad {
		return 0
	}
	return now.Sub(g.badSince)
}

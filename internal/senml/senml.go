// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package senml builds SenML (RFC 8428) packs for posture telemetry.
package senml

import (
	"time"

	"github.com/relabs-tech/posture_sense/internal/posture"
)

// Version is written in the bver field of every pack.
const Version = 1

// Units used by posture records.
const (
	UnitDegrees = "deg"
	UnitPercent = "%"
	UnitBool    = "bool"
)

// Entry is one measurement of a pack.
type Entry struct {
	Name  string  `json:"n"`
	Unit  string  `json:"u,omitempty"`
	Value float64 `json:"v"`
}

// Pack is one SenML pack: a base name and time plus its entries.
type Pack struct {
	BaseName    string  `json:"bn"`
	BaseTime    int64   `json:"bt"`
	BaseVersion int     `json:"bver"`
	Entries     []Entry `json:"e"`
}

// Document is the array sent on the wire.
type Document []Pack

// NewPosturePack describes one posture status taken at t.
func NewPosturePack(deviceID string, t time.Time, s posture.Status, score float64) Pack {
	bad := 0.0
	if s.IsBadPosture {
		bad = 1
	}
	return Pack{
		BaseName:    deviceID,
		BaseTime:    t.Unix(),
		BaseVersion: Version,
		Entries: []Entry{
			{Name: "posture/tilt", Unit: UnitDegrees, Value: s.MaxAngle},
			{Name: "posture/x", Unit: UnitDegrees, Value: s.AngleX},
			{Name: "posture/y", Unit: UnitDegrees, Value: s.AngleY},
			{Name: "posture/bad_posture", Unit: UnitBool, Value: bad},
			{Name: "posture/threshold", Unit: UnitDegrees, Value: s.Threshold},
			{Name: "posture/score", Unit: UnitPercent, Value: score},
		},
	}
}

// Lookup returns the value of the named entry.
func (p Pack) Lookup(name string) (float64, bool) {
	for _, e := range p.Entries {
		if e.Name == name {
			return e.Value, true
		}
	}
	return 0, false
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package senml

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/posture_sense/internal/posture"
)

func TestNewPosturePack(t *testing.T) {
	at := time.Unix(1767268800, 500)
	s := posture.Status{AngleX: 10, AngleY: 30, MaxAngle: 35, Threshold: 30, IsBadPosture: true}

	p := NewPosturePack("esp32-posture-001", at, s, 75)

	assert.Equal(t, "esp32-posture-001", p.BaseName)
	assert.Equal(t, int64(1767268800), p.BaseTime)
	assert.Equal(t, 1, p.BaseVersion)
	names := make([]string, 0, len(p.Entries))
	for _, e := range p.Entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{
		"posture/tilt", "posture/x", "posture/y",
		"posture/bad_posture", "posture/threshold", "posture/score",
	}, names)

	v, ok := p.Lookup("posture/bad_posture")
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)
	v, _ = p.Lookup("posture/score")
	assert.Equal(t, 75.0, v)
	_, ok = p.Lookup("posture/yaw")
	assert.False(t, ok)
}

func TestDocumentJSON(t *testing.T) {
	p := NewPosturePack("dev", time.Unix(100, 0), posture.Status{Threshold: 30}, 100)

	b, err := json.Marshal(Document{p})
	require.NoError(t, err)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	require.Len(t, raw, 1)
	assert.Equal(t, "dev", raw[0]["bn"])
	assert.Equal(t, 100.0, raw[0]["bt"])
	assert.Equal(t, 1.0, raw[0]["bver"])

	entries := raw[0]["e"].([]any)
	require.Len(t, entries, 6)
	bad := entries[3].(map[string]any)
	assert.Equal(t, "posture/bad_posture", bad["n"])
	assert.Equal(t, "bool", bad["u"])
	assert.Equal(t, 0.0, bad["v"], "zero values are still written")
}

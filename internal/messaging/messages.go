// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package messaging

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/relabs-tech/posture_sense/internal/posture"
)

// Default topics.
const (
	DefaultTopicStatus  = "posture/status"
	DefaultTopicCommand = "posture/command"
)

// StatusMessage is published on the status topic every cycle.
type StatusMessage struct {
	DeviceID     string    `json:"device_id"`
	Time         time.Time `json:"time"`
	AngleX       float64   `json:"angle_x"`
	AngleY       float64   `json:"angle_y"`
	MaxAngle     float64   `json:"max_angle"`
	Threshold    float64   `json:"threshold"`
	IsBadPosture bool      `json:"bad_posture"`
	Score        float64   `json:"score"`
	Calibrated   bool      `json:"calibrated"`
}

// NewStatusMessage builds the message for one evaluation.
func NewStatusMessage(deviceID string, t time.Time, s posture.Status, calibrated bool) StatusMessage {
	return StatusMessage{
		DeviceID:     deviceID,
		Time:         t.UTC(),
		AngleX:       s.AngleX,
		AngleY:       s.AngleY,
		MaxAngle:     s.MaxAngle,
		Threshold:    s.Threshold,
		IsBadPosture: s.IsBadPosture,
		Score:        s.Score(),
		Calibrated:   calibrated,
	}
}

// Status returns the posture status carried by m.
func (m StatusMessage) Status() posture.Status {
	return posture.Status{
		AngleX:       m.AngleX,
		AngleY:       m.AngleY,
		MaxAngle:     m.MaxAngle,
		Threshold:    m.Threshold,
		IsBadPosture: m.IsBadPosture,
	}
}

// Command actions.
const (
	ActionCalibrate = "calibrate"
)

// ErrUnknownCommand is returned for actions the device does not implement.
var ErrUnknownCommand = errors.New("unknown command")

// Command is received on the command topic.
type Command struct {
	Action string `json:"action"`
}

// ParseCommand decodes and checks a command payload.
func ParseCommand(payload []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return Command{}, fmt.Errorf("decode command: %w", err)
	}
	if err := cmd.Validate(); err != nil {
		return Command{}, err
	}
	return cmd, nil
}

// Validate rejects actions the device does not implement.
func (c Command) Validate() error {
	switch c.Action {
	case ActionCalibrate:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, c.Action)
	}
}

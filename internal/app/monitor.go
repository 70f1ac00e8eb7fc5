// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/relabs-tech/posture_sense/internal/actuator"
	"github.com/relabs-tech/posture_sense/internal/calibration"
	"github.com/relabs-tech/posture_sense/internal/messaging"
	"github.com/relabs-tech/posture_sense/internal/orientation"
	"github.com/relabs-tech/posture_sense/internal/posture"
	"github.com/relabs-tech/posture_sense/internal/senml"
)

// Backend fetches device settings and accepts telemetry.
type Backend interface {
	FetchSettings(ctx context.Context, deviceID string) (posture.Settings, error)
	SendTelemetry(ctx context.Context, pack senml.Pack) error
}

// Publisher sends MQTT messages.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
	IsConnected() bool
}

// Alerter drives the haptic motor.
type Alerter interface {
	Set(on bool)
}

// StatusDisplay shows the current status on a local screen.
type StatusDisplay interface {
	ShowStatus(s posture.Status, calibrated bool) error
	ShowCalibrating(done, total int) error
}

// MonitorOptions holds the monitor settings taken from the configuration.
type MonitorOptions struct {
	DeviceID           string
	DefaultAge         int
	PollInterval       time.Duration
	CalibrateOnStart   bool
	Calibration        calibration.Options
	AlertDelay         time.Duration
	TelemetryInterval  time.Duration
	ConfigPollInterval time.Duration
	DisplayInterval    time.Duration
	TopicStatus        string
}

// MonitorDeps are the monitor collaborators. Only Sensor is required.
type MonitorDeps struct {
	Sensor    orientation.Source
	Store     calibration.Store
	Backend   Backend
	Publisher Publisher
	Alerter   Alerter
	Display   StatusDisplay
	// Now defaults to time.Now.
	Now func() time.Time
}

// Monitor owns the evaluator and runs the poll loop. All state is touched
// from the goroutine calling Setup, Tick, Calibrate and Run only.
type Monitor struct {
	opts MonitorOptions
	deps MonitorDeps
	log  *zap.Logger

	eval *posture.Evaluator
	gate *actuator.AlertGate

	last     posture.Status
	haveLast bool

	lastTelemetry  time.Time
	lastConfigPoll time.Time
	lastDisplay    time.Time

	// OnStatus, if set, receives every published status message.
	OnStatus func(messaging.StatusMessage)
}

// NewMonitor returns a monitor with an evaluator at opts.DefaultAge. Age 0 is
// a valid profile age; callers start from config.Default for the usual 25.
func NewMonitor(opts MonitorOptions, deps MonitorDeps, log *zap.Logger) *Monitor {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 50 * time.Millisecond
	}
	if opts.TopicStatus == "" {
		opts.TopicStatus = messaging.DefaultTopicStatus
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Monitor{
		opts: opts,
		deps: deps,
		log:  log,
		eval: posture.NewEvaluator(opts.DefaultAge),
		gate: actuator.NewAlertGate(opts.AlertDelay),
	}
}

// Evaluator exposes the evaluator for inspection.
func (m *Monitor) Evaluator() *posture.Evaluator { return m.eval }

// Last returns the most recent status, if any cycle has succeeded.
func (m *Monitor) Last() (posture.Status, bool) { return m.last, m.haveLast }

// Setup restores stored offsets, applies remote settings and, if configured,
// calibrates. Every step fails open: the device runs with whatever it has.
func (m *Monitor) Setup(ctx context.Context) {
	m.restoreOffsets(ctx)

	m.lastConfigPoll = m.deps.Now()
	m.pullSettings(ctx)

	if m.opts.CalibrateOnStart {
		if err := m.Calibrate(ctx); err != nil {
			m.log.Error("startup calibration failed, keeping previous offsets", zap.Error(err))
		}
	}

	m.log.Info("monitor ready",
		zap.String("device_id", m.opts.DeviceID),
		zap.Int("age", m.eval.Age()),
		zap.Float64("threshold_deg", m.eval.Threshold()),
		zap.Stringer("threshold_mode", m.eval.ThresholdMode()),
		zap.Bool("calibrated", m.eval.Calibrated()),
	)
}

func (m *Monitor) restoreOffsets(ctx context.Context) {
	if m.deps.Store == nil {
		return
	}
	o, err := m.deps.Store.Load(ctx)
	switch {
	case errors.Is(err, calibration.ErrNoRecord):
		m.log.Info("no stored calibration, using zero offsets")
	case err != nil:
		m.log.Warn("stored calibration unusable, using zero offsets", zap.Error(err))
	default:
		m.applyOffsets(o)
		m.log.Info("restored calibration",
			zap.Float64("offset_x", o.X),
			zap.Float64("offset_y", o.Y),
		)
	}
}

func (m *Monitor) pullSettings(ctx context.Context) {
	if m.deps.Backend == nil {
		return
	}
	s, err := m.deps.Backend.FetchSettings(ctx, m.opts.DeviceID)
	if err != nil {
		m.log.Warn("settings fetch failed, keeping current configuration", zap.Error(err))
		return
	}
	before := m.eval.Offsets()
	if err := s.ApplyTo(m.eval); err != nil {
		m.log.Warn("ignored invalid remote settings", zap.Error(err))
	}
	if m.eval.Offsets() != before {
		m.gate.Reset()
	}
	m.log.Debug("applied remote settings",
		zap.Int("age", m.eval.Age()),
		zap.Float64("threshold_deg", m.eval.Threshold()),
	)
}

// Calibrate runs a calibration session against the sensor. On success the
// offsets replace the current ones and are persisted; on failure nothing
// changes.
func (m *Monitor) Calibrate(ctx context.Context) error {
	opts := m.opts.Calibration
	next := opts.OnProgress
	opts.OnProgress = func(done, total int) {
		if m.deps.Display != nil {
			if err := m.deps.Display.ShowCalibrating(done, total); err != nil {
				m.log.Debug("display update failed", zap.Error(err))
			}
		}
		if next != nil {
			next(done, total)
		}
	}

	if m.deps.Alerter != nil {
		m.deps.Alerter.Set(false)
	}
	m.log.Info("calibration started, hold the reference posture",
		zap.Int("samples", opts.SampleCount),
		zap.Duration("settle", opts.Settle),
	)

	c := calibration.New(m.deps.Sensor, opts)
	o, err := c.Run(ctx)
	ok, failed := c.Counts()
	if err != nil {
		m.log.Warn("calibration failed",
			zap.Int("succeeded", ok),
			zap.Int("failed", failed),
			zap.Int("remaining", c.Remaining()),
			zap.Error(err),
		)
		return err
	}

	m.applyOffsets(o)
	m.log.Info("calibration complete",
		zap.Float64("offset_x", o.X),
		zap.Float64("offset_y", o.Y),
		zap.Int("succeeded", ok),
		zap.Int("failed", failed),
	)

	if m.deps.Store != nil {
		if err := m.deps.Store.Save(ctx, o); err != nil {
			m.log.Warn("failed to persist calibration", zap.Error(err))
		}
	}
	return nil
}

// applyOffsets replaces the offsets and restarts the bad-posture streak, which
// was measured against the old reference.
func (m *Monitor) applyOffsets(o posture.Offsets) {
	m.eval.SetOffsets(o)
	m.gate.Reset()
}

// Tick runs one poll cycle. It reports false when the sensor read failed, in
// which case nothing else happened.
func (m *Monitor) Tick(ctx context.Context) (posture.Status, bool) {
	a, err := m.deps.Sensor.ReadAngles()
	if err != nil {
		m.log.Warn("sensor read failed, skipping cycle", zap.Error(err))
		return posture.Status{}, false
	}
	now := m.deps.Now()

	s := m.eval.Evaluate(a.X, a.Y)
	m.last, m.haveLast = s, true

	wasAlerting := m.gate.Alerting()
	alert := m.gate.Update(s.IsBadPosture, now)
	if alert && !wasAlerting {
		m.log.Info("bad posture alert", zap.Duration("bad_for", m.gate.BadFor(now)))
	}
	if m.deps.Alerter != nil {
		m.deps.Alerter.Set(alert)
	}

	m.log.Debug("posture",
		zap.Float64("raw_x", a.X),
		zap.Float64("raw_y", a.Y),
		zap.Float64("angle_x", s.AngleX),
		zap.Float64("angle_y", s.AngleY),
		zap.Float64("tilt", s.MaxAngle),
		zap.Float64("threshold", s.Threshold),
		zap.Bool("bad_posture", s.IsBadPosture),
		zap.Bool("alert", alert),
	)

	m.publish(now, s)

	if m.deps.Display != nil && due(m.lastDisplay, now, m.opts.DisplayInterval) {
		m.lastDisplay = now
		if err := m.deps.Display.ShowStatus(s, m.eval.Calibrated()); err != nil {
			m.log.Debug("display update failed", zap.Error(err))
		}
	}

	if m.deps.Backend != nil && due(m.lastTelemetry, now, m.opts.TelemetryInterval) {
		m.lastTelemetry = now
		pack := senml.NewPosturePack(m.opts.DeviceID, now, s, s.Score())
		if err := m.deps.Backend.SendTelemetry(ctx, pack); err != nil {
			m.log.Warn("telemetry not delivered", zap.Error(err))
		}
	}

	if m.deps.Backend != nil && due(m.lastConfigPoll, now, m.opts.ConfigPollInterval) {
		m.lastConfigPoll = now
		m.pullSettings(ctx)
	}

	return s, true
}

func (m *Monitor) publish(now time.Time, s posture.Status) {
	if m.deps.Publisher == nil && m.OnStatus == nil {
		return
	}
	msg := messaging.NewStatusMessage(m.opts.DeviceID, now, s, m.eval.Calibrated())
	if m.OnStatus != nil {
		m.OnStatus(msg)
	}
	if m.deps.Publisher == nil {
		return
	}
	if !m.deps.Publisher.IsConnected() {
		m.log.Debug("broker unreachable, status not published")
		return
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		m.log.Error("status marshal failed", zap.Error(err))
		return
	}
	if err := m.deps.Publisher.Publish(m.opts.TopicStatus, 0, true, payload); err != nil {
		m.log.Warn("status publish failed", zap.Error(err))
	}
}

// due reports whether interval has elapsed since last. A zero interval means
// every cycle.
func due(last, now time.Time, interval time.Duration) bool {
	return last.IsZero() || now.Sub(last) >= interval
}

// Run sets the monitor up and polls until ctx is done. Commands are handled
// between cycles.
func (m *Monitor) Run(ctx context.Context, commands <-chan messaging.Command) error {
	m.Setup(ctx)

	ticker := time.NewTicker(m.opts.PollInterval)
	defer ticker.Stop()
	defer func() {
		if m.deps.Alerter != nil {
			m.deps.Alerter.Set(false)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			m.log.Info("monitor stopping")
			return nil
		case cmd := <-commands:
			m.handle(ctx, cmd)
		case <-ticker.C:
			m.Tick(ctx)
		}
	}
}

func (m *Monitor) handle(ctx context.Context, cmd messaging.Command) {
	switch cmd.Action {
	case messaging.ActionCalibrate:
		if err := m.Calibrate(ctx); err != nil {
			m.log.Error("requested calibration failed, keeping previous offsets", zap.Error(err))
		}
	default:
		m.log.Warn("ignoring unknown command", zap.String("action", cmd.Action))
	}
}

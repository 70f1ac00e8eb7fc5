// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calibration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/relabs-tech/posture_sense/internal/orientation"
	"github.com/relabs-tech/posture_sense/internal/posture"
)

// Defaults for a session while the wearer holds the reference posture.
const (
	DefaultSampleCount = 100
	DefaultSampleDelay = 50 * time.Millisecond
	DefaultSettle      = 5 * time.Second
)

var (
	// ErrTooFewSamples is returned when not enough reads succeeded to trust
	// the mean.
	ErrTooFewSamples = errors.New("calibration: too few successful samples")
	// ErrNotSampling is returned by Step outside the sampling phase.
	ErrNotSampling = errors.New("calibration: session is not sampling")
)

// Phase is the calibrator state.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseSampling
	PhaseComplete
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not_started"
	case PhaseSampling:
		return "sampling"
	case PhaseComplete:
		return "complete"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Sleeper waits between samples. Tests inject one that does not touch the
// wall clock.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to Sleeper.
type SleeperFunc func(ctx context.Context, d time.Duration) error

func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error { return f(ctx, d) }

// RealSleeper waits on a timer or until ctx is done.
var RealSleeper Sleeper = SleeperFunc(func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
})

// Options configures a calibration session.
type Options struct {
	SampleCount int
	SampleDelay time.Duration
	// Settle is waited once before the first sample.
	Settle time.Duration
	// MinSuccessful is the minimum number of good reads; zero means half of
	// SampleCount (at least one).
	MinSuccessful int
	Sleeper       Sleeper
	// OnProgress, if set, is called after every attempted sample.
	OnProgress func(done, total int)
}

func (o Options) withDefaults() Options {
	if o.SampleCount <= 0 {
		o.SampleCount = DefaultSampleCount
	}
	if o.SampleDelay < 0 {
		o.SampleDelay = 0
	}
	if o.MinSuccessful <= 0 {
		o.MinSuccessful = (o.SampleCount + 1) / 2
	}
	if o.MinSuccessful > o.SampleCount {
		o.MinSuccessful = o.SampleCount
	}
	if o.Sleeper == nil {
		o.Sleeper = RealSleeper
	}
	return o
}

// Calibrator derives rest-position offsets by averaging angle samples.
//
// The session is a state machine: NotStarted -> Sampling(remaining) ->
// Complete or Failed. Start begins a session, each Step takes one sample,
// and Run drives a whole session with the configured delays.
type Calibrator struct {
	src  orientation.Source
	opts Options

	phase     Phase
	remaining int
	// Samples are summed as deltas from the first good read so readings
	// straddling +-180 average across the seam.
	ref       orientation.Angles
	sumX      float64
	sumY      float64
	succeeded int
	failed    int
	lastErr   error

	result posture.Offsets
	err    error
}

// New returns a calibrator reading from src.
func New(src orientation.Source, opts Options) *Calibrator {
	return &Calibrator{src: src, opts: opts.withDefaults()}
}

// Start resets accumulators and enters the sampling phase. Calling Start on
// a finished session begins a new one.
func (c *Calibrator) Start() error {
	if c.phase == PhaseSampling {
		return errors.New("calibration: session already sampling")
	}
	c.phase = PhaseSampling
	c.remaining = c.opts.SampleCount
	c.ref = orientation.Angles{}
	c.sumX, c.sumY = 0, 0
	c.succeeded, c.failed = 0, 0
	c.lastErr = nil
	c.result = posture.Offsets{}
	c.err = nil
	return nil
}

// Step takes one sample. It returns true once the session has finished,
// after which Result reports the outcome. Failed reads are skipped.
func (c *Calibrator) Step() (bool, error) {
	if c.phase != PhaseSampling {
		return c.finished(), ErrNotSampling
	}

	a, err := c.src.ReadAngles()
	if err != nil {
		c.failed++
		c.lastErr = err
	} else {
		if c.succeeded == 0 {
			c.ref = a
		}
		c.sumX += posture.NormalizeAngle(a.X - c.ref.X)
		c.sumY += posture.NormalizeAngle(a.Y - c.ref.Y)
		c.succeeded++
	}
	c.remaining--

	if c.opts.OnProgress != nil {
		c.opts.OnProgress(c.opts.SampleCount-c.remaining, c.opts.SampleCount)
	}

	if c.remaining > 0 {
		return false, nil
	}
	c.finish()
	return true, nil
}

func (c *Calibrator) finish() {
	if c.succeeded < c.opts.MinSuccessful {
		c.phase = PhaseFailed
		c.err = fmt.Errorf("%w: %d of %d reads succeeded, need %d (last error: %v)",
			ErrTooFewSamples, c.succeeded, c.opts.SampleCount, c.opts.MinSuccessful, c.lastErr)
		return
	}
	c.phase = PhaseComplete
	c.result = posture.Offsets{
		X: posture.NormalizeAngle(c.ref.X + c.sumX/float64(c.succeeded)),
		Y: posture.NormalizeAngle(c.ref.Y + c.sumY/float64(c.succeeded)),
	}
}

func (c *Calibrator) finished() bool {
	return c.phase == PhaseComplete || c.phase == PhaseFailed
}

// Run performs a full blocking session: settle, then SampleCount samples
// spaced by SampleDelay. It returns the averaged offsets.
func (c *Calibrator) Run(ctx context.Context) (posture.Offsets, error) {
	if err := c.Start(); err != nil {
		return posture.Offsets{}, err
	}

	if err := c.opts.Sleeper.Sleep(ctx, c.opts.Settle); err != nil {
		c.abort(err)
		return posture.Offsets{}, c.err
	}

	for {
		done, err := c.Step()
		if err != nil {
			return posture.Offsets{}, err
		}
		if done {
			return c.Result()
		}
		if err := c.opts.Sleeper.Sleep(ctx, c.opts.SampleDelay); err != nil {
			c.abort(err)
			return posture.Offsets{}, c.err
		}
	}
}

func (c *Calibrator) abort(err error) {
	c.phase = PhaseFailed
	c.err = fmt.Errorf("calibration: interrupted: %w", err)
}

// Result returns the offsets of a completed session, or the failure.
func (c *Calibrator) Result() (posture.Offsets, error) {
	switch c.phase {
	case PhaseComplete:
		return c.result, nil
	case PhaseFailed:
		return posture.Offsets{}, c.err
	default:
		return posture.Offsets{}, fmt.Errorf("calibration: no result in phase %s", c.phase)
	}
}

func (c *Calibrator) Phase() Phase   { return c.phase }
func (c *Calibrator) Remaining() int { return c.remaining }

// Counts returns the number of successful and failed reads so far.
func (c *Calibrator) Counts() (succeeded, failed int) {
	return c.succeeded, c.failed
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package actuator

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Segment is one step of a vibration pattern.
type Segment struct {
	Level    gpio.Level
	Duration time.Duration
}

// Pattern repeats until the vibrator is stopped.
type Pattern []Segment

// AlertPattern is a double pulse followed by a pause.
var AlertPattern = Pattern{
	{gpio.High, 200 * time.Millisecond},
	{gpio.Low, 150 * time.Millisecond},
	{gpio.High, 200 * time.Millisecond},
	{gpio.Low, 800 * time.Millisecond},
}

// Period is the length of one repetition.
func (p Pattern) Period() time.Duration {
	var d time.Duration
	for _, s := range p {
		d += s.Duration
	}
	return d
}

// LevelAt returns the pin level elapsed after the pattern started.
func (p Pattern) LevelAt(elapsed time.Duration) gpio.Level {
	period := p.Period()
	if period <= 0 || elapsed < 0 {
		return gpio.Low
	}
	elapsed %= period
	for _, s := range p {
		if elapsed < s.Duration {
			return s.Level
		}
		elapsed -= s.Duration
	}
	return gpio.Low
}

// OpenPin initializes the host drivers and returns the named GPIO pin
// ("GPIO17", "17", ...).
func OpenPin(name string) (gpio.PinOut, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("vibrator: host init: %w", err)
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("vibrator: no gpio pin %q", name)
	}
	return p, nil
}

// Vibrator plays a pattern on a motor pin in the background.
type Vibrator struct {
	pin     gpio.PinOut
	pattern Pattern
	log     *zap.Logger

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewVibrator returns a stopped vibrator driving pin.
func NewVibrator(pin gpio.PinOut, pattern Pattern, log *zap.Logger) *Vibrator {
	if len(pattern) == 0 {
		pattern = AlertPattern
	}
	return &Vibrator{pin: pin, pattern: pattern, log: log}
}

// Set starts or stops the pattern. It never blocks on the pattern itself.
func (v *Vibrator) Set(on bool) {
	if on {
		v.Start()
	} else {
		v.Stop()
	}
}

// Start begins playing the pattern. Starting a running vibrator is a no-op.
func (v *Vibrator) Start() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.stop != nil {
		return
	}
	v.stop = make(chan struct{})
	v.done = make(chan struct{})
	go v.play(v.stop, v.done)
}

// Stop ends the pattern and drives the pin low.
func (v *Vibrator) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.stop == nil {
		return
	}
	close(v.stop)
	<-v.done
	v.stop, v.done = nil, nil
	v.out(gpio.Low)
}

// Active reports whether the pattern is playing.
func (v *Vibrator) Active() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stop != nil
}

func (v *Vibrator) play(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for i := 0; ; i = (i + 1) % len(v.pattern) {
		seg := v.pattern[i]
		v.out(seg.Level)
		timer.Reset(seg.Duration)
		select {
		case <-stop:
			return
		case <-timer.C:
		}
	}
}

func (v *Vibrator) out(l gpio.Level) {
	if err := v.pin.Out(l); err != nil {
		v.log.Warn("vibrator pin write failed", zap.String("pin", v.pin.Name()), zap.Error(err))
	}
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/relabs-tech/posture_sense/internal/calibration"
	"github.com/relabs-tech/posture_sense/internal/config"
	"github.com/relabs-tech/posture_sense/internal/orientation"
	"github.com/relabs-tech/posture_sense/internal/posture"
)

// RunCalibration runs one guided calibration session against the configured
// sensor and stores the result.
func RunCalibration(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sensor, sensorCloser, err := OpenSensor(cfg, log)
	if err != nil {
		return fmt.Errorf("open sensor: %w", err)
	}
	defer sensorCloser.Close()

	store, storeCloser, err := OpenStore(cfg)
	if err != nil {
		return err
	}
	defer storeCloser.Close()

	_, err = calibrateAndStore(ctx, os.Stdout, sensor, store, CalibrationOptions(cfg), log)
	return err
}

func calibrateAndStore(ctx context.Context, w io.Writer, src orientation.Source, store calibration.Store, opts calibration.Options, log *zap.Logger) (posture.Offsets, error) {
	lastPct := -1
	opts.OnProgress = func(done, total int) {
		pct := done * 100 / total
		if pct/10 != lastPct/10 {
			fmt.Fprintf(w, "  sampling... %3d%% (%d/%d)\n", pct, done, total)
		}
		lastPct = pct
	}
	opts = withSettleNotice(w, opts)

	c := calibration.New(src, opts)
	o, err := c.Run(ctx)
	ok, failed := c.Counts()
	if err != nil {
		log.Error("calibration failed", zap.Int("succeeded", ok), zap.Int("failed", failed), zap.Error(err))
		return posture.Offsets{}, err
	}

	fmt.Fprintf(w, "\nOffsets: X=%.2f Y=%.2f (%d good reads, %d failed)\n", o.X, o.Y, ok, failed)

	if store == nil {
		fmt.Fprintln(w, "CALIBRATION_STORE=none, result not saved")
		return o, nil
	}
	if err := store.Save(ctx, o); err != nil {
		return o, fmt.Errorf("save calibration: %w", err)
	}
	fmt.Fprintln(w, "Calibration saved")
	log.Info("calibration saved", zap.Float64("offset_x", o.X), zap.Float64("offset_y", o.Y))
	return o, nil
}

// withSettleNotice prints a prompt before the settle delay starts.
func withSettleNotice(w io.Writer, opts calibration.Options) calibration.Options {
	sleeper := opts.Sleeper
	if sleeper == nil {
		sleeper = calibration.RealSleeper
	}
	first := true
	opts.Sleeper = calibration.SleeperFunc(func(ctx context.Context, d time.Duration) error {
		if first {
			first = false
			fmt.Fprintf(w, "Sit upright in your reference posture. Sampling starts in %s.\n", d)
		}
		return sleeper.Sleep(ctx, d)
	})
	return opts
}

// ShowStoredCalibration prints the stored offsets.
func ShowStoredCalibration(ctx context.Context, w io.Writer, store calibration.Store) error {
	if store == nil {
		return errors.New("no calibration store configured")
	}
	o, err := store.Load(ctx)
	if errors.Is(err, calibration.ErrNoRecord) {
		fmt.Fprintln(w, "No calibration stored")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Stored offsets: X=%.2f Y=%.2f\n", o.X, o.Y)
	return nil
}

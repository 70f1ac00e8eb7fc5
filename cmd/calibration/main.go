// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Guided rest-posture calibration.
//
// The wearer holds the reference posture while the accelerometer is sampled;
// the mean roll and pitch become the offsets subtracted from every later
// reading. The result is written to the configured calibration store.
//
// Run:
//
//	go run ./cmd/calibration            # calibrate and save
//	go run ./cmd/calibration -show      # print the stored offsets
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/relabs-tech/posture_sense/internal/app"
	"github.com/relabs-tech/posture_sense/internal/config"
	"github.com/relabs-tech/posture_sense/internal/logger"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to configuration file")
	show := flag.Bool("show", false, "print the stored calibration and exit")
	samples := flag.Int("samples", 0, "override CALIBRATION_SAMPLES")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *samples > 0 {
		cfg.CalibrationSamples = *samples
	}

	lg, err := logger.New(cfg.LogLevel, "console", "posture-calibration")
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer lg.Sync()

	if *show {
		store, closer, err := app.OpenStore(cfg)
		if err != nil {
			lg.Fatal("open calibration store", zap.Error(err))
		}
		defer closer.Close()
		if err := app.ShowStoredCalibration(context.Background(), os.Stdout, store); err != nil {
			lg.Fatal("read calibration", zap.Error(err))
		}
		return
	}

	if err := app.RunCalibration(cfg, lg); err != nil {
		lg.Fatal("calibration failed", zap.Error(err))
	}
}

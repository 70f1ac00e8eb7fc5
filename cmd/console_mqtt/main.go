// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"go.uber.org/zap"

	"github.com/relabs-tech/posture_sense/internal/app"
	"github.com/relabs-tech/posture_sense/internal/config"
	"github.com/relabs-tech/posture_sense/internal/logger"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.MQTTBroker == "" {
		log.Fatalf("MQTT_BROKER is required for the console")
	}

	lg, err := logger.New(cfg.LogLevel, "console", "posture-console")
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer lg.Sync()

	if err := app.RunConsoleMQTT(cfg, lg); err != nil {
		lg.Fatal("console stopped", zap.Error(err))
	}
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relabs-tech/posture_sense/internal/app"
	"github.com/relabs-tech/posture_sense/internal/posture"
)

func main() {
	age := flag.Int("age", posture.DefaultAge, "wearer age used for the threshold")
	interval := flag.Duration("interval", 100*time.Millisecond, "sample interval")
	flag.Parse()

	if *interval <= 0 {
		log.Fatalf("-interval must be positive, got %v", *interval)
	}

	log.Println("starting posture-sense (mock console)")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunMockConsole(ctx, os.Stdout, *age, *interval); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

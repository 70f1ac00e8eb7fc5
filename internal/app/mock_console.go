// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/relabs-tech/posture_sense/internal/orientation"
	"github.com/relabs-tech/posture_sense/internal/posture"
)

// RunMockConsole evaluates the mock angle source and prints every status to
// w until ctx is done. It needs no hardware and no broker.
func RunMockConsole(ctx context.Context, w io.Writer, age int, interval time.Duration) error {
	return runConsole(ctx, w, orientation.NewMockSource(), posture.NewEvaluator(age), interval)
}

// ErrInvalidInterval is returned for a non-positive sample interval.
var ErrInvalidInterval = errors.New("sample interval must be positive")

func runConsole(ctx context.Context, w io.Writer, src orientation.Source, eval *posture.Evaluator, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidInterval, interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		a, err := src.ReadAngles()
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, FormatStatusLine(eval.Evaluate(a.X, a.Y))); err != nil {
			return err
		}
	}
}

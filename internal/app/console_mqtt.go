// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/relabs-tech/posture_sense/internal/config"
	"github.com/relabs-tech/posture_sense/internal/display"
	"github.com/relabs-tech/posture_sense/internal/messaging"
	"github.com/relabs-tech/posture_sense/internal/posture"
)

// TiltBar renders tilt as a 20 cell text bar, full at 50 degrees.
func TiltBar(tilt float64) string {
	n := display.TiltBarFill(tilt)
	return "[" + strings.Repeat("#", n) + strings.Repeat(".", display.TiltBarCells-n) + "]"
}

// FormatStatusLine renders one status for a terminal.
func FormatStatusLine(s posture.Status) string {
	bad := "NO "
	if s.IsBadPosture {
		bad = "YES"
	}
	return fmt.Sprintf("X=%6.1f Y=%6.1f | TILT=%5.1f/%4.1f | BAD=%s %s SCORE=%3.0f",
		s.AngleX, s.AngleY, s.MaxAngle, s.Threshold, bad, TiltBar(s.MaxAngle), s.Score())
}

// RunConsoleMQTT prints every status published by the device until
// interrupted.
func RunConsoleMQTT(cfg *config.Config, log *zap.Logger) error {
	clientID := cfg.MQTTClientID
	if clientID == "" {
		clientID = messaging.NewClientID("posture-console")
	}
	client, err := messaging.NewClient(messaging.Options{
		Broker:   cfg.MQTTBroker,
		ClientID: clientID,
		Username: cfg.MQTTUsername,
		Password: cfg.MQTTPassword,
	}, log)
	if err != nil {
		return err
	}

	err = client.Subscribe(cfg.TopicStatus, 0, func(_ string, payload []byte) error {
		var msg messaging.StatusMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			return fmt.Errorf("status unmarshal: %w", err)
		}
		cal := ""
		if !msg.Calibrated {
			cal = " (uncalibrated)"
		}
		fmt.Printf("[%s] %s%s\n", msg.DeviceID, FormatStatusLine(msg.Status()), cal)
		return nil
	})
	if err != nil {
		client.Disconnect()
		return err
	}
	log.Info("console subscribed", zap.String("topic", cfg.TopicStatus))

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("console shutting down")
	if err := client.Unsubscribe(cfg.TopicStatus); err != nil {
		log.Debug("unsubscribe failed", zap.Error(err))
	}
	client.Disconnect()
	return nil
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package backend talks to the posture backend: it fetches per-device
// settings and uploads SenML telemetry.
package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/relabs-tech/posture_sense/internal/posture"
	"github.com/relabs-tech/posture_sense/internal/senml"
)

// ErrUnexpectedStatus is returned when the backend answers with a status the
// client does not accept.
var ErrUnexpectedStatus = errors.New("backend: unexpected status")

// Options configures a Client. Zero values select the defaults.
type Options struct {
	BaseURL string
	// ConfigPath may contain {deviceID}.
	ConfigPath    string
	TelemetryPath string
	Timeout       time.Duration
	RetryCount    int
	RetryWait     time.Duration
}

const (
	DefaultConfigPath    = "/devices/{deviceID}/config"
	DefaultTelemetryPath = "/telemetry"
	DefaultTimeout       = 5 * time.Second
)

// Client is a backend HTTP client.
type Client struct {
	http *resty.Client
	opts Options
	log  *zap.Logger
}

// NewClient returns a client for opts.BaseURL.
func NewClient(opts Options, log *zap.Logger) *Client {
	if opts.ConfigPath == "" {
		opts.ConfigPath = DefaultConfigPath
	}
	if opts.TelemetryPath == "" {
		opts.TelemetryPath = DefaultTelemetryPath
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = 500 * time.Millisecond
	}

	rc := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(opts.RetryWait).
		SetRetryMaxWaitTime(4*opts.RetryWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		}).
		SetHeader("Accept", "application/json")

	return &Client{http: rc, opts: opts, log: log}
}

// FetchSettings downloads the settings for deviceID. Fields the backend
// omits stay nil.
func (c *Client) FetchSettings(ctx context.Context, deviceID string) (posture.Settings, error) {
	var s posture.Settings
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("deviceID", deviceID).
		SetResult(&s).
		Get(c.opts.ConfigPath)
	if err != nil {
		return posture.Settings{}, fmt.Errorf("backend: fetch settings: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return posture.Settings{}, fmt.Errorf("%w: fetch settings: %s", ErrUnexpectedStatus, resp.Status())
	}

	c.log.Debug("fetched device settings",
		zap.String("device_id", deviceID),
		zap.Duration("latency", resp.Time()),
	)
	return s, nil
}

// SendTelemetry posts one pack as a SenML document. Only 200 and 201 count as
// delivered.
func (c *Client) SendTelemetry(ctx context.Context, pack senml.Pack) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/senml+json").
		SetBody(senml.Document{pack}).
		Post(c.opts.TelemetryPath)
	if err != nil {
		return fmt.Errorf("backend: send telemetry: %w", err)
	}
	switch resp.StatusCode() {
	case http.StatusOK, http.StatusCreated:
	default:
		return fmt.Errorf("%w: send telemetry: %s", ErrUnexpectedStatus, resp.Status())
	}

	score, _ := pack.Lookup("posture/score")
	c.log.Debug("telemetry delivered",
		zap.String("device_id", pack.BaseName),
		zap.Float64("score", score),
		zap.Int("status_code", resp.StatusCode()),
	)
	return nil
}

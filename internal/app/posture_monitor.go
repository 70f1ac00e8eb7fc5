// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/relabs-tech/posture_sense/internal/actuator"
	"github.com/relabs-tech/posture_sense/internal/backend"
	"github.com/relabs-tech/posture_sense/internal/calibration"
	"github.com/relabs-tech/posture_sense/internal/config"
	"github.com/relabs-tech/posture_sense/internal/display"
	"github.com/relabs-tech/posture_sense/internal/imu"
	"github.com/relabs-tech/posture_sense/internal/messaging"
	"github.com/relabs-tech/posture_sense/internal/orientation"
	"github.com/relabs-tech/posture_sense/internal/sensors"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

var nopCloser = closerFunc(func() error { return nil })

// OpenSensor returns the configured angle source: the mock generator or an
// initialized MPU6050 on the I2C bus.
func OpenSensor(cfg *config.Config, log *zap.Logger) (orientation.Source, io.Closer, error) {
	if cfg.UseMockSensor {
		log.Info("using mock angle source")
		return orientation.NewMockSource(), nopCloser, nil
	}

	mpu, bus, err := sensors.OpenMPU6050(cfg.I2CBus, cfg.MPUAddr)
	if err != nil {
		return nil, nil, err
	}
	log.Info("accelerometer ready",
		zap.Stringer("device", mpu),
		zap.String("model", mpu.Model()),
	)
	return orientation.NewSensorSource(mpu, imu.AccelSensitivity2G), bus, nil
}

// OpenStore returns the configured calibration store, or nil for "none".
func OpenStore(cfg *config.Config) (calibration.Store, io.Closer, error) {
	switch cfg.CalibrationStore {
	case config.StoreFile:
		return calibration.NewFileStore(cfg.CalibrationFile), nopCloser, nil
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return calibration.NewRedisStore(client, cfg.DeviceID), client, nil
	case config.StoreNone:
		return nil, nopCloser, nil
	default:
		return nil, nil, fmt.Errorf("unknown calibration store %q", cfg.CalibrationStore)
	}
}

// CalibrationOptions maps the configuration onto a calibration session.
func CalibrationOptions(cfg *config.Config) calibration.Options {
	return calibration.Options{
		SampleCount:   cfg.CalibrationSamples,
		SampleDelay:   cfg.CalibrationSampleDelay,
		Settle:        cfg.CalibrationSettle,
		MinSuccessful: cfg.CalibrationMinSuccess,
	}
}

// RunPostureMonitor wires the device from cfg and runs the monitor until
// interrupted. Optional collaborators that fail to start are logged and left
// out; only the sensor is required.
func RunPostureMonitor(cfg *config.Config, log *zap.Logger) error {
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

	deps := MonitorDeps{Sensor: sensor, Store: store}
	commands := make(chan messaging.Command, 1)

	if cfg.BackendBaseURL != "" {
		deps.Backend = backend.NewClient(backend.Options{
			BaseURL:       cfg.BackendBaseURL,
			ConfigPath:    cfg.BackendConfigPath,
			TelemetryPath: cfg.BackendTelemetryPath,
			Timeout:       cfg.BackendTimeout,
			RetryCount:    cfg.BackendRetryCount,
		}, log)
	}

	if cfg.MQTTBroker != "" {
		client, err := messaging.NewClient(messaging.Options{
			Broker:   cfg.MQTTBroker,
			ClientID: cfg.MQTTClientID,
			Username: cfg.MQTTUsername,
			Password: cfg.MQTTPassword,
		}, log)
		if err != nil {
			log.Warn("running without MQTT", zap.Error(err))
		} else {
			defer client.Disconnect()
			deps.Publisher = client
			err := client.Subscribe(cfg.TopicCommand, 1, func(_ string, payload []byte) error {
				cmd, err := messaging.ParseCommand(payload)
				if err != nil {
					return err
				}
				return enqueue(commands, cmd)
			})
			if err != nil {
				log.Warn("device commands unavailable", zap.Error(err))
			}
		}
	}

	if cfg.VibratorPin != "" {
		pin, err := actuator.OpenPin(cfg.VibratorPin)
		if err != nil {
			log.Warn("running without vibration motor", zap.Error(err))
		} else {
			v := actuator.NewVibrator(pin, actuator.AlertPattern, log)
			defer func() {
				if v.Active() {
					log.Info("stopping vibration motor")
					v.Stop()
				}
			}()
			deps.Alerter = v
		}
	}

	if cfg.DisplayEnabled {
		d, closer, err := display.Open(cfg.DisplayI2CBus)
		if err != nil {
			log.Warn("running without display", zap.Error(err))
		} else {
			defer closer.Close()
			if err := d.Show(display.RenderSplash("Posture", "Sense", cfg.DeviceID)); err != nil {
				log.Warn("display splash failed", zap.Error(err))
			}
			deps.Display = d
		}
	}

	m := NewMonitor(MonitorOptions{
		DeviceID:           cfg.DeviceID,
		DefaultAge:         cfg.DefaultAge,
		PollInterval:       cfg.PollInterval,
		CalibrateOnStart:   cfg.CalibrateOnStart,
		Calibration:        CalibrationOptions(cfg),
		AlertDelay:         cfg.VibrationDelay,
		TelemetryInterval:  cfg.TelemetryInterval,
		ConfigPollInterval: cfg.ConfigPollInterval,
		DisplayInterval:    cfg.DisplayUpdateInterval,
		TopicStatus:        cfg.TopicStatus,
	}, deps, log)

	// Without a broker the dashboard is served by the monitor itself.
	if deps.Publisher == nil && cfg.WebServerPort > 0 {
		web := NewWebServer(func(cmd messaging.Command) error { return enqueue(commands, cmd) }, log)
		m.OnStatus = web.Update
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.WebServerPort),
			Handler:           web.Handler("web"),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Info("local dashboard listening", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("local dashboard stopped", zap.Error(err))
			}
		}()
		defer srv.Close()
	}

	log.Info("starting posture monitor",
		zap.String("device_id", cfg.DeviceID),
		zap.Duration("poll_interval", cfg.PollInterval),
	)
	return m.Run(ctx, commands)
}

// errBusy is returned when a command arrives while another is pending.
var errBusy = errors.New("a command is already pending")

func enqueue(commands chan<- messaging.Command, cmd messaging.Command) error {
	select {
	case commands <- cmd:
		return nil
	default:
		return errBusy
	}
}

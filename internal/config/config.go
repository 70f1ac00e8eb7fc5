// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultPath is the configuration file read when none is given.
const DefaultPath = "./posture_config.txt"

// Calibration store kinds.
const (
	StoreNone  = "none"
	StoreFile  = "file"
	StoreRedis = "redis"
)

// Config holds all application configuration values.
type Config struct {
	// Device
	DeviceID   string
	DefaultAge int

	// Logging
	LogLevel  string
	LogFormat string // "json" or "console"

	// Sensor
	I2CBus        string // empty selects the first bus
	MPUAddr       uint16
	UseMockSensor bool
	PollInterval  time.Duration

	// Calibration
	CalibrateOnStart       bool
	CalibrationSamples     int
	CalibrationSampleDelay time.Duration
	CalibrationSettle      time.Duration
	CalibrationMinSuccess  int // 0 means half of the samples
	CalibrationStore       string
	CalibrationFile        string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Actuator
	VibratorPin    string // empty disables the motor
	VibrationDelay time.Duration

	// Backend
	BackendBaseURL       string // empty disables settings fetch and telemetry
	BackendConfigPath    string
	BackendTelemetryPath string
	BackendTimeout       time.Duration
	BackendRetryCount    int
	TelemetryInterval    time.Duration
	ConfigPollInterval   time.Duration

	// MQTT
	MQTTBroker   string // empty disables MQTT on the device
	MQTTClientID string
	MQTTUsername string
	MQTTPassword string
	TopicStatus  string
	TopicCommand string

	// Display
	DisplayEnabled        bool
	DisplayI2CBus         string
	DisplayUpdateInterval time.Duration

	// Web Server
	WebServerPort int
}

// Default returns the configuration used for keys the file does not set.
func Default() *Config {
	return &Config{
		DeviceID:   "posture-001",
		DefaultAge: 25,

		LogLevel:  "info",
		LogFormat: "json",

		MPUAddr:      0x68,
		PollInterval: 50 * time.Millisecond,

		CalibrateOnStart:       true,
		CalibrationSamples:     100,
		CalibrationSampleDelay: 50 * time.Millisecond,
		CalibrationSettle:      5 * time.Second,
		CalibrationStore:       StoreFile,
		CalibrationFile:        "./posture_calibration.bin",

		RedisAddr: "localhost:6379",

		VibrationDelay: 3 * time.Second,

		BackendConfigPath:    "/devices/{deviceID}/config",
		BackendTelemetryPath: "/telemetry",
		BackendTimeout:       5 * time.Second,
		BackendRetryCount:    2,
		TelemetryInterval:    time.Second,
		ConfigPollInterval:   time.Minute,

		TopicStatus:  "posture/status",
		TopicCommand: "posture/command",

		DisplayUpdateInterval: 200 * time.Millisecond,

		WebServerPort: 8080,
	}
}

// Load reads the configuration file at path on top of the defaults.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse reads KEY=VALUE lines from r on top of the defaults. Every invalid
// key is reported.
func Parse(r io.Reader) (*Config, error) {
	values, err := godotenv.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cfg := Default()
	var errs []error
	for _, k := range keys {
		if err := cfg.setValue(k, strings.TrimSpace(values[k])); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// Device
	case "DEVICE_ID":
		c.DeviceID = value
	case "DEFAULT_AGE":
		c.DefaultAge, err = parseInt(key, value, 0, 130)

	// Logging
	case "LOG_LEVEL":
		c.LogLevel = strings.ToLower(value)
	case "LOG_FORMAT":
		c.LogFormat = strings.ToLower(value)

	// Sensor
	case "I2C_BUS":
		c.I2CBus = value
	case "MPU_I2C_ADDR":
		var addr uint64
		addr, err = strconv.ParseUint(value, 0, 7)
		if err != nil {
			return fmt.Errorf("invalid MPU_I2C_ADDR %q: %w", value, err)
		}
		c.MPUAddr = uint16(addr)
	case "USE_MOCK_SENSOR":
		c.UseMockSensor, err = parseBool(key, value)
	case "POLL_INTERVAL_MS":
		c.PollInterval, err = parseMillis(key, value, 1)

	// Calibration
	case "CALIBRATE_ON_START":
		c.CalibrateOnStart, err = parseBool(key, value)
	case "CALIBRATION_SAMPLES":
		c.CalibrationSamples, err = parseInt(key, value, 1, 10000)
	case "CALIBRATION_SAMPLE_DELAY_MS":
		c.CalibrationSampleDelay, err = parseMillis(key, value, 0)
	case "CALIBRATION_SETTLE_MS":
		c.CalibrationSettle, err = parseMillis(key, value, 0)
	case "CALIBRATION_MIN_SUCCESS":
		c.CalibrationMinSuccess, err = parseInt(key, value, 0, 10000)
	case "CALIBRATION_STORE":
		switch v := strings.ToLower(value); v {
		case StoreNone, StoreFile, StoreRedis:
			c.CalibrationStore = v
		default:
			return fmt.Errorf("CALIBRATION_STORE must be none, file or redis, got %q", value)
		}
	case "CALIBRATION_FILE":
		c.CalibrationFile = value

	// Redis
	case "REDIS_ADDR":
		c.RedisAddr = value
	case "REDIS_PASSWORD":
		c.RedisPassword = value
	case "REDIS_DB":
		c.RedisDB, err = parseInt(key, value, 0, 15)

	// Actuator
	case "VIBRATOR_PIN":
		c.VibratorPin = value
	case "VIBRATION_DELAY_MS":
		c.VibrationDelay, err = parseMillis(key, value, 0)

	// Backend
	case "BACKEND_BASE_URL":
		c.BackendBaseURL = strings.TrimRight(value, "/")
	case "BACKEND_CONFIG_PATH":
		c.BackendConfigPath = value
	case "BACKEND_TELEMETRY_PATH":
		c.BackendTelemetryPath = value
	case "BACKEND_TIMEOUT_MS":
		c.BackendTimeout, err = parseMillis(key, value, 1)
	case "BACKEND_RETRY_COUNT":
		c.BackendRetryCount, err = parseInt(key, value, 0, 10)
	case "TELEMETRY_INTERVAL_MS":
		c.TelemetryInterval, err = parseMillis(key, value, 1)
	case "CONFIG_POLL_INTERVAL_MS":
		c.ConfigPollInterval, err = parseMillis(key, value, 1)

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID":
		c.MQTTClientID = value
	case "MQTT_USERNAME":
		c.MQTTUsername = value
	case "MQTT_PASSWORD":
		c.MQTTPassword = value
	case "TOPIC_STATUS":
		c.TopicStatus = value
	case "TOPIC_COMMAND":
		c.TopicCommand = value

	// Display
	case "DISPLAY_ENABLED":
		c.DisplayEnabled, err = parseBool(key, value)
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value
	case "DISPLAY_UPDATE_INTERVAL_MS":
		c.DisplayUpdateInterval, err = parseMillis(key, value, 1)

	// Web Server
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = parseInt(key, value, 1, 65535)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

// validate checks settings that depend on each other.
func (c *Config) validate() error {
	if c.DeviceID == "" {
		return fmt.Errorf("DEVICE_ID is required")
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.LogFormat)
	}
	if c.CalibrationMinSuccess > c.CalibrationSamples {
		return fmt.Errorf("CALIBRATION_MIN_SUCCESS (%d) exceeds CALIBRATION_SAMPLES (%d)",
			c.CalibrationMinSuccess, c.CalibrationSamples)
	}
	if c.CalibrationStore == StoreFile && c.CalibrationFile == "" {
		return fmt.Errorf("CALIBRATION_FILE is required when CALIBRATION_STORE=file")
	}
	if c.CalibrationStore == StoreRedis && c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required when CALIBRATION_STORE=redis")
	}
	if c.BackendBaseURL != "" && !strings.HasPrefix(c.BackendBaseURL, "http://") && !strings.HasPrefix(c.BackendBaseURL, "https://") {
		return fmt.Errorf("BACKEND_BASE_URL must start with http:// or https://, got %q", c.BackendBaseURL)
	}
	if c.TopicStatus == "" || c.TopicCommand == "" {
		return fmt.Errorf("TOPIC_STATUS and TOPIC_COMMAND must not be empty")
	}
	return nil
}

func parseInt(key, value string, lo, hi int) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("%s must be %d-%d, got %d", key, lo, hi, v)
	}
	return v, nil
}

func parseMillis(key, value string, min int) (time.Duration, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v < min {
		return 0, fmt.Errorf("%s must be at least %d, got %d", key, min, v)
	}
	return time.Duration(v) * time.Millisecond, nil
}

func parseBool(key, value string) (bool, error) {
	v, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

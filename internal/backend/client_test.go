// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/relabs-tech/posture_sense/internal/posture"
	"github.com/relabs-tech/posture_sense/internal/senml"
)

func newTestClient(t *testing.T, h http.Handler, retries int) *Client {
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Options{
		BaseURL:    srv.URL,
		RetryCount: retries,
		RetryWait:  time.Millisecond,
		Timeout:    2 * time.Second,
	}, zap.NewNop())
}

func TestFetchSettings(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/devices/esp32-posture-001/config", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"device_id":"esp32-posture-001","age":67,"threshold_deg":32.5}`))
	}), 0)

	s, err := c.FetchSettings(context.Background(), "esp32-posture-001")

	require.NoError(t, err)
	require.NotNil(t, s.Age)
	assert.Equal(t, 67, *s.Age)
	require.NotNil(t, s.ThresholdDeg)
	assert.Equal(t, 32.5, *s.ThresholdDeg)
	assert.Nil(t, s.OffsetX)
	assert.Nil(t, s.OffsetY)
}

func TestFetchSettingsNotFound(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler(), 0)

	_, err := c.FetchSettings(context.Background(), "dev")

	assert.ErrorIs(t, err, ErrUnexpectedStatus)
}

func TestFetchSettingsRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"age":30}`))
	}), 3)

	s, err := c.FetchSettings(context.Background(), "dev")

	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 30, *s.Age)
}

func TestSendTelemetry(t *testing.T) {
	var got senml.Document
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/telemetry", r.URL.Path)
		assert.Equal(t, "application/senml+json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}), 0)
	pack := senml.NewPosturePack("dev", time.Unix(42, 0), posture.Status{MaxAngle: 12, Threshold: 30}, 100)

	require.NoError(t, c.SendTelemetry(context.Background(), pack))

	require.Len(t, got, 1)
	assert.Equal(t, "dev", got[0].BaseName)
	assert.Equal(t, int64(42), got[0].BaseTime)
	tilt, _ := got[0].Lookup("posture/tilt")
	assert.Equal(t, 12.0, tilt)
}

func TestSendTelemetryRejectsOtherStatuses(t *testing.T) {
	for _, code := range []int{http.StatusAccepted, http.StatusBadRequest, http.StatusInternalServerError} {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}), 0)

		err := c.SendTelemetry(context.Background(), senml.Pack{BaseName: "dev"})

		assert.ErrorIs(t, err, ErrUnexpectedStatus, "status %d", code)
	}
}

func TestSendTelemetryHonoursContext(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.SendTelemetry(ctx, senml.Pack{})

	assert.ErrorIs(t, err, context.Canceled)
}

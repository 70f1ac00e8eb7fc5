// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/relabs-tech/posture_sense/internal/messaging"
	"github.com/relabs-tech/posture_sense/internal/posture"
)

func sampleStatus(tilt float64) messaging.StatusMessage {
	s := posture.Status{AngleY: tilt, MaxAngle: tilt, Threshold: 30, IsBadPosture: tilt > 30}
	return messaging.NewStatusMessage("dev", time.Unix(1000, 0), s, true)
}

func TestPostureEndpoint(t *testing.T) {
	srv := NewWebServer(nil, zap.NewNop())
	h := srv.Handler("")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/posture", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "no data yet")

	srv.Update(sampleStatus(35))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/posture", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var got messaging.StatusMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 35.0, got.MaxAngle)
	assert.Equal(t, 75.0, got.Score)
}

func dialWS(t *testing.T, h http.Handler) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readResponse(t *testing.T, conn *websocket.Conn) WSResponse {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var resp WSResponse
	require.NoError(t, conn.ReadJSON(&resp))
	return resp
}

func TestWebSocketPushesStatus(t *testing.T) {
	srv := NewWebServer(nil, zap.NewNop())
	srv.Update(sampleStatus(10))
	conn := dialWS(t, srv.Handler(""))

	first := readResponse(t, conn)
	assert.Equal(t, "status", first.Type)
	require.NotNil(t, first.Status)
	assert.Equal(t, 10.0, first.Status.MaxAngle)

	srv.Update(sampleStatus(40))

	next := readResponse(t, conn)
	assert.Equal(t, "status", next.Type)
	assert.True(t, next.Status.IsBadPosture)
	assert.Equal(t, 50.0, next.Status.Score)
}

func TestWebSocketForwardsCalibrate(t *testing.T) {
	var (
		mu  sync.Mutex
		got []messaging.Command
	)
	srv := NewWebServer(func(cmd messaging.Command) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, cmd)
		return nil
	}, zap.NewNop())
	conn := dialWS(t, srv.Handler(""))

	require.NoError(t, conn.WriteJSON(WSMessage{Action: "calibrate"}))
	ack := readResponse(t, conn)
	assert.Equal(t, "ack", ack.Type)
	assert.Equal(t, "calibrate", ack.Message)

	require.NoError(t, conn.WriteJSON(WSMessage{Action: "self_destruct"}))
	rejected := readResponse(t, conn)
	assert.Equal(t, "error", rejected.Type)
	assert.Contains(t, rejected.Message, "unknown command")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []messaging.Command{{Action: messaging.ActionCalibrate}}, got)
}

func TestWebSocketCommandErrors(t *testing.T) {
	noForward := dialWS(t, NewWebServer(nil, zap.NewNop()).Handler(""))
	require.NoError(t, noForward.WriteJSON(WSMessage{Action: "calibrate"}))
	assert.Equal(t, "error", readResponse(t, noForward).Type)

	failing := dialWS(t, NewWebServer(func(messaging.Command) error {
		return errors.New("broker unavailable")
	}, zap.NewNop()).Handler(""))
	require.NoError(t, failing.WriteJSON(WSMessage{Action: "calibrate"}))
	resp := readResponse(t, failing)
	assert.Equal(t, "error", resp.Type)
	assert.Equal(t, "broker unavailable", resp.Message)
}

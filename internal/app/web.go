// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/relabs-tech/posture_sense/internal/config"
	"github.com/relabs-tech/posture_sense/internal/messaging"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // dashboard is served from the device itself
	},
}

const wsSendBuffer = 16

// WSMessage is sent by dashboard clients.
type WSMessage struct {
	Action string `json:"action"`
}

// WSResponse is sent to dashboard clients.
type WSResponse struct {
	Type    string                   `json:"type"` // status, ack, error
	Status  *messaging.StatusMessage `json:"status,omitempty"`
	Message string                   `json:"message,omitempty"`
}

// CommandForwarder delivers a dashboard command to the device.
type CommandForwarder func(messaging.Command) error

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// WebServer serves the latest posture status over REST and pushes every
// update to websocket clients.
type WebServer struct {
	forward CommandForwarder
	log     *zap.Logger

	mu      sync.RWMutex
	last    messaging.StatusMessage
	have    bool
	clients map[*wsClient]struct{}
}

// NewWebServer returns a server; forward may be nil to reject commands.
func NewWebServer(forward CommandForwarder, log *zap.Logger) *WebServer {
	return &WebServer{
		forward: forward,
		log:     log,
		clients: make(map[*wsClient]struct{}),
	}
}

// Update stores msg as the latest status and pushes it to every client.
func (s *WebServer) Update(msg messaging.StatusMessage) {
	frame, err := json.Marshal(WSResponse{Type: "status", Status: &msg})
	if err != nil {
		s.log.Error("status marshal failed", zap.Error(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.last, s.have = msg, true
	for c := range s.clients {
		select {
		case c.send <- frame:
		default:
			s.log.Debug("websocket client too slow, dropping status")
		}
	}
}

// Handler returns the HTTP routes. staticDir, when not empty, is served at /.
func (s *WebServer) Handler(staticDir string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/posture", s.handlePosture)
	mux.HandleFunc("/ws", s.handleWS)
	if staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}
	return mux
}

func (s *WebServer) handlePosture(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	last, have := s.last, s.have
	s.mu.RUnlock()

	if !have {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(last); err != nil {
		s.log.Warn("json encode error", zap.Error(err))
	}
}

func (s *WebServer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade error", zap.Error(err))
		return
	}

	c := &wsClient{conn: conn, send: make(chan []byte, wsSendBuffer)}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	if s.have {
		last := s.last
		if frame, err := json.Marshal(WSResponse{Type: "status", Status: &last}); err == nil {
			c.send <- frame
		}
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go s.writeLoop(c, done)
	s.readLoop(c)

	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	close(done)
	conn.Close()
}

func (s *WebServer) writeLoop(c *wsClient, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.log.Debug("websocket write error", zap.Error(err))
				c.conn.Close()
				return
			}
		}
	}
}

func (s *WebServer) readLoop(c *wsClient) {
	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug("websocket read error", zap.Error(err))
			}
			return
		}
		s.reply(c, s.handleCommand(msg))
	}
}

func (s *WebServer) handleCommand(msg WSMessage) WSResponse {
	cmd := messaging.Command{Action: msg.Action}
	if err := cmd.Validate(); err != nil {
		return WSResponse{Type: "error", Message: err.Error()}
	}
	if s.forward == nil {
		return WSResponse{Type: "error", Message: "commands are not available"}
	}
	if err := s.forward(cmd); err != nil {
		s.log.Warn("command forward failed", zap.String("action", cmd.Action), zap.Error(err))
		return WSResponse{Type: "error", Message: err.Error()}
	}
	s.log.Info("forwarded dashboard command", zap.String("action", cmd.Action))
	return WSResponse{Type: "ack", Message: cmd.Action}
}

func (s *WebServer) reply(c *wsClient, resp WSResponse) {
	frame, err := json.Marshal(resp)
	if err != nil {
		return
	}
	select {
	case c.send <- frame:
	default:
	}
}

// RunWeb subscribes to device status over MQTT and serves the dashboard
// until interrupted.
func RunWeb(cfg *config.Config, log *zap.Logger) error {
	clientID := cfg.MQTTClientID
	if clientID == "" {
		clientID = messaging.NewClientID("posture-web")
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
	defer client.Disconnect()

	srv := NewWebServer(func(cmd messaging.Command) error {
		payload, err := json.Marshal(cmd)
		if err != nil {
			return err
		}
		return client.Publish(cfg.TopicCommand, 1, false, payload)
	}, log)

	if err := client.Subscribe(cfg.TopicStatus, 0, func(_ string, payload []byte) error {
		var msg messaging.StatusMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			return fmt.Errorf("status unmarshal: %w", err)
		}
		srv.Update(msg)
		return nil
	}); err != nil {
		return err
	}
	log.Info("subscribed to status topic", zap.String("topic", cfg.TopicStatus))
	defer func() {
		if err := client.Unsubscribe(cfg.TopicStatus); err != nil {
			log.Debug("unsubscribe failed", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WebServerPort),
		Handler:           srv.Handler("web"),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	log.Info("web server listening", zap.String("addr", httpSrv.Addr))
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

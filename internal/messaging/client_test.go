// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package messaging

import (
	"errors"
	"net"
	"testing"
	"time"

	mochi "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// startBroker runs an in-process broker and returns its tcp:// URL.
func startBroker(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	server := mochi.New(nil)
	require.NoError(t, server.AddHook(new(auth.AllowHook), nil))
	require.NoError(t, server.AddListener(listeners.NewTCP(listeners.Config{
		Type:    "tcp",
		ID:      "t1",
		Address: addr,
	})))
	require.NoError(t, server.Serve())
	t.Cleanup(func() { server.Close() })

	return "tcp://" + addr
}

func TestPublishSubscribe(t *testing.T) {
	broker := startBroker(t)

	sub, err := NewClient(Options{Broker: broker, ClientID: "sub"}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(sub.Disconnect)
	pub, err := NewClient(Options{Broker: broker}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(pub.Disconnect)
	assert.True(t, pub.IsConnected())

	got := make(chan string, 4)
	require.NoError(t, sub.Subscribe(DefaultTopicCommand, 0, func(topic string, payload []byte) error {
		got <- topic + " " + string(payload)
		return nil
	}))

	require.NoError(t, pub.Publish(DefaultTopicCommand, 0, false, []byte(`{"action":"calibrate"}`)))

	select {
	case msg := <-got:
		assert.Equal(t, `posture/command {"action":"calibrate"}`, msg)
	case <-time.After(5 * time.Second):
		t.Fatal("message not delivered")
	}

	require.NoError(t, sub.Unsubscribe(DefaultTopicCommand))
}

func TestRetainedStatusReachesLateSubscriber(t *testing.T) {
	broker := startBroker(t)

	pub, err := NewClient(Options{Broker: broker}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(pub.Disconnect)
	require.NoError(t, pub.Publish(DefaultTopicStatus, 0, true, []byte(`{"score":80}`)))

	sub, err := NewClient(Options{Broker: broker}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(sub.Disconnect)

	got := make(chan []byte, 1)
	require.NoError(t, sub.Subscribe(DefaultTopicStatus, 0, func(_ string, payload []byte) error {
		got <- payload
		return errors.New("handler errors are only logged")
	}))

	select {
	case p := <-got:
		assert.JSONEq(t, `{"score":80}`, string(p))
	case <-time.After(5 * time.Second):
		t.Fatal("retained message not delivered")
	}
}

func TestNewClientFailsWithoutBroker(t *testing.T) {
	_, err := NewClient(Options{Broker: "tcp://127.0.0.1:1", ConnectTimeout: 2 * time.Second}, zap.NewNop())
	assert.Error(t, err)
}

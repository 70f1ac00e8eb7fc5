// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package messaging wraps the MQTT client used to publish posture status and
// receive device commands.
package messaging

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MessageHandler handles one message. Returned errors are logged.
type MessageHandler func(topic string, payload []byte) error

// Options configures a Client.
type Options struct {
	Broker   string
	ClientID string
	Username string
	Password string
	// ConnectTimeout bounds the initial connect; zero means 10s.
	ConnectTimeout time.Duration
}

// Client is a connected MQTT client.
type Client struct {
	client mqtt.Client
	log    *zap.Logger
}

// NewClientID returns a unique client id with the given prefix.
func NewClientID(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

// NewClient connects to opts.Broker.
func NewClient(opts Options, log *zap.Logger) (*Client, error) {
	if opts.ClientID == "" {
		opts.ClientID = NewClientID("posture")
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 10 * time.Second
	}

	mo := mqtt.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetCleanSession(true).
		SetConnectTimeout(opts.ConnectTimeout).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Warn("mqtt connection lost", zap.Error(err))
		})
	if opts.Username != "" {
		mo.SetUsername(opts.Username)
	}
	if opts.Password != "" {
		mo.SetPassword(opts.Password)
	}

	client := mqtt.NewClient(mo)
	token := client.Connect()
	if !token.WaitTimeout(opts.ConnectTimeout) {
		return nil, fmt.Errorf("mqtt: connect to %s: timed out", opts.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt: connect to %s: %w", opts.Broker, err)
	}

	log.Info("connected to MQTT broker",
		zap.String("broker", opts.Broker),
		zap.String("client_id", opts.ClientID),
	)
	return &Client{client: client, log: log}, nil
}

// Subscribe registers handler for topic.
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	token := c.client.Subscribe(topic, qos, func(_ mqtt.Client, msg mqtt.Message) {
		if err := handler(msg.Topic(), msg.Payload()); err != nil {
			c.log.Warn("mqtt message handler failed", zap.String("topic", msg.Topic()), zap.Error(err))
		}
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt: subscribe %s: %w", topic, token.Error())
	}
	return nil
}

// Publish sends payload and waits for the broker to accept it.
func (c *Client) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := c.client.Publish(topic, qos, retained, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt: publish %s: %w", topic, err)
	}
	return nil
}

// Unsubscribe removes subscriptions.
func (c *Client) Unsubscribe(topics ...string) error {
	token := c.client.Unsubscribe(topics...)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt: unsubscribe: %w", err)
	}
	return nil
}

func (c *Client) IsConnected() bool { return c.client.IsConnected() }

// Disconnect waits up to 250ms for in-flight work.
func (c *Client) Disconnect() {
	c.client.Disconnect(250)
}

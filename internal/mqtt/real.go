package mqtt

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/smartcity/streetlight/internal/telemetry"
)

// Client talks to a real MQTT broker via paho. Reconnection is driven
// externally through StartAttempt and Alive, so paho's own retry
// machinery stays off.
type Client struct {
	client  paho.Client
	device  string
	log     *slog.Logger
	dialing atomic.Bool

	mu        sync.Mutex
	onCommand func(Command)
	onData    func(device string, payload []byte)
}

// NewClient creates a node-side client for the given device. The broker
// receives a last-will SHUTDOWN on the device's system topic so an
// unclean disconnect is still visible downstream.
func NewClient(broker, device string, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	c := &Client{device: device, log: log}

	will, _ := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})

	// The node owns its reconnect policy through the session scheduler,
	// so paho's retry machinery stays off.
	opts := baseOptions(broker, "streetlight-"+device, log, c)
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)
	opts.SetBinaryWill(SystemTopic(device), will, 1, true)

	c.client = paho.NewClient(opts)
	return c
}

// NewListener creates a fleet-side client with no device identity.
// It can subscribe to all data topics but must not publish telemetry.
// Lost connections reconnect via paho; the connect handler restores
// subscriptions.
func NewListener(broker string, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	c := &Client{log: log}

	opts := baseOptions(broker, "streetlight-ingest", log, c)
	opts.SetAutoReconnect(true)

	c.client = paho.NewClient(opts)
	return c
}

func baseOptions(broker, idPrefix string, log *slog.Logger, c *Client) *paho.ClientOptions {
	return paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(idPrefix + "-" + uuid.NewString()[:8]).
		SetConnectTimeout(10 * time.Second).
		SetOnConnectHandler(func(paho.Client) {
			c.resubscribe()
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Warn("mqtt connection lost", "error", err)
		})
}

// Connect dials the broker and waits for the result. Fleet services
// use this at startup; the node dials through StartAttempt and never
// blocks.
func (c *Client) Connect() error {
	token := c.client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	return nil
}

// StartAttempt begins one asynchronous connection attempt. While an
// attempt is pending further calls are ignored, so the reconnect
// scheduler can fire on every interval without stacking dials.
func (c *Client) StartAttempt() {
	if !c.dialing.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer c.dialing.Store(false)
		token := c.client.Connect()
		token.Wait()
		if err := token.Error(); err != nil {
			c.log.Warn("mqtt connect failed", "error", err)
		}
	}()
}

// Alive reports whether the broker connection is up.
func (c *Client) Alive() bool {
	return c.client.IsConnected()
}

// IsConnected reports whether the broker connection is up.
func (c *Client) IsConnected() bool {
	return c.client.IsConnected()
}

// Publish sends a telemetry reading on the device's data topic. QoS 0,
// fire and forget — but a token the client has already failed (dead
// session, shutdown) is surfaced, so the reporter keeps its snapshot
// armed instead of counting the message as delivered.
func (c *Client) Publish(reading telemetry.Reading) error {
	payload, err := FormatPayload(reading)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	token := c.client.Publish(DataTopic(c.device), 0, false, payload)
	return tokenErr(token, "publish")
}

// PublishSystem sends a lifecycle event on the device's system topic,
// QoS 1 retained. The control loop calls this from the tick handler,
// so the token is never awaited: paho retries the ack in the
// background, an immediate failure makes the caller retry next tick,
// and an unclean disconnect is covered by the will.
func (c *Client) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	token := c.client.Publish(SystemTopic(c.device), 1, event.Retained, payload)
	return tokenErr(token, "publish system")
}

// tokenErr reports a token's error without waiting for it to resolve.
// A token still in flight counts as sent.
func tokenErr(token paho.Token, op string) error {
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	default:
	}
	return nil
}

// SubscribeCommands registers the command handler. The subscription is
// (re)established on every connect, so registering before the first
// StartAttempt is enough.
func (c *Client) SubscribeCommands(handler func(Command)) error {
	c.mu.Lock()
	c.onCommand = handler
	c.mu.Unlock()

	if c.client.IsConnected() {
		return c.subscribeCommands()
	}
	return nil
}

// SubscribeData registers the fleet-wide telemetry handler.
func (c *Client) SubscribeData(handler func(device string, payload []byte)) error {
	c.mu.Lock()
	c.onData = handler
	c.mu.Unlock()

	if c.client.IsConnected() {
		return c.subscribeData()
	}
	return nil
}

func (c *Client) resubscribe() {
	c.mu.Lock()
	hasCommand := c.onCommand != nil
	hasData := c.onData != nil
	c.mu.Unlock()

	if hasCommand {
		if err := c.subscribeCommands(); err != nil {
			c.log.Warn("command subscribe failed", "error", err)
		}
	}
	if hasData {
		if err := c.subscribeData(); err != nil {
			c.log.Warn("data subscribe failed", "error", err)
		}
	}
}

func (c *Client) subscribeCommands() error {
	topic := CommandTopic(c.device)
	token := c.client.Subscribe(topic, 1, func(_ paho.Client, msg paho.Message) {
		cmd, err := ParseCommand(msg.Payload())
		if err != nil {
			c.log.Warn("bad command payload", "topic", msg.Topic(), "error", err)
			return
		}
		c.mu.Lock()
		handler := c.onCommand
		c.mu.Unlock()
		if handler != nil {
			handler(cmd)
		}
	})
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("subscribe %s timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	return nil
}

func (c *Client) subscribeData() error {
	token := c.client.Subscribe(DataWildcard, 0, func(_ paho.Client, msg paho.Message) {
		device := DeviceFromTopic(msg.Topic())
		if device == "" {
			c.log.Warn("data on unexpected topic", "topic", msg.Topic())
			return
		}
		c.mu.Lock()
		handler := c.onData
		c.mu.Unlock()
		if handler != nil {
			handler(device, msg.Payload())
		}
	})
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("subscribe %s timeout", DataWildcard)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", DataWildcard, err)
	}
	return nil
}

// Close disconnects from the broker.
func (c *Client) Close() error {
	c.client.Disconnect(1000) // 1 second timeout
	return nil
}

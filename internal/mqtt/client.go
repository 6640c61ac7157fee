// Package mqtt implements the Publish/Subscribe Client (C11): a thin wrapper
// over paho.mqtt.golang that adds subscription dispatch on top of the
// original publish-only client, with automatic reconnect on a fixed
// back-off (§4.11).
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/jackbeau/stagehand/internal/conf"
	"github.com/jackbeau/stagehand/internal/errors"
	"github.com/jackbeau/stagehand/internal/logging"
)

// reconnectBackoff is the fixed automatic-reconnect interval (§4.11). The
// spec's 3600s session-expiry is an MQTT v5 CONNECT property; the carried
// paho.mqtt.golang client speaks v3.1.1, which has no such field, so
// persistence across reconnects relies on CleanSession(false) plus whatever
// the broker is configured to retain for that client id.
const reconnectBackoff = 5 * time.Second

// Config carries the connection parameters for one broker.
type Config struct {
	Broker   string
	ClientID string
	Username string
	Password string
}

// Message is delivered to a subscription handler.
type Message struct {
	Topic   string
	Payload []byte
	Decoded any // non-nil if Payload parsed as JSON
}

// Handler receives a message for a subscribed topic.
type Handler func(msg Message)

// Client is the Publish/Subscribe Client interface (C11).
type Client interface {
	Connect(ctx context.Context) error
	Publish(ctx context.Context, topic string, payload []byte, retain bool) error
	Subscribe(topic string, handler Handler) error
	IsConnected() bool
	Disconnect()
}

// client implements Client over paho.mqtt.golang. Subscription dispatch is
// single-threaded per subscription: paho invokes each subscription's
// message callback serially, and we don't fan a topic's callback out
// across goroutines, so handler ordering within a topic is preserved.
type client struct {
	config          Config
	internalClient  mqtt.Client
	lastConnAttempt time.Time
	mu              sync.Mutex
	subs            map[string]Handler
	reconnectTimer  *time.Timer
	reconnectStop   chan struct{}
	log             *slog.Logger
}

// NewClient creates a new MQTT client with the provided configuration.
func NewClient(settings *conf.Settings) Client {
	return &client{
		config: Config{
			Broker:   settings.MQTT.Broker,
			ClientID: settings.MQTT.ClientID,
			Username: settings.MQTT.Username,
			Password: settings.MQTT.Password,
		},
		subs:          make(map[string]Handler),
		reconnectStop: make(chan struct{}),
		log:           logging.ForService("mqtt"),
	}
}

// Connect attempts to establish a connection to the MQTT broker.
// It first resolves the broker's hostname and then attempts to connect.
func (c *client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastConnAttempt = time.Now()

	if err := c.resolveBrokerHostname(); err != nil {
		return errors.New(err).Component("mqtt").Category(errors.CategoryNetwork).Build()
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(c.config.Broker)
	opts.SetClientID(c.config.ClientID)
	opts.SetUsername(c.config.Username)
	opts.SetPassword(c.config.Password)
	opts.SetCleanSession(false)
	opts.SetConnectRetry(true)
	opts.SetAutoReconnect(false) // reconnect is driven by us, at a fixed 5s back-off
	opts.SetKeepAlive(30 * time.Second)
	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)

	c.internalClient = mqtt.NewClient(opts)

	token := c.internalClient.Connect()
	if !token.WaitTimeout(30 * time.Second) {
		return errors.New(fmt.Errorf("connection timeout")).
			Component("mqtt").Category(errors.CategoryNetwork).Build()
	}
	if err := token.Error(); err != nil {
		return errors.New(err).Component("mqtt").Category(errors.CategoryNetwork).Build()
	}

	return nil
}

// resolveBrokerHostname attempts to resolve the hostname of the MQTT broker.
func (c *client) resolveBrokerHostname() error {
	u, err := url.Parse(c.config.Broker)
	if err != nil {
		return fmt.Errorf("invalid broker URL: %w", err)
	}

	host := u.Hostname()
	if _, err := net.LookupHost(host); err != nil {
		return fmt.Errorf("failed to resolve hostname %s: %w", host, err)
	}
	return nil
}

// Publish sends a message to the specified topic on the MQTT broker.
func (c *client) Publish(ctx context.Context, topic string, payload []byte, retain bool) error {
	c.mu.Lock()
	connected := c.isConnectedLocked()
	internal := c.internalClient
	c.mu.Unlock()

	if !connected {
		return errors.New(fmt.Errorf("not connected to MQTT broker")).
			Component("mqtt").Category(errors.CategoryNetwork).Build()
	}

	token := internal.Publish(topic, 0, retain, payload)
	if !token.WaitTimeout(10 * time.Second) {
		return errors.New(fmt.Errorf("publish timeout")).
			Component("mqtt").Category(errors.CategoryNetwork).Build()
	}
	return token.Error()
}

// Subscribe registers handler for topic. If the client isn't currently
// connected the subscription is applied on the next successful connect.
func (c *client) Subscribe(topic string, handler Handler) error {
	c.mu.Lock()
	c.subs[topic] = handler
	internal := c.internalClient
	connected := c.isConnectedLocked()
	c.mu.Unlock()

	if !connected {
		return nil
	}
	return c.subscribeOne(internal, topic, handler)
}

func (c *client) subscribeOne(internal mqtt.Client, topic string, handler Handler) error {
	token := internal.Subscribe(topic, 0, func(_ mqtt.Client, m mqtt.Message) {
		msg := Message{Topic: m.Topic(), Payload: m.Payload()}
		var decoded any
		if json.Unmarshal(m.Payload(), &decoded) == nil {
			msg.Decoded = decoded
		}
		handler(msg)
	})
	if !token.WaitTimeout(10 * time.Second) {
		return errors.New(fmt.Errorf("subscribe timeout")).
			Component("mqtt").Category(errors.CategoryNetwork).Build()
	}
	return token.Error()
}

// IsConnected returns true if the client is currently connected to the MQTT broker.
func (c *client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isConnectedLocked()
}

func (c *client) isConnectedLocked() bool {
	return c.internalClient != nil && c.internalClient.IsConnected()
}

// Disconnect closes the connection to the MQTT broker.
func (c *client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.internalClient != nil && c.internalClient.IsConnected() {
		c.internalClient.Disconnect(250)
	}
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
	}
	select {
	case <-c.reconnectStop:
	default:
		close(c.reconnectStop)
	}
}

func (c *client) onConnect(_ mqtt.Client) {
	c.log.Info("connected to MQTT broker", "broker", c.config.Broker)

	c.mu.Lock()
	internal := c.internalClient
	subs := make(map[string]Handler, len(c.subs))
	for topic, h := range c.subs {
		subs[topic] = h
	}
	c.mu.Unlock()

	for topic, h := range subs {
		if err := c.subscribeOne(internal, topic, h); err != nil {
			c.log.Error("resubscribe failed", "topic", topic, "error", err)
		}
	}
}

func (c *client) onConnectionLost(_ mqtt.Client, err error) {
	c.log.Warn("connection to MQTT broker lost", "broker", c.config.Broker, "error", err)
	c.startReconnectTimer()
}

func (c *client) startReconnectTimer() {
	c.mu.Lock()
	c.reconnectTimer = time.AfterFunc(reconnectBackoff, c.reconnectOnce)
	c.mu.Unlock()
}

func (c *client) reconnectOnce() {
	select {
	case <-c.reconnectStop:
		return
	default:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err := c.Connect(ctx)
	cancel()

	if err == nil {
		c.log.Info("reconnected to MQTT broker")
		return
	}
	c.log.Warn("reconnect failed, retrying", "error", err, "backoff", reconnectBackoff)
	c.startReconnectTimer()
}

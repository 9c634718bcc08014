// Package mqtt connects kyberd to an MQTT broker. Status goes out on
// kyber/status/node/<client_id>/, button commands come in on
// kyber/cmd/<client_id>/button.
package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	online  = "online"
	offline = "offline"

	tokenTimeout = 5 * time.Second
)

// StatusTopic returns the status topic leaf for clientID.
func StatusTopic(clientID, leaf string) string {
	return "kyber/status/node/" + clientID + "/" + leaf
}

// CommandTopic returns the topic clientID takes button commands from.
func CommandTopic(clientID string) string {
	return "kyber/cmd/" + clientID + "/button"
}

// Config holds MQTT connection settings.
type Config struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"` // default 1883, 8883 with TLS
	CACert     string `yaml:"ca_cert"`
	ClientCert string `yaml:"client_cert"`
	ClientKey  string `yaml:"client_key"`

	// PingSecs is the interval between ping messages, default 120.
	PingSecs int `yaml:"ping_secs"`
}

func (c Config) secure() bool { return c.CACert != "" || c.ClientCert != "" }

func brokerURL(cfg Config) string {
	scheme, port := "tcp", 1883
	if cfg.secure() {
		scheme, port = "ssl", 8883
	}
	if cfg.Port != 0 {
		port = cfg.Port
	}
	return fmt.Sprintf("%s://%s:%d", scheme, cfg.Host, port)
}

// Handlers holds callback functions for MQTT events.
// They run on paho goroutines.
type Handlers struct {
	OnConnect    func()
	OnDisconnect func()

	// OnCommand receives each payload published to CommandTopic.
	OnCommand func(payload string)
}

// Client is the broker connection. A Client built without a host is
// disabled and every method is a no-op.
type Client struct {
	client   paho.Client
	clientID string
	handlers Handlers
	log      *slog.Logger
}

// New creates a client. Nothing is dialed until Connect.
func New(cfg Config, clientID string, handlers Handlers, logger *slog.Logger) (*Client, error) {
	c := &Client{clientID: clientID, handlers: handlers, log: logger}
	if cfg.Host == "" {
		c.log.Info("MQTT disabled (no host configured)")
		return c, nil
	}

	opts, err := c.options(cfg)
	if err != nil {
		return nil, err
	}
	c.client = paho.NewClient(opts)

	paho.ERROR = pahoLogger{logger, slog.LevelError}
	paho.CRITICAL = pahoLogger{logger, slog.LevelError}
	paho.WARN = pahoLogger{logger, slog.LevelWarn}
	return c, nil
}

func (c *Client) options(cfg Config) (*paho.ClientOptions, error) {
	broker := brokerURL(cfg)
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(c.clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetKeepAlive(60 * time.Second).
		SetWill(StatusTopic(c.clientID, online), offline, 1, true).
		SetConnectionLostHandler(c.handleConnectionLost).
		SetOnConnectHandler(c.handleConnect)

	if cfg.secure() {
		tlsConfig, err := buildTLSConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("build TLS config: %w", err)
		}
		opts.SetTLSConfig(tlsConfig)
	} else {
		c.log.Info("MQTT using non-TLS connection", "broker", broker)
	}
	return opts, nil
}

func buildTLSConfig(cfg Config) (*tls.Config, error) {
	tlsConfig := &tls.Config{}

	if cfg.CACert != "" {
		caCert, err := os.ReadFile(cfg.CACert)
		if err != nil {
			return nil, fmt.Errorf("read CA cert: %w", err)
		}
		caPool := x509.NewCertPool()
		if !caPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("CA cert %s: no PEM certificates", cfg.CACert)
		}
		tlsConfig.RootCAs = caPool
	}

	if cfg.ClientCert != "" && cfg.ClientKey != "" {
		cert, err := tls.LoadX509KeyPair(cfg.ClientCert, cfg.ClientKey)
		if err != nil {
			return nil, fmt.Errorf("load client cert: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}

// Connect dials the broker and blocks until the first attempt settles.
// A disabled client calls OnConnect immediately.
func (c *Client) Connect() error {
	if !c.IsEnabled() {
		if c.handlers.OnConnect != nil {
			c.handlers.OnConnect()
		}
		return nil
	}

	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("connect: %w", token.Error())
	}
	return nil
}

// Disconnect marks the node offline and closes the connection.
func (c *Client) Disconnect() {
	if !c.IsEnabled() || !c.client.IsConnected() {
		return
	}
	c.client.Publish(StatusTopic(c.clientID, online), 1, true, offline).WaitTimeout(tokenTimeout)
	c.client.Disconnect(250)
}

// Publish publishes a message to a topic.
func (c *Client) Publish(topic string, payload string) {
	if !c.IsEnabled() {
		return
	}
	c.client.Publish(topic, 0, false, payload)
}

// PublishRetained publishes a retained message.
func (c *Client) PublishRetained(topic string, payload string) {
	if !c.IsEnabled() {
		return
	}
	c.client.Publish(topic, 0, true, payload)
}

// IsEnabled returns whether a broker is configured.
func (c *Client) IsEnabled() bool {
	return c.client != nil
}

// handleConnect runs after every (re)connect. The session is clean, so the
// command subscription is renewed each time.
func (c *Client) handleConnect(client paho.Client) {
	client.Publish(StatusTopic(c.clientID, online), 1, true, online)

	topic := CommandTopic(c.clientID)
	token := client.Subscribe(topic, 1, c.handleCommand)
	if !token.WaitTimeout(tokenTimeout) {
		c.log.Warn("MQTT subscribe timed out", "topic", topic)
	} else if err := token.Error(); err != nil {
		c.log.Warn("MQTT subscribe failed", "topic", topic, "error", err)
	} else {
		c.log.Info("MQTT connected", "commands", topic)
	}

	if c.handlers.OnConnect != nil {
		c.handlers.OnConnect()
	}
}

func (c *Client) handleConnectionLost(_ paho.Client, err error) {
	c.log.Warn("MQTT connection lost", "error", err)
	if c.handlers.OnDisconnect != nil {
		c.handlers.OnDisconnect()
	}
}

func (c *Client) handleCommand(_ paho.Client, msg paho.Message) {
	payload := strings.TrimSpace(string(msg.Payload()))
	c.log.Debug("MQTT command", "topic", msg.Topic(), "payload", payload)
	if payload == "" || c.handlers.OnCommand == nil {
		return
	}
	c.handlers.OnCommand(payload)
}

// pahoLogger routes paho's internal logging into slog.
type pahoLogger struct {
	log   *slog.Logger
	level slog.Level
}

func (l pahoLogger) Println(v ...any) {
	l.log.Log(context.Background(), l.level, strings.TrimSpace(fmt.Sprintln(v...)))
}

func (l pahoLogger) Printf(format string, v ...any) {
	l.log.Log(context.Background(), l.level, fmt.Sprintf(format, v...))
}

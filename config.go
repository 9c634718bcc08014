package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"kyberd/button"
	"kyberd/display"
	"kyberd/eventpipe"
	"kyberd/mqtt"
	"kyberd/power"
	"kyberd/preset"
	"kyberd/reader"
	"kyberd/strip"
)

// Config is the main configuration structure for kyberd.
type Config struct {
	// MQTT connection settings
	MQTT mqtt.Config `yaml:"mqtt"`

	// Reader configuration
	Reader reader.Config `yaml:"reader"`

	// Power button
	Button button.Config `yaml:"button"`

	// Bench-test command pipe
	EventPipe eventpipe.Config `yaml:"eventpipe"`

	// Status screen
	Display display.Config `yaml:"display"`

	// Blade and crystal outputs
	Main    ChannelConfig `yaml:"main"`
	Crystal ChannelConfig `yaml:"crystal"`

	// General settings
	ClientID       string `yaml:"client_id"`
	PresetFile     string `yaml:"preset_file"`
	RecallFile     string `yaml:"recall_file"`
	FeedbackMs     int    `yaml:"feedback_ms"`
	TickMs         int    `yaml:"tick_ms"`
	EdgeActivation bool   `yaml:"edge_activation"`
	MetricsAddr    string `yaml:"metrics_addr"`

	Log LogConfig `yaml:"log"`
}

// ChannelConfig describes one pixel channel.
type ChannelConfig struct {
	Strip strip.Config `yaml:"strip"`
	Power power.Config `yaml:"power"`
}

// LogConfig selects the log handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// loadConfig reads and validates the config file at path.
func loadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.PresetFile == "" {
		c.PresetFile = preset.DefaultPath
	}
	if c.RecallFile == "" {
		c.RecallFile = preset.DefaultRecallPath
	}
	if c.FeedbackMs <= 0 {
		c.FeedbackMs = 6000
	}
	if c.TickMs <= 0 {
		c.TickMs = 10
	}
	if c.Crystal.Strip.Pixels == 0 {
		c.Crystal.Strip.Pixels = 1
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func (c *Config) validate() error {
	if c.MQTT.Host != "" && c.ClientID == "" {
		return errors.New("client_id missing in config file")
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

// Feedback returns the bond animation length.
func (c *Config) Feedback() time.Duration {
	return time.Duration(c.FeedbackMs) * time.Millisecond
}

// Tick returns the main loop period.
func (c *Config) Tick() time.Duration {
	return time.Duration(c.TickMs) * time.Millisecond
}

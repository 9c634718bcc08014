// Package reader talks to the NFC reader that detects crystals.
package reader

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"kyberd/crystal"
)

// Device is the capability every reader implementation provides.
type Device interface {
	// Handshake checks the reader is present and returns its firmware version.
	Handshake() (string, error)

	// Configure puts the reader in normal mode, waking it if needed.
	Configure() error

	// ReadTag waits up to timeout for a tag in the field.
	// A missing tag is reported as (TagID{}, false, nil).
	ReadTag(timeout time.Duration) (TagID, bool, error)

	// ReadPage reads one 4-byte page from the last tag ReadTag found.
	ReadPage(page uint8) ([crystal.PageSize]byte, error)

	// Close releases the underlying bus or port.
	Close() error
}

var (
	// ErrNoResponse is returned when the reader did not answer in time.
	ErrNoResponse = errors.New("reader: no response")
	// ErrNoTag is returned for page access without a selected tag.
	ErrNoTag = errors.New("reader: no tag selected")
	// ErrShortBlock is returned when a tag read returns less than a page.
	ErrShortBlock = errors.New("reader: short block")
)

// Config holds configuration for reader implementations.
type Config struct {
	Type   string `yaml:"type"`   // "pn532-i2c", "pn532-uart", "none"
	Device string `yaml:"device"` // e.g. "/dev/i2c-1", "/dev/ttyUSB0"

	// TimeoutSecs is how long the reader stays awake after activation.
	// nil means 60, 0 means never sleep.
	TimeoutSecs *int `yaml:"timeout_secs"`
}

// IdleTimeout returns the configured idle timeout.
func (c Config) IdleTimeout() time.Duration {
	if c.TimeoutSecs == nil {
		return 60 * time.Second
	}
	return time.Duration(*c.TimeoutSecs) * time.Second
}

// New creates a Device based on the provided configuration.
func New(cfg Config, log *slog.Logger) (Device, error) {
	switch cfg.Type {
	case "pn532-i2c", "i2c":
		c, err := openChip(transportI2C, cfg.Device)
		if err != nil {
			return nil, err
		}
		return NewPN532(c, log), nil
	case "pn532-uart", "pn532-serial", "serial":
		c, err := openChip(transportUART, cfg.Device)
		if err != nil {
			return nil, err
		}
		return NewPN532(c, log), nil
	case "", "none":
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown reader type %q", cfg.Type)
	}
}

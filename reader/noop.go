package reader

import (
	"time"

	"kyberd/crystal"
)

// Noop implements Device but never answers.
// Used when no reader is configured; the handshake always fails.
type Noop struct{}

// Handshake implements Device.Handshake.
func (Noop) Handshake() (string, error) { return "", ErrNoResponse }

// Configure implements Device.Configure.
func (Noop) Configure() error { return ErrNoResponse }

// ReadTag implements Device.ReadTag.
func (Noop) ReadTag(time.Duration) (TagID, bool, error) { return TagID{}, false, nil }

// ReadPage implements Device.ReadPage.
func (Noop) ReadPage(uint8) ([crystal.PageSize]byte, error) {
	return [crystal.PageSize]byte{}, ErrNoResponse
}

// Close implements Device.Close.
func (Noop) Close() error { return nil }

//go:build !linux

package button

import (
	"errors"
	"log/slog"
)

// ErrUnsupported is returned for button sources unavailable on this platform.
var ErrUnsupported = errors.New("button: not supported on this platform")

// NewGPIO is not available on this platform.
func NewGPIO(Config, *slog.Logger) (Source, error) { return nil, ErrUnsupported }

// NewEvdev is not available on this platform.
func NewEvdev(Config, *slog.Logger) (Source, error) { return nil, ErrUnsupported }

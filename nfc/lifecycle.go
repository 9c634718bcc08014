// Package nfc owns the reader power lifecycle and crystal arrival/removal detection.
package nfc

import (
	"log/slog"
	"time"

	"kyberd/reader"
)

// State is the reader power state.
type State int

const (
	Uninitialized State = iota
	Active
	Sleeping
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Active:
		return "active"
	case Sleeping:
		return "sleeping"
	default:
		return "unknown"
	}
}

// Handlers holds callbacks for lifecycle transitions.
type Handlers struct {
	OnSleep       func()      // reader went to sleep; forget tag presence
	OnStateChange func(State) // any state transition
}

// Lifecycle tracks whether the reader is usable and puts it to sleep after an
// idle timeout. A zero timeout keeps it awake forever.
type Lifecycle struct {
	dev         reader.Device
	timeout     time.Duration
	state       State
	activatedAt time.Time
	missing     bool
	handlers    Handlers
	log         *slog.Logger
}

// NewLifecycle creates a lifecycle controller for an uninitialized reader.
func NewLifecycle(dev reader.Device, timeout time.Duration, log *slog.Logger, handlers Handlers) *Lifecycle {
	return &Lifecycle{
		dev:      dev,
		timeout:  timeout,
		handlers: handlers,
		log:      log,
	}
}

// State returns the current reader state.
func (l *Lifecycle) State() State { return l.state }

// Initialized reports whether the handshake has succeeded.
func (l *Lifecycle) Initialized() bool { return l.state != Uninitialized }

// TryInitialize handshakes with the reader and activates it on success.
// It is safe to call on every tick until it succeeds.
func (l *Lifecycle) TryInitialize(now time.Time) bool {
	if l.state != Uninitialized {
		return true
	}

	ver, err := l.dev.Handshake()
	if err != nil {
		if !l.missing {
			l.log.Info("NFC module not found", "error", err)
			l.missing = true
		}
		return false
	}

	if err := l.dev.Configure(); err != nil {
		if !l.missing {
			l.log.Warn("Configure reader", "error", err)
			l.missing = true
		}
		return false
	}

	l.log.Info("Found NFC module", "firmware", ver)
	l.missing = false
	l.activate(now)
	return true
}

// Activate wakes the reader and restarts the idle timer.
func (l *Lifecycle) Activate(now time.Time) {
	if l.state != Sleeping {
		return
	}

	if err := l.dev.Configure(); err != nil {
		l.log.Warn("Wake reader", "error", err)
	}
	l.activate(now)
}

func (l *Lifecycle) activate(now time.Time) {
	l.activatedAt = now
	l.setState(Active)

	if l.timeout > 0 {
		l.log.Info("NFC active", "sleep_after", l.timeout)
	} else {
		l.log.Info("NFC active, timeout disabled")
	}
}

// Deactivate puts the reader to sleep and clears tag presence.
func (l *Lifecycle) Deactivate() {
	if l.state != Active {
		return
	}

	l.log.Info("NFC sleeping")
	l.setState(Sleeping)
	if l.handlers.OnSleep != nil {
		l.handlers.OnSleep()
	}
}

// ResetIdle restarts the idle timer of an active reader.
func (l *Lifecycle) ResetIdle(now time.Time) {
	if l.state != Active {
		return
	}
	l.activatedAt = now
	l.log.Debug("NFC timeout reset")
}

// Tick sleeps the reader once the idle timeout has elapsed.
func (l *Lifecycle) Tick(now time.Time) {
	if l.state != Active || l.timeout <= 0 {
		return
	}
	if now.Sub(l.activatedAt) >= l.timeout {
		l.log.Info("NFC timeout reached", "timeout", l.timeout)
		l.Deactivate()
	}
}

func (l *Lifecycle) setState(s State) {
	if l.state == s {
		return
	}
	l.state = s
	if l.handlers.OnStateChange != nil {
		l.handlers.OnStateChange(s)
	}
}

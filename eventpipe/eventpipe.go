// Package eventpipe accepts bench-test commands on a named pipe.
package eventpipe

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"syscall"
	"time"

	"kyberd/button"
)

// Config holds configuration for the event pipe.
type Config struct {
	Path string `yaml:"path"` // Path to named pipe (e.g., "/tmp/kyberd-events")
}

// Command is one parsed pipe line. Either Pressed is meaningful (raw edge,
// Gesture == 0) or Gesture names a synthetic click or hold.
type Command struct {
	Button  button.Button
	Pressed bool
	Gesture button.Kind
}

// Edge reports whether the command is a raw edge.
func (c Command) Edge() bool { return c.Gesture == 0 }

// EventHandler is called when a command is received from the pipe.
type EventHandler func(Command)

// EventPipe listens for commands on a named pipe.
type EventPipe struct {
	path    string
	handler EventHandler
	log     *slog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

// New creates a new EventPipe. Returns nil if path is empty.
func New(cfg Config, handler EventHandler, log *slog.Logger) (*EventPipe, error) {
	if cfg.Path == "" {
		return nil, nil
	}

	// Remove existing pipe if it exists
	os.Remove(cfg.Path)

	if err := syscall.Mkfifo(cfg.Path, 0666); err != nil {
		return nil, fmt.Errorf("create named pipe %s: %w", cfg.Path, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &EventPipe{
		path:    cfg.Path,
		handler: handler,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Start begins listening for commands on the pipe.
// This should be called as a goroutine.
func (ep *EventPipe) Start() {
	ep.log.Info("Event pipe listening", "path", ep.path)

	for {
		select {
		case <-ep.ctx.Done():
			return
		default:
		}

		// Blocks until a writer connects
		file, err := os.OpenFile(ep.path, os.O_RDONLY, 0)
		if err != nil {
			if ep.ctx.Err() != nil {
				return
			}
			ep.log.Warn("Event pipe open", "error", err)
			time.Sleep(time.Second)
			continue
		}

		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			if ep.ctx.Err() != nil {
				file.Close()
				return
			}

			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}

			cmd, err := ParseCommand(line)
			if err != nil {
				ep.log.Warn("Event pipe parse", "line", line, "error", err)
				continue
			}
			if ep.handler != nil {
				ep.handler(cmd)
			}
		}

		file.Close()
		// Writer closed the pipe, loop back to wait for next writer
	}
}

// Close stops the listener and removes the pipe.
func (ep *EventPipe) Close() error {
	ep.cancel()
	// Unblock a pending open so Start can observe the cancel
	if f, err := os.OpenFile(ep.path, os.O_WRONLY|syscall.O_NONBLOCK, 0); err == nil {
		f.Close()
	}
	return os.Remove(ep.path)
}

// ParseCommand parses one command line, as read from the pipe or an MQTT payload.
// Command format:
//
//	button [name] press       - raw press edge
//	button [name] release     - raw release edge
//	button [name] click       - synthetic short click
//	button [name] hold        - synthetic medium hold
//
// name is "power" (default) or "aux".
func ParseCommand(line string) (Command, error) {
	parts := strings.Fields(strings.ToLower(line))
	if len(parts) == 0 {
		return Command{}, fmt.Errorf("empty command")
	}
	if parts[0] != "button" && parts[0] != "btn" {
		return Command{}, fmt.Errorf("unknown command: %s", parts[0])
	}

	args := parts[1:]
	cmd := Command{Button: button.Power}
	if len(args) == 2 {
		switch args[0] {
		case "power", "pow":
		case "aux":
			cmd.Button = button.Aux
		default:
			return Command{}, fmt.Errorf("unknown button: %s", args[0])
		}
		args = args[1:]
	}
	if len(args) != 1 {
		return Command{}, fmt.Errorf("button requires press, release, click or hold")
	}

	switch args[0] {
	case "press", "down", "1":
		cmd.Pressed = true
	case "release", "up", "0":
	case "click":
		cmd.Gesture = button.ShortClick
	case "hold":
		cmd.Gesture = button.HeldMedium
	default:
		return Command{}, fmt.Errorf("unknown button action: %s", args[0])
	}
	return cmd, nil
}

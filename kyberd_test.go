package main

import (
	"io"
	"log/slog"
	"testing"

	"kyberd/button"
	"kyberd/eventpipe"
)

func TestMQTTCommandsReachLoop(t *testing.T) {
	app := &App{
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		commands: make(chan eventpipe.Command, 1),
	}

	app.onMQTTCommand("twist the hilt")
	select {
	case cmd := <-app.commands:
		t.Fatalf("bad payload queued %+v", cmd)
	default:
	}

	app.onMQTTCommand("button aux click")
	select {
	case cmd := <-app.commands:
		if cmd.Button != button.Aux || cmd.Gesture != button.ShortClick {
			t.Fatalf("cmd = %+v", cmd)
		}
	default:
		t.Fatal("command not queued")
	}

	app.onMQTTCommand("button press")
	app.onMQTTCommand("button release")
	if len(app.commands) != 1 {
		t.Fatalf("queued %d, want 1 with the rest dropped", len(app.commands))
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"kyberd/blade"
	"kyberd/button"
	"kyberd/controller"
	"kyberd/display"
	"kyberd/eventpipe"
	"kyberd/events"
	"kyberd/metrics"
	"kyberd/mqtt"
	"kyberd/power"
	"kyberd/preset"
	"kyberd/reader"
	"kyberd/strip"
)

// App holds the application state and dependencies.
type App struct {
	cfg      *Config
	log      *slog.Logger
	bus      *events.Bus
	mqtt     *mqtt.Client
	reporter *mqtt.Reporter
	reader   reader.Device
	store    *preset.Store
	host     *blade.Host
	ctrl     *controller.Controller
	button   button.Source
	pipe     *eventpipe.EventPipe
	screen   display.Screen
	status   *display.Status

	commands chan eventpipe.Command
	releases []func() error
	unsubs   []func()
}

// newLogger builds the root logger from cfg.
func newLogger(cfg LogConfig) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
}

func component(log *slog.Logger, name string) *slog.Logger {
	return log.With("component", name)
}

// newChannel opens the strip and power rail for one channel.
func (app *App) newChannel(name string, cfg ChannelConfig) (*blade.Channel, error) {
	s, err := strip.New(cfg.Strip)
	if err != nil {
		return nil, fmt.Errorf("init %s strip: %w", name, err)
	}
	app.releases = append(app.releases, s.Release)

	p, err := power.New(cfg.Power)
	if err != nil {
		return nil, fmt.Errorf("init %s power: %w", name, err)
	}
	app.releases = append(app.releases, p.Release)

	return blade.NewChannel(name, cfg.Strip.Len(), s, p), nil
}

// newApp opens every configured peripheral. On error the peripherals opened
// so far are released.
func newApp(cfg *Config, log *slog.Logger) (app *App, err error) {
	app = &App{
		cfg:      cfg,
		log:      log,
		bus:      events.New(),
		commands: make(chan eventpipe.Command, 16),
	}
	defer func() {
		if err != nil {
			app.release()
		}
	}()

	mainCh, err := app.newChannel("main", cfg.Main)
	if err != nil {
		return nil, err
	}
	crystalCh, err := app.newChannel("crystal", cfg.Crystal)
	if err != nil {
		return nil, err
	}

	app.store = preset.NewStore(cfg.PresetFile)
	presets, err := app.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load presets: %w", err)
	}
	app.host = blade.NewHost(mainCh, crystalCh, presets, app.store, component(log, "blade"))
	if err := app.host.ActivatePreset(0, true); err != nil {
		return nil, fmt.Errorf("activate preset: %w", err)
	}

	app.reader, err = reader.New(cfg.Reader, component(log, "reader"))
	if err != nil {
		return nil, fmt.Errorf("init reader: %w", err)
	}
	app.releases = append(app.releases, app.reader.Close)

	app.button, err = button.New(cfg.Button, component(log, "button"))
	if err != nil {
		return nil, fmt.Errorf("init button: %w", err)
	}
	app.releases = append(app.releases, app.button.Close)

	app.screen, err = display.New(cfg.Display)
	if err != nil {
		return nil, fmt.Errorf("init display: %w", err)
	}
	app.releases = append(app.releases, app.screen.Release)
	app.status = display.NewStatus(app.screen)

	app.pipe, err = eventpipe.New(cfg.EventPipe, app.onCommand, component(log, "eventpipe"))
	if err != nil {
		return nil, fmt.Errorf("init event pipe: %w", err)
	}

	recall := preset.NewRecall(cfg.RecallFile)
	applier := preset.NewApplier(app.host, recall, component(log, "preset"))
	app.ctrl = controller.New(controller.Options{
		Reader:           app.reader,
		IdleTimeout:      cfg.Reader.IdleTimeout(),
		Host:             app.host,
		Applier:          applier,
		Recall:           recall,
		Bus:              app.bus,
		FeedbackDuration: cfg.Feedback(),
		EdgeActivation:   cfg.EdgeActivation,
		Log:              component(log, "controller"),
	})

	app.mqtt, err = mqtt.New(cfg.MQTT, cfg.ClientID, mqtt.Handlers{
		OnConnect:    app.onMQTTConnect,
		OnDisconnect: app.onMQTTDisconnect,
		OnCommand:    app.onMQTTCommand,
	}, component(log, "mqtt"))
	if err != nil {
		return nil, fmt.Errorf("init MQTT: %w", err)
	}
	app.reporter = mqtt.NewReporter(app.mqtt, cfg.ClientID)

	app.unsubs = append(app.unsubs,
		metrics.Subscribe(app.bus),
		app.status.Subscribe(app.bus),
		app.reporter.Subscribe(app.bus),
	)
	return app, nil
}

// onCommand runs on the event pipe or MQTT goroutine and hands commands to the loop.
func (app *App) onCommand(cmd eventpipe.Command) {
	select {
	case app.commands <- cmd:
	default:
		app.log.Warn("Command dropped, loop busy")
	}
}

func (app *App) onMQTTCommand(payload string) {
	cmd, err := eventpipe.ParseCommand(payload)
	if err != nil {
		app.log.Warn("Bad MQTT command", "payload", payload, "error", err)
		return
	}
	app.onCommand(cmd)
}

func (app *App) onMQTTConnect() {
	app.log.Info("Status reporting online", "topic", app.reporter.Topic(""))
}

func (app *App) onMQTTDisconnect() {
	app.log.Warn("Status reporting offline")
}

// handleCommand applies one event pipe command on the loop goroutine.
func (app *App) handleCommand(cmd eventpipe.Command, now time.Time) {
	if cmd.Edge() {
		app.ctrl.Edge(button.Edge{Button: cmd.Button, Pressed: cmd.Pressed, At: now})
		return
	}
	mode := button.ModeOff
	if app.host.IsOn() {
		mode = button.ModeOn
	}
	if !app.ctrl.HandleEvent(cmd.Button, cmd.Gesture, mode) {
		app.log.Debug("Command not handled", "button", cmd.Button, "gesture", cmd.Gesture)
	}
}

// loop runs the controller until ctx is cancelled. All controller and host
// access happens here.
func (app *App) loop(ctx context.Context, reloads <-chan []blade.Preset) {
	ticker := time.NewTicker(app.cfg.Tick())
	defer ticker.Stop()

	var watchdog <-chan time.Time
	if interval, err := daemon.SdWatchdogEnabled(false); err == nil && interval > 0 {
		wt := time.NewTicker(interval / 2)
		defer wt.Stop()
		watchdog = wt.C
		app.log.Info("Systemd watchdog enabled", "interval", interval)
	}

	edges := app.button.Edges()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			app.ctrl.Tick(now)
		case e := <-edges:
			app.ctrl.Edge(e)
		case cmd := <-app.commands:
			app.handleCommand(cmd, time.Now())
		case presets, ok := <-reloads:
			if !ok {
				reloads = nil
				continue
			}
			app.host.ReplacePresets(presets)
		case <-watchdog:
			daemon.SdNotify(false, daemon.SdNotifyWatchdog)
		}
	}
}

// run starts the background workers and blocks until a shutdown signal.
func (app *App) run() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reloads, err := app.store.Watch(ctx, preset.DefaultDebounce, component(app.log, "presets"))
	if err != nil {
		app.log.Warn("Preset hot reload disabled", "error", err)
	}

	if app.cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, app.cfg.MetricsAddr, component(app.log, "metrics")); err != nil {
				app.log.Error("Serve metrics", "error", err)
			}
		}()
	}

	go func() {
		if err := app.mqtt.Connect(); err != nil {
			app.log.Error("MQTT connect", "error", err)
		}
	}()
	if app.mqtt.IsEnabled() {
		ping := app.cfg.MQTT.PingSecs
		if ping <= 0 {
			ping = 120
		}
		go app.reporter.Ping(ctx, time.Duration(ping)*time.Second)
	}
	if app.pipe != nil {
		go app.pipe.Start()
	}

	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		app.log.Warn("Systemd notify", "error", err)
	} else if ok {
		app.log.Debug("Systemd notified ready")
	}
	app.log.Info("kyberd running", "build", myBuild, "presets", len(app.host.Names()))

	app.loop(ctx, reloads)

	app.log.Info("Shutting down")
	daemon.SdNotify(false, daemon.SdNotifyStopping)
}

// release tears down every peripheral in reverse order of opening.
func (app *App) release() {
	for _, unsub := range app.unsubs {
		unsub()
	}
	if app.pipe != nil {
		if err := app.pipe.Close(); err != nil {
			app.log.Warn("Close event pipe", "error", err)
		}
	}
	if app.mqtt != nil {
		app.mqtt.Disconnect()
	}
	if app.host != nil {
		app.host.Off()
		app.host.Crystal.UnsetEffect()
		if err := app.host.Render(time.Now()); err != nil {
			app.log.Warn("Render off frame", "error", err)
		}
	}

	var errs []error
	for i := len(app.releases) - 1; i >= 0; i-- {
		if err := app.releases[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		app.log.Warn("Release hardware", "error", err)
	}
	app.bus.Close()
}

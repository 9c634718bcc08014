// Package controller runs the crystal bonding loop: it polls the reader,
// binds a detected crystal's color into its preset and handles the power
// button.
package controller

import (
	"log/slog"
	"time"

	"kyberd/blade"
	"kyberd/button"
	"kyberd/crystal"
	"kyberd/events"
	"kyberd/feedback"
	"kyberd/nfc"
	"kyberd/preset"
	"kyberd/reader"
)

// Publisher receives domain events. *events.Bus satisfies it.
type Publisher interface {
	Publish(ev events.Event)
}

// Recaller loads the last bonded preset index.
type Recaller interface {
	Load() (int, error)
}

// Options wires a Controller.
type Options struct {
	Reader      reader.Device
	IdleTimeout time.Duration
	Host        *blade.Host
	Applier     *preset.Applier
	Recall      Recaller  // optional
	Bus         Publisher // optional

	// FeedbackDuration is the bond animation length, default 6s.
	FeedbackDuration time.Duration

	// EdgeActivation keeps the crystal pulsing while the main output is on.
	EdgeActivation bool

	// Clock returns the current time after blocking steps, default time.Now.
	Clock func() time.Time

	Log *slog.Logger
}

// Controller owns all bonding state. It is not safe for concurrent use;
// Tick and the event handlers must run on one goroutine.
type Controller struct {
	dev      reader.Device
	host     *blade.Host
	applier  *preset.Applier
	recall   Recaller
	bus      Publisher
	life     *nfc.Lifecycle
	detector *nfc.Detector
	anim     *feedback.Animator
	power    button.Decoder
	log      *slog.Logger

	feedback       time.Duration
	edgeActivation bool
	clock          func() time.Time

	recalled  bool            // quick-recall consumed by the first power on
	payload   crystal.Payload // last decoded crystal, kept across partial reads
	renderErr string
}

// New creates a controller from opts.
func New(opts Options) *Controller {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	c := &Controller{
		dev:            opts.Reader,
		host:           opts.Host,
		applier:        opts.Applier,
		recall:         opts.Recall,
		bus:            opts.Bus,
		log:            opts.Log,
		feedback:       opts.FeedbackDuration,
		edgeActivation: opts.EdgeActivation,
		clock:          opts.Clock,
	}
	if c.feedback <= 0 {
		c.feedback = feedback.BondDuration
	}
	if c.clock == nil {
		c.clock = time.Now
	}

	c.detector = nfc.NewDetector(opts.Reader, opts.Log.With("component", "detector"))
	c.detector.OnPoll = func(present bool) {
		c.publish(events.ReaderPolled{Present: present})
	}
	c.life = nfc.NewLifecycle(opts.Reader, opts.IdleTimeout, opts.Log.With("component", "nfc"), nfc.Handlers{
		OnSleep: c.detector.ClearPresent,
		OnStateChange: func(s nfc.State) {
			c.publish(events.ReaderStateChanged{State: s.String(), Timestamp: stamp(c.clock())})
		},
	})
	c.anim = feedback.NewAnimator(opts.Host.Crystal, opts.Log.With("component", "feedback"))

	if c.applier != nil {
		c.applier.OnFailure = func(step preset.Step, err error) {
			c.publish(events.ApplyFailed{Step: string(step), Error: err.Error()})
		}
	}
	return c
}

// Lifecycle returns the reader lifecycle.
func (c *Controller) Lifecycle() *nfc.Lifecycle { return c.life }

// Animator returns the crystal feedback animator.
func (c *Controller) Animator() *feedback.Animator { return c.anim }

// Payload returns the most recently decoded crystal.
func (c *Controller) Payload() crystal.Payload { return c.payload }

// Tick advances every timer, polls the reader and renders one frame.
func (c *Controller) Tick(now time.Time) {
	if !c.life.Initialized() {
		c.life.TryInitialize(now)
	}
	c.life.Tick(now)

	if k, ok := c.power.Tick(now); ok {
		c.HandleEvent(button.Power, k, c.mode())
	}

	if !c.host.IsOn() && c.life.State() == nfc.Active {
		if ev, ok := c.detector.Poll(now); ok {
			switch ev.Kind {
			case nfc.TagArrived:
				c.bond(ev.ID)
			case nfc.TagRemoved:
				c.publish(events.CrystalRemoved{UID: ev.ID.String(), Timestamp: stamp(now)})
			}
		}
	}

	c.anim.Tick(now)
	if err := c.host.Render(now); err != nil {
		if msg := err.Error(); msg != c.renderErr {
			c.log.Warn("Render", "error", err)
			c.renderErr = msg
		}
	} else {
		c.renderErr = ""
	}
}

// Edge feeds a raw power button edge.
func (c *Controller) Edge(e button.Edge) {
	if e.Button != button.Power {
		return
	}
	if k, ok := c.power.Edge(e.Pressed, e.At); ok {
		c.HandleEvent(e.Button, k, c.mode())
	}
}

// HandleEvent handles a button gesture and reports whether it was consumed.
func (c *Controller) HandleEvent(b button.Button, kind button.Kind, mode button.Mode) bool {
	switch {
	case b == button.Power && kind == button.ShortClick && mode == button.ModeOff:
		c.turnOn()
		return true
	case b == button.Power && kind == button.HeldMedium && mode == button.ModeOn:
		now := c.clock()
		if c.anim.TemporaryActive(now) {
			c.log.Info("Off ignored, crystal feedback still active")
			return true
		}
		c.turnOff(now)
		return true
	default:
		return false
	}
}

func (c *Controller) mode() button.Mode {
	if c.host.IsOn() {
		return button.ModeOn
	}
	return button.ModeOff
}

func (c *Controller) turnOn() {
	c.host.On()

	if !c.recalled {
		c.recalled = true
		if c.recall != nil {
			if idx, err := c.recall.Load(); err != nil {
				c.log.Debug("No saved preset", "error", err)
			} else {
				c.log.Info("Loading saved preset", "index", idx)
				if err := c.host.ActivatePreset(idx, true); err != nil {
					c.log.Warn("Reload saved preset", "index", idx, "error", err)
				}
			}
		}
	}

	now := c.clock()
	if c.edgeActivation {
		c.anim.Activate(0, c.color(), now)
	}
	c.publish(events.PowerChanged{On: true, Preset: c.host.Current(), Timestamp: stamp(now)})
}

func (c *Controller) turnOff(now time.Time) {
	c.host.Off()

	// The reader idle timer restarts whenever the output turns off.
	switch c.life.State() {
	case nfc.Sleeping:
		c.life.Activate(now)
	case nfc.Active:
		c.life.ResetIdle(now)
	}

	if c.edgeActivation {
		c.anim.Deactivate()
	}
	c.publish(events.PowerChanged{On: false, Preset: c.host.Current(), Timestamp: stamp(now)})
}

func (c *Controller) bond(id reader.TagID) {
	p, err := crystal.ReadPayload(c.dev, c.payload)
	c.payload = p
	if err != nil {
		c.log.Warn("Read crystal", "uid", id.String(), "error", err)
		return
	}
	c.log.Info("Crystal read", "uid", id.String(), "name", p.Name, "r", p.R, "g", p.G, "b", p.B)

	idx, found := preset.Resolve(p.Name, c.host.Names())
	if !found {
		c.log.Warn("Preset not found, using default", "name", p.Name, "index", 0)
	}

	color := c.color()
	if err := c.applier.Apply(idx, color); err != nil {
		c.log.Debug("Apply incomplete", "error", err)
	}

	now := c.clock()
	c.anim.Activate(c.feedback, color, now)

	var name string
	if pr, ok := c.host.CurrentPreset(); ok {
		name = pr.Name
	}
	c.log.Info("Crystal bonded", "color", p.String(), "preset", name)
	c.publish(events.CrystalBonded{
		UID:        id.String(),
		Name:       p.Name,
		Preset:     idx,
		PresetName: name,
		Found:      found,
		R:          p.R,
		G:          p.G,
		B:          p.B,
		Timestamp:  stamp(now),
	})
}

func (c *Controller) color() blade.Color {
	return blade.From8(c.payload.R, c.payload.G, c.payload.B)
}

func (c *Controller) publish(ev events.Event) {
	if c.bus != nil {
		c.bus.Publish(ev)
	}
}

func stamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

package preset

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"kyberd/blade"
)

// SettleDelay separates persisting a bond from the final preset activation.
const SettleDelay = 200 * time.Millisecond

// Host is the part of the lighting host the applier drives.
type Host interface {
	ActivatePreset(index int, immediate bool) error
	BuildOverride(index, slot int, color blade.Color) string
	SetMainStyle(style string) error
	PersistCurrent() error
}

// IndexStore remembers the last bonded preset index.
type IndexStore interface {
	Store(index int) error
}

// Step names the stage of Apply that failed.
type Step string

const (
	StepSelect   Step = "select"
	StepOverride Step = "override"
	StepPersist  Step = "persist"
	StepRecall   Step = "recall"
	StepActivate Step = "activate"
)

// Applier binds a crystal color into a preset.
type Applier struct {
	host   Host
	recall IndexStore
	settle time.Duration
	log    *slog.Logger

	// Sleep waits out the settle delay, default time.Sleep.
	Sleep func(time.Duration)

	// OnFailure is called for every failed step.
	OnFailure func(step Step, err error)
}

// NewApplier creates an applier. recall may be nil.
func NewApplier(host Host, recall IndexStore, log *slog.Logger) *Applier {
	return &Applier{
		host:   host,
		recall: recall,
		settle: SettleDelay,
		log:    log,
		Sleep:  time.Sleep,
	}
}

// Apply selects preset index, overrides its main style with color, persists
// the result and activates it. Every step runs even if an earlier one fails;
// the returned error joins all failures.
func (a *Applier) Apply(index int, color blade.Color) error {
	var errs []error
	fail := func(step Step, err error) {
		err = fmt.Errorf("%s: %w", step, err)
		a.log.Warn("Apply crystal", "step", string(step), "error", err)
		if a.OnFailure != nil {
			a.OnFailure(step, err)
		}
		errs = append(errs, err)
	}

	a.log.Info("Applying color", "color", color.String(), "preset", index)
	if err := a.host.ActivatePreset(index, false); err != nil {
		fail(StepSelect, err)
	}

	style := a.host.BuildOverride(index, blade.OverrideSlot, color)
	a.log.Debug("Override style", "style", style)
	if err := a.host.SetMainStyle(style); err != nil {
		fail(StepOverride, err)
	}

	if err := a.host.PersistCurrent(); err != nil {
		fail(StepPersist, err)
	}
	if a.recall != nil {
		if err := a.recall.Store(index); err != nil {
			fail(StepRecall, err)
		} else {
			a.log.Debug("Saved current preset", "index", index)
		}
	}

	a.Sleep(a.settle)

	if err := a.host.ActivatePreset(index, true); err != nil {
		fail(StepActivate, err)
	}
	return errors.Join(errs...)
}

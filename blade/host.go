package blade

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrNoPreset is returned for preset indexes outside the loaded list.
var ErrNoPreset = errors.New("blade: no such preset")

// OverrideSlot is the style argument slot that carries the bound color.
const OverrideSlot = 1

// Preset is one entry of the preset list.
type Preset struct {
	Name         string
	Track        string
	Color        Color // base color
	MainStyle    string
	CrystalStyle string
}

// Persister saves the preset list.
type Persister interface {
	Save(presets []Preset) error
}

// Host owns the main and crystal channels and the preset list.
type Host struct {
	Main    *Channel
	Crystal *Channel

	presets []Preset
	current int
	on      bool
	store   Persister
	log     *slog.Logger
}

// NewHost creates a host with the given presets. store may be nil.
func NewHost(main, crystal *Channel, presets []Preset, store Persister, log *slog.Logger) *Host {
	return &Host{
		Main:    main,
		Crystal: crystal,
		presets: append([]Preset(nil), presets...),
		store:   store,
		log:     log,
	}
}

// Names returns preset names in order.
func (h *Host) Names() []string {
	names := make([]string, len(h.presets))
	for i, p := range h.presets {
		names[i] = p.Name
	}
	return names
}

// Presets returns a copy of the preset list.
func (h *Host) Presets() []Preset {
	return append([]Preset(nil), h.presets...)
}

// Current returns the selected preset index.
func (h *Host) Current() int { return h.current }

// CurrentPreset returns the selected preset.
func (h *Host) CurrentPreset() (Preset, bool) {
	if h.current < 0 || h.current >= len(h.presets) {
		return Preset{}, false
	}
	return h.presets[h.current], true
}

// IsOn reports whether the main output is on.
func (h *Host) IsOn() bool { return h.on }

// On turns the main output on. It reports whether anything changed.
func (h *Host) On() bool {
	if h.on {
		return false
	}
	h.on = true
	h.log.Info("Main output on", "preset", h.current)
	return true
}

// Off turns the main output off. It reports whether anything changed.
func (h *Host) Off() bool {
	if !h.on {
		return false
	}
	h.on = false
	h.log.Info("Main output off")
	return true
}

// ActivatePreset selects a preset. When immediate is set the channels are
// rebuilt from the preset styles right away; otherwise only the selection
// changes.
func (h *Host) ActivatePreset(index int, immediate bool) error {
	if index < 0 || index >= len(h.presets) {
		return fmt.Errorf("%w: %d of %d", ErrNoPreset, index, len(h.presets))
	}
	h.current = index
	if !immediate {
		return nil
	}

	p := h.presets[index]
	var errs []error
	if err := h.install(h.Main, p.MainStyle, p.Color); err != nil {
		errs = append(errs, err)
	}
	if err := h.install(h.Crystal, p.CrystalStyle, p.Color); err != nil {
		errs = append(errs, err)
	}
	h.log.Debug("Preset active", "index", index, "name", p.Name)
	return errors.Join(errs...)
}

// BuildOverride returns the style string binding color to slot of preset index.
func (h *Host) BuildOverride(index, slot int, color Color) string {
	return Override(index, slot, color).String()
}

// SetMainStyle stores style as the current preset's main style and installs
// it on the main channel.
func (h *Host) SetMainStyle(style string) error {
	if h.current < 0 || h.current >= len(h.presets) {
		return fmt.Errorf("%w: %d", ErrNoPreset, h.current)
	}
	p := &h.presets[h.current]
	if err := h.install(h.Main, style, p.Color); err != nil {
		return err
	}
	p.MainStyle = style
	return nil
}

// PersistCurrent saves the preset list, including the current preset's
// edited styles.
func (h *Host) PersistCurrent() error {
	if h.store == nil {
		return nil
	}
	if err := h.store.Save(h.Presets()); err != nil {
		return fmt.Errorf("save presets: %w", err)
	}
	return nil
}

// ReplacePresets swaps in a reloaded preset list. Effects already installed
// stay until the next ActivatePreset.
func (h *Host) ReplacePresets(presets []Preset) {
	h.presets = append([]Preset(nil), presets...)
	if h.current >= len(h.presets) {
		h.current = 0
	}
	h.log.Info("Presets reloaded", "count", len(h.presets))
}

// Render draws both channels.
func (h *Host) Render(now time.Time) error {
	return errors.Join(
		h.Main.Render(now, h.on),
		h.Crystal.Render(now, h.on),
	)
}

func (h *Host) install(ch *Channel, style string, base Color) error {
	s, err := ParseStyle(style)
	if err != nil {
		return fmt.Errorf("%s style: %w", ch.Name(), err)
	}
	ch.Install(s.Effect(base))
	return nil
}

package events

// Event type constants for kelindar/event.
const (
	TypeReaderPolled uint32 = iota + 1
	TypeCrystalBonded
	TypeCrystalRemoved
	TypeApplyFailed
	TypeReaderStateChanged
	TypePowerChanged
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// ReaderPolled is published after every reader query.
type ReaderPolled struct {
	Present bool `json:"present"`
}

// Type returns the event type identifier for ReaderPolled.
func (e ReaderPolled) Type() uint32 { return TypeReaderPolled }

// CrystalBonded is published once a crystal has been applied to a preset.
type CrystalBonded struct {
	UID        string `json:"uid"`
	Name       string `json:"name"`
	Preset     int    `json:"preset"`
	PresetName string `json:"preset_name"`
	Found      bool   `json:"found"` // name matched a preset
	R          uint8  `json:"r"`
	G          uint8  `json:"g"`
	B          uint8  `json:"b"`
	Timestamp  string `json:"timestamp"`
}

// Type returns the event type identifier for CrystalBonded.
func (e CrystalBonded) Type() uint32 { return TypeCrystalBonded }

// CrystalRemoved is published when the crystal leaves the field.
type CrystalRemoved struct {
	UID       string `json:"uid"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for CrystalRemoved.
func (e CrystalRemoved) Type() uint32 { return TypeCrystalRemoved }

// ApplyFailed is published for each failed step while applying a crystal.
type ApplyFailed struct {
	Step  string `json:"step"`
	Error string `json:"error"`
}

// Type returns the event type identifier for ApplyFailed.
func (e ApplyFailed) Type() uint32 { return TypeApplyFailed }

// ReaderStateChanged is published on reader lifecycle transitions.
type ReaderStateChanged struct {
	State     string `json:"state"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for ReaderStateChanged.
func (e ReaderStateChanged) Type() uint32 { return TypeReaderStateChanged }

// PowerChanged is published when the main output turns on or off.
type PowerChanged struct {
	On        bool   `json:"on"`
	Preset    int    `json:"preset"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for PowerChanged.
func (e PowerChanged) Type() uint32 { return TypePowerChanged }

package preset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"kyberd/blade"
)

// DefaultPath is the preset file used when none is configured.
const DefaultPath = "presets.toml"

// Entry is one preset as stored on disk.
type Entry struct {
	Name         string `toml:"name"`
	Track        string `toml:"track,omitempty"`
	Color        [3]int `toml:"color"` // 8-bit base color
	MainStyle    string `toml:"main_style,omitempty"`
	CrystalStyle string `toml:"crystal_style,omitempty"`
}

type file struct {
	Presets []Entry `toml:"preset"`
}

// Builtin is the preset list used when no preset file exists.
func Builtin() []blade.Preset {
	base := blade.From8(120, 120, 120)
	return []blade.Preset{
		{Name: "Default", Track: "tracks/default.wav", Color: base, CrystalStyle: "black"},
		{Name: "Subdued", Track: "tracks/default.wav", Color: base, CrystalStyle: "black"},
	}
}

// Store reads and writes the preset file.
type Store struct {
	path string
}

// NewStore creates a store for path.
func NewStore(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{path: path}
}

// Path returns the preset file path.
func (s *Store) Path() string { return s.path }

// Load reads the preset file. A missing file yields the builtin list.
func (s *Store) Load() ([]blade.Preset, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Builtin(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}

	var f file
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse presets %s: %w", s.path, err)
	}
	if len(f.Presets) == 0 {
		return nil, fmt.Errorf("parse presets %s: no [[preset]] entries", s.path)
	}

	presets := make([]blade.Preset, len(f.Presets))
	for i, e := range f.Presets {
		presets[i] = blade.Preset{
			Name:         e.Name,
			Track:        e.Track,
			Color:        blade.From8(clamp8(e.Color[0]), clamp8(e.Color[1]), clamp8(e.Color[2])),
			MainStyle:    e.MainStyle,
			CrystalStyle: e.CrystalStyle,
		}
	}
	return presets, nil
}

// Save writes the presets atomically through a temp file and rename.
func (s *Store) Save(presets []blade.Preset) error {
	f := file{Presets: make([]Entry, len(presets))}
	for i, p := range presets {
		r, g, b := p.Color.RGB8()
		f.Presets[i] = Entry{
			Name:         p.Name,
			Track:        p.Track,
			Color:        [3]int{int(r), int(g), int(b)},
			MainStyle:    p.MainStyle,
			CrystalStyle: p.CrystalStyle,
		}
	}

	data, err := toml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal presets: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create preset directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp preset file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write presets: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close presets: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("rename presets: %w", err)
	}
	return nil
}

func clamp8(v int) uint8 {
	return uint8(min(max(v, 0), 255))
}

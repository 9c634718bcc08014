package strip

import (
	"errors"

	"kyberd/blade"
)

// Multi shows every frame on several strips.
type Multi struct {
	strips []Strip
}

// NewMulti combines strips.
func NewMulti(strips ...Strip) *Multi {
	return &Multi{strips: strips}
}

// Show implements Strip.Show.
func (m *Multi) Show(pixels []blade.Color) error {
	var errs []error
	for _, s := range m.strips {
		if err := s.Show(pixels); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Release implements Strip.Release.
func (m *Multi) Release() error {
	var lastErr error
	for _, s := range m.strips {
		if err := s.Release(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

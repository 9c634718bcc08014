package strip

import (
	"sync"

	"kyberd/blade"
)

// Memory implements Strip by recording frames.
type Memory struct {
	mu     sync.Mutex
	frames [][]blade.Color
}

// Show implements Strip.Show.
func (m *Memory) Show(pixels []blade.Color) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = append(m.frames, append([]blade.Color(nil), pixels...))
	return nil
}

// Release implements Strip.Release.
func (m *Memory) Release() error { return nil }

// Frames returns the number of frames shown.
func (m *Memory) Frames() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.frames)
}

// Last returns the most recent frame, or nil.
func (m *Memory) Last() []blade.Color {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.frames) == 0 {
		return nil
	}
	return m.frames[len(m.frames)-1]
}

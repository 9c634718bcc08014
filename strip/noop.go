package strip

import "kyberd/blade"

// Noop implements Strip but does nothing.
// Used when no strip is configured.
type Noop struct{}

// Show implements Strip.Show.
func (n *Noop) Show([]blade.Color) error { return nil }

// Release implements Strip.Release.
func (n *Noop) Release() error { return nil }

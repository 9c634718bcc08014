package power

// Noop implements Switch but does nothing.
// Used when no rail is configured.
type Noop struct{}

// Set implements Switch.Set.
func (n *Noop) Set(bool) error { return nil }

// Release implements Switch.Release.
func (n *Noop) Release() error { return nil }

// Package preset selects, stores and applies lighting presets.
package preset

// Resolve returns the index of the first preset named exactly name.
// Without a match it returns (0, false) and the caller falls back to 0.
func Resolve(name string, names []string) (int, bool) {
	for i, n := range names {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

//go:build !screen

package display

// ScreenSupported returns whether screen support is compiled in.
func ScreenSupported() bool {
	return false
}

func newFramebuffer(Config) (Screen, error) {
	return nil, ErrScreenNotCompiled
}

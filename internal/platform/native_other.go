//go:build !windows

package platform

func newNative(Config) (Window, error) {
	return nil, ErrUnsupported
}

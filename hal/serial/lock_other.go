//go:build !unix

package serial

// lockDevice is a no-op where flock is unavailable; the serial driver's own
// exclusive open is the only guard.
func lockDevice(string) (func() error, error) {
	return func() error { return nil }, nil
}

//go:build unix

package serial

import (
	"errors"

	"golang.org/x/sys/unix"

	"github.com/ardnew/softsd/pkg"
)

// lockDevice takes an exclusive, non-blocking flock on the device so two
// controllers never share one line.
func lockDevice(path string) (func() error, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NOCTTY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}

	if err := unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB); err != nil {
		unix.Close(fd)
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, pkg.ErrPortBusy
		}
		return nil, err
	}

	return func() error {
		unix.Flock(fd, unix.LOCK_UN)
		return unix.Close(fd)
	}, nil
}

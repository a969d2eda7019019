//go:build unix

package serial

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ardnew/softsd/pkg"
)

func TestBaudRate(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{300, 300},
		{9600, 9600},
		{38400, 38400},
		{115200, 115200},
		{19200, DefaultBaud},
		{0, DefaultBaud},
		{-1, DefaultBaud},
		{230400, DefaultBaud},
	}

	for _, tt := range tests {
		if got := BaudRate(tt.in); got != tt.want {
			t.Errorf("BaudRate(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestOpenRequiresPort(t *testing.T) {
	if _, err := Open(Config{}); !errors.Is(err, pkg.ErrInvalidParameter) {
		t.Errorf("Open() error = %v, want %v", err, pkg.ErrInvalidParameter)
	}
}

func TestLockDeviceExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tty")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	unlock, err := lockDevice(path)
	if err != nil {
		t.Fatalf("lockDevice() error = %v", err)
	}

	if _, err := lockDevice(path); !errors.Is(err, pkg.ErrPortBusy) {
		t.Errorf("second lockDevice() error = %v, want %v", err, pkg.ErrPortBusy)
	}

	if err := unlock(); err != nil {
		t.Fatalf("unlock() error = %v", err)
	}

	unlock, err = lockDevice(path)
	if err != nil {
		t.Fatalf("lockDevice() after unlock error = %v", err)
	}
	unlock()
}

func TestLockDeviceMissing(t *testing.T) {
	if _, err := lockDevice(filepath.Join(t.TempDir(), "none")); err == nil {
		t.Error("lockDevice() on missing path should fail")
	}
}

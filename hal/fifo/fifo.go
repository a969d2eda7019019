//go:build unix

package fifo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/ardnew/softsd/hal"
	"github.com/ardnew/softsd/pkg"
)

// FIFO file names.
const (
	fifoClientToController = "client_to_controller"
	fifoControllerToClient = "controller_to_client"
)

// Role selects which end of the pipe pair a Stream is.
type Role int

// Stream roles.
const (
	RoleController Role = iota // Reads client_to_controller, writes controller_to_client
	RoleClient                 // Reads controller_to_client, writes client_to_controller
)

// String returns the role name.
func (r Role) String() string {
	if r == RoleClient {
		return "client"
	}
	return "controller"
}

// Stream implements hal.Stream using a pair of named pipes in a directory.
type Stream struct {
	dir     string
	role    Role
	created bool

	readFile  *os.File
	writeFile *os.File

	readTimeout time.Duration

	mutex     sync.Mutex
	closeCh   chan struct{}
	closeOnce sync.Once
}

// Open creates (if needed) and opens the pipe pair in dir for role.
// Both ends can be opened in either order; neither open blocks.
func Open(dir string, role Role) (*Stream, error) {
	s := &Stream{
		dir:         dir,
		role:        role,
		readTimeout: hal.DefaultReadTimeout,
		closeCh:     make(chan struct{}),
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create fifo dir: %w", err)
	}

	for _, name := range []string{fifoClientToController, fifoControllerToClient} {
		made, err := s.ensureFIFO(name)
		if err != nil {
			return nil, err
		}
		s.created = s.created || made
	}

	readName, writeName := fifoClientToController, fifoControllerToClient
	if role == RoleClient {
		readName, writeName = writeName, readName
	}

	// O_RDWR|O_NONBLOCK avoids blocking until the peer opens its end.
	var err error
	s.readFile, err = s.openFIFO(readName, os.O_RDWR|syscall.O_NONBLOCK)
	if err != nil {
		s.cleanup()
		return nil, err
	}
	s.writeFile, err = s.openFIFO(writeName, os.O_RDWR|syscall.O_NONBLOCK)
	if err != nil {
		s.cleanup()
		return nil, err
	}

	pkg.LogInfo(pkg.ComponentTransport, "fifo stream opened",
		"dir", dir,
		"role", role.String())

	return s, nil
}

// Dir returns the directory holding the pipes.
func (s *Stream) Dir() string {
	return s.dir
}

// SetReadTimeout changes the bounded wait used by Read.
func (s *Stream) SetReadTimeout(d time.Duration) {
	if d > 0 {
		s.readTimeout = d
	}
}

// Read returns whatever arrives within the read timeout.
func (s *Stream) Read(ctx context.Context, buf []byte) (int, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-s.closeCh:
		return 0, pkg.ErrCancelled
	default:
	}

	s.mutex.Lock()
	f := s.readFile
	s.mutex.Unlock()
	if f == nil {
		return 0, pkg.ErrNotConfigured
	}

	f.SetReadDeadline(time.Now().Add(s.readTimeout))
	n, err := f.Read(buf)
	if err != nil && os.IsTimeout(err) {
		return n, nil
	}
	return n, err
}

// Write sends all of data.
func (s *Stream) Write(ctx context.Context, data []byte) (int, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-s.closeCh:
		return 0, pkg.ErrCancelled
	default:
	}

	s.mutex.Lock()
	f := s.writeFile
	s.mutex.Unlock()
	if f == nil {
		return 0, pkg.ErrNotConfigured
	}

	written := 0
	for written < len(data) {
		n, err := f.Write(data[written:])
		written += n
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// Close closes both pipes. The controller end also removes pipes it created.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		close(s.closeCh)
	})

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.cleanup()

	pkg.LogInfo(pkg.ComponentTransport, "fifo stream closed", "role", s.role.String())
	return nil
}

// cleanup closes open pipes. The caller holds the mutex, or owns s exclusively.
func (s *Stream) cleanup() {
	if s.readFile != nil {
		s.readFile.Close()
		s.readFile = nil
	}
	if s.writeFile != nil {
		s.writeFile.Close()
		s.writeFile = nil
	}
	if s.created && s.role == RoleController {
		os.Remove(filepath.Join(s.dir, fifoClientToController))
		os.Remove(filepath.Join(s.dir, fifoControllerToClient))
		s.created = false
	}
}

// ensureFIFO creates the named pipe unless it already exists.
// It reports whether the pipe was created.
func (s *Stream) ensureFIFO(name string) (bool, error) {
	path := filepath.Join(s.dir, name)

	if st, err := os.Stat(path); err == nil {
		if st.Mode()&os.ModeNamedPipe == 0 {
			return false, fmt.Errorf("%s exists and is not a fifo", path)
		}
		return false, nil
	}

	if err := syscall.Mkfifo(path, 0o666); err != nil {
		if errors.Is(err, os.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("mkfifo %s: %w", name, err)
	}
	return true, nil
}

// openFIFO opens a named pipe with the given flags.
func (s *Stream) openFIFO(name string, flag int) (*os.File, error) {
	path := filepath.Join(s.dir, name)
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return f, nil
}

// Compile-time interface check
var _ hal.Stream = (*Stream)(nil)

//go:build profile

package prof

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"sync"
)

// Profiling errors.
var (
	// ErrCPUProfileActive indicates CPU profiling is already active.
	ErrCPUProfileActive = errors.New("cpu profile already active")

	// ErrInvalidProfile indicates an invalid or unsupported profile type.
	ErrInvalidProfile = errors.New("invalid profile")
)

// Profile names a pprof snapshot profile.
type Profile string

// Snapshot profiles.
const (
	ProfileHeap      Profile = "heap"
	ProfileAllocs    Profile = "allocs"
	ProfileGoroutine Profile = "goroutine"
	ProfileBlock     Profile = "block"
	ProfileMutex     Profile = "mutex"
)

// cpuActive guards against overlapping sessions.
var (
	cpuMutex  sync.Mutex
	cpuActive bool
)

// Session is an active profiling run.
type Session struct {
	cpuFile  *os.File
	heapPath string
	once     sync.Once
}

// Enabled reports whether the binary was built with profiling support.
func Enabled() bool { return true }

// Start begins a profiling session. CPU samples are written to cpuPath
// until Stop; a heap profile is written to heapPath by Stop.
func Start(cpuPath, heapPath string) (*Session, error) {
	s := &Session{heapPath: heapPath}
	if cpuPath == "" {
		return s, nil
	}

	cpuMutex.Lock()
	defer cpuMutex.Unlock()

	if cpuActive {
		return nil, ErrCPUProfileActive
	}

	f, err := os.Create(cpuPath)
	if err != nil {
		return nil, err
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return nil, err
	}

	s.cpuFile = f
	cpuActive = true
	return s, nil
}

// Stop ends CPU profiling and writes the heap profile.
// Only the first call has any effect.
func (s *Session) Stop() error {
	var err error
	s.once.Do(func() {
		if s.cpuFile != nil {
			cpuMutex.Lock()
			pprof.StopCPUProfile()
			cpuActive = false
			cpuMutex.Unlock()
			err = s.cpuFile.Close()
		}
		if s.heapPath != "" {
			runtime.GC()
			if werr := Write(ProfileHeap, s.heapPath); werr != nil && err == nil {
				err = werr
			}
		}
	})
	return err
}

// Write writes a snapshot profile to path.
func Write(profile Profile, path string) error {
	p := pprof.Lookup(string(profile))
	if p == nil {
		return fmt.Errorf("%w: %s", ErrInvalidProfile, profile)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return p.WriteTo(f, 0)
}

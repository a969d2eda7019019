//go:build !profile

package prof

// Profiling errors (never returned by stubs).
var (
	ErrCPUProfileActive error
	ErrInvalidProfile   error
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

// Session is an inert profiling run.
type Session struct{}

// Enabled always returns false when built without the "profile" tag.
func Enabled() bool { return false }

// Start is a no-op when built without the "profile" tag.
func Start(_, _ string) (*Session, error) {
	return &Session{}, nil
}

// Stop is a no-op when built without the "profile" tag.
func (s *Session) Stop() error { return nil }

// Write is a no-op when built without the "profile" tag.
func Write(_ Profile, _ string) error { return nil }

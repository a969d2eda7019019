// Package prof captures pprof profiles of a running controller.
//
// The package is conditionally compiled using the "profile" build tag:
//
//	go build -tags profile ./cmd/softsd
//
// Without the tag every function is a no-op and [Enabled] reports false, so
// the serve command can keep its profiling flags in every build.
//
// A profiling [Session] covers the lifetime of one controller run:
//
//	s, err := prof.Start("cpu.prof", "heap.prof")
//	if err != nil {
//		return err
//	}
//	defer s.Stop()
//
// CPU samples stream to the first path while the session is active. A heap
// snapshot is written to the second path when the session stops. Either path
// may be empty.
package prof

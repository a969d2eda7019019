//go:build !unix

package main

import (
	"fmt"

	"github.com/ardnew/softsd/hal"
	"github.com/ardnew/softsd/pkg"
)

// openFifo reports that named pipes are unavailable on this platform.
func openFifo(string, bool) (hal.Stream, error) {
	return nil, fmt.Errorf("%w: named pipes are not supported on this platform", pkg.ErrNotConfigured)
}

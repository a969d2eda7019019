//go:build unix

package main

import (
	"github.com/ardnew/softsd/hal"
	"github.com/ardnew/softsd/hal/fifo"
)

// openFifo opens one end of the named-pipe pair in dir.
func openFifo(dir string, controllerEnd bool) (hal.Stream, error) {
	role := fifo.RoleClient
	if controllerEnd {
		role = fifo.RoleController
	}
	return fifo.Open(dir, role)
}

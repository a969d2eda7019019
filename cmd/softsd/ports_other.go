//go:build !linux

package main

import "github.com/ardnew/softsd/hal/serial"

// describeAdapter returns the product string the adapter reports.
func describeAdapter(p serial.PortInfo) string {
	if p.Product != "" {
		return p.Product
	}
	return p.VID + ":" + p.PID
}

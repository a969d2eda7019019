//go:build linux

package main

import (
	"sync"

	"github.com/ardnew/softsd/hal/serial"
	"github.com/ardnew/softsd/pkg/linux/usbid"
)

var (
	usbDB     *usbid.Database
	usbDBOnce sync.Once
)

// describeAdapter names a USB serial adapter from the system USB ID
// database, falling back to the product string the adapter reports.
func describeAdapter(p serial.PortInfo) string {
	usbDBOnce.Do(func() {
		usbDB = usbid.New()
		usbDB.Load()
	})
	if usbDB.VendorCount() == 0 && p.Product != "" {
		return p.Product
	}
	return usbDB.Describe(p.VID, p.PID)
}

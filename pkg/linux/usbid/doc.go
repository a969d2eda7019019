//go:build linux

// Package usbid names USB serial adapters from the system's USB ID database.
//
// Port enumeration reports adapters by hexadecimal vendor and product IDs.
// This package maps those IDs to the vendor and product names found in
// usb.ids, so that listings read "FTDI FT232 Serial (UART) IC" instead of
// "0403:6001".
//
//	db := usbid.New()
//	db.Load()
//	fmt.Println(db.Describe("0403", "6001"))
//
// The database is searched for in [DefaultPaths]. If none is found, lookups
// return empty strings and Describe falls back to the numeric IDs.
package usbid

// Package serial implements hal.Stream over a UART using go.bug.st/serial.
//
// The line is configured 8N1 with no flow control, matching the client's
// SIO channel. Reads use the driver's read timeout, so an idle line yields
// empty reads instead of blocking. The device is flock'ed exclusively for
// the lifetime of the [Port]; a second controller on the same device fails
// with pkg.ErrPortBusy.
//
//	p, err := serial.Open(serial.Config{Port: "/dev/ttyUSB0", Baud: 115200})
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
package serial

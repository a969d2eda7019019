package serial

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	goserial "go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	"github.com/ardnew/softsd/hal"
	"github.com/ardnew/softsd/pkg"
)

// DefaultBaud is the line rate used when none, or an unsupported one, is given.
const DefaultBaud = 115200

// supportedBauds lists the rates the client's UART can be strapped to.
var supportedBauds = []int{300, 1200, 2400, 4800, 9600, 38400, 57600, 115200}

// Config describes the serial line.
type Config struct {
	Port        string        // Device path, e.g. /dev/ttyUSB0
	Baud        int           // Line rate; see BaudRate
	ReadTimeout time.Duration // Bounded wait per Read (default hal.DefaultReadTimeout)
}

// BaudRate returns baud if it is a supported rate, otherwise DefaultBaud.
func BaudRate(baud int) int {
	for _, b := range supportedBauds {
		if b == baud {
			return baud
		}
	}
	return DefaultBaud
}

// Port implements hal.Stream over a serial device.
// The line is 8N1 with no hardware or software flow control.
type Port struct {
	port   goserial.Port
	name   string
	unlock func() error
	mutex  sync.Mutex
	closed bool
}

// Open locks and opens the device described by cfg.
// It returns pkg.ErrPortBusy if another process holds the device.
func Open(cfg Config) (*Port, error) {
	if cfg.Port == "" {
		return nil, fmt.Errorf("serial port: %w", pkg.ErrInvalidParameter)
	}

	baud := BaudRate(cfg.Baud)
	if baud != cfg.Baud {
		pkg.LogWarn(pkg.ComponentTransport, "unsupported baud rate, using default",
			"requested", cfg.Baud,
			"baud", baud)
	}

	timeout := cfg.ReadTimeout
	if timeout <= 0 {
		timeout = hal.DefaultReadTimeout
	}

	unlock, err := lockDevice(cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", cfg.Port, err)
	}

	mode := &goserial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   goserial.NoParity,
		StopBits: goserial.OneStopBit,
	}

	p, err := goserial.Open(cfg.Port, mode)
	if err != nil {
		unlock()
		var perr *goserial.PortError
		if errors.As(err, &perr) && perr.Code() == goserial.PortBusy {
			return nil, fmt.Errorf("open %s: %w", cfg.Port, pkg.ErrPortBusy)
		}
		return nil, fmt.Errorf("open %s: %w", cfg.Port, err)
	}

	if err := p.SetReadTimeout(timeout); err != nil {
		p.Close()
		unlock()
		return nil, fmt.Errorf("set read timeout on %s: %w", cfg.Port, err)
	}

	// Discard anything the client sent before we were listening.
	if err := p.ResetInputBuffer(); err != nil {
		pkg.LogWarn(pkg.ComponentTransport, "failed to flush input", "error", err)
	}

	pkg.LogInfo(pkg.ComponentTransport, "serial port configured",
		"port", cfg.Port,
		"baud", baud,
		"framing", "8N1",
		"flowControl", "none")

	return &Port{port: p, name: cfg.Port, unlock: unlock}, nil
}

// Name returns the device path.
func (p *Port) Name() string {
	return p.name
}

// Read returns the bytes that arrive within the read timeout.
func (p *Port) Read(ctx context.Context, buf []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return p.port.Read(buf)
}

// Write sends all of data.
func (p *Port) Write(ctx context.Context, data []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	written := 0
	for written < len(data) {
		n, err := p.port.Write(data[written:])
		written += n
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// Close closes the port and releases the device lock.
func (p *Port) Close() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	err := p.port.Close()
	if uerr := p.unlock(); err == nil {
		err = uerr
	}
	return err
}

// PortInfo describes one serial port found on the host.
type PortInfo struct {
	Name    string
	IsUSB   bool
	VID     string
	PID     string
	Serial  string
	Product string
}

// Ports lists the serial ports present on the host.
func Ports() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}

	out := make([]PortInfo, 0, len(details))
	for _, d := range details {
		out = append(out, PortInfo{
			Name:    d.Name,
			IsUSB:   d.IsUSB,
			VID:     d.VID,
			PID:     d.PID,
			Serial:  d.SerialNumber,
			Product: d.Product,
		})
	}
	return out, nil
}

// Compile-time interface check
var _ hal.Stream = (*Port)(nil)

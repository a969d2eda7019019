// Package conn adapts a net.Conn to hal.Stream.
//
// It serves TCP serial bridges (ser2net, esp-link and similar) that expose
// the client's UART as a socket, and in-process tests using net.Pipe.
package conn

import (
	"context"
	"errors"
	"net"
	"os"
	"sync"
	"time"

	"github.com/ardnew/softsd/hal"
	"github.com/ardnew/softsd/pkg"
)

// Stream implements hal.Stream over a net.Conn.
type Stream struct {
	conn        net.Conn
	readTimeout time.Duration
	closeOnce   sync.Once
}

// New wraps c. Reads wait at most hal.DefaultReadTimeout for data.
func New(c net.Conn) *Stream {
	return &Stream{conn: c, readTimeout: hal.DefaultReadTimeout}
}

// Listen accepts a single connection on addr and wraps it.
// It returns early if ctx is cancelled while waiting.
func Listen(ctx context.Context, network, addr string) (*Stream, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	defer ln.Close()

	pkg.LogInfo(pkg.ComponentTransport, "waiting for client connection",
		"addr", ln.Addr().String())

	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	c, err := ln.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	pkg.LogInfo(pkg.ComponentTransport, "client connected",
		"remote", c.RemoteAddr().String())
	return New(c), nil
}

// Dial connects to addr and wraps the connection.
func Dial(ctx context.Context, network, addr string) (*Stream, error) {
	var d net.Dialer
	c, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	return New(c), nil
}

// SetReadTimeout changes the bounded wait used by Read.
func (s *Stream) SetReadTimeout(d time.Duration) {
	if d > 0 {
		s.readTimeout = d
	}
}

// Read returns whatever arrives within the read timeout.
func (s *Stream) Read(ctx context.Context, buf []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	wait := s.readTimeout
	if dl, ok := ctx.Deadline(); ok && time.Until(dl) < wait {
		wait = time.Until(dl)
	}
	s.conn.SetReadDeadline(time.Now().Add(wait))

	n, err := s.conn.Read(buf)
	if err != nil && errors.Is(err, os.ErrDeadlineExceeded) {
		return n, nil
	}
	return n, err
}

// Write sends all of data, honoring the context deadline if any.
func (s *Stream) Write(ctx context.Context, data []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if dl, ok := ctx.Deadline(); ok {
		s.conn.SetWriteDeadline(dl)
	} else {
		s.conn.SetWriteDeadline(time.Time{})
	}
	return s.conn.Write(data)
}

// Close closes the connection.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() { err = s.conn.Close() })
	return err
}

// Compile-time interface check
var _ hal.Stream = (*Stream)(nil)

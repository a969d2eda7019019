package client

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ardnew/softsd/controller"
	"github.com/ardnew/softsd/hal"
	"github.com/ardnew/softsd/image"
	"github.com/ardnew/softsd/pkg"
)

// DefaultTimeout bounds each command when the caller's context has no
// deadline.
const DefaultTimeout = 2 * time.Second

// Status is a decoded GET_STATUS response.
type Status struct {
	NoMedia    bool
	NoImage    bool
	LastFailed bool
	Images     int
}

// DecodeStatus unpacks a GET_STATUS byte.
func DecodeStatus(b byte) Status {
	return Status{
		NoMedia:    b&controller.StatusNoMedia != 0,
		NoImage:    b&controller.StatusNoImage != 0,
		LastFailed: b&controller.StatusLastFailed != 0,
		Images:     int(b >> controller.StatusCountShift),
	}
}

// String returns a compact description of the status.
func (s Status) String() string {
	var flags []string
	if s.NoMedia {
		flags = append(flags, "no-media")
	}
	if s.NoImage {
		flags = append(flags, "no-image")
	}
	if s.LastFailed {
		flags = append(flags, "last-failed")
	}
	if len(flags) == 0 {
		flags = append(flags, "ok")
	}
	return fmt.Sprintf("%s images=%d", strings.Join(flags, ","), s.Images)
}

// Info is a decoded IMAGE_INFO response.
type Info struct {
	Name       string // Trailing padding removed
	CapacityMB int    // Truncated to one byte by the controller
}

// Client issues commands to a controller.
// It is safe for concurrent use; commands are serialized.
type Client struct {
	stream  hal.Stream
	timeout time.Duration

	reqBuf  [4 + image.SectorSize]byte
	respBuf [image.NameLength + 1]byte
	mutex   sync.Mutex
}

// New creates a client that talks over stream.
func New(stream hal.Stream) *Client {
	return &Client{stream: stream, timeout: DefaultTimeout}
}

// SetTimeout sets the per-command timeout used when the context has no
// deadline.
func (c *Client) SetTimeout(d time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if d > 0 {
		c.timeout = d
	}
}

// Status sends GET_STATUS.
func (c *Client) Status(ctx context.Context) (Status, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.reqBuf[0] = controller.OpGetStatus
	if err := c.transact(ctx, c.reqBuf[:1], c.respBuf[:1]); err != nil {
		return Status{}, err
	}
	return DecodeStatus(c.respBuf[0]), nil
}

// Busy sends BUSY.
func (c *Client) Busy(ctx context.Context) (bool, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.reqBuf[0] = controller.OpBusy
	if err := c.transact(ctx, c.reqBuf[:1], c.respBuf[:1]); err != nil {
		return false, err
	}
	return c.respBuf[0] == controller.BusyYes, nil
}

// WaitReady polls BUSY every interval until the controller reports idle.
func (c *Client) WaitReady(ctx context.Context, interval time.Duration) error {
	for {
		busy, err := c.Busy(ctx)
		if err != nil || !busy {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

// ReadSector sends READ_SECTOR and fills buf with the sector.
// A sector the controller could not read arrives as zeros.
func (c *Client) ReadSector(ctx context.Context, index uint8, sector uint16, buf []byte) error {
	if len(buf) < image.SectorSize {
		return fmt.Errorf("read sector: %w", pkg.ErrInvalidParameter)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.reqBuf[0] = controller.OpReadSector
	c.reqBuf[1] = index
	c.reqBuf[2] = byte(sector)
	c.reqBuf[3] = byte(sector >> 8)
	return c.transact(ctx, c.reqBuf[:4], buf[:image.SectorSize])
}

// WriteSector sends WRITE_SECTOR. The controller does not answer it.
func (c *Client) WriteSector(ctx context.Context, index uint8, sector uint16, data []byte) error {
	if len(data) < image.SectorSize {
		return fmt.Errorf("write sector: %w", pkg.ErrInvalidParameter)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.reqBuf[0] = controller.OpWriteSector
	c.reqBuf[1] = index
	c.reqBuf[2] = byte(sector)
	c.reqBuf[3] = byte(sector >> 8)
	copy(c.reqBuf[4:], data[:image.SectorSize])
	return c.transact(ctx, c.reqBuf[:], nil)
}

// CloseImage sends CLOSE_IMAGE.
func (c *Client) CloseImage(ctx context.Context, index uint8) error {
	return c.simple(ctx, controller.OpCloseImage, index)
}

// OpenImage sends OPEN_IMAGE.
func (c *Client) OpenImage(ctx context.Context, index uint8) error {
	return c.simple(ctx, controller.OpOpenImage, index)
}

// ImageInfo sends IMAGE_INFO.
// Names longer than image.NameLength are not supported: the controller
// sends them whole and the extra bytes would desynchronize the stream.
func (c *Client) ImageInfo(ctx context.Context, index uint8) (Info, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.reqBuf[0] = controller.OpImageInfo
	c.reqBuf[1] = index
	if err := c.transact(ctx, c.reqBuf[:2], c.respBuf[:]); err != nil {
		return Info{}, err
	}

	return Info{
		Name:       strings.TrimRight(string(c.respBuf[:image.NameLength]), " "),
		CapacityMB: int(c.respBuf[image.NameLength]),
	}, nil
}

// simple sends a two-byte command with no response.
func (c *Client) simple(ctx context.Context, op byte, index uint8) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.reqBuf[0] = op
	c.reqBuf[1] = index
	return c.transact(ctx, c.reqBuf[:2], nil)
}

// transact writes req and reads exactly len(resp) bytes back.
// The caller holds the mutex.
func (c *Client) transact(ctx context.Context, req, resp []byte) error {
	name := controller.CommandName(req[0])

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if _, err := c.stream.Write(ctx, req); err != nil {
		return fmt.Errorf("%s: %w: %w", name, pkg.ErrTransport, err)
	}

	pkg.LogDebug(pkg.ComponentClient, "command sent",
		"command", name,
		"length", len(req))

	if len(resp) == 0 {
		return nil
	}

	n, err := hal.ReadFull(ctx, c.stream, resp)
	if err != nil {
		if n < len(resp) && ctx.Err() != nil {
			return fmt.Errorf("%s: %w: got %d of %d bytes: %w", name, pkg.ErrShortResponse, n, len(resp), err)
		}
		return fmt.Errorf("%s: %w: %w", name, pkg.ErrTransport, err)
	}

	pkg.LogDebug(pkg.ComponentClient, "response received",
		"command", name,
		"length", n)

	return nil
}

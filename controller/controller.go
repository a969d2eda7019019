package controller

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ardnew/softsd/hal"
	"github.com/ardnew/softsd/image"
	"github.com/ardnew/softsd/pkg"
)

// DefaultPollInterval is how long Run sleeps after a read that returned no
// bytes before reading again.
const DefaultPollInterval = 10 * time.Millisecond

// Controller decodes commands from a byte stream and executes them against
// an image table.
type Controller struct {
	table   *image.Table
	stream  hal.Stream
	session *Session

	framing      Framing
	pollInterval time.Duration

	// Buffers (owned by the dispatch goroutine)
	readBuf   [hal.ReadBufferSize]byte
	pending   []byte
	sectorBuf [image.SectorSize]byte
	respBuf   [1]byte
	infoBuf   []byte

	// Counters
	commandCount [OpLast - OpFirst + 1]atomic.Uint64
	failureCount atomic.Uint64
	unknownCount atomic.Uint64
	droppedCount atomic.Uint64

	current *command
	running atomic.Bool
}

// New creates a controller serving table over stream.
// It installs the session's busy flag as the table's busy hook, so the table
// should not be shared with another controller.
func New(table *image.Table, stream hal.Stream) *Controller {
	c := &Controller{
		table:        table,
		stream:       stream,
		session:      NewSession(),
		framing:      FramingOpcode,
		pollInterval: DefaultPollInterval,
		pending:      make([]byte, 0, 2*hal.ReadBufferSize),
		infoBuf:      make([]byte, 0, image.NameLength+1),
	}

	table.SetBusyHook(c.session.SetBusy)
	c.session.SetImagePresent(table.Count() > 0)

	return c
}

// SetFraming selects the framing mode. It must be called before Run.
func (c *Controller) SetFraming(f Framing) {
	c.framing = f
}

// SetPollInterval sets the idle sleep between empty reads.
// Non-positive values select DefaultPollInterval.
func (c *Controller) SetPollInterval(d time.Duration) {
	if d <= 0 {
		d = DefaultPollInterval
	}
	c.pollInterval = d
}

// Session returns the controller's session flags.
func (c *Controller) Session() *Session {
	return c.session
}

// Table returns the image table served by the controller.
func (c *Controller) Table() *image.Table {
	return c.table
}

// Run is the main dispatch loop. It reads from the stream, executes every
// complete command, and sleeps for the poll interval when nothing arrived.
// It returns ctx.Err() when the context is cancelled and an error wrapping
// pkg.ErrTransport when the stream fails.
func (c *Controller) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return pkg.ErrAlreadyRunning
	}
	defer c.running.Store(false)

	pkg.LogInfo(pkg.ComponentController, "controller running",
		"images", c.table.Count(),
		"framing", c.framing,
		"poll", c.pollInterval)

	timer := time.NewTimer(c.pollInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := c.stream.Read(ctx, c.readBuf[:])
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: read: %w", pkg.ErrTransport, err)
		}

		if n == 0 {
			timer.Reset(c.pollInterval)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
			continue
		}

		if err := c.Process(ctx, c.readBuf[:n]); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
	}
}

// Process appends chunk to the pending input and executes every complete
// command in it. An incomplete trailing command stays pending until more
// bytes arrive. It returns the first transport write error.
func (c *Controller) Process(ctx context.Context, chunk []byte) error {
	c.pending = append(c.pending, chunk...)

	pos := 0
	defer func() {
		n := copy(c.pending, c.pending[pos:])
		c.pending = c.pending[:n]
	}()

	for pos < len(c.pending) {
		op := c.pending[pos]

		cmd := lookup(op)
		if cmd == nil {
			c.unknownCount.Add(1)
			pkg.LogDebug(pkg.ComponentController, "skipping unknown byte",
				"byte", op)
			pos++
		} else {
			if len(c.pending)-pos < cmd.requestLen {
				pkg.LogDebug(pkg.ComponentController, "command incomplete",
					"command", cmd.name,
					"have", len(c.pending)-pos,
					"need", cmd.requestLen)
				return nil
			}

			req := c.pending[pos : pos+cmd.requestLen]
			pos += cmd.requestLen
			c.commandCount[op-OpFirst].Add(1)
			c.current = cmd

			pkg.LogDebug(pkg.ComponentController, "command received",
				"command", cmd.name,
				"opcode", op)

			if err := cmd.handle(c, ctx, req); err != nil {
				return err
			}
		}

		if c.framing == FramingLegacy && pos < len(c.pending) && c.pending[pos] == 0 {
			dropped := len(c.pending) - pos
			c.droppedCount.Add(uint64(dropped))
			pkg.LogDebug(pkg.ComponentController, "end of batch",
				"dropped", dropped)
			pos = len(c.pending)
		}
	}

	return nil
}

// Pending returns the number of buffered bytes not yet consumed.
func (c *Controller) Pending() int {
	return len(c.pending)
}

// send writes a response to the stream.
func (c *Controller) send(ctx context.Context, data []byte) error {
	if _, err := c.stream.Write(ctx, data); err != nil {
		return fmt.Errorf("%w: write: %w", pkg.ErrTransport, err)
	}
	return nil
}

// complete records the outcome of the current image or sector command.
func (c *Controller) complete(err error, kv ...any) {
	if err == nil {
		c.session.SetLastOK(true)
		return
	}

	c.session.SetLastOK(false)
	c.failureCount.Add(1)

	args := append([]any{
		"command", c.current.name,
		"outcome", pkg.Classify(err).String(),
		"error", err,
	}, kv...)
	pkg.LogWarn(pkg.ComponentController, "command failed", args...)
}

// Stats is a snapshot of the dispatcher's counters.
type Stats struct {
	Commands map[string]uint64 // Executed commands by name
	Failures uint64            // Image and sector commands that failed
	Unknown  uint64            // Skipped bytes that were not opcodes
	Dropped  uint64            // Bytes discarded at legacy end-of-batch markers
}

// Stats returns a snapshot of the dispatcher's counters.
func (c *Controller) Stats() Stats {
	s := Stats{
		Commands: make(map[string]uint64, len(commands)),
		Failures: c.failureCount.Load(),
		Unknown:  c.unknownCount.Load(),
		Dropped:  c.droppedCount.Load(),
	}
	for i := range commands {
		s.Commands[commands[i].name] = c.commandCount[i].Load()
	}
	return s
}

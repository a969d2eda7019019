package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ardnew/softsd/client"
	"github.com/ardnew/softsd/hal"
	"github.com/ardnew/softsd/hal/conn"
	"github.com/ardnew/softsd/hal/serial"
	"github.com/ardnew/softsd/image"
	"github.com/ardnew/softsd/pkg"
)

// probeTarget selects the transport probe connects with.
type probeTarget struct {
	port    string
	baud    int
	fifo    string
	connect string
	timeout time.Duration
}

func (t *probeTarget) open(ctx context.Context) (hal.Stream, error) {
	switch {
	case t.port != "":
		return serial.Open(serial.Config{Port: t.port, Baud: serial.BaudRate(t.baud)})
	case t.fifo != "":
		return openFifo(t.fifo, false)
	case t.connect != "":
		return conn.Dial(ctx, "tcp", t.connect)
	default:
		return nil, fmt.Errorf("%w: one of --port, --fifo or --connect is required", pkg.ErrNotConfigured)
	}
}

func newProbeCommand() *cobra.Command {
	var target probeTarget

	cmd := &cobra.Command{
		Use:   "probe [--port DEV | --fifo DIR | --connect ADDR] status|busy|list|info N|read N SECTOR",
		Short: "Send commands to a running controller",
		Args:  cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			stream, err := target.open(ctx)
			if err != nil {
				return err
			}
			defer stream.Close()

			c := client.New(stream)
			c.SetTimeout(target.timeout)
			return runProbe(ctx, cmd, c, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&target.port, "port", "", "serial device the client side is wired to")
	flags.IntVar(&target.baud, "baud", serial.DefaultBaud, "serial baud rate")
	flags.StringVar(&target.fifo, "fifo", "", "directory holding the named-pipe pair")
	flags.StringVar(&target.connect, "connect", "", "TCP address of a controller started with serve --listen")
	flags.DurationVar(&target.timeout, "timeout", client.DefaultTimeout, "per-command timeout")
	cmd.MarkFlagsMutuallyExclusive("port", "fifo", "connect")

	return cmd
}

// runProbe executes one probe subcommand.
func runProbe(ctx context.Context, cmd *cobra.Command, c *client.Client, args []string) error {
	out := cmd.OutOrStdout()

	switch args[0] {
	case "status":
		st, err := c.Status(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, st)

	case "busy":
		busy, err := c.Busy(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, busy)

	case "list":
		st, err := c.Status(ctx)
		if err != nil {
			return err
		}
		for i := 1; i <= st.Images; i++ {
			info, err := c.ImageInfo(ctx, uint8(i))
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%2d  %-12s  %3d MB\n", i, info.Name, info.CapacityMB)
		}

	case "info":
		if len(args) != 2 {
			return fmt.Errorf("%w: usage: info N", pkg.ErrInvalidParameter)
		}
		index, err := parseUint(args[1], 8)
		if err != nil {
			return err
		}
		info, err := c.ImageInfo(ctx, uint8(index))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%q %d MB\n", info.Name, info.CapacityMB)

	case "read":
		if len(args) != 3 {
			return fmt.Errorf("%w: usage: read N SECTOR", pkg.ErrInvalidParameter)
		}
		index, err := parseUint(args[1], 8)
		if err != nil {
			return err
		}
		sector, err := parseUint(args[2], 16)
		if err != nil {
			return err
		}
		buf := make([]byte, image.SectorSize)
		if err := c.ReadSector(ctx, uint8(index), uint16(sector), buf); err != nil {
			return err
		}
		st, err := c.Status(ctx)
		if err != nil {
			return err
		}
		if st.LastFailed {
			return fmt.Errorf("read image %d sector %d: controller reported failure", index, sector)
		}
		fmt.Fprint(out, hex.Dump(buf))

	default:
		return fmt.Errorf("%w: unknown probe command %q", pkg.ErrInvalidParameter, args[0])
	}

	return nil
}

// parseUint parses a decimal or 0x-prefixed number of the given bit size.
func parseUint(s string, bits int) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", pkg.ErrInvalidParameter, s, err)
	}
	return v, nil
}

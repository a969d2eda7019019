package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ardnew/softsd/config"
	"github.com/ardnew/softsd/controller"
	"github.com/ardnew/softsd/hal"
	"github.com/ardnew/softsd/hal/conn"
	"github.com/ardnew/softsd/hal/serial"
	"github.com/ardnew/softsd/pkg"
	"github.com/ardnew/softsd/pkg/prof"
)

func newServeCommand() *cobra.Command {
	var (
		cfg                    config.ServeConfig
		readOnly, ram          bool
		cpuProfile, memProfile string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the images listed in a folder's _disks.cfg",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch {
			case readOnly && ram:
				return fmt.Errorf("%w: --read-only and --ram are mutually exclusive", pkg.ErrInvalidParameter)
			case readOnly:
				cfg.Mode = config.ModeReadOnly
			case ram:
				cfg.Mode = config.ModeMemory
			}
			return serve(cmd.Context(), cfg, cpuProfile, memProfile)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.Port, "port", "", "serial device (e.g. /dev/ttyUSB0)")
	flags.IntVar(&cfg.Baud, "baud", serial.DefaultBaud, "serial baud rate")
	flags.StringVar(&cfg.FifoDir, "fifo", "", "directory for the named-pipe pair")
	flags.StringVar(&cfg.Listen, "listen", "", "TCP address to accept one client on (e.g. :7000)")
	flags.StringVar(&cfg.Folder, "folder", "", "folder holding _disks.cfg and the images")
	flags.DurationVar(&cfg.PollInterval, "poll", controller.DefaultPollInterval, "idle sleep between empty reads")
	flags.BoolVar(&cfg.LegacyFraming, "legacy-framing", false, "treat a zero byte after a command as end of batch")
	flags.BoolVar(&readOnly, "read-only", false, "open images read-only")
	flags.BoolVar(&ram, "ram", false, "serve in-memory copies of the images; writes are discarded on exit")
	flags.StringVar(&cpuProfile, "cpuprofile", "", "write a CPU profile to this file (profile builds only)")
	flags.StringVar(&memProfile, "memprofile", "", "write a heap profile to this file on exit (profile builds only)")
	cmd.MarkFlagsMutuallyExclusive("port", "fifo", "listen")

	return cmd
}

// serve runs one controller until ctx is cancelled or the transport fails.
func serve(ctx context.Context, cfg config.ServeConfig, cpuProfile, memProfile string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if (cpuProfile != "" || memProfile != "") && !prof.Enabled() {
		pkg.LogWarn(component, "profiling flags ignored; rebuild with -tags profile")
	}
	session, err := prof.Start(cpuProfile, memProfile)
	if err != nil {
		return fmt.Errorf("start profiling: %w", err)
	}
	defer func() {
		if err := session.Stop(); err != nil {
			pkg.LogWarn(component, "stop profiling", "error", err)
		}
	}()

	table, err := config.LoadImages(cfg.Folder, cfg.Mode)
	if err != nil {
		return err
	}
	defer table.CloseAll()

	if table.Count() == 0 {
		pkg.LogWarn(component, "no images registered; every sector command will fail",
			"folder", cfg.Folder)
	}

	stream, err := openControllerStream(ctx, &cfg)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("open %s transport: %w", cfg.Transport(), err)
	}
	defer stream.Close()

	ctrl := controller.New(table, stream)
	ctrl.SetPollInterval(cfg.PollInterval)
	if cfg.LegacyFraming {
		ctrl.SetFraming(controller.FramingLegacy)
	}

	err = ctrl.Run(ctx)

	stats := ctrl.Stats()
	pkg.LogInfo(component, "controller stopped",
		"commands", stats.Commands,
		"failures", stats.Failures,
		"unknown", stats.Unknown,
		"dropped", stats.Dropped)

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// openControllerStream opens the transport selected by cfg.
func openControllerStream(ctx context.Context, cfg *config.ServeConfig) (hal.Stream, error) {
	switch {
	case cfg.Port != "":
		return serial.Open(serial.Config{Port: cfg.Port, Baud: cfg.Baud})
	case cfg.FifoDir != "":
		return openFifo(cfg.FifoDir, true)
	case cfg.Listen != "":
		return conn.Listen(ctx, "tcp", cfg.Listen)
	default:
		return nil, pkg.ErrNotConfigured
	}
}

// Command softsd emulates a serial block-storage controller.
//
// It serves up to 15 disk image files to a retro machine over a serial
// line, a named-pipe pair or a TCP serial bridge, answering the machine's
// sector read and write commands from the image files.
//
// Usage:
//
//	softsd serve --port /dev/ttyUSB0 --baud 115200 --folder ./disks
//	softsd serve --fifo /tmp/softsd --folder ./disks
//	softsd serve --listen :7000 --folder ./disks
//	softsd ports
//	softsd images --folder ./disks
//	softsd probe --connect localhost:7000 status
//
// The image folder holds _disks.cfg, which lists one image file name per
// line. Lines starting with '#' are comments.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ardnew/softsd/pkg"
)

const component = pkg.ComponentController

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		pkg.LogError(component, "fatal", "error", err)
		stop()
		os.Exit(1)
	}
}

// newRootCommand builds the command tree.
func newRootCommand() *cobra.Command {
	var verbose, jsonLog bool

	root := &cobra.Command{
		Use:           "softsd",
		Short:         "Serial block-storage controller emulator",
		Long:          "Serve disk image files to a retro machine over a serial line, named pipes or TCP",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			pkg.SetLogOutput(cmd.ErrOrStderr())
			if jsonLog {
				pkg.SetLogFormat(pkg.LogFormatJSON)
			} else {
				pkg.SetLogFormat(pkg.LogFormatText)
			}
			if verbose {
				pkg.SetLogLevel(slog.LevelDebug)
			} else {
				pkg.SetLogLevel(slog.LevelInfo)
			}
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging (hex dumps of sector data)")
	root.PersistentFlags().BoolVar(&jsonLog, "json", false, "use JSON log format")

	root.AddCommand(
		newServeCommand(),
		newPortsCommand(),
		newImagesCommand(),
		newProbeCommand(),
		newVersionCommand(),
	)

	return root
}

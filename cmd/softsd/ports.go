package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ardnew/softsd/hal/serial"
)

func newPortsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports and USB serial adapters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ports, err := serial.Ports()
			if err != nil {
				return err
			}
			if len(ports) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no serial ports found")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PORT\tUSB ID\tSERIAL\tADAPTER")
			for _, p := range ports {
				if !p.IsUSB {
					fmt.Fprintf(w, "%s\t-\t-\t-\n", p.Name)
					continue
				}
				fmt.Fprintf(w, "%s\t%s:%s\t%s\t%s\n",
					p.Name, p.VID, p.PID, orDash(p.Serial), describeAdapter(p))
			}
			return w.Flush()
		},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

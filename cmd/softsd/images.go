package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ardnew/softsd/config"
	"github.com/ardnew/softsd/image"
)

func newImagesCommand() *cobra.Command {
	var folder string

	cmd := &cobra.Command{
		Use:   "images",
		Short: "List the images a folder's _disks.cfg registers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			table, err := config.LoadImages(folder, config.ModeReadOnly)
			if err != nil {
				return err
			}
			defer table.CloseAll()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "INDEX\tNAME\tSIZE\tCAPACITY\tSECTORS")
			for _, img := range table.Images() {
				sectors := img.Size / image.SectorSize
				if sectors > 1<<16 {
					sectors = 1 << 16
				}
				fmt.Fprintf(w, "%d\t%s\t%d\t%d MB\t%d\n",
					img.Index, img.Name, img.Size, img.CapacityMB, sectors)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&folder, "folder", "", "folder holding _disks.cfg and the images")
	cmd.MarkFlagRequired("folder")

	return cmd
}

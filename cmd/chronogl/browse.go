package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/willibrandon/ChronoGL/pkg/browser"
)

var browseCmd = &cobra.Command{
	Use:   "browse <trace>",
	Short: "Step through a trace interactively",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tr, err := openTrace(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return browser.Browse(tr, os.Stdin, cmd.OutOrStdout(), browser.Options{
			Logger:          logger,
			ThumbnailWidth:  conf.Images.ThumbnailWidth,
			ThumbnailHeight: conf.Images.ThumbnailHeight,
		})
	},
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

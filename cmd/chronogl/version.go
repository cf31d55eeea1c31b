package main

import (
	"github.com/spf13/cobra"

	"github.com/willibrandon/ChronoGL/pkg/version"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print build info",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return version.Dump(cmd.OutOrStdout())
		},
	})
	rootCmd.Version = version.Version
}

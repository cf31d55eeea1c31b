package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/willibrandon/ChronoGL/pkg/stats"
)

func makeStatsCommand() *cobra.Command {
	var (
		top         int
		profilePath string
	)
	cmd := &cobra.Command{
		Use:   "stats <trace>",
		Short: "Print per-function call statistics",
		Long: "Aggregates call counts and GL time per function. With --pprof the timings are also " +
			"written as a pprof profile whose stacks follow the debug marker groups.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := openTrace(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			s := stats.Summarize(tr)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(w, "FUNCTION\tCALLS\tWALL\tTHREAD\tMEAN\tMAX\tVERTICES\tERRORS\t")
			for _, f := range s.Top(top) {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\t\n",
					f.Function, humanize.Comma(int64(f.Calls)), f.Wall, f.Thread, f.MeanWall(), f.MaxWall,
					humanize.Comma(int64(f.Vertices)), f.Errors)
			}
			fmt.Fprintf(w, "total\t%s\t%s\t%s\t\t\t%s\t%d\t\n",
				humanize.Comma(int64(s.Calls)), s.Wall, s.Thread, humanize.Comma(int64(s.Vertices)), s.Errors)
			if err := w.Flush(); err != nil {
				return err
			}

			if profilePath == "" {
				return nil
			}
			f, err := os.Create(profilePath)
			if err != nil {
				return err
			}
			if err := stats.ToProfile(tr).Write(f); err != nil {
				f.Close()
				return fmt.Errorf("failed to write profile: %w", err)
			}
			if err := f.Close(); err != nil {
				return err
			}
			logger.Info("Wrote profile", zap.String("path", profilePath))
			return nil
		},
	}
	cmd.Flags().IntVarP(&top, "top", "n", 20, "number of functions to list (0 for all)")
	cmd.Flags().StringVar(&profilePath, "pprof", "", "write a gzipped pprof profile to this path")
	return cmd
}

func init() {
	rootCmd.AddCommand(makeStatsCommand())
}

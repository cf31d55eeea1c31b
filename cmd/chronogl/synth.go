package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/willibrandon/ChronoGL/pkg/tracetest"
)

func makeSynthCommand() *cobra.Command {
	opts := tracetest.DefaultSceneOptions()
	var noFramebuffers bool

	cmd := &cobra.Command{
		Use:   "synth <output>",
		Short: "Write a synthetic trace of a simple two-pass renderer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Frames < 0 || opts.Contexts < 1 || opts.DrawsPerPass < 0 {
				return fmt.Errorf("need frames >= 0, contexts >= 1 and draws >= 0")
			}
			opts.Framebuffers = !noFramebuffers
			recs := tracetest.Scene(opts)

			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			bw := bufio.NewWriter(f)
			if err := tracetest.Write(bw, recs); err != nil {
				f.Close()
				return err
			}
			if err := bw.Flush(); err != nil {
				f.Close()
				return err
			}
			info, err := f.Stat()
			if err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s calls (%s) to %s\n",
				humanize.Comma(int64(len(recs))), humanize.IBytes(uint64(info.Size())), args[0])
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.Frames, "frames", opts.Frames, "number of frames")
	cmd.Flags().IntVar(&opts.Contexts, "contexts", opts.Contexts, "number of GL contexts")
	cmd.Flags().IntVar(&opts.DrawsPerPass, "draws", opts.DrawsPerPass, "draw calls per render pass")
	cmd.Flags().Int32Var(&opts.Width, "width", opts.Width, "framebuffer width")
	cmd.Flags().Int32Var(&opts.Height, "height", opts.Height, "framebuffer height")
	cmd.Flags().BoolVar(&noFramebuffers, "no-framebuffers", false, "omit framebuffer captures")
	return cmd
}

func init() {
	rootCmd.AddCommand(makeSynthCommand())
}

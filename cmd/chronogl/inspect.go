package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/willibrandon/ChronoGL/pkg/hierarchy"
	"github.com/willibrandon/ChronoGL/pkg/replay"
	"github.com/willibrandon/ChronoGL/pkg/state"
	"github.com/willibrandon/ChronoGL/pkg/stats"
	"github.com/willibrandon/ChronoGL/pkg/trace"
)

var (
	infoCmd = &cobra.Command{
		Use:   "info <trace>",
		Short: "Print a summary of a trace file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := openTrace(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			s := stats.Summarize(tr)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "File:\t%s\n", tr.Path)
			fmt.Fprintf(w, "Size:\t%s\n", humanize.IBytes(uint64(tr.Size)))
			fmt.Fprintf(w, "Modified:\t%s (%s)\n", tr.ModTime.Format("2006-01-02 15:04:05"), humanize.Time(tr.ModTime))
			fmt.Fprintf(w, "Calls:\t%s\n", humanize.Comma(int64(s.Calls)))
			fmt.Fprintf(w, "Frames:\t%d\n", len(tr.Frames))
			fmt.Fprintf(w, "Contexts:\t%v\n", tr.Contexts)
			fmt.Fprintf(w, "Duration:\t%s\n", s.Duration)
			fmt.Fprintf(w, "GL time:\t%s wall, %s thread\n", s.Wall, s.Thread)
			fmt.Fprintf(w, "Draws:\t%s (%s vertices)\n", humanize.Comma(int64(s.Draws)), humanize.Comma(int64(s.Vertices)))
			fmt.Fprintf(w, "GL errors:\t%d\n", s.Errors)
			return w.Flush()
		},
	}

	framesCmd = &cobra.Command{
		Use:   "frames <trace>",
		Short: "List the frames of a trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := openTrace(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			s := stats.Summarize(tr)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(w, "FRAME\tSTART\tEND\tCALLS\tDRAWS\tVERTICES\tSPAN\tGL TIME\t")
			for i, f := range s.Frames {
				fr := tr.Frames[i]
				fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d\t%s\t%s\t%s\t\n",
					f.Index, fr.Start, fr.End, f.Calls, f.Draws, humanize.Comma(int64(f.Vertices)), f.Span, f.Wall)
			}
			return w.Flush()
		},
	}
)

type rangeOptions struct {
	frame   int
	start   int
	end     int
	context int
}

func (o *rangeOptions) bind(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&o.frame, "frame", "f", -1, "limit to one frame")
	cmd.Flags().IntVar(&o.start, "start", 0, "first call index")
	cmd.Flags().IntVar(&o.end, "end", -1, "call index to stop before (-1 for the end of the trace)")
	cmd.Flags().IntVar(&o.context, "context", -1, "context id to show (-1 for all contexts)")
}

// resolve returns the half-open call range and the context index to use.
func (o *rangeOptions) resolve(tr *trace.Trace) (start, end, ctx int, err error) {
	start, end = o.start, o.end
	if end < 0 {
		end = tr.Len()
	}
	if o.frame >= 0 {
		if o.frame >= len(tr.Frames) {
			return 0, 0, 0, fmt.Errorf("frame %d out of range, trace has %d frames", o.frame, len(tr.Frames))
		}
		start, end = tr.Frames[o.frame].Start, tr.Frames[o.frame].End
	}

	ctx = hierarchy.AllContexts
	if o.context >= 0 {
		ctx = tr.ContextIndex(int32(o.context))
		if ctx < 0 {
			return 0, 0, 0, fmt.Errorf("context %d not in trace, contexts are %v", o.context, tr.Contexts)
		}
	}
	return start, end, ctx, nil
}

func makeTreeCommand() *cobra.Command {
	opts := &rangeOptions{}
	cmd := &cobra.Command{
		Use:   "tree <trace>",
		Short: "Print calls grouped by debug markers",
		Long: "Groups the calls of one context between glPushGroupMarkerEXT and glPopGroupMarkerEXT. " +
			"Without --context the calls are listed flat.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := openTrace(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			start, end, ctx, err := opts.resolve(tr)
			if err != nil {
				return err
			}
			return hierarchy.Build(tr, start, end, ctx).Dump(cmd.OutOrStdout(), tr)
		},
	}
	opts.bind(cmd)
	return cmd
}

func makeStateCommand() *cobra.Command {
	var (
		at      int
		from    int
		context int
	)
	cmd := &cobra.Command{
		Use:   "state <trace>",
		Short: "Print the GL state after a call",
		Long: "Replays the trace up to and including call --at and prints the reconstructed state. " +
			"Nodes changed since call --from are marked with '*'.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := openTrace(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if at < 0 {
				at = tr.Len() - 1
			}
			nav := replay.NewNavigator(tr, replay.WithLogger(logger))
			defer nav.Close()

			if from >= 0 {
				if _, err := nav.Goto(from); err != nil {
					return err
				}
			}
			changed, err := nav.Goto(at)
			if err != nil {
				return err
			}

			var dumpErr error
			nav.View(func(tree *state.Tree, _ int) {
				id := tree.Root()
				if context >= 0 {
					id, dumpErr = tree.Resolve(state.ContextPath(int32(context)))
					if dumpErr != nil {
						dumpErr = fmt.Errorf("context %d: %w", context, dumpErr)
						return
					}
				}
				mark := changed.Contains
				if from < 0 {
					mark = nil
				}
				dumpErr = tree.Dump(cmd.OutOrStdout(), id, mark)
			})
			return dumpErr
		},
	}
	cmd.Flags().IntVar(&at, "at", -1, "call index to replay to (-1 for the last call)")
	cmd.Flags().IntVar(&from, "from", -1, "mark nodes changed since this call")
	cmd.Flags().IntVar(&context, "context", -1, "context id to print (-1 for all contexts)")
	return cmd
}

func init() {
	rootCmd.AddCommand(infoCmd, framesCmd, makeTreeCommand(), makeStateCommand())
}

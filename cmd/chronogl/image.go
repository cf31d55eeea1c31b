package main

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/willibrandon/ChronoGL/pkg/fbimage"
	"github.com/willibrandon/ChronoGL/pkg/trace"
)

type imageOptions struct {
	outDir    string
	frames    []int
	calls     []int
	thumbnail bool
	opaque    bool
	jobs      int
}

func makeImageCommand() *cobra.Command {
	opts := &imageOptions{}
	cmd := &cobra.Command{
		Use:   "image <trace>",
		Short: "Export captured framebuffers as PNG files",
		Long: "Writes the framebuffer shown at the end of each selected frame, or captured by each " +
			"selected call, to <out>/call-<index>.png.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := openTrace(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			calls, err := opts.selectCalls(tr)
			if err != nil {
				return err
			}
			if len(calls) == 0 {
				return fmt.Errorf("no framebuffer captures selected")
			}
			if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
				return err
			}

			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(opts.jobs)
			for _, idx := range calls {
				g.Go(func() error {
					if err := ctx.Err(); err != nil {
						return err
					}
					path, err := opts.export(tr, idx)
					if err != nil {
						return err
					}
					logger.Debug("Wrote framebuffer", zap.Int("call", idx), zap.String("path", path))
					fmt.Fprintln(cmd.OutOrStdout(), path)
					return nil
				})
			}
			return g.Wait()
		},
	}

	cmd.Flags().StringVarP(&opts.outDir, "out", "o", ".", "output directory")
	cmd.Flags().IntSliceVarP(&opts.frames, "frame", "f", nil, "frames to export (default all)")
	cmd.Flags().IntSliceVar(&opts.calls, "call", nil, "call indexes to export, overrides --frame")
	cmd.Flags().BoolVarP(&opts.thumbnail, "thumbnail", "t", false, "scale images to the configured thumbnail size")
	cmd.Flags().BoolVar(&opts.opaque, "opaque", false, "drop the alpha channel")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", runtime.NumCPU(), "number of images decoded in parallel")
	return cmd
}

// selectCalls returns the indexes of the calls whose captures are exported.
func (o *imageOptions) selectCalls(tr *trace.Trace) ([]int, error) {
	if len(o.calls) > 0 {
		for _, idx := range o.calls {
			if idx < 0 || idx >= tr.Len() {
				return nil, fmt.Errorf("call %d out of range [0,%d)", idx, tr.Len())
			}
			if !tr.Calls[idx].HasFramebuffer() {
				return nil, fmt.Errorf("call %d has no framebuffer capture", idx)
			}
		}
		return o.calls, nil
	}

	frames := o.frames
	if len(frames) == 0 {
		for i := range tr.Frames {
			frames = append(frames, i)
		}
	}
	var calls []int
	seen := map[int]bool{}
	for _, f := range frames {
		if f < 0 || f >= len(tr.Frames) {
			return nil, fmt.Errorf("frame %d out of range, trace has %d frames", f, len(tr.Frames))
		}
		idx := tr.LastFramebuffer(tr.Frames[f].End - 1)
		if idx < 0 || seen[idx] {
			continue
		}
		seen[idx] = true
		calls = append(calls, idx)
	}
	return calls, nil
}

func (o *imageOptions) export(tr *trace.Trace, idx int) (string, error) {
	fb, err := tr.Framebuffer(idx)
	if err != nil {
		return "", err
	}

	if o.opaque {
		// Copy so the cached image keeps its alpha.
		fb = &fbimage.Image{Width: fb.Width, Height: fb.Height, Pixels: fb.Opaque().Pix}
	}
	var img image.Image = fb.NRGBA()
	if o.thumbnail {
		img = fb.Thumbnail(conf.Images.ThumbnailWidth, conf.Images.ThumbnailHeight)
	}

	path := filepath.Join(o.outDir, fmt.Sprintf("call-%d.png", idx))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return path, f.Close()
}

func init() {
	rootCmd.AddCommand(makeImageCommand())
}

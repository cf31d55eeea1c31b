package main

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/willibrandon/ChronoGL/pkg/recorder"
	"github.com/willibrandon/ChronoGL/pkg/trace"
)

type captureOptions struct {
	address        string
	duration       time.Duration
	dialTimeout    time.Duration
	fbOnSwap       bool
	fbOnDraw       bool
	textureData    bool
	flushEachFrame bool
}

func makeCaptureCommand() *cobra.Command {
	opts := &captureOptions{}

	cmd := &cobra.Command{
		Use:   "capture <output>",
		Short: "Record a trace from a running tracer",
		Long: "Connects to the tracer listening in the target process, sends the capture options " +
			"and records call frames to <output> until interrupted or the tracer disconnects.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			capture := conf.Capture
			if cmd.Flags().Changed("address") {
				capture.Address = opts.address
			}
			if cmd.Flags().Changed("fb-on-swap") {
				capture.Options.FramebufferOnSwap = opts.fbOnSwap
			}
			if cmd.Flags().Changed("fb-on-draw") {
				capture.Options.FramebufferOnDraw = opts.fbOnDraw
			}
			if cmd.Flags().Changed("texture-data") {
				capture.Options.TextureData = opts.textureData
			}
			return runCapture(cmd.Context(), cmd, args[0], capture.Address, opts, recorder.SessionOptions{
				Capture: capture.Options,
			})
		},
	}

	cmd.Flags().StringVarP(&opts.address, "address", "a", "", "tracer host:port, overrides the config")
	cmd.Flags().DurationVarP(&opts.duration, "duration", "d", 0, "stop after this long (0 waits for interrupt)")
	cmd.Flags().DurationVar(&opts.dialTimeout, "dial-timeout", 5*time.Second, "timeout for connecting to the tracer")
	cmd.Flags().BoolVar(&opts.fbOnSwap, "fb-on-swap", true, "capture the framebuffer on every eglSwapBuffers")
	cmd.Flags().BoolVar(&opts.fbOnDraw, "fb-on-draw", false, "capture the framebuffer on every draw call")
	cmd.Flags().BoolVar(&opts.textureData, "texture-data", false, "capture texture uploads")
	cmd.Flags().BoolVar(&opts.flushEachFrame, "flush", false, "flush the output after every frame")

	return cmd
}

func runCapture(ctx context.Context, cmd *cobra.Command, output, address string, opts *captureOptions, sessOpts recorder.SessionOptions) error {
	dialer := net.Dialer{Timeout: opts.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("failed to connect to tracer at %s: %w", address, err)
	}

	rec, err := recorder.NewFileRecorderWithOptions(output, recorder.FileRecorderOptions{FlushEachFrame: opts.flushEachFrame})
	if err != nil {
		conn.Close()
		return err
	}

	sessOpts.Recorder = rec
	sessOpts.Logger = logger
	sessOpts.TraceOptions = []trace.Option{trace.WithImageCache(conf.Images.CacheSize)}

	// The session outlives ctx so an interrupt stops it cleanly instead of
	// aborting the read.
	sess, err := recorder.StartSession(context.Background(), conn, output, sessOpts)
	if err != nil {
		conn.Close()
		return err
	}
	logger.Debug("Connected to tracer", zap.String("address", address))

	var timeout <-chan time.Time
	if opts.duration > 0 {
		timer := time.NewTimer(opts.duration)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-ctx.Done():
		logger.Info("Interrupted, stopping capture")
	case <-timeout:
	case <-sess.Done():
		logger.Info("Tracer disconnected")
	}

	tr, err := sess.Stop(context.Background())
	if tr != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Captured %s calls in %d frames (%s) to %s\n",
			humanize.Comma(int64(tr.Len())), len(tr.Frames), humanize.IBytes(uint64(sess.BytesRead())), output)
	}
	return err
}

func init() {
	rootCmd.AddCommand(makeCaptureCommand())
}

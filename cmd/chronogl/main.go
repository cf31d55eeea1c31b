package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/willibrandon/ChronoGL/pkg/config"
	"github.com/willibrandon/ChronoGL/pkg/logging"
	"github.com/willibrandon/ChronoGL/pkg/trace"
)

var (
	rootCmd = &cobra.Command{
		Use:           "chronogl",
		Short:         "Capture, inspect and replay GL call traces",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setup(cmd)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	configPath string
	logLevel   string

	conf   *config.Config
	logger *zap.Logger
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to chronogl config")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "", "log level (one of `debug`, `info`, `warn`, `error`), overrides the config")
}

func setup(cmd *cobra.Command) error {
	var err error
	conf, err = config.Load(configPath)
	if err != nil {
		return err
	}

	level := conf.LogLevel()
	if cmd.Flags().Changed("log-level") {
		level, err = zapcore.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
	}
	logger = logging.New(level, os.Stderr)
	return nil
}

// openTrace parses the trace at path, drawing progress on stderr when it is
// a terminal.
func openTrace(ctx context.Context, path string) (*trace.Trace, error) {
	opts := []trace.Option{
		trace.WithLogger(logger),
		trace.WithImageCache(conf.Images.CacheSize),
	}
	interactive := logging.IsTerminal(os.Stderr)
	if interactive {
		opts = append(opts, trace.WithProgress(func(read, total int64) {
			if total <= 0 {
				fmt.Fprintf(os.Stderr, "\rParsing %s", humanize.IBytes(uint64(read)))
				return
			}
			fmt.Fprintf(os.Stderr, "\rParsing %3d%% (%s of %s)",
				read*100/total, humanize.IBytes(uint64(read)), humanize.IBytes(uint64(total)))
		}))
	}

	tr, err := trace.ParseFile(ctx, path, opts...)
	if interactive {
		fmt.Fprint(os.Stderr, "\r\033[K")
	}
	if err != nil {
		return nil, err
	}
	return tr, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Package logging builds the console logger used by the chronogl commands.
package logging

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a development-style console logger writing to out. Levels are
// colored only when out is a terminal.
func New(level zapcore.Level, out io.Writer) *zap.Logger {
	encoder := zap.NewDevelopmentEncoderConfig()
	if IsTerminal(out) {
		encoder.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoder.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	encoder.ConsoleSeparator = " "
	encoder.EncodeTime = zapcore.TimeEncoderOfLayout(`15:04:05.000`)

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoder), zapcore.AddSync(out), zap.NewAtomicLevelAt(level))
	return zap.New(core, zap.ErrorOutput(zapcore.AddSync(out)))
}

// IsTerminal reports whether out is an interactive terminal. Commands use
// it to decide whether to draw progress output.
func IsTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

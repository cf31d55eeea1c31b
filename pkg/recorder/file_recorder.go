package recorder

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/willibrandon/ChronoGL/pkg/framing"
	"github.com/willibrandon/ChronoGL/pkg/trace"
)

// FileRecorder appends frames to a trace file.
type FileRecorder struct {
	mu     sync.Mutex
	file   *os.File
	fw     *framing.Writer
	path   string
	closed bool
}

// FileRecorderOptions contains options for creating a file recorder
type FileRecorderOptions struct {
	// Append keeps an existing file's frames instead of truncating it.
	Append bool
	// FlushEachFrame makes every frame visible in the file as soon as it is
	// recorded, so a live trace can be read while capturing.
	FlushEachFrame bool
}

// DefaultFileRecorderOptions returns default options for file recorder
func DefaultFileRecorderOptions() FileRecorderOptions {
	return FileRecorderOptions{}
}

// NewFileRecorder creates a file recorder with default options, truncating
// any existing file at path.
func NewFileRecorder(path string) (*FileRecorder, error) {
	return NewFileRecorderWithOptions(path, DefaultFileRecorderOptions())
}

// NewFileRecorderWithOptions creates a file recorder with the given options.
func NewFileRecorderWithOptions(path string, options FileRecorderOptions) (*FileRecorder, error) {
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if options.Append {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace file: %w", err)
	}

	fw := framing.NewBufferedWriter(f, 1<<20)
	if options.FlushEachFrame {
		fw = framing.NewWriter(f)
	}
	return &FileRecorder{
		file: f,
		fw:   fw,
		path: path,
	}, nil
}

// Path returns the trace file path.
func (fr *FileRecorder) Path() string {
	return fr.path
}

// RecordFrame writes a frame to the file.
func (fr *FileRecorder) RecordFrame(payload []byte) error {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	if fr.closed {
		return os.ErrClosed
	}
	if err := fr.fw.WriteFrame(payload); err != nil {
		return fmt.Errorf("failed to write frame %d: %w", fr.fw.Frames(), err)
	}
	return nil
}

func (fr *FileRecorder) Frames() int {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	return fr.fw.Frames()
}

func (fr *FileRecorder) Bytes() int64 {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	return fr.fw.Bytes()
}

// Close flushes and closes the file. Closing twice is a no-op.
func (fr *FileRecorder) Close() error {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	if fr.closed {
		return nil
	}
	fr.closed = true

	if err := fr.fw.Flush(); err != nil {
		fr.file.Close()
		return fmt.Errorf("failed to flush trace file: %w", err)
	}
	return fr.file.Close()
}

// Load parses the trace file.
func (fr *FileRecorder) Load(ctx context.Context, opts ...trace.Option) (*trace.Trace, error) {
	return trace.ParseFile(ctx, fr.path, opts...)
}

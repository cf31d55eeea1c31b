// Package recorder persists the record frames streamed by a tracer during a
// capture session.
package recorder

import (
	"bytes"
	"context"
	"sync"

	"github.com/willibrandon/ChronoGL/pkg/framing"
	"github.com/willibrandon/ChronoGL/pkg/trace"
)

// Recorder stores record frames in arrival order.
type Recorder interface {
	// RecordFrame appends one record payload.
	RecordFrame(payload []byte) error
	// Frames returns the number of frames recorded.
	Frames() int
	// Bytes returns the number of bytes recorded, headers included.
	Bytes() int64
	// Close flushes the recording. No frames may be recorded afterwards.
	Close() error
	// Load parses what was recorded. It must be called after Close.
	Load(ctx context.Context, opts ...trace.Option) (*trace.Trace, error)
}

// InMemoryRecorder keeps the recording in a buffer.
type InMemoryRecorder struct {
	mu  sync.Mutex
	buf bytes.Buffer
	fw  *framing.Writer
}

// NewInMemoryRecorder creates an empty in-memory recorder.
func NewInMemoryRecorder() *InMemoryRecorder {
	r := &InMemoryRecorder{}
	r.fw = framing.NewWriter(&r.buf)
	return r
}

func (r *InMemoryRecorder) RecordFrame(payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fw.WriteFrame(payload)
}

func (r *InMemoryRecorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fw.Frames()
}

func (r *InMemoryRecorder) Bytes() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fw.Bytes()
}

// Contents returns a copy of the recorded trace file contents.
func (r *InMemoryRecorder) Contents() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return bytes.Clone(r.buf.Bytes())
}

// Clear drops everything recorded so far.
func (r *InMemoryRecorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf.Reset()
	r.fw = framing.NewWriter(&r.buf)
}

func (r *InMemoryRecorder) Close() error {
	return nil
}

func (r *InMemoryRecorder) Load(ctx context.Context, opts ...trace.Option) (*trace.Trace, error) {
	data := r.Contents()
	opts = append([]trace.Option{trace.WithSize(int64(len(data)))}, opts...)
	return trace.Parse(ctx, bytes.NewReader(data), opts...)
}

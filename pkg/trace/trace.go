// Package trace reconstructs a captured call stream into an ordered,
// frame-segmented list of calls.
package trace

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/willibrandon/ChronoGL/pkg/fbimage"
	"github.com/willibrandon/ChronoGL/pkg/glproto"
	"github.com/willibrandon/ChronoGL/pkg/transform"
)

// ErrCanceled is returned when parsing stops because its context was done.
// The returned error also matches the context's own error.
var ErrCanceled = errors.New("trace parse canceled")

// ParseError reports a record that could not be read or decoded.
type ParseError struct {
	Offset int64
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse trace at offset %d: %v", e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Property is a derived, human-readable attribute of a call.
type Property struct {
	Name  string
	Value string
}

// Call is one parsed record.
type Call struct {
	// Index is the position in the trace after ordering.
	Index int
	// Offset is the byte offset of the record's frame in the source.
	Offset int64
	// Start is nanoseconds since the earliest call in the trace.
	Start int64

	Record     *glproto.Record
	Properties []Property
	Transforms []transform.Transform

	fbWidth, fbHeight int32
	hasFB             bool
}

// Function returns the called function.
func (c *Call) Function() glproto.Function {
	return c.Record.Function
}

// Context returns the context id of the call.
func (c *Call) Context() int32 {
	return c.Record.ContextID
}

// Duration returns the wall time of the call.
func (c *Call) Duration() time.Duration {
	return time.Duration(c.Record.Duration)
}

// ThreadDuration returns the thread time of the call.
func (c *Call) ThreadDuration() time.Duration {
	return time.Duration(c.Record.ThreadDuration)
}

// End returns the end of the call relative to trace start.
func (c *Call) End() int64 {
	return c.Start + int64(c.Record.Duration)
}

// HasFramebuffer reports whether a valid framebuffer capture is attached.
func (c *Call) HasFramebuffer() bool {
	return c.hasFB
}

// FramebufferSize returns the dimensions of the attached capture.
func (c *Call) FramebufferSize() (width, height int) {
	return int(c.fbWidth), int(c.fbHeight)
}

// Property returns the named property.
func (c *Call) Property(name string) (string, bool) {
	for _, p := range c.Properties {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

func (c *Call) String() string {
	return fmt.Sprintf("#%d %s ctx=%d", c.Index, c.Record.Function, c.Record.ContextID)
}

// Frame is the half-open call range [Start, End) ending in a buffer swap,
// except possibly the last frame.
type Frame struct {
	Index int
	Start int
	End   int
}

// Len returns the number of calls in the frame.
func (f Frame) Len() int {
	return f.End - f.Start
}

// Contains reports whether call index i is in the frame.
func (f Frame) Contains(i int) bool {
	return i >= f.Start && i < f.End
}

// Trace is a parsed capture. It is read-only once returned, except for the
// transform memos advanced by replay.
type Trace struct {
	Path    string
	Size    int64
	ModTime time.Time

	Calls    []*Call
	Frames   []Frame
	Contexts []int32

	images *fbimage.Cache
}

// Len returns the number of calls.
func (tr *Trace) Len() int {
	return len(tr.Calls)
}

// Duration returns the time from the first call start to the last call end.
func (tr *Trace) Duration() time.Duration {
	var end int64
	for _, c := range tr.Calls {
		end = max(end, c.End())
	}
	return time.Duration(end)
}

// FrameOf returns the index of the frame containing call i, or -1.
func (tr *Trace) FrameOf(i int) int {
	f := sort.Search(len(tr.Frames), func(k int) bool { return tr.Frames[k].End > i })
	if f < len(tr.Frames) && tr.Frames[f].Contains(i) {
		return f
	}
	return -1
}

// ContextIndex returns the index of context id in Contexts, or -1.
func (tr *Trace) ContextIndex(id int32) int {
	i := sort.Search(len(tr.Contexts), func(k int) bool { return tr.Contexts[k] >= id })
	if i < len(tr.Contexts) && tr.Contexts[i] == id {
		return i
	}
	return -1
}

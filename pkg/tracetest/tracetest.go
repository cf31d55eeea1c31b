// Package tracetest builds records and trace files for tests and demos.
package tracetest

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/willibrandon/ChronoGL/pkg/fbimage"
	"github.com/willibrandon/ChronoGL/pkg/framing"
	"github.com/willibrandon/ChronoGL/pkg/glproto"
)

// Int returns a scalar or array int argument.
func Int(v ...int32) glproto.Arg {
	return glproto.Arg{Type: glproto.TypeInt, IsArray: len(v) > 1, Ints: v}
}

// Ints returns an int array argument, even for a single element.
func Ints(v ...int32) glproto.Arg {
	return glproto.Arg{Type: glproto.TypeInt, IsArray: true, Ints: v}
}

// Enum returns an enum argument.
func Enum(e glproto.Enum) glproto.Arg {
	return glproto.Arg{Type: glproto.TypeEnum, Ints: []int32{int32(e)}}
}

// Float returns a scalar or array float argument.
func Float(v ...float32) glproto.Arg {
	return glproto.Arg{Type: glproto.TypeFloat, IsArray: len(v) > 1, Floats: v}
}

// Floats returns a float array argument.
func Floats(v ...float32) glproto.Arg {
	return glproto.Arg{Type: glproto.TypeFloat, IsArray: true, Floats: v}
}

// Bool returns a bool argument.
func Bool(b bool) glproto.Arg {
	return glproto.Arg{Type: glproto.TypeBool, Bools: []bool{b}}
}

// Str returns a char argument.
func Str(s string) glproto.Arg {
	return glproto.Arg{Type: glproto.TypeChar, IsArray: true, Chars: [][]byte{[]byte(s)}}
}

// Data returns a byte array argument carrying data.
func Data(b []byte) glproto.Arg {
	return glproto.Arg{Type: glproto.TypeByte, IsArray: true, RawBytes: [][]byte{b}}
}

// NoData returns a byte array argument whose contents were not captured.
func NoData() glproto.Arg {
	return glproto.Arg{Type: glproto.TypeByte, IsArray: true}
}

// Builder assembles a record.
type Builder struct {
	rec glproto.Record
}

// Rec starts a record for f with args on context 0.
func Rec(f glproto.Function, args ...glproto.Arg) *Builder {
	return &Builder{rec: glproto.Record{Function: f, Args: args, Duration: 1000, ThreadDuration: 800}}
}

// Ctx sets the context id.
func (b *Builder) Ctx(id int32) *Builder {
	b.rec.ContextID = id
	return b
}

// At sets the start time in nanoseconds.
func (b *Builder) At(start int64) *Builder {
	b.rec.StartTime = start
	return b
}

// Took sets wall and thread durations.
func (b *Builder) Took(wall, thread int32) *Builder {
	b.rec.Duration, b.rec.ThreadDuration = wall, thread
	return b
}

// Returns sets an int return value.
func (b *Builder) Returns(v int32) *Builder {
	ret := Int(v)
	b.rec.ReturnValue = &ret
	return b
}

// Raised sets the GL error observed after the call.
func (b *Builder) Raised(e glproto.Enum) *Builder {
	b.rec.Error = e
	return b
}

// Framebuffer attaches a w x h capture of bottom-up RGBA pixels.
func (b *Builder) Framebuffer(w, h int32, rgba []byte) *Builder {
	b.rec.Framebuffer = &glproto.Framebuffer{Width: w, Height: h, Contents: fbimage.Compress(rgba)}
	return b
}

// Record returns the built record.
func (b *Builder) Record() *glproto.Record {
	r := b.rec
	return &r
}

// Records builds every builder.
func Records(bs ...*Builder) []*glproto.Record {
	out := make([]*glproto.Record, len(bs))
	for i, b := range bs {
		out[i] = b.Record()
	}
	return out
}

// Write frames recs onto w.
func Write(w io.Writer, recs []*glproto.Record) error {
	fw := framing.NewWriter(w)
	for _, r := range recs {
		if err := fw.WriteFrame(glproto.Marshal(r)); err != nil {
			return err
		}
	}
	return nil
}

// Bytes returns recs as trace file contents.
func Bytes(recs []*glproto.Record) []byte {
	var buf bytes.Buffer
	// Writes to a bytes.Buffer do not fail.
	_ = Write(&buf, recs)
	return buf.Bytes()
}

// File writes recs to a trace file in a test temp dir and returns its path.
func File(tb testing.TB, recs []*glproto.Record) string {
	tb.Helper()
	path := filepath.Join(tb.TempDir(), "trace.gltrace")
	if err := os.WriteFile(path, Bytes(recs), 0o644); err != nil {
		tb.Fatalf("Failed to write trace file: %v", err)
	}
	return path
}

// Solid returns w x h RGBA pixels of one color.
func Solid(w, h int, r, g, b, a byte) []byte {
	return bytes.Repeat([]byte{r, g, b, a}, w*h)
}

package trace

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/willibrandon/ChronoGL/pkg/fbimage"
	"github.com/willibrandon/ChronoGL/pkg/framing"
	"github.com/willibrandon/ChronoGL/pkg/glproto"
	"github.com/willibrandon/ChronoGL/pkg/tracetest"
)

func fiveCalls() []*glproto.Record {
	return tracetest.Records(
		tracetest.Rec(glproto.GLClear, tracetest.Int(0x4000)).At(100),
		tracetest.Rec(glproto.GLDrawArrays, tracetest.Enum(glproto.GL_TRIANGLES), tracetest.Int(0), tracetest.Int(3)).At(200),
		tracetest.Rec(glproto.EGLSwapBuffers, tracetest.Int(0), tracetest.Int(0)).At(300),
		tracetest.Rec(glproto.GLClear, tracetest.Int(0x4000)).At(400),
		tracetest.Rec(glproto.EGLSwapBuffers, tracetest.Int(0), tracetest.Int(0)).At(500),
	)
}

func parseBytes(t *testing.T, recs []*glproto.Record, opts ...Option) *Trace {
	t.Helper()
	tr, err := Parse(context.Background(), bytes.NewReader(tracetest.Bytes(recs)), opts...)
	require.NoError(t, err)
	return tr
}

func requirePartition(t *testing.T, tr *Trace) {
	t.Helper()
	next := 0
	for i, f := range tr.Frames {
		require.Equal(t, i, f.Index)
		require.Equal(t, next, f.Start, "frame %d leaves a gap or overlaps", i)
		require.Greater(t, f.End, f.Start, "frame %d is empty", i)
		next = f.End
	}
	require.Equal(t, tr.Len(), next)
}

func TestParseSingleContextFrames(t *testing.T) {
	tr := parseBytes(t, fiveCalls())

	require.Equal(t, 5, tr.Len())
	assert.Equal(t, []Frame{{Index: 0, Start: 0, End: 3}, {Index: 1, Start: 3, End: 5}}, tr.Frames)
	assert.Equal(t, []int32{0}, tr.Contexts)
	requirePartition(t, tr)

	for i, c := range tr.Calls {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, int64(i*100), c.Start, "timestamps are relative to the first call")
	}
	assert.Equal(t, 0, tr.FrameOf(2))
	assert.Equal(t, 1, tr.FrameOf(3))
	assert.Equal(t, -1, tr.FrameOf(5))
}

func TestParseTrailingPartialFrame(t *testing.T) {
	recs := append(fiveCalls(), tracetest.Rec(glproto.GLClear, tracetest.Int(0)).At(600).Record())
	tr := parseBytes(t, recs)

	require.Len(t, tr.Frames, 3)
	assert.Equal(t, Frame{Index: 2, Start: 5, End: 6}, tr.Frames[2])
	requirePartition(t, tr)
}

func TestParseEmpty(t *testing.T) {
	tr := parseBytes(t, nil)
	assert.Zero(t, tr.Len())
	assert.Empty(t, tr.Frames)
	assert.Empty(t, tr.Contexts)
}

func TestParseSingleContextKeepsArrivalOrder(t *testing.T) {
	tr := parseBytes(t, tracetest.Records(
		tracetest.Rec(glproto.GLFlush).At(500),
		tracetest.Rec(glproto.GLFinish).At(100),
	))
	assert.Equal(t, glproto.GLFlush, tr.Calls[0].Function())
	assert.Equal(t, int64(400), tr.Calls[0].Start)
	assert.Equal(t, int64(0), tr.Calls[1].Start)
}

func TestParseMultiContextStableSort(t *testing.T) {
	tr := parseBytes(t, tracetest.Records(
		tracetest.Rec(glproto.GLClear).Ctx(1).At(300),
		tracetest.Rec(glproto.GLFlush).Ctx(1).At(200),
		tracetest.Rec(glproto.GLFinish).Ctx(2).At(200),
		tracetest.Rec(glproto.EGLSwapBuffers).Ctx(2).At(100),
	))

	require.Equal(t, []int32{1, 2}, tr.Contexts)
	var got []glproto.Function
	for i, c := range tr.Calls {
		assert.Equal(t, i, c.Index)
		got = append(got, c.Function())
	}
	// glFlush and glFinish tie at 200 and keep their arrival order.
	assert.Equal(t, []glproto.Function{glproto.EGLSwapBuffers, glproto.GLFlush, glproto.GLFinish, glproto.GLClear}, got)
	assert.Equal(t, []Frame{{Index: 0, Start: 0, End: 1}, {Index: 1, Start: 1, End: 4}}, tr.Frames)

	// Offsets still point at each record's frame in arrival order.
	assert.Equal(t, int64(0), tr.Calls[3].Offset)
}

func TestParseSceneInvariants(t *testing.T) {
	opts := tracetest.DefaultSceneOptions()
	opts.Contexts = 3
	tr := parseBytes(t, tracetest.Scene(opts))

	assert.Len(t, tr.Contexts, 3)
	requirePartition(t, tr)
	for i := 1; i < tr.Len(); i++ {
		require.LessOrEqual(t, tr.Calls[i-1].Start, tr.Calls[i].Start)
	}
	assert.Equal(t, 0, tr.ContextIndex(0))
	assert.Equal(t, 2, tr.ContextIndex(2))
	assert.Equal(t, -1, tr.ContextIndex(9))
}

func TestParseOversizedFirstFrame(t *testing.T) {
	data := make([]byte, framing.HeaderSize)
	binary.BigEndian.PutUint32(data, framing.MaxPayloadSize+1)
	data = append(data, tracetest.Bytes(fiveCalls())...)

	tr, err := Parse(context.Background(), bytes.NewReader(data))
	require.Nil(t, tr)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, int64(0), perr.Offset)

	var corrupt *framing.CorruptFrameError
	require.ErrorAs(t, err, &corrupt)
}

func TestParseUndecodableRecord(t *testing.T) {
	good := tracetest.Bytes(fiveCalls()[:1])
	var buf bytes.Buffer
	buf.Write(good)
	require.NoError(t, framing.NewWriter(&buf).WriteFrame([]byte{0xFF, 0xFF, 0xFF}))

	_, err := Parse(context.Background(), &buf)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, int64(len(good)), perr.Offset)
	assert.ErrorIs(t, err, glproto.ErrMalformed)
}

func TestParseCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr, err := Parse(ctx, bytes.NewReader(tracetest.Bytes(fiveCalls())))
	assert.Nil(t, tr)
	require.ErrorIs(t, err, ErrCanceled)
	require.ErrorIs(t, err, context.Canceled)
}

func TestParseProgress(t *testing.T) {
	data := tracetest.Bytes(fiveCalls())
	var last, total int64
	_, err := Parse(context.Background(), bytes.NewReader(data),
		WithSize(int64(len(data))),
		WithProgress(func(read, size int64) { last, total = read, size }))
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), last)
	assert.Equal(t, int64(len(data)), total)
}

func TestCallProperties(t *testing.T) {
	tr := parseBytes(t, tracetest.Records(
		tracetest.Rec(glproto.GLPushGroupMarkerEXT, tracetest.Int(0), tracetest.Str("shadow pass")),
		tracetest.Rec(glproto.GLVertexAttribPointer, tracetest.Int(1), tracetest.Int(3), tracetest.Enum(glproto.GL_FLOAT),
			tracetest.Bool(true), tracetest.Int(12), tracetest.Int(0)),
		tracetest.Rec(glproto.GLDrawElements, tracetest.Enum(glproto.GL_TRIANGLES), tracetest.Int(36),
			tracetest.Enum(glproto.GL_UNSIGNED_SHORT), tracetest.Int(0)).Raised(glproto.GL_INVALID_OPERATION),
	))

	marker, ok := tr.Calls[0].Property(PropMarker)
	require.True(t, ok)
	assert.Equal(t, "shadow pass", marker)

	assert.Equal(t, []Property{
		{PropIndex, "1"}, {PropSize, "3"}, {PropType, "GL_FLOAT"}, {PropNormalized, "true"}, {PropStride, "12"},
	}, tr.Calls[1].Properties)

	assert.Equal(t, 36, tr.Calls[2].Vertices())
	errName, ok := tr.Calls[2].Property(PropError)
	require.True(t, ok)
	assert.Equal(t, "GL_INVALID_OPERATION", errName)
}

func TestTransformErrorsAreLoggedNotFatal(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	tr := parseBytes(t, tracetest.Records(
		tracetest.Rec(glproto.GLViewport, tracetest.Int(0)),
		tracetest.Rec(glproto.GLLineWidth, tracetest.Float(2)),
	), WithLogger(zap.New(core)))

	require.Equal(t, 2, tr.Len())
	assert.Empty(t, tr.Calls[0].Transforms)
	assert.Len(t, tr.Calls[1].Transforms, 1)
	require.Equal(t, 1, logs.FilterMessage("Skipping state transforms").Len())
}

func TestFramebufferFromFile(t *testing.T) {
	pixels := tracetest.Solid(4, 2, 10, 20, 30, 40)
	recs := append(fiveCalls(),
		tracetest.Rec(glproto.EGLSwapBuffers).At(600).Framebuffer(4, 2, pixels).Record(),
		tracetest.Rec(glproto.EGLSwapBuffers).At(700).Framebuffer(0, 2, pixels).Record(),
	)
	path := tracetest.File(t, recs)

	core, logs := observer.New(zapcore.WarnLevel)
	tr, err := ParseFile(context.Background(), path, WithLogger(zap.New(core)))
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, path, tr.Path)
	assert.Equal(t, info.Size(), tr.Size)
	assert.False(t, tr.ModTime.IsZero())

	c := tr.Calls[5]
	require.True(t, c.HasFramebuffer())
	assert.Empty(t, c.Record.Framebuffer.Contents, "payload is re-read from the file")

	img, err := tr.Framebuffer(5)
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.Equal(t, 4, img.Width)
	assert.Equal(t, byte(40), img.Alpha[0])

	again, err := tr.Framebuffer(5)
	require.NoError(t, err)
	assert.Same(t, img, again)

	// Invalid dimensions are dropped with a warning.
	assert.False(t, tr.Calls[6].HasFramebuffer())
	assert.Equal(t, 1, logs.FilterMessage("Ignoring framebuffer capture").Len())
	img, err = tr.Framebuffer(6)
	require.NoError(t, err)
	assert.Nil(t, img)

	assert.Equal(t, 5, tr.LastFramebuffer(6))
	assert.Equal(t, -1, tr.LastFramebuffer(4))

	_, err = tr.Framebuffer(99)
	require.Error(t, err)
}

func TestFramebufferSizeMismatch(t *testing.T) {
	rec := tracetest.Rec(glproto.EGLSwapBuffers).Framebuffer(4, 4, tracetest.Solid(4, 4, 1, 2, 3, 4)).Record()
	rec.Framebuffer.Width = 8
	tr := parseBytes(t, []*glproto.Record{rec})

	_, err := tr.Framebuffer(0)
	require.ErrorIs(t, err, fbimage.ErrSizeMismatch)
	assert.Contains(t, err.Error(), "call 0")
}

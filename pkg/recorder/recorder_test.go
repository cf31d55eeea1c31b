package recorder

import (
	"bytes"
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/willibrandon/ChronoGL/pkg/framing"
	"github.com/willibrandon/ChronoGL/pkg/glproto"
	"github.com/willibrandon/ChronoGL/pkg/trace"
	"github.com/willibrandon/ChronoGL/pkg/tracetest"
)

func fiveCalls() []*glproto.Record {
	return tracetest.Records(
		tracetest.Rec(glproto.GLClear, tracetest.Int(0x4000)).At(100),
		tracetest.Rec(glproto.GLDrawArrays, tracetest.Enum(glproto.GL_TRIANGLES), tracetest.Int(0), tracetest.Int(3)).At(200),
		tracetest.Rec(glproto.EGLSwapBuffers).At(300).Framebuffer(2, 2, tracetest.Solid(2, 2, 1, 2, 3, 255)),
		tracetest.Rec(glproto.GLClear, tracetest.Int(0x4000)).At(400),
		tracetest.Rec(glproto.EGLSwapBuffers).At(500),
	)
}

// fakeTracer plays the target side of a capture channel: it reads the
// commands the session sends and streams recs.
type fakeTracer struct {
	conn     net.Conn
	commands chan framing.CaptureOptions
	done     chan error
}

func startTracer(t *testing.T, conn net.Conn) *fakeTracer {
	t.Helper()
	ft := &fakeTracer{conn: conn, commands: make(chan framing.CaptureOptions, 8), done: make(chan error, 1)}
	go func() {
		defer close(ft.commands)
		for {
			buf := make([]byte, framing.CommandSize)
			if _, err := io.ReadFull(conn, buf); err != nil {
				return
			}
			o, err := framing.DecodeCommand(buf)
			if err != nil {
				return
			}
			ft.commands <- o
		}
	}()
	return ft
}

func (ft *fakeTracer) stream(recs []*glproto.Record, closeAfter bool) {
	go func() {
		err := tracetest.Write(ft.conn, recs)
		if closeAfter {
			ft.conn.Close()
		}
		ft.done <- err
	}()
}

func TestInMemoryRecorder(t *testing.T) {
	rec := NewInMemoryRecorder()
	assert.Zero(t, rec.Frames())

	for _, r := range fiveCalls() {
		require.NoError(t, rec.RecordFrame(glproto.Marshal(r)))
	}
	assert.Equal(t, 5, rec.Frames())
	assert.Equal(t, tracetest.Bytes(fiveCalls()), rec.Contents())
	assert.Equal(t, int64(len(rec.Contents())), rec.Bytes())

	require.NoError(t, rec.Close())
	tr, err := rec.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, tr.Len())
	assert.Len(t, tr.Frames, 2)

	rec.Clear()
	assert.Zero(t, rec.Frames())
	assert.Empty(t, rec.Contents())
}

func TestFileRecorder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.gltrace")
	rec, err := NewFileRecorder(path)
	require.NoError(t, err)
	assert.Equal(t, path, rec.Path())

	for _, r := range fiveCalls() {
		require.NoError(t, rec.RecordFrame(glproto.Marshal(r)))
	}
	require.NoError(t, rec.Close())
	require.NoError(t, rec.Close())
	assert.ErrorIs(t, rec.RecordFrame([]byte{1}), os.ErrClosed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, tracetest.Bytes(fiveCalls()), data)
	assert.Equal(t, int64(len(data)), rec.Bytes())

	tr, err := rec.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, path, tr.Path)
	assert.Equal(t, 5, tr.Len())
}

func TestFileRecorderAppendAndFlush(t *testing.T) {
	path := tracetest.File(t, fiveCalls()[:2])

	rec, err := NewFileRecorderWithOptions(path, FileRecorderOptions{Append: true, FlushEachFrame: true})
	require.NoError(t, err)
	defer rec.Close()

	require.NoError(t, rec.RecordFrame(glproto.Marshal(fiveCalls()[2])))

	// Visible before Close.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, tracetest.Bytes(fiveCalls()[:3]), data)
}

func TestFileRecorderBuffersUntilClose(t *testing.T) {
	path := tracetest.File(t, fiveCalls()[:2])

	rec, err := NewFileRecorderWithOptions(path, FileRecorderOptions{Append: true})
	require.NoError(t, err)
	require.NoError(t, rec.RecordFrame(glproto.Marshal(fiveCalls()[2])))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, tracetest.Bytes(fiveCalls()[:2]), data)

	require.NoError(t, rec.Close())
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, tracetest.Bytes(fiveCalls()[:3]), data)
}

func TestSessionCapture(t *testing.T) {
	local, remote := net.Pipe()
	ft := startTracer(t, remote)
	path := filepath.Join(t.TempDir(), "capture.gltrace")

	initial := framing.CaptureOptions{FramebufferOnSwap: true}
	s, err := StartSession(context.Background(), local, path, SessionOptions{Capture: initial})
	require.NoError(t, err)
	assert.Equal(t, initial, <-ft.commands)

	update := framing.CaptureOptions{FramebufferOnDraw: true, TextureData: true}
	require.NoError(t, s.SendCommand(update))
	assert.Equal(t, update, <-ft.commands)

	ft.stream(fiveCalls(), true)
	require.NoError(t, <-ft.done)

	tr, err := s.Stop(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5, tr.Len())
	assert.Equal(t, []trace.Frame{{Index: 0, Start: 0, End: 3}, {Index: 1, Start: 3, End: 5}}, tr.Frames)
	assert.Equal(t, path, tr.Path)
	assert.Equal(t, 5, s.Frames())
	assert.Equal(t, int64(len(tracetest.Bytes(fiveCalls()))), s.BytesRead())

	img, err := tr.Framebuffer(2)
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.Equal(t, 2, img.Width)

	_, err = s.Stop(context.Background())
	assert.ErrorIs(t, err, ErrSessionStopped)
	assert.ErrorIs(t, s.SendCommand(update), ErrSessionStopped)
}

func TestSessionStopWhileTracerConnected(t *testing.T) {
	local, remote := net.Pipe()
	ft := startTracer(t, remote)

	core, logs := observer.New(zapcore.DebugLevel)
	s, err := StartSession(context.Background(), local, "", SessionOptions{
		SkipInitialCommand: true,
		Logger:             zap.New(core),
	})
	require.NoError(t, err)

	ft.stream(fiveCalls()[:3], false)
	require.NoError(t, <-ft.done)

	tr, err := s.Stop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, tr.Len())
	assert.Equal(t, 3, logs.FilterMessage("Captured frame").Len())
	assert.Equal(t, 1, logs.FilterMessage("Capture session stopped").Len())
}

func TestSessionCorruptStream(t *testing.T) {
	local, remote := net.Pipe()
	startTracer(t, remote)
	rec := NewInMemoryRecorder()

	s, err := StartSession(context.Background(), local, "", SessionOptions{SkipInitialCommand: true, Recorder: rec})
	require.NoError(t, err)

	var stream bytes.Buffer
	require.NoError(t, tracetest.Write(&stream, fiveCalls()[:2]))
	stream.Write([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	go func() {
		remote.Write(stream.Bytes())
	}()

	// The reader stops at the bad header; the frames before it are kept.
	<-s.Done()
	tr, err := s.Stop(context.Background())
	var corrupt *framing.CorruptFrameError
	require.ErrorAs(t, err, &corrupt)
	assert.Equal(t, int64(stream.Len()-framing.HeaderSize), corrupt.Offset)
	require.NotNil(t, tr)
	assert.Equal(t, 2, tr.Len())
	assert.Equal(t, 2, rec.Frames())
}

func TestSessionContextCancel(t *testing.T) {
	local, remote := net.Pipe()
	ft := startTracer(t, remote)

	ctx, cancel := context.WithCancel(context.Background())
	s, err := StartSession(ctx, local, "", SessionOptions{SkipInitialCommand: true})
	require.NoError(t, err)

	ft.stream(fiveCalls()[:1], false)
	require.NoError(t, <-ft.done)
	cancel()

	// The tracer sees the channel close.
	_, ok := <-ft.commands
	assert.False(t, ok)

	tr, err := s.Stop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, tr.Len())
}

func TestStartSessionBadPath(t *testing.T) {
	local, remote := net.Pipe()
	defer remote.Close()
	_, err := StartSession(context.Background(), local, filepath.Join(t.TempDir(), "missing", "x.gltrace"), SessionOptions{})
	require.Error(t, err)
}

package browser

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/ChronoGL/pkg/glproto"
	"github.com/willibrandon/ChronoGL/pkg/trace"
	"github.com/willibrandon/ChronoGL/pkg/tracetest"
)

func parse(t *testing.T, recs []*glproto.Record) *trace.Trace {
	t.Helper()
	tr, err := trace.Parse(context.Background(), bytes.NewReader(tracetest.Bytes(recs)))
	require.NoError(t, err)
	return tr
}

func TestAddBreakpoint(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		want    Breakpoint
		wantErr bool
	}{
		{name: "plain function", expr: "glDrawArrays", want: Breakpoint{Type: FunctionBreakpoint, Function: glproto.GLDrawArrays}},
		{name: "func prefix", expr: "func:eglSwapBuffers", want: Breakpoint{Type: FunctionBreakpoint, Function: glproto.EGLSwapBuffers}},
		{name: "call hash", expr: "#42", want: Breakpoint{Type: CallBreakpoint, Index: 42}},
		{name: "call prefix", expr: "call:7", want: Breakpoint{Type: CallBreakpoint, Index: 7}},
		{name: "frame", expr: "frame:2", want: Breakpoint{Type: FrameBreakpoint, Index: 2}},
		{name: "draw", expr: "draw", want: Breakpoint{Type: DrawBreakpoint}},
		{name: "error", expr: "error", want: Breakpoint{Type: ErrorBreakpoint}},
		{name: "marker", expr: "marker:shadow", want: Breakpoint{Type: MarkerBreakpoint, Marker: "shadow"}},
		{name: "unknown function", expr: "glFrobnicate", wantErr: true},
		{name: "negative index", expr: "#-1", wantErr: true},
		{name: "bad frame", expr: "frame:x", wantErr: true},
		{name: "unknown kind", expr: "line:3", wantErr: true},
		{name: "empty marker", expr: "marker:", wantErr: true},
		{name: "empty", expr: "  ", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bm := NewBreakpointManager()
			bp, err := bm.Add(tt.expr)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Empty(t, bm.List())
				return
			}
			require.NoError(t, err)
			tt.want.ID = 1
			tt.want.Enabled = true
			assert.Equal(t, &tt.want, bp)
		})
	}
}

func TestBreakpointLifecycle(t *testing.T) {
	bm := NewBreakpointManager()
	a, err := bm.Add("draw")
	require.NoError(t, err)
	b, err := bm.Add("error")
	require.NoError(t, err)
	assert.Equal(t, []*Breakpoint{a, b}, bm.List())

	require.NoError(t, bm.Disable(a.ID))
	assert.False(t, a.Enabled)
	require.NoError(t, bm.Enable(a.ID))
	assert.True(t, a.Enabled)

	require.NoError(t, bm.Remove(a.ID))
	assert.Equal(t, []*Breakpoint{b}, bm.List())

	assert.Error(t, bm.Remove(a.ID))
	assert.Error(t, bm.Enable(99))
	assert.Error(t, bm.Disable(99))

	// Ids are not reused.
	c, err := bm.Add("#3")
	require.NoError(t, err)
	assert.Equal(t, 3, c.ID)
}

func TestCheck(t *testing.T) {
	tr := parse(t, tracetest.Records(
		tracetest.Rec(glproto.GLPushGroupMarkerEXT, tracetest.Int(0), tracetest.Str("shadow pass")),
		tracetest.Rec(glproto.GLDrawArrays, tracetest.Enum(glproto.GL_TRIANGLES), tracetest.Int(0), tracetest.Int(3)),
		tracetest.Rec(glproto.GLPopGroupMarkerEXT),
		tracetest.Rec(glproto.EGLSwapBuffers, tracetest.Int(0), tracetest.Int(0)),
		tracetest.Rec(glproto.GLUseProgram, tracetest.Int(9)).Raised(glproto.GL_INVALID_OPERATION),
		tracetest.Rec(glproto.EGLSwapBuffers, tracetest.Int(0), tracetest.Int(0)),
	))

	matches := func(expr string) []int {
		bm := NewBreakpointManager()
		_, err := bm.Add(expr)
		require.NoError(t, err)
		var hits []int
		for _, c := range tr.Calls {
			if _, ok := bm.Check(tr, c); ok {
				hits = append(hits, c.Index)
			}
		}
		return hits
	}

	assert.Equal(t, []int{1}, matches("draw"))
	assert.Equal(t, []int{3, 5}, matches("eglSwapBuffers"))
	assert.Equal(t, []int{4}, matches("error"))
	assert.Equal(t, []int{4}, matches("frame:1"))
	assert.Equal(t, []int{2}, matches("#2"))
	assert.Equal(t, []int{0}, matches("marker:shadow"))
	assert.Empty(t, matches("marker:color"))
	assert.Empty(t, matches("frame:5"))
}

func TestCheckCountsHitsAndSkipsDisabled(t *testing.T) {
	tr := parse(t, tracetest.Records(
		tracetest.Rec(glproto.GLDrawArrays, tracetest.Enum(glproto.GL_TRIANGLES), tracetest.Int(0), tracetest.Int(3)),
	))
	bm := NewBreakpointManager()
	off, err := bm.Add("draw")
	require.NoError(t, err)
	on, err := bm.Add("glDrawArrays")
	require.NoError(t, err)
	require.NoError(t, bm.Disable(off.ID))

	bp, ok := bm.Check(tr, tr.Calls[0])
	require.True(t, ok)
	assert.Same(t, on, bp)
	assert.Equal(t, 1, on.Hits)
	assert.Equal(t, 0, off.Hits)
	assert.Equal(t, "2: function glDrawArrays (enabled, 1 hits)", on.String())
}

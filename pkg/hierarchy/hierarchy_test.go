package hierarchy

import (
	"bytes"
	"context"
	"strings"
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

func push(name string) *tracetest.Builder {
	return tracetest.Rec(glproto.GLPushGroupMarkerEXT, tracetest.Int(0), tracetest.Str(name))
}

func pop() *tracetest.Builder {
	return tracetest.Rec(glproto.GLPopGroupMarkerEXT)
}

func draw() *tracetest.Builder {
	return tracetest.Rec(glproto.GLDrawArrays, tracetest.Enum(glproto.GL_TRIANGLES), tracetest.Int(0), tracetest.Int(3))
}

func TestBuildNested(t *testing.T) {
	tr := parse(t, tracetest.Records(
		push("frame"), // 0
		push("pass"),  // 1
		draw(),        // 2
		pop(),         // 3
		draw(),        // 4
		pop(),         // 5
		draw(),        // 6
	))
	h := Build(tr, 0, tr.Len(), 0)

	require.Equal(t, 7, h.Len())
	roots := h.Roots()
	require.Len(t, roots, 2)
	assert.Equal(t, 0, h.Call(roots[0]))
	assert.Equal(t, 6, h.Call(roots[1]))
	assert.False(t, h.HasChildren(roots[1]))

	frame := roots[0]
	var calls []int
	for _, id := range h.Children(frame) {
		calls = append(calls, h.Call(id))
		assert.Equal(t, frame, h.Parent(id))
	}
	assert.Equal(t, []int{1, 4, 5}, calls)

	pass := h.Children(frame)[0]
	require.True(t, h.HasChildren(pass))
	assert.Len(t, h.Children(pass), 2)
	assert.Equal(t, NoNode, h.Parent(frame))
}

func TestBuildBalancedScene(t *testing.T) {
	opts := tracetest.DefaultSceneOptions()
	tr := parse(t, tracetest.Scene(opts))
	h := Build(tr, 0, tr.Len(), 0)

	pushes := 0
	for _, c := range tr.Calls {
		if c.Function() == glproto.GLPushGroupMarkerEXT {
			pushes++
		}
	}
	require.Equal(t, 2*opts.Frames, pushes)
	assert.Equal(t, pushes, h.Groups())
	assert.Equal(t, tr.Len(), h.Len())

	// Every pop sits inside the group it closes.
	for id := NodeID(0); int(id) < h.Len(); id++ {
		if tr.Calls[h.Call(id)].Function() == glproto.GLPopGroupMarkerEXT {
			assert.NotEqual(t, NoNode, h.Parent(id), "pop %d is an orphan", h.Call(id))
		}
	}
}

func TestBuildOrphanPop(t *testing.T) {
	tr := parse(t, tracetest.Records(draw(), pop(), push("late"), draw()))
	h := Build(tr, 0, tr.Len(), 0)

	roots := h.Roots()
	require.Len(t, roots, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{h.Call(roots[0]), h.Call(roots[1]), h.Call(roots[2])})
	assert.False(t, h.HasChildren(roots[1]))
	// The unclosed group keeps what it collected.
	require.Len(t, h.Children(roots[2]), 1)
}

func TestBuildFlat(t *testing.T) {
	tr := parse(t, tracetest.Records(push("a"), draw(), pop(), draw()))

	for _, ctx := range []int{AllContexts, 5} {
		h := Build(tr, 1, 4, ctx)
		require.Equal(t, 3, h.Len())
		assert.Zero(t, h.Groups())
		for i, id := range h.Roots() {
			assert.Equal(t, i+1, h.Call(id))
		}
	}
}

func TestBuildFiltersContext(t *testing.T) {
	tr := parse(t, tracetest.Records(
		push("zero").Ctx(0).At(0),
		draw().Ctx(1).At(10),
		draw().Ctx(0).At(20),
		pop().Ctx(0).At(30),
	))
	h := Build(tr, 0, tr.Len(), tr.ContextIndex(0))

	require.Equal(t, 3, h.Len())
	require.Len(t, h.Roots(), 1)
	assert.Len(t, h.Children(h.Roots()[0]), 2)

	h = Build(tr, 0, tr.Len(), tr.ContextIndex(1))
	require.Equal(t, 1, h.Len())
	assert.Equal(t, 1, h.Call(h.Roots()[0]))
}

func TestBuildEmptyRange(t *testing.T) {
	tr := parse(t, tracetest.Records(draw()))
	assert.Zero(t, Build(tr, 1, 1, 0).Len())
	assert.Zero(t, Build(tr, 5, 9, 0).Len())
}

func TestSetParent(t *testing.T) {
	tr := parse(t, tracetest.Records(push("g"), draw(), pop(), draw(), draw()))
	h := Build(tr, 0, tr.Len(), 0)
	roots := h.Roots()
	require.Len(t, roots, 3)
	group, last := roots[0], roots[2]

	require.NoError(t, h.SetParent(last, group))
	assert.Equal(t, group, h.Parent(last))
	assert.Len(t, h.Roots(), 2)
	assert.Equal(t, last, h.Children(group)[2])

	moved := h.Children(group)[0]
	require.NoError(t, h.SetParent(moved, NoNode))
	assert.Equal(t, []int{0, 1, 3}, []int{h.Call(h.Roots()[0]), h.Call(h.Roots()[1]), h.Call(h.Roots()[2])})

	assert.Error(t, h.SetParent(group, h.Children(group)[0]))
	assert.Error(t, h.SetParent(99, NoNode))
}

func TestDump(t *testing.T) {
	tr := parse(t, tracetest.Records(push("pass"), draw(), pop()))
	var buf bytes.Buffer
	require.NoError(t, Build(tr, 0, tr.Len(), 0).Dump(&buf, tr))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], `glPushGroupMarkerEXT "pass"`)
	assert.True(t, strings.HasPrefix(lines[1], "  "))
}

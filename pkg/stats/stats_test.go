package stats

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/pprof/profile"
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

func drawArrays(count int32) *tracetest.Builder {
	return tracetest.Rec(glproto.GLDrawArrays, tracetest.Enum(glproto.GL_TRIANGLES), tracetest.Int(0), tracetest.Int(count))
}

func TestSummarize(t *testing.T) {
	tr := parse(t, tracetest.Records(
		tracetest.Rec(glproto.GLClear).At(0).Took(100, 90),
		drawArrays(3).At(1000).Took(5000, 4000),
		drawArrays(6).At(7000).Took(1000, 800).Raised(glproto.GL_INVALID_OPERATION),
		tracetest.Rec(glproto.EGLSwapBuffers).At(9000).Took(2000, 100),
		tracetest.Rec(glproto.GLClear).At(20000).Took(300, 200),
	))
	s := Summarize(tr)

	assert.Equal(t, 5, s.Calls)
	assert.Equal(t, 1, s.Contexts)
	assert.Equal(t, 2, s.Draws)
	assert.Equal(t, 9, s.Vertices)
	assert.Equal(t, 1, s.Errors)
	assert.Equal(t, 8400*time.Nanosecond, s.Wall)
	assert.Equal(t, 20300*time.Nanosecond, s.Duration)

	require.Len(t, s.Functions, 3)
	assert.Equal(t, glproto.GLDrawArrays, s.Functions[0].Function)
	assert.Equal(t, glproto.EGLSwapBuffers, s.Functions[1].Function)

	draws, ok := s.Function(glproto.GLDrawArrays)
	require.True(t, ok)
	assert.Equal(t, 2, draws.Calls)
	assert.Equal(t, 6000*time.Nanosecond, draws.Wall)
	assert.Equal(t, 4800*time.Nanosecond, draws.Thread)
	assert.Equal(t, 5000*time.Nanosecond, draws.MaxWall)
	assert.Equal(t, 3000*time.Nanosecond, draws.MeanWall())
	assert.Equal(t, 1, draws.Errors)

	clears, ok := s.Function(glproto.GLClear)
	require.True(t, ok)
	assert.Equal(t, 2, clears.Calls)

	_, ok = s.Function(glproto.GLFlush)
	assert.False(t, ok)

	require.Len(t, s.Frames, 2)
	assert.Equal(t, FrameStats{Index: 0, Calls: 4, Draws: 2, Vertices: 9, Span: 11000 * time.Nanosecond, Wall: 8100 * time.Nanosecond}, s.Frames[0])
	assert.Equal(t, 1, s.Frames[1].Calls)

	assert.Len(t, s.Top(1), 1)
	assert.Len(t, s.Top(10), 3)
	assert.Len(t, s.Top(0), 3)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(parse(t, nil))
	assert.Zero(t, s.Calls)
	assert.Empty(t, s.Functions)
	assert.Empty(t, s.Frames)
	assert.Empty(t, s.Top(5))
}

func TestToProfile(t *testing.T) {
	opts := tracetest.DefaultSceneOptions()
	opts.Contexts = 2
	tr := parse(t, tracetest.Scene(opts))

	prof := ToProfile(tr)
	require.NoError(t, prof.CheckValid())

	var calls, wall int64
	for _, s := range prof.Sample {
		calls += s.Value[ValueCalls]
		wall += s.Value[ValueWall]
	}
	assert.Equal(t, int64(tr.Len()), calls)
	assert.Equal(t, int64(Summarize(tr).Wall), wall)

	var buf bytes.Buffer
	require.NoError(t, prof.Write(&buf))
	parsed, err := profile.Parse(&buf)
	require.NoError(t, err)
	assert.Len(t, parsed.Sample, len(prof.Sample))
	assert.Equal(t, "calls", parsed.SampleType[ValueCalls].Type)
}

func TestToProfileStacks(t *testing.T) {
	tr := parse(t, tracetest.Records(
		tracetest.Rec(glproto.GLPushGroupMarkerEXT, tracetest.Int(0), tracetest.Str("shadow")),
		drawArrays(3),
		drawArrays(3),
		tracetest.Rec(glproto.GLPopGroupMarkerEXT),
		drawArrays(3),
		tracetest.Rec(glproto.EGLSwapBuffers),
		drawArrays(3),
	))
	prof := ToProfile(tr)
	require.NoError(t, prof.CheckValid())

	stacks := map[string]int64{}
	for _, s := range prof.Sample {
		var names []string
		for _, loc := range s.Location {
			names = append(names, loc.Line[0].Function.Name)
		}
		key := s.Label["frame"][0] + ":" + joinNames(names)
		stacks[key] += s.Value[ValueCalls]
	}

	assert.Equal(t, int64(2), stacks["0:glDrawArrays<shadow<context 0"])
	assert.Equal(t, int64(1), stacks["0:glDrawArrays<context 0"])
	assert.Equal(t, int64(1), stacks["1:glDrawArrays<context 0"])
	assert.Equal(t, int64(1), stacks["0:glPopGroupMarkerEXT<context 0"])
	assert.Equal(t, int64(1), stacks["0:glPushGroupMarkerEXT<context 0"])
}

func joinNames(names []string) string {
	var b bytes.Buffer
	for i, n := range names {
		if i > 0 {
			b.WriteByte('<')
		}
		b.WriteString(n)
	}
	return b.String()
}

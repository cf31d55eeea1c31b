package stats

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/pprof/profile"

	"github.com/willibrandon/ChronoGL/pkg/glproto"
	"github.com/willibrandon/ChronoGL/pkg/trace"
)

// Sample value indexes of the exported profile.
const (
	ValueWall = iota
	ValueThread
	ValueCalls
)

type sampleKey struct {
	stack string
	frame int
}

// ToProfile exports call timings as a pprof profile. Each sample's stack is
// the call's function under the group markers open on its context, rooted at
// the context. Samples are labelled with their frame index, so
// `pprof -tagfocus frame=3` narrows a flame graph to one frame.
func ToProfile(tr *trace.Trace) *profile.Profile {
	prof := &profile.Profile{
		SampleType: []*profile.ValueType{
			{Type: "wall", Unit: "nanoseconds"},
			{Type: "thread", Unit: "nanoseconds"},
			{Type: "calls", Unit: "count"},
		},
		PeriodType:    &profile.ValueType{Type: "wall", Unit: "nanoseconds"},
		Period:        1,
		DurationNanos: int64(tr.Duration()),
	}
	if !tr.ModTime.IsZero() {
		prof.TimeNanos = tr.ModTime.UnixNano()
	}

	var (
		locations = map[string]*profile.Location{}
		samples   = map[sampleKey]*profile.Sample{}
		markers   = map[int32][]string{}
	)

	location := func(name, kind string) *profile.Location {
		key := kind + ":" + name
		if loc, ok := locations[key]; ok {
			return loc
		}
		fn := &profile.Function{
			ID:         uint64(len(prof.Function) + 1),
			Name:       name,
			SystemName: name,
			Filename:   kind,
		}
		prof.Function = append(prof.Function, fn)

		loc := &profile.Location{
			ID:   uint64(len(prof.Location) + 1),
			Line: []profile.Line{{Function: fn}},
		}
		locations[key] = loc
		prof.Location = append(prof.Location, loc)
		return loc
	}

	for _, c := range tr.Calls {
		ctx := c.Context()
		if c.Function() == glproto.GLPopGroupMarkerEXT && len(markers[ctx]) > 0 {
			markers[ctx] = markers[ctx][:len(markers[ctx])-1]
		}

		open := markers[ctx]
		// pprof stacks are leaf first.
		stack := make([]*profile.Location, 0, len(open)+2)
		stack = append(stack, location(c.Function().String(), "gl"))
		for i := len(open) - 1; i >= 0; i-- {
			stack = append(stack, location(open[i], "marker"))
		}
		stack = append(stack, location(fmt.Sprintf("context %d", ctx), "context"))

		ids := make([]string, len(stack))
		for i, loc := range stack {
			ids[i] = strconv.FormatUint(loc.ID, 10)
		}
		key := sampleKey{stack: strings.Join(ids, ","), frame: tr.FrameOf(c.Index)}

		s, ok := samples[key]
		if !ok {
			s = &profile.Sample{
				Location: stack,
				Value:    make([]int64, 3),
				Label:    map[string][]string{"frame": {strconv.Itoa(key.frame)}},
			}
			samples[key] = s
			prof.Sample = append(prof.Sample, s)
		}
		s.Value[ValueWall] += int64(c.Duration())
		s.Value[ValueThread] += int64(c.ThreadDuration())
		s.Value[ValueCalls]++

		if c.Function() == glproto.GLPushGroupMarkerEXT {
			name, ok := c.Property(trace.PropMarker)
			if !ok {
				name = "unnamed group"
			}
			markers[ctx] = append(markers[ctx], name)
		}
	}
	return prof
}

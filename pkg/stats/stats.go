// Package stats summarizes where the time of a trace goes.
package stats

import (
	"cmp"
	"slices"
	"time"

	"github.com/willibrandon/ChronoGL/pkg/glproto"
	"github.com/willibrandon/ChronoGL/pkg/trace"
)

// FunctionStats aggregates every call to one function.
type FunctionStats struct {
	Function glproto.Function
	Calls    int
	Wall     time.Duration
	Thread   time.Duration
	MaxWall  time.Duration
	Vertices int
	Errors   int
}

// MeanWall returns the average wall time per call.
func (f FunctionStats) MeanWall() time.Duration {
	if f.Calls == 0 {
		return 0
	}
	return f.Wall / time.Duration(f.Calls)
}

// FrameStats describes one frame.
type FrameStats struct {
	Index    int
	Calls    int
	Draws    int
	Vertices int
	// Span is the time from the first call's start to the last call's end.
	Span time.Duration
	Wall time.Duration
}

// Summary is the aggregate view of a trace.
type Summary struct {
	Calls    int
	Contexts int
	Duration time.Duration
	Wall     time.Duration
	Thread   time.Duration
	Draws    int
	Vertices int
	Errors   int

	// Functions is sorted by total wall time, largest first.
	Functions []FunctionStats
	Frames    []FrameStats
}

// Summarize walks every call of tr once.
func Summarize(tr *trace.Trace) *Summary {
	s := &Summary{
		Calls:    tr.Len(),
		Contexts: len(tr.Contexts),
		Duration: tr.Duration(),
	}

	byFunc := map[glproto.Function]*FunctionStats{}
	for _, c := range tr.Calls {
		fs, ok := byFunc[c.Function()]
		if !ok {
			fs = &FunctionStats{Function: c.Function()}
			byFunc[c.Function()] = fs
		}
		wall, thread := c.Duration(), c.ThreadDuration()
		fs.Calls++
		fs.Wall += wall
		fs.Thread += thread
		fs.MaxWall = max(fs.MaxWall, wall)
		s.Wall += wall
		s.Thread += thread

		if c.Function().IsDraw() {
			v := c.Vertices()
			fs.Vertices += v
			s.Draws++
			s.Vertices += v
		}
		if c.Record.Error != glproto.GL_NONE {
			fs.Errors++
			s.Errors++
		}
	}

	s.Functions = make([]FunctionStats, 0, len(byFunc))
	for _, fs := range byFunc {
		s.Functions = append(s.Functions, *fs)
	}
	slices.SortFunc(s.Functions, func(a, b FunctionStats) int {
		if c := cmp.Compare(b.Wall, a.Wall); c != 0 {
			return c
		}
		return cmp.Compare(a.Function, b.Function)
	})

	s.Frames = make([]FrameStats, len(tr.Frames))
	for i, f := range tr.Frames {
		fs := FrameStats{Index: f.Index, Calls: f.Len()}
		var end int64
		for _, c := range tr.Calls[f.Start:f.End] {
			fs.Wall += c.Duration()
			end = max(end, c.End())
			if c.Function().IsDraw() {
				fs.Draws++
				fs.Vertices += c.Vertices()
			}
		}
		if f.Len() > 0 {
			fs.Span = time.Duration(end - tr.Calls[f.Start].Start)
		}
		s.Frames[i] = fs
	}
	return s
}

// Function returns the stats of f.
func (s *Summary) Function(f glproto.Function) (FunctionStats, bool) {
	for _, fs := range s.Functions {
		if fs.Function == f {
			return fs, true
		}
	}
	return FunctionStats{}, false
}

// Top returns at most n functions with the most wall time, or all of them
// when n <= 0.
func (s *Summary) Top(n int) []FunctionStats {
	if n <= 0 {
		return s.Functions
	}
	return s.Functions[:min(n, len(s.Functions))]
}

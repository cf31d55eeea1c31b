package browser

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/willibrandon/ChronoGL/pkg/glproto"
	"github.com/willibrandon/ChronoGL/pkg/trace"
)

// BreakpointType is what a breakpoint matches on.
type BreakpointType int

const (
	// FunctionBreakpoint stops on calls to a GL or EGL function.
	FunctionBreakpoint BreakpointType = iota
	// CallBreakpoint stops on one call index.
	CallBreakpoint
	// FrameBreakpoint stops on the first call of a frame.
	FrameBreakpoint
	// DrawBreakpoint stops on any draw call.
	DrawBreakpoint
	// ErrorBreakpoint stops on calls that raised a GL error.
	ErrorBreakpoint
	// MarkerBreakpoint stops on group markers whose name contains a string.
	MarkerBreakpoint
)

func (t BreakpointType) String() string {
	switch t {
	case FunctionBreakpoint:
		return "function"
	case CallBreakpoint:
		return "call"
	case FrameBreakpoint:
		return "frame"
	case DrawBreakpoint:
		return "draw"
	case ErrorBreakpoint:
		return "error"
	case MarkerBreakpoint:
		return "marker"
	default:
		return "unknown"
	}
}

// Breakpoint stops a continue.
type Breakpoint struct {
	ID       int
	Type     BreakpointType
	Function glproto.Function
	Index    int
	Marker   string
	Enabled  bool
	Hits     int
}

func (bp *Breakpoint) String() string {
	var what string
	switch bp.Type {
	case FunctionBreakpoint:
		what = bp.Function.String()
	case CallBreakpoint:
		what = "#" + strconv.Itoa(bp.Index)
	case FrameBreakpoint:
		what = "frame " + strconv.Itoa(bp.Index)
	case MarkerBreakpoint:
		what = strconv.Quote(bp.Marker)
	}
	status := "enabled"
	if !bp.Enabled {
		status = "disabled"
	}
	if what == "" {
		return fmt.Sprintf("%d: %s (%s, %d hits)", bp.ID, bp.Type, status, bp.Hits)
	}
	return fmt.Sprintf("%d: %s %s (%s, %d hits)", bp.ID, bp.Type, what, status, bp.Hits)
}

func (bp *Breakpoint) matches(c *trace.Call, frame int, frames []trace.Frame) bool {
	switch bp.Type {
	case FunctionBreakpoint:
		return c.Function() == bp.Function
	case CallBreakpoint:
		return c.Index == bp.Index
	case FrameBreakpoint:
		return frame == bp.Index && frame < len(frames) && frames[frame].Start == c.Index
	case DrawBreakpoint:
		return c.Function().IsDraw()
	case ErrorBreakpoint:
		return c.Record.Error != glproto.GL_NONE
	case MarkerBreakpoint:
		name, ok := c.Property(trace.PropMarker)
		return ok && strings.Contains(name, bp.Marker)
	}
	return false
}

// BreakpointManager holds the breakpoints of one browsing session.
type BreakpointManager struct {
	mu          sync.Mutex
	breakpoints map[int]*Breakpoint
	nextID      int
}

// NewBreakpointManager creates an empty manager.
func NewBreakpointManager() *BreakpointManager {
	return &BreakpointManager{
		breakpoints: make(map[int]*Breakpoint),
		nextID:      1,
	}
}

// Add parses expr and adds an enabled breakpoint. Accepted forms:
//
//	glDrawArrays, func:glDrawArrays   calls to a function
//	#42, call:42                      one call index
//	frame:3                           first call of frame 3
//	draw                              any draw call
//	error                             calls raising a GL error
//	marker:shadow                     group markers named like "shadow"
func (bm *BreakpointManager) Add(expr string) (*Breakpoint, error) {
	bp, err := parseBreakpoint(strings.TrimSpace(expr))
	if err != nil {
		return nil, err
	}

	bm.mu.Lock()
	defer bm.mu.Unlock()
	bp.ID = bm.nextID
	bp.Enabled = true
	bm.nextID++
	bm.breakpoints[bp.ID] = bp
	return bp, nil
}

func parseBreakpoint(expr string) (*Breakpoint, error) {
	if expr == "" {
		return nil, fmt.Errorf("empty breakpoint")
	}

	index := func(s string) (int, error) {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid index %q", s)
		}
		return n, nil
	}

	switch {
	case expr == "draw":
		return &Breakpoint{Type: DrawBreakpoint}, nil
	case expr == "error":
		return &Breakpoint{Type: ErrorBreakpoint}, nil
	case strings.HasPrefix(expr, "#"):
		n, err := index(expr[1:])
		if err != nil {
			return nil, err
		}
		return &Breakpoint{Type: CallBreakpoint, Index: n}, nil
	}

	kind, arg, found := strings.Cut(expr, ":")
	if !found {
		kind, arg = "func", expr
	}
	switch kind {
	case "func":
		f, ok := glproto.FunctionByName(arg)
		if !ok {
			return nil, fmt.Errorf("unknown function %q", arg)
		}
		return &Breakpoint{Type: FunctionBreakpoint, Function: f}, nil
	case "call":
		n, err := index(arg)
		if err != nil {
			return nil, err
		}
		return &Breakpoint{Type: CallBreakpoint, Index: n}, nil
	case "frame":
		n, err := index(arg)
		if err != nil {
			return nil, err
		}
		return &Breakpoint{Type: FrameBreakpoint, Index: n}, nil
	case "marker":
		if arg == "" {
			return nil, fmt.Errorf("empty marker name")
		}
		return &Breakpoint{Type: MarkerBreakpoint, Marker: arg}, nil
	}
	return nil, fmt.Errorf("unknown breakpoint kind %q", kind)
}

// Remove deletes breakpoint id.
func (bm *BreakpointManager) Remove(id int) error {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	if _, ok := bm.breakpoints[id]; !ok {
		return fmt.Errorf("breakpoint %d not found", id)
	}
	delete(bm.breakpoints, id)
	return nil
}

// Enable turns breakpoint id on.
func (bm *BreakpointManager) Enable(id int) error {
	return bm.setEnabled(id, true)
}

// Disable turns breakpoint id off without removing it.
func (bm *BreakpointManager) Disable(id int) error {
	return bm.setEnabled(id, false)
}

func (bm *BreakpointManager) setEnabled(id int, on bool) error {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	bp, ok := bm.breakpoints[id]
	if !ok {
		return fmt.Errorf("breakpoint %d not found", id)
	}
	bp.Enabled = on
	return nil
}

// List returns the breakpoints ordered by id.
func (bm *BreakpointManager) List() []*Breakpoint {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	out := make([]*Breakpoint, 0, len(bm.breakpoints))
	for _, bp := range bm.breakpoints {
		out = append(out, bp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Check returns the first enabled breakpoint matching c, counting the hit.
func (bm *BreakpointManager) Check(tr *trace.Trace, c *trace.Call) (*Breakpoint, bool) {
	frame := tr.FrameOf(c.Index)
	for _, bp := range bm.List() {
		if !bp.Enabled || !bp.matches(c, frame, tr.Frames) {
			continue
		}
		bm.mu.Lock()
		bp.Hits++
		bm.mu.Unlock()
		return bp, true
	}
	return nil, false
}

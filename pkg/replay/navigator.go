package replay

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/willibrandon/ChronoGL/pkg/state"
	"github.com/willibrandon/ChronoGL/pkg/trace"
)

// DefaultDebounce is how long Request waits for a newer target.
const DefaultDebounce = 50 * time.Millisecond

var (
	// ErrAtStart is returned when stepping back before the first call.
	ErrAtStart = errors.New("already at the beginning")
	// ErrAtEnd is returned when stepping past the last call.
	ErrAtEnd = errors.New("already at the end")
	// ErrIndexRange is returned for a target outside [-1, len(calls)).
	ErrIndexRange = errors.New("call index out of range")
)

// Replayer steps through the calls of a trace.
type Replayer interface {
	// StepForward applies the next call and returns the new index.
	StepForward() (int, error)

	// StepBackward reverts the current call and returns the new index.
	StepBackward() (int, error)

	// ReplayToIndex moves to the state after call idx.
	ReplayToIndex(idx int) error

	// ReplayUntilBreakpoint steps forward until check matches a call. It
	// reports the index reached and whether a call matched.
	ReplayUntilBreakpoint(check func(c *trace.Call) bool) (int, bool)

	// CurrentIndex returns the index of the last applied call, -1 if none.
	CurrentIndex() int

	// Calls returns the calls being replayed.
	Calls() []*trace.Call
}

// ChangeFunc is notified after every realized move. It runs with the
// navigator locked and must not call back into it.
type ChangeFunc func(index int, changed ChangeSet)

type options struct {
	logger   *zap.Logger
	debounce time.Duration
	onChange ChangeFunc
}

// Option configures a Navigator.
type Option func(*options)

// WithLogger sets the logger for failed transforms.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithDebounce sets the Request coalescing window.
func WithDebounce(d time.Duration) Option {
	return func(o *options) { o.debounce = d }
}

// OnChange registers a callback for realized moves.
func OnChange(fn ChangeFunc) Option {
	return func(o *options) { o.onChange = fn }
}

// Navigator owns the context state tree of one viewing session. Every move
// runs under a single lock, so the tree is never observed mid-range.
type Navigator struct {
	mu      sync.Mutex
	tree    *state.Tree
	calls   []*trace.Call
	current int
	opts    options

	reqMu   sync.Mutex
	timer   *time.Timer
	pending int
	closed  bool
}

var _ Replayer = (*Navigator)(nil)

// NewNavigator creates a navigator positioned before the first call of tr,
// with a default state holding every context of the trace.
func NewNavigator(tr *trace.Trace, opts ...Option) *Navigator {
	o := options{logger: zap.NewNop(), debounce: DefaultDebounce}
	for _, opt := range opts {
		opt(&o)
	}
	return &Navigator{
		tree:    state.NewDefault(tr.Contexts...),
		calls:   tr.Calls,
		current: -1,
		opts:    o,
	}
}

// Goto moves the state to just after call index, which may be -1.
func (n *Navigator) Goto(index int) (ChangeSet, error) {
	if index < -1 || index >= len(n.calls) {
		return nil, fmt.Errorf("%w: %d not in [-1,%d)", ErrIndexRange, index, len(n.calls))
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.moveLocked(index), nil
}

func (n *Navigator) moveLocked(index int) ChangeSet {
	changed := ApplyRange(n.tree, n.calls, n.current, index, n.opts.logger)
	n.current = index
	if n.opts.onChange != nil {
		n.opts.onChange(index, changed)
	}
	return changed
}

// Request asks for a move to index without blocking. Requests arriving
// within the debounce window of each other are coalesced and only the latest
// is realized. Out of range requests are dropped.
func (n *Navigator) Request(index int) {
	if index < -1 || index >= len(n.calls) {
		n.opts.logger.Debug("Dropping out of range request", zap.Int("index", index))
		return
	}

	n.reqMu.Lock()
	defer n.reqMu.Unlock()
	if n.closed {
		return
	}
	n.pending = index
	if n.timer != nil {
		n.timer.Stop()
	}
	n.timer = time.AfterFunc(n.opts.debounce, n.fire)
}

func (n *Navigator) fire() {
	n.reqMu.Lock()
	if n.closed {
		n.reqMu.Unlock()
		return
	}
	index := n.pending
	n.timer = nil
	n.reqMu.Unlock()

	n.mu.Lock()
	defer n.mu.Unlock()
	if index != n.current {
		n.moveLocked(index)
	}
}

// Close drops any pending request.
func (n *Navigator) Close() {
	n.reqMu.Lock()
	defer n.reqMu.Unlock()
	n.closed = true
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
}

// View calls fn with the tree and current index while holding the lock.
func (n *Navigator) View(fn func(tree *state.Tree, current int)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fn(n.tree, n.current)
}

// StepForward applies the next call.
func (n *Navigator) StepForward() (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current+1 >= len(n.calls) {
		return n.current, ErrAtEnd
	}
	n.moveLocked(n.current + 1)
	return n.current, nil
}

// StepBackward reverts the current call.
func (n *Navigator) StepBackward() (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current < 0 {
		return n.current, ErrAtStart
	}
	n.moveLocked(n.current - 1)
	return n.current, nil
}

// ReplayToIndex moves to the state after call idx.
func (n *Navigator) ReplayToIndex(idx int) error {
	_, err := n.Goto(idx)
	return err
}

// ReplayUntilBreakpoint applies calls after the current one until check
// matches. The matching call is applied. Without a match the navigator ends
// at the last call.
func (n *Navigator) ReplayUntilBreakpoint(check func(c *trace.Call) bool) (int, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := n.current + 1; i < len(n.calls); i++ {
		if check != nil && check(n.calls[i]) {
			n.moveLocked(i)
			return i, true
		}
	}
	if len(n.calls) > 0 {
		n.moveLocked(len(n.calls) - 1)
	}
	return n.current, false
}

// CurrentIndex returns the index of the last applied call, -1 if none.
func (n *Navigator) CurrentIndex() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Calls returns the calls being replayed.
func (n *Navigator) Calls() []*trace.Call {
	return n.calls
}

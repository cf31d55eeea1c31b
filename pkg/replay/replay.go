// Package replay moves the context state tree between points of a trace by
// applying or reverting the state transforms of the calls in between.
package replay

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/willibrandon/ChronoGL/pkg/state"
	"github.com/willibrandon/ChronoGL/pkg/trace"
)

// ErrTransformPanic is logged for a transform that panicked while being
// applied or reverted.
var ErrTransformPanic = errors.New("state transform panicked")

// ChangeSet holds the state nodes touched by a range application, together
// with all of their ancestors.
type ChangeSet map[state.NodeID]struct{}

// Contains reports whether id changed.
func (c ChangeSet) Contains(id state.NodeID) bool {
	_, ok := c[id]
	return ok
}

// IDs returns the changed nodes in ascending order.
func (c ChangeSet) IDs() []state.NodeID {
	ids := make([]state.NodeID, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (c ChangeSet) add(t *state.Tree, id state.NodeID) {
	if id == state.NoNode {
		return
	}
	for _, a := range t.Ancestors(id) {
		if _, ok := c[a]; ok {
			// The rest of the chain is already recorded.
			return
		}
		c[a] = struct{}{}
	}
}

// ApplyRange moves tree from the state after call from to the state after
// call to. Index -1 is the state before the first call.
//
// Moving forward applies the transforms of calls from+1..to in order; moving
// backward reverts those of calls from..to+1, each call's list in reverse. A
// transform that fails or panics is logged and skipped, so the resulting
// state is best effort. ApplyRange panics if either index is outside [-1, len(calls)).
func ApplyRange(tree *state.Tree, calls []*trace.Call, from, to int, logger *zap.Logger) ChangeSet {
	if from < -1 || from >= len(calls) {
		panic(fmt.Sprintf("replay: from index %d out of range [-1,%d)", from, len(calls)))
	}
	if to < -1 || to >= len(calls) {
		panic(fmt.Sprintf("replay: to index %d out of range [-1,%d)", to, len(calls)))
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	changed := ChangeSet{}
	switch {
	case from < to:
		for i := from + 1; i <= to; i++ {
			c := calls[i]
			for _, tf := range c.Transforms {
				id, err := guard(tf.Apply, tree)
				if err != nil {
					logFailure(logger, "apply", c, tf.String(), err)
					continue
				}
				changed.add(tree, id)
			}
		}
	case from > to:
		for i := from; i > to; i-- {
			c := calls[i]
			for k := len(c.Transforms) - 1; k >= 0; k-- {
				tf := c.Transforms[k]
				id, err := guard(tf.Revert, tree)
				if err != nil {
					logFailure(logger, "revert", c, tf.String(), err)
					continue
				}
				changed.add(tree, id)
			}
		}
	}
	return changed
}

// guard runs one transform step, turning a panic into an error.
func guard(step func(*state.Tree) (state.NodeID, error), tree *state.Tree) (id state.NodeID, err error) {
	defer func() {
		if r := recover(); r != nil {
			id, err = state.NoNode, fmt.Errorf("%w: %v", ErrTransformPanic, r)
		}
	}()
	return step(tree)
}

func logFailure(logger *zap.Logger, op string, c *trace.Call, tf string, err error) {
	logger.Warn("State transform failed",
		zap.String("op", op),
		zap.Int("call", c.Index),
		zap.Stringer("function", c.Function()),
		zap.String("transform", tf),
		zap.Error(err))
}

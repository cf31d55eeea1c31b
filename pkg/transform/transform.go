// Package transform turns captured calls into reversible mutations of the
// context state tree.
//
// Each Transform memoizes what it overwrote on Apply so Revert can restore
// it. A transform list is therefore bound to the one state.Tree it is
// replayed against.
package transform

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"

	"github.com/willibrandon/ChronoGL/pkg/state"
)

// ErrOutOfRange is returned when a partial update does not fit the data it
// updates.
var ErrOutOfRange = errors.New("update out of range")

// Transform is one reversible state mutation. Apply and Revert report the
// node they changed, or state.NoNode when nothing changed.
type Transform interface {
	Apply(t *state.Tree) (state.NodeID, error)
	Revert(t *state.Tree) (state.NodeID, error)
	String() string
}

// PropertyChange sets a leaf to Value.
type PropertyChange struct {
	Target Accessor
	Value  any

	old     any
	applied bool
}

// NewPropertyChange returns a transform setting the leaf at target to v.
func NewPropertyChange(target Accessor, v any) *PropertyChange {
	return &PropertyChange{Target: target, Value: v}
}

func (p *PropertyChange) Apply(t *state.Tree) (state.NodeID, error) {
	id, err := p.Target.Resolve(t)
	if err != nil {
		return state.NoNode, err
	}
	old, err := t.SetValue(id, p.Value)
	if err != nil {
		return state.NoNode, err
	}
	p.old, p.applied = old, true
	return id, nil
}

func (p *PropertyChange) Revert(t *state.Tree) (state.NodeID, error) {
	if !p.applied {
		return state.NoNode, nil
	}
	id, err := p.Target.Resolve(t)
	if err != nil {
		return state.NoNode, err
	}
	if _, err := t.SetValue(id, p.old); err != nil {
		return state.NoNode, err
	}
	p.applied = false
	return id, nil
}

func (p *PropertyChange) String() string {
	return fmt.Sprintf("%s = %s", p.Target, state.FormatValue(p.Value))
}

// ConditionalPropertyChange sets a leaf to Value only if it currently holds
// Match.
type ConditionalPropertyChange struct {
	Target Accessor
	Value  any
	Match  any

	old     any
	changed bool
}

func (c *ConditionalPropertyChange) Apply(t *state.Tree) (state.NodeID, error) {
	c.changed = false
	id, err := c.Target.Resolve(t)
	if err != nil {
		return state.NoNode, err
	}
	cur, err := t.Value(id)
	if err != nil {
		return state.NoNode, err
	}
	if !reflect.DeepEqual(cur, c.Match) {
		return state.NoNode, nil
	}
	if _, err := t.SetValue(id, c.Value); err != nil {
		return state.NoNode, err
	}
	c.old, c.changed = cur, true
	return id, nil
}

func (c *ConditionalPropertyChange) Revert(t *state.Tree) (state.NodeID, error) {
	if !c.changed {
		return state.NoNode, nil
	}
	id, err := c.Target.Resolve(t)
	if err != nil {
		return state.NoNode, err
	}
	if _, err := t.SetValue(id, c.old); err != nil {
		return state.NoNode, err
	}
	c.changed = false
	return id, nil
}

func (c *ConditionalPropertyChange) String() string {
	return fmt.Sprintf("%s = %s if %s", c.Target, state.FormatValue(c.Value), state.FormatValue(c.Match))
}

// SparseArrayElementAdd creates the element Key in a sparse array. Adding an
// element that already exists changes nothing.
type SparseArrayElementAdd struct {
	Array Accessor
	Key   int32

	owner *state.Tree
	elem  state.NodeID
	added bool
}

// NewElementAdd returns a transform adding key to the sparse array at array.
func NewElementAdd(array Accessor, key int32) *SparseArrayElementAdd {
	return &SparseArrayElementAdd{Array: array, Key: key, elem: state.NoNode}
}

func (s *SparseArrayElementAdd) Apply(t *state.Tree) (state.NodeID, error) {
	s.added = false
	arr, err := s.Array.Resolve(t)
	if err != nil {
		return state.NoNode, err
	}
	if t.HasElement(arr, s.Key) {
		return state.NoNode, nil
	}

	// Re-attach the element detached by a previous Revert so node ids stay
	// stable across scrubbing.
	if s.owner == t && s.elem != state.NoNode && t.Parent(s.elem) == state.NoNode {
		if err := t.AttachElement(arr, s.Key, s.elem); err != nil {
			return state.NoNode, err
		}
	} else {
		elem, err := t.AddElement(arr, s.Key)
		if err != nil {
			return state.NoNode, err
		}
		s.owner, s.elem = t, elem
	}
	s.added = true
	return arr, nil
}

func (s *SparseArrayElementAdd) Revert(t *state.Tree) (state.NodeID, error) {
	if !s.added {
		return state.NoNode, nil
	}
	arr, err := s.Array.Resolve(t)
	if err != nil {
		return state.NoNode, err
	}
	if _, err := t.DetachElement(arr, s.Key); err != nil {
		return state.NoNode, err
	}
	s.added = false
	return arr, nil
}

func (s *SparseArrayElementAdd) String() string {
	return fmt.Sprintf("add %s[%d]", s.Array, s.Key)
}

// SparseArrayElementRemove detaches the element Key from a sparse array.
// Removing a missing element changes nothing.
type SparseArrayElementRemove struct {
	Array Accessor
	Key   int32

	elem    state.NodeID
	removed bool
}

// NewElementRemove returns a transform removing key from the sparse array at
// array.
func NewElementRemove(array Accessor, key int32) *SparseArrayElementRemove {
	return &SparseArrayElementRemove{Array: array, Key: key, elem: state.NoNode}
}

func (s *SparseArrayElementRemove) Apply(t *state.Tree) (state.NodeID, error) {
	s.removed = false
	arr, err := s.Array.Resolve(t)
	if err != nil {
		return state.NoNode, err
	}
	if !t.HasElement(arr, s.Key) {
		return state.NoNode, nil
	}
	elem, err := t.DetachElement(arr, s.Key)
	if err != nil {
		return state.NoNode, err
	}
	s.elem, s.removed = elem, true
	return arr, nil
}

func (s *SparseArrayElementRemove) Revert(t *state.Tree) (state.NodeID, error) {
	if !s.removed {
		return state.NoNode, nil
	}
	arr, err := s.Array.Resolve(t)
	if err != nil {
		return state.NoNode, err
	}
	if err := t.AttachElement(arr, s.Key, s.elem); err != nil {
		return state.NoNode, err
	}
	s.removed = false
	return arr, nil
}

func (s *SparseArrayElementRemove) String() string {
	return fmt.Sprintf("remove %s[%d]", s.Array, s.Key)
}

// BufferSubData overwrites part of a buffer's contents.
type BufferSubData struct {
	Target Accessor
	Offset int
	Data   []byte

	old     any
	applied bool
}

func (b *BufferSubData) Apply(t *state.Tree) (state.NodeID, error) {
	id, err := b.Target.Resolve(t)
	if err != nil {
		return state.NoNode, err
	}
	v, err := t.Value(id)
	if err != nil {
		return state.NoNode, err
	}
	cur, _ := v.([]byte)
	if b.Offset < 0 || b.Offset+len(b.Data) > len(cur) {
		return state.NoNode, fmt.Errorf("buffer subdata [%d,%d) of %d bytes: %w",
			b.Offset, b.Offset+len(b.Data), len(cur), ErrOutOfRange)
	}

	next := bytes.Clone(cur)
	copy(next[b.Offset:], b.Data)
	if _, err := t.SetValue(id, next); err != nil {
		return state.NoNode, err
	}
	b.old, b.applied = v, true
	return id, nil
}

func (b *BufferSubData) Revert(t *state.Tree) (state.NodeID, error) {
	if !b.applied {
		return state.NoNode, nil
	}
	id, err := b.Target.Resolve(t)
	if err != nil {
		return state.NoNode, err
	}
	if _, err := t.SetValue(id, b.old); err != nil {
		return state.NoNode, err
	}
	b.applied = false
	return id, nil
}

func (b *BufferSubData) String() string {
	return fmt.Sprintf("%s[%d:%d] = %d bytes", b.Target, b.Offset, b.Offset+len(b.Data), len(b.Data))
}

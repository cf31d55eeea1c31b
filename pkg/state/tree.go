// Package state models the reconstructed GL context state as an
// arena-indexed property tree.
//
// Nodes live in a flat slice and reference their parent and children by
// NodeID, so upward navigation is O(1) and there are no ownership cycles.
// A Tree is not safe for concurrent use; package replay serializes access.
package state

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
)

// NodeID indexes a node in a Tree.
type NodeID int32

// NoNode is the absent node.
const NoNode NodeID = -1

// Kind is the shape of a node.
type Kind uint8

const (
	// KindComposite has a fixed set of named children.
	KindComposite Kind = iota
	// KindList has a fixed number of positional children.
	KindList
	// KindSparseArray has children keyed by integer, created from a template.
	KindSparseArray
	// KindLeaf holds a value.
	KindLeaf
)

func (k Kind) String() string {
	switch k {
	case KindComposite:
		return "composite"
	case KindList:
		return "list"
	case KindSparseArray:
		return "sparse"
	case KindLeaf:
		return "leaf"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

var (
	// ErrNotFound is returned when a path does not resolve.
	ErrNotFound = errors.New("state node not found")

	// ErrWrongKind is returned when an operation is applied to a node of the
	// wrong kind.
	ErrWrongKind = errors.New("wrong state node kind")

	// ErrExists is returned when attaching to an occupied sparse array key.
	ErrExists = errors.New("sparse array element already exists")
)

type node struct {
	kind   Kind
	name   string
	key    int32 // element key in a sparse array, position in a list
	parent NodeID

	children []NodeID         // composite and list
	elems    map[int32]NodeID // sparse array
	template NodeID           // sparse array element prototype, detached

	value any
}

// Tree is an arena of state nodes with a single root.
type Tree struct {
	nodes []node
	root  NodeID
}

// NewTree returns an empty tree. Set a root with SetRoot once it is built.
func NewTree() *Tree {
	return &Tree{root: NoNode}
}

func (t *Tree) alloc(n node) NodeID {
	n.parent = NoNode
	t.nodes = append(t.nodes, n)
	return NodeID(len(t.nodes) - 1)
}

func (t *Tree) adopt(parent NodeID, children []NodeID) {
	for i, c := range children {
		t.nodes[c].parent = parent
		t.nodes[c].key = int32(i)
	}
}

// NewComposite creates a composite node owning children.
func (t *Tree) NewComposite(name string, children ...NodeID) NodeID {
	id := t.alloc(node{kind: KindComposite, name: name, children: children, template: NoNode})
	t.adopt(id, children)
	return id
}

// NewList creates a list node owning children in order.
func (t *Tree) NewList(name string, children ...NodeID) NodeID {
	id := t.alloc(node{kind: KindList, name: name, children: children, template: NoNode})
	t.adopt(id, children)
	return id
}

// NewSparseArray creates an empty sparse array whose elements are copies of
// template. The template stays detached from the tree.
func (t *Tree) NewSparseArray(name string, template NodeID) NodeID {
	return t.alloc(node{kind: KindSparseArray, name: name, elems: map[int32]NodeID{}, template: template})
}

// NewLeaf creates a leaf holding v.
func (t *Tree) NewLeaf(name string, v any) NodeID {
	return t.alloc(node{kind: KindLeaf, name: name, template: NoNode, value: v})
}

// Root returns the root node.
func (t *Tree) Root() NodeID {
	return t.root
}

// SetRoot makes id the root.
func (t *Tree) SetRoot(id NodeID) {
	t.root = id
}

func (t *Tree) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(t.nodes)
}

func (t *Tree) get(id NodeID) (*node, error) {
	if !t.valid(id) {
		return nil, fmt.Errorf("node %d: %w", id, ErrNotFound)
	}
	return &t.nodes[id], nil
}

// Kind returns the kind of id.
func (t *Tree) Kind(id NodeID) Kind {
	return t.nodes[id].kind
}

// Name returns the property name of id.
func (t *Tree) Name(id NodeID) string {
	return t.nodes[id].name
}

// Key returns the sparse array key or list position of id.
func (t *Tree) Key(id NodeID) int32 {
	return t.nodes[id].key
}

// Parent returns the parent of id, or NoNode for the root and detached nodes.
func (t *Tree) Parent(id NodeID) NodeID {
	return t.nodes[id].parent
}

// Children returns the children of id. Sparse array elements are ordered by
// key.
func (t *Tree) Children(id NodeID) []NodeID {
	n := &t.nodes[id]
	if n.kind != KindSparseArray {
		return slices.Clone(n.children)
	}
	keys := slices.Sorted(maps.Keys(n.elems))
	out := make([]NodeID, len(keys))
	for i, k := range keys {
		out[i] = n.elems[k]
	}
	return out
}

// Value returns the value of a leaf.
func (t *Tree) Value(id NodeID) (any, error) {
	n, err := t.get(id)
	if err != nil {
		return nil, err
	}
	if n.kind != KindLeaf {
		return nil, fmt.Errorf("%s is a %s: %w", n.name, n.kind, ErrWrongKind)
	}
	return n.value, nil
}

// SetValue replaces the value of a leaf and returns the previous one.
func (t *Tree) SetValue(id NodeID, v any) (any, error) {
	n, err := t.get(id)
	if err != nil {
		return nil, err
	}
	if n.kind != KindLeaf {
		return nil, fmt.Errorf("%s is a %s: %w", n.name, n.kind, ErrWrongKind)
	}
	old := n.value
	n.value = v
	return old, nil
}

// Child resolves one path element below id.
func (t *Tree) Child(id NodeID, e PathElem) (NodeID, error) {
	n, err := t.get(id)
	if err != nil {
		return NoNode, err
	}
	switch n.kind {
	case KindComposite:
		if e.isKey {
			break
		}
		for _, c := range n.children {
			if t.nodes[c].name == e.name {
				return c, nil
			}
		}
	case KindList:
		if e.isKey && e.key >= 0 && int(e.key) < len(n.children) {
			return n.children[e.key], nil
		}
	case KindSparseArray:
		if c, ok := n.elems[e.key]; ok && e.isKey {
			return c, nil
		}
	}
	return NoNode, fmt.Errorf("%s has no child %s: %w", n.name, e, ErrNotFound)
}

// Lookup resolves path starting at from.
func (t *Tree) Lookup(from NodeID, path Path) (NodeID, error) {
	id := from
	for _, e := range path {
		next, err := t.Child(id, e)
		if err != nil {
			return NoNode, err
		}
		id = next
	}
	return id, nil
}

// Resolve resolves path from the root.
func (t *Tree) Resolve(path Path) (NodeID, error) {
	id, err := t.Lookup(t.root, path)
	if err != nil {
		return NoNode, fmt.Errorf("resolve %s: %w", path, err)
	}
	return id, nil
}

func (t *Tree) sparse(id NodeID) (*node, error) {
	n, err := t.get(id)
	if err != nil {
		return nil, err
	}
	if n.kind != KindSparseArray {
		return nil, fmt.Errorf("%s is a %s, want sparse: %w", n.name, n.kind, ErrWrongKind)
	}
	return n, nil
}

// HasElement reports whether the sparse array id has an element at key.
func (t *Tree) HasElement(id NodeID, key int32) bool {
	n, err := t.sparse(id)
	if err != nil {
		return false
	}
	_, ok := n.elems[key]
	return ok
}

// AddElement creates an element at key from the array's template.
func (t *Tree) AddElement(id NodeID, key int32) (NodeID, error) {
	n, err := t.sparse(id)
	if err != nil {
		return NoNode, err
	}
	if _, ok := n.elems[key]; ok {
		return NoNode, fmt.Errorf("%s[%d]: %w", n.name, key, ErrExists)
	}
	if n.template == NoNode {
		return NoNode, fmt.Errorf("%s has no element template: %w", n.name, ErrWrongKind)
	}

	elem := t.copySubtree(t, n.template)
	// copySubtree may grow the arena; n is stale after it.
	t.nodes[elem].parent = id
	t.nodes[elem].key = key
	t.nodes[id].elems[key] = elem
	return elem, nil
}

// DetachElement unlinks the element at key and returns it. The detached
// subtree stays in the arena and can be re-attached with AttachElement.
func (t *Tree) DetachElement(id NodeID, key int32) (NodeID, error) {
	n, err := t.sparse(id)
	if err != nil {
		return NoNode, err
	}
	elem, ok := n.elems[key]
	if !ok {
		return NoNode, fmt.Errorf("%s[%d]: %w", n.name, key, ErrNotFound)
	}
	delete(n.elems, key)
	t.nodes[elem].parent = NoNode
	return elem, nil
}

// AttachElement links a detached element back at key.
func (t *Tree) AttachElement(id NodeID, key int32, elem NodeID) error {
	n, err := t.sparse(id)
	if err != nil {
		return err
	}
	if _, ok := n.elems[key]; ok {
		return fmt.Errorf("%s[%d]: %w", n.name, key, ErrExists)
	}
	if !t.valid(elem) || t.nodes[elem].parent != NoNode {
		return fmt.Errorf("element %d is not detached: %w", elem, ErrWrongKind)
	}
	n.elems[key] = elem
	t.nodes[elem].parent = id
	t.nodes[elem].key = key
	return nil
}

// Ancestors returns id followed by each of its ancestors up to the root.
func (t *Tree) Ancestors(id NodeID) []NodeID {
	var out []NodeID
	for ; id != NoNode; id = t.nodes[id].parent {
		out = append(out, id)
	}
	return out
}

// PathOf returns the path from the root to id.
func (t *Tree) PathOf(id NodeID) Path {
	var path Path
	for id != NoNode && id != t.root {
		n := &t.nodes[id]
		if n.parent == NoNode {
			break
		}
		if t.nodes[n.parent].kind == KindComposite {
			path = append(path, Prop(n.name))
		} else {
			path = append(path, Key(n.key))
		}
		id = n.parent
	}
	slices.Reverse(path)
	return path
}

// Len returns the number of nodes in the arena, detached ones included.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// copySubtree copies the subtree rooted at src in from into t and returns the
// new, detached root.
func (t *Tree) copySubtree(from *Tree, src NodeID) NodeID {
	s := from.nodes[src]
	n := node{kind: s.kind, name: s.name, key: s.key, template: NoNode, value: s.value}
	id := t.alloc(n)

	switch s.kind {
	case KindComposite, KindList:
		children := make([]NodeID, len(s.children))
		for i, c := range s.children {
			children[i] = t.copySubtree(from, c)
			t.nodes[children[i]].parent = id
		}
		t.nodes[id].children = children
	case KindSparseArray:
		elems := make(map[int32]NodeID, len(s.elems))
		for k, c := range s.elems {
			elems[k] = t.copySubtree(from, c)
			t.nodes[elems[k]].parent = id
		}
		t.nodes[id].elems = elems
		if s.template != NoNode {
			t.nodes[id].template = t.copySubtree(from, s.template)
		}
	}
	return id
}

// Clone returns a compacted deep copy of the tree reachable from the root.
func (t *Tree) Clone() *Tree {
	c := NewTree()
	if t.root != NoNode {
		c.root = c.copySubtree(t, t.root)
	}
	return c
}

// Equal reports whether a and b are structurally equal from their roots:
// same shapes, names, keys and leaf values. Detached nodes are ignored.
func Equal(a, b *Tree) bool {
	if a.root == NoNode || b.root == NoNode {
		return a.root == b.root
	}
	return equalNodes(a, a.root, b, b.root)
}

func equalNodes(a *Tree, x NodeID, b *Tree, y NodeID) bool {
	n, m := &a.nodes[x], &b.nodes[y]
	if n.kind != m.kind || n.name != m.name {
		return false
	}
	switch n.kind {
	case KindLeaf:
		return reflect.DeepEqual(n.value, m.value)
	case KindSparseArray:
		if len(n.elems) != len(m.elems) {
			return false
		}
		for k, c := range n.elems {
			d, ok := m.elems[k]
			if !ok || !equalNodes(a, c, b, d) {
				return false
			}
		}
		return true
	default:
		if len(n.children) != len(m.children) {
			return false
		}
		for i := range n.children {
			if !equalNodes(a, n.children[i], b, m.children[i]) {
				return false
			}
		}
		return true
	}
}

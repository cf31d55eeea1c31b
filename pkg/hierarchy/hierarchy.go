// Package hierarchy groups calls into a tree using debug group markers.
package hierarchy

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/willibrandon/ChronoGL/pkg/glproto"
	"github.com/willibrandon/ChronoGL/pkg/trace"
)

// AllContexts disables context filtering and yields a flat list.
const AllContexts = -1

// NodeID indexes a node in a Tree.
type NodeID int

// NoNode is the parent of top-level nodes.
const NoNode NodeID = -1

type node struct {
	call     int
	parent   NodeID
	children []NodeID
}

// Tree is an arena of call nodes. Group nodes are push marker calls; their
// children are the calls up to and including the matching pop.
type Tree struct {
	nodes []node
	roots []NodeID
}

// Build groups calls [start, end) of tr. contextIndex selects one of
// tr.Contexts; AllContexts or an index out of range gives every call in the
// range as a top-level leaf.
//
// A pop with no open group becomes a top-level leaf. Groups still open at
// end keep the children they collected.
func Build(tr *trace.Trace, start, end, contextIndex int) *Tree {
	start = max(start, 0)
	end = min(end, tr.Len())
	t := &Tree{}
	if start >= end {
		return t
	}

	if contextIndex < 0 || contextIndex >= len(tr.Contexts) {
		for i := start; i < end; i++ {
			t.add(i, NoNode)
		}
		return t
	}

	ctx := tr.Contexts[contextIndex]
	var open []NodeID
	for i := start; i < end; i++ {
		c := tr.Calls[i]
		if c.Context() != ctx {
			continue
		}
		parent := NoNode
		if len(open) > 0 {
			parent = open[len(open)-1]
		}

		switch c.Function() {
		case glproto.GLPushGroupMarkerEXT:
			open = append(open, t.add(i, parent))
		case glproto.GLPopGroupMarkerEXT:
			t.add(i, parent)
			if len(open) > 0 {
				open = open[:len(open)-1]
			}
		default:
			t.add(i, parent)
		}
	}
	return t
}

func (t *Tree) add(call int, parent NodeID) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, node{call: call, parent: parent})
	if parent == NoNode {
		t.roots = append(t.roots, id)
	} else {
		t.nodes[parent].children = append(t.nodes[parent].children, id)
	}
	return id
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Roots returns the top-level nodes in call order.
func (t *Tree) Roots() []NodeID {
	return t.roots
}

// Call returns the trace call index of a node.
func (t *Tree) Call(id NodeID) int {
	return t.nodes[id].call
}

// HasChildren reports whether id is a non-empty group.
func (t *Tree) HasChildren(id NodeID) bool {
	return len(t.nodes[id].children) > 0
}

// Children returns the children of id in call order.
func (t *Tree) Children(id NodeID) []NodeID {
	return t.nodes[id].children
}

// Parent returns the parent of id, or NoNode.
func (t *Tree) Parent(id NodeID) NodeID {
	return t.nodes[id].parent
}

// SetParent moves id under parent, or to the top level for NoNode. The node
// is inserted among its new siblings in call order.
func (t *Tree) SetParent(id, parent NodeID) error {
	if id < 0 || int(id) >= len(t.nodes) {
		return fmt.Errorf("node %d out of range", id)
	}
	if parent != NoNode && (parent < 0 || int(parent) >= len(t.nodes)) {
		return fmt.Errorf("parent %d out of range", parent)
	}
	for p := parent; p != NoNode; p = t.nodes[p].parent {
		if p == id {
			return fmt.Errorf("node %d cannot be moved under its own descendant %d", id, parent)
		}
	}

	old := t.nodes[id].parent
	if old == NoNode {
		t.roots = remove(t.roots, id)
	} else {
		t.nodes[old].children = remove(t.nodes[old].children, id)
	}

	t.nodes[id].parent = parent
	if parent == NoNode {
		t.roots = t.insert(t.roots, id)
	} else {
		t.nodes[parent].children = t.insert(t.nodes[parent].children, id)
	}
	return nil
}

func remove(ids []NodeID, id NodeID) []NodeID {
	if i := slices.Index(ids, id); i >= 0 {
		return slices.Delete(ids, i, i+1)
	}
	return ids
}

func (t *Tree) insert(ids []NodeID, id NodeID) []NodeID {
	call := t.nodes[id].call
	i, _ := slices.BinarySearchFunc(ids, call, func(n NodeID, c int) int {
		return t.nodes[n].call - c
	})
	return slices.Insert(ids, i, id)
}

// Walk visits nodes depth first in call order. Returning false from fn skips
// the node's children.
func (t *Tree) Walk(fn func(id NodeID, depth int) bool) {
	var walk func(ids []NodeID, depth int)
	walk = func(ids []NodeID, depth int) {
		for _, id := range ids {
			if fn(id, depth) {
				walk(t.nodes[id].children, depth+1)
			}
		}
	}
	walk(t.roots, 0)
}

// Groups returns the number of nodes with children.
func (t *Tree) Groups() int {
	n := 0
	for _, nd := range t.nodes {
		if len(nd.children) > 0 {
			n++
		}
	}
	return n
}

// Dump writes an indented listing of the tree. Groups are labelled with their
// marker name when the call has one.
func (t *Tree) Dump(w io.Writer, tr *trace.Trace) error {
	var err error
	t.Walk(func(id NodeID, depth int) bool {
		if err != nil {
			return false
		}
		c := tr.Calls[t.nodes[id].call]
		label := c.Function().String()
		if m, ok := c.Property(trace.PropMarker); ok {
			label += fmt.Sprintf(" %q", m)
		}
		_, err = fmt.Fprintf(w, "%s%6d %s\n", strings.Repeat("  ", depth), c.Index, label)
		return true
	})
	return err
}

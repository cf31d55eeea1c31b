package state

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
)

// FormatValue renders a leaf value for display.
func FormatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "-"
	case []byte:
		if v == nil {
			return "-"
		}
		return humanize.Bytes(uint64(len(v)))
	case string:
		if v == "" {
			return `""`
		}
		if i := strings.IndexByte(v, '\n'); i >= 0 {
			return fmt.Sprintf("%q...", v[:i])
		}
		return fmt.Sprintf("%q", v)
	default:
		return fmt.Sprint(v)
	}
}

// Dump writes the subtree at id as an indented listing. Nodes for which mark
// returns true are prefixed with '*'. mark may be nil.
func (t *Tree) Dump(w io.Writer, id NodeID, mark func(NodeID) bool) error {
	bw := bufio.NewWriter(w)
	t.dump(bw, id, 0, mark)
	return bw.Flush()
}

func (t *Tree) dump(w *bufio.Writer, id NodeID, depth int, mark func(NodeID) bool) {
	n := &t.nodes[id]

	prefix := "  "
	if mark != nil && mark(id) {
		prefix = "* "
	}
	label := n.name
	if n.parent != NoNode && t.nodes[n.parent].kind != KindComposite {
		label = fmt.Sprintf("[%d] %s", n.key, n.name)
	}

	w.WriteString(prefix)
	w.WriteString(strings.Repeat("  ", depth))
	w.WriteString(label)
	if n.kind == KindLeaf {
		w.WriteString(" = ")
		w.WriteString(FormatValue(n.value))
	} else if n.kind == KindSparseArray && len(n.elems) == 0 {
		w.WriteString(" (empty)")
	}
	w.WriteByte('\n')

	for _, c := range t.Children(id) {
		t.dump(w, c, depth+1, mark)
	}
}

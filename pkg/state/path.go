package state

import (
	"strconv"
	"strings"
)

// PathElem selects a child: a property of a composite, or a position in a
// list or key in a sparse array.
type PathElem struct {
	name  string
	key   int32
	isKey bool
}

// Prop selects a composite child by name.
func Prop(name string) PathElem {
	return PathElem{name: name}
}

// Key selects a list position or sparse array key.
func Key(k int32) PathElem {
	return PathElem{key: k, isKey: true}
}

func (e PathElem) String() string {
	if e.isKey {
		return "[" + strconv.Itoa(int(e.key)) + "]"
	}
	return e.name
}

// Path is a sequence of elements from some node downwards.
type Path []PathElem

// Join returns a new path with elems appended.
func (p Path) Join(elems ...PathElem) Path {
	out := make(Path, 0, len(p)+len(elems))
	return append(append(out, p...), elems...)
}

func (p Path) String() string {
	var b strings.Builder
	for i, e := range p {
		if i > 0 && !e.isKey {
			b.WriteByte('.')
		}
		b.WriteString(e.String())
	}
	return b.String()
}

// ContextPath returns the path of elems inside the state of context ctx.
func ContextPath(ctx int32, elems ...PathElem) Path {
	return Path{Key(ctx)}.Join(elems...)
}

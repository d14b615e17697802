package content

import (
	"strconv"
	"strings"
)

// Path locates a node inside a tree, e.g. sections[2].sections[0].
// The zero value is the root.
type Path struct {
	steps []step
}

type step struct {
	key   string
	index int
}

// Child returns the path of the i-th element of the given children key.
func (p Path) Child(key string, i int) Path {
	steps := make([]step, len(p.steps), len(p.steps)+1)
	copy(steps, p.steps)
	return Path{steps: append(steps, step{key: key, index: i})}
}

// Depth returns the number of edges between the root and the node.
func (p Path) Depth() int { return len(p.steps) }

// IsRoot reports whether the path points at the root node.
func (p Path) IsRoot() bool { return len(p.steps) == 0 }

// String renders the path; the root renders as "$".
func (p Path) String() string {
	if len(p.steps) == 0 {
		return "$"
	}
	var b strings.Builder
	for i, s := range p.steps {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s.key)
		b.WriteByte('[')
		b.WriteString(strconv.Itoa(s.index))
		b.WriteByte(']')
	}
	return b.String()
}

// Pointer renders the path as an RFC 6901 JSON pointer, e.g. /sections/2.
func (p Path) Pointer() string {
	if len(p.steps) == 0 {
		return ""
	}
	var b strings.Builder
	for _, s := range p.steps {
		b.WriteByte('/')
		b.WriteString(s.key)
		b.WriteByte('/')
		b.WriteString(strconv.Itoa(s.index))
	}
	return b.String()
}

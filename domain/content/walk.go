package content

import "errors"

// SkipChildren is returned from a WalkFunc to skip a section's subtree.
var SkipChildren = errors.New("skip children")

// WalkFunc is called for every node visited by Walk.
type WalkFunc func(path Path, n Node) error

// Walk visits the tree in pre-order. It stops at the first error returned by
// fn, other than SkipChildren, and returns it. A nil root visits nothing.
func Walk(root Node, fn WalkFunc) error {
	root = Deref(root)
	if root == nil {
		return nil
	}
	return walk(Path{}, root, fn)
}

func walk(path Path, n Node, fn WalkFunc) error {
	if err := fn(path, n); err != nil {
		if errors.Is(err, SkipChildren) {
			return nil
		}
		return err
	}
	s, ok := n.(Section)
	if !ok {
		return nil
	}
	for i, c := range s.children {
		if err := walk(path.Child("sections", i), c, fn); err != nil {
			return err
		}
	}
	return nil
}

// Equal reports whether two trees have the same shape, order and values.
func Equal(a, b Node) bool {
	a, b = Deref(a), Deref(b)
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case Text:
		y, ok := b.(Text)
		return ok && x.content == y.content
	case Section:
		y, ok := b.(Section)
		if !ok || x.title != y.title || x.numbering != y.numbering || x.level != y.level {
			return false
		}
		if len(x.children) != len(y.children) {
			return false
		}
		for i := range x.children {
			if !Equal(x.children[i], y.children[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Stats summarizes the size of a tree.
type Stats struct {
	Sections int
	Texts    int
	// MaxDepth counts the root as 1; an empty tree has depth 0.
	MaxDepth int
}

// Nodes returns the total number of nodes.
func (s Stats) Nodes() int { return s.Sections + s.Texts }

// Measure computes Stats for a tree.
func Measure(root Node) Stats {
	var st Stats
	_ = Walk(root, func(path Path, n Node) error {
		switch n.(type) {
		case Section:
			st.Sections++
		case Text:
			st.Texts++
		}
		if d := path.Depth() + 1; d > st.MaxDepth {
			st.MaxDepth = d
		}
		return nil
	})
	return st
}

package report

import (
	"fmt"
	"strings"

	"github.com/pestline/pestline/domain/content"
)

// DefaultTreeName names the tree of single-tree documents.
const DefaultTreeName = "main"

// Tree is a named content tree owned by a report, e.g. "findings" or
// "certificate".
type Tree struct {
	name string
	root content.Node
}

// NewTree creates a Tree. A nil root is an empty tree.
func NewTree(name string, root content.Node) Tree {
	return Tree{name: name, root: content.Deref(root)}
}

// Name returns the tree name.
func (t Tree) Name() string { return t.name }

// Root returns the root node, or nil for an empty tree.
func (t Tree) Root() content.Node { return t.root }

// NewTrees validates a report's trees: names must be non-blank and unique.
// Order is preserved.
func NewTrees(trees ...Tree) ([]Tree, error) {
	seen := make(map[string]struct{}, len(trees))
	out := make([]Tree, 0, len(trees))
	for i, t := range trees {
		name := strings.TrimSpace(t.name)
		if name == "" {
			return nil, fmt.Errorf("%w: tree %d has no name", ErrInvalidTree, i)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: duplicate tree name %q", ErrInvalidTree, name)
		}
		seen[name] = struct{}{}
		out = append(out, Tree{name: name, root: t.root})
	}
	return out, nil
}

// Issue is an advisory validation finding within a named tree.
type Issue struct {
	Tree string
	content.ValidationIssue
}

// Validate runs content.Validate over every tree.
func Validate(trees []Tree) []Issue {
	var issues []Issue
	for _, t := range trees {
		for _, vi := range content.Validate(t.root) {
			issues = append(issues, Issue{Tree: t.name, ValidationIssue: vi})
		}
	}
	return issues
}

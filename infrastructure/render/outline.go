package render

import (
	"regexp"
	"strings"

	"github.com/pestline/pestline/domain/content"
)

// numbered matches a heading that starts with section numbering such as
// "2", "2." or "2.1.3".
var numbered = regexp.MustCompile(`^(\d+(?:\.\d+)*)\.?\s+(\S.*)$`)

// splitNumbering separates leading numbering from a heading.
func splitNumbering(heading string) (numbering, title string) {
	heading = strings.TrimSpace(heading)
	if m := numbered.FindStringSubmatch(heading); m != nil {
		return m[1], strings.TrimSpace(m[2])
	}
	return "", heading
}

// outline builds a section tree from a flat run of headings and text, the
// way a reader infers structure from heading depth.
type outline struct {
	root  *heading
	stack []*heading
	text  strings.Builder
}

type heading struct {
	title     string
	numbering string
	depth     int
	children  []any // *heading or string
}

func newOutline() *outline {
	root := &heading{depth: 0}
	return &outline{root: root, stack: []*heading{root}}
}

// addText appends a block of text to the current section.
func (o *outline) addText(s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	if o.text.Len() > 0 {
		o.text.WriteString("\n\n")
	}
	o.text.WriteString(s)
}

func (o *outline) flush() {
	if o.text.Len() == 0 {
		return
	}
	top := o.stack[len(o.stack)-1]
	top.children = append(top.children, o.text.String())
	o.text.Reset()
}

// addHeading opens a section at the given heading depth (1 for h1).
func (o *outline) addHeading(depth int, text string) {
	o.flush()
	numbering, title := splitNumbering(text)
	h := &heading{title: title, numbering: numbering, depth: depth}
	for len(o.stack) > 1 && o.stack[len(o.stack)-1].depth >= depth {
		o.stack = o.stack[:len(o.stack)-1]
	}
	parent := o.stack[len(o.stack)-1]
	parent.children = append(parent.children, h)
	o.stack = append(o.stack, h)
}

// tree returns the content tree. A lone top-level heading becomes the root
// at level 0; otherwise the content is wrapped in a root titled fallback.
func (o *outline) tree(fallback string) content.Node {
	o.flush()
	top := o.root.children
	if len(top) == 1 {
		if h, ok := top[0].(*heading); ok {
			return h.node(h.depth)
		}
	}

	base := 0
	for _, c := range top {
		if h, ok := c.(*heading); ok && (base == 0 || h.depth < base) {
			base = h.depth
		}
	}
	root := &heading{title: fallback, depth: base - 1, children: top}
	return root.node(base - 1)
}

func (h *heading) node(base int) content.Node {
	children := make([]content.Node, 0, len(h.children))
	for _, c := range h.children {
		switch c := c.(type) {
		case *heading:
			children = append(children, c.node(base))
		case string:
			children = append(children, content.NewText(c))
		}
	}
	return content.NewSection(h.title, h.numbering, h.depth-base, children...)
}

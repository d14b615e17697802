// Package content provides the report content tree: sections holding ordered
// child nodes, and free-text leaves, with a tagged JSON wire format.
package content

// Variant identifies which kind of node a Node is.
// It is also the discriminator value written to the "$type" field.
type Variant string

// Variant values.
const (
	VariantSection Variant = "textBlock"
	VariantText    Variant = "textArea"
)

// Node is one node in a report's content tree.
// The set of implementations is closed: Section and Text. Pointers to either
// also satisfy Node and are treated as the value they point to.
type Node interface {
	Variant() Variant
	node()
}

// Deref returns the value form of a pointer variant. A nil pointer is a nil
// Node.
func Deref(n Node) Node {
	switch v := n.(type) {
	case *Section:
		if v == nil {
			return nil
		}
		return *v
	case *Text:
		if v == nil {
			return nil
		}
		return *v
	}
	return n
}

// Section is a heading with ordered child nodes.
type Section struct {
	title     string
	numbering string
	level     int
	children  []Node
}

// NewSection creates a new Section. Nil children are dropped and an empty
// section always serializes with an empty array. Pointer children are stored
// by value. Negative levels are clamped to zero.
func NewSection(title, numbering string, level int, children ...Node) Section {
	if level < 0 {
		level = 0
	}
	kids := make([]Node, 0, len(children))
	for _, c := range children {
		if c = Deref(c); c != nil {
			kids = append(kids, c)
		}
	}
	return Section{
		title:     title,
		numbering: numbering,
		level:     level,
		children:  kids,
	}
}

// Variant returns VariantSection.
func (Section) Variant() Variant { return VariantSection }

func (Section) node() {}

// Title returns the heading text.
func (s Section) Title() string { return s.title }

// Numbering returns the externally assigned numbering label, e.g. "3.2".
func (s Section) Numbering() string { return s.numbering }

// Level returns the nesting depth hint. It is not tied to the actual depth.
func (s Section) Level() int { return s.level }

// Children returns a copy of the child nodes in rendering order.
func (s Section) Children() []Node {
	out := make([]Node, len(s.children))
	copy(out, s.children)
	return out
}

// Len returns the number of direct children.
func (s Section) Len() int { return len(s.children) }

// Child returns the i-th child.
func (s Section) Child(i int) Node { return s.children[i] }

// WithChildren returns a copy of the section with its children replaced.
func (s Section) WithChildren(children ...Node) Section {
	return NewSection(s.title, s.numbering, s.level, children...)
}

// Text is a free-text leaf.
type Text struct {
	content string
}

// NewText creates a new Text leaf.
func NewText(content string) Text {
	return Text{content: content}
}

// Variant returns VariantText.
func (Text) Variant() Variant { return VariantText }

func (Text) node() {}

// Content returns the text payload.
func (t Text) Content() string { return t.content }

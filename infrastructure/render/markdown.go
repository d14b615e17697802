package render

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pestline/pestline/domain/content"
	"github.com/pestline/pestline/domain/report"
)

// Markdown renders reports as CommonMark. Text nodes are written verbatim
// since they already hold Markdown.
type Markdown struct{}

// NewMarkdown creates a Markdown renderer.
func NewMarkdown() *Markdown { return &Markdown{} }

// Format returns report.FormatMarkdown.
func (m *Markdown) Format() report.Format { return report.FormatMarkdown }

// ContentType returns the MIME type of rendered output.
func (m *Markdown) ContentType() string { return "text/markdown; charset=utf-8" }

// Render writes the report to w. The report title is the only level one
// heading; trees are shifted one heading level down.
func (m *Markdown) Render(w io.Writer, r report.Report) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# %s\n\n", r.Title())
	if ds := details(r); len(ds) > 0 {
		for _, d := range ds {
			fmt.Fprintf(bw, "- **%s:** %s\n", d.label, d.value)
		}
		bw.WriteString("\n")
	}
	for _, t := range r.Trees() {
		if err := writeMarkdown(bw, t.Root(), 2); err != nil {
			return fmt.Errorf("tree %q: %w", t.Name(), err)
		}
	}
	return bw.Flush()
}

// WriteMarkdownTree writes a single tree with a section of level L as a
// heading of L+1 hashes. ImportMarkdown reads the output back into an
// equal tree for levels up to five.
func WriteMarkdownTree(w io.Writer, root content.Node) error {
	bw := bufio.NewWriter(w)
	if err := writeMarkdown(bw, root, 1); err != nil {
		return err
	}
	return bw.Flush()
}

func writeMarkdown(w *bufio.Writer, n content.Node, offset int) error {
	switch n := content.Deref(n).(type) {
	case nil:
		return nil
	case content.Text:
		body := strings.TrimSpace(n.Content())
		if body == "" {
			return nil
		}
		w.WriteString(body)
		w.WriteString("\n\n")
		return nil
	case content.Section:
		w.WriteString(strings.Repeat("#", headingLevel(n.Level(), offset)))
		w.WriteString(" ")
		w.WriteString(sectionHeading(n.Numbering(), n.Title()))
		w.WriteString("\n\n")
		for _, c := range n.Children() {
			if err := writeMarkdown(w, c, offset); err != nil {
				return err
			}
		}
		return nil
	default:
		return unsupported(n)
	}
}

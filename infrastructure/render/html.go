package render

import (
	"bufio"
	"bytes"
	"fmt"
	"html"
	"io"

	"github.com/pestline/pestline/domain/content"
	"github.com/pestline/pestline/domain/report"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// HTML renders reports as a standalone HTML page. Section titles become
// headings and text nodes are rendered from Markdown. Raw HTML inside text
// is not passed through.
type HTML struct {
	md goldmark.Markdown
}

// NewHTML creates an HTML renderer.
func NewHTML() *HTML {
	return &HTML{
		md: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Format returns report.FormatHTML.
func (h *HTML) Format() report.Format { return report.FormatHTML }

// ContentType returns the MIME type of rendered output.
func (h *HTML) ContentType() string { return "text/html; charset=utf-8" }

// Render writes the report page to w.
func (h *HTML) Render(w io.Writer, r report.Report) error {
	bw := bufio.NewWriter(w)
	title := html.EscapeString(r.Title())

	fmt.Fprintf(bw, "<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n</head>\n<body>\n", title)
	fmt.Fprintf(bw, "<header>\n<h1>%s</h1>\n", title)
	if ds := details(r); len(ds) > 0 {
		bw.WriteString("<dl>\n")
		for _, d := range ds {
			fmt.Fprintf(bw, "<dt>%s</dt><dd>%s</dd>\n", d.label, html.EscapeString(d.value))
		}
		bw.WriteString("</dl>\n")
	}
	bw.WriteString("</header>\n")

	for _, t := range r.Trees() {
		fmt.Fprintf(bw, "<article data-tree=\"%s\">\n", html.EscapeString(t.Name()))
		if err := h.node(bw, t.Root()); err != nil {
			return fmt.Errorf("tree %q: %w", t.Name(), err)
		}
		bw.WriteString("</article>\n")
	}
	bw.WriteString("</body>\n</html>\n")
	return bw.Flush()
}

// Tree renders a single content tree as an HTML fragment.
func (h *HTML) Tree(w io.Writer, root content.Node) error {
	bw := bufio.NewWriter(w)
	if err := h.node(bw, root); err != nil {
		return err
	}
	return bw.Flush()
}

func (h *HTML) node(w *bufio.Writer, n content.Node) error {
	switch n := content.Deref(n).(type) {
	case nil:
		return nil
	case content.Text:
		var buf bytes.Buffer
		if err := h.md.Convert([]byte(n.Content()), &buf); err != nil {
			return fmt.Errorf("convert text: %w", err)
		}
		w.Write(buf.Bytes())
		return nil
	case content.Section:
		level := headingLevel(n.Level(), 1)
		if n.Numbering() != "" {
			fmt.Fprintf(w, "<section data-numbering=\"%s\">\n", html.EscapeString(n.Numbering()))
			fmt.Fprintf(w, "<h%d><span class=\"numbering\">%s</span> %s</h%d>\n",
				level, html.EscapeString(n.Numbering()), html.EscapeString(n.Title()), level)
		} else {
			w.WriteString("<section>\n")
			fmt.Fprintf(w, "<h%d>%s</h%d>\n", level, html.EscapeString(n.Title()), level)
		}
		for _, c := range n.Children() {
			if err := h.node(w, c); err != nil {
				return err
			}
		}
		w.WriteString("</section>\n")
		return nil
	default:
		return unsupported(n)
	}
}

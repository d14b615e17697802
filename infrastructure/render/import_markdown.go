package render

import (
	"bytes"

	"github.com/pestline/pestline/domain/content"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ImportMarkdown builds a content tree from a Markdown document. Headings
// open sections nested by depth, leading numbers in a heading become the
// section numbering, and the Markdown between headings is kept verbatim
// as text. Content outside a single top-level heading is wrapped in a
// section titled title.
func ImportMarkdown(src []byte, title string) content.Node {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	o := newOutline()
	cursor := 0
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Lines().Len() == 0 {
			continue
		}
		start, end := headingSpan(h, src)
		o.addText(string(src[cursor:start]))
		o.addHeading(h.Level, string(bytes.TrimSpace(headingText(h, src))))
		cursor = end
	}
	o.addText(string(src[cursor:]))
	return o.tree(title)
}

// headingSpan returns the byte range of the heading's source lines,
// including a setext underline.
func headingSpan(h *ast.Heading, src []byte) (start, end int) {
	lines := h.Lines()
	start = lineStart(src, lines.At(0).Start)
	last := lines.At(lines.Len() - 1)
	end = lineEnd(src, max(last.Stop-1, last.Start))
	atx := bytes.HasPrefix(bytes.TrimLeft(src[start:], " "), []byte("#"))
	if !atx && end < len(src) {
		next := bytes.TrimSpace(src[end:lineEnd(src, end)])
		if len(next) > 0 && (next[0] == '=' || next[0] == '-') && len(bytes.Trim(next, string(next[0]))) == 0 {
			end = lineEnd(src, end)
		}
	}
	return start, end
}

func headingText(h *ast.Heading, src []byte) []byte {
	var buf bytes.Buffer
	lines := h.Lines()
	for i := 0; i < lines.Len(); i++ {
		if i > 0 {
			buf.WriteByte(' ')
		}
		seg := lines.At(i)
		buf.Write(bytes.TrimSpace(seg.Value(src)))
	}
	return buf.Bytes()
}

func lineStart(src []byte, pos int) int {
	if i := bytes.LastIndexByte(src[:pos], '\n'); i >= 0 {
		return i + 1
	}
	return 0
}

func lineEnd(src []byte, pos int) int {
	if pos >= len(src) {
		return len(src)
	}
	if i := bytes.IndexByte(src[pos:], '\n'); i >= 0 {
		return pos + i + 1
	}
	return len(src)
}

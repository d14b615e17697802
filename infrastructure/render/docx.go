package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"
	"github.com/pestline/pestline/domain/content"
	"github.com/pestline/pestline/domain/report"
)

// Half-point font sizes for headings 1..6.
var headingSizes = [...]string{"36", "32", "28", "26", "24", "22"}

// DOCX renders reports as Word documents. Sections become Heading1..6
// paragraphs and every blank-line separated block of text becomes a
// paragraph.
type DOCX struct{}

// NewDOCX creates a DOCX renderer.
func NewDOCX() *DOCX { return &DOCX{} }

// Format returns report.FormatDOCX.
func (d *DOCX) Format() report.Format { return report.FormatDOCX }

// ContentType returns the MIME type of rendered output.
func (d *DOCX) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}

// Render writes the report document to w.
func (d *DOCX) Render(w io.Writer, r report.Report) error {
	doc := docx.New().WithDefaultTheme()

	doc.AddParagraph().Style("Title").AddText(r.Title()).Bold().Size("40")
	for _, dt := range details(r) {
		p := doc.AddParagraph()
		p.AddText(dt.label + ": ").Bold()
		p.AddText(dt.value)
	}

	for _, t := range r.Trees() {
		if err := docxNode(doc, t.Root()); err != nil {
			return fmt.Errorf("tree %q: %w", t.Name(), err)
		}
	}

	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}

func docxNode(doc *docx.Docx, n content.Node) error {
	switch n := content.Deref(n).(type) {
	case nil:
		return nil
	case content.Text:
		for _, block := range strings.Split(n.Content(), "\n\n") {
			block = strings.TrimSpace(block)
			if block == "" {
				continue
			}
			doc.AddParagraph().AddText(block)
		}
		return nil
	case content.Section:
		level := headingLevel(n.Level(), 1)
		doc.AddParagraph().
			Style("Heading" + strconv.Itoa(level)).
			AddText(sectionHeading(n.Numbering(), n.Title())).
			Bold().
			Size(headingSizes[level-1])
		for _, c := range n.Children() {
			if err := docxNode(doc, c); err != nil {
				return err
			}
		}
		return nil
	default:
		return unsupported(n)
	}
}

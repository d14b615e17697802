// Package render turns reports into HTML, DOCX and Markdown documents and
// imports content trees from Markdown, DOCX and YAML templates.
package render

import (
	"fmt"
	"strings"

	"github.com/pestline/pestline/domain/report"
)

// headingLevel maps a section level to an HTML or Markdown heading depth,
// clamped to 1..6.
func headingLevel(level, offset int) int {
	n := level + offset
	switch {
	case n < 1:
		return 1
	case n > 6:
		return 6
	default:
		return n
	}
}

// sectionHeading joins numbering and title, e.g. "1.2 Sub-floor".
func sectionHeading(numbering, title string) string {
	numbering = strings.TrimSpace(numbering)
	if numbering == "" {
		return title
	}
	return numbering + " " + title
}

type detail struct {
	label string
	value string
}

// details lists the report metadata shown under the title, skipping blanks.
func details(r report.Report) []detail {
	all := []detail{
		{"Reference", r.Reference()},
		{"Type", kindLabel(r.Kind())},
		{"Client", r.ClientName()},
		{"Site", r.SiteAddress()},
	}
	if !r.ServiceDate().IsZero() {
		all = append(all, detail{"Service date", r.ServiceDate().Format("2 January 2006")})
	}
	out := all[:0]
	for _, d := range all {
		if d.value != "" {
			out = append(out, d)
		}
	}
	return out
}

func unsupported(node any) error {
	return fmt.Errorf("unsupported content node %T", node)
}

func kindLabel(k report.Kind) string {
	s := k.String()
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

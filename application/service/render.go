package service

import (
	"io"

	"github.com/pestline/pestline/domain/report"
)

// Renderer writes a report with its trees loaded in one output format.
type Renderer interface {
	Format() report.Format
	ContentType() string
	Render(w io.Writer, r report.Report) error
}

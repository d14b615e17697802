package report

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedFormat indicates an unknown output format.
var ErrUnsupportedFormat = errors.New("unsupported render format")

// Format names an output format for rendered reports.
type Format string

// Format values.
const (
	FormatHTML     Format = "html"
	FormatDOCX     Format = "docx"
	FormatMarkdown Format = "markdown"
)

// Formats returns every format in display order.
func Formats() []Format {
	return []Format{FormatHTML, FormatDOCX, FormatMarkdown}
}

// ParseFormat converts a string to a Format. "md" is accepted for markdown.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatHTML, FormatDOCX, FormatMarkdown:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// Extension returns the file extension for the format, without the dot.
func (f Format) Extension() string {
	if f == FormatMarkdown {
		return "md"
	}
	return string(f)
}

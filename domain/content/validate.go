package content

import "fmt"

// Severity grades a validation issue.
type Severity string

// Severity values.
const (
	SeverityWarning Severity = "warning"
)

// Issue codes reported by Validate.
const (
	CodeLevelNotDeeper = "level_not_deeper"
	CodeLevelSkipped   = "level_skipped"
)

// ValidationIssue is an advisory finding about a tree. Issues never make a
// tree invalid for storage or rendering.
type ValidationIssue struct {
	Path     Path
	Code     string
	Severity Severity
	Message  string
}

// Validate checks that section levels step down by exactly one from each
// section to its child sections. Text nodes are not checked.
func Validate(root Node) []ValidationIssue {
	var issues []ValidationIssue
	parents := map[int]int{}
	_ = Walk(root, func(path Path, n Node) error {
		s, ok := n.(Section)
		if !ok {
			return nil
		}
		depth := path.Depth()
		parents[depth] = s.level
		if depth == 0 {
			return nil
		}
		parent, ok := parents[depth-1]
		if !ok {
			return nil
		}
		switch {
		case s.level <= parent:
			issues = append(issues, ValidationIssue{
				Path:     path,
				Code:     CodeLevelNotDeeper,
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("section level %d is not deeper than parent level %d", s.level, parent),
			})
		case s.level > parent+1:
			issues = append(issues, ValidationIssue{
				Path:     path,
				Code:     CodeLevelSkipped,
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("section level %d skips from parent level %d", s.level, parent),
			})
		}
		return nil
	})
	return issues
}

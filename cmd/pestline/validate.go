package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pestline/pestline/domain/content"
)

var errIssuesFound = errors.New("content has structure issues")

type validateFlags struct {
	envFile  string
	maxDepth int
	jsonOut  bool
	strict   bool
}

func validateCmd() *cobra.Command {
	var flags validateFlags

	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Decode a content tree and report structure issues",
		Long: `Decode a content tree from a file, or stdin when the file is "-" or
omitted. Tagged and legacy documents are both accepted; the schema is
detected from the root object.

Decode failures exit non-zero. Structure issues such as skipped heading
levels are advisory and only fail the command with --strict.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			return runValidate(cmd, path, flags)
		},
	}

	cmd.Flags().StringVar(&flags.envFile, "env-file", "", "Path to .env file")
	cmd.Flags().IntVar(&flags.maxDepth, "max-depth", 0, "Deepest nesting accepted (default: CONTENT_MAX_DEPTH)")
	cmd.Flags().BoolVar(&flags.jsonOut, "json", false, "Print the result as JSON")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "Exit non-zero when issues are found")

	return cmd
}

func runValidate(cmd *cobra.Command, path string, flags validateFlags) error {
	cfg, err := loadConfig(flags.envFile)
	if err != nil {
		return err
	}
	maxDepth := cfg.MaxDepth()
	if flags.maxDepth > 0 {
		maxDepth = flags.maxDepth
	}

	data, err := readInput(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}

	schema := content.Sniff(data)
	root, err := content.DecodeSchema(data, schema, content.WithMaxDepth(maxDepth))
	if err != nil {
		if cause := content.Root(err); cause != nil {
			return fmt.Errorf("%s: %s at %s: %w", path, cause.Kind, cause.Path, err)
		}
		return fmt.Errorf("%s: %w", path, err)
	}

	issues := content.Validate(root)
	stats := content.Measure(root)

	out := cmd.OutOrStdout()
	if flags.jsonOut {
		err = writeValidateJSON(out, schema, stats, issues)
	} else {
		err = writeValidateText(out, schema, stats, issues)
	}
	if err != nil {
		return err
	}

	if flags.strict && len(issues) > 0 {
		return fmt.Errorf("%s: %w (%d)", path, errIssuesFound, len(issues))
	}
	return nil
}

func writeValidateText(w io.Writer, schema content.Schema, stats content.Stats, issues []content.ValidationIssue) error {
	_, _ = fmt.Fprintf(w, "schema: %s\n", schema)
	_, _ = fmt.Fprintf(w, "sections: %d  texts: %d  depth: %d\n", stats.Sections, stats.Texts, stats.MaxDepth)
	if len(issues) == 0 {
		_, err := fmt.Fprintln(w, "no issues")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, is := range issues {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", is.Severity, is.Path, is.Code, is.Message)
	}
	return tw.Flush()
}

func writeValidateJSON(w io.Writer, schema content.Schema, stats content.Stats, issues []content.ValidationIssue) error {
	type issue struct {
		Path     string `json:"path"`
		Pointer  string `json:"pointer"`
		Code     string `json:"code"`
		Severity string `json:"severity"`
		Message  string `json:"message"`
	}
	result := struct {
		Schema   string  `json:"schema"`
		Sections int     `json:"sections"`
		Texts    int     `json:"texts"`
		MaxDepth int     `json:"max_depth"`
		Issues   []issue `json:"issues"`
	}{
		Schema:   schema.String(),
		Sections: stats.Sections,
		Texts:    stats.Texts,
		MaxDepth: stats.MaxDepth,
		Issues:   make([]issue, 0, len(issues)),
	}
	for _, is := range issues {
		result.Issues = append(result.Issues, issue{
			Path:     is.Path.String(),
			Pointer:  is.Path.Pointer(),
			Code:     is.Code,
			Severity: string(is.Severity),
			Message:  is.Message,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

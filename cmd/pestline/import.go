package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pestline/pestline"
	"github.com/pestline/pestline/domain/content"
	"github.com/pestline/pestline/domain/report"
	"github.com/pestline/pestline/infrastructure/render"
	"github.com/pestline/pestline/internal/config"
	"github.com/pestline/pestline/internal/log"
)

// Import source formats.
const (
	importAuto     = "auto"
	importMarkdown = "markdown"
	importYAML     = "yaml"
	importDOCX     = "docx"
)

type importFlags struct {
	envFile  string
	format   string
	title    string
	name     string
	compact  bool
	reportID int64
}

func importCmd() *cobra.Command {
	var flags importFlags

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Convert a Markdown, YAML or Word template into a content tree",
		Long: `Convert a report template into content trees in the tagged JSON format.

Markdown and Word headings open sections nested by level; the text between
headings becomes text blocks. YAML templates use the same field names as the
JSON format with "type" in place of "$type", and may hold several named trees.

The result is printed to stdout. With --report the trees replace the content
of that stored report instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.envFile, "env-file", "", "Path to .env file")
	cmd.Flags().StringVar(&flags.format, "format", importAuto, "Source format: auto, markdown, yaml, docx")
	cmd.Flags().StringVar(&flags.title, "title", "", "Title for content outside a single top-level heading (default: file name)")
	cmd.Flags().StringVar(&flags.name, "name", report.DefaultTreeName, "Tree name for Markdown and Word imports")
	cmd.Flags().BoolVar(&flags.compact, "compact", false, "Print compact JSON")
	cmd.Flags().Int64Var(&flags.reportID, "report", 0, "Store the trees in this report instead of printing them")

	return cmd
}

func runImport(cmd *cobra.Command, path string, flags importFlags) error {
	cfg, err := loadConfig(flags.envFile)
	if err != nil {
		return err
	}

	format, err := importFormat(path, flags.format)
	if err != nil {
		return err
	}
	data, err := readInput(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}

	title := flags.title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	var trees []report.Tree
	switch format {
	case importMarkdown:
		trees = []report.Tree{report.NewTree(flags.name, render.ImportMarkdown(data, title))}
	case importDOCX:
		root, err := render.ImportDOCX(data, title)
		if err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}
		trees = []report.Tree{report.NewTree(flags.name, root)}
	case importYAML:
		trees, err = render.ImportYAML(data, content.WithMaxDepth(cfg.MaxDepth()))
		if err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}
	}

	if flags.reportID > 0 {
		return storeImport(cmd, cfg, flags.reportID, trees)
	}
	return writeTrees(cmd.OutOrStdout(), trees, !flags.compact)
}

func importFormat(path, format string) (string, error) {
	switch strings.ToLower(format) {
	case importMarkdown, "md":
		return importMarkdown, nil
	case importYAML, "yml":
		return importYAML, nil
	case importDOCX:
		return importDOCX, nil
	case importAuto, "":
	default:
		return "", fmt.Errorf("unknown import format %q", format)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return importMarkdown, nil
	case ".yaml", ".yml":
		return importYAML, nil
	case ".docx":
		return importDOCX, nil
	}
	return "", fmt.Errorf("cannot detect the format of %s: use --format", path)
}

// writeTrees prints a single tree as a bare node and several trees as a
// list of named trees.
func writeTrees(w io.Writer, trees []report.Tree, indent bool) error {
	var v any
	if len(trees) == 1 {
		v = content.JSON{Node: trees[0].Root()}
	} else {
		type named struct {
			Name    string       `json:"name"`
			Content content.JSON `json:"content"`
		}
		list := make([]named, 0, len(trees))
		for _, t := range trees {
			list = append(list, named{Name: t.Name(), Content: content.JSON{Node: t.Root()}})
		}
		v = list
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func storeImport(cmd *cobra.Command, cfg config.AppConfig, id int64, trees []report.Tree) error {
	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	logger := log.FromConfig(cfg)

	client, err := pestline.New(clientOptions(cfg, logger)...)
	if err != nil {
		return fmt.Errorf("create pestline client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil && !errors.Is(err, pestline.ErrClientClosed) {
			logger.Error("failed to close pestline client", slog.Any("error", err))
		}
	}()

	saved, err := client.Reports.ReplaceContent(cmd.Context(), id, trees)
	if err != nil {
		return fmt.Errorf("store content in report %d: %w", id, err)
	}

	issues := report.Validate(saved.Trees())
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "stored %d tree(s) in %s (%d issue(s))\n", len(trees), saved.Reference(), len(issues))
	return nil
}

// Package mcp provides Model Context Protocol server functionality.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/pestline/pestline/application/service"
	"github.com/pestline/pestline/domain/content"
	"github.com/pestline/pestline/domain/report"
	"github.com/pestline/pestline/domain/repository"
	"github.com/pestline/pestline/internal/database"
)

// ReportLookup provides report retrieval for MCP tools.
type ReportLookup interface {
	Get(ctx context.Context, options ...repository.Option) (report.Report, error)
	Content(ctx context.Context, id int64) (report.Report, error)
	List(ctx context.Context, params *service.ReportListParams) ([]report.Report, error)
}

// ContentChecker decodes and validates standalone trees.
type ContentChecker interface {
	Check(data []byte) (service.CheckResult, error)
}

// Server wraps the MCP server with report tools.
type Server struct {
	mcpServer *server.MCPServer
	reports   ReportLookup
	checker   ContentChecker
	version   string
	logger    *slog.Logger
}

// NewServer creates a new MCP server. *service.Reports satisfies both
// interfaces.
func NewServer(reports ReportLookup, checker ContentChecker, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		reports: reports,
		checker: checker,
		version: version,
		logger:  logger,
	}

	mcpServer := server.NewMCPServer(
		"pestline",
		version,
		server.WithToolCapabilities(true),
		server.WithInstructions("Read pest-control reports and check report content trees. "+
			"Trees use the tagged JSON format: sections are {\"$type\":\"textBlock\",\"title\",\"numbering\",\"level\",\"sections\"} "+
			"and text is {\"$type\":\"textArea\",\"content\"}."),
	)
	s.registerTools(mcpServer)

	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(mcp.NewTool("get_version",
		mcp.WithDescription("Get the server version"),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleGetVersion)

	mcpServer.AddTool(mcp.NewTool("list_reports",
		mcp.WithDescription("List reports, newest first"),
		mcp.WithString("kind",
			mcp.Description("Filter by kind"),
			mcp.Enum(report.KindInspection.String(), report.KindCertificate.String(), report.KindQuotation.String()),
		),
		mcp.WithString("client",
			mcp.Description("Filter by exact client name"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of reports to return (default: 20)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleListReports)

	mcpServer.AddTool(mcp.NewTool("get_report",
		mcp.WithDescription("Get report metadata by ID"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("The numeric report ID"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleGetReport)

	mcpServer.AddTool(mcp.NewTool("get_report_content",
		mcp.WithDescription("Get the content trees of a report in the tagged JSON format"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("The numeric report ID"),
		),
		mcp.WithString("tree",
			mcp.Description("Only return the tree with this name"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleGetReportContent)

	mcpServer.AddTool(mcp.NewTool("validate_content",
		mcp.WithDescription("Decode a content tree given as a JSON string and list advisory structure issues"),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The tree as JSON, tagged or legacy"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleValidateContent)
}

type reportResult struct {
	ID          string   `json:"id"`
	Reference   string   `json:"reference"`
	Kind        string   `json:"kind"`
	Title       string   `json:"title"`
	ClientName  string   `json:"client_name,omitempty"`
	SiteAddress string   `json:"site_address,omitempty"`
	ServiceDate string   `json:"service_date,omitempty"`
	Trees       []string `json:"trees,omitempty"`
	UpdatedAt   string   `json:"updated_at"`
}

func toReportResult(r report.Report) reportResult {
	res := reportResult{
		ID:          strconv.FormatInt(r.ID(), 10),
		Reference:   r.Reference(),
		Kind:        r.Kind().String(),
		Title:       r.Title(),
		ClientName:  r.ClientName(),
		SiteAddress: r.SiteAddress(),
		UpdatedAt:   r.UpdatedAt().Format(time.RFC3339),
	}
	if !r.ServiceDate().IsZero() {
		res.ServiceDate = r.ServiceDate().Format(time.DateOnly)
	}
	for _, t := range r.Trees() {
		res.Trees = append(res.Trees, t.Name())
	}
	return res
}

type treeResult struct {
	Name    string       `json:"name"`
	Content content.JSON `json:"content"`
}

type issueResult struct {
	Tree    string `json:"tree,omitempty"`
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type checkResult struct {
	Schema   string        `json:"schema"`
	Sections int           `json:"sections"`
	Texts    int           `json:"texts"`
	MaxDepth int           `json:"max_depth"`
	Issues   []issueResult `json:"issues"`
}

func (s *Server) handleGetVersion(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.version), nil
}

func (s *Server) handleListReports(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := &service.ReportListParams{
		Client:   request.GetString("client", ""),
		Page:     1,
		PageSize: max(1, min(request.GetInt("limit", 20), 100)),
	}
	if kind := request.GetString("kind", ""); kind != "" {
		k, err := report.ParseKind(kind)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		params.Kind = k
	}

	reports, err := s.reports.List(ctx, params)
	if err != nil {
		s.logger.Error("list reports failed", slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("failed to list reports: %v", err)), nil
	}

	results := make([]reportResult, 0, len(reports))
	for _, r := range reports {
		results = append(results, toReportResult(r))
	}
	return jsonResult(results)
}

func (s *Server) handleGetReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errResult := requireID(request)
	if errResult != nil {
		return errResult, nil
	}

	r, err := s.reports.Get(ctx, repository.WithID(id))
	if err != nil {
		return s.lookupError(id, err), nil
	}
	return jsonResult(toReportResult(r))
}

func (s *Server) handleGetReportContent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errResult := requireID(request)
	if errResult != nil {
		return errResult, nil
	}

	r, err := s.reports.Content(ctx, id)
	if err != nil {
		return s.lookupError(id, err), nil
	}

	if name := request.GetString("tree", ""); name != "" {
		t, ok := r.Tree(name)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("report %d has no tree %q", id, name)), nil
		}
		return jsonResult(treeResult{Name: t.Name(), Content: content.JSON{Node: t.Root()}})
	}

	trees := make([]treeResult, 0, len(r.Trees()))
	for _, t := range r.Trees() {
		trees = append(trees, treeResult{Name: t.Name(), Content: content.JSON{Node: t.Root()}})
	}
	return jsonResult(trees)
}

func (s *Server) handleValidateContent(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError("content is required"), nil
	}

	checked, err := s.checker.Check([]byte(raw))
	if err != nil {
		if cause := content.Root(err); cause != nil {
			return mcp.NewToolResultError(fmt.Sprintf("%s at %s: %v", cause.Kind, cause.Path, err)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	res := checkResult{
		Schema:   checked.Schema.String(),
		Sections: checked.Stats.Sections,
		Texts:    checked.Stats.Texts,
		MaxDepth: checked.Stats.MaxDepth,
		Issues:   make([]issueResult, 0, len(checked.Issues)),
	}
	for _, is := range checked.Issues {
		res.Issues = append(res.Issues, issueResult{Path: is.Path.String(), Code: is.Code, Message: is.Message})
	}
	return jsonResult(res)
}

func (s *Server) lookupError(id int64, err error) *mcp.CallToolResult {
	if errors.Is(err, database.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("report %d not found", id))
	}
	s.logger.Error("failed to get report", slog.Int64("id", id), slog.Any("error", err))
	return mcp.NewToolResultError(fmt.Sprintf("failed to get report: %v", err))
}

func requireID(request mcp.CallToolRequest) (int64, *mcp.CallToolResult) {
	idStr, err := request.RequireString("id")
	if err != nil {
		return 0, mcp.NewToolResultError("id is required")
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id < 1 {
		return 0, mcp.NewToolResultError(fmt.Sprintf("invalid id: %s", idStr))
	}
	return id, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

// MCPServer returns the underlying MCP server for stdio serving.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio runs the MCP server on stdio.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// Package v1 provides the v1 API routes.
package v1

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pestline/pestline"
	"github.com/pestline/pestline/application/service"
	"github.com/pestline/pestline/domain/report"
	"github.com/pestline/pestline/domain/repository"
	"github.com/pestline/pestline/infrastructure/api/jsonapi"
	"github.com/pestline/pestline/infrastructure/api/middleware"
	"github.com/pestline/pestline/infrastructure/api/v1/dto"
)

// ReportsRouter handles report API endpoints.
type ReportsRouter struct {
	client *pestline.Client
	logger *slog.Logger
}

// NewReportsRouter creates a new ReportsRouter.
func NewReportsRouter(client *pestline.Client) *ReportsRouter {
	return &ReportsRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for report endpoints.
func (r *ReportsRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.List)
	router.Post("/", r.Create)
	router.Get("/{id}", r.Get)
	router.Patch("/{id}", r.Update)
	router.Delete("/{id}", r.Delete)
	router.Get("/{id}/content", r.GetContent)
	router.Put("/{id}/content", r.ReplaceContent)
	router.Get("/{id}/issues", r.Issues)
	router.Get("/{id}/render", r.Render)

	return router
}

// List handles GET /api/v1/reports.
//
//	@Summary		List reports
//	@Description	List reports, newest first
//	@Tags			reports
//	@Produce		json
//	@Param			kind		query	string	false	"Report kind (inspection, certificate, quotation)"
//	@Param			client		query	string	false	"Exact client name"
//	@Param			page		query	int		false	"Page number (default: 1)"
//	@Param			page_size	query	int		false	"Results per page (default: 20, max: 100)"
//	@Success		200	{object}	dto.ReportListResponse
//	@Failure		400	{object}	dto.ErrorResponse
//	@Router			/reports [get]
func (r *ReportsRouter) List(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	pagination := ParsePagination(req)

	params := &service.ReportListParams{
		Client:   strings.TrimSpace(req.URL.Query().Get("client")),
		Page:     pagination.Page(),
		PageSize: pagination.PageSize(),
	}
	if kind := req.URL.Query().Get("kind"); kind != "" {
		k, err := report.ParseKind(kind)
		if err != nil {
			middleware.WriteError(w, req, err, r.logger)
			return
		}
		params.Kind = k
	}

	reports, err := r.client.Reports.List(ctx, params)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	total, err := r.client.Reports.Count(ctx, params)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	doc := jsonapi.NewListResponse(jsonapi.ReportResources(reports))
	doc.Meta = pagination.Meta(total)
	doc.Links = pagination.Links(req, total)
	middleware.WriteJSONAPI(w, http.StatusOK, doc)
}

// Create handles POST /api/v1/reports.
//
//	@Summary		Create report
//	@Description	Create a report, optionally with its content trees
//	@Tags			reports
//	@Accept			json
//	@Produce		json
//	@Param			body	body		dto.ReportCreateRequest	true	"Report"
//	@Success		201		{object}	dto.ReportResponse
//	@Failure		400		{object}	dto.ErrorResponse
//	@Failure		422		{object}	dto.ErrorResponse
//	@Security		APIKeyAuth
//	@Router			/reports [post]
func (r *ReportsRouter) Create(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	var body dto.ReportCreateRequest
	if err := decodeBody(req, &body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	attrs := body.Data.Attributes

	kind, err := report.ParseKind(attrs.Kind)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	trees, err := r.decodeTrees(attrs.Trees)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	created, err := r.client.Reports.Create(ctx, &service.ReportCreateParams{
		Kind:        kind,
		Title:       attrs.Title,
		Reference:   attrs.Reference,
		ClientName:  attrs.ClientName,
		SiteAddress: attrs.SiteAddress,
		ServiceDate: optionalTime(attrs.ServiceDate),
		Trees:       trees,
	})
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/reports/%d", created.ID()))
	middleware.WriteJSONAPI(w, http.StatusCreated, jsonapi.NewSingleResponse(jsonapi.ReportResource(created)))
}

// Get handles GET /api/v1/reports/{id}.
//
//	@Summary		Get report
//	@Description	Get report metadata by ID
//	@Tags			reports
//	@Produce		json
//	@Param			id	path		int	true	"Report ID"
//	@Success		200	{object}	dto.ReportResponse
//	@Failure		404	{object}	dto.ErrorResponse
//	@Router			/reports/{id} [get]
func (r *ReportsRouter) Get(w http.ResponseWriter, req *http.Request) {
	id, err := reportID(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	found, err := r.client.Reports.Get(req.Context(), repository.WithID(id))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSONAPI(w, http.StatusOK, jsonapi.NewSingleResponse(jsonapi.ReportResource(found)))
}

// Update handles PATCH /api/v1/reports/{id}.
//
//	@Summary		Update report
//	@Description	Update report details; content is replaced through /content
//	@Tags			reports
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int						true	"Report ID"
//	@Param			body	body		dto.ReportUpdateRequest	true	"Changed details"
//	@Success		200		{object}	dto.ReportResponse
//	@Failure		400		{object}	dto.ErrorResponse
//	@Failure		404		{object}	dto.ErrorResponse
//	@Security		APIKeyAuth
//	@Router			/reports/{id} [patch]
func (r *ReportsRouter) Update(w http.ResponseWriter, req *http.Request) {
	id, err := reportID(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	var body dto.ReportUpdateRequest
	if err := decodeBody(req, &body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	if body.Data.ID != "" && body.Data.ID != strconv.FormatInt(id, 10) {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusConflict, "resource id does not match the URL", nil), r.logger)
		return
	}
	attrs := body.Data.Attributes

	updated, err := r.client.Reports.Update(req.Context(), id, report.Details{
		Reference:   attrs.Reference,
		Title:       attrs.Title,
		ClientName:  attrs.ClientName,
		SiteAddress: attrs.SiteAddress,
		ServiceDate: optionalTime(attrs.ServiceDate),
	})
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSONAPI(w, http.StatusOK, jsonapi.NewSingleResponse(jsonapi.ReportResource(updated)))
}

// Delete handles DELETE /api/v1/reports/{id}.
//
//	@Summary		Delete report
//	@Description	Delete a report and its content
//	@Tags			reports
//	@Param			id	path	int	true	"Report ID"
//	@Success		204
//	@Failure		404	{object}	dto.ErrorResponse
//	@Security		APIKeyAuth
//	@Router			/reports/{id} [delete]
func (r *ReportsRouter) Delete(w http.ResponseWriter, req *http.Request) {
	id, err := reportID(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	if err := r.client.Reports.Delete(req.Context(), id); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetContent handles GET /api/v1/reports/{id}/content.
//
//	@Summary		Get report content
//	@Description	Stored trees in the tagged wire format
//	@Tags			reports
//	@Produce		json
//	@Param			id	path		int	true	"Report ID"
//	@Success		200	{object}	dto.ContentResponse
//	@Failure		404	{object}	dto.ErrorResponse
//	@Failure		422	{object}	dto.ErrorResponse
//	@Router			/reports/{id}/content [get]
func (r *ReportsRouter) GetContent(w http.ResponseWriter, req *http.Request) {
	id, err := reportID(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	loaded, err := r.client.Reports.Content(req.Context(), id)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSONAPI(w, http.StatusOK, jsonapi.NewSingleResponse(jsonapi.ContentResource(loaded)))
}

// ReplaceContent handles PUT /api/v1/reports/{id}/content.
//
//	@Summary		Replace report content
//	@Description	Replace every tree of a report
//	@Tags			reports
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int							true	"Report ID"
//	@Param			body	body		dto.ContentReplaceRequest	true	"Trees"
//	@Success		200		{object}	dto.ContentResponse
//	@Failure		400		{object}	dto.ErrorResponse
//	@Failure		404		{object}	dto.ErrorResponse
//	@Failure		422		{object}	dto.ErrorResponse
//	@Security		APIKeyAuth
//	@Router			/reports/{id}/content [put]
func (r *ReportsRouter) ReplaceContent(w http.ResponseWriter, req *http.Request) {
	id, err := reportID(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	var body dto.ContentReplaceRequest
	if err := decodeBody(req, &body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	trees, err := r.decodeTrees(body.Data.Attributes.Trees)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	saved, err := r.client.Reports.ReplaceContent(req.Context(), id, trees)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSONAPI(w, http.StatusOK, jsonapi.NewSingleResponse(jsonapi.ContentResource(saved)))
}

// Issues handles GET /api/v1/reports/{id}/issues.
//
//	@Summary		List content issues
//	@Description	Advisory structure warnings; they never block saving or rendering
//	@Tags			reports
//	@Produce		json
//	@Param			id	path		int	true	"Report ID"
//	@Success		200	{object}	dto.IssueListResponse
//	@Failure		404	{object}	dto.ErrorResponse
//	@Router			/reports/{id}/issues [get]
func (r *ReportsRouter) Issues(w http.ResponseWriter, req *http.Request) {
	id, err := reportID(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	issues, err := r.client.Reports.Issues(req.Context(), id)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	doc := jsonapi.NewListResponse(jsonapi.IssueResources(issues))
	doc.Meta = &jsonapi.Meta{"total_count": len(issues)}
	middleware.WriteJSONAPI(w, http.StatusOK, doc)
}

// Render handles GET /api/v1/reports/{id}/render.
//
//	@Summary		Render report
//	@Description	Render a report as HTML, DOCX or Markdown
//	@Tags			reports
//	@Produce		html
//	@Produce		octet-stream
//	@Param			id		path	int		true	"Report ID"
//	@Param			format	query	string	false	"html (default), docx or markdown"
//	@Success		200
//	@Failure		400	{object}	dto.ErrorResponse
//	@Failure		404	{object}	dto.ErrorResponse
//	@Router			/reports/{id}/render [get]
func (r *ReportsRouter) Render(w http.ResponseWriter, req *http.Request) {
	id, err := reportID(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	format := report.FormatHTML
	if f := req.URL.Query().Get("format"); f != "" {
		if format, err = report.ParseFormat(f); err != nil {
			middleware.WriteError(w, req, err, r.logger)
			return
		}
	}

	out, err := r.client.Reports.Render(req.Context(), id, format)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	disposition := "inline"
	if format == report.FormatDOCX {
		disposition = "attachment"
	}
	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, out.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(out.Body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Body)
}

// decodeTrees decodes request trees with the server's depth limit. Errors
// carry the tree name.
func (r *ReportsRouter) decodeTrees(data []dto.TreeData) ([]report.Tree, error) {
	trees := make([]report.Tree, 0, len(data))
	for _, td := range data {
		root, err := r.client.Reports.DecodeTree(td.Content)
		if err != nil {
			return nil, &report.TreeError{Tree: td.Name, Err: err}
		}
		trees = append(trees, report.NewTree(td.Name, root))
	}
	return trees, nil
}

func reportID(req *http.Request) (int64, error) {
	raw := chi.URLParam(req, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, middleware.BadRequest(fmt.Errorf("invalid report id %q", raw))
	}
	return id, nil
}

func decodeBody(req *http.Request, v any) error {
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		return middleware.BadRequest(fmt.Errorf("invalid request body: %w", err))
	}
	return nil
}

func optionalTime(dt *jsonapi.DateTime) *time.Time {
	if dt == nil {
		return nil
	}
	t := dt.Time()
	return &t
}

package v1

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pestline/pestline"
	"github.com/pestline/pestline/infrastructure/api/jsonapi"
	"github.com/pestline/pestline/infrastructure/api/middleware"
)

// ContentRouter handles stateless content endpoints.
type ContentRouter struct {
	client *pestline.Client
	logger *slog.Logger
}

// NewContentRouter creates a new ContentRouter.
func NewContentRouter(client *pestline.Client) *ContentRouter {
	return &ContentRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for content endpoints.
func (r *ContentRouter) Routes() chi.Router {
	router := chi.NewRouter()
	router.Post("/validate", r.Validate)
	return router
}

// Validate handles POST /api/v1/content/validate.
//
//	@Summary		Check a content tree
//	@Description	Decode a bare tree in either schema and list advisory issues
//	@Tags			content
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	dto.ContentCheckResponse
//	@Failure		400	{object}	dto.ErrorResponse
//	@Failure		413	{object}	dto.ErrorResponse
//	@Failure		422	{object}	dto.ErrorResponse
//	@Router			/content/validate [post]
func (r *ContentRouter) Validate(w http.ResponseWriter, req *http.Request) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		middleware.WriteError(w, req, middleware.BadRequest(errors.New("request body is empty")), r.logger)
		return
	}

	result, err := r.client.Reports.Check(body)
	if err != nil {
		middleware.WriteError(w, req, fmt.Errorf("check content: %w", err), r.logger)
		return
	}

	res := jsonapi.ContentCheckResource(result.Schema, result.Stats, result.Issues)
	middleware.WriteJSONAPI(w, http.StatusOK, jsonapi.NewSingleResponse(res))
}

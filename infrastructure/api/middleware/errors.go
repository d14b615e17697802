package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/pestline/pestline/application/service"
	"github.com/pestline/pestline/domain/content"
	"github.com/pestline/pestline/domain/report"
	"github.com/pestline/pestline/infrastructure/api/jsonapi"
	"github.com/pestline/pestline/internal/database"
)

// Sentinel errors for the HTTP layer.
var (
	ErrAuthentication = errors.New("authentication failed")
	ErrServer         = errors.New("server error")
	ErrBadRequest     = errors.New("bad request")
)

// APIError is an error with an explicit HTTP status.
type APIError struct {
	code    int
	message string
	cause   error
}

// NewAPIError creates an APIError.
func NewAPIError(code int, message string, cause error) *APIError {
	return &APIError{code: code, message: message, cause: cause}
}

// Code returns the HTTP status code.
func (e *APIError) Code() int { return e.code }

// Message returns the client-facing message.
func (e *APIError) Message() string { return e.message }

func (e *APIError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("api error %d: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("api error %d: %s", e.code, e.message)
}

// Unwrap returns the cause.
func (e *APIError) Unwrap() error { return e.cause }

// AuthenticationError is returned when a request carries no valid API key.
type AuthenticationError struct {
	reason string
}

// NewAuthenticationError creates an AuthenticationError.
func NewAuthenticationError(reason string) *AuthenticationError {
	return &AuthenticationError{reason: reason}
}

func (e *AuthenticationError) Error() string { return "authentication failed: " + e.reason }

// Is matches ErrAuthentication.
func (e *AuthenticationError) Is(target error) bool { return target == ErrAuthentication }

// ServerError is an upstream or internal failure with a status code.
type ServerError struct {
	status  int
	message string
}

// NewServerError creates a ServerError.
func NewServerError(status int, message string) *ServerError {
	return &ServerError{status: status, message: message}
}

// StatusCode returns the HTTP status code.
func (e *ServerError) StatusCode() int { return e.status }

// Message returns the message.
func (e *ServerError) Message() string { return e.message }

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.status, e.message)
}

// Is matches ErrServer.
func (e *ServerError) Is(target error) bool { return target == ErrServer }

// BadRequest wraps err as a 400 response.
func BadRequest(err error) error {
	return fmt.Errorf("%w: %w", ErrBadRequest, err)
}

// WriteError writes err as a JSON:API error document. Content decode
// failures become 422 with the error kind as code and the offending node
// as source pointer.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	apiErr := toJSONAPIError(err)
	apiErr.ID = GetCorrelationID(r.Context())
	status, _ := strconv.Atoi(apiErr.Status)

	if logger != nil {
		level := slog.LevelWarn
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(r.Context(), level, "request error",
			slog.String("correlation_id", apiErr.ID),
			slog.Int("status", status),
			slog.String("error", err.Error()),
			slog.String("path", r.URL.Path),
		)
	}

	w.Header().Set("Content-Type", jsonapi.MediaType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(jsonapi.NewErrorResponse(apiErr))
}

func toJSONAPIError(err error) jsonapi.Error {
	status := http.StatusInternalServerError
	title := "Internal Server Error"
	detail := err.Error()

	var (
		decodeErr *content.DecodeError
		treeErr   *report.TreeError
		apiErr    *APIError
		serverErr *ServerError
		authErr   *AuthenticationError
		tooLarge  *http.MaxBytesError
	)

	switch {
	case errors.As(err, &decodeErr):
		e := jsonapi.Error{
			Status: strconv.Itoa(http.StatusUnprocessableEntity),
			Code:   decodeErr.Kind.String(),
			Title:  "Invalid Content",
			Detail: decodeErr.Error(),
			Source: jsonapi.PointerSource(decodeErr.Path.Pointer()),
		}
		meta := jsonapi.Meta{"path": decodeErr.Path.String()}
		if root := content.Root(err); root != decodeErr {
			meta["cause_code"] = root.Kind.String()
			meta["cause_path"] = root.Path.String()
		}
		if errors.As(err, &treeErr) {
			meta["tree"] = treeErr.Tree
		}
		e.Meta = &meta
		return e
	case errors.As(err, &tooLarge):
		status = http.StatusRequestEntityTooLarge
		title = "Request Too Large"
		detail = fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit)
	case errors.As(err, &apiErr):
		status = apiErr.Code()
		title = "API Error"
		detail = apiErr.Message()
	case errors.As(err, &serverErr):
		status = serverErr.StatusCode()
		title = "Server Error"
		detail = serverErr.Message()
	case errors.As(err, &authErr):
		status = http.StatusUnauthorized
		title = "Authentication Failed"
	case errors.Is(err, database.ErrNotFound):
		status = http.StatusNotFound
		title = "Not Found"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidReport),
		errors.Is(err, report.ErrInvalidKind),
		errors.Is(err, report.ErrEmptyTitle),
		errors.Is(err, report.ErrInvalidTree),
		errors.Is(err, report.ErrInvalidDocument),
		errors.Is(err, report.ErrUnsupportedFormat):
		status = http.StatusBadRequest
		title = "Validation Error"
	}

	return jsonapi.Error{
		Status: strconv.Itoa(status),
		Title:  title,
		Detail: detail,
	}
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteJSONAPI writes a JSON:API document.
func WriteJSONAPI(w http.ResponseWriter, status int, doc *jsonapi.Document) {
	w.Header().Set("Content-Type", jsonapi.MediaType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(doc)
}

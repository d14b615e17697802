// Package dto holds the request and response bodies of the v1 API.
package dto

import (
	"encoding/json"

	"github.com/pestline/pestline/infrastructure/api/jsonapi"
)

// TreeData is one named content tree. Content is kept raw so the server
// can decode it with its own depth limit and report precise error paths.
type TreeData struct {
	Name    string          `json:"name"`
	Content json.RawMessage `json:"content"`
}

// ReportCreateAttributes represents the attributes for creating a report.
type ReportCreateAttributes struct {
	Kind        string            `json:"kind"`
	Title       string            `json:"title"`
	Reference   string            `json:"reference,omitempty"`
	ClientName  string            `json:"client_name,omitempty"`
	SiteAddress string            `json:"site_address,omitempty"`
	ServiceDate *jsonapi.DateTime `json:"service_date,omitempty"`
	Trees       []TreeData        `json:"trees,omitempty"`
}

// ReportCreateData represents the data for creating a report.
type ReportCreateData struct {
	Type       string                 `json:"type"`
	Attributes ReportCreateAttributes `json:"attributes"`
}

// ReportCreateRequest represents a JSON:API request to create a report.
type ReportCreateRequest struct {
	Data ReportCreateData `json:"data"`
}

// ReportUpdateAttributes holds editable details. Absent fields are left
// unchanged.
type ReportUpdateAttributes struct {
	Reference   *string           `json:"reference,omitempty"`
	Title       *string           `json:"title,omitempty"`
	ClientName  *string           `json:"client_name,omitempty"`
	SiteAddress *string           `json:"site_address,omitempty"`
	ServiceDate *jsonapi.DateTime `json:"service_date,omitempty"`
}

// ReportUpdateData represents the data for updating a report.
type ReportUpdateData struct {
	Type       string                 `json:"type"`
	ID         string                 `json:"id,omitempty"`
	Attributes ReportUpdateAttributes `json:"attributes"`
}

// ReportUpdateRequest represents a JSON:API request to update a report.
type ReportUpdateRequest struct {
	Data ReportUpdateData `json:"data"`
}

// ContentReplaceAttributes holds the trees replacing a report's content.
type ContentReplaceAttributes struct {
	Trees []TreeData `json:"trees"`
}

// ContentReplaceData represents the data for replacing content.
type ContentReplaceData struct {
	Type       string                   `json:"type"`
	Attributes ContentReplaceAttributes `json:"attributes"`
}

// ContentReplaceRequest represents a JSON:API request to replace content.
type ContentReplaceRequest struct {
	Data ContentReplaceData `json:"data"`
}

// ReportData represents a report in JSON:API format.
type ReportData struct {
	Type       string                   `json:"type"`
	ID         string                   `json:"id"`
	Attributes jsonapi.ReportAttributes `json:"attributes"`
	Links      *jsonapi.Links           `json:"links,omitempty"`
}

// ReportResponse represents a single report.
type ReportResponse struct {
	Data ReportData `json:"data"`
}

// ReportListResponse represents a paginated list of reports.
type ReportListResponse struct {
	Data  []ReportData   `json:"data"`
	Meta  *jsonapi.Meta  `json:"meta,omitempty"`
	Links *jsonapi.Links `json:"links,omitempty"`
}

// ContentData represents a report's content.
type ContentData struct {
	Type       string `json:"type"`
	ID         string `json:"id"`
	Attributes struct {
		Trees []TreeData `json:"trees"`
	} `json:"attributes"`
}

// ContentResponse represents a report's stored trees.
type ContentResponse struct {
	Data ContentData `json:"data"`
}

// IssueData represents an advisory issue in JSON:API format.
type IssueData struct {
	Type       string                  `json:"type"`
	ID         string                  `json:"id"`
	Attributes jsonapi.IssueAttributes `json:"attributes"`
}

// IssueListResponse represents the issues of a report.
type IssueListResponse struct {
	Data []IssueData   `json:"data"`
	Meta *jsonapi.Meta `json:"meta,omitempty"`
}

// ContentCheckResponse represents the outcome of a content check.
type ContentCheckResponse struct {
	Data struct {
		Type       string                         `json:"type"`
		Attributes jsonapi.ContentCheckAttributes `json:"attributes"`
	} `json:"data"`
}

// ErrorResponse represents a JSON:API error document.
type ErrorResponse struct {
	Errors []jsonapi.Error `json:"errors"`
}

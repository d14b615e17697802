package service

import (
	"errors"

	"github.com/pestline/pestline/domain/report"
)

// Errors returned by the report service.
var (
	ErrClientClosed      = errors.New("pestline: client is closed")
	ErrInvalidReport     = errors.New("invalid report")
	ErrUnsupportedFormat = report.ErrUnsupportedFormat
)

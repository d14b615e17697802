package report

import (
	"context"

	"github.com/pestline/pestline/domain/repository"
)

// Store persists report metadata. Trees are not part of the row; they live in
// the DocumentStore.
type Store interface {
	repository.Store[Report]
	DeleteBy(ctx context.Context, options ...repository.Option) error
}

// DocumentStore persists the content document of each report. Load of a
// report that has no document returns an empty Document.
type DocumentStore interface {
	Load(ctx context.Context, reportID int64) (Document, error)
	Save(ctx context.Context, reportID int64, doc Document) error
	Delete(ctx context.Context, reportID int64) error
}

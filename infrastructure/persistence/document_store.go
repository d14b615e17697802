package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pestline/pestline/domain/content"
	"github.com/pestline/pestline/domain/report"
	"github.com/pestline/pestline/internal/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DocumentStore implements report.DocumentStore using GORM. Each report has at
// most one row; saving replaces it.
type DocumentStore struct {
	db database.Database
}

// NewDocumentStore creates a new DocumentStore.
func NewDocumentStore(db database.Database) DocumentStore {
	return DocumentStore{db: db}
}

// Load returns the document of a report, or an empty Document when the report
// has none.
func (s DocumentStore) Load(ctx context.Context, reportID int64) (report.Document, error) {
	var model ReportDocumentModel
	result := s.db.Session(ctx).Where("report_id = ?", reportID).First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return report.NewDocument(content.CurrentSchema, nil), nil
		}
		return report.Document{}, fmt.Errorf("load document: %w", result.Error)
	}
	return report.NewDocument(content.Schema(model.SchemaVersion), []byte(model.Document)), nil
}

// Save writes the document of a report, replacing any previous one.
func (s DocumentStore) Save(ctx context.Context, reportID int64, doc report.Document) error {
	model := ReportDocumentModel{
		ReportID:      reportID,
		SchemaVersion: int(doc.Schema()),
		Document:      string(doc.Data()),
		UpdatedAt:     time.Now().UTC(),
	}
	result := s.db.Session(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "report_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"schema_version", "document", "updated_at"}),
	}).Create(&model)
	if result.Error != nil {
		return fmt.Errorf("save document: %w", result.Error)
	}
	return nil
}

// Delete removes the document of a report. Deleting a missing document is
// not an error.
func (s DocumentStore) Delete(ctx context.Context, reportID int64) error {
	result := s.db.Session(ctx).Where("report_id = ?", reportID).Delete(&ReportDocumentModel{})
	if result.Error != nil {
		return fmt.Errorf("delete document: %w", result.Error)
	}
	return nil
}

// Outdated returns the IDs of reports whose documents are not stored in the
// current schema.
func (s DocumentStore) Outdated(ctx context.Context) ([]int64, error) {
	var ids []int64
	result := s.db.Session(ctx).Model(&ReportDocumentModel{}).
		Where("schema_version <> ?", int(content.CurrentSchema)).
		Order("report_id ASC").
		Pluck("report_id", &ids)
	if result.Error != nil {
		return nil, fmt.Errorf("find outdated documents: %w", result.Error)
	}
	return ids, nil
}

package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/pestline/pestline/domain/report"
	"github.com/pestline/pestline/internal/database"
)

// ReportStore implements report.Store using GORM.
type ReportStore struct {
	database.Repository[report.Report, ReportModel]
}

// NewReportStore creates a new ReportStore.
func NewReportStore(db database.Database) ReportStore {
	return ReportStore{
		Repository: database.NewRepository[report.Report, ReportModel](db, ReportMapper{}, "report"),
	}
}

// Save creates or updates a report's metadata.
func (s ReportStore) Save(ctx context.Context, r report.Report) (report.Report, error) {
	model := s.Mapper().ToModel(r)
	now := time.Now().UTC()

	if model.ID == 0 {
		if model.CreatedAt.IsZero() {
			model.CreatedAt = now
		}
		model.UpdatedAt = now
		if result := s.DB(ctx).Create(&model); result.Error != nil {
			return report.Report{}, fmt.Errorf("create report: %w", result.Error)
		}
	} else {
		if model.UpdatedAt.IsZero() {
			model.UpdatedAt = now
		}
		if result := s.DB(ctx).Save(&model); result.Error != nil {
			return report.Report{}, fmt.Errorf("update report: %w", result.Error)
		}
	}

	saved := s.Mapper().ToDomain(model)
	return saved.WithTrees(r.Trees()).WithUpdatedAt(saved.UpdatedAt()), nil
}

// Delete removes a report's metadata.
func (s ReportStore) Delete(ctx context.Context, r report.Report) error {
	model := s.Mapper().ToModel(r)
	if result := s.DB(ctx).Delete(&model); result.Error != nil {
		return fmt.Errorf("delete report: %w", result.Error)
	}
	return nil
}

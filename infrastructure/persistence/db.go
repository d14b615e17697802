// Package persistence provides database storage implementations.
package persistence

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pestline/pestline/domain/report"
	"github.com/pestline/pestline/internal/database"
	"gorm.io/gorm"
)

// allModels returns every GORM model that AutoMigrate manages.
func allModels() []any {
	return []any{
		&ReportModel{},
		&ReportDocumentModel{},
	}
}

// AutoMigrate runs GORM auto migration for all models.
func AutoMigrate(db database.Database) error {
	if err := db.GORM().AutoMigrate(allModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// ValidateSchema verifies every GORM model field has a corresponding column
// in the database. Returns an error listing any missing columns.
func ValidateSchema(db database.Database) error {
	gdb := db.GORM()
	migrator := gdb.Migrator()

	var missing []string
	for _, model := range allModels() {
		stmt := &gorm.Statement{DB: gdb}
		if err := stmt.Parse(model); err != nil {
			return fmt.Errorf("parse model schema: %w", err)
		}

		columnTypes, err := migrator.ColumnTypes(model)
		if err != nil {
			return fmt.Errorf("get column types for %s: %w", stmt.Table, err)
		}

		actual := make(map[string]bool, len(columnTypes))
		for _, ct := range columnTypes {
			actual[ct.Name()] = true
		}

		for _, field := range stmt.Schema.Fields {
			if field.DBName == "" || field.DBName == "-" {
				continue
			}
			if !actual[field.DBName] {
				missing = append(missing, stmt.Table+"."+field.DBName)
			}
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("schema validation failed, missing columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// UpgradeDocuments rewrites every document not stored in the current schema.
// Each document is decoded with its recorded (or sniffed) schema and saved
// back in the tagged format. Documents that fail to decode are left untouched
// and logged. It returns the number of documents rewritten.
func UpgradeDocuments(ctx context.Context, db database.Database, logger *slog.Logger) (int, error) {
	store := NewDocumentStore(db)
	ids, err := store.Outdated(ctx)
	if err != nil {
		return 0, err
	}

	upgraded := 0
	for _, id := range ids {
		err := db.InTransaction(ctx, func(ctx context.Context) error {
			doc, err := store.Load(ctx, id)
			if err != nil {
				return err
			}
			trees, err := report.DecodeDocument(doc)
			if err != nil {
				return err
			}
			encoded, err := report.EncodeDocument(trees)
			if err != nil {
				return err
			}
			return store.Save(ctx, id, encoded)
		})
		if err != nil {
			logger.Warn("document left in legacy schema",
				slog.Int64("report_id", id),
				slog.String("error", err.Error()),
			)
			continue
		}
		upgraded++
	}

	if upgraded > 0 {
		logger.Info("upgraded report documents", slog.Int("count", upgraded))
	}
	return upgraded, nil
}

// Package testdb opens migrated in-memory SQLite databases for tests.
package testdb

import (
	"context"
	"testing"

	"github.com/pestline/pestline/domain/content"
	"github.com/pestline/pestline/domain/report"
	"github.com/pestline/pestline/infrastructure/persistence"
	"github.com/pestline/pestline/internal/database"
)

// Stores is a migrated database with the report stores built on it.
type Stores struct {
	DB        database.Database
	Reports   persistence.ReportStore
	Documents persistence.DocumentStore
}

// New opens a migrated in-memory database that is closed when the test ends.
func New(t testing.TB) database.Database {
	t.Helper()
	db, err := database.NewDatabase(context.Background(), "sqlite:///:memory:")
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := persistence.AutoMigrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

// NewStores opens a migrated database and wraps it in report stores.
func NewStores(t testing.TB) Stores {
	t.Helper()
	db := New(t)
	return Stores{
		DB:        db,
		Reports:   persistence.NewReportStore(db),
		Documents: persistence.NewDocumentStore(db),
	}
}

// SaveRaw stores data as the document of reportID without decoding it, so
// tests can plant legacy or corrupt content.
func (s Stores) SaveRaw(t testing.TB, reportID int64, schema content.Schema, data string) {
	t.Helper()
	if err := s.Documents.Save(context.Background(), reportID, report.NewDocument(schema, []byte(data))); err != nil {
		t.Fatalf("save raw document for report %d: %v", reportID, err)
	}
}

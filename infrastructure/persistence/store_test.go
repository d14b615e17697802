package persistence

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/pestline/pestline/domain/content"
	"github.com/pestline/pestline/domain/report"
	"github.com/pestline/pestline/domain/repository"
	"github.com/pestline/pestline/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestDB creates a migrated in-memory SQLite database.
// The testdb package cannot be used here: it imports persistence.
func newTestDB(t *testing.T) database.Database {
	t.Helper()
	db, err := database.NewDatabase(context.Background(), "sqlite:///:memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, AutoMigrate(db))
	return db
}

func saveReport(t *testing.T, store ReportStore, kind report.Kind, title, client string) report.Report {
	t.Helper()
	r, err := report.NewReport(kind, title)
	require.NoError(t, err)
	r, err = r.WithDetails(report.Details{ClientName: &client})
	require.NoError(t, err)
	saved, err := store.Save(context.Background(), r)
	require.NoError(t, err)
	return saved
}

func TestAutoMigrate_ValidateSchema(t *testing.T) {
	db := newTestDB(t)
	assert.NoError(t, ValidateSchema(db))
}

func TestReportStore_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	store := NewReportStore(newTestDB(t))

	saved := saveReport(t, store, report.KindInspection, "Pre-purchase", "Jane Smith")
	assert.NotZero(t, saved.ID())

	date := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	ref := "INS-2026-0001"
	updated, err := saved.WithDetails(report.Details{Reference: &ref, ServiceDate: &date})
	require.NoError(t, err)
	_, err = store.Save(ctx, updated)
	require.NoError(t, err)

	found, err := store.FindOne(ctx, repository.WithID(saved.ID()))
	require.NoError(t, err)
	assert.Equal(t, "Pre-purchase", found.Title())
	assert.Equal(t, "Jane Smith", found.ClientName())
	assert.Equal(t, ref, found.Reference())
	assert.True(t, date.Equal(found.ServiceDate()))

	byRef, err := store.FindOne(ctx, report.WithReference(ref))
	require.NoError(t, err)
	assert.Equal(t, saved.ID(), byRef.ID())
}

func TestReportStore_Filters(t *testing.T) {
	ctx := context.Background()
	store := NewReportStore(newTestDB(t))

	saveReport(t, store, report.KindInspection, "A", "Jane Smith")
	saveReport(t, store, report.KindCertificate, "B", "Smithers Pty Ltd")
	saveReport(t, store, report.KindInspection, "C", "Bob Jones")

	inspections, err := store.Find(ctx, report.WithKind(report.KindInspection))
	require.NoError(t, err)
	assert.Len(t, inspections, 2)

	smiths, err := store.Find(ctx, report.WithClientName("Smith"))
	require.NoError(t, err)
	assert.Len(t, smiths, 2)

	count, err := store.Count(ctx, report.WithKind(report.KindCertificate))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestReportStore_NotFoundAndDelete(t *testing.T) {
	ctx := context.Background()
	store := NewReportStore(newTestDB(t))

	_, err := store.FindOne(ctx, repository.WithID(404))
	assert.True(t, errors.Is(err, database.ErrNotFound))

	saved := saveReport(t, store, report.KindQuotation, "Q", "Client")
	require.NoError(t, store.Delete(ctx, saved))

	exists, err := store.Exists(ctx, repository.WithID(saved.ID()))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDocumentStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewDocumentStore(newTestDB(t))

	empty, err := store.Load(ctx, 1)
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())

	trees := []report.Tree{report.NewTree("findings", content.NewSection("Findings", "1", 1, content.NewText("Termites")))}
	doc, err := report.EncodeDocument(trees)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, 1, doc))

	loaded, err := store.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, content.SchemaTagged, loaded.Schema())
	assert.Equal(t, string(doc.Data()), string(loaded.Data()))

	replacement, err := report.EncodeDocument([]report.Tree{report.NewTree("notes", content.NewText("x"))})
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, 1, replacement))

	loaded, err = store.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, string(replacement.Data()), string(loaded.Data()))

	require.NoError(t, store.Delete(ctx, 1))
	require.NoError(t, store.Delete(ctx, 1))
	loaded, err = store.Load(ctx, 1)
	require.NoError(t, err)
	assert.True(t, loaded.IsEmpty())
}

func TestDocumentStore_TransactionRollback(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	store := NewDocumentStore(db)

	doc, err := report.EncodeDocument([]report.Tree{report.NewTree("a", content.NewText("x"))})
	require.NoError(t, err)

	abort := errors.New("abort")
	err = db.InTransaction(ctx, func(ctx context.Context) error {
		if err := store.Save(ctx, 9, doc); err != nil {
			return err
		}
		return abort
	})
	assert.ErrorIs(t, err, abort)

	loaded, err := store.Load(ctx, 9)
	require.NoError(t, err)
	assert.True(t, loaded.IsEmpty())
}

func TestUpgradeDocuments(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	store := NewDocumentStore(db)

	legacy := `[{"Name":"findings","Content":{"Title":"Findings","Numbering":"1","Level":1,"Sections":[{"Content":"old"}]}}]`
	require.NoError(t, store.Save(ctx, 1, report.NewDocument(0, []byte(legacy))))
	require.NoError(t, store.Save(ctx, 2, report.NewDocument(content.SchemaLegacy, []byte(`[{"Name":"x","Content":{"Foo":1}}]`))))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	n, err := UpgradeDocuments(ctx, db, logger)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	doc, err := store.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, content.SchemaTagged, doc.Schema())
	assert.Equal(t,
		`[{"name":"findings","content":{"$type":"textBlock","title":"Findings","numbering":"1","level":1,"sections":[{"$type":"textArea","content":"old"}]}}]`,
		string(doc.Data()))

	ids, err := store.Outdated(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids, "undecodable document stays behind")
}

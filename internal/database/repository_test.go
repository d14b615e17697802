package database

import (
	"context"
	"errors"
	"testing"

	"github.com/pestline/pestline/domain/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testSite struct {
	id     int64
	name   string
	suburb string
}

type testSiteEntity struct {
	ID     int64  `gorm:"primaryKey"`
	Name   string `gorm:"column:name"`
	Suburb string `gorm:"column:suburb"`
}

func (testSiteEntity) TableName() string { return "sites" }

type testSiteMapper struct{}

func (testSiteMapper) ToDomain(e testSiteEntity) testSite {
	return testSite{id: e.ID, name: e.Name, suburb: e.Suburb}
}

func (testSiteMapper) ToModel(d testSite) testSiteEntity {
	return testSiteEntity{ID: d.id, Name: d.name, Suburb: d.suburb}
}

func newSiteRepo(t *testing.T) Repository[testSite, testSiteEntity] {
	t.Helper()
	ctx := context.Background()
	db, _ := newFileDB(t)
	require.NoError(t, db.Session(ctx).Exec(`
		CREATE TABLE sites (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			suburb TEXT NOT NULL
		)
	`).Error)
	for _, s := range []testSiteEntity{
		{Name: "Warehouse", Suburb: "Newtown"},
		{Name: "Bakery", Suburb: "Newtown"},
		{Name: "School", Suburb: "Glebe"},
	} {
		require.NoError(t, db.Session(ctx).Create(&s).Error)
	}
	return NewRepository[testSite, testSiteEntity](db, testSiteMapper{}, "site")
}

func TestRepository_Find(t *testing.T) {
	ctx := context.Background()
	repo := newSiteRepo(t)

	all, err := repo.Find(ctx, repository.WithOrderAsc("name"))
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Bakery", all[0].name)

	newtown, err := repo.Find(ctx, repository.WithCondition("suburb", "Newtown"))
	require.NoError(t, err)
	assert.Len(t, newtown, 2)

	paged, err := repo.Find(ctx, append(repository.WithPagination(1, 1), repository.WithOrderAsc("id"))...)
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "Bakery", paged[0].name)

	matched, err := repo.Find(ctx, repository.WithContains("name", "hoo"))
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "School", matched[0].name)

	byIDs, err := repo.Find(ctx, repository.WithConditionIn("id", []int64{1, 3}))
	require.NoError(t, err)
	assert.Len(t, byIDs, 2)
}

func TestRepository_FindOne(t *testing.T) {
	ctx := context.Background()
	repo := newSiteRepo(t)

	site, err := repo.FindOne(ctx, repository.WithID(3))
	require.NoError(t, err)
	assert.Equal(t, "School", site.name)

	_, err = repo.FindOne(ctx, repository.WithID(99))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "site")
}

func TestRepository_CountExistsDelete(t *testing.T) {
	ctx := context.Background()
	repo := newSiteRepo(t)

	count, err := repo.Count(ctx, append(repository.WithPagination(1, 0), repository.WithCondition("suburb", "Newtown"))...)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count, "count ignores pagination")

	exists, err := repo.Exists(ctx, repository.WithCondition("suburb", "Glebe"))
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, repo.DeleteBy(ctx, repository.WithCondition("suburb", "Glebe")))

	exists, err = repo.Exists(ctx, repository.WithCondition("suburb", "Glebe"))
	require.NoError(t, err)
	assert.False(t, exists)
}

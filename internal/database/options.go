package database

import (
	"fmt"

	"github.com/pestline/pestline/domain/repository"
	"gorm.io/gorm"
)

// applyOptions applies the conditions, ordering and paging of options.
func applyOptions(db *gorm.DB, options ...repository.Option) *gorm.DB {
	q := repository.Build(options...)

	db = whereConditions(db, q)

	for _, ord := range q.Orders() {
		dir := "ASC"
		if !ord.Ascending() {
			dir = "DESC"
		}
		db = db.Order(fmt.Sprintf("%s %s", ord.Field(), dir))
	}

	if q.LimitValue() > 0 {
		db = db.Limit(q.LimitValue())
	}

	if q.OffsetValue() > 0 {
		db = db.Offset(q.OffsetValue())
	}

	return db
}

// applyConditions applies only the conditions of options, for counting.
func applyConditions(db *gorm.DB, options ...repository.Option) *gorm.DB {
	return whereConditions(db, repository.Build(options...))
}

func whereConditions(db *gorm.DB, q repository.Query) *gorm.DB {
	for _, cond := range q.Conditions() {
		switch cond.Operator() {
		case repository.OpIn:
			db = db.Where(fmt.Sprintf("%s IN ?", cond.Field()), cond.Value())
		case repository.OpContains:
			db = db.Where(fmt.Sprintf("%s LIKE ?", cond.Field()), fmt.Sprintf("%%%v%%", cond.Value()))
		default:
			db = db.Where(fmt.Sprintf("%s %s ?", cond.Field(), cond.Operator()), cond.Value())
		}
	}
	return db
}

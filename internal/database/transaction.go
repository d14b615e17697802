package database

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// InTransaction runs fn in a transaction carried by the context it receives.
// Stores built on this Database join it through Session. Nested calls reuse
// the outer transaction, and any error from fn rolls the whole of it back.
func (d Database) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTransaction(ctx) {
		return fn(ctx)
	}
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// inTransaction reports whether ctx carries a transaction.
func inTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*gorm.DB)
	return ok
}

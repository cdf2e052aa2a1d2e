package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base carries the shared GORM handle embedded by the domain repositories.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection bound to ctx for read queries.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Write returns the transaction bound to ctx when one is supplied. Write
// methods receive their transaction from the caller so that a whole batch
// commits or rolls back together; a nil tx falls back to the base
// connection for callers that do not need that grouping.
func (b Base) Write(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx == nil {
		return b.DB(ctx)
	}
	if ctx == nil {
		return tx
	}
	return tx.WithContext(ctx)
}

package persistence

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// GormUnitOfWork runs a function inside one database transaction. The
// transaction travels in the context so every repository joins it.
type GormUnitOfWork struct {
	db *gorm.DB
}

// NewGormUnitOfWork creates a new GormUnitOfWork
func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

// Do implements shared.UnitOfWork. Nested calls reuse the outer transaction.
func (u *GormUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// conn returns the transaction bound to ctx, or db when there is none
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

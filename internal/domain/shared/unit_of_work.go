package shared

import "context"

// UnitOfWork runs fn inside a single storage transaction.
// Repositories invoked with the ctx passed to fn join that transaction;
// returning an error from fn rolls everything back.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

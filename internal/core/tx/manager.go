// Package tx defines the transaction management contract for domain services.
// The PostgreSQL implementation lives in the infrastructure layer.
package tx

import "context"

// Manager runs functions within a database transaction.
// Nested calls reuse the outer transaction.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

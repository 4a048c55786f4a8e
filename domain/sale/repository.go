package sale

import "context"

// Repository persists Sale aggregates. Implementations return sales with their
// lines populated and never publish events.
type Repository interface {
	// GetByID loads one sale. A missing sale is reported as ErrSaleNotFound.
	GetByID(ctx context.Context, id int64) (*Sale, error)

	// GetAll loads every sale.
	GetAll(ctx context.Context) ([]*Sale, error)

	// Add inserts a new sale and assigns the ids of the sale and its lines.
	Add(ctx context.Context, s *Sale) (*Sale, error)

	// Update writes a loaded sale back. A stale version is reported as
	// ErrConcurrentModification.
	Update(ctx context.Context, s *Sale) (*Sale, error)

	// Delete removes a sale and its lines, reporting whether anything was removed.
	Delete(ctx context.Context, id int64) (bool, error)
}

package escrow

import "context"

type Repository interface {
	// Append records a movement; entries are never updated or deleted.
	Append(ctx context.Context, e *Entry) error

	// ListByLoan returns every movement of a loan in insertion order.
	ListByLoan(ctx context.Context, loanID uint64) ([]Entry, error)
}

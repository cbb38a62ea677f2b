package loan

import "context"

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	GetByLoanID(ctx context.Context, loanID string) (*Loan, error)
	// Latest record of the borrower: the live one if any, else the most recent terminal one.
	GetLatestByBorrower(ctx context.Context, borrower string) (*Loan, error)
	// Same as GetLatestByBorrower but locks the row for the rest of the tx.
	GetLatestByBorrowerForUpdate(ctx context.Context, borrower string) (*Loan, error)
	Save(ctx context.Context, l *Loan) error
	List(ctx context.Context, f ListFilter) ([]Loan, error)
}

type EventRepository interface {
	Append(ctx context.Context, e *Event) error
	ListByLoan(ctx context.Context, loanID uint64) ([]Event, error)
}

// Publisher receives committed events for delivery to subscribers.
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
}

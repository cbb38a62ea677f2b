package escrowmock

import (
	"context"

	domain "p2p-lending-backend/internal/domain/escrow"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies escrow.Repository.
// With no funcs set it behaves as an in-memory journal.
type Repo struct {
	AppendFn     func(ctx context.Context, e *domain.Entry) error
	ListByLoanFn func(ctx context.Context, loanID uint64) ([]domain.Entry, error)

	Entries []domain.Entry
}

func (m *Repo) Append(ctx context.Context, e *domain.Entry) error {
	if m.AppendFn != nil {
		return m.AppendFn(ctx, e)
	}
	e.ID = uint64(len(m.Entries) + 1)
	m.Entries = append(m.Entries, *e)
	return nil
}

func (m *Repo) ListByLoan(ctx context.Context, loanID uint64) ([]domain.Entry, error) {
	if m.ListByLoanFn != nil {
		return m.ListByLoanFn(ctx, loanID)
	}
	var out []domain.Entry
	for _, e := range m.Entries {
		if e.LoanID == loanID {
			out = append(out, e)
		}
	}
	return out, nil
}

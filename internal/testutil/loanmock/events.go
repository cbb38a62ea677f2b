package loanmock

import (
	"context"
	"sync"

	domain "p2p-lending-backend/internal/domain/loan"
)

var (
	_ domain.EventRepository = (*Events)(nil)
	_ domain.Publisher       = (*Publisher)(nil)
)

// Events is a function-backed loan.EventRepository; with no funcs set it
// keeps appended events in memory.
type Events struct {
	AppendFn     func(ctx context.Context, e *domain.Event) error
	ListByLoanFn func(ctx context.Context, loanID uint64) ([]domain.Event, error)

	Appended []domain.Event
}

func (m *Events) Append(ctx context.Context, e *domain.Event) error {
	if m.AppendFn != nil {
		return m.AppendFn(ctx, e)
	}
	e.ID = uint64(len(m.Appended) + 1)
	m.Appended = append(m.Appended, *e)
	return nil
}

func (m *Events) ListByLoan(ctx context.Context, loanID uint64) ([]domain.Event, error) {
	if m.ListByLoanFn != nil {
		return m.ListByLoanFn(ctx, loanID)
	}
	var out []domain.Event
	for _, e := range m.Appended {
		if e.LoanID == loanID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Publisher records what it is asked to publish and returns Err.
// Safe for concurrent Publish calls.
type Publisher struct {
	mu        sync.Mutex
	Published []domain.Event
	Err       error
}

func (p *Publisher) Publish(_ context.Context, events ...domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Published = append(p.Published, events...)
	return p.Err
}

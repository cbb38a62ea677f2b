package escrow

import (
	"context"
	"errors"
	"fmt"

	"p2p-lending-backend/pkg/money"
)

var (
	ErrInvalidAmount      = errors.New("escrow: amount must be positive")
	ErrInsufficientEscrow = errors.New("escrow: release exceeds held balance")
)

// Accounting moves value in and out of escrow for loan records. It is only
// driven by lifecycle operations inside their transaction.
type Accounting struct{ repo Repository }

func NewAccounting(r Repository) *Accounting { return &Accounting{repo: r} }

// Hold takes amount from party into escrow under purpose.
func (a *Accounting) Hold(ctx context.Context, loanID uint64, from string, amount money.Amount, p Purpose) error {
	if !amount.Positive() {
		return ErrInvalidAmount
	}
	return a.repo.Append(ctx, &Entry{LoanID: loanID, Party: from, Direction: DirectionHold, Purpose: p, Amount: amount})
}

// Release pays amount held under purpose out to party.
func (a *Accounting) Release(ctx context.Context, loanID uint64, to string, amount money.Amount, p Purpose) error {
	if !amount.Positive() {
		return ErrInvalidAmount
	}
	s, err := a.Summary(ctx, loanID)
	if err != nil {
		return err
	}
	if held := s.Held[p]; held < amount {
		return fmt.Errorf("%w: %s held %d, release %d", ErrInsufficientEscrow, p, held, amount)
	}
	return a.repo.Append(ctx, &Entry{LoanID: loanID, Party: to, Direction: DirectionRelease, Purpose: p, Amount: amount})
}

// Summary folds the journal of a loan into current balances.
func (a *Accounting) Summary(ctx context.Context, loanID uint64) (*Summary, error) {
	entries, err := a.repo.ListByLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return Fold(entries), nil
}

// Fold computes a Summary from journal entries.
func Fold(entries []Entry) *Summary {
	s := &Summary{
		Held:      map[Purpose]money.Amount{},
		Positions: map[string]money.Amount{},
		Entries:   entries,
	}
	for _, e := range entries {
		switch e.Direction {
		case DirectionHold:
			s.Held[e.Purpose] += e.Amount
			s.Total += e.Amount
			s.Positions[e.Party] -= e.Amount
		case DirectionRelease:
			s.Held[e.Purpose] -= e.Amount
			s.Total -= e.Amount
			s.Positions[e.Party] += e.Amount
		}
	}
	return s
}

package uow

import (
	"context"

	"p2p-lending-backend/internal/domain/escrow"
	"p2p-lending-backend/internal/domain/loan"
)

// Repos are bound to one transaction.
type Repos struct {
	Loans  loan.Repository
	Escrow escrow.Repository
	Events loan.EventRepository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// lock the borrower's latest loan first, then pass it in
	WithinBorrowerTx(ctx context.Context, borrower string, fn func(r Repos, l *loan.Loan) error) error
}

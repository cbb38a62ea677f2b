package loanmock

import (
	"context"

	domain "p2p-lending-backend/internal/domain/loan"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies loan.Repository.
// Unset lookups return context.Canceled; unset writes are no-ops.
type Repo struct {
	CreateFn                       func(ctx context.Context, l *domain.Loan) error
	GetByLoanIDFn                  func(ctx context.Context, loanID string) (*domain.Loan, error)
	GetLatestByBorrowerFn          func(ctx context.Context, borrower string) (*domain.Loan, error)
	GetLatestByBorrowerForUpdateFn func(ctx context.Context, borrower string) (*domain.Loan, error)
	SaveFn                         func(ctx context.Context, l *domain.Loan) error
	ListFn                         func(ctx context.Context, f domain.ListFilter) ([]domain.Loan, error)
}

func (m *Repo) Create(ctx context.Context, l *domain.Loan) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}

func (m *Repo) GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDFn != nil {
		return m.GetByLoanIDFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetLatestByBorrower(ctx context.Context, borrower string) (*domain.Loan, error) {
	if m.GetLatestByBorrowerFn != nil {
		return m.GetLatestByBorrowerFn(ctx, borrower)
	}
	return nil, context.Canceled
}

func (m *Repo) GetLatestByBorrowerForUpdate(ctx context.Context, borrower string) (*domain.Loan, error) {
	if m.GetLatestByBorrowerForUpdateFn != nil {
		return m.GetLatestByBorrowerForUpdateFn(ctx, borrower)
	}
	return nil, context.Canceled
}

func (m *Repo) Save(ctx context.Context, l *domain.Loan) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, l)
	}
	return nil
}

func (m *Repo) List(ctx context.Context, f domain.ListFilter) ([]domain.Loan, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, f)
	}
	return nil, nil
}

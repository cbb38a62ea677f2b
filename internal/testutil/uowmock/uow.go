package uowmock

import (
	"context"
	"errors"

	"p2p-lending-backend/internal/domain/loan"
	"p2p-lending-backend/internal/domain/uow"
)

// Ensure compile-time compliance
var _ uow.UnitOfWork = (*UoW)(nil)

var errUnimplemented = errors.New("uowmock: method not implemented")

// UoW is a function-backed mock that satisfies uow.UnitOfWork.
// Fill in the function fields you need in a test; unfilled ones return errUnimplemented.
type UoW struct {
	WithinTxFn         func(ctx context.Context, fn func(r uow.Repos) error) error
	WithinBorrowerTxFn func(ctx context.Context, borrower string, fn func(r uow.Repos, l *loan.Loan) error) error
}

func New() *UoW { return &UoW{} }

func (m *UoW) WithWithinTx(fn func(context.Context, func(uow.Repos) error) error) *UoW {
	m.WithinTxFn = fn
	return m
}

func (m *UoW) WithWithinBorrowerTx(fn func(context.Context, string, func(uow.Repos, *loan.Loan) error) error) *UoW {
	m.WithinBorrowerTxFn = fn
	return m
}

// Passthrough wires both methods to the given repos without a real tx;
// WithinBorrowerTx resolves the loan with Loans.GetLatestByBorrowerForUpdate.
func Passthrough(r uow.Repos) *UoW {
	return &UoW{
		WithinTxFn: func(ctx context.Context, fn func(uow.Repos) error) error { return fn(r) },
		WithinBorrowerTxFn: func(ctx context.Context, borrower string, fn func(uow.Repos, *loan.Loan) error) error {
			l, err := r.Loans.GetLatestByBorrowerForUpdate(ctx, borrower)
			if err != nil {
				return err
			}
			return fn(r, l)
		},
	}
}

func (m *UoW) Reset() { *m = UoW{} }

func (m *UoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	if m.WithinTxFn != nil {
		return m.WithinTxFn(ctx, fn)
	}
	return errUnimplemented
}

func (m *UoW) WithinBorrowerTx(ctx context.Context, borrower string, fn func(r uow.Repos, l *loan.Loan) error) error {
	if m.WithinBorrowerTxFn != nil {
		return m.WithinBorrowerTxFn(ctx, borrower, fn)
	}
	return errUnimplemented
}

package loan

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"p2p-lending-backend/internal/domain/escrow"
	"p2p-lending-backend/internal/domain/loan"
	"p2p-lending-backend/internal/domain/uow"

	"gorm.io/gorm"
)

const defaultPageSize = 50

func (u *Usecase) latest(ctx context.Context, borrower string) (*loan.Loan, error) {
	l, err := u.loans.GetLatestByBorrower(ctx, borrower)
	if err != nil {
		return nil, u.translate(err, borrower)
	}
	return l, nil
}

// Get returns the borrower's latest record, terminal or not.
func (u *Usecase) Get(ctx context.Context, borrower string) (*LoanDTO, error) {
	b, err := normalize("borrower", borrower)
	if err != nil {
		return nil, err
	}
	l, err := u.latest(ctx, b)
	if err != nil {
		return nil, err
	}
	dto := toDTO(l)
	return &dto, nil
}

// GetByLoanID returns the record with the given public id, terminal or not.
func (u *Usecase) GetByLoanID(ctx context.Context, loanID string) (*LoanDTO, error) {
	loanID = strings.ToLower(strings.TrimSpace(loanID))
	if loanID == "" {
		return nil, fmt.Errorf("%w: loan id is required", loan.ErrInvalidInput)
	}
	l, err := u.loans.GetByLoanID(ctx, loanID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: loan %s", loan.ErrNoSuchLoan, loanID)
	}
	if err != nil {
		return nil, err
	}
	dto := toDTO(l)
	return &dto, nil
}

// ListLoans returns one page of the ledger in insertion order.
// Pass NextCursor back as After to continue.
func (u *Usecase) ListLoans(ctx context.Context, in ListLoansInput) (_ *LoanPage, err error) {
	defer u.observe("list_loans", time.Now(), &err)

	limit := in.Limit
	if limit <= 0 || limit > defaultPageSize {
		limit = defaultPageSize
	}
	rows, err := u.loans.List(ctx, loan.ListFilter{AfterID: in.After, Limit: limit, IncludeTerminal: in.IncludeTerminal})
	if err != nil {
		return nil, err
	}
	page := &LoanPage{Loans: make([]LoanDTO, 0, len(rows))}
	for i := range rows {
		page.Loans = append(page.Loans, toDTO(&rows[i]))
	}
	if len(rows) == limit {
		page.NextCursor = rows[len(rows)-1].ID
	}
	return page, nil
}

// All walks the whole ledger lazily, one repository page at a time. Iteration
// stops at the first error, which is yielded once.
func (u *Usecase) All(ctx context.Context, f loan.ListFilter) iter.Seq2[LoanDTO, error] {
	return func(yield func(LoanDTO, error) bool) {
		size := f.Limit
		if size <= 0 {
			size = defaultPageSize
		}
		cursor := f.AfterID
		for {
			rows, err := u.loans.List(ctx, loan.ListFilter{AfterID: cursor, Limit: size, IncludeTerminal: f.IncludeTerminal})
			if err != nil {
				yield(LoanDTO{}, err)
				return
			}
			for i := range rows {
				if !yield(toDTO(&rows[i]), nil) {
					return
				}
				cursor = rows[i].ID
			}
			if len(rows) < size {
				return
			}
		}
	}
}

// Escrow reports the escrow position of the borrower's latest record.
func (u *Usecase) Escrow(ctx context.Context, borrower string) (*escrow.Summary, error) {
	b, err := normalize("borrower", borrower)
	if err != nil {
		return nil, err
	}
	var out *escrow.Summary
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		l, err := r.Loans.GetLatestByBorrower(ctx, b)
		if err != nil {
			return err
		}
		out, err = escrow.NewAccounting(r.Escrow).Summary(ctx, l.ID)
		return err
	})
	if err != nil {
		return nil, u.translate(err, b)
	}
	return out, nil
}

// History lists the persisted events of the borrower's latest record.
func (u *Usecase) History(ctx context.Context, borrower string) ([]loan.Event, error) {
	b, err := normalize("borrower", borrower)
	if err != nil {
		return nil, err
	}
	var out []loan.Event
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		l, err := r.Loans.GetLatestByBorrower(ctx, b)
		if err != nil {
			return err
		}
		out, err = r.Events.ListByLoan(ctx, l.ID)
		return err
	})
	if err != nil {
		return nil, u.translate(err, b)
	}
	return out, nil
}

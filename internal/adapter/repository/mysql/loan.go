package mysql

import (
	"context"

	loanDomain "p2p-lending-backend/internal/domain/loan"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultListLimit = 50

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.Loan) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(l).Error, "create loan")
}

func (r *LoanRepository) Save(ctx context.Context, l *loanDomain.Loan) error {
	return errors.Wrap(r.db.WithContext(ctx).Save(l).Error, "save loan")
}

func (r *LoanRepository) GetByLoanID(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	if err := r.db.WithContext(ctx).Where("loan_id = ?", loanID).Take(&out).Error; err != nil {
		return nil, errors.Wrapf(err, "get loan %s", loanID)
	}
	return &out, nil
}

func (r *LoanRepository) GetLatestByBorrower(ctx context.Context, borrower string) (*loanDomain.Loan, error) {
	return r.latest(r.db.WithContext(ctx), borrower)
}

func (r *LoanRepository) GetLatestByBorrowerForUpdate(ctx context.Context, borrower string) (*loanDomain.Loan, error) {
	return r.latest(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), borrower)
}

// latest: the live record is always the newest one, so id order is enough.
func (r *LoanRepository) latest(q *gorm.DB, borrower string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	if err := q.Where("borrower = ?", borrower).Order("id DESC").Take(&out).Error; err != nil {
		return nil, errors.Wrapf(err, "latest loan of %s", borrower)
	}
	return &out, nil
}

func (r *LoanRepository) List(ctx context.Context, f loanDomain.ListFilter) ([]loanDomain.Loan, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	q := r.db.WithContext(ctx).Where("id > ?", f.AfterID)
	if !f.IncludeTerminal {
		q = q.Where("repaid = ? AND claimed = ?", false, false)
	}
	var out []loanDomain.Loan
	if err := q.Order("id ASC").Limit(limit).Find(&out).Error; err != nil {
		return nil, errors.Wrap(err, "list loans")
	}
	return out, nil
}

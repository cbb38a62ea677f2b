package mysql

import (
	"context"

	escrowDomain "p2p-lending-backend/internal/domain/escrow"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type EscrowRepository struct{ db *gorm.DB }

func NewEscrowRepository(db *gorm.DB) *EscrowRepository { return &EscrowRepository{db: db} }

func (r *EscrowRepository) Append(ctx context.Context, e *escrowDomain.Entry) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(e).Error, "append escrow entry")
}

func (r *EscrowRepository) ListByLoan(ctx context.Context, loanNumericID uint64) ([]escrowDomain.Entry, error) {
	var out []escrowDomain.Entry
	res := r.db.WithContext(ctx).
		Where("loan_id = ?", loanNumericID).
		Order("id ASC").
		Find(&out)
	return out, errors.Wrap(res.Error, "list escrow entries")
}

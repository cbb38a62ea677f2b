package mysql

import (
	"context"

	loanDomain "p2p-lending-backend/internal/domain/loan"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// EventRepository is the outbox of lifecycle events.
type EventRepository struct{ db *gorm.DB }

func NewEventRepository(db *gorm.DB) *EventRepository { return &EventRepository{db: db} }

func (r *EventRepository) Append(ctx context.Context, e *loanDomain.Event) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(e).Error, "append loan event")
}

func (r *EventRepository) ListByLoan(ctx context.Context, loanNumericID uint64) ([]loanDomain.Event, error) {
	var out []loanDomain.Event
	res := r.db.WithContext(ctx).
		Where("loan_id = ?", loanNumericID).
		Order("id ASC").
		Find(&out)
	return out, errors.Wrap(res.Error, "list loan events")
}

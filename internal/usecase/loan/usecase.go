package loan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"p2p-lending-backend/internal/domain/escrow"
	"p2p-lending-backend/internal/domain/loan"
	"p2p-lending-backend/internal/domain/uow"
	"p2p-lending-backend/pkg/address"
	"p2p-lending-backend/pkg/id"
	"p2p-lending-backend/pkg/money"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Metrics records the outcome of every operation.
type Metrics interface {
	Observe(operation, outcome string, elapsed time.Duration)
}

type Option func(*Usecase)

func WithClock(now func() time.Time) Option { return func(u *Usecase) { u.now = now } }

func WithLogger(l logrus.FieldLogger) Option { return func(u *Usecase) { u.log = l } }

func WithPublisher(p loan.Publisher) Option { return func(u *Usecase) { u.pub = p } }

func WithMetrics(m Metrics) Option { return func(u *Usecase) { u.metrics = m } }

type Usecase struct {
	loans   loan.Repository
	uow     uow.UnitOfWork
	now     func() time.Time
	log     logrus.FieldLogger
	pub     loan.Publisher
	metrics Metrics
}

// NewUsecase: loans serves plain reads, tx every mutation.
func NewUsecase(loans loan.Repository, tx uow.UnitOfWork, opts ...Option) *Usecase {
	u := &Usecase{
		loans: loans,
		uow:   tx,
		now:   func() time.Time { return time.Now().UTC() },
		log:   logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(u)
	}
	return u
}

// tx carries the state of one mutation while its transaction is open.
type tx struct {
	repos  uow.Repos
	escrow *escrow.Accounting
	now    time.Time
	events []loan.Event
}

func (t *tx) emit(ctx context.Context, l *loan.Loan, name loan.EventName, actor, counterparty string, amount money.Amount) error {
	e := loan.Event{
		EventID:      id.NewEventID(),
		Name:         name,
		LoanID:       l.ID,
		PublicLoanID: l.LoanID,
		Borrower:     l.Borrower,
		Actor:        actor,
		Counterparty: counterparty,
		Amount:       amount,
		OccurredAt:   t.now,
	}
	if err := t.repos.Events.Append(ctx, &e); err != nil {
		return err
	}
	t.events = append(t.events, e)
	return nil
}

// save stamps the transition time and persists l.
func (t *tx) save(ctx context.Context, l *loan.Loan) error {
	l.StateUpdatedAt = t.now
	return t.repos.Loans.Save(ctx, l)
}

func (u *Usecase) begin(r uow.Repos) *tx {
	return &tx{repos: r, escrow: escrow.NewAccounting(r.Escrow), now: u.now()}
}

// mutate runs fn against the borrower's locked latest record and, after
// commit, logs and publishes the events it emitted.
func (u *Usecase) mutate(ctx context.Context, op, borrower string, fn func(t *tx, l *loan.Loan) error) (*Receipt, error) {
	var (
		t   *tx
		out *loan.Loan
	)
	err := u.uow.WithinBorrowerTx(ctx, borrower, func(r uow.Repos, l *loan.Loan) error {
		t = u.begin(r)
		if err := fn(t, l); err != nil {
			return err
		}
		out = l
		return nil
	})
	if err != nil {
		return nil, u.translate(err, borrower)
	}
	return u.commit(ctx, op, out, t.events), nil
}

func (u *Usecase) commit(ctx context.Context, op string, l *loan.Loan, events []loan.Event) *Receipt {
	for _, e := range events {
		u.log.WithFields(logrus.Fields{
			"operation": op,
			"event":     e.Name,
			"event_id":  e.EventID,
			"loan_id":   e.PublicLoanID,
			"borrower":  e.Borrower,
			"actor":     e.Actor,
			"amount":    e.Amount,
		}).Info("loan transition committed")
	}
	if u.pub != nil && len(events) > 0 {
		if err := u.pub.Publish(ctx, events...); err != nil {
			u.log.WithError(err).WithField("operation", op).Warn("publish loan events")
		}
	}
	return &Receipt{Loan: toDTO(l), Events: events}
}

// translate maps storage-level failures onto lifecycle rejections.
func (u *Usecase) translate(err error, borrower string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: borrower %s", loan.ErrNoSuchLoan, borrower)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: borrower %s", loan.ErrAlreadyActive, borrower)
	}
	return err
}

func (u *Usecase) observe(op string, start time.Time, err *error) {
	if u.metrics != nil {
		u.metrics.Observe(op, loan.Code(*err), time.Since(start))
	}
}

func normalize(field, s string) (string, error) {
	a, err := address.Normalize(s)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", loan.ErrInvalidInput, field, err)
	}
	return a, nil
}

// RequestLoan opens a new loan record for the caller.
func (u *Usecase) RequestLoan(ctx context.Context, in RequestLoanInput) (_ *Receipt, err error) {
	defer u.observe("request_loan", time.Now(), &err)

	borrower, err := normalize("borrower", in.Borrower)
	if err != nil {
		return nil, err
	}
	now := u.now()
	if err := loan.ValidateTerms(in.Amount, in.EndTime, in.InterestRate, now); err != nil {
		return nil, err
	}

	var (
		t *tx
		l *loan.Loan
	)
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		t = u.begin(r)
		t.now = now
		latest, err := r.Loans.GetLatestByBorrowerForUpdate(ctx, borrower)
		switch {
		case err == nil:
			if !latest.Terminal() {
				return fmt.Errorf("%w: %s", loan.ErrAlreadyActive, latest.LoanID)
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		l = &loan.Loan{
			LoanID:         id.NewLoanID(),
			Borrower:       borrower,
			Amount:         in.Amount,
			EndTime:        in.EndTime.UTC(),
			InterestRate:   in.InterestRate,
			StateUpdatedAt: now,
		}
		l.Activate()
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		return t.emit(ctx, l, loan.EventLoanRequest, borrower, "", l.Amount)
	})
	if err != nil {
		return nil, u.translate(err, borrower)
	}
	return u.commit(ctx, "request_loan", l, t.events), nil
}

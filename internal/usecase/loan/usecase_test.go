package loan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"p2p-lending-backend/internal/adapter/repository/mysql"
	escrowDomain "p2p-lending-backend/internal/domain/escrow"
	domain "p2p-lending-backend/internal/domain/loan"
	"p2p-lending-backend/internal/domain/uow"
	"p2p-lending-backend/internal/testutil/dbtest"
	"p2p-lending-backend/internal/testutil/escrowmock"
	"p2p-lending-backend/internal/testutil/loanmock"
	"p2p-lending-backend/internal/testutil/uowmock"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	borrowerB = "0x1111111111111111111111111111111111111111"
	guarantor = "0x2222222222222222222222222222222222222222"
	lender    = "0x3333333333333333333333333333333333333333"
	stranger  = "0x4444444444444444444444444444444444444444"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type observation struct{ op, outcome string }

type recordingMetrics struct {
	mu   sync.Mutex
	seen []observation
}

func (m *recordingMetrics) Observe(op, outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen = append(m.seen, observation{op, outcome})
}

type fixture struct {
	uc      *Usecase
	clock   *clock
	pub     *loanmock.Publisher
	metrics *recordingMetrics
	hook    *logtest.Hook
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t, mysql.AutoMigrate)
	logger, hook := logtest.NewNullLogger()
	f := &fixture{
		clock:   &clock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		pub:     &loanmock.Publisher{},
		metrics: &recordingMetrics{},
		hook:    hook,
	}
	f.uc = NewUsecase(mysql.NewLoanRepository(db), mysql.NewGormUoW(db),
		WithClock(f.clock.Now),
		WithLogger(logger),
		WithPublisher(f.pub),
		WithMetrics(f.metrics),
	)
	return f
}

func (f *fixture) request(t *testing.T, borrower string) *Receipt {
	t.Helper()
	rc, err := f.uc.RequestLoan(context.Background(), RequestLoanInput{
		Borrower:     borrower,
		Amount:       100,
		EndTime:      f.clock.Now().Add(1000 * time.Second),
		InterestRate: 10,
	})
	require.NoError(t, err)
	return rc
}

// funded drives a fresh loan of borrowerB up to Funded.
func (f *fixture) funded(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	f.request(t, borrowerB)
	_, err := f.uc.ProvideGaranty(ctx, ProvideGarantyInput{Borrower: borrowerB, Guarantor: guarantor, Terms: 1, Deposit: 100})
	require.NoError(t, err)
	_, err = f.uc.ValidateGaranty(ctx, ValidateGarantyInput{Caller: borrowerB, Guarantor: guarantor, Accept: true})
	require.NoError(t, err)
	_, err = f.uc.FundLoan(ctx, FundLoanInput{Borrower: borrowerB, Funder: lender, Deposit: 100})
	require.NoError(t, err)
}

func eventNames(events []domain.Event) []domain.EventName {
	out := make([]domain.EventName, 0, len(events))
	for _, e := range events {
		out = append(out, e.Name)
	}
	return out
}

func TestLifecycle_Repaid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rc := f.request(t, borrowerB)
	assert.Equal(t, "requested", rc.Loan.State)
	assert.Equal(t, int64(111), rc.Loan.RepaymentAmount.Int64())
	require.Len(t, rc.Events, 1)
	assert.Equal(t, domain.EventLoanRequest, rc.Events[0].Name)

	rc, err := f.uc.ProvideGaranty(ctx, ProvideGarantyInput{Borrower: borrowerB, Guarantor: guarantor, Terms: 7, Deposit: 100})
	require.NoError(t, err)
	assert.Equal(t, "guaranty_pending", rc.Loan.State)
	assert.Equal(t, guarantor, rc.Loan.PendingGuarantor)

	rc, err = f.uc.ValidateGaranty(ctx, ValidateGarantyInput{Borrower: borrowerB, Caller: borrowerB, Guarantor: guarantor, Accept: true})
	require.NoError(t, err)
	assert.Equal(t, "guaranty_validated", rc.Loan.State)

	rc, err = f.uc.FundLoan(ctx, FundLoanInput{Borrower: borrowerB, Funder: lender, Deposit: 100})
	require.NoError(t, err)
	assert.Equal(t, "funded", rc.Loan.State)
	assert.Equal(t, lender, rc.Loan.Funder)

	_, err = f.uc.RepayLoan(ctx, RepayLoanInput{Caller: borrowerB, Deposit: 110})
	require.ErrorIs(t, err, domain.ErrAmountMismatch)

	rc, err = f.uc.RepayLoan(ctx, RepayLoanInput{Caller: borrowerB, Deposit: 111})
	require.NoError(t, err)
	assert.Equal(t, "repaid", rc.Loan.State)
	assert.True(t, rc.Loan.Repaid)

	assert.Equal(t, []domain.EventName{
		domain.EventLoanRequest,
		domain.EventFoundGarantor,
		domain.EventValidateGarantor,
		domain.EventLoanFunded,
		domain.EventLoanRepay,
	}, eventNames(f.pub.Published))

	history, err := f.uc.History(ctx, borrowerB)
	require.NoError(t, err)
	assert.Equal(t, eventNames(f.pub.Published), eventNames(history))

	s, err := f.uc.Escrow(ctx, borrowerB)
	require.NoError(t, err)
	assert.Zero(t, s.Total)
	assert.Equal(t, int64(-11), s.Positions[borrowerB].Int64())
	assert.Equal(t, int64(11), s.Positions[lender].Int64())
	assert.Zero(t, s.Positions[guarantor])

	// the borrower may start over once the record is terminal
	f.request(t, borrowerB)
}

func TestLifecycle_Defaulted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.funded(t)

	_, err := f.uc.ClaimGaranty(ctx, ClaimGarantyInput{Borrower: borrowerB, Caller: lender})
	require.ErrorIs(t, err, domain.ErrNotExpired)

	f.clock.Advance(1000 * time.Second)

	_, err = f.uc.ClaimGaranty(ctx, ClaimGarantyInput{Borrower: borrowerB, Caller: stranger})
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	rc, err := f.uc.ClaimGaranty(ctx, ClaimGarantyInput{Borrower: borrowerB, Caller: lender})
	require.NoError(t, err)
	assert.Equal(t, "defaulted", rc.Loan.State)
	require.Len(t, rc.Events, 1)
	assert.Equal(t, domain.EventGarantyClaimed, rc.Events[0].Name)
	assert.Equal(t, int64(100), rc.Events[0].Amount.Int64())

	_, err = f.uc.RepayLoan(ctx, RepayLoanInput{Caller: borrowerB, Deposit: 111})
	require.ErrorIs(t, err, domain.ErrAlreadyClaimed)
	_, err = f.uc.ClaimGaranty(ctx, ClaimGarantyInput{Borrower: borrowerB, Caller: lender})
	require.ErrorIs(t, err, domain.ErrAlreadyClaimed)

	s, err := f.uc.Escrow(ctx, borrowerB)
	require.NoError(t, err)
	assert.Zero(t, s.Total)
	assert.Equal(t, int64(100), s.Positions[borrowerB].Int64())
	assert.Equal(t, int64(-100), s.Positions[guarantor].Int64())
	assert.Zero(t, s.Positions[lender])
}

func TestRequestLoan_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := f.clock.Now()

	cases := []struct {
		name string
		in   RequestLoanInput
		want error
	}{
		{"zero amount", RequestLoanInput{Borrower: borrowerB, Amount: 0, EndTime: now.Add(time.Hour), InterestRate: 10}, domain.ErrInvalidTerms},
		{"zero rate", RequestLoanInput{Borrower: borrowerB, Amount: 100, EndTime: now.Add(time.Hour), InterestRate: 0}, domain.ErrInvalidTerms},
		{"end in past", RequestLoanInput{Borrower: borrowerB, Amount: 100, EndTime: now, InterestRate: 10}, domain.ErrInvalidTerms},
		{"bad borrower", RequestLoanInput{Borrower: "0xnope", Amount: 100, EndTime: now.Add(time.Hour), InterestRate: 10}, domain.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.uc.RequestLoan(ctx, tc.in)
			require.ErrorIs(t, err, tc.want)
		})
	}

	f.request(t, borrowerB)
	_, err := f.uc.RequestLoan(ctx, RequestLoanInput{Borrower: borrowerB, Amount: 5, EndTime: now.Add(time.Hour), InterestRate: 1})
	require.ErrorIs(t, err, domain.ErrAlreadyActive)

	assert.Contains(t, f.metrics.seen, observation{"request_loan", "already_active"})
	assert.Contains(t, f.metrics.seen, observation{"request_loan", "ok"})
}

func TestProvideGaranty_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.ProvideGaranty(ctx, ProvideGarantyInput{Borrower: borrowerB, Guarantor: guarantor, Deposit: 100})
	require.ErrorIs(t, err, domain.ErrNoSuchLoan)

	f.request(t, borrowerB)

	_, err = f.uc.ProvideGaranty(ctx, ProvideGarantyInput{Borrower: borrowerB, Guarantor: borrowerB, Deposit: 100})
	require.ErrorIs(t, err, domain.ErrSelfGuaranty)

	_, err = f.uc.ProvideGaranty(ctx, ProvideGarantyInput{Borrower: borrowerB, Guarantor: guarantor, Deposit: 99})
	require.ErrorIs(t, err, domain.ErrAmountMismatch)

	_, err = f.uc.ProvideGaranty(ctx, ProvideGarantyInput{Borrower: borrowerB, Guarantor: guarantor, Deposit: 100})
	require.NoError(t, err)

	_, err = f.uc.ProvideGaranty(ctx, ProvideGarantyInput{Borrower: borrowerB, Guarantor: stranger, Deposit: 100})
	require.ErrorIs(t, err, domain.ErrGuarantorAlreadySet)

	// rejected attempts moved nothing
	s, err := f.uc.Escrow(ctx, borrowerB)
	require.NoError(t, err)
	assert.Equal(t, int64(100), s.Total.Int64())
	assert.Len(t, s.Entries, 1)
}

func TestGetGarantor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.GetGarantor(ctx, GetGarantorInput{Borrower: borrowerB, Caller: borrowerB})
	require.ErrorIs(t, err, domain.ErrNoSuchLoan)

	f.request(t, borrowerB)
	_, err = f.uc.GetGarantor(ctx, GetGarantorInput{Borrower: borrowerB, Caller: borrowerB})
	require.ErrorIs(t, err, domain.ErrNoSuchLoan)

	_, err = f.uc.ProvideGaranty(ctx, ProvideGarantyInput{Borrower: borrowerB, Guarantor: guarantor, Terms: 3, Deposit: 100})
	require.NoError(t, err)

	_, err = f.uc.GetGarantor(ctx, GetGarantorInput{Borrower: borrowerB, Caller: stranger})
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	got, err := f.uc.GetGarantor(ctx, GetGarantorInput{Borrower: borrowerB, Caller: borrowerB})
	require.NoError(t, err)
	assert.Equal(t, &GuarantorDTO{Guarantor: guarantor, Deposit: 100, Terms: 3}, got)
}

func TestValidateGaranty_RejectRefunds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.request(t, borrowerB)

	_, err := f.uc.ValidateGaranty(ctx, ValidateGarantyInput{Caller: borrowerB, Guarantor: guarantor, Accept: true})
	require.ErrorIs(t, err, domain.ErrNoSuchLoan)

	_, err = f.uc.ProvideGaranty(ctx, ProvideGarantyInput{Borrower: borrowerB, Guarantor: guarantor, Deposit: 100})
	require.NoError(t, err)

	_, err = f.uc.ValidateGaranty(ctx, ValidateGarantyInput{Borrower: borrowerB, Caller: stranger, Guarantor: guarantor})
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.uc.ValidateGaranty(ctx, ValidateGarantyInput{Caller: borrowerB, Guarantor: stranger, Accept: true})
	require.ErrorIs(t, err, domain.ErrGuarantorMismatch)

	rc, err := f.uc.ValidateGaranty(ctx, ValidateGarantyInput{Caller: borrowerB, Guarantor: guarantor, Accept: false})
	require.NoError(t, err)
	assert.Equal(t, "requested", rc.Loan.State)
	assert.Empty(t, rc.Loan.PendingGuarantor)
	require.Len(t, rc.Events, 1)
	assert.Equal(t, domain.EventGarantorRefund, rc.Events[0].Name)
	assert.Equal(t, guarantor, rc.Events[0].Counterparty)

	s, err := f.uc.Escrow(ctx, borrowerB)
	require.NoError(t, err)
	assert.Zero(t, s.Total)
	assert.Zero(t, s.Positions[guarantor])

	// slot is open again
	_, err = f.uc.ProvideGaranty(ctx, ProvideGarantyInput{Borrower: borrowerB, Guarantor: stranger, Deposit: 100})
	require.NoError(t, err)
	_, err = f.uc.ValidateGaranty(ctx, ValidateGarantyInput{Caller: borrowerB, Guarantor: stranger, Accept: true})
	require.NoError(t, err)
	_, err = f.uc.ValidateGaranty(ctx, ValidateGarantyInput{Caller: borrowerB, Guarantor: stranger, Accept: false})
	require.ErrorIs(t, err, domain.ErrGuarantorAlreadySet)
}

func TestFundLoan_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.FundLoan(ctx, FundLoanInput{Borrower: borrowerB, Funder: lender, Deposit: 100})
	require.ErrorIs(t, err, domain.ErrNoSuchLoan)

	f.request(t, borrowerB)
	_, err = f.uc.FundLoan(ctx, FundLoanInput{Borrower: borrowerB, Funder: lender, Deposit: 100})
	require.ErrorIs(t, err, domain.ErrNotValidated)

	_, err = f.uc.ProvideGaranty(ctx, ProvideGarantyInput{Borrower: borrowerB, Guarantor: guarantor, Deposit: 100})
	require.NoError(t, err)
	_, err = f.uc.FundLoan(ctx, FundLoanInput{Borrower: borrowerB, Funder: lender, Deposit: 100})
	require.ErrorIs(t, err, domain.ErrNotValidated)

	_, err = f.uc.ValidateGaranty(ctx, ValidateGarantyInput{Caller: borrowerB, Guarantor: guarantor, Accept: true})
	require.NoError(t, err)

	_, err = f.uc.FundLoan(ctx, FundLoanInput{Borrower: borrowerB, Funder: lender, Deposit: 101})
	require.ErrorIs(t, err, domain.ErrAmountMismatch)

	_, err = f.uc.FundLoan(ctx, FundLoanInput{Borrower: borrowerB, Funder: lender, Deposit: 100})
	require.NoError(t, err)
	_, err = f.uc.FundLoan(ctx, FundLoanInput{Borrower: borrowerB, Funder: stranger, Deposit: 100})
	require.ErrorIs(t, err, domain.ErrAlreadyFunded)
}

func TestFundLoan_Expired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.request(t, borrowerB)
	_, err := f.uc.ProvideGaranty(ctx, ProvideGarantyInput{Borrower: borrowerB, Guarantor: guarantor, Deposit: 100})
	require.NoError(t, err)
	_, err = f.uc.ValidateGaranty(ctx, ValidateGarantyInput{Caller: borrowerB, Guarantor: guarantor, Accept: true})
	require.NoError(t, err)

	// now == endTime is already expired
	f.clock.Advance(1000 * time.Second)
	_, err = f.uc.FundLoan(ctx, FundLoanInput{Borrower: borrowerB, Funder: lender, Deposit: 100})
	require.ErrorIs(t, err, domain.ErrExpired)
}

func TestRepayLoan_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.RepayLoan(ctx, RepayLoanInput{Caller: borrowerB, Deposit: 111})
	require.ErrorIs(t, err, domain.ErrNoSuchLoan)

	f.request(t, borrowerB)
	_, err = f.uc.RepayLoan(ctx, RepayLoanInput{Caller: borrowerB, Deposit: 111})
	require.ErrorIs(t, err, domain.ErrNotFunded)

	_, err = f.uc.RepayLoan(ctx, RepayLoanInput{Borrower: borrowerB, Caller: stranger, Deposit: 111})
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRepayLoan_AfterExpiryAndTwice(t *testing.T) {
	t.Run("expired", func(t *testing.T) {
		f := newFixture(t)
		f.funded(t)
		f.clock.Advance(2000 * time.Second)
		_, err := f.uc.RepayLoan(context.Background(), RepayLoanInput{Caller: borrowerB, Deposit: 111})
		require.ErrorIs(t, err, domain.ErrExpired)
	})
	t.Run("twice", func(t *testing.T) {
		f := newFixture(t)
		f.funded(t)
		ctx := context.Background()
		_, err := f.uc.RepayLoan(ctx, RepayLoanInput{Caller: borrowerB, Deposit: 111})
		require.NoError(t, err)
		_, err = f.uc.RepayLoan(ctx, RepayLoanInput{Caller: borrowerB, Deposit: 111})
		require.ErrorIs(t, err, domain.ErrAlreadyRepaid)

		f.clock.Advance(2000 * time.Second)
		_, err = f.uc.ClaimGaranty(ctx, ClaimGarantyInput{Borrower: borrowerB, Caller: lender})
		require.ErrorIs(t, err, domain.ErrAlreadyRepaid)
	})
}

func TestClaimGaranty_NotFunded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.ClaimGaranty(ctx, ClaimGarantyInput{Borrower: borrowerB, Caller: lender})
	require.ErrorIs(t, err, domain.ErrNoSuchLoan)

	f.request(t, borrowerB)
	f.clock.Advance(time.Hour)
	_, err = f.uc.ClaimGaranty(ctx, ClaimGarantyInput{Borrower: borrowerB, Caller: lender})
	require.ErrorIs(t, err, domain.ErrNotFunded)
}

func TestListLoansAndAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.funded(t)
	f.request(t, guarantor)
	f.request(t, lender)
	_, err := f.uc.RepayLoan(ctx, RepayLoanInput{Caller: borrowerB, Deposit: 111})
	require.NoError(t, err)

	page, err := f.uc.ListLoans(ctx, ListLoansInput{Limit: 1})
	require.NoError(t, err)
	require.Len(t, page.Loans, 1)
	assert.Equal(t, guarantor, page.Loans[0].Borrower)
	require.NotZero(t, page.NextCursor)

	page, err = f.uc.ListLoans(ctx, ListLoansInput{After: page.NextCursor, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page.Loans, 1)
	assert.Equal(t, lender, page.Loans[0].Borrower)

	var borrowers []string
	for dto, err := range f.uc.All(ctx, domain.ListFilter{Limit: 2, IncludeTerminal: true}) {
		require.NoError(t, err)
		borrowers = append(borrowers, dto.Borrower)
	}
	assert.Equal(t, []string{borrowerB, guarantor, lender}, borrowers)

	n := 0
	for range f.uc.All(ctx, domain.ListFilter{IncludeTerminal: true}) {
		n++
		break
	}
	assert.Equal(t, 1, n)

	got, err := f.uc.Get(ctx, borrowerB)
	require.NoError(t, err)
	assert.Equal(t, "repaid", got.State)
}

func TestAll_YieldsListError(t *testing.T) {
	boom := errors.New("db down")
	uc := NewUsecase(&loanmock.Repo{
		ListFn: func(context.Context, domain.ListFilter) ([]domain.Loan, error) { return nil, boom },
	}, nil)

	var errs []error
	for _, err := range uc.All(context.Background(), domain.ListFilter{}) {
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], boom)
}

func TestPublishFailure_IsLoggedNotReturned(t *testing.T) {
	f := newFixture(t)
	f.pub.Err = errors.New("redis down")

	rc := f.request(t, borrowerB)
	assert.Len(t, rc.Events, 1)

	var warned bool
	for _, e := range f.hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Message == "publish loan events" {
			warned = true
		}
	}
	assert.True(t, warned, "publish failure not logged")
}

func TestStorageFailure_IsInternalAndUnpublished(t *testing.T) {
	boom := errors.New("disk full")
	pub := &loanmock.Publisher{}
	metrics := &recordingMetrics{}
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	live := &domain.Loan{ID: 1, LoanID: "ln-1", Borrower: borrowerB, Amount: 100, InterestRate: 10, EndTime: now.Add(time.Hour)}
	var found bool
	loans := &loanmock.Repo{
		GetLatestByBorrowerForUpdateFn: func(context.Context, string) (*domain.Loan, error) {
			if !found {
				return nil, gorm.ErrRecordNotFound
			}
			return live, nil
		},
	}
	events := &loanmock.Events{AppendFn: func(context.Context, *domain.Event) error { return boom }}
	journal := &escrowmock.Repo{AppendFn: func(context.Context, *escrowDomain.Entry) error { return boom }}
	uc := NewUsecase(loans, uowmock.Passthrough(uow.Repos{Loans: loans, Escrow: journal, Events: events}),
		WithClock(func() time.Time { return now }),
		WithPublisher(pub),
		WithMetrics(metrics),
	)
	ctx := context.Background()

	_, err := uc.RequestLoan(ctx, RequestLoanInput{Borrower: borrowerB, Amount: 100, EndTime: now.Add(time.Hour), InterestRate: 10})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, "internal", domain.Code(err))

	found = true
	_, err = uc.ProvideGaranty(ctx, ProvideGarantyInput{Borrower: borrowerB, Guarantor: guarantor, Terms: 1, Deposit: 100})
	require.ErrorIs(t, err, boom)

	assert.Empty(t, pub.Published)
	assert.Equal(t, []observation{{"request_loan", "internal"}, {"provide_garanty", "internal"}}, metrics.seen)
}

// race runs fn from n goroutines at once and collects their errors.
func race(n int, fn func(i int) error) []error {
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make([]error, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = fn(i)
		}(i)
	}
	close(start)
	wg.Wait()
	return errs
}

func TestRequestLoan_ConcurrentSingleWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	errs := race(8, func(int) error {
		_, err := f.uc.RequestLoan(ctx, RequestLoanInput{
			Borrower:     borrowerB,
			Amount:       100,
			EndTime:      f.clock.Now().Add(time.Hour),
			InterestRate: 10,
		})
		return err
	})

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrAlreadyActive)
	}
	assert.Equal(t, 1, ok)

	page, err := f.uc.ListLoans(ctx, ListLoansInput{IncludeTerminal: true})
	require.NoError(t, err)
	assert.Len(t, page.Loans, 1)
}

func TestProvideGaranty_ConcurrentFirstCommitWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.request(t, borrowerB)

	const n = 8
	errs := race(n, func(i int) error {
		_, err := f.uc.ProvideGaranty(ctx, ProvideGarantyInput{
			Borrower:  borrowerB,
			Guarantor: fmt.Sprintf("0x%040x", 0x100+i),
			Terms:     1,
			Deposit:   100,
		})
		return err
	})

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrGuarantorAlreadySet)
	}
	assert.Equal(t, 1, ok)

	s, err := f.uc.Escrow(ctx, borrowerB)
	require.NoError(t, err)
	assert.Equal(t, int64(100), s.Total.Int64())
	assert.Len(t, s.Entries, 1)

	outcomes := map[string]int{}
	f.metrics.mu.Lock()
	for _, o := range f.metrics.seen {
		if o.op == "provide_garanty" {
			outcomes[o.outcome]++
		}
	}
	f.metrics.mu.Unlock()
	assert.Equal(t, map[string]int{"ok": 1, "guarantor_already_set": n - 1}, outcomes)
}

func TestGetByLoanID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rc := f.request(t, borrowerB)

	got, err := f.uc.GetByLoanID(ctx, strings.ToUpper(rc.Loan.LoanID))
	require.NoError(t, err)
	assert.Equal(t, borrowerB, got.Borrower)
	assert.Equal(t, "requested", got.State)

	_, err = f.uc.GetByLoanID(ctx, strings.Repeat("0", 32))
	assert.ErrorIs(t, err, domain.ErrNoSuchLoan)

	_, err = f.uc.GetByLoanID(ctx, " ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

package loan

import (
	"context"
	"fmt"
	"time"

	"p2p-lending-backend/internal/domain/escrow"
	"p2p-lending-backend/internal/domain/loan"
	"p2p-lending-backend/pkg/address"
)

// FundLoan pays the principal of a guaranteed loan to the borrower.
func (u *Usecase) FundLoan(ctx context.Context, in FundLoanInput) (_ *Receipt, err error) {
	defer u.observe("fund_loan", time.Now(), &err)

	borrower, err := normalize("borrower", in.Borrower)
	if err != nil {
		return nil, err
	}
	funder, err := normalize("funder", in.Funder)
	if err != nil {
		return nil, err
	}

	return u.mutate(ctx, "fund_loan", borrower, func(t *tx, l *loan.Loan) error {
		switch {
		case l.Funded:
			return fmt.Errorf("%w: by %s", loan.ErrAlreadyFunded, l.Funder)
		case !l.HasGuarantor() || !l.GuarantorValidated:
			return loan.ErrNotValidated
		case l.Expired(t.now):
			return fmt.Errorf("%w: ended %s", loan.ErrExpired, l.EndTime.Format(time.RFC3339))
		case in.Deposit != l.Amount:
			return fmt.Errorf("%w: deposit %d, loan amount %d", loan.ErrAmountMismatch, in.Deposit, l.Amount)
		}

		if err := t.escrow.Hold(ctx, l.ID, funder, l.Amount, escrow.PurposePrincipal); err != nil {
			return err
		}
		if err := t.escrow.Release(ctx, l.ID, borrower, l.Amount, escrow.PurposePrincipal); err != nil {
			return err
		}
		l.Funded = true
		l.Funder = funder
		if err := t.save(ctx, l); err != nil {
			return err
		}
		return t.emit(ctx, l, loan.EventLoanFunded, funder, borrower, l.Amount)
	})
}

// RepayLoan settles a funded loan: the repayment goes to the funder and the
// collateral back to the guarantor.
func (u *Usecase) RepayLoan(ctx context.Context, in RepayLoanInput) (_ *Receipt, err error) {
	defer u.observe("repay_loan", time.Now(), &err)

	caller, err := normalize("caller", in.Caller)
	if err != nil {
		return nil, err
	}
	borrower := caller
	if in.Borrower != "" {
		if borrower, err = normalize("borrower", in.Borrower); err != nil {
			return nil, err
		}
	}

	return u.mutate(ctx, "repay_loan", borrower, func(t *tx, l *loan.Loan) error {
		due, err := loan.RepaymentAmount(l.Amount, l.InterestRate)
		if err != nil {
			return err
		}
		switch {
		case !address.Equal(caller, l.Borrower):
			return loan.ErrUnauthorized
		case l.Claimed:
			return loan.ErrAlreadyClaimed
		case l.Repaid:
			return loan.ErrAlreadyRepaid
		case !l.Funded:
			return loan.ErrNotFunded
		case l.Expired(t.now):
			return fmt.Errorf("%w: ended %s", loan.ErrExpired, l.EndTime.Format(time.RFC3339))
		case in.Deposit != due:
			return fmt.Errorf("%w: deposit %d, repayment amount %d", loan.ErrAmountMismatch, in.Deposit, due)
		}

		if err := t.escrow.Hold(ctx, l.ID, l.Borrower, due, escrow.PurposeRepayment); err != nil {
			return err
		}
		if err := t.escrow.Release(ctx, l.ID, l.Funder, due, escrow.PurposeRepayment); err != nil {
			return err
		}
		if err := t.escrow.Release(ctx, l.ID, l.PendingGuarantor, l.GuarantorDeposit, escrow.PurposeCollateral); err != nil {
			return err
		}
		l.Repaid = true
		l.Close()
		if err := t.save(ctx, l); err != nil {
			return err
		}
		return t.emit(ctx, l, loan.EventLoanRepay, l.Borrower, l.Funder, due)
	})
}

// ClaimGaranty hands the collateral of an expired, unpaid loan to its funder.
func (u *Usecase) ClaimGaranty(ctx context.Context, in ClaimGarantyInput) (_ *Receipt, err error) {
	defer u.observe("claim_garanty", time.Now(), &err)

	borrower, err := normalize("borrower", in.Borrower)
	if err != nil {
		return nil, err
	}
	caller, err := normalize("caller", in.Caller)
	if err != nil {
		return nil, err
	}

	return u.mutate(ctx, "claim_garanty", borrower, func(t *tx, l *loan.Loan) error {
		switch {
		case l.Repaid:
			return loan.ErrAlreadyRepaid
		case l.Claimed:
			return loan.ErrAlreadyClaimed
		case !l.Funded:
			return loan.ErrNotFunded
		case !address.Equal(caller, l.Funder):
			return loan.ErrUnauthorized
		case !l.Expired(t.now):
			return fmt.Errorf("%w: ends %s", loan.ErrNotExpired, l.EndTime.Format(time.RFC3339))
		}

		collateral := l.GuarantorDeposit
		if err := t.escrow.Release(ctx, l.ID, caller, collateral, escrow.PurposeCollateral); err != nil {
			return err
		}
		l.Claimed = true
		l.Close()
		if err := t.save(ctx, l); err != nil {
			return err
		}
		return t.emit(ctx, l, loan.EventGarantyClaimed, caller, l.PendingGuarantor, collateral)
	})
}

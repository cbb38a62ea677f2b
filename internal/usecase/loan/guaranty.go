package loan

import (
	"context"
	"fmt"
	"time"

	"p2p-lending-backend/internal/domain/escrow"
	"p2p-lending-backend/internal/domain/loan"
	"p2p-lending-backend/pkg/address"
)

// ProvideGaranty offers collateral for the borrower's live loan. The deposit
// must equal the loan amount and is held in escrow until the loan settles.
func (u *Usecase) ProvideGaranty(ctx context.Context, in ProvideGarantyInput) (_ *Receipt, err error) {
	defer u.observe("provide_garanty", time.Now(), &err)

	borrower, err := normalize("borrower", in.Borrower)
	if err != nil {
		return nil, err
	}
	guarantor, err := normalize("guarantor", in.Guarantor)
	if err != nil {
		return nil, err
	}

	return u.mutate(ctx, "provide_garanty", borrower, func(t *tx, l *loan.Loan) error {
		switch {
		case l.Terminal():
			return fmt.Errorf("%w: borrower %s", loan.ErrNoSuchLoan, borrower)
		case address.Equal(guarantor, l.Borrower):
			return loan.ErrSelfGuaranty
		case l.HasGuarantor():
			return fmt.Errorf("%w: %s", loan.ErrGuarantorAlreadySet, l.PendingGuarantor)
		case in.Deposit != l.Amount:
			return fmt.Errorf("%w: deposit %d, loan amount %d", loan.ErrAmountMismatch, in.Deposit, l.Amount)
		}

		if err := t.escrow.Hold(ctx, l.ID, guarantor, in.Deposit, escrow.PurposeCollateral); err != nil {
			return err
		}
		l.PendingGuarantor = guarantor
		l.GuarantyTerms = in.Terms
		l.GuarantorDeposit = in.Deposit
		l.GuarantorValidated = false
		if err := t.save(ctx, l); err != nil {
			return err
		}
		return t.emit(ctx, l, loan.EventFoundGarantor, guarantor, borrower, in.Deposit)
	})
}

// GetGarantor shows the borrower the guarantor attached to their latest loan.
func (u *Usecase) GetGarantor(ctx context.Context, in GetGarantorInput) (_ *GuarantorDTO, err error) {
	defer u.observe("get_garantor", time.Now(), &err)

	borrower, err := normalize("borrower", in.Borrower)
	if err != nil {
		return nil, err
	}
	l, err := u.latest(ctx, borrower)
	if err != nil {
		return nil, err
	}
	if !address.Equal(in.Caller, l.Borrower) {
		return nil, loan.ErrUnauthorized
	}
	if !l.HasGuarantor() {
		return nil, fmt.Errorf("%w: no guarantor for %s", loan.ErrNoSuchLoan, l.LoanID)
	}
	return &GuarantorDTO{
		Guarantor: l.PendingGuarantor,
		Deposit:   l.GuarantorDeposit,
		Terms:     l.GuarantyTerms,
		Validated: l.GuarantorValidated,
	}, nil
}

// ValidateGaranty lets the borrower accept the pending guarantor, or reject
// it and refund the collateral.
func (u *Usecase) ValidateGaranty(ctx context.Context, in ValidateGarantyInput) (_ *Receipt, err error) {
	defer u.observe("validate_garanty", time.Now(), &err)

	caller, err := normalize("caller", in.Caller)
	if err != nil {
		return nil, err
	}
	if in.Borrower != "" && !address.Equal(in.Borrower, caller) {
		return nil, loan.ErrUnauthorized
	}
	guarantor, err := normalize("guarantor", in.Guarantor)
	if err != nil {
		return nil, err
	}

	op := "validate_garanty"
	return u.mutate(ctx, op, caller, func(t *tx, l *loan.Loan) error {
		switch {
		case l.Terminal():
			return fmt.Errorf("%w: borrower %s", loan.ErrNoSuchLoan, caller)
		case !l.HasGuarantor():
			return fmt.Errorf("%w: no guarantor for %s", loan.ErrNoSuchLoan, l.LoanID)
		case !address.Equal(guarantor, l.PendingGuarantor):
			return loan.ErrGuarantorMismatch
		case l.GuarantorValidated:
			return fmt.Errorf("%w: %s already validated", loan.ErrGuarantorAlreadySet, l.PendingGuarantor)
		}

		if in.Accept {
			l.GuarantorValidated = true
			if err := t.save(ctx, l); err != nil {
				return err
			}
			return t.emit(ctx, l, loan.EventValidateGarantor, caller, guarantor, l.GuarantorDeposit)
		}

		refund := l.GuarantorDeposit
		if err := t.escrow.Release(ctx, l.ID, guarantor, refund, escrow.PurposeCollateral); err != nil {
			return err
		}
		l.ClearGuarantor()
		if err := t.save(ctx, l); err != nil {
			return err
		}
		return t.emit(ctx, l, loan.EventGarantorRefund, caller, guarantor, refund)
	})
}

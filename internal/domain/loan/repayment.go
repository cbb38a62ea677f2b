package loan

import (
	"fmt"
	"time"

	"p2p-lending-backend/pkg/money"
)

// SettlementFeePercent is charged on the principal on top of interest.
const SettlementFeePercent = 1

// RepaymentAmount is what the borrower must attach to repay:
// amount + ceil(amount*interestRate/100) + ceil(amount*SettlementFeePercent/100).
// For 100 at 10% that is 111.
func RepaymentAmount(amount money.Amount, interestRate int64) (money.Amount, error) {
	interest, err := money.PercentCeil(amount, interestRate)
	if err != nil {
		return 0, err
	}
	fee, err := money.PercentCeil(amount, SettlementFeePercent)
	if err != nil {
		return 0, err
	}
	return money.Sum(amount, interest, fee)
}

// ValidateTerms checks the bounds of a new request against now.
func ValidateTerms(amount money.Amount, endTime time.Time, interestRate int64, now time.Time) error {
	if !amount.Positive() {
		return fmt.Errorf("%w: amount must be greater than 0", ErrInvalidTerms)
	}
	if interestRate <= 0 {
		return fmt.Errorf("%w: interest rate must be greater than 0", ErrInvalidTerms)
	}
	if !endTime.After(now) {
		return fmt.Errorf("%w: end time must be in the future", ErrInvalidTerms)
	}
	if _, err := RepaymentAmount(amount, interestRate); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTerms, err)
	}
	return nil
}

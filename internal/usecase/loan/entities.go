package loan

import (
	"time"

	"p2p-lending-backend/internal/domain/loan"
	"p2p-lending-backend/pkg/money"
)

type RequestLoanInput struct {
	Borrower     string       `json:"-"`
	Amount       money.Amount `json:"amount"`
	EndTime      time.Time    `json:"end_time"`
	InterestRate int64        `json:"interest_rate"`
}

type ProvideGarantyInput struct {
	Borrower  string       `json:"-"`
	Guarantor string       `json:"-"` // caller
	Terms     int64        `json:"terms"`
	Deposit   money.Amount `json:"deposit"`
}

type GetGarantorInput struct {
	Borrower string
	Caller   string
}

// ValidateGarantyInput is submitted by the borrower. Borrower is optional;
// when set it must match Caller.
type ValidateGarantyInput struct {
	Borrower  string `json:"-"`
	Caller    string `json:"-"`
	Guarantor string `json:"guarantor"`
	Accept    bool   `json:"accept"`
}

type FundLoanInput struct {
	Borrower string       `json:"-"`
	Funder   string       `json:"-"` // caller
	Deposit  money.Amount `json:"deposit"`
}

type RepayLoanInput struct {
	Borrower string       `json:"-"`
	Caller   string       `json:"-"`
	Deposit  money.Amount `json:"deposit"`
}

type ClaimGarantyInput struct {
	Borrower string `json:"-"`
	Caller   string `json:"-"`
}

type ListLoansInput struct {
	After           uint64
	Limit           int
	IncludeTerminal bool
}

type LoanDTO struct {
	LoanID             string       `json:"loan_id"`
	Borrower           string       `json:"borrower"`
	Amount             money.Amount `json:"amount"`
	EndTime            time.Time    `json:"end_time"`
	InterestRate       int64        `json:"interest_rate"`
	RepaymentAmount    money.Amount `json:"repayment_amount"`
	State              string       `json:"state"`
	PendingGuarantor   string       `json:"pending_guarantor,omitempty"`
	GuarantyTerms      int64        `json:"guaranty_terms,omitempty"`
	GuarantorDeposit   money.Amount `json:"guarantor_deposit,omitempty"`
	GuarantorValidated bool         `json:"guarantor_validated"`
	Funder             string       `json:"funder,omitempty"`
	Funded             bool         `json:"funded"`
	Repaid             bool         `json:"repaid"`
	Claimed            bool         `json:"claimed"`
	StateUpdatedAt     time.Time    `json:"state_updated_at"`
	CreatedAt          time.Time    `json:"created_at"`
}

type GuarantorDTO struct {
	Guarantor string       `json:"guarantor"`
	Deposit   money.Amount `json:"deposit"`
	Terms     int64        `json:"terms"`
	Validated bool         `json:"validated"`
}

// Receipt is the outcome of a committed lifecycle operation.
type Receipt struct {
	Loan   LoanDTO      `json:"loan"`
	Events []loan.Event `json:"events"`
}

type LoanPage struct {
	Loans      []LoanDTO `json:"loans"`
	NextCursor uint64    `json:"next_cursor,omitempty"`
}

func toDTO(l *loan.Loan) LoanDTO {
	// terms are validated on request, so the error only shows for rows written elsewhere
	repay, _ := loan.RepaymentAmount(l.Amount, l.InterestRate)
	return LoanDTO{
		LoanID:             l.LoanID,
		Borrower:           l.Borrower,
		Amount:             l.Amount,
		EndTime:            l.EndTime,
		InterestRate:       l.InterestRate,
		RepaymentAmount:    repay,
		State:              string(l.State()),
		PendingGuarantor:   l.PendingGuarantor,
		GuarantyTerms:      l.GuarantyTerms,
		GuarantorDeposit:   l.GuarantorDeposit,
		GuarantorValidated: l.GuarantorValidated,
		Funder:             l.Funder,
		Funded:             l.Funded,
		Repaid:             l.Repaid,
		Claimed:            l.Claimed,
		StateUpdatedAt:     l.StateUpdatedAt,
		CreatedAt:          l.CreatedAt,
	}
}

package loan

import (
	"time"

	"p2p-lending-backend/pkg/money"
)

type State string

const (
	StateRequested         State = "requested"
	StateGuarantyPending   State = "guaranty_pending"
	StateGuarantyValidated State = "guaranty_validated"
	StateFunded            State = "funded"
	StateRepaid            State = "repaid"
	StateDefaulted         State = "defaulted"
)

// Loan is the ledger record of one borrower's loan. A borrower has at most
// one non-terminal record; terminal records are kept for audit.
type Loan struct {
	ID     uint64 `gorm:"primaryKey;column:id" json:"-"`
	LoanID string `gorm:"size:32;uniqueIndex:ux_loans_loan_id" json:"loan_id"`

	Borrower     string       `gorm:"size:42;not null;index:idx_loans_borrower" json:"borrower"`
	Amount       money.Amount `gorm:"not null" json:"amount"`
	EndTime      time.Time    `gorm:"not null" json:"end_time"`
	InterestRate int64        `gorm:"not null" json:"interest_rate"`

	PendingGuarantor   string       `gorm:"size:42;index:idx_loans_guarantor" json:"pending_guarantor,omitempty"`
	GuarantyTerms      int64        `json:"guaranty_terms"`
	GuarantorDeposit   money.Amount `json:"guarantor_deposit"`
	GuarantorValidated bool         `json:"guarantor_validated"`

	Funder  string `gorm:"size:42" json:"funder,omitempty"`
	Funded  bool   `json:"funded"`
	Repaid  bool   `json:"repaid"`
	Claimed bool   `json:"claimed"`

	// Equals Borrower while the record is live and NULL once terminal;
	// the unique index keeps a single live record per borrower.
	ActiveBorrower *string `gorm:"size:42;uniqueIndex:ux_loans_active_borrower" json:"-"`

	StateUpdatedAt time.Time `json:"state_updated_at"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Loan) TableName() string { return "loans" }

// State derives the lifecycle state from the record flags.
func (l *Loan) State() State {
	switch {
	case l.Claimed:
		return StateDefaulted
	case l.Repaid:
		return StateRepaid
	case l.Funded:
		return StateFunded
	case l.GuarantorValidated:
		return StateGuarantyValidated
	case l.PendingGuarantor != "":
		return StateGuarantyPending
	default:
		return StateRequested
	}
}

func (l *Loan) Terminal() bool { return l.Repaid || l.Claimed }

// Expired reports whether now is at or past the loan's end time.
func (l *Loan) Expired(now time.Time) bool { return !now.Before(l.EndTime) }

func (l *Loan) HasGuarantor() bool { return l.PendingGuarantor != "" }

// Activate marks the record as the borrower's live loan.
func (l *Loan) Activate() {
	b := l.Borrower
	l.ActiveBorrower = &b
}

// Close releases the borrower's live-loan slot after a terminal transition.
func (l *Loan) Close() { l.ActiveBorrower = nil }

// ClearGuarantor resets every guarantor field after a refund.
func (l *Loan) ClearGuarantor() {
	l.PendingGuarantor = ""
	l.GuarantyTerms = 0
	l.GuarantorDeposit = 0
	l.GuarantorValidated = false
}

// ListFilter pages through the ledger in insertion order.
type ListFilter struct {
	AfterID         uint64
	Limit           int
	IncludeTerminal bool
}

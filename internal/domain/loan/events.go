package loan

import (
	"time"

	"p2p-lending-backend/pkg/money"
)

type EventName string

const (
	EventLoanRequest      EventName = "LoanRequest"
	EventFoundGarantor    EventName = "FoundGarantor"
	EventValidateGarantor EventName = "ValidateGarantor"
	EventGarantorRefund   EventName = "GarantorRefund"
	EventLoanFunded       EventName = "LoanFunded"
	EventLoanRepay        EventName = "LoanRepay"
	EventGarantyClaimed   EventName = "GarantyClaimed"
)

// Event is a committed lifecycle notification (table: loan_events).
type Event struct {
	ID           uint64       `gorm:"primaryKey;column:id" json:"-"`
	EventID      string       `gorm:"size:36;uniqueIndex:ux_loan_events_event_id" json:"event_id"`
	Name         EventName    `gorm:"size:32;not null" json:"name"`
	LoanID       uint64       `gorm:"not null;index:idx_loan_events_loan" json:"-"`
	PublicLoanID string       `gorm:"size:32" json:"loan_id"`
	Borrower     string       `gorm:"size:42;not null" json:"borrower"`
	Actor        string       `gorm:"size:42;not null" json:"actor"`
	Counterparty string       `gorm:"size:42" json:"counterparty,omitempty"`
	Amount       money.Amount `json:"amount"`
	OccurredAt   time.Time    `json:"occurred_at"`
}

func (Event) TableName() string { return "loan_events" }

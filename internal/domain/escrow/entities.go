package escrow

import (
	"time"

	"p2p-lending-backend/pkg/money"
)

type Direction string

const (
	DirectionHold    Direction = "hold"
	DirectionRelease Direction = "release"
)

// Purpose tags which claim a movement belongs to.
type Purpose string

const (
	PurposeCollateral Purpose = "collateral"
	PurposePrincipal  Purpose = "principal"
	PurposeRepayment  Purpose = "repayment"
)

// Entry is one append-only movement of value in or out of escrow
// for a loan record (table: escrow_entries).
type Entry struct {
	ID        uint64       `gorm:"primaryKey;column:id" json:"-"`
	LoanID    uint64       `gorm:"column:loan_id;not null;index:idx_escrow_entries_loan" json:"-"`
	Party     string       `gorm:"column:party;size:42;not null" json:"party"`
	Direction Direction    `gorm:"column:direction;size:8;not null" json:"direction"`
	Purpose   Purpose      `gorm:"column:purpose;size:16;not null" json:"purpose"`
	Amount    money.Amount `gorm:"column:amount;not null" json:"amount"`
	CreatedAt time.Time    `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Entry) TableName() string { return "escrow_entries" }

// Summary is the escrow position of a single loan record.
type Summary struct {
	// Currently held, per purpose.
	Held map[Purpose]money.Amount `json:"held"`
	// Sum of Held.
	Total money.Amount `json:"total"`
	// Net per party: released to the party minus held from the party.
	Positions map[string]money.Amount `json:"positions"`
	Entries   []Entry                 `json:"entries"`
}

package mysql

import (
	"p2p-lending-backend/internal/domain/escrow"
	"p2p-lending-backend/internal/domain/loan"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates the loans, escrow_entries and loan_events tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&loan.Loan{}, &escrow.Entry{}, &loan.Event{})
}

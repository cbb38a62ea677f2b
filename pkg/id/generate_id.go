// Package id mints the public identifiers of loans and loan events.
package id

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// NewLoanID returns the public id of a loan record: a v4 UUID rendered as
// 32 lowercase hex characters, so it fits the char(32) loan_id column.
func NewLoanID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// NewEventID returns a v4 UUID in canonical form.
func NewEventID() string { return uuid.NewString() }


package loan

import "errors"

var (
	ErrInvalidInput        = errors.New("loan: invalid input")
	ErrInvalidTerms        = errors.New("loan: invalid terms")
	ErrAlreadyActive       = errors.New("loan: borrower already has an active loan")
	ErrNoSuchLoan          = errors.New("loan: no such loan")
	ErrUnauthorized        = errors.New("loan: caller not authorized")
	ErrSelfGuaranty        = errors.New("loan: borrower cannot guarantee own loan")
	ErrGuarantorAlreadySet = errors.New("loan: guarantor already set")
	ErrGuarantorMismatch   = errors.New("loan: guarantor does not match pending guarantor")
	ErrAmountMismatch      = errors.New("loan: attached value does not match required amount")
	ErrExpired             = errors.New("loan: loan expired")
	ErrNotExpired          = errors.New("loan: loan not expired yet")
	ErrAlreadyFunded       = errors.New("loan: loan already funded")
	ErrAlreadyRepaid       = errors.New("loan: loan already repaid")
	ErrAlreadyClaimed      = errors.New("loan: guaranty already claimed")
	ErrNotFunded           = errors.New("loan: loan not funded")
	ErrNotValidated        = errors.New("loan: guarantor not validated")
)

var codes = []struct {
	err  error
	code string
}{
	{ErrInvalidInput, "invalid_input"},
	{ErrInvalidTerms, "invalid_terms"},
	{ErrAlreadyActive, "already_active"},
	{ErrNoSuchLoan, "no_such_loan"},
	{ErrUnauthorized, "unauthorized"},
	{ErrSelfGuaranty, "self_guaranty"},
	{ErrGuarantorAlreadySet, "guarantor_already_set"},
	{ErrGuarantorMismatch, "guarantor_mismatch"},
	{ErrAmountMismatch, "amount_mismatch"},
	{ErrExpired, "expired"},
	{ErrNotExpired, "not_expired"},
	{ErrAlreadyFunded, "already_funded"},
	{ErrAlreadyRepaid, "already_repaid"},
	{ErrAlreadyClaimed, "already_claimed"},
	{ErrNotFunded, "not_funded"},
	{ErrNotValidated, "not_validated"},
}

// Code returns the stable kind of a domain failure, "ok" for nil and
// "internal" for anything that is not a lifecycle rejection.
func Code(err error) string {
	if err == nil {
		return "ok"
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "internal"
}

// IsRejection reports whether err is one of the lifecycle rejections above.
func IsRejection(err error) bool {
	c := Code(err)
	return c != "ok" && c != "internal"
}

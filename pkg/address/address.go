// Package address normalizes the account identities supplied by the wallet layer.
package address

import (
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInvalid = errors.New("address: not a 20-byte hex account")
	ErrZero    = errors.New("address: zero account")
)

// Normalize validates s and returns its EIP-55 checksummed form.
func Normalize(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return "", ErrInvalid
	}
	a := common.HexToAddress(s)
	if a == (common.Address{}) {
		return "", ErrZero
	}
	return a.Hex(), nil
}

// Valid reports whether s is a usable non-zero account.
func Valid(s string) bool {
	_, err := Normalize(s)
	return err == nil
}

// Equal compares two identities regardless of checksum casing.
func Equal(a, b string) bool {
	if a == "" || b == "" {
		return a == b
	}
	return common.HexToAddress(a) == common.HexToAddress(b)
}


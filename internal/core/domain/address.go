package domain

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

// Address identifies an account, minter, or role holder. It is a
// 0x-prefixed, lowercase, 20-byte hex string.
type Address string

// ZeroAddress is the null address. As a transfer source it stands for
// "mint from nothing"; as a destination, "burn to nothing".
const ZeroAddress Address = "0x0000000000000000000000000000000000000000"

var addressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ParseAddress validates and normalizes an address string.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if !addressRe.MatchString(s) {
		return "", fmt.Errorf("invalid address %q", s)
	}
	return Address(strings.ToLower(s)), nil
}

// MustAddress is ParseAddress for constants and tests.
func MustAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// IsValidAddress reports whether s is a well-formed address.
func IsValidAddress(s string) bool {
	return addressRe.MatchString(strings.TrimSpace(s))
}

// IsZero reports whether a is empty or the null address.
func (a Address) IsZero() bool {
	return a == "" || strings.EqualFold(string(a), string(ZeroAddress))
}

// Bytes returns the 20 raw address bytes. Malformed addresses yield zeros.
func (a Address) Bytes() []byte {
	out := make([]byte, 20)
	if len(a) != 42 {
		return out
	}
	b, err := hex.DecodeString(string(a)[2:])
	if err != nil {
		return out
	}
	copy(out, b)
	return out
}

func (a Address) String() string {
	return string(a)
}

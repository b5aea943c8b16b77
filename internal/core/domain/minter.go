package domain

import "math/big"

// MinterConfig is the per-minter authorization entry. A config exists only
// while Active; removal zeroes every field.
type MinterConfig struct {
	Allowance *big.Int `json:"allowance"`
	CanBurn   bool     `json:"can_burn"`
	Active    bool     `json:"active"`
}

// IsUnlimited reports whether the allowance is the unlimited sentinel.
func (m MinterConfig) IsUnlimited() bool {
	return IsUnlimited(m.Allowance)
}

// Clone returns a copy safe to hand to readers.
func (m MinterConfig) Clone() MinterConfig {
	return MinterConfig{Allowance: Copy(m.Allowance), CanBurn: m.CanBurn, Active: m.Active}
}

// Roles holds the two privileged singleton slots.
type Roles struct {
	Admin    Address `json:"admin"`
	Operator Address `json:"operator"`
}

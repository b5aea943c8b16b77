package domain

import "math/big"

// MaxUint256 is the largest representable amount (2^256 - 1).
var MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// UnlimitedAllowance is the minter allowance sentinel that is never consumed.
var UnlimitedAllowance = MaxUint256

// BPSDenominator is 100% expressed in basis points.
const BPSDenominator = 10000

// IsUnlimited reports whether an allowance equals the unlimited sentinel.
func IsUnlimited(allowance *big.Int) bool {
	return allowance != nil && allowance.Cmp(UnlimitedAllowance) == 0
}

// InRange reports whether v is a non-negative value that fits in 256 bits.
func InRange(v *big.Int) bool {
	return v != nil && v.Sign() >= 0 && v.BitLen() <= 256
}

// IsPositive reports whether v is in range and nonzero.
func IsPositive(v *big.Int) bool {
	return InRange(v) && v.Sign() > 0
}

// Copy returns an independent copy of v, treating nil as zero.
func Copy(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}

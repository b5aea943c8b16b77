package service

import (
	"math/big"

	"schnl-ledger/internal/core/domain"
	"schnl-ledger/pkg/apperror"
	"schnl-ledger/pkg/units"
)

// UsdToLocal converts a USD amount to local units at rate:
// usdAmount * rate / 1e18, truncated toward zero. Both operands carry
// 18 fractional digits.
func UsdToLocal(usdAmount, rate *big.Int, bounds domain.RateBounds) (*big.Int, error) {
	if !domain.IsPositive(usdAmount) {
		return nil, apperror.ErrInvalidAmount()
	}
	if !bounds.Contains(rate) {
		return nil, apperror.ErrInvalidRate(rateString(rate))
	}
	out := new(big.Int).Mul(usdAmount, rate)
	return out.Quo(out, units.One), nil
}

// LocalToUsd is the inverse quote: localAmount * 1e18 / rate, truncated.
func LocalToUsd(localAmount, rate *big.Int, bounds domain.RateBounds) (*big.Int, error) {
	if !domain.IsPositive(localAmount) {
		return nil, apperror.ErrInvalidAmount()
	}
	if !bounds.Contains(rate) {
		return nil, apperror.ErrInvalidRate(rateString(rate))
	}
	out := new(big.Int).Mul(localAmount, units.One)
	return out.Quo(out, rate), nil
}

// WithinTolerance reports whether providedRate lies within toleranceBps of
// oracleRate. The deviation is scaled against the oracle rate:
// |R-P| * 10000 <= R * t. A zero tolerance requires an exact match.
func WithinTolerance(oracleRate, providedRate *big.Int, toleranceBps uint64) bool {
	if toleranceBps == 0 {
		return oracleRate.Cmp(providedRate) == 0
	}
	diff := new(big.Int).Sub(oracleRate, providedRate)
	diff.Abs(diff).Mul(diff, big.NewInt(domain.BPSDenominator))
	limit := new(big.Int).Mul(oracleRate, new(big.Int).SetUint64(toleranceBps))
	return diff.Cmp(limit) <= 0
}

func rateString(rate *big.Int) string {
	if rate == nil {
		return "<nil>"
	}
	return rate.String()
}

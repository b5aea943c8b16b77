package domain

import (
	"math/big"
	"time"
)

// RoundData is one reading of the external rate source.
type RoundData struct {
	RoundID         *big.Int
	Answer          *big.Int // Signed; non-positive answers are rejected
	StartedAt       int64    // Unix seconds
	UpdatedAt       int64    // Unix seconds
	AnsweredInRound *big.Int
}

// OracleState is the gateway's cached view of the last accepted reading.
type OracleState struct {
	Source                Address       `json:"source"`
	SourceDecimals        uint8         `json:"source_decimals"`
	LastAcceptedRate      *big.Int      `json:"last_accepted_rate"`
	LastAcceptedTimestamp int64         `json:"last_accepted_timestamp"`
	ToleranceBps          uint64        `json:"tolerance_bps"`
	MaxStaleness          time.Duration `json:"max_staleness"`
}

// RateBounds limits the rates ConversionMath accepts. Both ends inclusive.
type RateBounds struct {
	Min *big.Int `json:"min"`
	Max *big.Int `json:"max"`
}

// Contains reports whether rate lies within the bounds.
func (b RateBounds) Contains(rate *big.Int) bool {
	if rate == nil || rate.Sign() <= 0 {
		return false
	}
	if b.Min != nil && rate.Cmp(b.Min) < 0 {
		return false
	}
	if b.Max != nil && rate.Cmp(b.Max) > 0 {
		return false
	}
	return true
}

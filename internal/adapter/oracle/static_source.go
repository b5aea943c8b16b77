package oracle

import (
	"context"
	"math/big"
	"sync"
	"time"

	"schnl-ledger/internal/core/domain"
	"schnl-ledger/internal/core/ports"
)

// StaticSource reports a fixed answer stamped with the current time. It
// backs local runs without a live feed.
type StaticSource struct {
	mu       sync.RWMutex
	answer   *big.Int
	decimals uint8
	round    int64
	now      func() time.Time
}

var _ ports.RateSource = (*StaticSource)(nil)

// NewStaticSource creates a source answering answer at decimals.
func NewStaticSource(answer *big.Int, decimals uint8) *StaticSource {
	return &StaticSource{
		answer:   new(big.Int).Set(answer),
		decimals: decimals,
		round:    1,
		now:      time.Now,
	}
}

// Set replaces the answer and starts a new round.
func (s *StaticSource) Set(answer *big.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answer = new(big.Int).Set(answer)
	s.round++
}

func (s *StaticSource) LatestRoundData(context.Context) (domain.RoundData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ts := s.now().Unix()
	return domain.RoundData{
		RoundID:         big.NewInt(s.round),
		Answer:          new(big.Int).Set(s.answer),
		StartedAt:       ts,
		UpdatedAt:       ts,
		AnsweredInRound: big.NewInt(s.round),
	}, nil
}

func (s *StaticSource) Decimals(context.Context) (uint8, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.decimals, nil
}

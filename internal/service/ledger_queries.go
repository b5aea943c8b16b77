package service

import (
	"context"
	"math/big"

	"schnl-ledger/internal/core/domain"
	"schnl-ledger/internal/core/ports"
)

// Read-only views. Each takes the read lock and returns copies, so callers
// observe a committed snapshot.

func (s *LedgerServiceImpl) Account(account domain.Address) ports.AccountView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ports.AccountView{
		Address:     account,
		Balance:     domain.Copy(s.balanceOf(account)),
		Blacklisted: s.compliance.IsBlacklisted(account),
		Frozen:      s.compliance.IsFrozen(account),
	}
}

func (s *LedgerServiceImpl) BalanceOf(account domain.Address) *big.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Copy(s.balanceOf(account))
}

func (s *LedgerServiceImpl) Supply() ports.SupplyStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ports.SupplyStats{
		TotalSupply:       domain.Copy(s.totalSupply),
		SupplyCap:         domain.Copy(s.supplyCap),
		TotalUSDConverted: domain.Copy(s.totalUSDConverted),
		TotalBurned:       domain.Copy(s.totalBurned),
		TotalFrozenWiped:  domain.Copy(s.totalFrozenWiped),
	}
}

func (s *LedgerServiceImpl) Roles() domain.Roles {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roles.Roles()
}

func (s *LedgerServiceImpl) Minter(minter domain.Address) (domain.MinterConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.minters.Get(minter)
}

func (s *LedgerServiceImpl) HasBurnPermission(account domain.Address) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.minters.HasBurnPermission(account)
}

func (s *LedgerServiceImpl) Paused() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.compliance.Paused()
}

func (s *LedgerServiceImpl) OracleState() domain.OracleState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.oracle.State()
}

func (s *LedgerServiceImpl) RateBounds() domain.RateBounds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.RateBounds{Min: copyOrNil(s.bounds.Min), Max: copyOrNil(s.bounds.Max)}
}

// PeekRate reads the oracle without holding the writer lock and without
// touching the cached state.
func (s *LedgerServiceImpl) PeekRate(ctx context.Context) (*big.Int, int64, error) {
	st := s.OracleState()
	return s.oracle.Peek(ctx, st)
}

func (s *LedgerServiceImpl) MintRecord(key domain.RecordKey) (*domain.MintRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.mintRecords[key]
	if !ok {
		return nil, false
	}
	return cloneMintRecord(r), true
}

func (s *LedgerServiceImpl) BurnRecord(key domain.RecordKey) (*domain.BurnRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.burnRecords[key]
	if !ok {
		return nil, false
	}
	return cloneBurnRecord(r), true
}

func (s *LedgerServiceImpl) ComplianceActions(limit int) []domain.ComplianceAction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.compliance.Actions(limit)
}

// Seq returns the sequence number of the last committed entry.
func (s *LedgerServiceImpl) Seq() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seq
}

func (s *LedgerServiceImpl) UsdToLocal(usdAmount, rate *big.Int) (*big.Int, error) {
	return UsdToLocal(usdAmount, rate, s.RateBounds())
}

func (s *LedgerServiceImpl) LocalToUsd(localAmount, rate *big.Int) (*big.Int, error) {
	return LocalToUsd(localAmount, rate, s.RateBounds())
}

// SumBalances totals every account balance. It equals the total supply
// whenever no operation is in flight.
func (s *LedgerServiceImpl) SumBalances() *big.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum := new(big.Int)
	for _, b := range s.balances {
		sum.Add(sum, b)
	}
	return sum
}

package ports

import (
	"context"
	"math/big"
	"time"

	"schnl-ledger/internal/core/domain"
)

// --- External collaborators ---

// RateSource is an external price feed reporting local units per USD.
type RateSource interface {
	LatestRoundData(ctx context.Context) (domain.RoundData, error)
	Decimals(ctx context.Context) (uint8, error)
}

// RateSourceResolver maps a configured source address to a live feed.
type RateSourceResolver interface {
	Resolve(source domain.Address) (RateSource, error)
}

// EventPublisher delivers committed events to downstream consumers.
// Publication is best-effort and happens after commit.
type EventPublisher interface {
	Publish(ctx context.Context, entry *domain.JournalEntry) error
}

// SignatureService handles HMAC-SHA256 signing and verification.
type SignatureService interface {
	Sign(secretKey string, payload string) string
	Verify(secretKey string, payload string, signature string) bool
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(caller domain.Address) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	Caller domain.Address
}

// NonceStore manages nonce uniqueness for replay attack prevention.
type NonceStore interface {
	// CheckAndSet atomically checks if nonce exists, sets it if not.
	// Returns true if nonce is new (valid), false if already used.
	CheckAndSet(ctx context.Context, caller string, nonce string, ttl time.Duration) (bool, error)
}

// AuditService records audit entries without blocking the caller.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}

// --- Service Ports (Business Logic) ---

// MintRequest holds validated input for a mint.
type MintRequest struct {
	Caller       domain.Address
	Recipient    domain.Address
	Amount       *big.Int
	USDAmount    *big.Int
	ProvidedRate *big.Int
}

// BurnRequest holds validated input for a burn.
type BurnRequest struct {
	Caller     domain.Address
	Account    domain.Address
	Amount     *big.Int
	MerchantID string
}

// TransferRequest holds validated input for a transfer. The caller is the
// source account.
type TransferRequest struct {
	Caller domain.Address
	To     domain.Address
	Amount *big.Int
}

// SupplyStats is the read view of the supply counters.
type SupplyStats struct {
	TotalSupply       *big.Int `json:"total_supply"`
	SupplyCap         *big.Int `json:"supply_cap"`
	TotalUSDConverted *big.Int `json:"total_usd_converted"`
	TotalBurned       *big.Int `json:"total_burned"`
	TotalFrozenWiped  *big.Int `json:"total_frozen_wiped"`
}

// AccountView is the read view of one account.
type AccountView struct {
	Address     domain.Address `json:"address"`
	Balance     *big.Int       `json:"balance"`
	Blacklisted bool           `json:"blacklisted"`
	Frozen      bool           `json:"frozen"`
}

// LedgerService is the issuance-and-compliance ledger.
type LedgerService interface {
	Mint(ctx context.Context, req MintRequest) (*domain.MintRecord, error)
	Burn(ctx context.Context, req BurnRequest) (*domain.BurnRecord, error)
	Transfer(ctx context.Context, req TransferRequest) error

	TransferAdmin(ctx context.Context, caller, newAdmin domain.Address) error
	TransferOperator(ctx context.Context, caller, newOperator domain.Address) error
	ConfigureMinter(ctx context.Context, caller, minter domain.Address, allowance *big.Int, canBurn bool) error
	RemoveMinter(ctx context.Context, caller, minter domain.Address) error

	SetBlacklist(ctx context.Context, caller, account domain.Address, blacklisted bool) error
	SetFreeze(ctx context.Context, caller, account domain.Address, reason string) error
	ClearFreeze(ctx context.Context, caller, account domain.Address, reason string) error
	WipeFrozen(ctx context.Context, caller, account domain.Address, caseID string) (*big.Int, error)
	Pause(ctx context.Context, caller domain.Address, reason string) error
	Unpause(ctx context.Context, caller domain.Address, reason string) error

	SetOracleSource(ctx context.Context, caller, source domain.Address) error
	SetToleranceBps(ctx context.Context, caller domain.Address, bps uint64) error
	SetMaxStaleness(ctx context.Context, caller domain.Address, seconds uint64) error
	SetRateBounds(ctx context.Context, caller domain.Address, minRate, maxRate *big.Int) error
	SetSupplyCap(ctx context.Context, caller domain.Address, supplyCap *big.Int) error

	Account(account domain.Address) AccountView
	Supply() SupplyStats
	Roles() domain.Roles
	Paused() bool
	Minter(minter domain.Address) (domain.MinterConfig, bool)
	HasBurnPermission(account domain.Address) bool
	OracleState() domain.OracleState
	RateBounds() domain.RateBounds
	PeekRate(ctx context.Context) (*big.Int, int64, error)
	MintRecord(key domain.RecordKey) (*domain.MintRecord, bool)
	BurnRecord(key domain.RecordKey) (*domain.BurnRecord, bool)
	ComplianceActions(limit int) []domain.ComplianceAction
	UsdToLocal(usdAmount, rate *big.Int) (*big.Int, error)
	LocalToUsd(localAmount, rate *big.Int) (*big.Int, error)
}

package ports

import (
	"context"
	"time"

	"schnl-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// Journal is the append-only log of committed ledger operations.
// Append must be atomic: either the whole entry is durable or nothing is.
type Journal interface {
	Append(ctx context.Context, entry *domain.JournalEntry) error
	// Load returns every entry in sequence order, upgraded to the current
	// schema version.
	Load(ctx context.Context) ([]*domain.JournalEntry, error)
}

// RecordRepository reads the mint and burn audit records projected into SQL.
type RecordRepository interface {
	GetMint(ctx context.Context, key domain.RecordKey) (*domain.MintRecord, error)
	GetBurn(ctx context.Context, key domain.RecordKey) (*domain.BurnRecord, error)
	ListMints(ctx context.Context, params RecordListParams) ([]domain.MintRecord, int64, error)
	ListBurns(ctx context.Context, params RecordListParams) ([]domain.BurnRecord, int64, error)
}

// RecordListParams holds filter + pagination for listing audit records.
type RecordListParams struct {
	Account  *domain.Address // Recipient for mints, source for burns
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

// AuditRepository persists audit logs.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

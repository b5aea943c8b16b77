package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"schnl-ledger/internal/core/domain"
	"schnl-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// JournalRepo implements ports.Journal. Each entry is written together with
// the mint and burn records it carries in one transaction.
type JournalRepo struct {
	pool Pool
	tx   *Transactor
}

var _ ports.Journal = (*JournalRepo)(nil)

// NewJournalRepo creates a new JournalRepo.
func NewJournalRepo(pool Pool) *JournalRepo {
	return &JournalRepo{pool: pool, tx: NewTransactor(pool)}
}

// Append writes entry and its record projections atomically.
func (r *JournalRepo) Append(ctx context.Context, entry *domain.JournalEntry) error {
	events, err := json.Marshal(entry.Events)
	if err != nil {
		return fmt.Errorf("encode journal events: %w", err)
	}
	decoded, err := entry.DecodeEvents()
	if err != nil {
		return err
	}

	return r.tx.InTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO ledger_journal (seq, id, schema_version, operation, actor, events, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			int64(entry.Seq), entry.ID, entry.SchemaVersion, string(entry.Operation),
			entry.Actor.String(), events, entry.At,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return fmt.Errorf("journal sequence %d already written: %w", entry.Seq, err)
			}
			return fmt.Errorf("insert journal entry %d: %w", entry.Seq, err)
		}

		for _, ev := range decoded {
			switch e := ev.(type) {
			case domain.Minted:
				if err := insertMintRecord(ctx, tx, entry.Seq, e.Record); err != nil {
					return err
				}
			case domain.Burned:
				if err := insertBurnRecord(ctx, tx, entry.Seq, e.Record); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func insertMintRecord(ctx context.Context, tx pgx.Tx, seq uint64, rec domain.MintRecord) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO mint_records (key, seq, recipient, amount, usd_amount, rate, oracle_rate, minter, created_at)
		 VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6::numeric, $7::numeric, $8, $9)`,
		string(rec.Key), int64(seq), rec.Recipient.String(),
		rec.Amount.String(), rec.USDAmount.String(), rec.Rate.String(), rec.OracleRate.String(),
		rec.Minter.String(), rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert mint record %s: %w", rec.Key, err)
	}
	return nil
}

func insertBurnRecord(ctx context.Context, tx pgx.Tx, seq uint64, rec domain.BurnRecord) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO burn_records (key, seq, account, amount, merchant_id, burner, created_at)
		 VALUES ($1, $2, $3, $4::numeric, $5, $6, $7)`,
		string(rec.Key), int64(seq), rec.Account.String(), rec.Amount.String(),
		rec.MerchantID, rec.Burner.String(), rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert burn record %s: %w", rec.Key, err)
	}
	return nil
}

// Load returns every entry in sequence order, upgraded to the current
// schema version.
func (r *JournalRepo) Load(ctx context.Context) ([]*domain.JournalEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT seq, id, schema_version, operation, actor, events, created_at
		 FROM ledger_journal ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("load journal: %w", err)
	}
	defer rows.Close()

	var entries []*domain.JournalEntry
	for rows.Next() {
		var (
			seq     int64
			id      uuid.UUID
			version int
			op      string
			actor   string
			events  []byte
			at      time.Time
		)
		if err := rows.Scan(&seq, &id, &version, &op, &actor, &events, &at); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}

		entry := &domain.JournalEntry{
			ID:            id,
			Seq:           uint64(seq),
			SchemaVersion: version,
			Operation:     domain.Operation(op),
			Actor:         domain.Address(actor),
			At:            at.UTC(),
		}
		if err := json.Unmarshal(events, &entry.Events); err != nil {
			return nil, fmt.Errorf("decode events of entry %d: %w", seq, err)
		}
		if err := domain.UpgradeJournalEntry(entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal rows: %w", err)
	}
	return entries, nil
}

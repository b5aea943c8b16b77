package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"schnl-ledger/internal/core/domain"
	"schnl-ledger/internal/core/ports"
	"schnl-ledger/pkg/units"

	"github.com/jackc/pgx/v5"
)

const (
	mintColumns = `key, recipient, amount::text, usd_amount::text, rate::text, oracle_rate::text, minter, created_at`
	burnColumns = `key, account, amount::text, merchant_id, burner, created_at`
)

// RecordRepo implements ports.RecordRepository over the record projections.
type RecordRepo struct {
	pool Pool
}

var _ ports.RecordRepository = (*RecordRepo)(nil)

// NewRecordRepo creates a new RecordRepo.
func NewRecordRepo(pool Pool) *RecordRepo {
	return &RecordRepo{pool: pool}
}

// GetMint fetches a mint record by key. Returns nil, nil when absent.
func (r *RecordRepo) GetMint(ctx context.Context, key domain.RecordKey) (*domain.MintRecord, error) {
	query := `SELECT ` + mintColumns + ` FROM mint_records WHERE key = $1`
	rec, err := scanMint(r.pool.QueryRow(ctx, query, string(key)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get mint record: %w", err)
	}
	return rec, nil
}

// GetBurn fetches a burn record by key. Returns nil, nil when absent.
func (r *RecordRepo) GetBurn(ctx context.Context, key domain.RecordKey) (*domain.BurnRecord, error) {
	query := `SELECT ` + burnColumns + ` FROM burn_records WHERE key = $1`
	rec, err := scanBurn(r.pool.QueryRow(ctx, query, string(key)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get burn record: %w", err)
	}
	return rec, nil
}

// ListMints pages through mint records, newest first.
func (r *RecordRepo) ListMints(ctx context.Context, params ports.RecordListParams) ([]domain.MintRecord, int64, error) {
	where, args := recordFilter("recipient", params)

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM mint_records "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count mint records: %w", err)
	}

	query, args := pageQuery(`SELECT `+mintColumns+` FROM mint_records `+where, args, params)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list mint records: %w", err)
	}
	defer rows.Close()

	var out []domain.MintRecord
	for rows.Next() {
		rec, err := scanMint(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan mint record row: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate mint record rows: %w", err)
	}
	return out, total, nil
}

// ListBurns pages through burn records, newest first.
func (r *RecordRepo) ListBurns(ctx context.Context, params ports.RecordListParams) ([]domain.BurnRecord, int64, error) {
	where, args := recordFilter("account", params)

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM burn_records "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count burn records: %w", err)
	}

	query, args := pageQuery(`SELECT `+burnColumns+` FROM burn_records `+where, args, params)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list burn records: %w", err)
	}
	defer rows.Close()

	var out []domain.BurnRecord
	for rows.Next() {
		rec, err := scanBurn(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan burn record row: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate burn record rows: %w", err)
	}
	return out, total, nil
}

// recordFilter builds the WHERE clause shared by both listings.
func recordFilter(accountColumn string, params ports.RecordListParams) (string, []any) {
	var conditions []string
	var args []any

	if params.Account != nil {
		args = append(args, params.Account.String())
		conditions = append(conditions, fmt.Sprintf("%s = $%d", accountColumn, len(args)))
	}
	if params.From != nil {
		args = append(args, *params.From)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if params.To != nil {
		args = append(args, *params.To)
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

func pageQuery(base string, args []any, params ports.RecordListParams) (string, []any) {
	page, size := params.Page, params.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	n := len(args)
	query := fmt.Sprintf("%s ORDER BY created_at DESC, key LIMIT $%d OFFSET $%d", base, n+1, n+2)
	return query, append(args, size, (page-1)*size)
}

func scanMint(row pgx.Row) (*domain.MintRecord, error) {
	var (
		rec                                 domain.MintRecord
		key, recipient, minter              string
		amount, usdAmount, rate, oracleRate string
	)
	if err := row.Scan(&key, &recipient, &amount, &usdAmount, &rate, &oracleRate, &minter, &rec.Timestamp); err != nil {
		return nil, err
	}
	rec.Key = domain.RecordKey(key)
	rec.Recipient = domain.Address(recipient)
	rec.Minter = domain.Address(minter)
	rec.Timestamp = rec.Timestamp.UTC()

	var err error
	if rec.Amount, err = parseNumeric(amount); err != nil {
		return nil, err
	}
	if rec.USDAmount, err = parseNumeric(usdAmount); err != nil {
		return nil, err
	}
	if rec.Rate, err = parseNumeric(rate); err != nil {
		return nil, err
	}
	if rec.OracleRate, err = parseNumeric(oracleRate); err != nil {
		return nil, err
	}
	return &rec, nil
}

func scanBurn(row pgx.Row) (*domain.BurnRecord, error) {
	var (
		rec                  domain.BurnRecord
		key, account, burner string
		amount               string
	)
	if err := row.Scan(&key, &account, &amount, &rec.MerchantID, &burner, &rec.Timestamp); err != nil {
		return nil, err
	}
	rec.Key = domain.RecordKey(key)
	rec.Account = domain.Address(account)
	rec.Burner = domain.Address(burner)
	rec.Timestamp = rec.Timestamp.UTC()

	var err error
	if rec.Amount, err = parseNumeric(amount); err != nil {
		return nil, err
	}
	return &rec, nil
}

func parseNumeric(s string) (*big.Int, error) {
	v, err := units.ParseBase(s)
	if err != nil {
		return nil, fmt.Errorf("numeric column: %w", err)
	}
	return v, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"schnl-ledger/internal/core/domain"
	"schnl-ledger/internal/core/ports"
	"schnl-ledger/internal/platform/metrics"
	"schnl-ledger/pkg/apperror"

	"github.com/rs/zerolog"
)

// Bootstrap is the configuration applied when the journal is empty.
type Bootstrap struct {
	Admin        domain.Address
	Operator     domain.Address
	SupplyCap    *big.Int
	ToleranceBps uint64
	MaxStaleness uint64 // seconds, zero disables
	MinRate      *big.Int
	MaxRate      *big.Int
	OracleSource domain.Address // optional
}

// LedgerServiceImpl implements ports.LedgerService.
//
// Every mutating call runs under the writer lock: it validates completely,
// builds the resulting events, appends them to the journal and only then
// applies them to memory. A failure at any step leaves state untouched.
type LedgerServiceImpl struct {
	mu sync.RWMutex

	roles      *RoleRegistry
	minters    *MinterRegistry
	compliance *ComplianceRegistry
	oracle     *RateOracleGateway

	balances          map[domain.Address]*big.Int
	totalSupply       *big.Int
	supplyCap         *big.Int
	totalUSDConverted *big.Int
	totalBurned       *big.Int
	totalFrozenWiped  *big.Int
	bounds            domain.RateBounds
	mintRecords       map[domain.RecordKey]*domain.MintRecord
	burnRecords       map[domain.RecordKey]*domain.BurnRecord
	seq               uint64

	journal      ports.Journal
	publisher    ports.EventPublisher
	publishQueue int
	dispatcher   *entryDispatcher
	auditSvc     ports.AuditService
	metrics      *metrics.Metrics
	now          func() time.Time
	log          zerolog.Logger
}

var _ ports.LedgerService = (*LedgerServiceImpl)(nil)

// LedgerOption configures a LedgerServiceImpl.
type LedgerOption func(*LedgerServiceImpl)

// WithPublisher delivers committed entries downstream.
func WithPublisher(p ports.EventPublisher) LedgerOption {
	return func(s *LedgerServiceImpl) { s.publisher = p }
}

// WithPublishQueue bounds the number of committed entries awaiting
// publication. Commits block while the queue is full.
func WithPublishQueue(size int) LedgerOption {
	return func(s *LedgerServiceImpl) { s.publishQueue = size }
}

// WithAuditService persists compliance actions.
func WithAuditService(a ports.AuditService) LedgerOption {
	return func(s *LedgerServiceImpl) { s.auditSvc = a }
}

// WithMetrics records ledger metrics.
func WithMetrics(m *metrics.Metrics) LedgerOption {
	return func(s *LedgerServiceImpl) { s.metrics = m }
}

// WithClock replaces the wall clock used for record timestamps.
func WithClock(now func() time.Time) LedgerOption {
	return func(s *LedgerServiceImpl) { s.now = now }
}

// NewLedgerService creates an empty ledger. Call Restore before serving.
func NewLedgerService(
	roles *RoleRegistry,
	oracle *RateOracleGateway,
	journal ports.Journal,
	log zerolog.Logger,
	opts ...LedgerOption,
) *LedgerServiceImpl {
	s := &LedgerServiceImpl{
		roles:             roles,
		minters:           NewMinterRegistry(roles),
		compliance:        NewComplianceRegistry(roles),
		oracle:            oracle,
		balances:          make(map[domain.Address]*big.Int),
		totalSupply:       new(big.Int),
		supplyCap:         new(big.Int),
		totalUSDConverted: new(big.Int),
		totalBurned:       new(big.Int),
		totalFrozenWiped:  new(big.Int),
		mintRecords:       make(map[domain.RecordKey]*domain.MintRecord),
		burnRecords:       make(map[domain.RecordKey]*domain.BurnRecord),
		journal:           journal,
		now:               time.Now,
		log:               log,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.publisher != nil {
		s.dispatcher = newEntryDispatcher(s.publisher, s.publishQueue, log)
	}
	return s
}

// Close stops publication of new entries and waits until the queued ones
// have been delivered or ctx ends.
func (s *LedgerServiceImpl) Close(ctx context.Context) error {
	if s.dispatcher == nil {
		return nil
	}
	s.mu.Lock()
	s.dispatcher.stop()
	s.mu.Unlock()
	return s.dispatcher.wait(ctx)
}

// Restore replays the journal. An empty journal is bootstrapped from boot.
func (s *LedgerServiceImpl) Restore(ctx context.Context, boot Bootstrap) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.journal.Load(ctx)
	if err != nil {
		return fmt.Errorf("load journal: %w", err)
	}
	for _, entry := range entries {
		if entry.Seq != s.seq+1 {
			return fmt.Errorf("journal gap: expected seq %d, got %d", s.seq+1, entry.Seq)
		}
		events, err := entry.DecodeEvents()
		if err != nil {
			return fmt.Errorf("replay: %w", err)
		}
		s.apply(entry.Meta(), events)
		s.seq = entry.Seq
	}
	if len(entries) > 0 {
		s.log.Info().Uint64("seq", s.seq).Int("entries", len(entries)).Msg("ledger restored from journal")
		s.observeState()
		return nil
	}
	return s.initialize(ctx, boot)
}

func (s *LedgerServiceImpl) initialize(ctx context.Context, boot Bootstrap) error {
	if boot.Admin.IsZero() {
		return apperror.ErrInvalidAddress("admin")
	}
	if boot.Operator.IsZero() {
		return apperror.ErrInvalidAddress("operator")
	}
	if boot.ToleranceBps > domain.BPSDenominator {
		return apperror.ErrInvalidTolerance(boot.ToleranceBps)
	}
	if boot.MaxStaleness > maxStalenessSeconds {
		return apperror.Validation("max staleness is too large")
	}
	if boot.SupplyCap != nil && !domain.InRange(boot.SupplyCap) {
		return apperror.ErrInvalidAmount()
	}
	if err := validateBounds(boot.MinRate, boot.MaxRate); err != nil {
		return err
	}

	genesis := domain.LedgerInitialized{
		Admin:        boot.Admin,
		Operator:     boot.Operator,
		SupplyCap:    domain.Copy(boot.SupplyCap),
		ToleranceBps: boot.ToleranceBps,
		MaxStaleness: boot.MaxStaleness,
		MinRate:      copyOrNil(boot.MinRate),
		MaxRate:      copyOrNil(boot.MaxRate),
	}
	if _, err := s.commit(ctx, domain.OpInitialize, boot.Admin, s.now(), []domain.Event{genesis}); err != nil {
		return err
	}
	s.log.Info().
		Str("admin", boot.Admin.String()).
		Str("operator", boot.Operator.String()).
		Msg("ledger bootstrapped")

	if !boot.OracleSource.IsZero() {
		events, err := s.oracle.SetSource(ctx, boot.Admin, boot.OracleSource)
		if err != nil {
			s.log.Warn().Err(err).Str("source", boot.OracleSource.String()).Msg("bootstrap oracle source rejected")
			return nil
		}
		if _, err := s.commit(ctx, domain.OpSetOracleSource, boot.Admin, s.now(), events); err != nil {
			return err
		}
	}
	return nil
}

// --- Balance operations ---

// Mint issues amount to the recipient against a verified USD inflow.
func (s *LedgerServiceImpl) Mint(ctx context.Context, req ports.MintRequest) (*domain.MintRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.mint(ctx, req)
	if err != nil {
		s.observeRejection(domain.OpMint, err)
		return nil, err
	}
	return record, nil
}

func (s *LedgerServiceImpl) mint(ctx context.Context, req ports.MintRequest) (*domain.MintRecord, error) {
	if err := s.compliance.RequireNotPaused(); err != nil {
		return nil, err
	}
	if req.Recipient.IsZero() {
		return nil, apperror.ErrInvalidAddress("recipient")
	}
	if !domain.IsPositive(req.Amount) || !domain.IsPositive(req.USDAmount) {
		return nil, apperror.ErrInvalidAmount()
	}
	if !domain.InRange(req.ProvidedRate) {
		return nil, apperror.ErrInvalidRate(rateString(req.ProvidedRate))
	}
	if err := s.compliance.CheckAccount(req.Recipient); err != nil {
		return nil, err
	}
	if !s.minters.IsActive(req.Caller) {
		return nil, apperror.ErrNotAuthorizedMinter()
	}

	oracleRate, updatedAt, err := s.oracle.FetchRate(ctx)
	if err != nil {
		return nil, err
	}
	if !s.oracle.WithinTolerance(oracleRate, req.ProvidedRate) {
		return nil, apperror.ErrRateToleranceExceeded(oracleRate.String(), req.ProvidedRate.String())
	}
	// The amount must match the oracle rate, not the provided one.
	expected, err := UsdToLocal(req.USDAmount, oracleRate, s.bounds)
	if err != nil {
		return nil, err
	}
	if expected.Cmp(req.Amount) != 0 {
		return nil, apperror.ErrAmountMismatch(expected.String(), req.Amount.String())
	}

	attempted := new(big.Int).Add(s.totalSupply, req.Amount)
	if s.supplyCap.Sign() > 0 && attempted.Cmp(s.supplyCap) > 0 {
		return nil, apperror.ErrSupplyCapExceeded(s.supplyCap.String(), attempted.String())
	}
	if !domain.InRange(attempted) {
		return nil, apperror.ErrSupplyCapExceeded(domain.MaxUint256.String(), attempted.String())
	}

	allowanceEvents, err := s.minters.ConsumeAllowance(req.Caller, req.Amount)
	if err != nil {
		return nil, err
	}

	at := s.now().UTC().Truncate(time.Second)
	key := domain.MintRecordKey(req.Recipient, req.Amount, req.USDAmount, req.ProvidedRate, at)
	if _, exists := s.mintRecords[key]; exists {
		return nil, apperror.ErrDuplicateRecord(string(key))
	}
	record := domain.MintRecord{
		Key:        key,
		Recipient:  req.Recipient,
		Amount:     domain.Copy(req.Amount),
		USDAmount:  domain.Copy(req.USDAmount),
		Rate:       domain.Copy(req.ProvidedRate),
		OracleRate: oracleRate,
		Minter:     req.Caller,
		Timestamp:  at,
	}

	events := append(allowanceEvents,
		domain.OracleRateAccepted{Rate: domain.Copy(oracleRate), UpdatedAt: updatedAt},
		domain.Minted{Record: record},
	)
	if _, err := s.commit(ctx, domain.OpMint, req.Caller, at, events); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ObserveMint(req.Amount)
	}
	s.log.Info().
		Str("record_key", string(key)).
		Str("recipient", req.Recipient.String()).
		Str("amount", req.Amount.String()).
		Str("usd_amount", req.USDAmount.String()).
		Str("minter", req.Caller.String()).
		Msg("mint processed successfully")

	return cloneMintRecord(&record), nil
}

// Burn destroys amount from account against an off-chain redemption.
// An empty merchant id is accepted.
func (s *LedgerServiceImpl) Burn(ctx context.Context, req ports.BurnRequest) (*domain.BurnRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.burn(ctx, req)
	if err != nil {
		s.observeRejection(domain.OpBurn, err)
		return nil, err
	}
	return record, nil
}

func (s *LedgerServiceImpl) burn(ctx context.Context, req ports.BurnRequest) (*domain.BurnRecord, error) {
	if err := s.compliance.RequireNotPaused(); err != nil {
		return nil, err
	}
	if !s.minters.HasBurnPermission(req.Caller) {
		return nil, apperror.ErrNotAuthorizedMinter()
	}
	if req.Account.IsZero() {
		return nil, apperror.ErrInvalidAddress("account")
	}
	if !domain.IsPositive(req.Amount) {
		return nil, apperror.ErrInvalidAmount()
	}
	balance := s.balanceOf(req.Account)
	if balance.Cmp(req.Amount) < 0 {
		return nil, apperror.ErrInsufficientBalance(balance.String(), req.Amount.String())
	}
	if err := s.compliance.CheckAccount(req.Account); err != nil {
		return nil, err
	}
	if req.MerchantID == "" {
		s.log.Warn().Str("account", req.Account.String()).Msg("burn without merchant id")
	}

	at := s.now().UTC().Truncate(time.Second)
	key := domain.BurnRecordKey(req.Account, req.Amount, req.MerchantID, at)
	if _, exists := s.burnRecords[key]; exists {
		return nil, apperror.ErrDuplicateRecord(string(key))
	}
	record := domain.BurnRecord{
		Key:        key,
		Account:    req.Account,
		Amount:     domain.Copy(req.Amount),
		MerchantID: req.MerchantID,
		Burner:     req.Caller,
		Timestamp:  at,
	}
	if _, err := s.commit(ctx, domain.OpBurn, req.Caller, at, []domain.Event{domain.Burned{Record: record}}); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ObserveBurn(req.Amount)
	}
	s.log.Info().
		Str("record_key", string(key)).
		Str("account", req.Account.String()).
		Str("amount", req.Amount.String()).
		Str("merchant_id", req.MerchantID).
		Msg("burn processed successfully")

	return cloneBurnRecord(&record), nil
}

// Transfer moves amount from the caller to req.To. Zero amounts and
// self-transfers are allowed.
func (s *LedgerServiceImpl) Transfer(ctx context.Context, req ports.TransferRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.transfer(ctx, req)
	if err != nil {
		s.observeRejection(domain.OpTransfer, err)
	}
	return err
}

func (s *LedgerServiceImpl) transfer(ctx context.Context, req ports.TransferRequest) error {
	if err := s.compliance.RequireNotPaused(); err != nil {
		return err
	}
	if req.Caller.IsZero() {
		return apperror.ErrInvalidAddress("from")
	}
	if req.To.IsZero() {
		return apperror.ErrInvalidAddress("to")
	}
	if !domain.InRange(req.Amount) {
		return apperror.ErrInvalidAmount()
	}
	if err := s.compliance.CheckTransfer(req.Caller, req.To); err != nil {
		return err
	}
	balance := s.balanceOf(req.Caller)
	if balance.Cmp(req.Amount) < 0 {
		return apperror.ErrInsufficientBalance(balance.String(), req.Amount.String())
	}

	ev := domain.Transferred{From: req.Caller, To: req.To, Amount: domain.Copy(req.Amount)}
	if _, err := s.commit(ctx, domain.OpTransfer, req.Caller, s.now(), []domain.Event{ev}); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.Transfers.Inc()
	}
	s.log.Info().
		Str("from", req.Caller.String()).
		Str("to", req.To.String()).
		Str("amount", req.Amount.String()).
		Msg("transfer processed successfully")
	return nil
}

// --- Admin operations ---

func (s *LedgerServiceImpl) TransferAdmin(ctx context.Context, caller, newAdmin domain.Address) error {
	return s.command(ctx, domain.OpTransferAdmin, caller, func() ([]domain.Event, error) {
		return s.roles.TransferAdmin(caller, newAdmin)
	})
}

func (s *LedgerServiceImpl) TransferOperator(ctx context.Context, caller, newOperator domain.Address) error {
	return s.command(ctx, domain.OpTransferOperator, caller, func() ([]domain.Event, error) {
		return s.roles.TransferOperator(caller, newOperator)
	})
}

func (s *LedgerServiceImpl) ConfigureMinter(ctx context.Context, caller, minter domain.Address, allowance *big.Int, canBurn bool) error {
	return s.command(ctx, domain.OpConfigureMinter, caller, func() ([]domain.Event, error) {
		return s.minters.ConfigureMinter(caller, minter, allowance, canBurn)
	})
}

func (s *LedgerServiceImpl) RemoveMinter(ctx context.Context, caller, minter domain.Address) error {
	return s.command(ctx, domain.OpRemoveMinter, caller, func() ([]domain.Event, error) {
		return s.minters.RemoveMinter(caller, minter)
	})
}

func (s *LedgerServiceImpl) SetBlacklist(ctx context.Context, caller, account domain.Address, blacklisted bool) error {
	return s.command(ctx, domain.OpSetBlacklist, caller, func() ([]domain.Event, error) {
		return s.compliance.SetBlacklist(caller, account, blacklisted)
	})
}

func (s *LedgerServiceImpl) SetFreeze(ctx context.Context, caller, account domain.Address, reason string) error {
	return s.command(ctx, domain.OpSetFreeze, caller, func() ([]domain.Event, error) {
		return s.compliance.SetFreeze(caller, account, reason)
	})
}

func (s *LedgerServiceImpl) ClearFreeze(ctx context.Context, caller, account domain.Address, reason string) error {
	return s.command(ctx, domain.OpClearFreeze, caller, func() ([]domain.Event, error) {
		return s.compliance.ClearFreeze(caller, account, reason)
	})
}

// WipeFrozen destroys the whole balance of a frozen account under a case
// reference and returns the wiped amount. It counts toward the frozen-wiped
// total, never the burned total.
func (s *LedgerServiceImpl) WipeFrozen(ctx context.Context, caller, account domain.Address, caseID string) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wiped, err := s.wipeFrozen(ctx, caller, account, caseID)
	if err != nil {
		s.observeRejection(domain.OpWipeFrozen, err)
		return nil, err
	}
	return wiped, nil
}

func (s *LedgerServiceImpl) wipeFrozen(ctx context.Context, caller, account domain.Address, caseID string) (*big.Int, error) {
	if err := s.roles.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if account.IsZero() {
		return nil, apperror.ErrInvalidAddress("account")
	}
	if strings.TrimSpace(caseID) == "" {
		return nil, apperror.ErrIncidentReasonRequired()
	}
	if !s.compliance.IsFrozen(account) {
		return nil, apperror.ErrAccountNotFrozen(account.String())
	}
	balance := s.balanceOf(account)
	if balance.Sign() == 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	ev := domain.FrozenFundsWiped{Account: account, Amount: domain.Copy(balance), CaseID: caseID}
	if _, err := s.commit(ctx, domain.OpWipeFrozen, caller, s.now(), []domain.Event{ev}); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ObserveWipe(balance)
	}
	s.log.Warn().
		Str("account", account.String()).
		Str("amount", balance.String()).
		Str("case_id", caseID).
		Msg("frozen balance wiped")
	return domain.Copy(balance), nil
}

func (s *LedgerServiceImpl) Pause(ctx context.Context, caller domain.Address, reason string) error {
	return s.command(ctx, domain.OpPause, caller, func() ([]domain.Event, error) {
		return s.compliance.Pause(caller, reason)
	})
}

func (s *LedgerServiceImpl) Unpause(ctx context.Context, caller domain.Address, reason string) error {
	return s.command(ctx, domain.OpUnpause, caller, func() ([]domain.Event, error) {
		return s.compliance.Unpause(caller, reason)
	})
}

func (s *LedgerServiceImpl) SetOracleSource(ctx context.Context, caller, source domain.Address) error {
	return s.command(ctx, domain.OpSetOracleSource, caller, func() ([]domain.Event, error) {
		return s.oracle.SetSource(ctx, caller, source)
	})
}

func (s *LedgerServiceImpl) SetToleranceBps(ctx context.Context, caller domain.Address, bps uint64) error {
	return s.command(ctx, domain.OpSetToleranceBps, caller, func() ([]domain.Event, error) {
		return s.oracle.SetToleranceBps(caller, bps)
	})
}

func (s *LedgerServiceImpl) SetMaxStaleness(ctx context.Context, caller domain.Address, seconds uint64) error {
	return s.command(ctx, domain.OpSetMaxStaleness, caller, func() ([]domain.Event, error) {
		return s.oracle.SetMaxStaleness(caller, seconds)
	})
}

// SetRateBounds sets the rates conversion accepts. min must be positive and
// not above max.
func (s *LedgerServiceImpl) SetRateBounds(ctx context.Context, caller domain.Address, minRate, maxRate *big.Int) error {
	return s.command(ctx, domain.OpSetRateBounds, caller, func() ([]domain.Event, error) {
		if err := s.roles.RequireAdmin(caller); err != nil {
			return nil, err
		}
		if minRate == nil || maxRate == nil {
			return nil, apperror.ErrInvalidRate("<nil>")
		}
		if err := validateBounds(minRate, maxRate); err != nil {
			return nil, err
		}
		return []domain.Event{domain.RateBoundsUpdated{Min: domain.Copy(minRate), Max: domain.Copy(maxRate)}}, nil
	})
}

// SetSupplyCap sets the supply ceiling. Zero removes it; a nonzero cap
// below the current supply is rejected.
func (s *LedgerServiceImpl) SetSupplyCap(ctx context.Context, caller domain.Address, supplyCap *big.Int) error {
	return s.command(ctx, domain.OpSetSupplyCap, caller, func() ([]domain.Event, error) {
		if err := s.roles.RequireAdmin(caller); err != nil {
			return nil, err
		}
		if !domain.InRange(supplyCap) {
			return nil, apperror.ErrInvalidAmount()
		}
		if supplyCap.Sign() > 0 && supplyCap.Cmp(s.totalSupply) < 0 {
			return nil, apperror.ErrSupplyCapExceeded(supplyCap.String(), s.totalSupply.String())
		}
		return []domain.Event{domain.SupplyCapUpdated{Previous: domain.Copy(s.supplyCap), New: domain.Copy(supplyCap)}}, nil
	})
}

// command runs a registry command under the writer lock and commits its
// events. Commands that yield no events are silent successes.
func (s *LedgerServiceImpl) command(ctx context.Context, op domain.Operation, caller domain.Address, build func() ([]domain.Event, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := build()
	if err != nil {
		s.observeRejection(op, err)
		return err
	}
	if len(events) == 0 {
		s.log.Debug().Str("operation", string(op)).Str("caller", caller.String()).Msg("no state change")
		return nil
	}
	if _, err := s.commit(ctx, op, caller, s.now(), events); err != nil {
		return err
	}
	s.log.Info().Str("operation", string(op)).Str("caller", caller.String()).Msg("admin operation committed")
	return nil
}

// --- Commit & apply ---

// commit journals events and applies them. The caller holds the writer lock.
func (s *LedgerServiceImpl) commit(ctx context.Context, op domain.Operation, actor domain.Address, at time.Time, events []domain.Event) (*domain.JournalEntry, error) {
	entry, err := domain.NewJournalEntry(s.seq+1, op, actor, at, events)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("build journal entry: %w", err))
	}
	if err := s.journal.Append(ctx, entry); err != nil {
		s.log.Error().Err(err).Str("operation", string(op)).Msg("journal append failed")
		return nil, apperror.InternalError(fmt.Errorf("append journal: %w", err))
	}

	s.apply(entry.Meta(), events)
	s.seq = entry.Seq
	s.afterCommit(entry, events)
	return entry, nil
}

func (s *LedgerServiceImpl) apply(meta domain.EventMeta, events []domain.Event) {
	for _, ev := range events {
		s.roles.Apply(ev, meta)
		s.minters.Apply(ev, meta)
		s.compliance.Apply(ev, meta)
		s.oracle.Apply(ev, meta)
		s.applyBalances(ev)
	}
}

func (s *LedgerServiceImpl) applyBalances(ev domain.Event) {
	switch e := ev.(type) {
	case domain.LedgerInitialized:
		s.supplyCap = domain.Copy(e.SupplyCap)
		s.bounds = domain.RateBounds{Min: copyOrNil(e.MinRate), Max: copyOrNil(e.MaxRate)}
	case domain.SupplyCapUpdated:
		s.supplyCap = domain.Copy(e.New)
	case domain.RateBoundsUpdated:
		s.bounds = domain.RateBounds{Min: domain.Copy(e.Min), Max: domain.Copy(e.Max)}
	case domain.Minted:
		r := e.Record
		s.credit(r.Recipient, r.Amount)
		s.totalSupply.Add(s.totalSupply, r.Amount)
		s.totalUSDConverted.Add(s.totalUSDConverted, r.USDAmount)
		s.mintRecords[r.Key] = cloneMintRecord(&r)
	case domain.Burned:
		r := e.Record
		s.debit(r.Account, r.Amount)
		s.totalSupply.Sub(s.totalSupply, r.Amount)
		s.totalBurned.Add(s.totalBurned, r.Amount)
		s.burnRecords[r.Key] = cloneBurnRecord(&r)
	case domain.FrozenFundsWiped:
		s.debit(e.Account, e.Amount)
		s.totalSupply.Sub(s.totalSupply, e.Amount)
		s.totalFrozenWiped.Add(s.totalFrozenWiped, e.Amount)
	case domain.Transferred:
		s.debit(e.From, e.Amount)
		s.credit(e.To, e.Amount)
	}
}

// afterCommit runs best-effort side effects of a committed entry.
func (s *LedgerServiceImpl) afterCommit(entry *domain.JournalEntry, events []domain.Event) {
	s.observeState()

	if s.auditSvc != nil {
		for _, ev := range events {
			action, ok := complianceAction(ev, entry.Meta())
			if !ok {
				continue
			}
			s.auditSvc.Log(context.Background(), domain.AuditLogFromComplianceAction(action, entry.ID.String()))
		}
	}

	// Entries commit under the writer lock, so queue order is seq order.
	if s.dispatcher != nil && !s.dispatcher.enqueue(entry) {
		s.log.Warn().Uint64("seq", entry.Seq).Msg("ledger closed, entry not published")
	}
}

func (s *LedgerServiceImpl) observeState() {
	if s.metrics == nil {
		return
	}
	s.metrics.SetSupply(s.totalSupply)
	s.metrics.SetPaused(s.compliance.Paused())
}

func (s *LedgerServiceImpl) observeRejection(op domain.Operation, err error) {
	if s.metrics == nil {
		return
	}
	code := apperror.CodeInternal
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		code = appErr.Code
	}
	s.metrics.ObserveRejection(string(op), code)
}

func (s *LedgerServiceImpl) balanceOf(account domain.Address) *big.Int {
	if b, ok := s.balances[account]; ok {
		return b
	}
	return new(big.Int)
}

func (s *LedgerServiceImpl) credit(account domain.Address, amount *big.Int) {
	s.balances[account] = new(big.Int).Add(s.balanceOf(account), amount)
}

func (s *LedgerServiceImpl) debit(account domain.Address, amount *big.Int) {
	next := new(big.Int).Sub(s.balanceOf(account), amount)
	if next.Sign() == 0 {
		delete(s.balances, account)
		return
	}
	s.balances[account] = next
}

func validateBounds(minRate, maxRate *big.Int) error {
	if minRate != nil && (minRate.Sign() <= 0 || !domain.InRange(minRate)) {
		return apperror.ErrInvalidRate(minRate.String())
	}
	if maxRate != nil && (maxRate.Sign() <= 0 || !domain.InRange(maxRate)) {
		return apperror.ErrInvalidRate(maxRate.String())
	}
	if minRate != nil && maxRate != nil && minRate.Cmp(maxRate) > 0 {
		return apperror.ErrInvalidRate(maxRate.String()).With("min", minRate.String())
	}
	return nil
}

func copyOrNil(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

func cloneMintRecord(r *domain.MintRecord) *domain.MintRecord {
	c := *r
	c.Amount = domain.Copy(r.Amount)
	c.USDAmount = domain.Copy(r.USDAmount)
	c.Rate = domain.Copy(r.Rate)
	c.OracleRate = domain.Copy(r.OracleRate)
	return &c
}

func cloneBurnRecord(r *domain.BurnRecord) *domain.BurnRecord {
	c := *r
	c.Amount = domain.Copy(r.Amount)
	return &c
}

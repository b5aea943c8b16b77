package service

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"schnl-ledger/internal/adapter/storage/memory"
	"schnl-ledger/internal/core/domain"
	"schnl-ledger/internal/core/ports"
	"schnl-ledger/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testAdmin    = domain.MustAddress("0x00000000000000000000000000000000000000ad")
	testOperator = domain.MustAddress("0x00000000000000000000000000000000000000a0")
	testMinter   = domain.MustAddress("0x000000000000000000000000000000000000a1a1")
	testSource   = domain.MustAddress("0x0000000000000000000000000000000000feed01")
	alice        = domain.MustAddress("0x00000000000000000000000000000000000a11ce")
	bob          = domain.MustAddress("0x0000000000000000000000000000000000000b0b")
	stranger     = domain.MustAddress("0x000000000000000000000000000000000000dead")
)

// e18 returns n whole units in base units.
func e18(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

// scaled returns n * 10^decimals.
func scaled(n int64, decimals int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(decimals), nil))
}

func assertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, expectedCode, appErr.Code)
}

func appErrorDetails(t *testing.T, err error) map[string]string {
	t.Helper()
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	return appErr.Details
}

// --- Clock ---

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Unix(1_700_000_000, 0).UTC()}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// --- Rate source ---

type fakeFeed struct {
	mu       sync.Mutex
	round    domain.RoundData
	decimals uint8
	err      error
	decErr   error
	delay    time.Duration
	calls    int
}

func newFakeFeed(decimals uint8, answer *big.Int, updatedAt int64) *fakeFeed {
	return &fakeFeed{
		decimals: decimals,
		round: domain.RoundData{
			RoundID:         big.NewInt(1),
			Answer:          answer,
			StartedAt:       updatedAt,
			UpdatedAt:       updatedAt,
			AnsweredInRound: big.NewInt(1),
		},
	}
}

func (f *fakeFeed) LatestRoundData(ctx context.Context) (domain.RoundData, error) {
	f.mu.Lock()
	delay, round, err := f.delay, f.round, f.err
	f.calls++
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return domain.RoundData{}, ctx.Err()
		}
	}
	if err != nil {
		return domain.RoundData{}, err
	}
	round.Answer = domain.Copy(round.Answer)
	return round, nil
}

func (f *fakeFeed) Decimals(context.Context) (uint8, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.decimals, f.decErr
}

func (f *fakeFeed) SetRound(mutate func(r *domain.RoundData)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	mutate(&f.round)
}

func (f *fakeFeed) SetAnswer(answer *big.Int) {
	f.SetRound(func(r *domain.RoundData) { r.Answer = answer })
}

func (f *fakeFeed) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeResolver map[domain.Address]ports.RateSource

func (r fakeResolver) Resolve(source domain.Address) (ports.RateSource, error) {
	feed, ok := r[source]
	if !ok {
		return nil, errors.New("unknown rate source")
	}
	return feed, nil
}

// --- Ledger fixture ---

type ledgerFixture struct {
	svc      *LedgerServiceImpl
	feed     *fakeFeed
	resolver fakeResolver
	journal  *memory.Journal
	clock    *testClock
	opts     []LedgerOption
}

// newFixture boots a ledger at tolerance 100 bps and oracle rate 120.0,
// with the feed reporting 8 decimals.
func newFixture(t *testing.T, mutate ...func(*Bootstrap)) *ledgerFixture {
	t.Helper()
	return newFixtureWithOptions(t, nil, mutate...)
}

func newFixtureWithOptions(t *testing.T, opts []LedgerOption, mutate ...func(*Bootstrap)) *ledgerFixture {
	t.Helper()
	clock := newTestClock()
	feed := newFakeFeed(8, scaled(120, 8), clock.Now().Unix()-10)
	f := &ledgerFixture{
		feed:     feed,
		resolver: fakeResolver{testSource: feed},
		journal:  memory.NewJournal(),
		clock:    clock,
		opts:     opts,
	}

	boot := Bootstrap{
		Admin:        testAdmin,
		Operator:     testOperator,
		ToleranceBps: 100,
		MaxStaleness: 3600,
		OracleSource: testSource,
	}
	for _, m := range mutate {
		m(&boot)
	}

	f.svc = f.newLedger()
	require.NoError(t, f.svc.Restore(context.Background(), boot))
	return f
}

// newLedger builds a fresh ledger over the fixture's journal and clock.
func (f *ledgerFixture) newLedger() *LedgerServiceImpl {
	roles := NewRoleRegistry()
	oracle := NewRateOracleGateway(roles, f.resolver, newTestLogger(),
		WithOracleClock(f.clock.Now),
		WithOracleTimeout(200*time.Millisecond),
	)
	opts := append([]LedgerOption{WithClock(f.clock.Now)}, f.opts...)
	return NewLedgerService(roles, oracle, f.journal, newTestLogger(), opts...)
}

// mintAt120 mints usd whole dollars to recipient at the fixture rate.
func (f *ledgerFixture) mintAt120(t *testing.T, caller, recipient domain.Address, usd int64) *domain.MintRecord {
	t.Helper()
	rec, err := f.svc.Mint(context.Background(), ports.MintRequest{
		Caller:       caller,
		Recipient:    recipient,
		Amount:       e18(usd * 120),
		USDAmount:    e18(usd),
		ProvidedRate: e18(120),
	})
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	return rec
}

func (f *ledgerFixture) assertConservation(t *testing.T) {
	t.Helper()
	assert.Equal(t, 0, f.svc.SumBalances().Cmp(f.svc.Supply().TotalSupply),
		"sum of balances %s != total supply %s", f.svc.SumBalances(), f.svc.Supply().TotalSupply)
}

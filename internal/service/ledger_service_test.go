package service

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"schnl-ledger/internal/adapter/storage/memory"
	"schnl-ledger/internal/core/domain"
	"schnl-ledger/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var carol = domain.MustAddress("0x00000000000000000000000000000000000ca201")

// ==================== Bootstrap ====================

func TestLedger_Bootstrap(t *testing.T) {
	f := newFixture(t)

	roles := f.svc.Roles()
	assert.Equal(t, testAdmin, roles.Admin)
	assert.Equal(t, testOperator, roles.Operator)

	cfg, ok := f.svc.Minter(testOperator)
	require.True(t, ok)
	assert.True(t, cfg.Active)
	assert.True(t, cfg.CanBurn)
	assert.True(t, cfg.IsUnlimited())

	st := f.svc.OracleState()
	assert.Equal(t, testSource, st.Source)
	assert.Equal(t, uint8(8), st.SourceDecimals)
	assert.Equal(t, uint64(100), st.ToleranceBps)
	assert.Equal(t, time.Hour, st.MaxStaleness)

	assert.False(t, f.svc.Paused())
	assert.Equal(t, uint64(2), f.svc.Seq())
	assert.Equal(t, 2, f.journal.Len())
	assert.Equal(t, 0, f.svc.Supply().TotalSupply.Sign())
}

func TestLedger_Bootstrap_UnreachableSourceLeavesOracleUnset(t *testing.T) {
	f := newFixture(t, func(b *Bootstrap) { b.OracleSource = stranger })

	assert.True(t, f.svc.OracleState().Source.IsZero())
	assert.Equal(t, uint64(1), f.svc.Seq())

	_, err := f.svc.Mint(context.Background(), ports.MintRequest{
		Caller: testOperator, Recipient: alice,
		Amount: e18(12000), USDAmount: e18(100), ProvidedRate: e18(120),
	})
	assertAppError(t, err, "ORC_001")
}

func TestLedger_Bootstrap_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Bootstrap)
		code   string
	}{
		{"zero admin", func(b *Bootstrap) { b.Admin = domain.ZeroAddress }, "VAL_001"},
		{"zero operator", func(b *Bootstrap) { b.Operator = domain.ZeroAddress }, "VAL_001"},
		{"tolerance above 100%", func(b *Bootstrap) { b.ToleranceBps = 10001 }, "VAL_005"},
		{"min rate above max", func(b *Bootstrap) { b.MinRate, b.MaxRate = e18(200), e18(100) }, "VAL_004"},
		{"zero min rate", func(b *Bootstrap) { b.MinRate = new(big.Int) }, "VAL_004"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed := newFakeFeed(8, scaled(120, 8), 1)
			f := &ledgerFixture{
				feed:     feed,
				resolver: fakeResolver{testSource: feed},
				journal:  memory.NewJournal(),
				clock:    newTestClock(),
			}
			svc := f.newLedger()

			boot := Bootstrap{Admin: testAdmin, Operator: testOperator, ToleranceBps: 100, OracleSource: testSource}
			tt.mutate(&boot)

			err := svc.Restore(context.Background(), boot)
			assertAppError(t, err, tt.code)
			assert.Equal(t, 0, f.journal.Len())
		})
	}
}

// ==================== Mint ====================

func TestLedger_Mint_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.ConfigureMinter(ctx, testAdmin, testMinter, e18(50000), false))

	rec, err := f.svc.Mint(ctx, ports.MintRequest{
		Caller:       testMinter,
		Recipient:    alice,
		Amount:       e18(12000),
		USDAmount:    e18(100),
		ProvidedRate: e18(120),
	})
	require.NoError(t, err)

	assert.Equal(t, alice, rec.Recipient)
	assert.Equal(t, testMinter, rec.Minter)
	assert.Equal(t, e18(12000), rec.Amount)
	assert.Equal(t, e18(120), rec.OracleRate)
	assert.Equal(t, f.clock.Now().Truncate(time.Second), rec.Timestamp)
	assert.Equal(t, domain.MintRecordKey(alice, e18(12000), e18(100), e18(120), rec.Timestamp), rec.Key)

	stored, ok := f.svc.MintRecord(rec.Key)
	require.True(t, ok)
	assert.Equal(t, rec, stored)

	assert.Equal(t, e18(12000), f.svc.BalanceOf(alice))
	supply := f.svc.Supply()
	assert.Equal(t, e18(12000), supply.TotalSupply)
	assert.Equal(t, e18(100), supply.TotalUSDConverted)

	cfg, _ := f.svc.Minter(testMinter)
	assert.Equal(t, e18(38000), cfg.Allowance)

	st := f.svc.OracleState()
	assert.Equal(t, e18(120), st.LastAcceptedRate)
	assert.Equal(t, f.clock.Now().Unix()-10, st.LastAcceptedTimestamp)
	f.assertConservation(t)
}

func TestLedger_Mint_ReturnedRecordIsACopy(t *testing.T) {
	f := newFixture(t)
	rec := f.mintAt120(t, testOperator, alice, 100)

	rec.Amount.SetInt64(1)
	stored, ok := f.svc.MintRecord(rec.Key)
	require.True(t, ok)
	assert.Equal(t, e18(12000), stored.Amount)
}

func TestLedger_Mint_AmountCheckedAgainstOracleRate(t *testing.T) {
	tests := []struct {
		name         string
		amount       *big.Int
		providedRate *big.Int
		code         string
	}{
		{"exact amount at oracle rate", e18(12000), e18(120), ""},
		{"amount within 1% is still a mismatch", e18(12100), e18(120), "ECO_004"},
		{"provided rate within tolerance, amount at provided rate", e18(12100), e18(121), "ECO_004"},
		{"provided rate within tolerance, amount at oracle rate", e18(12000), e18(121), ""},
		{"provided rate exactly at 1%", e18(12000), scaled(1212, 17), ""},
		{"provided rate just past 1%", e18(12000), scaled(12121, 16), "ORC_004"},
		{"provided rate below by more than 1%", e18(12000), e18(118), "ORC_004"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.Mint(context.Background(), ports.MintRequest{
				Caller:       testOperator,
				Recipient:    alice,
				Amount:       tt.amount,
				USDAmount:    e18(100),
				ProvidedRate: tt.providedRate,
			})
			if tt.code == "" {
				require.NoError(t, err)
				assert.Equal(t, e18(12000), f.svc.BalanceOf(alice))
				return
			}
			assertAppError(t, err, tt.code)
			assert.Equal(t, 0, f.svc.Supply().TotalSupply.Sign())
		})
	}
}

func TestLedger_Mint_AmountMismatchCarriesExpected(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Mint(context.Background(), ports.MintRequest{
		Caller: testOperator, Recipient: alice,
		Amount: e18(12100), USDAmount: e18(100), ProvidedRate: e18(120),
	})
	assertAppError(t, err, "ECO_004")
	details := appErrorDetails(t, err)
	assert.Equal(t, e18(12000).String(), details["expected"])
	assert.Equal(t, e18(12100).String(), details["provided"])
}

func TestLedger_Mint_ToleranceLimits(t *testing.T) {
	tests := []struct {
		name         string
		toleranceBps uint64
		providedRate *big.Int
		code         string
	}{
		{"zero tolerance exact", 0, e18(120), ""},
		{"zero tolerance off by one unit", 0, new(big.Int).Add(e18(120), big.NewInt(1)), "ORC_004"},
		{"full tolerance doubles", 10000, e18(240), ""},
		{"full tolerance past double", 10000, new(big.Int).Add(e18(240), big.NewInt(1)), "ORC_004"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			require.NoError(t, f.svc.SetToleranceBps(ctx, testAdmin, tt.toleranceBps))

			_, err := f.svc.Mint(ctx, ports.MintRequest{
				Caller: testOperator, Recipient: alice,
				Amount: e18(12000), USDAmount: e18(100), ProvidedRate: tt.providedRate,
			})
			if tt.code == "" {
				require.NoError(t, err)
				return
			}
			assertAppError(t, err, tt.code)
		})
	}
}

func TestLedger_Mint_SupplyCap(t *testing.T) {
	f := newFixture(t, func(b *Bootstrap) { b.SupplyCap = big.NewInt(1_000_000) })
	f.feed.SetAnswer(scaled(1, 8)) // 1.0
	ctx := context.Background()

	mint := func(amount int64) error {
		defer f.clock.Advance(time.Second)
		_, err := f.svc.Mint(ctx, ports.MintRequest{
			Caller:       testOperator,
			Recipient:    alice,
			Amount:       big.NewInt(amount),
			USDAmount:    big.NewInt(amount),
			ProvidedRate: e18(1),
		})
		return err
	}

	require.NoError(t, mint(999_999))

	err := mint(2)
	assertAppError(t, err, "ECO_002")
	details := appErrorDetails(t, err)
	assert.Equal(t, "1000000", details["cap"])
	assert.Equal(t, "1000001", details["attempted"])
	assert.Equal(t, big.NewInt(999_999), f.svc.Supply().TotalSupply)

	require.NoError(t, mint(1))
	assert.Equal(t, big.NewInt(1_000_000), f.svc.Supply().TotalSupply)
	assertAppError(t, mint(1), "ECO_002")
}

func TestLedger_Mint_Uint256Overflow(t *testing.T) {
	f := newFixture(t)
	f.feed.SetAnswer(scaled(1, 8))
	ctx := context.Background()

	_, err := f.svc.Mint(ctx, ports.MintRequest{
		Caller: testOperator, Recipient: alice,
		Amount: domain.MaxUint256, USDAmount: domain.MaxUint256, ProvidedRate: e18(1),
	})
	require.NoError(t, err)
	f.clock.Advance(time.Second)

	_, err = f.svc.Mint(ctx, ports.MintRequest{
		Caller: testOperator, Recipient: bob,
		Amount: big.NewInt(1), USDAmount: big.NewInt(1), ProvidedRate: e18(1),
	})
	assertAppError(t, err, "ECO_002")
	assert.Equal(t, domain.MaxUint256.String(), appErrorDetails(t, err)["cap"])
}

func TestLedger_Mint_AllowanceMonotonic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.ConfigureMinter(ctx, testAdmin, testMinter, e18(24000), false))

	f.mintAt120(t, testMinter, alice, 100)
	cfg, _ := f.svc.Minter(testMinter)
	assert.Equal(t, e18(12000), cfg.Allowance)

	f.mintAt120(t, testMinter, alice, 100)
	cfg, _ = f.svc.Minter(testMinter)
	assert.Equal(t, 0, cfg.Allowance.Sign())
	assert.True(t, cfg.Active)

	_, err := f.svc.Mint(ctx, ports.MintRequest{
		Caller: testMinter, Recipient: alice,
		Amount: e18(120), USDAmount: e18(1), ProvidedRate: e18(120),
	})
	assertAppError(t, err, "ECO_001")
	details := appErrorDetails(t, err)
	assert.Equal(t, "0", details["allowance"])
	assert.Equal(t, e18(120).String(), details["requested"])
}

func TestLedger_Mint_UnlimitedAllowanceNeverDecrements(t *testing.T) {
	f := newFixture(t)
	f.mintAt120(t, testOperator, alice, 1000)

	cfg, ok := f.svc.Minter(testOperator)
	require.True(t, ok)
	assert.Equal(t, domain.UnlimitedAllowance, cfg.Allowance)
}

func TestLedger_Mint_RemovedMinterRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.ConfigureMinter(ctx, testAdmin, testMinter, e18(50000), true))
	require.NoError(t, f.svc.RemoveMinter(ctx, testAdmin, testMinter))

	_, err := f.svc.Mint(ctx, ports.MintRequest{
		Caller: testMinter, Recipient: alice,
		Amount: e18(12000), USDAmount: e18(100), ProvidedRate: e18(120),
	})
	assertAppError(t, err, "AUTH_002")
	assert.False(t, f.svc.HasBurnPermission(testMinter))
}

func TestLedger_Mint_CheckOrder(t *testing.T) {
	valid := func() ports.MintRequest {
		return ports.MintRequest{
			Caller: testOperator, Recipient: alice,
			Amount: e18(12000), USDAmount: e18(100), ProvidedRate: e18(120),
		}
	}

	tests := []struct {
		name   string
		setup  func(t *testing.T, f *ledgerFixture)
		mutate func(r *ports.MintRequest)
		code   string
	}{
		{
			name: "pause first",
			setup: func(t *testing.T, f *ledgerFixture) {
				require.NoError(t, f.svc.Pause(context.Background(), testAdmin, "incident"))
			},
			mutate: func(r *ports.MintRequest) { r.Recipient = domain.ZeroAddress; r.Caller = stranger },
			code:   "CMP_001",
		},
		{
			name:   "null recipient before amount",
			mutate: func(r *ports.MintRequest) { r.Recipient = domain.ZeroAddress; r.Amount = new(big.Int) },
			code:   "VAL_001",
		},
		{
			name:   "zero amount",
			mutate: func(r *ports.MintRequest) { r.Amount = new(big.Int) },
			code:   "VAL_002",
		},
		{
			name:   "zero usd amount",
			mutate: func(r *ports.MintRequest) { r.USDAmount = new(big.Int) },
			code:   "VAL_002",
		},
		{
			name:   "missing provided rate",
			mutate: func(r *ports.MintRequest) { r.ProvidedRate = nil },
			code:   "VAL_004",
		},
		{
			name: "blacklisted recipient before minter auth",
			setup: func(t *testing.T, f *ledgerFixture) {
				require.NoError(t, f.svc.SetBlacklist(context.Background(), testAdmin, alice, true))
			},
			mutate: func(r *ports.MintRequest) { r.Caller = stranger },
			code:   "CMP_003",
		},
		{
			name: "frozen recipient",
			setup: func(t *testing.T, f *ledgerFixture) {
				require.NoError(t, f.svc.SetFreeze(context.Background(), testAdmin, alice, "case-1"))
			},
			code: "CMP_004",
		},
		{
			name:   "not a minter",
			mutate: func(r *ports.MintRequest) { r.Caller = stranger },
			code:   "AUTH_002",
		},
		{
			name:   "minter auth before oracle read",
			setup:  func(t *testing.T, f *ledgerFixture) { f.feed.SetAnswer(new(big.Int)) },
			mutate: func(r *ports.MintRequest) { r.Caller = stranger },
			code:   "AUTH_002",
		},
		{
			name:  "oracle read before tolerance",
			setup: func(t *testing.T, f *ledgerFixture) { f.feed.SetAnswer(new(big.Int)) },
			mutate: func(r *ports.MintRequest) {
				r.ProvidedRate = e18(1000)
			},
			code: "ORC_002",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.setup != nil {
				tt.setup(t, f)
			}
			req := valid()
			if tt.mutate != nil {
				tt.mutate(&req)
			}
			seq := f.svc.Seq()

			_, err := f.svc.Mint(context.Background(), req)
			assertAppError(t, err, tt.code)
			assert.Equal(t, seq, f.svc.Seq(), "rejected mint must not journal")
			assert.Equal(t, 0, f.svc.Supply().TotalSupply.Sign())
		})
	}
}

func TestLedger_Mint_RateBounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.SetRateBounds(ctx, testAdmin, e18(1), e18(100)))

	_, err := f.svc.Mint(ctx, ports.MintRequest{
		Caller: testOperator, Recipient: alice,
		Amount: e18(12000), USDAmount: e18(100), ProvidedRate: e18(120),
	})
	assertAppError(t, err, "VAL_004")

	require.NoError(t, f.svc.SetRateBounds(ctx, testAdmin, e18(100), e18(150)))
	f.mintAt120(t, testOperator, alice, 100)
	assert.Equal(t, e18(12000), f.svc.BalanceOf(alice))
}

func TestLedger_Mint_DuplicateRecordRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.ConfigureMinter(ctx, testAdmin, testMinter, e18(50000), false))

	req := ports.MintRequest{
		Caller: testMinter, Recipient: alice,
		Amount: e18(12000), USDAmount: e18(100), ProvidedRate: e18(120),
	}
	_, err := f.svc.Mint(ctx, req)
	require.NoError(t, err)

	_, err = f.svc.Mint(ctx, req)
	assertAppError(t, err, "ECO_005")
	assert.Equal(t, "1s", appErrorDetails(t, err)["timestamp_resolution"])

	// Record timestamps are whole seconds.
	f.clock.Advance(500 * time.Millisecond)
	_, err = f.svc.Mint(ctx, req)
	assertAppError(t, err, "ECO_005")

	cfg, _ := f.svc.Minter(testMinter)
	assert.Equal(t, e18(38000), cfg.Allowance, "rejected mint must not consume allowance")
	assert.Equal(t, e18(12000), f.svc.Supply().TotalSupply)

	f.clock.Advance(500 * time.Millisecond)
	_, err = f.svc.Mint(ctx, req)
	require.NoError(t, err)
}

func TestLedger_Mint_JournalFailureLeavesStateUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.ConfigureMinter(ctx, testAdmin, testMinter, e18(50000), false))
	seq := f.svc.Seq()

	f.journal.FailWith(errors.New("disk full"))
	_, err := f.svc.Mint(ctx, ports.MintRequest{
		Caller: testMinter, Recipient: alice,
		Amount: e18(12000), USDAmount: e18(100), ProvidedRate: e18(120),
	})
	assertAppError(t, err, "SYS_001")

	assert.Equal(t, seq, f.svc.Seq())
	assert.Equal(t, 0, f.svc.BalanceOf(alice).Sign())
	assert.Equal(t, 0, f.svc.Supply().TotalSupply.Sign())
	cfg, _ := f.svc.Minter(testMinter)
	assert.Equal(t, e18(50000), cfg.Allowance)
	assert.Equal(t, 0, f.svc.OracleState().LastAcceptedRate.Sign())

	f.journal.FailWith(nil)
	f.mintAt120(t, testMinter, alice, 100)
	assert.Equal(t, e18(12000), f.svc.BalanceOf(alice))
}

// ==================== Burn ====================

func TestLedger_Burn_Success(t *testing.T) {
	f := newFixture(t)
	f.mintAt120(t, testOperator, alice, 100)

	rec, err := f.svc.Burn(context.Background(), ports.BurnRequest{
		Caller: testOperator, Account: alice, Amount: e18(2000), MerchantID: "merchant-7",
	})
	require.NoError(t, err)
	assert.Equal(t, alice, rec.Account)
	assert.Equal(t, testOperator, rec.Burner)
	assert.Equal(t, "merchant-7", rec.MerchantID)
	assert.Equal(t, domain.BurnRecordKey(alice, e18(2000), "merchant-7", rec.Timestamp), rec.Key)

	stored, ok := f.svc.BurnRecord(rec.Key)
	require.True(t, ok)
	assert.Equal(t, rec, stored)

	assert.Equal(t, e18(10000), f.svc.BalanceOf(alice))
	supply := f.svc.Supply()
	assert.Equal(t, e18(10000), supply.TotalSupply)
	assert.Equal(t, e18(2000), supply.TotalBurned)
	assert.Equal(t, 0, supply.TotalFrozenWiped.Sign())
	f.assertConservation(t)
}

func TestLedger_Burn_EmptyMerchantAccepted(t *testing.T) {
	f := newFixture(t)
	f.mintAt120(t, testOperator, alice, 100)

	rec, err := f.svc.Burn(context.Background(), ports.BurnRequest{
		Caller: testOperator, Account: alice, Amount: e18(12000),
	})
	require.NoError(t, err)
	assert.Empty(t, rec.MerchantID)
	assert.Equal(t, 0, f.svc.BalanceOf(alice).Sign())
}

func TestLedger_Burn_Permission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mintAt120(t, testOperator, alice, 100)
	burn := func(caller domain.Address) error {
		_, err := f.svc.Burn(ctx, ports.BurnRequest{Caller: caller, Account: alice, Amount: e18(1), MerchantID: "m"})
		f.clock.Advance(time.Second)
		return err
	}

	assertAppError(t, burn(stranger), "AUTH_002")

	require.NoError(t, f.svc.ConfigureMinter(ctx, testAdmin, testMinter, e18(1000), false))
	assertAppError(t, burn(testMinter), "AUTH_002")

	require.NoError(t, f.svc.ConfigureMinter(ctx, testAdmin, testMinter, e18(1000), true))
	require.NoError(t, burn(testMinter))

	// The admin role alone grants nothing.
	assertAppError(t, burn(testAdmin), "AUTH_002")
}

func TestLedger_Burn_CheckOrder(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, f *ledgerFixture)
		req   ports.BurnRequest
		code  string
	}{
		{
			name: "pause first",
			setup: func(t *testing.T, f *ledgerFixture) {
				require.NoError(t, f.svc.Pause(context.Background(), testAdmin, "incident"))
			},
			req:  ports.BurnRequest{Caller: stranger, Account: domain.ZeroAddress},
			code: "CMP_001",
		},
		{
			name: "permission before account",
			req:  ports.BurnRequest{Caller: stranger, Account: domain.ZeroAddress, Amount: e18(1)},
			code: "AUTH_002",
		},
		{
			name: "null account",
			req:  ports.BurnRequest{Caller: testOperator, Account: domain.ZeroAddress, Amount: e18(1)},
			code: "VAL_001",
		},
		{
			name: "zero amount",
			req:  ports.BurnRequest{Caller: testOperator, Account: alice, Amount: new(big.Int)},
			code: "VAL_002",
		},
		{
			name: "balance before blacklist",
			setup: func(t *testing.T, f *ledgerFixture) {
				require.NoError(t, f.svc.SetBlacklist(context.Background(), testAdmin, alice, true))
			},
			req:  ports.BurnRequest{Caller: testOperator, Account: alice, Amount: e18(12001)},
			code: "ECO_003",
		},
		{
			name: "blacklisted account",
			setup: func(t *testing.T, f *ledgerFixture) {
				require.NoError(t, f.svc.SetBlacklist(context.Background(), testAdmin, alice, true))
			},
			req:  ports.BurnRequest{Caller: testOperator, Account: alice, Amount: e18(1)},
			code: "CMP_003",
		},
		{
			name: "frozen account",
			setup: func(t *testing.T, f *ledgerFixture) {
				require.NoError(t, f.svc.SetFreeze(context.Background(), testAdmin, alice, "case-1"))
			},
			req:  ports.BurnRequest{Caller: testOperator, Account: alice, Amount: e18(1)},
			code: "CMP_004",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.mintAt120(t, testOperator, alice, 100)
			if tt.setup != nil {
				tt.setup(t, f)
			}

			_, err := f.svc.Burn(context.Background(), tt.req)
			assertAppError(t, err, tt.code)
			assert.Equal(t, e18(12000), f.svc.BalanceOf(alice))
			assert.Equal(t, 0, f.svc.Supply().TotalBurned.Sign())
		})
	}
}

func TestLedger_Burn_InsufficientBalanceDetails(t *testing.T) {
	f := newFixture(t)
	f.mintAt120(t, testOperator, alice, 1)

	_, err := f.svc.Burn(context.Background(), ports.BurnRequest{Caller: testOperator, Account: alice, Amount: e18(121)})
	assertAppError(t, err, "ECO_003")
	details := appErrorDetails(t, err)
	assert.Equal(t, e18(120).String(), details["balance"])
	assert.Equal(t, e18(121).String(), details["requested"])
}

// ==================== Transfer ====================

func TestLedger_Transfer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mintAt120(t, testOperator, alice, 100)

	require.NoError(t, f.svc.Transfer(ctx, ports.TransferRequest{Caller: alice, To: bob, Amount: e18(2000)}))
	assert.Equal(t, e18(10000), f.svc.BalanceOf(alice))
	assert.Equal(t, e18(2000), f.svc.BalanceOf(bob))
	assert.Equal(t, e18(12000), f.svc.Supply().TotalSupply)
	f.assertConservation(t)
}

func TestLedger_Transfer_ZeroAndSelf(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mintAt120(t, testOperator, alice, 100)

	require.NoError(t, f.svc.Transfer(ctx, ports.TransferRequest{Caller: alice, To: bob, Amount: new(big.Int)}))
	require.NoError(t, f.svc.Transfer(ctx, ports.TransferRequest{Caller: alice, To: alice, Amount: e18(5000)}))
	require.NoError(t, f.svc.Transfer(ctx, ports.TransferRequest{Caller: carol, To: bob, Amount: new(big.Int)}))

	assert.Equal(t, e18(12000), f.svc.BalanceOf(alice))
	assert.Equal(t, 0, f.svc.BalanceOf(bob).Sign())
	f.assertConservation(t)
}

func TestLedger_Transfer_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(t *testing.T, f *ledgerFixture)
		req    ports.TransferRequest
		code   string
		detail string
	}{
		{
			name: "paused",
			setup: func(t *testing.T, f *ledgerFixture) {
				require.NoError(t, f.svc.Pause(context.Background(), testAdmin, "incident"))
			},
			req:  ports.TransferRequest{Caller: alice, To: bob, Amount: e18(1)},
			code: "CMP_001",
		},
		{
			name: "null destination",
			req:  ports.TransferRequest{Caller: alice, To: domain.ZeroAddress, Amount: e18(1)},
			code: "VAL_001",
		},
		{
			name: "negative amount",
			req:  ports.TransferRequest{Caller: alice, To: bob, Amount: big.NewInt(-1)},
			code: "VAL_002",
		},
		{
			name: "source checked before destination",
			setup: func(t *testing.T, f *ledgerFixture) {
				require.NoError(t, f.svc.SetBlacklist(context.Background(), testAdmin, alice, true))
				require.NoError(t, f.svc.SetFreeze(context.Background(), testAdmin, bob, "case-9"))
			},
			req:    ports.TransferRequest{Caller: alice, To: bob, Amount: e18(1)},
			code:   "CMP_003",
			detail: alice.String(),
		},
		{
			name: "frozen destination",
			setup: func(t *testing.T, f *ledgerFixture) {
				require.NoError(t, f.svc.SetFreeze(context.Background(), testAdmin, bob, "case-9"))
			},
			req:    ports.TransferRequest{Caller: alice, To: bob, Amount: e18(1)},
			code:   "CMP_004",
			detail: bob.String(),
		},
		{
			name: "compliance before balance",
			setup: func(t *testing.T, f *ledgerFixture) {
				require.NoError(t, f.svc.SetBlacklist(context.Background(), testAdmin, bob, true))
			},
			req:  ports.TransferRequest{Caller: alice, To: bob, Amount: e18(999999)},
			code: "CMP_003",
		},
		{
			name: "insufficient balance",
			req:  ports.TransferRequest{Caller: alice, To: bob, Amount: e18(12001)},
			code: "ECO_003",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.mintAt120(t, testOperator, alice, 100)
			if tt.setup != nil {
				tt.setup(t, f)
			}

			err := f.svc.Transfer(context.Background(), tt.req)
			assertAppError(t, err, tt.code)
			if tt.detail != "" {
				assert.Equal(t, tt.detail, appErrorDetails(t, err)["account"])
			}
			assert.Equal(t, e18(12000), f.svc.BalanceOf(alice))
			assert.Equal(t, 0, f.svc.BalanceOf(bob).Sign())
		})
	}
}

// ==================== Supply cap & rate bounds ====================

func TestLedger_SetSupplyCap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mintAt120(t, testOperator, alice, 100)

	assertAppError(t, f.svc.SetSupplyCap(ctx, testOperator, e18(20000)), "AUTH_001")

	err := f.svc.SetSupplyCap(ctx, testAdmin, e18(11999))
	assertAppError(t, err, "ECO_002")
	assert.Equal(t, e18(12000).String(), appErrorDetails(t, err)["attempted"])

	require.NoError(t, f.svc.SetSupplyCap(ctx, testAdmin, e18(12000)))
	assert.Equal(t, e18(12000), f.svc.Supply().SupplyCap)

	_, err = f.svc.Mint(ctx, ports.MintRequest{
		Caller: testOperator, Recipient: alice,
		Amount: e18(120), USDAmount: e18(1), ProvidedRate: e18(120),
	})
	assertAppError(t, err, "ECO_002")

	require.NoError(t, f.svc.SetSupplyCap(ctx, testAdmin, new(big.Int)))
	f.mintAt120(t, testOperator, alice, 1)
}

func TestLedger_SetRateBounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assertAppError(t, f.svc.SetRateBounds(ctx, stranger, e18(1), e18(2)), "AUTH_001")
	assertAppError(t, f.svc.SetRateBounds(ctx, testAdmin, new(big.Int), e18(2)), "VAL_004")
	assertAppError(t, f.svc.SetRateBounds(ctx, testAdmin, e18(3), e18(2)), "VAL_004")
	assertAppError(t, f.svc.SetRateBounds(ctx, testAdmin, nil, e18(2)), "VAL_004")

	require.NoError(t, f.svc.SetRateBounds(ctx, testAdmin, e18(2), e18(2)))
	b := f.svc.RateBounds()
	assert.Equal(t, e18(2), b.Min)
	assert.Equal(t, e18(2), b.Max)

	_, err := f.svc.UsdToLocal(e18(1), e18(3))
	assertAppError(t, err, "VAL_004")
	out, err := f.svc.UsdToLocal(e18(1), e18(2))
	require.NoError(t, err)
	assert.Equal(t, e18(2), out)
}

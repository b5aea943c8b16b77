package domain

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice = "0x00000000000000000000000000000000000a11ce"
	bob   = "0x0000000000000000000000000000000000000b0b"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Address
		wantErr bool
	}{
		{"lowercase", alice, Address(alice), false},
		{"mixed case normalized", "0x00000000000000000000000000000000000A11CE", Address(alice), false},
		{"surrounding spaces", "  " + bob + " ", Address(bob), false},
		{"missing prefix", "00000000000000000000000000000000000a11ce", "", true},
		{"too short", "0x1234", "", true},
		{"non hex", "0x00000000000000000000000000000000000a11cg", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAddress(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddress_IsZero(t *testing.T) {
	assert.True(t, ZeroAddress.IsZero())
	assert.True(t, Address("").IsZero())
	assert.False(t, MustAddress(alice).IsZero())
}

func TestAddress_Bytes(t *testing.T) {
	b := MustAddress(alice).Bytes()
	require.Len(t, b, 20)
	assert.Equal(t, byte(0x0a), b[17])
	assert.Equal(t, byte(0x11), b[18])
	assert.Equal(t, byte(0xce), b[19])

	assert.Equal(t, make([]byte, 20), Address("junk").Bytes())
}

func TestAmountHelpers(t *testing.T) {
	assert.True(t, IsUnlimited(new(big.Int).Set(MaxUint256)))
	assert.False(t, IsUnlimited(big.NewInt(1)))
	assert.False(t, IsUnlimited(nil))

	assert.True(t, InRange(big.NewInt(0)))
	assert.True(t, InRange(MaxUint256))
	assert.False(t, InRange(new(big.Int).Add(MaxUint256, big.NewInt(1))))
	assert.False(t, InRange(big.NewInt(-1)))

	assert.False(t, IsPositive(big.NewInt(0)))
	assert.True(t, IsPositive(big.NewInt(1)))

	orig := big.NewInt(7)
	cp := Copy(orig)
	cp.SetInt64(8)
	assert.Equal(t, int64(7), orig.Int64())
	assert.Equal(t, int64(0), Copy(nil).Int64())
}

func TestMinterConfig_Clone(t *testing.T) {
	cfg := MinterConfig{Allowance: big.NewInt(100), CanBurn: true, Active: true}
	clone := cfg.Clone()
	clone.Allowance.SetInt64(1)

	assert.Equal(t, int64(100), cfg.Allowance.Int64())
	assert.True(t, clone.CanBurn)
	assert.False(t, cfg.IsUnlimited())
}

func TestRateBounds_Contains(t *testing.T) {
	b := RateBounds{Min: big.NewInt(10), Max: big.NewInt(20)}

	assert.True(t, b.Contains(big.NewInt(10)))
	assert.True(t, b.Contains(big.NewInt(20)))
	assert.False(t, b.Contains(big.NewInt(9)))
	assert.False(t, b.Contains(big.NewInt(21)))
	assert.False(t, RateBounds{}.Contains(big.NewInt(0)))
	assert.True(t, RateBounds{}.Contains(big.NewInt(1)))
}

func TestMintRecordKey_DeterministicAndSensitive(t *testing.T) {
	ts := time.Unix(1_700_000_000, 0)
	amount := big.NewInt(12000)
	usd := big.NewInt(100)
	rate := big.NewInt(120)

	k1 := MintRecordKey(MustAddress(alice), amount, usd, rate, ts)
	k2 := MintRecordKey(MustAddress(alice), amount, usd, rate, ts)
	assert.Equal(t, k1, k2)
	assert.Len(t, string(k1), 66)
	assert.Equal(t, "0x", string(k1)[:2])

	assert.NotEqual(t, k1, MintRecordKey(MustAddress(bob), amount, usd, rate, ts))
	assert.NotEqual(t, k1, MintRecordKey(MustAddress(alice), amount, usd, big.NewInt(121), ts))
	assert.NotEqual(t, k1, MintRecordKey(MustAddress(alice), amount, usd, rate, ts.Add(time.Second)))
	// Sub-second differences collapse to the same key.
	assert.Equal(t, k1, MintRecordKey(MustAddress(alice), amount, usd, rate, ts.Add(time.Millisecond)))
}

func TestBurnRecordKey_MerchantID(t *testing.T) {
	ts := time.Unix(1_700_000_000, 0)
	amount := big.NewInt(500)

	withID := BurnRecordKey(MustAddress(alice), amount, "M-1", ts)
	empty := BurnRecordKey(MustAddress(alice), amount, "", ts)

	assert.NotEqual(t, withID, empty)
	assert.Equal(t, empty, BurnRecordKey(MustAddress(alice), amount, "", ts))
}

func TestEventEnvelope_RoundTrip(t *testing.T) {
	ev := Minted{Record: MintRecord{
		Key:        "0xabc",
		Recipient:  MustAddress(alice),
		Amount:     big.NewInt(12000),
		USDAmount:  big.NewInt(100),
		Rate:       big.NewInt(120),
		OracleRate: big.NewInt(120),
		Minter:     MustAddress(bob),
		Timestamp:  time.Unix(1_700_000_000, 0).UTC(),
	}}

	env, err := EncodeEvent(ev)
	require.NoError(t, err)
	assert.Equal(t, EventMinted, env.Type)

	decoded, err := DecodeEvent(env)
	require.NoError(t, err)
	got, ok := decoded.(Minted)
	require.True(t, ok)
	assert.Equal(t, ev.Record.Key, got.Record.Key)
	assert.Equal(t, 0, ev.Record.Amount.Cmp(got.Record.Amount))
	assert.True(t, ev.Record.Timestamp.Equal(got.Record.Timestamp))
}

func TestDecodeEvent_Errors(t *testing.T) {
	_, err := DecodeEvent(EventEnvelope{Type: "NOPE", Payload: []byte(`{}`)})
	assert.Error(t, err)

	_, err = DecodeEvent(EventEnvelope{Type: EventPaused, Payload: []byte(`{"reason":`)})
	assert.Error(t, err)
}

func TestJournalEntry_DecodeEvents(t *testing.T) {
	at := time.Unix(1_700_000_000, 0)
	entry, err := NewJournalEntry(7, OpPause, MustAddress(alice), at, []Event{Paused{Reason: "incident-42"}})
	require.NoError(t, err)

	assert.Equal(t, JournalSchemaVersion, entry.SchemaVersion)
	assert.Equal(t, uint64(7), entry.Meta().Seq)
	assert.Equal(t, MustAddress(alice), entry.Meta().Actor)

	events, err := entry.DecodeEvents()
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, Paused{Reason: "incident-42"}, events[0])
}

func TestUpgradeJournalEntry(t *testing.T) {
	legacy := &JournalEntry{Seq: 1}
	require.NoError(t, UpgradeJournalEntry(legacy))
	assert.Equal(t, 1, legacy.SchemaVersion)

	current := &JournalEntry{Seq: 2, SchemaVersion: JournalSchemaVersion}
	require.NoError(t, UpgradeJournalEntry(current))

	future := &JournalEntry{Seq: 3, SchemaVersion: JournalSchemaVersion + 1}
	assert.Error(t, UpgradeJournalEntry(future))
}

func TestAuditLogFromComplianceAction(t *testing.T) {
	at := time.Now()
	log := AuditLogFromComplianceAction(ComplianceAction{
		Type:    ComplianceActionFreeze,
		Actor:   MustAddress(bob),
		Account: MustAddress(alice),
		Reason:  "court order 1",
		At:      at,
	}, `{"reason":"court order 1"}`)

	assert.Equal(t, AuditActionCompliance, log.Action)
	assert.Equal(t, "FREEZE", log.ResourceType)
	assert.Equal(t, alice, log.ResourceID)
	require.NotNil(t, log.Actor)
	assert.Equal(t, MustAddress(bob), *log.Actor)
}

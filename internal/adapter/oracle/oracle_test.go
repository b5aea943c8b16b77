package oracle

import (
	"context"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"schnl-ledger/internal/core/domain"
	"schnl-ledger/internal/service"
	"schnl-ledger/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	feedAddr  = domain.MustAddress("0x0000000000000000000000000000000000feed01")
	adminAddr = domain.MustAddress("0x00000000000000000000000000000000000000ad")
)

func newFeedServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts
}

func TestHTTPSource_LatestRoundData(t *testing.T) {
	ts := newFeedServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/latest":
			_, _ = w.Write([]byte(`{"round_id":"18446744073709551617","answer":"12000000000","started_at":1700000000,"updated_at":1700000005,"answered_in_round":"18446744073709551617"}`))
		case "/decimals":
			_, _ = w.Write([]byte(`{"decimals":8}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	src := NewHTTPSource(ts.URL+"/", ts.Client())

	round, err := src.LatestRoundData(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "18446744073709551617", round.RoundID.String())
	assert.Equal(t, big.NewInt(12_000_000_000), round.Answer)
	assert.Equal(t, int64(1700000005), round.UpdatedAt)
	assert.Equal(t, round.RoundID, round.AnsweredInRound)

	dec, err := src.Decimals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint8(8), dec)
}

func TestHTTPSource_NegativeAnswerPassesThrough(t *testing.T) {
	ts := newFeedServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"round_id":"3","answer":"-1","updated_at":1700000000}`))
	})

	round, err := NewHTTPSource(ts.URL, ts.Client()).LatestRoundData(context.Background())
	require.NoError(t, err)
	assert.Equal(t, -1, round.Answer.Sign())
	assert.Equal(t, big.NewInt(3), round.AnsweredInRound)
}

func TestHTTPSource_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{
			name:    "non-200",
			handler: func(w http.ResponseWriter, r *http.Request) { http.Error(w, "upstream down", http.StatusBadGateway) },
			want:    "status 502",
		},
		{
			name:    "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{`)) },
			want:    "decode feed",
		},
		{
			name: "non-numeric answer",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"round_id":"1","answer":"12.5","updated_at":1}`))
			},
			want: "invalid integer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newFeedServer(t, tt.handler)
			_, err := NewHTTPSource(ts.URL, ts.Client()).LatestRoundData(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestHTTPSource_TimeoutSurfacesAsInvalidRate(t *testing.T) {
	release := make(chan struct{})
	ts := newFeedServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/decimals" {
			_, _ = w.Write([]byte(`{"decimals":8}`))
			return
		}
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	reg := NewRegistry()
	reg.Register(feedAddr, NewHTTPSource(ts.URL, ts.Client()))

	roles := service.NewRoleRegistry()
	roles.Apply(domain.LedgerInitialized{Admin: adminAddr, Operator: adminAddr}, domain.EventMeta{})
	gw := service.NewRateOracleGateway(roles, reg, zerolog.Nop(), service.WithOracleTimeout(100*time.Millisecond))

	events, err := gw.SetSource(context.Background(), adminAddr, feedAddr)
	require.NoError(t, err)
	for _, ev := range events {
		gw.Apply(ev, domain.EventMeta{})
	}

	_, _, err = gw.FetchRate(context.Background())
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeOracleRateInvalid))
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "timeout", appErr.Details["reason"])
}

func TestStaticSource(t *testing.T) {
	src := NewStaticSource(big.NewInt(120_00000000), 8)
	fixed := time.Unix(1_700_000_000, 0)
	src.now = func() time.Time { return fixed }

	round, err := src.LatestRoundData(context.Background())
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(120_00000000), round.Answer)
	assert.Equal(t, fixed.Unix(), round.UpdatedAt)
	assert.Equal(t, big.NewInt(1), round.RoundID)

	src.Set(big.NewInt(121_00000000))
	round, err = src.LatestRoundData(context.Background())
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(121_00000000), round.Answer)
	assert.Equal(t, big.NewInt(2), round.RoundID)

	dec, err := src.Decimals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint8(8), dec)
}

func TestRegistry(t *testing.T) {
	reg, err := NewHTTPRegistry(map[string]string{
		"0x0000000000000000000000000000000000FEED01": "http://feed.local",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())

	src, err := reg.Resolve(feedAddr)
	require.NoError(t, err)
	assert.IsType(t, &HTTPSource{}, src)

	_, err = reg.Resolve(adminAddr)
	require.Error(t, err)

	_, err = NewHTTPRegistry(map[string]string{"not-an-address": "http://x"}, nil)
	require.Error(t, err)
}

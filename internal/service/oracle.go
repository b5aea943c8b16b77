package service

import (
	"context"
	"errors"
	"math/big"
	"time"

	"schnl-ledger/internal/core/domain"
	"schnl-ledger/internal/core/ports"
	"schnl-ledger/internal/platform/metrics"
	"schnl-ledger/pkg/apperror"
	"schnl-ledger/pkg/units"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const (
	defaultOracleTimeout = 5 * time.Second

	// maxStalenessSeconds keeps the window representable as a time.Duration.
	maxStalenessSeconds = uint64(1<<63-1) / uint64(time.Second)
)

// RateOracleGateway validates and normalizes readings from the configured
// rate source. It caches the last rate accepted by a mint.
type RateOracleGateway struct {
	roles    *RoleRegistry
	resolver ports.RateSourceResolver
	state    domain.OracleState
	timeout  time.Duration
	now      func() time.Time
	tracer   trace.Tracer
	metrics  *metrics.Metrics
	peeks    singleflight.Group
	log      zerolog.Logger
}

// OracleOption configures a RateOracleGateway.
type OracleOption func(*RateOracleGateway)

// WithOracleTimeout bounds every rate source call.
func WithOracleTimeout(d time.Duration) OracleOption {
	return func(g *RateOracleGateway) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithOracleClock replaces the wall clock used for staleness checks.
func WithOracleClock(now func() time.Time) OracleOption {
	return func(g *RateOracleGateway) {
		g.now = now
	}
}

// WithOracleTracer injects a tracer. The global provider is used otherwise.
func WithOracleTracer(t trace.Tracer) OracleOption {
	return func(g *RateOracleGateway) {
		g.tracer = t
	}
}

// WithOracleMetrics records fetch latency and failures.
func WithOracleMetrics(m *metrics.Metrics) OracleOption {
	return func(g *RateOracleGateway) {
		g.metrics = m
	}
}

// NewRateOracleGateway creates a gateway with no source configured.
func NewRateOracleGateway(roles *RoleRegistry, resolver ports.RateSourceResolver, log zerolog.Logger, opts ...OracleOption) *RateOracleGateway {
	g := &RateOracleGateway{
		roles:    roles,
		resolver: resolver,
		state:    domain.OracleState{LastAcceptedRate: new(big.Int)},
		timeout:  defaultOracleTimeout,
		now:      time.Now,
		log:      log,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.tracer == nil {
		g.tracer = otel.Tracer("schnl-ledger/oracle")
	}
	return g
}

// SetSource points the gateway at a new rate source and caches its
// decimals. The source is queried before any event is produced.
func (g *RateOracleGateway) SetSource(ctx context.Context, caller, source domain.Address) ([]domain.Event, error) {
	if err := g.roles.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if source.IsZero() {
		return nil, apperror.ErrInvalidAddress("source")
	}
	feed, err := g.resolver.Resolve(source)
	if err != nil {
		return nil, apperror.OracleRateInvalid("source unavailable", err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	ctx, span := g.tracer.Start(ctx, "oracle.decimals", trace.WithAttributes(
		attribute.String("oracle.source", source.String()),
	))
	defer span.End()

	decimals, err := feed.Decimals(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, apperror.OracleRateInvalid("decimals query failed", err)
	}
	if decimals == 0 {
		return nil, apperror.ErrOracleRateInvalid("source reports zero decimals")
	}

	return []domain.Event{domain.OracleSourceUpdated{
		Previous: g.state.Source,
		Source:   source,
		Decimals: decimals,
	}}, nil
}

// SetToleranceBps sets the allowed deviation of a provided rate.
func (g *RateOracleGateway) SetToleranceBps(caller domain.Address, bps uint64) ([]domain.Event, error) {
	if err := g.roles.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if bps > domain.BPSDenominator {
		return nil, apperror.ErrInvalidTolerance(bps)
	}
	return []domain.Event{domain.ToleranceUpdated{Previous: g.state.ToleranceBps, New: bps}}, nil
}

// SetMaxStaleness sets the staleness window. Zero disables the check.
func (g *RateOracleGateway) SetMaxStaleness(caller domain.Address, seconds uint64) ([]domain.Event, error) {
	if err := g.roles.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if seconds > maxStalenessSeconds {
		return nil, apperror.Validation("max staleness is too large")
	}
	return []domain.Event{domain.MaxStalenessUpdated{
		Previous: uint64(g.state.MaxStaleness / time.Second),
		New:      seconds,
	}}, nil
}

// FetchRate reads the source and returns the rate at 18 decimals with its
// update timestamp. It runs the full validation pipeline.
func (g *RateOracleGateway) FetchRate(ctx context.Context) (*big.Int, int64, error) {
	return g.fetch(ctx, g.state)
}

// Peek is FetchRate for read-only callers. Concurrent peeks against the
// same source share one upstream read.
func (g *RateOracleGateway) Peek(ctx context.Context, st domain.OracleState) (*big.Int, int64, error) {
	type reading struct {
		rate      *big.Int
		updatedAt int64
	}
	v, err, _ := g.peeks.Do(st.Source.String(), func() (any, error) {
		rate, updatedAt, err := g.fetch(ctx, st)
		if err != nil {
			return nil, err
		}
		return reading{rate: rate, updatedAt: updatedAt}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	r := v.(reading)
	return new(big.Int).Set(r.rate), r.updatedAt, nil
}

// WithinTolerance checks providedRate against oracleRate at the configured
// tolerance.
func (g *RateOracleGateway) WithinTolerance(oracleRate, providedRate *big.Int) bool {
	return WithinTolerance(oracleRate, providedRate, g.state.ToleranceBps)
}

// State returns a copy of the cached oracle state.
func (g *RateOracleGateway) State() domain.OracleState {
	st := g.state
	st.LastAcceptedRate = domain.Copy(g.state.LastAcceptedRate)
	return st
}

func (g *RateOracleGateway) fetch(ctx context.Context, st domain.OracleState) (rate *big.Int, updatedAt int64, err error) {
	start := time.Now()
	ctx, span := g.tracer.Start(ctx, "oracle.fetch_rate", trace.WithAttributes(
		attribute.String("oracle.source", st.Source.String()),
	))
	defer func() {
		code := ""
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			var appErr *apperror.AppError
			if errors.As(err, &appErr) {
				code = appErr.Code
			}
		}
		span.End()
		if g.metrics != nil {
			g.metrics.ObserveOracleFetch(time.Since(start), code)
		}
	}()

	if st.Source.IsZero() {
		return nil, 0, apperror.ErrOracleNotConfigured()
	}
	feed, err := g.resolver.Resolve(st.Source)
	if err != nil {
		return nil, 0, apperror.OracleRateInvalid("source unavailable", err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	round, err := feed.LatestRoundData(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, 0, apperror.OracleRateInvalid("timeout", err)
		}
		return nil, 0, apperror.OracleRateInvalid("read failed", err)
	}

	switch {
	case round.Answer == nil || round.Answer.Sign() <= 0:
		return nil, 0, apperror.ErrOracleRateInvalid("non-positive answer")
	case round.RoundID == nil || round.RoundID.Sign() == 0:
		return nil, 0, apperror.ErrOracleRateInvalid("zero round id")
	case round.UpdatedAt <= 0:
		return nil, 0, apperror.ErrOracleRateInvalid("non-positive timestamp")
	}

	now := g.now().Unix()
	if round.UpdatedAt > now {
		return nil, 0, apperror.ErrOracleRateInvalid("timestamp in the future")
	}
	if st.MaxStaleness > 0 && now-round.UpdatedAt > int64(st.MaxStaleness/time.Second) {
		return nil, 0, apperror.ErrOracleStale(round.UpdatedAt, now)
	}

	rate = normalizeRate(round.Answer, st.SourceDecimals)
	span.SetAttributes(attribute.Int64("oracle.updated_at", round.UpdatedAt))
	return rate, round.UpdatedAt, nil
}

// normalizeRate scales answer from decimals to 18 fractional digits.
// Scaling down truncates.
func normalizeRate(answer *big.Int, decimals uint8) *big.Int {
	out := new(big.Int).Set(answer)
	switch {
	case decimals < units.Decimals:
		return out.Mul(out, pow10(units.Decimals-int(decimals)))
	case decimals > units.Decimals:
		return out.Quo(out, pow10(int(decimals)-units.Decimals))
	}
	return out
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// Apply mutates oracle state for a committed event.
func (g *RateOracleGateway) Apply(ev domain.Event, _ domain.EventMeta) {
	switch e := ev.(type) {
	case domain.LedgerInitialized:
		g.state.ToleranceBps = e.ToleranceBps
		g.state.MaxStaleness = time.Duration(e.MaxStaleness) * time.Second
	case domain.OracleSourceUpdated:
		g.state.Source = e.Source
		g.state.SourceDecimals = e.Decimals
	case domain.ToleranceUpdated:
		g.state.ToleranceBps = e.New
	case domain.MaxStalenessUpdated:
		g.state.MaxStaleness = time.Duration(e.New) * time.Second
	case domain.OracleRateAccepted:
		g.state.LastAcceptedRate = domain.Copy(e.Rate)
		g.state.LastAcceptedTimestamp = e.UpdatedAt
	}
}

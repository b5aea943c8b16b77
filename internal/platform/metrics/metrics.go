package metrics

import (
	"math/big"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the ledger.
type Metrics struct {
	Mints       prometheus.Counter
	Burns       prometheus.Counter
	Transfers   prometheus.Counter
	Wipes       prometheus.Counter
	Rejections  *prometheus.CounterVec
	MintedUnits prometheus.Counter
	BurnedUnits prometheus.Counter
	TotalSupply prometheus.Gauge
	Paused      prometheus.Gauge

	// Oracle metrics
	OracleFetchFailures *prometheus.CounterVec
	OracleFetchLatency  prometheus.Histogram

	// Publication metrics
	PublishFailures *prometheus.CounterVec
}

// New creates the ledger metrics and registers them with reg. A nil reg
// uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Mints: f.NewCounter(prometheus.CounterOpts{
			Name: "schnl_mints_total",
			Help: "Total number of successful mints",
		}),
		Burns: f.NewCounter(prometheus.CounterOpts{
			Name: "schnl_burns_total",
			Help: "Total number of successful burns",
		}),
		Transfers: f.NewCounter(prometheus.CounterOpts{
			Name: "schnl_transfers_total",
			Help: "Total number of successful transfers",
		}),
		Wipes: f.NewCounter(prometheus.CounterOpts{
			Name: "schnl_frozen_wipes_total",
			Help: "Total number of frozen-balance wipes",
		}),
		Rejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "schnl_rejections_total",
			Help: "Rejected ledger operations, labeled by operation and error code",
		}, []string{"operation", "code"}),
		// Unit counters are approximate: float64 cannot hold every 256-bit value.
		MintedUnits: f.NewCounter(prometheus.CounterOpts{
			Name: "schnl_minted_units_total",
			Help: "Whole units minted",
		}),
		BurnedUnits: f.NewCounter(prometheus.CounterOpts{
			Name: "schnl_burned_units_total",
			Help: "Whole units burned, including frozen wipes",
		}),
		TotalSupply: f.NewGauge(prometheus.GaugeOpts{
			Name: "schnl_total_supply_units",
			Help: "Current total supply in whole units",
		}),
		Paused: f.NewGauge(prometheus.GaugeOpts{
			Name: "schnl_paused",
			Help: "1 while the ledger is paused",
		}),
		OracleFetchFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "schnl_oracle_fetch_failures_total",
			Help: "Oracle fetch failures, labeled by error code",
		}, []string{"code"}),
		OracleFetchLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "schnl_oracle_fetch_latency_seconds",
			Help:    "Latency of rate source reads in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		PublishFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "schnl_event_publish_failures_total",
			Help: "Event publication failures, labeled by sink",
		}, []string{"sink"}),
	}
}

// ObserveMint records a successful mint of amount base units.
func (m *Metrics) ObserveMint(amount *big.Int) {
	m.Mints.Inc()
	m.MintedUnits.Add(Units(amount))
}

// ObserveBurn records a successful burn of amount base units.
func (m *Metrics) ObserveBurn(amount *big.Int) {
	m.Burns.Inc()
	m.BurnedUnits.Add(Units(amount))
}

// ObserveWipe records a frozen wipe of amount base units.
func (m *Metrics) ObserveWipe(amount *big.Int) {
	m.Wipes.Inc()
	m.BurnedUnits.Add(Units(amount))
}

// ObserveRejection counts a failed operation by its error code.
func (m *Metrics) ObserveRejection(operation, code string) {
	m.Rejections.WithLabelValues(operation, code).Inc()
}

// SetSupply updates the total supply gauge.
func (m *Metrics) SetSupply(supply *big.Int) {
	m.TotalSupply.Set(Units(supply))
}

// SetPaused updates the pause gauge.
func (m *Metrics) SetPaused(paused bool) {
	if paused {
		m.Paused.Set(1)
		return
	}
	m.Paused.Set(0)
}

// ObserveOracleFetch records a rate source read. code is empty on success.
func (m *Metrics) ObserveOracleFetch(d time.Duration, code string) {
	m.OracleFetchLatency.Observe(d.Seconds())
	if code != "" {
		m.OracleFetchFailures.WithLabelValues(code).Inc()
	}
}

// ObservePublishFailure counts a failed delivery to sink.
func (m *Metrics) ObservePublishFailure(sink string) {
	m.PublishFailures.WithLabelValues(sink).Inc()
}

var unit = new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

// Units converts 18-decimal base units to a float64 of whole units.
func Units(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(v), unit).Float64()
	return f
}

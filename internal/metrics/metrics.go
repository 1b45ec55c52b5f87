package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sync outcomes recorded per feed.
const (
	OutcomeSuccess          = "success"
	OutcomeTransportFailure = "transport_failure"
	OutcomeMalformed        = "malformed"
	OutcomeDiscarded        = "discarded"
)

// Metrics holds the Prometheus collectors for rate sync and quoting.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	SyncTotal     *prometheus.CounterVec   // labels: feed, outcome
	ParseMethod   *prometheus.CounterVec   // labels: feed, method
	FetchDuration *prometheus.HistogramVec // labels: feed
	FeedRate      *prometheus.GaugeVec     // labels: feed
	EffectiveRate prometheus.Gauge
	QuotesTotal   prometheus.Counter
}

// NewMetrics registers and returns all collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		SyncTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "goldquote_rate_sync_total",
			Help: "Rate sync runs by feed and outcome",
		}, []string{"feed", "outcome"}),
		ParseMethod: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "goldquote_rate_parse_method_total",
			Help: "Successful rate parses by the parsing step that matched",
		}, []string{"feed", "method"}),
		FetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "goldquote_rate_fetch_duration_seconds",
			Help:    "Time spent fetching and parsing a feed",
			Buckets: prometheus.DefBuckets,
		}, []string{"feed"}),
		FeedRate: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "goldquote_feed_rate",
			Help: "Last rate applied from each feed",
		}, []string{"feed"}),
		EffectiveRate: factory.NewGauge(prometheus.GaugeOpts{
			Name: "goldquote_effective_rate",
			Help: "Purity adjusted per-gram rate used for the current quote",
		}),
		QuotesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "goldquote_quotes_total",
			Help: "Quotes calculated",
		}),
	}
}

// ObserveSync records one sync run.
func (m *Metrics) ObserveSync(feed, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.SyncTotal.WithLabelValues(feed, outcome).Inc()
	m.FetchDuration.WithLabelValues(feed).Observe(took.Seconds())
}

// ObserveParse records which parsing step produced a rate.
func (m *Metrics) ObserveParse(feed, method string) {
	if m == nil {
		return
	}
	m.ParseMethod.WithLabelValues(feed, method).Inc()
}

// SetFeedRate records the last applied rate of a feed.
func (m *Metrics) SetFeedRate(feed string, rate float64) {
	if m == nil {
		return
	}
	m.FeedRate.WithLabelValues(feed).Set(rate)
}

// ObserveQuote records a recalculated quote.
func (m *Metrics) ObserveQuote(effectiveRate float64) {
	if m == nil {
		return
	}
	m.QuotesTotal.Inc()
	m.EffectiveRate.Set(effectiveRate)
}

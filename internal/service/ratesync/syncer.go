package ratesync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/goldquote/internal/domain/models"
	"github.com/mamadbah2/goldquote/internal/metrics"
	"github.com/mamadbah2/goldquote/internal/rates"
)

// Fetcher retrieves one raw response from a rate source.
type Fetcher interface {
	Fetch(ctx context.Context) (*models.FeedResponse, error)
}

// RateSink receives successfully parsed rates.
type RateSink interface {
	SetBaseRate(rate float64) bool
}

// SnapshotSaver persists the last applied rate.
type SnapshotSaver interface {
	SaveSnapshot(ctx context.Context, snapshot models.RateSnapshot) error
}

// Reading is a rate extracted from one fetch.
type Reading struct {
	Rate   float64
	Method rates.Method
}

// Syncer fetches a feed, parses it and hands the rate to a sink. Every run draws a
// sequence number; a result is applied only if no later-issued run was applied first.
type Syncer struct {
	feed    string
	fetcher Fetcher
	sink    RateSink
	saver   SnapshotSaver
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time

	issued  atomic.Uint64
	mu      sync.Mutex
	applied uint64
}

// Option customizes a Syncer.
type Option func(*Syncer)

// WithSnapshotSaver persists every applied rate.
func WithSnapshotSaver(saver SnapshotSaver) Option {
	return func(s *Syncer) { s.saver = saver }
}

// WithMetrics records run outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Syncer) { s.metrics = m }
}

// NewSyncer wires a syncer for the named feed.
func NewSyncer(feed string, fetcher Fetcher, sink RateSink, logger *zap.Logger, opts ...Option) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Syncer{
		feed:    feed,
		fetcher: fetcher,
		sink:    sink,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the feed name used in logs and metrics.
func (s *Syncer) Name() string {
	return s.feed
}

// FetchRate performs one fetch-and-parse step without touching the sink.
// Errors wrap rates.ErrTransportFailure or rates.ErrMalformedRateResponse.
func (s *Syncer) FetchRate(ctx context.Context) (Reading, error) {
	resp, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return Reading{}, fmt.Errorf("%w: %w", rates.ErrTransportFailure, err)
	}
	if resp.StatusCode != http.StatusOK {
		return Reading{}, fmt.Errorf("%w: unexpected status %d", rates.ErrTransportFailure, resp.StatusCode)
	}

	parsed, err := rates.Parse(resp.Kind(), resp.Body)
	if err != nil {
		return Reading{}, fmt.Errorf("%w: %w", rates.ErrMalformedRateResponse, err)
	}

	return Reading{Rate: parsed.Rate, Method: parsed.Method}, nil
}

// Run performs one sync. Failures are logged and counted, never returned: the sink
// keeps its previous rate until a later run succeeds.
func (s *Syncer) Run(ctx context.Context) {
	seq := s.issued.Add(1)
	start := s.now()

	reading, err := s.FetchRate(ctx)
	took := s.now().Sub(start)
	if err != nil {
		outcome := metrics.OutcomeTransportFailure
		if errors.Is(err, rates.ErrMalformedRateResponse) {
			outcome = metrics.OutcomeMalformed
		}
		s.metrics.ObserveSync(s.feed, outcome, took)
		s.logger.Warn("rate sync failed, keeping previous rate",
			zap.String("feed", s.feed),
			zap.String("outcome", outcome),
			zap.Uint64("seq", seq),
			zap.Error(err))
		return
	}

	s.metrics.ObserveParse(s.feed, string(reading.Method))
	if reading.Method != rates.MethodDelimitedRow {
		s.logger.Info("rate parsed with fallback method",
			zap.String("feed", s.feed),
			zap.String("method", string(reading.Method)),
			zap.Float64("rate", reading.Rate))
	}

	if !s.apply(seq, reading.Rate) {
		s.metrics.ObserveSync(s.feed, metrics.OutcomeDiscarded, took)
		s.logger.Info("discarding superseded rate",
			zap.String("feed", s.feed),
			zap.Uint64("seq", seq),
			zap.Float64("rate", reading.Rate))
		return
	}

	s.metrics.ObserveSync(s.feed, metrics.OutcomeSuccess, took)
	s.metrics.SetFeedRate(s.feed, reading.Rate)
	s.logger.Debug("rate applied",
		zap.String("feed", s.feed),
		zap.Uint64("seq", seq),
		zap.Float64("rate", reading.Rate),
		zap.Duration("took", took))

	s.save(ctx, reading.Rate)
}

func (s *Syncer) apply(seq uint64, rate float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq <= s.applied {
		return false
	}
	if !s.sink.SetBaseRate(rate) {
		return false
	}
	s.applied = seq
	return true
}

func (s *Syncer) save(ctx context.Context, rate float64) {
	if s.saver == nil {
		return
	}
	snapshot := models.RateSnapshot{
		BaseRate:  rate,
		Source:    s.feed,
		FetchedAt: s.now().UTC(),
	}
	if err := s.saver.SaveSnapshot(ctx, snapshot); err != nil {
		s.logger.Error("failed to persist rate snapshot", zap.String("feed", s.feed), zap.Error(err))
	}
}

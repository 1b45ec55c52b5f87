package quote

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/goldquote/internal/domain/models"
	"github.com/mamadbah2/goldquote/internal/metrics"
	"github.com/mamadbah2/goldquote/internal/rates"
)

type recordingDisplay struct {
	mu    sync.Mutex
	shown []models.QuoteSnapshot
}

func (d *recordingDisplay) Show(s models.QuoteSnapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.shown = append(d.shown, s)
}

func (d *recordingDisplay) last(t *testing.T) models.QuoteSnapshot {
	t.Helper()
	d.mu.Lock()
	defer d.mu.Unlock()
	require.NotEmpty(t, d.shown)
	return d.shown[len(d.shown)-1]
}

func (d *recordingDisplay) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.shown)
}

type fixedRate float64

func (f fixedRate) Rate() float64 { return float64(f) }

func total(s models.QuoteSnapshot) int64 { return s.Quote.TotalPrice.IntPart() }

func newController(t *testing.T, base, purity float64, in Inputs, opts ...Option) (*Controller, *rates.Store, *recordingDisplay) {
	t.Helper()
	store := rates.NewStore()
	store.Initialize(base*purity, purity)
	display := &recordingDisplay{}
	return NewController(store, display, in, nil, opts...), store, display
}

func TestController_RecalculateUsesEffectiveRate(t *testing.T) {
	c, _, display := newController(t, 6000, 1, Inputs{Weight: 10, MakingPercent: 12})

	snap := c.Recalculate()
	assert.Equal(t, int64(60000), snap.Quote.BasePrice.IntPart())
	assert.Equal(t, int64(69216), total(snap))
	assert.Equal(t, 6000.0, snap.EffectiveRate)
	assert.Equal(t, snap, display.last(t))
	assert.Equal(t, snap, c.Current())
}

func TestController_ReactsToBaseRateChange(t *testing.T) {
	c, store, display := newController(t, 6000, 1, Inputs{Weight: 10, MakingPercent: 12})
	c.Recalculate()

	store.SetBaseRate(6500)

	last := display.last(t)
	assert.Equal(t, 6500.0, last.EffectiveRate)
	assert.Equal(t, int64(65000), last.Quote.BasePrice.IntPart())
	assert.Equal(t, 2, display.count())
}

func TestController_IgnoredBaseRateDoesNotRecalculate(t *testing.T) {
	c, store, display := newController(t, 6000, 1, Inputs{Weight: 1})
	c.Recalculate()

	store.SetBaseRate(0)
	assert.Equal(t, 1, display.count())
}

func TestController_SetPurityRederivesRate(t *testing.T) {
	c, store, _ := newController(t, 6500, 1, Inputs{Weight: 5, MakingPercent: 10})

	snap := c.SetPurity("0.916")
	assert.InDelta(t, 5954.0, snap.EffectiveRate, 1e-6)
	assert.Equal(t, 0.916, snap.Purity)
	assert.Equal(t, int64(29770), snap.Quote.BasePrice.IntPart())
	assert.Equal(t, int64(33729), total(snap))
	assert.Equal(t, 0.916, store.State().Purity)
}

func TestController_SetPurityInvalidDefaultsToOne(t *testing.T) {
	c, _, _ := newController(t, 6000, 0.75, Inputs{Weight: 1})

	snap := c.SetPurity("abc")
	assert.Equal(t, 1.0, snap.Purity)
	assert.Equal(t, 6000.0, snap.EffectiveRate)
}

func TestController_InputsAreCoerced(t *testing.T) {
	c, _, _ := newController(t, 6000, 1, Inputs{Weight: -3, MakingPercent: -1})

	snap := c.Recalculate()
	assert.Zero(t, snap.Quote.Weight)
	assert.Zero(t, snap.Quote.MakingPercent)

	snap = c.SetWeight("10 g")
	assert.Equal(t, 10.0, snap.Quote.Weight)

	snap = c.SetMakingPercent("12%")
	assert.Equal(t, int64(69216), total(snap))

	snap = c.SetWeight("")
	assert.True(t, snap.Quote.TotalPrice.Equal(decimal.Zero))
}

func TestController_ApplyInputs(t *testing.T) {
	c, _, display := newController(t, 6000, 1, Inputs{})
	c.Recalculate()

	snap := c.ApplyInputs(models.QuoteInputsRequest{Weight: "10", MakingPercent: 12.0})
	assert.Equal(t, int64(69216), total(snap))
	assert.Equal(t, 2, display.count())

	snap = c.ApplyInputs(models.QuoteInputsRequest{Purity: 0.75})
	assert.Equal(t, 4500.0, snap.EffectiveRate)
	assert.Equal(t, 10.0, snap.Quote.Weight)
	assert.Equal(t, 3, display.count())
}

func TestController_Estimate(t *testing.T) {
	c, _, _ := newController(t, 6500, 1, Inputs{})

	q := c.Estimate(models.EstimateRequest{Weight: 5, Rate: "6500", Purity: 0.916, MakingPercent: 10})
	assert.Equal(t, int64(33729), q.TotalPrice.IntPart())
	require.NotNil(t, q.Purity)

	// base rate and current purity used when omitted
	q = c.Estimate(models.EstimateRequest{Weight: 5, MakingPercent: 10})
	assert.Equal(t, 6500.0, q.Rate)
	assert.Equal(t, int64(32500), q.BasePrice.IntPart())
}

func TestController_SecondaryRateAndMetrics(t *testing.T) {
	m := metrics.NewMetrics(prometheus.NewRegistry())
	c, _, _ := newController(t, 6000, 1, Inputs{Weight: 1}, WithSecondaryRate(fixedRate(83.25)), WithMetrics(m))

	snap := c.Recalculate()
	assert.Equal(t, 83.25, snap.SecondaryRate)
	assert.Equal(t, 83.25, c.Rate().SecondaryRate)
	assert.Equal(t, 6000.0, c.Rate().EffectiveRate)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QuotesTotal))
	assert.Equal(t, 6000.0, testutil.ToFloat64(m.EffectiveRate))
}

func TestController_DelayedNotificationDoesNotPublishStaleRate(t *testing.T) {
	store := rates.NewStore()
	store.Initialize(6000, 1)

	entered := make(chan struct{})
	release := make(chan struct{})
	var blocked atomic.Bool
	store.Subscribe(func(rates.State) {
		if blocked.CompareAndSwap(false, true) {
			close(entered)
			<-release
		}
	})

	display := &recordingDisplay{}
	c := NewController(store, display, Inputs{Weight: 10}, nil)
	c.Recalculate()

	done := make(chan struct{})
	go func() {
		defer close(done)
		store.SetBaseRate(7000)
	}()
	<-entered

	c.SetPurity(0.5)
	close(release)
	<-done

	require.Equal(t, 3500.0, store.State().EffectiveRate)
	assert.Equal(t, 3500.0, c.Current().EffectiveRate)
	assert.Equal(t, 0.5, c.Current().Purity)
	assert.Equal(t, 3500.0, display.last(t).EffectiveRate)
	assert.Equal(t, int64(36050), total(display.last(t)))
}

func TestController_SecondaryRateChangeRepublishes(t *testing.T) {
	secondary := &rates.Reference{}
	secondary.SetBaseRate(83)
	c, _, display := newController(t, 6000, 1, Inputs{Weight: 1}, WithSecondaryRate(secondary))
	c.Recalculate()
	shown := display.count()

	secondary.SetBaseRate(0)
	assert.Equal(t, shown, display.count())

	secondary.SetBaseRate(84.5)
	assert.Equal(t, shown+1, display.count())
	assert.Equal(t, 84.5, display.last(t).SecondaryRate)
	assert.Equal(t, 84.5, c.Current().SecondaryRate)
	assert.Equal(t, 6000.0, c.Current().EffectiveRate)
}

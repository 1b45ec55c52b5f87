package quote

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/goldquote/internal/domain/models"
	"github.com/mamadbah2/goldquote/internal/metrics"
	"github.com/mamadbah2/goldquote/internal/pricing"
	"github.com/mamadbah2/goldquote/internal/rates"
)

// Display receives every recalculated snapshot. Formatting is its concern.
type Display interface {
	Show(snapshot models.QuoteSnapshot)
}

// RateStore is the part of rates.Store the controller depends on.
type RateStore interface {
	State() rates.State
	SetPurity(purity float64)
	Subscribe(o rates.Observer)
}

// SecondaryRate supplies the optional secondary-currency rate.
type SecondaryRate interface {
	Rate() float64
}

// secondaryNotifier is implemented by secondary rates that announce changes, such
// as rates.Reference.
type secondaryNotifier interface {
	Subscribe(fn func(rate float64))
}

// Inputs are the user-editable values besides purity.
type Inputs struct {
	Weight        float64
	MakingPercent float64
}

// Controller recalculates the quote whenever the rate state or an input changes and
// forwards the result to the display.
type Controller struct {
	store     RateStore
	display   Display
	secondary SecondaryRate
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time

	mu     sync.Mutex
	inputs Inputs
	last   models.QuoteSnapshot
}

// Option customizes a Controller.
type Option func(*Controller)

// WithSecondaryRate attaches the secondary-currency rate to every snapshot.
func WithSecondaryRate(r SecondaryRate) Option {
	return func(c *Controller) { c.secondary = r }
}

// WithMetrics records every recalculation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// NewController subscribes to store changes. Call Recalculate once to publish the
// initial quote.
func NewController(store RateStore, display Display, inputs Inputs, logger *zap.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Controller{
		store:   store,
		display: display,
		inputs:  sanitize(inputs),
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	store.Subscribe(c.onRateChange)
	if n, ok := c.secondary.(secondaryNotifier); ok {
		n.Subscribe(func(float64) { c.Recalculate() })
	}
	return c
}

// Recalculate prices the current inputs against the current rate state.
func (c *Controller) Recalculate() models.QuoteSnapshot {
	return c.recalculate()
}

// onRateChange ignores the notified state: observers may be delivered out of order,
// so the store is read again under the lock.
func (c *Controller) onRateChange(rates.State) {
	c.recalculate()
}

// SetWeight applies a raw weight edit.
func (c *Controller) SetWeight(raw any) models.QuoteSnapshot {
	c.mu.Lock()
	c.inputs.Weight = pricing.ParseInput(raw)
	c.mu.Unlock()
	return c.Recalculate()
}

// SetMakingPercent applies a raw making-percentage edit.
func (c *Controller) SetMakingPercent(raw any) models.QuoteSnapshot {
	c.mu.Lock()
	c.inputs.MakingPercent = pricing.ParseInput(raw)
	c.mu.Unlock()
	return c.Recalculate()
}

// SetPurity applies a raw purity edit. The store notifies the controller, which
// recalculates against the new effective rate.
func (c *Controller) SetPurity(raw any) models.QuoteSnapshot {
	c.store.SetPurity(pricing.ParseInput(raw))
	return c.Current()
}

// ApplyInputs applies every present field of req and recalculates once per trigger.
func (c *Controller) ApplyInputs(req models.QuoteInputsRequest) models.QuoteSnapshot {
	c.mu.Lock()
	if req.Weight != nil {
		c.inputs.Weight = pricing.ParseInput(req.Weight)
	}
	if req.MakingPercent != nil {
		c.inputs.MakingPercent = pricing.ParseInput(req.MakingPercent)
	}
	c.mu.Unlock()

	if req.Purity != nil {
		return c.SetPurity(req.Purity)
	}
	return c.Recalculate()
}

// Estimate prices a static-mode quote against a 24K rate without touching state.
// A missing rate uses the current base rate; a missing purity uses the current purity.
func (c *Controller) Estimate(req models.EstimateRequest) models.Quote {
	state := c.store.State()

	rate := pricing.ParseInput(req.Rate)
	if rate == 0 {
		rate = state.BaseRate
	}

	purity := state.Purity
	if req.Purity != nil {
		purity = pricing.ParseInput(req.Purity)
		if purity == 0 {
			purity = 1
		}
	}

	return pricing.CalculateWithPurity(pricing.ParseInput(req.Weight), rate, purity, pricing.ParseInput(req.MakingPercent))
}

// Current returns the last published snapshot.
func (c *Controller) Current() models.QuoteSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Rate returns the current rate state.
func (c *Controller) Rate() models.RateView {
	state := c.store.State()
	return models.RateView{
		BaseRate:      state.BaseRate,
		Purity:        state.Purity,
		EffectiveRate: state.EffectiveRate,
		SecondaryRate: c.secondaryRate(),
	}
}

func (c *Controller) recalculate() models.QuoteSnapshot {
	c.mu.Lock()
	state := c.store.State()
	inputs := c.inputs
	q := pricing.CalculateWithAdjustedRate(inputs.Weight, state.EffectiveRate, inputs.MakingPercent)
	snapshot := models.QuoteSnapshot{
		Quote:         q,
		BaseRate:      state.BaseRate,
		Purity:        state.Purity,
		EffectiveRate: state.EffectiveRate,
		SecondaryRate: c.secondaryRate(),
		UpdatedAt:     c.now().UTC(),
	}
	c.last = snapshot
	// the display is fed under the lock so snapshots reach it in calculation order
	if c.display != nil {
		c.display.Show(snapshot)
	}
	c.mu.Unlock()

	c.metrics.ObserveQuote(state.EffectiveRate)
	c.logger.Debug("quote recalculated",
		zap.Float64("weight", inputs.Weight),
		zap.Float64("effective_rate", state.EffectiveRate),
		zap.Float64("making_percent", inputs.MakingPercent),
		zap.String("total", q.TotalPrice.String()))

	return snapshot
}

func (c *Controller) secondaryRate() float64 {
	if c.secondary == nil {
		return 0
	}
	return c.secondary.Rate()
}

func sanitize(in Inputs) Inputs {
	return Inputs{
		Weight:        pricing.ParseInput(in.Weight),
		MakingPercent: pricing.ParseInput(in.MakingPercent),
	}
}

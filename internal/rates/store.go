package rates

import (
	"sync"
)

// State is a consistent read of the store.
type State struct {
	BaseRate      float64
	Purity        float64
	EffectiveRate float64
}

// Observer is called after every successful mutation of the store.
type Observer func(State)

// Store owns the canonical pure-metal base rate and the selected purity. The effective
// rate is always derived as baseRate × purity and never stored.
type Store struct {
	mu        sync.RWMutex
	baseRate  float64
	purity    float64
	observers []Observer
}

// NewStore returns a store with purity 1 and no base rate.
func NewStore() *Store {
	return &Store{purity: 1}
}

// Initialize derives the base rate from a rate observed at some purity, before any feed
// rate is known. Observers are not notified.
func (s *Store) Initialize(observedRate, observedPurity float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if observedPurity > 0 {
		s.baseRate = observedRate / observedPurity
		s.purity = observedPurity
		return
	}
	s.baseRate = observedRate
	s.purity = 1
}

// Subscribe registers an observer. Observers run synchronously, in registration order.
func (s *Store) Subscribe(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// SetBaseRate replaces the base rate. Non-positive values are ignored and report false.
func (s *Store) SetBaseRate(rate float64) bool {
	if !(rate > 0) {
		return false
	}

	s.mu.Lock()
	s.baseRate = rate
	state, observers := s.snapshotLocked()
	s.mu.Unlock()

	notify(observers, state)
	return true
}

// SetPurity replaces the purity; non-positive values reset it to 1.
func (s *Store) SetPurity(purity float64) {
	if !(purity > 0) {
		purity = 1
	}

	s.mu.Lock()
	s.purity = purity
	state, observers := s.snapshotLocked()
	s.mu.Unlock()

	notify(observers, state)
}

// EffectiveRate returns baseRate × purity.
func (s *Store) EffectiveRate() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.baseRate * s.purity
}

// BaseRate returns the current pure-metal rate.
func (s *Store) BaseRate() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.baseRate
}

// State returns base rate, purity and effective rate read together.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, _ := s.snapshotLocked()
	return state
}

func (s *Store) snapshotLocked() (State, []Observer) {
	state := State{
		BaseRate:      s.baseRate,
		Purity:        s.purity,
		EffectiveRate: s.baseRate * s.purity,
	}
	observers := make([]Observer, len(s.observers))
	copy(observers, s.observers)
	return state, observers
}

func notify(observers []Observer, state State) {
	for _, o := range observers {
		o(state)
	}
}

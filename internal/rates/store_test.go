package rates

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStore_Initialize(t *testing.T) {
	s := NewStore()
	s.Initialize(5000, 0.75)

	assert.InDelta(t, 6666.67, s.BaseRate(), 0.01)
	assert.InDelta(t, 5000, s.EffectiveRate(), 1e-9)

	s.SetPurity(0.916)
	assert.InDelta(t, 6106.67, s.EffectiveRate(), 0.01)
}

func TestStore_InitializeWithoutPurity(t *testing.T) {
	s := NewStore()
	s.Initialize(6000, 0)

	st := s.State()
	assert.Equal(t, 6000.0, st.BaseRate)
	assert.Equal(t, 1.0, st.Purity)
	assert.Equal(t, 6000.0, st.EffectiveRate)
}

func TestStore_SetBaseRateIgnoresNonPositive(t *testing.T) {
	s := NewStore()
	s.Initialize(6000, 1)

	var calls int
	s.Subscribe(func(State) { calls++ })

	assert.False(t, s.SetBaseRate(0))
	assert.False(t, s.SetBaseRate(-1))
	assert.Equal(t, 6000.0, s.BaseRate())
	assert.Zero(t, calls)

	assert.True(t, s.SetBaseRate(7000))
	assert.Equal(t, 7000.0, s.BaseRate())
	assert.Equal(t, 1, calls)
}

func TestStore_SetPurityDefaultsToOne(t *testing.T) {
	s := NewStore()
	s.Initialize(6000, 0.5)

	s.SetPurity(-0.2)
	assert.Equal(t, 1.0, s.State().Purity)
	assert.Equal(t, 12000.0, s.EffectiveRate())
}

func TestStore_ObserversSeeFreshEffectiveRate(t *testing.T) {
	s := NewStore()
	s.Initialize(6000, 1)

	var seen []State
	s.Subscribe(func(st State) { seen = append(seen, st) })
	s.Subscribe(func(st State) {
		// reading back from the store inside an observer must not deadlock
		assert.Equal(t, st.EffectiveRate, s.EffectiveRate())
	})

	s.SetPurity(0.75)
	s.SetBaseRate(8000)

	if assert.Len(t, seen, 2) {
		assert.Equal(t, 4500.0, seen[0].EffectiveRate)
		assert.Equal(t, 6000.0, seen[1].EffectiveRate)
	}
}

func TestReference(t *testing.T) {
	var r Reference
	assert.Zero(t, r.Rate())
	assert.False(t, r.SetBaseRate(0))
	assert.True(t, r.SetBaseRate(83.2))
	assert.Equal(t, 83.2, r.Rate())

	var nilRef *Reference
	assert.Zero(t, nilRef.Rate())
}

func TestReference_SubscribeRunsOnAcceptedRates(t *testing.T) {
	var r Reference
	var seen []float64
	r.Subscribe(func(rate float64) { seen = append(seen, rate) })

	r.SetBaseRate(-1)
	r.SetBaseRate(83.2)
	r.SetBaseRate(84)

	assert.Equal(t, []float64{83.2, 84}, seen)
}

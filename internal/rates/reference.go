package rates

import "sync"

// Reference holds a single secondary rate, such as the rupee price of one dollar.
type Reference struct {
	mu        sync.RWMutex
	rate      float64
	observers []func(rate float64)
}

// Subscribe registers fn to run after every accepted rate.
func (r *Reference) Subscribe(fn func(rate float64)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, fn)
}

// SetBaseRate stores rate when positive and reports whether it was accepted.
// Observers run after the lock is released.
func (r *Reference) SetBaseRate(rate float64) bool {
	if !(rate > 0) {
		return false
	}
	r.mu.Lock()
	r.rate = rate
	observers := append(([]func(float64))(nil), r.observers...)
	r.mu.Unlock()

	for _, fn := range observers {
		fn(rate)
	}
	return true
}

// Rate returns the last accepted rate, or 0 when none arrived yet.
func (r *Reference) Rate() float64 {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rate
}

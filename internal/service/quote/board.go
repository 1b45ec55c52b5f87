package quote

import (
	"sync"

	"github.com/mamadbah2/goldquote/internal/domain/models"
)

// Board is an in-memory Display: it keeps the latest snapshot and fans it out to
// subscribers. A subscriber that falls behind only ever sees the newest snapshot.
type Board struct {
	mu     sync.Mutex
	latest models.QuoteSnapshot
	ready  bool
	subs   map[chan models.QuoteSnapshot]struct{}
}

// NewBoard returns an empty board.
func NewBoard() *Board {
	return &Board{subs: make(map[chan models.QuoteSnapshot]struct{})}
}

// Show stores snapshot and pushes it to every subscriber without blocking.
func (b *Board) Show(snapshot models.QuoteSnapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.latest = snapshot
	b.ready = true

	for ch := range b.subs {
		select {
		case ch <- snapshot:
		default:
			// replace the stale pending snapshot
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snapshot:
			default:
			}
		}
	}
}

// Latest returns the last shown snapshot and whether one was shown yet.
func (b *Board) Latest() (models.QuoteSnapshot, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.latest, b.ready
}

// Subscribe returns a channel of future snapshots and a cancel func that closes it.
func (b *Board) Subscribe() (<-chan models.QuoteSnapshot, func()) {
	ch := make(chan models.QuoteSnapshot, 1)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			close(ch)
			b.mu.Unlock()
		})
	}
	return ch, cancel
}

// Subscribers returns the number of active subscriptions.
func (b *Board) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

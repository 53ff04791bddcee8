package handlers

import (
	"sync"
	"time"
)

// Deduper filters duplicate webhook deliveries. WhatsApp retries
// webhooks at-least-once; the core's idempotency assumptions depend on
// the same message id not being processed twice within the window.
type Deduper struct {
	mu     sync.Mutex
	seen   map[string]time.Time
	window time.Duration
	now    func() time.Time
}

func NewDeduper(window time.Duration) *Deduper {
	return &Deduper{
		seen:   make(map[string]time.Time),
		window: window,
		now:    time.Now,
	}
}

// Seen records the message id and reports whether it was already seen
// within the window. Expired entries are pruned as a side effect.
func (d *Deduper) Seen(messageID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	for id, at := range d.seen {
		if now.Sub(at) > d.window {
			delete(d.seen, id)
		}
	}

	if _, ok := d.seen[messageID]; ok {
		return true
	}
	d.seen[messageID] = now
	return false
}

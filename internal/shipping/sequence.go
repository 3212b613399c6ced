package shipping

import (
	"sync"
	"time"
)

// Sequencer hands out monotonically increasing sequence numbers per key and
// answers whether a number is still the latest. Quote responses that lost the
// race to a newer request for the same supplier group are discarded instead
// of overwriting fresher rates.
type Sequencer struct {
	mu   sync.Mutex
	seqs map[string]uint64
}

// NewSequencer builds an empty sequencer.
func NewSequencer() *Sequencer {
	return &Sequencer{seqs: map[string]uint64{}}
}

// Next reserves the next sequence number for key.
func (s *Sequencer) Next(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seqs[key]++
	return s.seqs[key]
}

// IsCurrent reports whether seq is still the newest number issued for key.
func (s *Sequencer) IsCurrent(key string, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seqs[key] == seq
}

// Debouncer coalesces rapid re-quote triggers per key: only the last call
// within the window fires.
type Debouncer struct {
	mu     sync.Mutex
	window time.Duration
	timers map[string]*time.Timer
}

// NewDebouncer builds a debouncer with the given quiet window.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{
		window: window,
		timers: map[string]*time.Timer{},
	}
}

// Trigger schedules fn after the window, cancelling any pending trigger for
// the same key. A zero window fires immediately.
func (d *Debouncer) Trigger(key string, fn func()) {
	if d.window <= 0 {
		fn()
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if timer, ok := d.timers[key]; ok {
		timer.Stop()
	}
	d.timers[key] = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		delete(d.timers, key)
		d.mu.Unlock()
		fn()
	})
}

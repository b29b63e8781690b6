package watcher

import "time"

// backoff produces the reconnect delay sequence: initial, doubling per
// consecutive failure, capped at max. Reset returns to the initial delay
// after a successful list or watch cycle.
type backoff struct {
	initial time.Duration
	max     time.Duration
	current time.Duration
}

func newBackoff(initial, max time.Duration) *backoff {
	if initial <= 0 {
		initial = time.Second
	}
	if max < initial {
		max = initial
	}
	return &backoff{initial: initial, max: max}
}

// Next returns the delay to sleep before the next attempt and advances the
// sequence.
func (b *backoff) Next() time.Duration {
	if b.current == 0 {
		b.current = b.initial
	}
	d := b.current

	b.current *= 2
	if b.current > b.max {
		b.current = b.max
	}
	return d
}

// Reset returns the sequence to its initial delay.
func (b *backoff) Reset() {
	b.current = 0
}

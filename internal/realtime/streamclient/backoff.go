package streamclient

import "time"

const (
	initialBackoff = 1000 * time.Millisecond
	maxBackoff     = 30000 * time.Millisecond
)

// backoff yields the reconnect delay schedule: 1s, 2s, 4s, ... capped at
// 30s, reset to 1s after a successful open.
type backoff struct {
	cur time.Duration
}

func newBackoff() *backoff {
	return &backoff{cur: initialBackoff}
}

func (b *backoff) delay() time.Duration {
	d := b.cur
	b.cur *= 2
	if b.cur > maxBackoff {
		b.cur = maxBackoff
	}
	return d
}

func (b *backoff) reset() {
	b.cur = initialBackoff
}

package offline

import (
	"context"
	"math/rand"
	"time"
)

const (
	backoffSlot = 500 * time.Millisecond
	backoffMax  = 5 * time.Minute
)

// Trigger drives drains without user interaction: a periodic re-check plus
// kicks from the connectivity monitor. It is a best-effort optimization,
// correctness never depends on it.
//
// Retries are unbounded but rate-limited: after a drain cycle where nothing
// succeeded the next automatic attempt backs off exponentially, capped at
// backoffMax. A kick resets the backoff and drains immediately, even when it
// lands mid-backoff: the online transition must not wait out the timer.
type Trigger struct {
	drainer  *Drainer
	queue    *Queue
	interval time.Duration
	kick     chan struct{}
}

func NewTrigger(drainer *Drainer, queue *Queue, interval time.Duration) *Trigger {
	return &Trigger{
		drainer:  drainer,
		queue:    queue,
		interval: interval,
		kick:     make(chan struct{}, 1),
	}
}

// Kick requests an immediate drain. Non-blocking, safe from callbacks.
func (t *Trigger) Kick() {
	select {
	case t.kick <- struct{}{}:
	default:
	}
}

// Run loops until the context is cancelled.
func (t *Trigger) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	var retries int64

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-t.kick:
			retries = 0
		}

		if t.queue.Len() == 0 {
			retries = 0
			continue
		}

		stats := t.drainer.Drain(ctx)
		if stats.Succeeded == 0 && stats.Failed > 0 {
			retries++
			if !t.sleep(ctx, backoffTime(retries, backoffSlot, backoffMax)) {
				return
			}
			continue
		}

		retries = 0
	}
}

// sleep waits for the backoff duration unless the context ends or a kick
// arrives first. A kick consumed here is re-posted so the caller's next
// select sees it and drains right away instead of waiting for the ticker.
// Returns false when the context is done.
func (t *Trigger) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	case <-t.kick:
		t.Kick()
		return true
	}
}

// backoffTime picks a random slot count below 2^retries, capped at maximum.
func backoffTime(retries int64, slot, maximum time.Duration) time.Duration {
	if retries <= 0 || slot <= 0 {
		return 0
	}
	if retries > 20 {
		return maximum
	}

	n := rand.Int63n(int64(1) << retries)
	backoff := time.Duration(n) * slot
	if backoff > maximum {
		backoff = maximum
	}
	return backoff
}

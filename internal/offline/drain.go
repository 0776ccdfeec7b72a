package offline

import (
	"context"
	"sync"

	"github.com/dinein/ordersync/internal/logger"
	"go.uber.org/zap"
)

// Drainer replays queued submissions sequentially in FIFO order. Sequential
// replay preserves enqueue order and avoids duplicate-submission races
// against the same queue snapshot.
type Drainer struct {
	mu      sync.Mutex
	gateway *Gateway
	queue   *Queue
}

func NewDrainer(gateway *Gateway, queue *Queue) *Drainer {
	return &Drainer{gateway: gateway, queue: queue}
}

// DrainStats summarizes one drain cycle.
type DrainStats struct {
	Succeeded int
	Failed    int
}

// Drain attempts every currently queued submission once. Failed entries are
// left queued untouched for the next cycle; a failure does not block the
// entries behind it.
func (d *Drainer) Drain(ctx context.Context) DrainStats {
	d.mu.Lock()
	defer d.mu.Unlock()

	var stats DrainStats

	for _, sub := range d.queue.ListAll() {
		if ctx.Err() != nil {
			break
		}

		if err := d.gateway.Replay(ctx, sub); err != nil {
			stats.Failed++
			logger.Log.Info("queued submission replay failed, keeping it queued",
				zap.String("tempID", sub.TempID),
				zap.Error(err),
			)
			continue
		}

		stats.Succeeded++
		logger.Log.Info("queued submission confirmed", zap.String("tempID", sub.TempID))
	}

	return stats
}

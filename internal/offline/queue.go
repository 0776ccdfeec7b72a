package offline

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dinein/ordersync/internal/logger"
	"github.com/dinein/ordersync/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const queuePrefix = "queue/"

// QueuedSubmission is a not-yet-acknowledged order creation request. It
// exists until the gateway successfully replays it against the server.
type QueuedSubmission struct {
	TempID     string                    `json:"temp_id"`
	Payload    models.CreateOrderRequest `json:"payload"`
	EnqueuedAt time.Time                 `json:"enqueued_at"`
}

// Queue holds queued submissions in the local store, FIFO by a monotonic
// sequence key. It is written by two independent paths, new submissions and
// the drain loop; both read the store on every call instead of caching a
// snapshot.
type Queue struct {
	store *Store
	seq   atomic.Uint64
}

func NewQueue(store *Store) *Queue {
	q := &Queue{store: store}

	// Continue the sequence after the last persisted entry.
	entries := store.scan(queuePrefix)
	if len(entries) > 0 {
		last := entries[len(entries)-1].key
		var seq uint64
		if _, err := fmt.Sscanf(last[len(queuePrefix):], "%016x", &seq); err == nil {
			q.seq.Store(seq)
		}
	}

	return q
}

// Enqueue persists the payload and returns the temporary id the UI can show
// while the submission is pending.
func (q *Queue) Enqueue(payload models.CreateOrderRequest) string {
	sub := QueuedSubmission{
		TempID:     "temp-" + uuid.NewString(),
		Payload:    payload,
		EnqueuedAt: time.Now(),
	}

	data, err := json.Marshal(sub)
	if err != nil {
		logger.Log.Warn("failed to marshal queued submission", zap.Error(err))
		return sub.TempID
	}

	key := fmt.Sprintf("%s%016x", queuePrefix, q.seq.Add(1))
	q.store.put(key, data)

	return sub.TempID
}

// ListAll returns every queued submission in enqueue order. Entries that can
// no longer be decoded are skipped: a corrupted queue degrades to an empty
// one.
func (q *Queue) ListAll() []QueuedSubmission {
	entries := q.store.scan(queuePrefix)

	subs := make([]QueuedSubmission, 0, len(entries))
	for _, entry := range entries {
		var sub QueuedSubmission
		if err := json.Unmarshal(entry.value, &sub); err != nil {
			logger.Log.Warn("skipping corrupted queue entry", zap.String("key", entry.key), zap.Error(err))
			continue
		}
		subs = append(subs, sub)
	}

	return subs
}

// RemoveByIDs deletes submissions by temporary id. The store is re-read
// here, never trusted from an earlier snapshot, so removals interleaved
// with new enqueues stay correct.
func (q *Queue) RemoveByIDs(tempIDs []string) {
	if len(tempIDs) == 0 {
		return
	}

	wanted := make(map[string]bool, len(tempIDs))
	for _, id := range tempIDs {
		wanted[id] = true
	}

	var keys []string
	for _, entry := range q.store.scan(queuePrefix) {
		var sub QueuedSubmission
		if err := json.Unmarshal(entry.value, &sub); err != nil {
			continue
		}
		if wanted[sub.TempID] {
			keys = append(keys, entry.key)
		}
	}

	q.store.delete(keys)
}

// Len reports the number of queued submissions.
func (q *Queue) Len() int {
	return len(q.ListAll())
}

package offline

import (
	"fmt"
	"sync/atomic"
)

const orderLogPrefix = "myorders/"

// OrderLog is the locally-persisted list of confirmed order ids belonging to
// this device. It is the only mechanism by which the customer view discovers
// which orders to subscribe to.
type OrderLog struct {
	store *Store
	seq   atomic.Uint64
}

func NewOrderLog(store *Store) *OrderLog {
	l := &OrderLog{store: store}

	entries := store.scan(orderLogPrefix)
	if len(entries) > 0 {
		last := entries[len(entries)-1].key
		var seq uint64
		if _, err := fmt.Sscanf(last[len(orderLogPrefix):], "%016x", &seq); err == nil {
			l.seq.Store(seq)
		}
	}

	return l
}

// Append records a confirmed order id. Ids already present are not
// duplicated, a replay that succeeds twice stays harmless here.
func (l *OrderLog) Append(orderID string) {
	for _, known := range l.List() {
		if known == orderID {
			return
		}
	}

	key := fmt.Sprintf("%s%016x", orderLogPrefix, l.seq.Add(1))
	l.store.put(key, []byte(orderID))
}

// List returns the confirmed order ids in append order.
func (l *OrderLog) List() []string {
	entries := l.store.scan(orderLogPrefix)

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, string(entry.value))
	}

	return ids
}

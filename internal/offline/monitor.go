package offline

import (
	"context"
	"sync"
	"time"

	"github.com/dinein/ordersync/internal/logger"
)

// Monitor tracks online/offline state and notifies listeners on the
// offline-to-online edge. Spurious transitions are tolerated: every listener
// only acts on whatever is currently queued, so repeated firings are
// harmless.
type Monitor struct {
	mu       sync.Mutex
	online   bool
	onOnline []func()
}

func NewMonitor(initiallyOnline bool) *Monitor {
	return &Monitor{online: initiallyOnline}
}

// Online reports the current connectivity state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// OnOnline registers a callback fired on every offline-to-online transition.
// Callbacks must not block.
func (m *Monitor) OnOnline(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onOnline = append(m.onOnline, fn)
}

// SetOnline updates the state and fires the transition callbacks when the
// state flips from offline to online.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	wasOnline := m.online
	m.online = online
	callbacks := m.onOnline
	m.mu.Unlock()

	if online && !wasOnline {
		logger.Log.Info("connectivity restored")
		for _, fn := range callbacks {
			fn()
		}
	}
	if !online && wasOnline {
		logger.Log.Info("connectivity lost")
	}
}

// StartProbe runs an active connectivity check on an interval. The probe is
// optional: without it the application feeds SetOnline from whatever
// platform signal it has.
func (m *Monitor) StartProbe(ctx context.Context, interval time.Duration, probe func(ctx context.Context) bool) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.SetOnline(probe(ctx))
			}
		}
	}()
}

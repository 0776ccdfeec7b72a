package reconcile

import (
	"context"
	"sync"

	"github.com/dinein/ordersync/internal/models"
)

// OrderFetcher is the pull side of the customer view: a full refetch of the
// tracked order, used on initial mount and as a manual refresh.
type OrderFetcher interface {
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
}

// CustomerReconciler tracks a single confirmed order. While the feed
// subscription is active it is the sole source of status truth: update
// events replace the locally held status and payment status, and no polling
// happens. Provisional (queued) submissions are never tracked here, they
// have no server id to subscribe to.
type CustomerReconciler struct {
	mu      sync.Mutex
	orderID string
	fetcher OrderFetcher
	order   *models.Order
}

func NewCustomerReconciler(orderID string, fetcher OrderFetcher) *CustomerReconciler {
	return &CustomerReconciler{orderID: orderID, fetcher: fetcher}
}

// Refresh pulls the authoritative order and replaces the tracked value
// wholesale. Safe to race with the subscription: last write wins on the
// whole value, never on single fields.
func (c *CustomerReconciler) Refresh(ctx context.Context) error {
	order, err := c.fetcher.GetOrder(ctx, c.orderID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.order = order
	c.mu.Unlock()

	return nil
}

// Apply consumes one feed event. Events for other orders are ignored. Once
// a terminal status is held no further change is applied.
func (c *CustomerReconciler) Apply(event models.Event) {
	if event.Order.ID != c.orderID {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.order == nil {
		order := event.Order
		c.order = &order
		return
	}

	if c.order.Status.IsTerminal() {
		return
	}

	c.order.Status = event.Order.Status
	c.order.PaymentStatus = event.Order.PaymentStatus
}

// Run consumes events until the channel closes or the context ends.
func (c *CustomerReconciler) Run(ctx context.Context, events <-chan models.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			c.Apply(event)
		}
	}
}

// Order returns a snapshot of the tracked order, nil before the first
// refresh or event.
func (c *CustomerReconciler) Order() *models.Order {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.order == nil {
		return nil
	}
	order := *c.order
	return &order
}

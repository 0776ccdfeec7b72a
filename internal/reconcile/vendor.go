package reconcile

import (
	"context"
	"sync"

	"github.com/dinein/ordersync/internal/logger"
	"github.com/dinein/ordersync/internal/models"
	"go.uber.org/zap"
)

// VenueOrderAPI is what the vendor view needs from the server: the full
// active-orders pull and the status transition endpoint.
type VenueOrderAPI interface {
	GetActiveOrders(ctx context.Context, venueID string) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) (*models.Order, error)
}

// Notifier receives the attention signal for a genuinely new order. Sound
// and push delivery live outside this core, only the trigger point is here:
// exactly once per order while it stays in the active set.
type Notifier interface {
	NotifyNewOrder(order models.Order)
}

// NopNotifier discards attention signals.
type NopNotifier struct{}

func (NopNotifier) NotifyNewOrder(models.Order) {}

// VendorReconciler maintains the venue's active order working set: feed
// events, full refetches and optimistic local status changes merge into one
// consistent list. Kitchen views show only actionable orders, terminal ones
// leave the set.
type VendorReconciler struct {
	mu       sync.Mutex
	venueID  string
	api      VenueOrderAPI
	notifier Notifier
	orders   []models.Order
	alerted  map[string]bool
}

func NewVendorReconciler(venueID string, api VenueOrderAPI, notifier Notifier) *VendorReconciler {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &VendorReconciler{
		venueID:  venueID,
		api:      api,
		notifier: notifier,
		alerted:  make(map[string]bool),
	}
}

// Refresh replaces the whole working set with the server's active orders.
// The alert memory is rebuilt from the fetched set: active orders never
// re-alert on a refetch, and ids that left the venue's active set stop
// occupying memory.
func (v *VendorReconciler) Refresh(ctx context.Context) error {
	orders, err := v.api.GetActiveOrders(ctx, v.venueID)
	if err != nil {
		return err
	}

	alerted := make(map[string]bool, len(orders))
	for _, order := range orders {
		alerted[order.ID] = true
	}

	v.mu.Lock()
	v.orders = orders
	v.alerted = alerted
	v.mu.Unlock()

	return nil
}

// Apply consumes one feed event.
//
// Insert of a non-terminal order prepends it unless already present, the
// duplicate-delivery guard, and raises the attention signal once per order
// while it stays active. Update to a terminal status removes the order along
// with its alert memory; any other update replaces the entry in place,
// preserving its position. Updates for unknown orders are dropped, the next
// refetch covers them.
func (v *VendorReconciler) Apply(event models.Event) {
	v.mu.Lock()

	var notify *models.Order

	switch event.Type {
	case models.EventOrderInserted:
		if event.Order.Status.IsTerminal() || v.indexOf(event.Order.ID) >= 0 {
			break
		}
		v.orders = append([]models.Order{event.Order}, v.orders...)
		if !v.alerted[event.Order.ID] {
			v.alerted[event.Order.ID] = true
			order := event.Order
			notify = &order
		}

	case models.EventOrderUpdated:
		idx := v.indexOf(event.Order.ID)
		if idx < 0 {
			break
		}
		if event.Order.Status.IsTerminal() {
			v.orders = append(v.orders[:idx], v.orders[idx+1:]...)
			// The id can't come back non-terminal, its alert memory is freed.
			delete(v.alerted, event.Order.ID)
			break
		}
		v.orders[idx] = event.Order
	}

	v.mu.Unlock()

	if notify != nil {
		v.notifier.NotifyNewOrder(*notify)
	}
}

// ApplyStatus is a vendor action: the new status lands in the working set
// immediately, then the server transition is issued. When the server
// rejects it the optimistic state is discarded by a full refetch, never by
// a partial rollback.
func (v *VendorReconciler) ApplyStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	v.mu.Lock()
	if idx := v.indexOf(orderID); idx >= 0 {
		v.orders[idx].Status = status
	}
	v.mu.Unlock()

	if _, err := v.api.UpdateOrderStatus(ctx, orderID, status); err != nil {
		logger.Log.Warn("status update rejected, refetching working set",
			zap.String("orderID", orderID),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		if refreshErr := v.Refresh(ctx); refreshErr != nil {
			logger.Log.Error("failed to refetch after rejected update", zap.Error(refreshErr))
		}
		return err
	}

	if status.IsTerminal() {
		v.mu.Lock()
		if idx := v.indexOf(orderID); idx >= 0 {
			v.orders = append(v.orders[:idx], v.orders[idx+1:]...)
		}
		delete(v.alerted, orderID)
		v.mu.Unlock()
	}

	return nil
}

// Run consumes events until the channel closes or the context ends.
func (v *VendorReconciler) Run(ctx context.Context, events <-chan models.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			v.Apply(event)
		}
	}
}

// Orders returns a snapshot of the working set.
func (v *VendorReconciler) Orders() []models.Order {
	v.mu.Lock()
	defer v.mu.Unlock()

	orders := make([]models.Order, len(v.orders))
	copy(orders, v.orders)
	return orders
}

// indexOf must be called with the mutex held.
func (v *VendorReconciler) indexOf(orderID string) int {
	for i, order := range v.orders {
		if order.ID == orderID {
			return i
		}
	}
	return -1
}

package offline

import (
	"context"
	"errors"

	"github.com/dinein/ordersync/internal/api"
	"github.com/dinein/ordersync/internal/logger"
	"github.com/dinein/ordersync/internal/models"
	"go.uber.org/zap"
)

// OrderCreator is the server-side creation endpoint as seen by the client.
type OrderCreator interface {
	CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.Order, error)
}

// SubmitResult distinguishes a confirmed order from a provisionally queued
// one. A queued result is not a trackable server order yet: there is no
// server id to subscribe to, and the UI must show the submission as pending
// synchronization.
type SubmitResult struct {
	Confirmed bool
	Order     *models.Order // set when confirmed
	TempID    string        // set when queued
}

// Gateway is the single entry point an ordering UI calls to place an order.
// It decides between a direct submission and the durable queue, and owns the
// "my orders" side effect for confirmed creations.
type Gateway struct {
	creator  OrderCreator
	queue    *Queue
	orderLog *OrderLog
	monitor  *Monitor
}

func NewGateway(creator OrderCreator, queue *Queue, orderLog *OrderLog, monitor *Monitor) *Gateway {
	return &Gateway{
		creator:  creator,
		queue:    queue,
		orderLog: orderLog,
		monitor:  monitor,
	}
}

// Submit places an order. While offline no network attempt is made, the
// payload goes straight to the queue. A network-class failure of the direct
// attempt falls back to the queue as well. Validation failures are returned
// to the caller and never queued: retrying them would repeat the failure.
func (g *Gateway) Submit(ctx context.Context, req models.CreateOrderRequest) (SubmitResult, error) {
	if err := req.Validate(); err != nil {
		return SubmitResult{}, err
	}

	if !g.monitor.Online() {
		return g.enqueue(req), nil
	}

	order, err := g.creator.CreateOrder(ctx, req)
	if err != nil {
		if errors.Is(err, api.ErrUnavailable) {
			logger.Log.Info("direct submission failed, queueing order", zap.Error(err))
			return g.enqueue(req), nil
		}
		return SubmitResult{}, err
	}

	g.orderLog.Append(order.ID)

	return SubmitResult{Confirmed: true, Order: order}, nil
}

// Replay pushes one queued submission through the same creation path. On
// success the submission leaves the queue and the order id is recorded; on
// failure the submission stays queued for the next drain cycle.
func (g *Gateway) Replay(ctx context.Context, sub QueuedSubmission) error {
	order, err := g.creator.CreateOrder(ctx, sub.Payload)
	if err != nil {
		return err
	}

	g.orderLog.Append(order.ID)
	g.queue.RemoveByIDs([]string{sub.TempID})

	return nil
}

func (g *Gateway) enqueue(req models.CreateOrderRequest) SubmitResult {
	tempID := g.queue.Enqueue(req)
	return SubmitResult{TempID: tempID}
}

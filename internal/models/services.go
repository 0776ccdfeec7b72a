package models

import (
	"context"
)

//go:generate mockgen -destination=mocks/mock_order.go . OrderService
type OrderService interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error)

	GetOrder(ctx context.Context, orderID string) (*Order, error)

	GetOrdersByIDs(ctx context.Context, orderIDs []string) ([]Order, error)

	GetActiveOrders(ctx context.Context, venueID string) ([]Order, error)

	UpdateOrderStatus(ctx context.Context, orderID string, status OrderStatus) (*Order, error)

	MarkPaid(ctx context.Context, orderID string) (*Order, error)
}

package models

import (
	"errors"
	"fmt"

	"github.com/dinein/ordersync/internal/utils"
)

type OrderStatus string

const (
	StatusPlaced    OrderStatus = "placed"
	StatusReceived  OrderStatus = "received"
	StatusServed    OrderStatus = "served"
	StatusCancelled OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// statusEdges перечисляет допустимые переходы статуса заказа.
// Из терминальных статусов (served, cancelled) переходов нет.
var statusEdges = map[OrderStatus][]OrderStatus{
	StatusPlaced:   {StatusReceived, StatusCancelled},
	StatusReceived: {StatusServed, StatusCancelled},
}

// CanTransition сообщает, является ли переход from -> to допустимым ребром
// машины состояний заказа.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range statusEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal сообщает, что дальнейшие переходы статуса невозможны.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusServed || s == StatusCancelled
}

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPlaced, StatusReceived, StatusServed, StatusCancelled:
		return true
	}
	return false
}

func (s PaymentStatus) Valid() bool {
	return s == PaymentUnpaid || s == PaymentPaid
}

type OrderItem struct {
	ItemID    string   `json:"item_id"`
	Name      string   `json:"name"`
	UnitPrice float64  `json:"unit_price"`
	Quantity  int      `json:"qty"`
	Modifiers []string `json:"modifiers,omitempty"`
}

type Order struct {
	ID            string            `json:"id"`
	OrderCode     string            `json:"order_code"`
	VenueID       string            `json:"venue_id"`
	TableLabel    string            `json:"table_label"`
	Items         []OrderItem       `json:"items"`
	TotalAmount   float64           `json:"total_amount"`
	Currency      string            `json:"currency"`
	Note          string            `json:"note,omitempty"`
	Status        OrderStatus       `json:"status"`
	PaymentStatus PaymentStatus     `json:"payment_status"`
	CreatedAt     utils.RFC3339Date `json:"created_at"`
}

// CreateOrderRequest - полезная нагрузка на создание заказа. TableLabel не
// валидируется по формату: для ядра это непрозрачная строка, которую видит
// только продавец.
type CreateOrderRequest struct {
	VenueID     string      `json:"venue_id"`
	TableLabel  string      `json:"table_label"`
	Items       []OrderItem `json:"items"`
	TotalAmount float64     `json:"total_amount,omitempty"`
	Note        string      `json:"note,omitempty"`
}

var ErrEmptyOrder = errors.New("order has no items")

// Validate выполняет минимальную проверку полей перед отправкой.
func (r CreateOrderRequest) Validate() error {
	if r.VenueID == "" {
		return fmt.Errorf("venue_id is required")
	}
	if len(r.Items) == 0 {
		return ErrEmptyOrder
	}
	for _, item := range r.Items {
		if item.ItemID == "" {
			return fmt.Errorf("item_id is required")
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("quantity must be > 0 for item %s", item.ItemID)
		}
		if item.UnitPrice < 0 {
			return fmt.Errorf("unit price must not be negative for item %s", item.ItemID)
		}
	}
	return nil
}

// ComputedTotal возвращает сумму позиций. Клиентский TotalAmount носит
// справочный характер, сервер всегда пересчитывает сумму сам.
func (r CreateOrderRequest) ComputedTotal() float64 {
	var total float64
	for _, item := range r.Items {
		total += item.UnitPrice * float64(item.Quantity)
	}
	return total
}

type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status"`
}

type MarkPaidRequest struct {
	PaymentStatus PaymentStatus `json:"payment_status"`
}

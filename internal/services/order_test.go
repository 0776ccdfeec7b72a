package services

import (
	"context"
	"testing"

	"github.com/dinein/ordersync/internal/database"
	"github.com/dinein/ordersync/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStorage struct {
	orders        map[string]*database.OrderDB
	duplicateHits int
	createCalls   int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{orders: make(map[string]*database.OrderDB)}
}

func (f *fakeStorage) CreateOrder(_ context.Context, order *database.OrderDB) error {
	f.createCalls++
	if f.duplicateHits > 0 {
		f.duplicateHits--
		return database.ErrDuplicateOrderCode
	}
	stored := *order
	f.orders[order.ID] = &stored
	return nil
}

func (f *fakeStorage) FindOrder(_ context.Context, orderID string) (*database.OrderDB, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return nil, nil
	}
	copied := *order
	return &copied, nil
}

func (f *fakeStorage) FindOrdersByIDs(_ context.Context, orderIDs []string) ([]database.OrderDB, error) {
	var rows []database.OrderDB
	for _, id := range orderIDs {
		if order, ok := f.orders[id]; ok {
			rows = append(rows, *order)
		}
	}
	return rows, nil
}

func (f *fakeStorage) FindActiveOrdersByVenue(_ context.Context, venueID string) ([]database.OrderDB, error) {
	var rows []database.OrderDB
	for _, order := range f.orders {
		if order.VenueID == venueID && !order.Status.OrderStatus.IsTerminal() {
			rows = append(rows, *order)
		}
	}
	return rows, nil
}

func (f *fakeStorage) TransitionOrderStatus(_ context.Context, orderID string, target models.OrderStatus) error {
	order, ok := f.orders[orderID]
	if !ok {
		return database.ErrOrderNotFound
	}
	if !models.CanTransition(order.Status.OrderStatus, target) {
		return database.ErrInvalidTransition
	}
	order.Status = database.OrderStatusDB{OrderStatus: target}
	return nil
}

func (f *fakeStorage) MarkOrderPaid(_ context.Context, orderID string) error {
	order, ok := f.orders[orderID]
	if !ok {
		return database.ErrOrderNotFound
	}
	if order.PaymentStatus == string(models.PaymentPaid) {
		return database.ErrAlreadyPaid
	}
	order.PaymentStatus = string(models.PaymentPaid)
	return nil
}

type fakeFeed struct {
	events []models.Event
	err    error
}

func (f *fakeFeed) Publish(_ context.Context, event models.Event) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func validRequest() models.CreateOrderRequest {
	return models.CreateOrderRequest{
		VenueID:    "venue-1",
		TableLabel: "T1",
		// Клиентская сумма заведомо неверна, сервер должен пересчитать её сам.
		TotalAmount: 999,
		Items: []models.OrderItem{
			{ItemID: "espresso", Name: "Espresso", UnitPrice: 2.5, Quantity: 2},
			{ItemID: "croissant", Name: "Croissant", UnitPrice: 3.2, Quantity: 1},
		},
	}
}

func TestCreateOrder(t *testing.T) {
	storage := newFakeStorage()
	feed := &fakeFeed{}
	service := NewOrderService(storage, feed)

	order, err := service.CreateOrder(context.Background(), validRequest())

	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	assert.Regexp(t, `^DIN-[0-9A-Z]{1,4}-[0-9A-Z]{4}$`, order.OrderCode)
	assert.Equal(t, models.StatusReceived, order.Status)
	assert.Equal(t, models.PaymentUnpaid, order.PaymentStatus)
	assert.Equal(t, "EUR", order.Currency)
	assert.InDelta(t, 8.2, order.TotalAmount, 0.0001)

	require.Len(t, feed.events, 1)
	assert.Equal(t, models.EventOrderInserted, feed.events[0].Type)
	assert.Equal(t, order.ID, feed.events[0].Order.ID)
}

func TestCreateOrderValidation(t *testing.T) {
	service := NewOrderService(newFakeStorage(), &fakeFeed{})

	_, err := service.CreateOrder(context.Background(), models.CreateOrderRequest{VenueID: "venue-1"})

	assert.ErrorIs(t, err, ErrInvalidOrder)
}

func TestCreateOrderRetriesDuplicateCode(t *testing.T) {
	storage := newFakeStorage()
	storage.duplicateHits = 2
	service := NewOrderService(storage, &fakeFeed{})

	order, err := service.CreateOrder(context.Background(), validRequest())

	require.NoError(t, err)
	assert.NotNil(t, order)
	assert.Equal(t, 3, storage.createCalls)
}

func TestCreateOrderSurvivesFeedFailure(t *testing.T) {
	storage := newFakeStorage()
	feed := &fakeFeed{err: assert.AnError}
	service := NewOrderService(storage, feed)

	order, err := service.CreateOrder(context.Background(), validRequest())

	// Заказ зафиксирован, отказ публикации не откатывает мутацию.
	require.NoError(t, err)
	assert.NotNil(t, order)
}

func TestUpdateOrderStatus(t *testing.T) {
	storage := newFakeStorage()
	feed := &fakeFeed{}
	service := NewOrderService(storage, feed)

	created, err := service.CreateOrder(context.Background(), validRequest())
	require.NoError(t, err)

	updated, err := service.UpdateOrderStatus(context.Background(), created.ID, models.StatusServed)

	require.NoError(t, err)
	assert.Equal(t, models.StatusServed, updated.Status)

	require.Len(t, feed.events, 2)
	assert.Equal(t, models.EventOrderUpdated, feed.events[1].Type)
	assert.Equal(t, models.StatusServed, feed.events[1].Order.Status)
}

func TestUpdateOrderStatusErrors(t *testing.T) {
	storage := newFakeStorage()
	service := NewOrderService(storage, &fakeFeed{})

	created, err := service.CreateOrder(context.Background(), validRequest())
	require.NoError(t, err)

	_, err = service.UpdateOrderStatus(context.Background(), "missing-id", models.StatusServed)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = service.UpdateOrderStatus(context.Background(), created.ID, models.OrderStatus("burnt"))
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = service.UpdateOrderStatus(context.Background(), created.ID, models.StatusReceived)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Терминальный статус заморожен.
	_, err = service.UpdateOrderStatus(context.Background(), created.ID, models.StatusServed)
	require.NoError(t, err)

	_, err = service.UpdateOrderStatus(context.Background(), created.ID, models.StatusCancelled)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestMarkPaid(t *testing.T) {
	storage := newFakeStorage()
	feed := &fakeFeed{}
	service := NewOrderService(storage, feed)

	created, err := service.CreateOrder(context.Background(), validRequest())
	require.NoError(t, err)

	paid, err := service.MarkPaid(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, paid.PaymentStatus)
	// Статус заказа не меняется вместе со статусом оплаты.
	assert.Equal(t, models.StatusReceived, paid.Status)

	_, err = service.MarkPaid(context.Background(), created.ID)
	assert.ErrorIs(t, err, ErrAlreadyPaid)

	_, err = service.MarkPaid(context.Background(), "missing-id")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestGetOrder(t *testing.T) {
	storage := newFakeStorage()
	service := NewOrderService(storage, &fakeFeed{})

	created, err := service.CreateOrder(context.Background(), validRequest())
	require.NoError(t, err)

	found, err := service.GetOrder(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = service.GetOrder(context.Background(), "missing-id")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestGenerateOrderCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := generateOrderCode()
		assert.Regexp(t, `^DIN-[0-9A-Z]{1,4}-[0-9A-Z]{4}$`, code)
		seen[code] = true
	}
	// Случайный суффикс даёт разброс даже в пределах одной миллисекунды.
	assert.Greater(t, len(seen), 1)
}

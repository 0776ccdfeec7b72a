package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/dinein/ordersync/internal/database"
	"github.com/dinein/ordersync/internal/logger"
	"github.com/dinein/ordersync/internal/models"
	"github.com/dinein/ordersync/internal/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Определяем ошибки, связанные с заказами
var (
	ErrInvalidOrder      = errors.New("заказ не прошел валидацию")
	ErrOrderNotFound     = errors.New("заказ не найден")
	ErrInvalidTransition = errors.New("недопустимый переход статуса заказа")
	ErrAlreadyPaid       = errors.New("заказ уже оплачен")
)

const (
	defaultCurrency      = "EUR"
	orderCodeAttempts    = 10
	orderCodeRandomChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// OrderService владеет созданием заказов и машиной состояний статуса.
// Каждая принятая мутация публикуется в ленту изменений до возврата
// управления вызывающей стороне.
type OrderService struct {
	storage orderStorage
	feed    feedPublisher
}

type orderStorage interface {
	CreateOrder(ctx context.Context, order *database.OrderDB) error
	FindOrder(ctx context.Context, orderID string) (*database.OrderDB, error)
	FindOrdersByIDs(ctx context.Context, orderIDs []string) ([]database.OrderDB, error)
	FindActiveOrdersByVenue(ctx context.Context, venueID string) ([]database.OrderDB, error)
	TransitionOrderStatus(ctx context.Context, orderID string, target models.OrderStatus) error
	MarkOrderPaid(ctx context.Context, orderID string) error
}

type feedPublisher interface {
	Publish(ctx context.Context, event models.Event) error
}

func NewOrderService(storage orderStorage, feed feedPublisher) *OrderService {
	return &OrderService{storage: storage, feed: feed}
}

// CreateOrder создает заказ. Сумма пересчитывается на сервере из позиций,
// клиентская сумма носит справочный характер. Короткий код заказа уникален
// в рамках заведения, при коллизии генерируется новый.
func (o *OrderService) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidOrder, err)
	}

	row := database.OrderDB{
		ID:            uuid.NewString(),
		VenueID:       req.VenueID,
		TableLabel:    req.TableLabel,
		TotalAmount:   req.ComputedTotal(),
		Currency:      defaultCurrency,
		Note:          req.Note,
		Status:        database.OrderStatusDB{OrderStatus: models.StatusReceived},
		PaymentStatus: string(models.PaymentUnpaid),
		Items:         toItemRows(req.Items),
	}

	var err error
	for attempt := 0; attempt < orderCodeAttempts; attempt++ {
		row.OrderCode = generateOrderCode()
		err = o.storage.CreateOrder(ctx, &row)
		if !errors.Is(err, database.ErrDuplicateOrderCode) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	order := toModel(row)
	o.publish(ctx, models.Event{Type: models.EventOrderInserted, Order: order})

	return &order, nil
}

// UpdateOrderStatus применяет переход статуса и публикует событие
// обновления. Недопустимые переходы отклоняются без побочных эффектов.
func (o *OrderService) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, status)
	}

	if err := o.storage.TransitionOrderStatus(ctx, orderID, status); err != nil {
		if errors.Is(err, database.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		if errors.Is(err, database.ErrInvalidTransition) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidTransition, err)
		}
		return nil, err
	}

	return o.publishUpdated(ctx, orderID)
}

// MarkPaid переводит статус оплаты в paid. Статус оплаты не связан со
// статусом заказа: обслуженный заказ может оставаться неоплаченным.
func (o *OrderService) MarkPaid(ctx context.Context, orderID string) (*models.Order, error) {
	if err := o.storage.MarkOrderPaid(ctx, orderID); err != nil {
		if errors.Is(err, database.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		if errors.Is(err, database.ErrAlreadyPaid) {
			return nil, ErrAlreadyPaid
		}
		return nil, err
	}

	return o.publishUpdated(ctx, orderID)
}

func (o *OrderService) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	row, err := o.storage.FindOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrOrderNotFound
	}

	order := toModel(*row)
	return &order, nil
}

func (o *OrderService) GetOrdersByIDs(ctx context.Context, orderIDs []string) ([]models.Order, error) {
	rows, err := o.storage.FindOrdersByIDs(ctx, orderIDs)
	if err != nil {
		return nil, err
	}
	return toModels(rows), nil
}

func (o *OrderService) GetActiveOrders(ctx context.Context, venueID string) ([]models.Order, error) {
	rows, err := o.storage.FindActiveOrdersByVenue(ctx, venueID)
	if err != nil {
		return nil, err
	}
	return toModels(rows), nil
}

func (o *OrderService) publishUpdated(ctx context.Context, orderID string) (*models.Order, error) {
	row, err := o.storage.FindOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrOrderNotFound
	}

	order := toModel(*row)
	o.publish(ctx, models.Event{Type: models.EventOrderUpdated, Order: order})

	return &order, nil
}

// publish отправляет событие в ленту. Отказ публикации не отменяет уже
// зафиксированную мутацию, подписчики доберут состояние полным refetch.
func (o *OrderService) publish(ctx context.Context, event models.Event) {
	if err := o.feed.Publish(ctx, event); err != nil {
		logger.Log.Error("failed to publish feed event",
			zap.String("orderID", event.Order.ID),
			zap.String("type", string(event.Type)),
			zap.Error(err),
		)
	}
}

// generateOrderCode собирает короткий человекочитаемый код заказа вида
// DIN-XXXX-XXXX из хвоста отметки времени и случайного суффикса.
func generateOrderCode() string {
	ts := strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))
	if len(ts) > 4 {
		ts = ts[len(ts)-4:]
	}

	suffix := make([]byte, 4)
	for i := range suffix {
		suffix[i] = orderCodeRandomChars[rand.Intn(len(orderCodeRandomChars))]
	}

	return fmt.Sprintf("DIN-%s-%s", ts, suffix)
}

func toItemRows(items []models.OrderItem) []database.OrderItemDB {
	rows := make([]database.OrderItemDB, len(items))
	for i, item := range items {
		rows[i] = database.OrderItemDB{
			ItemID:    item.ItemID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Qty:       item.Quantity,
			Modifiers: item.Modifiers,
		}
	}
	return rows
}

func toModel(row database.OrderDB) models.Order {
	items := make([]models.OrderItem, len(row.Items))
	for i, item := range row.Items {
		items[i] = models.OrderItem{
			ItemID:    item.ItemID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Qty,
			Modifiers: item.Modifiers,
		}
	}

	return models.Order{
		ID:            row.ID,
		OrderCode:     row.OrderCode,
		VenueID:       row.VenueID,
		TableLabel:    row.TableLabel,
		Items:         items,
		TotalAmount:   row.TotalAmount,
		Currency:      row.Currency,
		Note:          row.Note,
		Status:        row.Status.OrderStatus,
		PaymentStatus: models.PaymentStatus(row.PaymentStatus),
		CreatedAt:     utils.RFC3339Date{Time: row.CreatedAt},
	}
}

func toModels(rows []database.OrderDB) []models.Order {
	result := make([]models.Order, len(rows))
	for i, row := range rows {
		result[i] = toModel(row)
	}
	return result
}

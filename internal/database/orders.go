package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/dinein/ordersync/internal/models"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Определение пользовательских ошибок
var (
	ErrDuplicateOrderCode = errors.New("код заказа уже существует")      // Коллизия короткого кода в рамках заведения
	ErrOrderNotFound      = errors.New("заказ не найден")                // Заказ с таким идентификатором отсутствует
	ErrInvalidTransition  = errors.New("недопустимый переход статуса")   // Переход не является ребром машины состояний
	ErrAlreadyPaid        = errors.New("заказ уже отмечен как оплаченный") // Повторная отметка оплаты
)

// SQL-запросы для работы с заказами
const (
	insertOrderQuery = `
		INSERT INTO
			orders (id, venue_id, order_code, table_label, total_amount, currency, note, status, payment_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`
	insertOrderItemQuery = `
		INSERT INTO
			order_items (order_id, item_id, name_snapshot, price_snapshot, qty, modifiers)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	selectOrderQuery = `
		SELECT
			id,
			venue_id,
			order_code,
			table_label,
			total_amount,
			currency,
			note,
			status,
			payment_status,
			created_at
		FROM
			orders
		WHERE
			id = $1
	`
	selectOrdersByIDsQuery = `
		SELECT
			id,
			venue_id,
			order_code,
			table_label,
			total_amount,
			currency,
			note,
			status,
			payment_status,
			created_at
		FROM
			orders
		WHERE
			id = ANY($1)
		ORDER BY
			created_at
	`
	selectActiveOrdersQuery = `
		SELECT
			id,
			venue_id,
			order_code,
			table_label,
			total_amount,
			currency,
			note,
			status,
			payment_status,
			created_at
		FROM
			orders
		WHERE
			venue_id = $1
			AND status NOT IN ('served', 'cancelled')
		ORDER BY
			created_at DESC
	`
	selectOrderItemsQuery = `
		SELECT
			order_id,
			item_id,
			name_snapshot,
			price_snapshot,
			qty,
			modifiers
		FROM
			order_items
		WHERE
			order_id = ANY($1)
		ORDER BY
			id
	`
	// Переход статуса выполняется условным обновлением одной строки: строка
	// меняется только если текущий статус допускает запрошенное ребро.
	transitionOrderStatusQuery = `
		UPDATE
			orders
		SET
			status = $2
		WHERE
			id = $1
			AND status = ANY($3)
	`
	markOrderPaidQuery = `
		UPDATE
			orders
		SET
			payment_status = 'paid'
		WHERE
			id = $1
			AND payment_status = 'unpaid'
	`
)

// OrderDB хранит строку заказа из базы данных.
type OrderDB struct {
	ID            string
	VenueID       string
	OrderCode     string
	TableLabel    string
	TotalAmount   float64
	Currency      string
	Note          string
	Status        OrderStatusDB
	PaymentStatus string
	CreatedAt     time.Time
	Items         []OrderItemDB
}

// OrderItemDB хранит позицию заказа со снимком названия и цены на момент создания.
type OrderItemDB struct {
	OrderID   string
	ItemID    string
	Name      string
	UnitPrice float64
	Qty       int
	Modifiers []string
}

// OrderStatusDB оборачивает статус для чтения и записи в базу данных.
type OrderStatusDB struct {
	models.OrderStatus
}

// Реализация интерфейса sql.Scanner для чтения статуса заказа из базы данных
func (s *OrderStatusDB) Scan(value interface{}) error {
	strVal, ok := value.(string)
	if !ok {
		return fmt.Errorf("статус заказа должен быть строкой, а не %T", value)
	}

	*s = OrderStatusDB{models.OrderStatus(strVal)}
	return nil
}

// Реализация интерфейса driver.Valuer для записи статуса заказа в базу данных
func (s OrderStatusDB) Value() (driver.Value, error) {
	return string(s.OrderStatus), nil
}

// CreateOrder вставляет заказ вместе с позициями в одной транзакции.
// Поле CreatedAt заполняется значением, присвоенным базой данных.
func (d *Database) CreateOrder(ctx context.Context, order *OrderDB) error {
	tx, err := d.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка открытия транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(
		ctx,
		insertOrderQuery,
		order.ID,
		order.VenueID,
		order.OrderCode,
		order.TableLabel,
		order.TotalAmount,
		order.Currency,
		order.Note,
		order.Status,
		order.PaymentStatus,
	).Scan(&order.CreatedAt)
	if err != nil {
		var e *pgconn.PgError
		// Уникальный индекс (venue_id, order_code) защищает короткий код заказа
		if errors.As(err, &e) && e.Code == pgerrcode.UniqueViolation {
			return ErrDuplicateOrderCode
		}
		return fmt.Errorf("ошибка создания заказа: %w", err)
	}

	for _, item := range order.Items {
		_, err = tx.Exec(
			ctx,
			insertOrderItemQuery,
			order.ID,
			item.ItemID,
			item.Name,
			item.UnitPrice,
			item.Qty,
			item.Modifiers,
		)
		if err != nil {
			return fmt.Errorf("ошибка создания позиции заказа: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}

	return nil
}

// FindOrder возвращает заказ с позициями по его идентификатору.
func (d *Database) FindOrder(ctx context.Context, orderID string) (*OrderDB, error) {
	order := &OrderDB{}

	err := d.db.QueryRow(ctx, selectOrderQuery, orderID).Scan(
		&order.ID,
		&order.VenueID,
		&order.OrderCode,
		&order.TableLabel,
		&order.TotalAmount,
		&order.Currency,
		&order.Note,
		&order.Status,
		&order.PaymentStatus,
		&order.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка поиска заказа: %w", err)
	}

	if err := d.attachItems(ctx, []*OrderDB{order}); err != nil {
		return nil, err
	}

	return order, nil
}

// FindOrdersByIDs возвращает заказы по списку идентификаторов (выборка "мои заказы").
func (d *Database) FindOrdersByIDs(ctx context.Context, orderIDs []string) ([]OrderDB, error) {
	return d.findOrders(ctx, selectOrdersByIDsQuery, orderIDs)
}

// FindActiveOrdersByVenue возвращает нетерминальные заказы заведения,
// новые заказы идут первыми.
func (d *Database) FindActiveOrdersByVenue(ctx context.Context, venueID string) ([]OrderDB, error) {
	return d.findOrders(ctx, selectActiveOrdersQuery, venueID)
}

func (d *Database) findOrders(ctx context.Context, query string, arg interface{}) ([]OrderDB, error) {
	var result []OrderDB

	rows, err := d.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска заказов: %w", err)
	}
	defer rows.Close()

	// Обрабатываем каждую строку результата
	for rows.Next() {
		var item OrderDB
		if err := rows.Scan(
			&item.ID,
			&item.VenueID,
			&item.OrderCode,
			&item.TableLabel,
			&item.TotalAmount,
			&item.Currency,
			&item.Note,
			&item.Status,
			&item.PaymentStatus,
			&item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка обработки строки с заказом: %w", err)
		}
		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации по строкам: %w", err)
	}

	refs := make([]*OrderDB, len(result))
	for i := range result {
		refs[i] = &result[i]
	}
	if err := d.attachItems(ctx, refs); err != nil {
		return nil, err
	}

	return result, nil
}

// attachItems дочитывает позиции для набора заказов одним запросом.
func (d *Database) attachItems(ctx context.Context, orders []*OrderDB) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, len(orders))
	byID := make(map[string]*OrderDB, len(orders))
	for i, order := range orders {
		ids[i] = order.ID
		byID[order.ID] = order
	}

	rows, err := d.db.Query(ctx, selectOrderItemsQuery, ids)
	if err != nil {
		return fmt.Errorf("ошибка поиска позиций заказа: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item OrderItemDB
		if err := rows.Scan(&item.OrderID, &item.ItemID, &item.Name, &item.UnitPrice, &item.Qty, &item.Modifiers); err != nil {
			return fmt.Errorf("ошибка обработки строки с позицией заказа: %w", err)
		}
		if order, ok := byID[item.OrderID]; ok {
			order.Items = append(order.Items, item)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("ошибка итерации по строкам: %w", err)
	}

	return nil
}

// TransitionOrderStatus применяет переход статуса. Обновление условное:
// если текущий статус не допускает запрошенное ребро, ни одна строка не
// меняется и возвращается ErrInvalidTransition (либо ErrOrderNotFound,
// когда заказа нет вовсе).
func (d *Database) TransitionOrderStatus(ctx context.Context, orderID string, target models.OrderStatus) error {
	allowedFrom := transitionSources(target)
	if len(allowedFrom) == 0 {
		return ErrInvalidTransition
	}

	tag, err := d.db.Exec(ctx, transitionOrderStatusQuery, orderID, OrderStatusDB{target}, allowedFrom)
	if err != nil {
		return fmt.Errorf("ошибка обновления статуса заказа: %w", err)
	}

	if tag.RowsAffected() == 0 {
		order, findErr := d.FindOrder(ctx, orderID)
		if findErr != nil {
			return findErr
		}
		if order == nil {
			return ErrOrderNotFound
		}
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status.OrderStatus, target)
	}

	return nil
}

// MarkOrderPaid переводит заказ из unpaid в paid. Статус оплаты не связан
// со статусом заказа.
func (d *Database) MarkOrderPaid(ctx context.Context, orderID string) error {
	tag, err := d.db.Exec(ctx, markOrderPaidQuery, orderID)
	if err != nil {
		return fmt.Errorf("ошибка обновления статуса оплаты: %w", err)
	}

	if tag.RowsAffected() == 0 {
		order, findErr := d.FindOrder(ctx, orderID)
		if findErr != nil {
			return findErr
		}
		if order == nil {
			return ErrOrderNotFound
		}
		return ErrAlreadyPaid
	}

	return nil
}

// transitionSources возвращает статусы, из которых допустим переход в target.
func transitionSources(target models.OrderStatus) []string {
	var sources []string
	for _, from := range []models.OrderStatus{models.StatusPlaced, models.StatusReceived} {
		if models.CanTransition(from, target) {
			sources = append(sources, string(from))
		}
	}
	return sources
}

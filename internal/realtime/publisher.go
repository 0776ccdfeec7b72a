package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dinein/ordersync/internal/models"
	"github.com/redis/go-redis/v9"
)

// Publisher отправляет события ленты изменений в Redis pub/sub.
type Publisher struct {
	rdb *redis.Client
}

func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

// Publish публикует событие в канал заказа и в канал заведения.
// Вызывается до возврата управления из мутирующего запроса.
func (p *Publisher) Publish(ctx context.Context, event models.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal feed event: %w", err)
	}

	if err := p.rdb.Publish(ctx, OrderChannel(event.Order.ID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to order channel: %w", err)
	}

	if err := p.rdb.Publish(ctx, VenueChannel(event.Order.VenueID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to venue channel: %w", err)
	}

	return nil
}

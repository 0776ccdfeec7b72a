package realtime

import (
	"context"

	"github.com/dinein/ordersync/internal/logger"
	"github.com/dinein/ordersync/internal/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Subscriber держит живую подписку на ленту изменений и переводит сырые
// сообщения в типизированные события на границе подписки. Переподключение
// делегировано go-redis; нечитаемые сообщения отбрасываются с логированием.
type Subscriber struct {
	rdb *redis.Client
}

func NewSubscriber(rdb *redis.Client) *Subscriber {
	return &Subscriber{rdb: rdb}
}

// Subscription - активная подписка. Events закрывается после Close.
type Subscription struct {
	pubsub *redis.PubSub
	events chan models.Event
}

func (s *Subscription) Events() <-chan models.Event {
	return s.events
}

func (s *Subscription) Close() error {
	return s.pubsub.Close()
}

// SubscribeOrder подписывается на события одного заказа.
func (s *Subscriber) SubscribeOrder(ctx context.Context, orderID string) *Subscription {
	return s.subscribe(ctx, OrderChannel(orderID))
}

// SubscribeVenue подписывается на все события заказов заведения.
func (s *Subscriber) SubscribeVenue(ctx context.Context, venueID string) *Subscription {
	return s.subscribe(ctx, VenueChannel(venueID))
}

func (s *Subscriber) subscribe(ctx context.Context, channel string) *Subscription {
	pubsub := s.rdb.Subscribe(ctx, channel)
	sub := &Subscription{
		pubsub: pubsub,
		events: make(chan models.Event),
	}

	go func() {
		defer close(sub.events)

		for msg := range pubsub.Channel() {
			event, err := models.DecodeEvent([]byte(msg.Payload))
			if err != nil {
				logger.Log.Warn("dropping malformed feed event",
					zap.String("channel", channel),
					zap.Error(err),
				)
				continue
			}

			select {
			case sub.events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return sub
}

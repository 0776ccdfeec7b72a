package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/dinein/ordersync/internal/api"
	"github.com/dinein/ordersync/internal/logger"
	"github.com/dinein/ordersync/internal/models"
	"github.com/dinein/ordersync/internal/offline"
	"github.com/dinein/ordersync/internal/realtime"
	"github.com/dinein/ordersync/internal/reconcile"
	"github.com/dinein/ordersync/internal/utils"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	drainInterval = 15 * time.Second
	probeInterval = 5 * time.Second
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	config := NewConfig()

	if err := logger.Initialize(config.logLevel, config.env); err != nil {
		log.Fatalf("Logger wasn't initialized due to %s", err)
	}

	if config.venueID == "" {
		log.Fatal("Venue id is required, pass -v or VENUE_ID")
	}

	var items []models.OrderItem
	if config.items != "" {
		if err := json.Unmarshal([]byte(config.items), &items); err != nil {
			log.Fatalf("Items weren't parsed due to %s", err)
		}
	}

	client := api.NewClient(config.serverEndpoint)

	store := offline.OpenStore(config.storePath)
	queue := offline.NewQueue(store)
	orderLog := offline.NewOrderLog(store)
	monitor := offline.NewMonitor(true)
	gateway := offline.NewGateway(client, queue, orderLog, monitor)

	trigger := offline.NewTrigger(offline.NewDrainer(gateway, queue), queue, drainInterval)
	monitor.OnOnline(trigger.Kick)
	monitor.StartProbe(ctx, probeInterval, func(ctx context.Context) bool {
		_, err := client.GetActiveOrders(ctx, config.venueID)
		return !errors.Is(err, api.ErrUnavailable)
	})

	go trigger.Run(ctx)

	utils.HandleTerminationProcess(func() {
		cancel()
		store.Close()
	})

	result, err := gateway.Submit(ctx, models.CreateOrderRequest{
		VenueID:    config.venueID,
		TableLabel: config.tableLabel,
		Items:      items,
		Note:       config.note,
	})
	if err != nil {
		log.Fatalf("Order wasn't accepted due to %s", err)
	}

	orderID := ""
	if result.Confirmed {
		orderID = result.Order.ID
		log.Printf("Order %s confirmed as %s\n", result.Order.OrderCode, result.Order.ID)
	} else {
		log.Printf("Offline, order queued as %s\n", result.TempID)
		orderID = waitForConfirmation(ctx, queue, orderLog)
		if orderID == "" {
			return
		}
		log.Printf("Queued order confirmed as %s\n", orderID)
	}

	trackOrder(ctx, config, client, orderID)
}

// waitForConfirmation ждёт, пока фоновая синхронизация не подтвердит
// поставленный в очередь заказ. Возвращает пустую строку при завершении
// процесса до подтверждения.
func waitForConfirmation(ctx context.Context, queue *offline.Queue, orderLog *offline.OrderLog) string {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ""
		case <-ticker.C:
			if queue.Len() > 0 {
				continue
			}
			ids := orderLog.List()
			if len(ids) == 0 {
				continue
			}
			return ids[len(ids)-1]
		}
	}
}

// trackOrder следит за статусом подтверждённого заказа до терминального
// состояния: подписка на ленту плюс стартовый refetch.
func trackOrder(ctx context.Context, config Config, client *api.Client, orderID string) {
	rdb := redis.NewClient(&redis.Options{Addr: config.redisEndpoint})
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("Redis wasn't reachable due to %s", err)
	}

	reconciler := reconcile.NewCustomerReconciler(orderID, client)

	subscription := realtime.NewSubscriber(rdb).SubscribeOrder(ctx, orderID)
	defer subscription.Close()

	if err := reconciler.Refresh(ctx); err != nil {
		logger.Log.Warn("initial order fetch failed, relying on the feed", zap.Error(err))
	}

	if order := reconciler.Order(); order != nil {
		logger.Log.Info("статус заказа",
			zap.String("status", string(order.Status)),
			zap.String("payment", string(order.PaymentStatus)),
		)
		if order.Status.IsTerminal() {
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-subscription.Events():
			if !ok {
				return
			}
			reconciler.Apply(event)

			order := reconciler.Order()
			logger.Log.Info("статус заказа",
				zap.String("status", string(order.Status)),
				zap.String("payment", string(order.PaymentStatus)),
			)
			if order.Status.IsTerminal() {
				return
			}
		}
	}
}

package main

import (
	"context"
	"log"

	"github.com/dinein/ordersync/internal/api"
	"github.com/dinein/ordersync/internal/logger"
	"github.com/dinein/ordersync/internal/models"
	"github.com/dinein/ordersync/internal/realtime"
	"github.com/dinein/ordersync/internal/reconcile"
	"github.com/dinein/ordersync/internal/utils"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// logNotifier выводит сигнал о новом заказе в лог. Звук и push-уведомления
// остаются за пределами дисплея кухни.
type logNotifier struct{}

func (logNotifier) NotifyNewOrder(order models.Order) {
	logger.Log.Info("новый заказ",
		zap.String("orderID", order.ID),
		zap.String("orderCode", order.OrderCode),
		zap.String("table", order.TableLabel),
	)
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	config := NewConfig()

	if err := logger.Initialize(config.logLevel, config.env); err != nil {
		log.Fatalf("Logger wasn't initialized due to %s", err)
	}

	if config.venueID == "" {
		log.Fatal("Venue id is required, pass -v or VENUE_ID")
	}

	rdb := redis.NewClient(&redis.Options{Addr: config.redisEndpoint})

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("Redis wasn't reachable due to %s", err)
	}

	client := api.NewClient(config.serverEndpoint)
	reconciler := reconcile.NewVendorReconciler(config.venueID, client, logNotifier{})

	// Сначала подписка, затем полный refetch: событие, пришедшее во время
	// refetch, не потеряется.
	subscription := realtime.NewSubscriber(rdb).SubscribeVenue(ctx, config.venueID)

	if err := reconciler.Refresh(ctx); err != nil {
		log.Fatalf("Initial fetch of active orders failed due to %s", err)
	}

	for _, order := range reconciler.Orders() {
		logger.Log.Info("активный заказ",
			zap.String("orderID", order.ID),
			zap.String("orderCode", order.OrderCode),
			zap.String("status", string(order.Status)),
		)
	}

	utils.HandleTerminationProcess(func() {
		subscription.Close()
		rdb.Close()
		cancel()
	})

	log.Printf("Displaying orders for venue %s\n", config.venueID)

	reconciler.Run(ctx, subscription.Events())
}

package main

import (
	"context"
	"log"

	"github.com/dinein/ordersync/internal/database"
	router "github.com/dinein/ordersync/internal/http"
	"github.com/dinein/ordersync/internal/logger"
	"github.com/dinein/ordersync/internal/realtime"
	"github.com/dinein/ordersync/internal/services"
	"github.com/dinein/ordersync/internal/utils"
	"github.com/redis/go-redis/v9"
)

func main() {
	ctx := context.Background()
	config := NewConfig()

	if err := logger.Initialize(config.logLevel, config.env); err != nil {
		log.Fatalf("Logger wasn't initialized due to %s", err)
	}

	db, err := database.New(ctx, config.dsn)

	if err != nil {
		log.Fatalf("Database wasn't initialized due to %s", err)
	}

	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Migrations weren't run due to %s", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: config.redisEndpoint})

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("Redis wasn't reachable due to %s", err)
	}

	log.Printf("Running server on %s\n", config.endpoint)

	utils.HandleTerminationProcess(func() {
		db.Close()
		rdb.Close()
	})

	router.New(
		router.Config{Endpoint: config.endpoint},
		services.NewOrderService(db, realtime.NewPublisher(rdb)),
	).Run()
}

package router

import (
	"log"
	"net/http"

	"github.com/dinein/ordersync/internal/logger"
	"github.com/dinein/ordersync/internal/middlewares"
	"github.com/dinein/ordersync/internal/models"
	"github.com/go-chi/chi/v5"
)

type Config struct {
	Endpoint string
}

type Router struct {
	config       Config
	orderService models.OrderService
}

func New(config Config, orderService models.OrderService) *Router {
	return &Router{
		config,
		orderService,
	}
}

func (router *Router) get() chi.Router {
	r := chi.NewRouter()

	r.Use(
		middlewares.ServiceInjectorMiddleware(router.orderService),
		logger.RequestLogger,
	)

	r.Route("/api", func(r chi.Router) {
		r.With(middlewares.JSONMiddleware[models.CreateOrderRequest]).Post("/orders", CreateOrder)
		r.Get("/orders", GetOrders)
		r.Get("/orders/{orderID}", GetOrder)
		r.With(middlewares.JSONMiddleware[models.UpdateOrderStatusRequest]).Post("/orders/{orderID}/status", UpdateOrderStatus)
		r.Post("/orders/{orderID}/payment", MarkOrderPaid)

		r.Get("/venues/{venueID}/orders", GetActiveOrders)
	})

	return r
}

func (router *Router) Run() {
	log.Fatal(http.ListenAndServe(router.config.Endpoint, router.get()))
}

package router

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dinein/ordersync/internal/middlewares"
	"github.com/dinein/ordersync/internal/models"
	"github.com/dinein/ordersync/internal/services"
	"github.com/go-chi/chi/v5"
)

func CreateOrder(w http.ResponseWriter, r *http.Request) {
	req := middlewares.GetParsedJSONData[models.CreateOrderRequest](w, r)

	orderService := middlewares.GetServiceFromContext[models.OrderService](w, r, middlewares.OrderServiceKey)

	order, err := (*orderService).CreateOrder(r.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidOrder) {
			http.Error(w, fmt.Sprintf("Invalid order: %s", err.Error()), http.StatusBadRequest)
			return
		}

		http.Error(w, fmt.Sprintf("Error occurred during creating order: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	middlewares.EncodeJSONResponse(w, http.StatusCreated, order)
}

func GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	orderService := middlewares.GetServiceFromContext[models.OrderService](w, r, middlewares.OrderServiceKey)

	order, err := (*orderService).GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			http.Error(w, "Order not found", http.StatusNotFound)
			return
		}

		http.Error(w, fmt.Sprintf("Error occurred during getting order: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	middlewares.EncodeJSONResponse(w, http.StatusOK, order)
}

func GetOrders(w http.ResponseWriter, r *http.Request) {
	idsParam := r.URL.Query().Get("ids")
	if idsParam == "" {
		http.Error(w, "Query parameter ids is required", http.StatusBadRequest)
		return
	}

	orderService := middlewares.GetServiceFromContext[models.OrderService](w, r, middlewares.OrderServiceKey)

	orders, err := (*orderService).GetOrdersByIDs(r.Context(), strings.Split(idsParam, ","))
	if err != nil {
		http.Error(w, fmt.Sprintf("Error occurred during getting orders: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	if orders == nil {
		orders = []models.Order{}
	}

	middlewares.EncodeJSONResponse(w, http.StatusOK, orders)
}

func GetActiveOrders(w http.ResponseWriter, r *http.Request) {
	venueID := chi.URLParam(r, "venueID")
	orderService := middlewares.GetServiceFromContext[models.OrderService](w, r, middlewares.OrderServiceKey)

	orders, err := (*orderService).GetActiveOrders(r.Context(), venueID)
	if err != nil {
		http.Error(w, fmt.Sprintf("Error occurred during getting active orders: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	if orders == nil {
		orders = []models.Order{}
	}

	middlewares.EncodeJSONResponse(w, http.StatusOK, orders)
}

func UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	req := middlewares.GetParsedJSONData[models.UpdateOrderStatusRequest](w, r)

	orderService := middlewares.GetServiceFromContext[models.OrderService](w, r, middlewares.OrderServiceKey)

	order, err := (*orderService).UpdateOrderStatus(r.Context(), orderID, req.Status)
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			http.Error(w, "Order not found", http.StatusNotFound)
			return
		}

		if errors.Is(err, services.ErrInvalidTransition) {
			http.Error(w, fmt.Sprintf("Invalid status transition: %s", err.Error()), http.StatusConflict)
			return
		}

		http.Error(w, fmt.Sprintf("Error occurred during updating order status: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	middlewares.EncodeJSONResponse(w, http.StatusOK, order)
}

func MarkOrderPaid(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	orderService := middlewares.GetServiceFromContext[models.OrderService](w, r, middlewares.OrderServiceKey)

	order, err := (*orderService).MarkPaid(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			http.Error(w, "Order not found", http.StatusNotFound)
			return
		}

		if errors.Is(err, services.ErrAlreadyPaid) {
			http.Error(w, "Order is already paid", http.StatusConflict)
			return
		}

		http.Error(w, fmt.Sprintf("Error occurred during marking order paid: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	middlewares.EncodeJSONResponse(w, http.StatusOK, order)
}

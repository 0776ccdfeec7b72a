package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dinein/ordersync/internal/models"
)

// ErrUnavailable marks network-class failures: transport errors, timeouts
// and server-side 5xx responses. Callers treat these as retryable and fall
// back to the offline queue.
var ErrUnavailable = errors.New("order service unavailable")

// RequestError is a permanent failure: the request itself is wrong and
// retrying it would repeat the same failure.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request rejected with status %d: %s", e.StatusCode, e.Message)
}

const defaultTimeout = 10 * time.Second

// Client is a thin HTTP client for the order API.
type Client struct {
	endpoint string
	client   *http.Client
}

func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: defaultTimeout},
	}
}

// CreateOrder submits an order creation request.
func (c *Client) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.Order, error) {
	var order models.Order
	if err := c.post(ctx, "/api/orders", req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrderStatus requests a status transition for the order.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) (*models.Order, error) {
	var order models.Order
	path := fmt.Sprintf("/api/orders/%s/status", orderID)
	if err := c.post(ctx, path, models.UpdateOrderStatusRequest{Status: status}, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// MarkPaid flips the order payment status to paid.
func (c *Client) MarkPaid(ctx context.Context, orderID string) (*models.Order, error) {
	var order models.Order
	path := fmt.Sprintf("/api/orders/%s/payment", orderID)
	if err := c.post(ctx, path, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrder fetches a single order.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	var order models.Order
	if err := c.get(ctx, fmt.Sprintf("/api/orders/%s", orderID), &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrders fetches several orders by id (the customer "my orders" pull).
func (c *Client) GetOrders(ctx context.Context, orderIDs []string) ([]models.Order, error) {
	var orders []models.Order
	path := "/api/orders?ids=" + url.QueryEscape(strings.Join(orderIDs, ","))
	if err := c.get(ctx, path, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetActiveOrders fetches non-terminal orders for a venue (the vendor pull).
func (c *Client) GetActiveOrders(ctx context.Context, venueID string) ([]models.Order, error) {
	var orders []models.Order
	if err := c.get(ctx, fmt.Sprintf("/api/venues/%s/orders", venueID), &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	var reader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewBuffer(data)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnavailable, err)
	}
	defer res.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(res.Body); err != nil {
		return fmt.Errorf("%w: failed to read response body: %s", ErrUnavailable, err)
	}

	if res.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d", ErrUnavailable, res.StatusCode)
	}

	if res.StatusCode >= http.StatusBadRequest {
		return &RequestError{
			StatusCode: res.StatusCode,
			Message:    strings.TrimSpace(buf.String()),
		}
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(buf.Bytes(), out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

package router

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dinein/ordersync/internal/models"
	mock_models "github.com/dinein/ordersync/internal/models/mocks"
	"github.com/dinein/ordersync/internal/services"
	"github.com/dinein/ordersync/internal/utils"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
)

func testOrder() models.Order {
	return models.Order{
		ID:         "order-id",
		OrderCode:  "DIN-1234-ABCD",
		VenueID:    "venue-1",
		TableLabel: "T1",
		Items: []models.OrderItem{
			{ItemID: "espresso", Name: "Espresso", UnitPrice: 2.5, Quantity: 2},
		},
		TotalAmount:   5,
		Currency:      "EUR",
		Status:        models.StatusReceived,
		PaymentStatus: models.PaymentUnpaid,
		CreatedAt:     utils.RFC3339Date{Time: time.Date(2009, 11, 17, 0, 0, 0, 0, time.UTC)},
	}
}

const testOrderJSON = `{"id":"order-id","order_code":"DIN-1234-ABCD","venue_id":"venue-1","table_label":"T1","items":[{"item_id":"espresso","name":"Espresso","unit_price":2.5,"qty":2}],"total_amount":5,"currency":"EUR","status":"received","payment_status":"unpaid","created_at":"2009-11-17T00:00:00Z"}`

func TestCreateOrderRoute(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	orderServiceMock := mock_models.NewMockOrderService(ctrl)

	testServer := httptest.NewServer(
		New(Config{}, orderServiceMock).get(),
	)
	defer testServer.Close()

	validRequest := models.CreateOrderRequest{
		VenueID:    "venue-1",
		TableLabel: "T1",
		Items: []models.OrderItem{
			{ItemID: "espresso", Name: "Espresso", UnitPrice: 2.5, Quantity: 2},
		},
	}

	testCases := []struct {
		testName        string
		methodName      string
		targetURL       string
		body            func() io.Reader
		test            func(t *testing.T)
		expectedCode    int
		expectedMessage string
	}{
		{
			testName:        "Should return a validation error due to missing body",
			methodName:      "POST",
			targetURL:       "/api/orders",
			expectedCode:    http.StatusBadRequest,
			expectedMessage: "Error occurred during unmarshaling data unexpected end of JSON input\n",
		},
		{
			testName:   "Should return error when order fails validation",
			methodName: "POST",
			targetURL:  "/api/orders",
			test: func(t *testing.T) {
				orderServiceMock.EXPECT().CreateOrder(gomock.Any(), models.CreateOrderRequest{VenueID: "venue-1"}).Return(nil, services.ErrInvalidOrder)
			},
			body: func() io.Reader {
				data, _ := json.Marshal(models.CreateOrderRequest{VenueID: "venue-1"})
				return bytes.NewBuffer(data)
			},
			expectedCode:    http.StatusBadRequest,
			expectedMessage: "Invalid order: заказ не прошел валидацию\n",
		},
		{
			testName:   "Should create order",
			methodName: "POST",
			targetURL:  "/api/orders",
			test: func(t *testing.T) {
				order := testOrder()
				orderServiceMock.EXPECT().CreateOrder(gomock.Any(), validRequest).Return(&order, nil)
			},
			body: func() io.Reader {
				data, _ := json.Marshal(validRequest)
				return bytes.NewBuffer(data)
			},
			expectedCode:    http.StatusCreated,
			expectedMessage: testOrderJSON,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.testName, func(t *testing.T) {
			var body io.Reader

			if tc.body != nil {
				body = tc.body()
			}

			if tc.test != nil {
				tc.test(t)
			}

			res, mes := utils.TestRequest(
				t,
				testServer,
				tc.methodName,
				tc.targetURL,
				map[string]string{"Content-Type": "application/json"},
				body,
			)
			res.Body.Close()

			assert.Equal(t, tc.expectedCode, res.StatusCode)
			assert.Equal(t, tc.expectedMessage, mes)
		})
	}
}

func TestGetOrderRoute(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	orderServiceMock := mock_models.NewMockOrderService(ctrl)

	testServer := httptest.NewServer(
		New(Config{}, orderServiceMock).get(),
	)
	defer testServer.Close()

	testCases := []struct {
		testName        string
		methodName      string
		targetURL       string
		test            func(t *testing.T)
		expectedCode    int
		expectedMessage string
	}{
		{
			testName:   "Should return error when order isn't exist",
			methodName: "GET",
			targetURL:  "/api/orders/missing-id",
			test: func(t *testing.T) {
				orderServiceMock.EXPECT().GetOrder(gomock.Any(), "missing-id").Return(nil, services.ErrOrderNotFound)
			},
			expectedCode:    http.StatusNotFound,
			expectedMessage: "Order not found\n",
		},
		{
			testName:   "Should return order",
			methodName: "GET",
			targetURL:  "/api/orders/order-id",
			test: func(t *testing.T) {
				order := testOrder()
				orderServiceMock.EXPECT().GetOrder(gomock.Any(), "order-id").Return(&order, nil)
			},
			expectedCode:    http.StatusOK,
			expectedMessage: testOrderJSON,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.testName, func(t *testing.T) {
			if tc.test != nil {
				tc.test(t)
			}

			res, mes := utils.TestRequest(
				t,
				testServer,
				tc.methodName,
				tc.targetURL,
				nil,
				nil,
			)
			res.Body.Close()

			assert.Equal(t, tc.expectedCode, res.StatusCode)
			assert.Equal(t, tc.expectedMessage, mes)
		})
	}
}

func TestGetOrdersRoute(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	orderServiceMock := mock_models.NewMockOrderService(ctrl)

	testServer := httptest.NewServer(
		New(Config{}, orderServiceMock).get(),
	)
	defer testServer.Close()

	testCases := []struct {
		testName        string
		methodName      string
		targetURL       string
		test            func(t *testing.T)
		expectedCode    int
		expectedMessage string
	}{
		{
			testName:        "Should return a validation error due to missing ids",
			methodName:      "GET",
			targetURL:       "/api/orders",
			expectedCode:    http.StatusBadRequest,
			expectedMessage: "Query parameter ids is required\n",
		},
		{
			testName:   "Should return empty list when nothing matches",
			methodName: "GET",
			targetURL:  "/api/orders?ids=a,b",
			test: func(t *testing.T) {
				orderServiceMock.EXPECT().GetOrdersByIDs(gomock.Any(), []string{"a", "b"}).Return(nil, nil)
			},
			expectedCode:    http.StatusOK,
			expectedMessage: "[]",
		},
		{
			testName:   "Should return orders",
			methodName: "GET",
			targetURL:  "/api/orders?ids=order-id",
			test: func(t *testing.T) {
				orderServiceMock.EXPECT().GetOrdersByIDs(gomock.Any(), []string{"order-id"}).Return([]models.Order{testOrder()}, nil)
			},
			expectedCode:    http.StatusOK,
			expectedMessage: "[" + testOrderJSON + "]",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.testName, func(t *testing.T) {
			if tc.test != nil {
				tc.test(t)
			}

			res, mes := utils.TestRequest(
				t,
				testServer,
				tc.methodName,
				tc.targetURL,
				nil,
				nil,
			)
			res.Body.Close()

			assert.Equal(t, tc.expectedCode, res.StatusCode)
			assert.Equal(t, tc.expectedMessage, mes)
		})
	}
}

func TestGetActiveOrdersRoute(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	orderServiceMock := mock_models.NewMockOrderService(ctrl)

	testServer := httptest.NewServer(
		New(Config{}, orderServiceMock).get(),
	)
	defer testServer.Close()

	testCases := []struct {
		testName        string
		methodName      string
		targetURL       string
		test            func(t *testing.T)
		expectedCode    int
		expectedMessage string
	}{
		{
			testName:   "Should return empty list for idle venue",
			methodName: "GET",
			targetURL:  "/api/venues/venue-1/orders",
			test: func(t *testing.T) {
				orderServiceMock.EXPECT().GetActiveOrders(gomock.Any(), "venue-1").Return(nil, nil)
			},
			expectedCode:    http.StatusOK,
			expectedMessage: "[]",
		},
		{
			testName:   "Should return active orders",
			methodName: "GET",
			targetURL:  "/api/venues/venue-1/orders",
			test: func(t *testing.T) {
				orderServiceMock.EXPECT().GetActiveOrders(gomock.Any(), "venue-1").Return([]models.Order{testOrder()}, nil)
			},
			expectedCode:    http.StatusOK,
			expectedMessage: "[" + testOrderJSON + "]",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.testName, func(t *testing.T) {
			if tc.test != nil {
				tc.test(t)
			}

			res, mes := utils.TestRequest(
				t,
				testServer,
				tc.methodName,
				tc.targetURL,
				nil,
				nil,
			)
			res.Body.Close()

			assert.Equal(t, tc.expectedCode, res.StatusCode)
			assert.Equal(t, tc.expectedMessage, mes)
		})
	}
}

func TestUpdateOrderStatusRoute(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	orderServiceMock := mock_models.NewMockOrderService(ctrl)

	testServer := httptest.NewServer(
		New(Config{}, orderServiceMock).get(),
	)
	defer testServer.Close()

	testCases := []struct {
		testName        string
		methodName      string
		targetURL       string
		body            func() io.Reader
		test            func(t *testing.T)
		expectedCode    int
		expectedMessage string
	}{
		{
			testName:   "Should return error when order isn't exist",
			methodName: "POST",
			targetURL:  "/api/orders/missing-id/status",
			test: func(t *testing.T) {
				orderServiceMock.EXPECT().UpdateOrderStatus(gomock.Any(), "missing-id", models.StatusServed).Return(nil, services.ErrOrderNotFound)
			},
			body: func() io.Reader {
				data, _ := json.Marshal(models.UpdateOrderStatusRequest{Status: models.StatusServed})
				return bytes.NewBuffer(data)
			},
			expectedCode:    http.StatusNotFound,
			expectedMessage: "Order not found\n",
		},
		{
			testName:   "Should return error when transition isn't allowed",
			methodName: "POST",
			targetURL:  "/api/orders/order-id/status",
			test: func(t *testing.T) {
				orderServiceMock.EXPECT().UpdateOrderStatus(gomock.Any(), "order-id", models.StatusServed).Return(nil, services.ErrInvalidTransition)
			},
			body: func() io.Reader {
				data, _ := json.Marshal(models.UpdateOrderStatusRequest{Status: models.StatusServed})
				return bytes.NewBuffer(data)
			},
			expectedCode:    http.StatusConflict,
			expectedMessage: "Invalid status transition: недопустимый переход статуса заказа\n",
		},
		{
			testName:   "Should update order status",
			methodName: "POST",
			targetURL:  "/api/orders/order-id/status",
			test: func(t *testing.T) {
				order := testOrder()
				order.Status = models.StatusServed
				orderServiceMock.EXPECT().UpdateOrderStatus(gomock.Any(), "order-id", models.StatusServed).Return(&order, nil)
			},
			body: func() io.Reader {
				data, _ := json.Marshal(models.UpdateOrderStatusRequest{Status: models.StatusServed})
				return bytes.NewBuffer(data)
			},
			expectedCode:    http.StatusOK,
			expectedMessage: `{"id":"order-id","order_code":"DIN-1234-ABCD","venue_id":"venue-1","table_label":"T1","items":[{"item_id":"espresso","name":"Espresso","unit_price":2.5,"qty":2}],"total_amount":5,"currency":"EUR","status":"served","payment_status":"unpaid","created_at":"2009-11-17T00:00:00Z"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.testName, func(t *testing.T) {
			var body io.Reader

			if tc.body != nil {
				body = tc.body()
			}

			if tc.test != nil {
				tc.test(t)
			}

			res, mes := utils.TestRequest(
				t,
				testServer,
				tc.methodName,
				tc.targetURL,
				map[string]string{"Content-Type": "application/json"},
				body,
			)
			res.Body.Close()

			assert.Equal(t, tc.expectedCode, res.StatusCode)
			assert.Equal(t, tc.expectedMessage, mes)
		})
	}
}

func TestMarkOrderPaidRoute(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	orderServiceMock := mock_models.NewMockOrderService(ctrl)

	testServer := httptest.NewServer(
		New(Config{}, orderServiceMock).get(),
	)
	defer testServer.Close()

	testCases := []struct {
		testName        string
		methodName      string
		targetURL       string
		test            func(t *testing.T)
		expectedCode    int
		expectedMessage string
	}{
		{
			testName:   "Should return error when order isn't exist",
			methodName: "POST",
			targetURL:  "/api/orders/missing-id/payment",
			test: func(t *testing.T) {
				orderServiceMock.EXPECT().MarkPaid(gomock.Any(), "missing-id").Return(nil, services.ErrOrderNotFound)
			},
			expectedCode:    http.StatusNotFound,
			expectedMessage: "Order not found\n",
		},
		{
			testName:   "Should return error when order is already paid",
			methodName: "POST",
			targetURL:  "/api/orders/order-id/payment",
			test: func(t *testing.T) {
				orderServiceMock.EXPECT().MarkPaid(gomock.Any(), "order-id").Return(nil, services.ErrAlreadyPaid)
			},
			expectedCode:    http.StatusConflict,
			expectedMessage: "Order is already paid\n",
		},
		{
			testName:   "Should mark order paid",
			methodName: "POST",
			targetURL:  "/api/orders/order-id/payment",
			test: func(t *testing.T) {
				order := testOrder()
				order.PaymentStatus = models.PaymentPaid
				orderServiceMock.EXPECT().MarkPaid(gomock.Any(), "order-id").Return(&order, nil)
			},
			expectedCode:    http.StatusOK,
			expectedMessage: `{"id":"order-id","order_code":"DIN-1234-ABCD","venue_id":"venue-1","table_label":"T1","items":[{"item_id":"espresso","name":"Espresso","unit_price":2.5,"qty":2}],"total_amount":5,"currency":"EUR","status":"received","payment_status":"paid","created_at":"2009-11-17T00:00:00Z"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.testName, func(t *testing.T) {
			if tc.test != nil {
				tc.test(t)
			}

			res, mes := utils.TestRequest(
				t,
				testServer,
				tc.methodName,
				tc.targetURL,
				nil,
				nil,
			)
			res.Body.Close()

			assert.Equal(t, tc.expectedCode, res.StatusCode)
			assert.Equal(t, tc.expectedMessage, mes)
		})
	}
}

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	testCases := []struct {
		testName string
		from     OrderStatus
		to       OrderStatus
		expected bool
	}{
		{testName: "Should allow placed to received", from: StatusPlaced, to: StatusReceived, expected: true},
		{testName: "Should allow placed to cancelled", from: StatusPlaced, to: StatusCancelled, expected: true},
		{testName: "Should allow received to served", from: StatusReceived, to: StatusServed, expected: true},
		{testName: "Should allow received to cancelled", from: StatusReceived, to: StatusCancelled, expected: true},
		{testName: "Should reject placed to served", from: StatusPlaced, to: StatusServed, expected: false},
		{testName: "Should reject received to placed", from: StatusReceived, to: StatusPlaced, expected: false},
		{testName: "Should reject served to cancelled", from: StatusServed, to: StatusCancelled, expected: false},
		{testName: "Should reject cancelled to received", from: StatusCancelled, to: StatusReceived, expected: false},
		{testName: "Should reject served to served", from: StatusServed, to: StatusServed, expected: false},
		{testName: "Should reject unknown status", from: OrderStatus("draft"), to: StatusReceived, expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.testName, func(t *testing.T) {
			assert.Equal(t, tc.expected, CanTransition(tc.from, tc.to))
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, StatusPlaced.IsTerminal())
	assert.False(t, StatusReceived.IsTerminal())
	assert.True(t, StatusServed.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
}

func TestCreateOrderRequestValidate(t *testing.T) {
	validItem := OrderItem{ItemID: "espresso", Name: "Espresso", UnitPrice: 2.5, Quantity: 1}

	testCases := []struct {
		testName    string
		request     CreateOrderRequest
		expectedErr string
	}{
		{
			testName:    "Should reject missing venue",
			request:     CreateOrderRequest{Items: []OrderItem{validItem}},
			expectedErr: "venue_id is required",
		},
		{
			testName:    "Should reject empty order",
			request:     CreateOrderRequest{VenueID: "venue-1"},
			expectedErr: ErrEmptyOrder.Error(),
		},
		{
			testName: "Should reject zero quantity",
			request: CreateOrderRequest{
				VenueID: "venue-1",
				Items:   []OrderItem{{ItemID: "espresso", Quantity: 0}},
			},
			expectedErr: "quantity must be > 0 for item espresso",
		},
		{
			testName: "Should reject negative price",
			request: CreateOrderRequest{
				VenueID: "venue-1",
				Items:   []OrderItem{{ItemID: "espresso", UnitPrice: -1, Quantity: 1}},
			},
			expectedErr: "unit price must not be negative for item espresso",
		},
		{
			testName: "Should accept valid request",
			request: CreateOrderRequest{
				VenueID: "venue-1",
				Items:   []OrderItem{validItem},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.testName, func(t *testing.T) {
			err := tc.request.Validate()

			if tc.expectedErr == "" {
				assert.NoError(t, err)
				return
			}

			assert.EqualError(t, err, tc.expectedErr)
		})
	}
}

func TestComputedTotal(t *testing.T) {
	request := CreateOrderRequest{
		VenueID:     "venue-1",
		TotalAmount: 999,
		Items: []OrderItem{
			{ItemID: "espresso", UnitPrice: 2.5, Quantity: 2},
			{ItemID: "croissant", UnitPrice: 3.2, Quantity: 1},
		},
	}

	assert.InDelta(t, 8.2, request.ComputedTotal(), 0.0001)
}

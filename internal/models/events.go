package models

import "time"

// Event types
const (
	EventTypeOrderSubmitted    = "ORDER_SUBMITTED"
	EventTypeOrderConfirmed    = "ORDER_CONFIRMED"
	EventTypeAccountCreated    = "ACCOUNT_CREATED"
	EventTypeCheckoutAbandoned = "CHECKOUT_ABANDONED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderSubmittedEvent published when a checkout session finalizes an order
type OrderSubmittedEvent struct {
	BaseEvent
	OrderID         int64           `json:"order_id"`
	BusinessID      int64           `json:"business_id"`
	UserID          int64           `json:"user_id"`
	TotalAmount     int64           `json:"total_amount"`
	FulfillmentType string          `json:"fulfillment_type"`
	Items           []OrderItemData `json:"items"`
}

// OrderConfirmedEvent published when the tenant acknowledges an order
type OrderConfirmedEvent struct {
	BaseEvent
	OrderID    int64 `json:"order_id"`
	BusinessID int64 `json:"business_id"`
}

// AccountCreatedEvent published when checkout registers a new shopper
type AccountCreatedEvent struct {
	BaseEvent
	UserID  int64  `json:"user_id"`
	Contact string `json:"contact"`
}

// CheckoutAbandonedEvent published when a shopper cancels a checkout session
type CheckoutAbandonedEvent struct {
	BaseEvent
	SessionID string `json:"session_id"`
	State     string `json:"state"`
}

// OrderItemData represents item data in events
type OrderItemData struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

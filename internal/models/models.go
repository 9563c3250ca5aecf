package models

import "time"

// Product represents a sellable product in a storefront catalog.
// Prices are integer minor units.
type Product struct {
	ID            int64     `db:"id" json:"id"`
	BusinessID    int64     `db:"business_id" json:"business_id"`
	Name          string    `db:"name" json:"name"`
	Price         int64     `db:"price" json:"price"`
	OriginalPrice *int64    `db:"original_price" json:"original_price,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`

	// AddonGroupIDs lists the addon groups this product references,
	// in display order. Loaded alongside the product row.
	AddonGroupIDs []int64 `db:"-" json:"addon_group_ids"`
}

// AddonGroup is a named set of customization options attached to a product.
// Invariant: MinSelection <= MaxSelection; a required group has MinSelection >= 1.
type AddonGroup struct {
	ID           int64       `db:"id" json:"id"`
	Name         string      `db:"name" json:"name"`
	IsRequired   bool        `db:"is_required" json:"is_required"`
	MinSelection int         `db:"min_selection" json:"min_selection"`
	MaxSelection int         `db:"max_selection" json:"max_selection"`
	Items        []AddonItem `db:"-" json:"items"`
}

// AddonItem is a single selectable option within an addon group.
// Only available items are selectable.
type AddonItem struct {
	ID        int64  `db:"id" json:"id"`
	GroupID   int64  `db:"group_id" json:"group_id"`
	Name      string `db:"name" json:"name"`
	Price     int64  `db:"price" json:"price"`
	Available bool   `db:"available" json:"available"`
}

// Selections maps addon group id -> addon item id -> chosen quantity.
type Selections map[int64]map[int64]int

// LineItem is one priced, quantified, possibly customized product entry
// in a cart. ID is cart-scoped so the same product with different
// customizations coexists as separate entries.
type LineItem struct {
	ID          string `json:"id"`
	ProductID   int64  `json:"product_id"`
	Name        string `json:"name"`
	UnitPrice   int64  `json:"unit_price"`
	Quantity    int    `json:"quantity"`
	Observation string `json:"observation,omitempty"`
}

// Identity is a resolved shopper account.
type Identity struct {
	ID      int64  `db:"id" json:"id"`
	Name    string `db:"name" json:"name"`
	Contact string `db:"contact" json:"contact"`
}

// User is the stored account row backing an Identity.
type User struct {
	ID             int64     `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Contact        string    `db:"contact" json:"contact"`
	CredentialHash string    `db:"credential_hash" json:"-"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Address is a delivery address drafted during checkout. ID is minted
// locally when the draft is saved to the session.
type Address struct {
	ID           string `json:"id"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	Reference    string `json:"reference,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
}

// Order represents a submitted order
type Order struct {
	ID              int64     `db:"id" json:"id"`
	BusinessID      int64     `db:"business_id" json:"business_id"`
	UserID          int64     `db:"user_id" json:"user_id"`
	UserName        string    `db:"user_name" json:"user_name"`
	UserContact     string    `db:"user_contact" json:"user_contact"`
	TotalAmount     int64     `db:"total_amount" json:"total_amount"`
	FulfillmentType string    `db:"fulfillment_type" json:"fulfillment_type"`
	AddressJSON     []byte    `db:"address_json" json:"-"`
	Status          string    `db:"status" json:"status"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// OrderItem represents one line of a submitted order
type OrderItem struct {
	ID          int64  `db:"id" json:"id"`
	OrderID     int64  `db:"order_id" json:"order_id"`
	ProductID   int64  `db:"product_id" json:"product_id"`
	Name        string `db:"name" json:"name"`
	UnitPrice   int64  `db:"unit_price" json:"unit_price"`
	Quantity    int    `db:"quantity" json:"quantity"`
	Observation string `db:"observation" json:"observation,omitempty"`
}

// OrderPayment represents one payment entry of a submitted order
type OrderPayment struct {
	ID       int64  `db:"id" json:"id"`
	OrderID  int64  `db:"order_id" json:"order_id"`
	Method   string `db:"method" json:"method"`
	Tendered int64  `db:"tendered" json:"tendered"`
	Change   int64  `db:"change_amount" json:"change"`
}

// Fulfillment types
const (
	FulfillmentDelivery = "DELIVERY"
	FulfillmentPickup   = "PICKUP"
)

// Payment methods
const (
	PaymentMethodCash = "CASH"
	PaymentMethodCard = "CARD"
	PaymentMethodPix  = "PIX"
)

// Order statuses
const (
	OrderStatusPending   = "PENDING"
	OrderStatusConfirmed = "CONFIRMED"
	OrderStatusCancelled = "CANCELLED"
)

// ProcessedEvent for idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}

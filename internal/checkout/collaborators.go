package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront-service/internal/models"
)

// ErrIdentityNotFound is returned by UserDirectory.FindByContact when no
// account matches the contact handle.
var ErrIdentityNotFound = errors.New("identity not found")

// Profile carries the fields needed to register a new shopper account.
type Profile struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Secret  string `json:"secret"`
}

// CatalogReader resolves product and addon-group records.
type CatalogReader interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	GetAddonGroups(ctx context.Context, ids []int64) ([]models.AddonGroup, error)
}

// UserDirectory resolves, creates and authenticates shopper accounts.
type UserDirectory interface {
	FindByContact(ctx context.Context, contact string) (*models.Identity, error)
	CreateAccount(ctx context.Context, profile Profile) (*models.Identity, error)
	VerifyCredential(ctx context.Context, identity *models.Identity, secret string) (bool, error)
}

// PaymentEntry is one payment of a finalized order.
type PaymentEntry struct {
	Method   string `json:"method"`
	Tendered int64  `json:"tendered"`
	Change   int64  `json:"change"`
}

// OrderPayload is the finalized order document handed to the OrderSink.
type OrderPayload struct {
	BusinessID      int64             `json:"business_id"`
	UserID          int64             `json:"user_id"`
	UserName        string            `json:"user_name"`
	UserContact     string            `json:"user_contact"`
	Items           []models.LineItem `json:"items"`
	TotalAmount     int64             `json:"total_amount"`
	FulfillmentType string            `json:"fulfillment_type"`
	Address         *models.Address   `json:"address,omitempty"`
	Payments        []PaymentEntry    `json:"payments"`
	Status          string            `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
}

// OrderSink accepts a finalized order document.
type OrderSink interface {
	Submit(ctx context.Context, payload *OrderPayload) (int64, error)
}

// Submit error kinds
const (
	SubmitInvalid   = "invalid"
	SubmitTransient = "transient"
)

// SubmitError is a structured failure from the OrderSink. Invalid means the
// payload was rejected and the shopper should correct input; transient means
// the same submission may be retried unchanged.
type SubmitError struct {
	Kind string
	Err  error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("order submission failed (%s): %v", e.Kind, e.Err)
}

func (e *SubmitError) Unwrap() error { return e.Err }

// Retryable reports whether the same submission may be retried unchanged.
func (e *SubmitError) Retryable() bool { return e.Kind == SubmitTransient }

package checkout

import (
	"time"

	"storefront-service/internal/cart"
	"storefront-service/internal/models"

	"github.com/google/uuid"
)

// State tags the current step of a checkout session.
type State string

// Checkout states
const (
	StateIdentify        State = "IDENTIFY"
	StateAuthenticate    State = "AUTHENTICATE"
	StateRegister        State = "REGISTER"
	StateOrderTypeSelect State = "ORDER_TYPE_SELECT"
	StateDeliveryDetails State = "DELIVERY_DETAILS"
	StatePickupDetails   State = "PICKUP_DETAILS"
	StatePayment         State = "PAYMENT"
	StateFinalized       State = "FINALIZED"
	StateAbandoned       State = "ABANDONED"
)

// Terminal reports whether no further event is accepted in the state.
func (s State) Terminal() bool {
	return s == StateFinalized || s == StateAbandoned
}

// Session is one checkout attempt over a cart snapshot. Fields fill in as
// the shopper advances; backward navigation preserves everything already
// collected. A session is owned by a single shopper interaction and is
// mutated only through Machine.Apply.
type Session struct {
	ID         string
	BusinessID int64
	State      State
	Cart       *cart.Cart

	// Identification. Identity is nil until authentication or
	// registration succeeds; pending holds the directory match awaiting
	// credential verification.
	Contact  string
	Identity *models.Identity
	pending  *models.Identity

	// authPath records which branch led out of Identify, so back
	// navigation from OrderTypeSelect returns to the right step. Empty
	// when the session started pre-authenticated.
	authPath State

	FulfillmentType   string
	Addresses         []models.Address
	SelectedAddressID string

	PaymentMethod string
	Tendered      int64
	Change        int64

	OrderID   int64
	CreatedAt time.Time
}

// NewSession opens a checkout session over a cart. When identity is
// non-nil the shopper is already authenticated and the session skips
// Identify, entering directly at OrderTypeSelect.
func NewSession(businessID int64, c *cart.Cart, identity *models.Identity) *Session {
	s := &Session{
		ID:         uuid.New().String(),
		BusinessID: businessID,
		State:      StateIdentify,
		Cart:       c,
		CreatedAt:  time.Now(),
	}

	if identity != nil {
		s.Identity = identity
		s.Contact = identity.Contact
		s.State = StateOrderTypeSelect
	}

	return s
}

// SelectedAddress returns the session's selected address, or nil.
func (s *Session) SelectedAddress() *models.Address {
	if s.SelectedAddressID == "" {
		return nil
	}
	for i := range s.Addresses {
		if s.Addresses[i].ID == s.SelectedAddressID {
			return &s.Addresses[i]
		}
	}
	return nil
}

package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event is a shopper action applied to a checkout session.
type Event interface{ isEvent() }

// SubmitContact resolves the contact handle against the user directory.
type SubmitContact struct {
	Contact string
}

// SubmitCredential attempts authentication of the resolved identity.
type SubmitCredential struct {
	Secret string
}

// SubmitRegistration creates a new account and treats it as authenticated.
type SubmitRegistration struct {
	Name    string
	Contact string
	Secret  string
}

// ChooseFulfillment selects the delivery or pickup branch.
type ChooseFulfillment struct {
	Type string
}

// SubmitAddress validates a newly drafted address and selects it.
type SubmitAddress struct {
	Address models.Address
}

// SelectAddress selects an address already saved to the session.
type SelectAddress struct {
	AddressID string
}

// ConfirmPickup advances the pickup branch; it carries no address.
type ConfirmPickup struct{}

// SubmitPayment finalizes the order through the order sink.
type SubmitPayment struct {
	Method   string
	Tendered int64
}

// GoBack returns to the structurally preceding state without
// re-validating or clearing collected data.
type GoBack struct{}

// Cancel abandons the session from any non-terminal state.
type Cancel struct{}

func (SubmitContact) isEvent()      {}
func (SubmitCredential) isEvent()   {}
func (SubmitRegistration) isEvent() {}
func (ChooseFulfillment) isEvent()  {}
func (SubmitAddress) isEvent()      {}
func (SelectAddress) isEvent()      {}
func (ConfirmPickup) isEvent()      {}
func (SubmitPayment) isEvent()      {}
func (GoBack) isEvent()             {}
func (Cancel) isEvent()             {}

// MinCredentialLength is the registration credential floor.
const MinCredentialLength = 6

// Machine sequences checkout sessions. Guard evaluation is strictly
// sequential per session: callers must not apply a new event while a
// collaborator call is in flight (see service.CheckoutService).
//
// Apply is a reducer over (session, event): guard failures return a typed
// error and leave the session exactly as it was; collaborator calls are
// the only side effects.
type Machine struct {
	users  UserDirectory
	sink   OrderSink
	logger *zap.Logger
}

// NewMachine creates a checkout machine over the external collaborators.
func NewMachine(users UserDirectory, sink OrderSink) *Machine {
	return &Machine{
		users:  users,
		sink:   sink,
		logger: util.GetLogger(),
	}
}

// Apply advances the session with one event. On error the session state
// is unchanged and the shopper may retry.
func (m *Machine) Apply(ctx context.Context, s *Session, ev Event) error {
	if s.State.Terminal() {
		return fmt.Errorf("%w: session is %s", ErrInvalidTransition, s.State)
	}

	switch ev := ev.(type) {
	case SubmitContact:
		return m.identify(ctx, s, ev)
	case SubmitCredential:
		return m.authenticate(ctx, s, ev)
	case SubmitRegistration:
		return m.register(ctx, s, ev)
	case ChooseFulfillment:
		return m.chooseFulfillment(s, ev)
	case SubmitAddress:
		return m.submitAddress(s, ev)
	case SelectAddress:
		return m.selectAddress(s, ev)
	case ConfirmPickup:
		return m.confirmPickup(s)
	case SubmitPayment:
		return m.submitPayment(ctx, s, ev)
	case GoBack:
		return m.goBack(s)
	case Cancel:
		s.State = StateAbandoned
		return nil
	default:
		return fmt.Errorf("%w: unknown event %T", ErrInvalidTransition, ev)
	}
}

func (m *Machine) identify(ctx context.Context, s *Session, ev SubmitContact) error {
	if s.State != StateIdentify {
		return transitionError(s.State, "identify")
	}

	contact := strings.TrimSpace(ev.Contact)
	if contact == "" {
		return &ValidationError{Field: "contact", Message: "contact is required"}
	}

	identity, err := m.users.FindByContact(ctx, contact)
	if errors.Is(err, ErrIdentityNotFound) {
		s.Contact = contact
		s.authPath = StateRegister
		s.State = StateRegister
		return nil
	}
	if err != nil {
		return &CollaboratorError{Op: "user directory lookup", Err: err}
	}

	s.Contact = contact
	s.pending = identity
	s.authPath = StateAuthenticate
	s.State = StateAuthenticate
	return nil
}

func (m *Machine) authenticate(ctx context.Context, s *Session, ev SubmitCredential) error {
	if s.State != StateAuthenticate {
		return transitionError(s.State, "authenticate")
	}

	ok, err := m.users.VerifyCredential(ctx, s.pending, ev.Secret)
	if err != nil {
		return &CollaboratorError{Op: "credential verification", Err: err}
	}
	if !ok {
		return ErrCredentialMismatch
	}

	s.Identity = s.pending
	s.State = StateOrderTypeSelect
	m.logger.Info("Shopper authenticated",
		zap.String("session_id", s.ID),
		zap.Int64("user_id", s.Identity.ID))
	return nil
}

func (m *Machine) register(ctx context.Context, s *Session, ev SubmitRegistration) error {
	if s.State != StateRegister {
		return transitionError(s.State, "register")
	}

	contact := strings.TrimSpace(ev.Contact)
	if contact == "" {
		contact = s.Contact
	}

	if strings.TrimSpace(ev.Name) == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if contact == "" {
		return &ValidationError{Field: "contact", Message: "contact is required"}
	}
	if len(ev.Secret) < MinCredentialLength {
		return &ValidationError{
			Field:   "credential",
			Message: fmt.Sprintf("credential must be at least %d characters", MinCredentialLength),
		}
	}

	identity, err := m.users.CreateAccount(ctx, Profile{Name: ev.Name, Contact: contact, Secret: ev.Secret})
	if err != nil {
		return &CollaboratorError{Op: "account creation", Err: err}
	}

	s.Contact = contact
	s.Identity = identity
	s.State = StateOrderTypeSelect
	m.logger.Info("Shopper registered",
		zap.String("session_id", s.ID),
		zap.Int64("user_id", identity.ID))
	return nil
}

func (m *Machine) chooseFulfillment(s *Session, ev ChooseFulfillment) error {
	if s.State != StateOrderTypeSelect {
		return transitionError(s.State, "choose fulfillment")
	}

	switch ev.Type {
	case models.FulfillmentDelivery:
		s.FulfillmentType = ev.Type
		s.State = StateDeliveryDetails
	case models.FulfillmentPickup:
		s.FulfillmentType = ev.Type
		s.State = StatePickupDetails
	default:
		return &ValidationError{Field: "fulfillment_type", Message: "must be DELIVERY or PICKUP"}
	}
	return nil
}

func (m *Machine) submitAddress(s *Session, ev SubmitAddress) error {
	if s.State != StateDeliveryDetails {
		return transitionError(s.State, "submit address")
	}

	if err := validateAddress(ev.Address); err != nil {
		return err
	}

	addr := ev.Address
	addr.ID = uuid.New().String()
	s.Addresses = append(s.Addresses, addr)
	s.SelectedAddressID = addr.ID
	s.State = StatePayment
	return nil
}

func (m *Machine) selectAddress(s *Session, ev SelectAddress) error {
	if s.State != StateDeliveryDetails {
		return transitionError(s.State, "select address")
	}

	for i := range s.Addresses {
		if s.Addresses[i].ID == ev.AddressID {
			s.SelectedAddressID = ev.AddressID
			s.State = StatePayment
			return nil
		}
	}
	return &ValidationError{Field: "address_id", Message: "address not found in session"}
}

func (m *Machine) confirmPickup(s *Session) error {
	if s.State != StatePickupDetails {
		return transitionError(s.State, "confirm pickup")
	}
	s.State = StatePayment
	return nil
}

func (m *Machine) submitPayment(ctx context.Context, s *Session, ev SubmitPayment) error {
	if s.State != StatePayment {
		return transitionError(s.State, "submit payment")
	}

	var address *models.Address
	if s.FulfillmentType == models.FulfillmentDelivery {
		address = s.SelectedAddress()
		if address == nil {
			return &ValidationError{Field: "address", Message: "a delivery address must be selected"}
		}
	}

	switch ev.Method {
	case models.PaymentMethodCash, models.PaymentMethodCard, models.PaymentMethodPix:
	default:
		return &ValidationError{Field: "method", Message: "unsupported payment method"}
	}

	total := s.Cart.Total()
	var change int64
	if ev.Method == models.PaymentMethodCash {
		if ev.Tendered < total {
			return &ValidationError{Field: "tendered", Message: "tendered amount is below the cart total"}
		}
		change = ev.Tendered - total
	}

	payload := &OrderPayload{
		BusinessID:      s.BusinessID,
		UserID:          s.Identity.ID,
		UserName:        s.Identity.Name,
		UserContact:     s.Identity.Contact,
		Items:           s.Cart.Items(),
		TotalAmount:     total,
		FulfillmentType: s.FulfillmentType,
		Address:         address,
		Payments: []PaymentEntry{
			{Method: ev.Method, Tendered: ev.Tendered, Change: change},
		},
		Status:    models.OrderStatusPending,
		CreatedAt: time.Now(),
	}

	orderID, err := m.sink.Submit(ctx, payload)
	if err != nil {
		// Submission failure keeps the session at Payment for retry.
		if _, ok := err.(*SubmitError); ok {
			return err
		}
		return &CollaboratorError{Op: "order submission", Err: err}
	}

	s.PaymentMethod = ev.Method
	s.Tendered = ev.Tendered
	s.Change = change
	s.OrderID = orderID
	s.Cart.Clear()
	s.State = StateFinalized

	m.logger.Info("Order finalized",
		zap.String("session_id", s.ID),
		zap.Int64("order_id", orderID),
		zap.Int64("total", total))
	return nil
}

func (m *Machine) goBack(s *Session) error {
	switch s.State {
	case StateAuthenticate, StateRegister:
		s.State = StateIdentify
	case StateOrderTypeSelect:
		if s.authPath == "" {
			// Pre-authenticated sessions entered here; there is no
			// preceding step.
			return fmt.Errorf("%w: no previous step", ErrInvalidTransition)
		}
		s.State = s.authPath
	case StateDeliveryDetails, StatePickupDetails:
		s.State = StateOrderTypeSelect
	case StatePayment:
		if s.FulfillmentType == models.FulfillmentPickup {
			s.State = StatePickupDetails
		} else {
			s.State = StateDeliveryDetails
		}
	default:
		return fmt.Errorf("%w: cannot go back from %s", ErrInvalidTransition, s.State)
	}
	return nil
}

func validateAddress(addr models.Address) error {
	required := []struct {
		field string
		value string
	}{
		{"street", addr.Street},
		{"number", addr.Number},
		{"neighborhood", addr.Neighborhood},
		{"city", addr.City},
		{"state", addr.State},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return &ValidationError{Field: f.field, Message: f.field + " is required"}
		}
	}
	return nil
}

func transitionError(state State, action string) error {
	return fmt.Errorf("%w: cannot %s in state %s", ErrInvalidTransition, action, state)
}

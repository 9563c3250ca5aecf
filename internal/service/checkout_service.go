package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"storefront-service/internal/broker"
	"storefront-service/internal/checkout"
	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service-level errors
var (
	ErrSessionNotFound = errors.New("checkout session not found")
	// ErrBusy is returned while a collaborator call is in flight for the
	// session; no further transition may be attempted until it settles.
	ErrBusy = errors.New("checkout session has an operation in flight")
)

// IdentityLoader resolves an already-authenticated shopper at session start.
type IdentityLoader interface {
	GetUserByID(ctx context.Context, id int64) (*models.Identity, error)
}

type sessionEntry struct {
	session *checkout.Session
	busy    bool
}

// CheckoutService owns live checkout sessions and mediates every state
// machine event: single-flight per session, bounded collaborator timeouts,
// domain event publication on terminal transitions.
type CheckoutService struct {
	machine   *checkout.Machine
	loader    IdentityLoader
	carts     *CartRegistry
	publisher *broker.EventPublisher
	timeout   time.Duration
	logger    *zap.Logger

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

// NewCheckoutService creates a new checkout service. publisher may be nil
// when no event stream is attached.
func NewCheckoutService(
	machine *checkout.Machine,
	loader IdentityLoader,
	carts *CartRegistry,
	publisher *broker.EventPublisher,
	timeout time.Duration,
) *CheckoutService {
	return &CheckoutService{
		machine:   machine,
		loader:    loader,
		carts:     carts,
		publisher: publisher,
		timeout:   timeout,
		logger:    util.GetLogger(),
		sessions:  make(map[string]*sessionEntry),
	}
}

// Open starts a checkout session over an existing cart. A non-zero userID
// pre-authenticates the session, which then skips the Identify step.
func (s *CheckoutService) Open(ctx context.Context, businessID int64, cartID string, userID int64) (*checkout.Session, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.Open")
	defer span.End()

	c, err := s.carts.Get(cartID)
	if err != nil {
		return nil, err
	}

	var identity *models.Identity
	if userID != 0 {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		identity, err = s.loader.GetUserByID(ctx, userID)
		if err != nil {
			return nil, &checkout.CollaboratorError{Op: "identity lookup", Err: err}
		}
	}

	session := checkout.NewSession(businessID, c, identity)

	s.mu.Lock()
	s.sessions[session.ID] = &sessionEntry{session: session}
	s.mu.Unlock()

	util.CheckoutSessionsOpenedTotal.Inc()
	s.logger.Info("Checkout session opened",
		zap.String("session_id", session.ID),
		zap.Int64("business_id", businessID),
		zap.Bool("pre_authenticated", identity != nil))

	return session, nil
}

// Get returns a live checkout session.
func (s *CheckoutService) Get(sessionID string) (*checkout.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return entry.session, nil
}

// Apply advances a session with one event. Transitions are strictly
// sequential: while a collaborator call is pending the session rejects
// further events with ErrBusy. Terminal transitions discard the session.
func (s *CheckoutService) Apply(ctx context.Context, sessionID string, ev checkout.Event) (*checkout.Session, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.Apply")
	defer span.End()

	s.mu.Lock()
	entry, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	if entry.busy {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	entry.busy = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		entry.busy = false
		s.mu.Unlock()
	}()

	session := entry.session

	// Snapshot what event publication needs before the machine clears
	// the cart on success.
	var submittedItems []models.LineItem
	var submittedTotal int64
	if _, isSubmit := ev.(checkout.SubmitPayment); isSubmit {
		submittedItems = session.Cart.Items()
		submittedTotal = session.Cart.Total()
	}
	priorState := session.State

	applyCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := s.machine.Apply(applyCtx, session, ev)
	util.CollaboratorLatency.WithLabelValues(eventName(ev)).Observe(time.Since(start).Seconds())

	if err != nil {
		s.countFailure(err)
		return session, err
	}

	if _, isRegister := ev.(checkout.SubmitRegistration); isRegister {
		s.publishAccountCreated(ctx, session)
	}

	switch session.State {
	case checkout.StateFinalized:
		s.finalize(ctx, session, submittedItems, submittedTotal)
	case checkout.StateAbandoned:
		s.abandon(ctx, session, priorState)
	}

	return session, nil
}

func (s *CheckoutService) publishAccountCreated(ctx context.Context, session *checkout.Session) {
	if s.publisher == nil || session.Identity == nil {
		return
	}
	event := &models.AccountCreatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeAccountCreated,
			Timestamp: time.Now(),
		},
		UserID:  session.Identity.ID,
		Contact: session.Identity.Contact,
	}
	if err := s.publisher.PublishAccountCreated(ctx, event); err != nil {
		s.logger.Error("Failed to publish AccountCreated event", zap.Error(err))
	}
}

func (s *CheckoutService) finalize(ctx context.Context, session *checkout.Session, items []models.LineItem, total int64) {
	util.CheckoutSessionsFinalizedTotal.Inc()
	util.OrdersSubmittedTotal.Inc()

	if s.publisher != nil {
		eventItems := make([]models.OrderItemData, 0, len(items))
		for _, item := range items {
			eventItems = append(eventItems, models.OrderItemData{
				ProductID: item.ProductID,
				Name:      item.Name,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
			})
		}

		event := &models.OrderSubmittedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeOrderSubmitted,
				Timestamp: time.Now(),
			},
			OrderID:         session.OrderID,
			BusinessID:      session.BusinessID,
			UserID:          session.Identity.ID,
			TotalAmount:     total,
			FulfillmentType: session.FulfillmentType,
			Items:           eventItems,
		}
		if err := s.publisher.PublishOrderSubmitted(ctx, event); err != nil {
			s.logger.Error("Failed to publish OrderSubmitted event", zap.Error(err))
		}
	}

	s.mu.Lock()
	delete(s.sessions, session.ID)
	s.mu.Unlock()
	s.carts.Remove(session.Cart.ID)
}

func (s *CheckoutService) abandon(ctx context.Context, session *checkout.Session, priorState checkout.State) {
	util.CheckoutSessionsAbandonedTotal.Inc()

	if s.publisher != nil {
		event := &models.CheckoutAbandonedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeCheckoutAbandoned,
				Timestamp: time.Now(),
			},
			SessionID: session.ID,
			State:     string(priorState),
		}
		if err := s.publisher.PublishCheckoutAbandoned(ctx, event); err != nil {
			s.logger.Error("Failed to publish CheckoutAbandoned event", zap.Error(err))
		}
	}

	// The cart survives abandonment; only the session is discarded.
	s.mu.Lock()
	delete(s.sessions, session.ID)
	s.mu.Unlock()
}

func (s *CheckoutService) countFailure(err error) {
	var vErr *checkout.ValidationError
	var sErr *checkout.SubmitError
	switch {
	case errors.As(err, &vErr):
		util.CheckoutValidationFailuresTotal.WithLabelValues(vErr.Field).Inc()
	case errors.Is(err, checkout.ErrCredentialMismatch):
		util.CredentialMismatchTotal.Inc()
	case errors.As(err, &sErr):
		util.OrderSubmitFailedTotal.WithLabelValues(sErr.Kind).Inc()
	default:
		var cErr *checkout.CollaboratorError
		if errors.As(err, &cErr) {
			util.OrderSubmitFailedTotal.WithLabelValues("collaborator").Inc()
		}
	}
}

func eventName(ev checkout.Event) string {
	switch ev.(type) {
	case checkout.SubmitContact:
		return "identify"
	case checkout.SubmitCredential:
		return "authenticate"
	case checkout.SubmitRegistration:
		return "register"
	case checkout.ChooseFulfillment:
		return "fulfillment"
	case checkout.SubmitAddress, checkout.SelectAddress:
		return "address"
	case checkout.ConfirmPickup:
		return "pickup"
	case checkout.SubmitPayment:
		return "payment"
	case checkout.GoBack:
		return "back"
	case checkout.Cancel:
		return "cancel"
	default:
		return "unknown"
	}
}

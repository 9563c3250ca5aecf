package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"storefront-service/internal/checkout"
	"storefront-service/internal/customize"
	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// ErrCustomizationNotFound is returned for unknown customization session ids.
var ErrCustomizationNotFound = errors.New("customization session not found")

// CustomizeService runs product customization sessions against the catalog
// and lands confirmed line items in the shopper's cart.
type CustomizeService struct {
	catalog checkout.CatalogReader
	carts   *CartRegistry
	logger  *zap.Logger

	mu       sync.Mutex
	sessions map[string]*customize.Session
}

// NewCustomizeService creates a new customization service
func NewCustomizeService(catalog checkout.CatalogReader, carts *CartRegistry) *CustomizeService {
	return &CustomizeService{
		catalog:  catalog,
		carts:    carts,
		logger:   util.GetLogger(),
		sessions: make(map[string]*customize.Session),
	}
}

// Start resolves a product and its addon groups and opens a customization
// session bound to the given cart.
func (s *CustomizeService) Start(ctx context.Context, cartID string, productID int64) (*customize.Session, error) {
	ctx, span := util.StartSpan(ctx, "CustomizeService.Start")
	defer span.End()

	if _, err := s.carts.Get(cartID); err != nil {
		return nil, err
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve product: %w", err)
	}

	groups, err := s.catalog.GetAddonGroups(ctx, product.AddonGroupIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve addon groups: %w", err)
	}

	session := customize.NewSession(*product, groups)
	session.CartID = cartID

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	return session, nil
}

// Get returns a live customization session.
func (s *CustomizeService) Get(sessionID string) (*customize.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrCustomizationNotFound
	}
	return session, nil
}

// Toggle flips one addon item selection.
func (s *CustomizeService) Toggle(sessionID string, groupID, itemID int64) (*customize.Session, error) {
	session, err := s.Get(sessionID)
	if err != nil {
		return nil, err
	}
	session.Toggle(groupID, itemID)
	return session, nil
}

// Update sets quantity and note for the pending line item. A zero quantity
// leaves the current value untouched.
func (s *CustomizeService) Update(sessionID string, quantity int, note string) (*customize.Session, error) {
	session, err := s.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if quantity > 0 {
		session.SetQuantity(quantity)
	}
	session.SetNote(note)
	return session, nil
}

// Confirm validates the session and moves the resulting line item into the
// cart. Validation failures keep the session alive for re-prompting.
func (s *CustomizeService) Confirm(sessionID string) (models.LineItem, error) {
	session, err := s.Get(sessionID)
	if err != nil {
		return models.LineItem{}, err
	}

	item, err := session.Confirm()
	if err != nil {
		var groupErr *customize.GroupError
		if errors.As(err, &groupErr) {
			util.AddonValidationFailuresTotal.WithLabelValues(groupErr.Kind).Inc()
		}
		return models.LineItem{}, err
	}

	c, err := s.carts.Get(session.CartID)
	if err != nil {
		return models.LineItem{}, err
	}
	c.Add(item)

	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	util.LineItemsConfirmedTotal.Inc()
	s.logger.Info("Line item confirmed",
		zap.String("cart_id", session.CartID),
		zap.Int64("product_id", item.ProductID),
		zap.Int64("unit_price", item.UnitPrice))

	return item, nil
}

// Discard drops a customization session without touching the cart.
func (s *CustomizeService) Discard(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}

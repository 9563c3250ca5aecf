package service

import (
	"errors"
	"sync"

	"storefront-service/internal/cart"
)

// ErrCartNotFound is returned for unknown cart ids.
var ErrCartNotFound = errors.New("cart not found")

// CartRegistry tracks live shopper carts by id. Each cart itself is owned
// by a single shopper interaction; the registry only guards the map.
type CartRegistry struct {
	mu    sync.RWMutex
	carts map[string]*cart.Cart
}

// NewCartRegistry creates an empty registry.
func NewCartRegistry() *CartRegistry {
	return &CartRegistry{carts: make(map[string]*cart.Cart)}
}

// Create opens a new empty cart and registers it.
func (r *CartRegistry) Create() *cart.Cart {
	c := cart.New()
	r.mu.Lock()
	r.carts[c.ID] = c
	r.mu.Unlock()
	return c
}

// Get returns a registered cart.
func (r *CartRegistry) Get(id string) (*cart.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.carts[id]
	if !ok {
		return nil, ErrCartNotFound
	}
	return c, nil
}

// Remove drops a cart from the registry.
func (r *CartRegistry) Remove(id string) {
	r.mu.Lock()
	delete(r.carts, id)
	r.mu.Unlock()
}

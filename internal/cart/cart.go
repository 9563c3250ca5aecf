package cart

import (
	"fmt"

	"storefront-service/internal/models"
	"storefront-service/internal/pricing"

	"github.com/google/uuid"
)

// Cart is an ordered collection of line items with derived totals.
// A cart belongs to a single shopper interaction and is not safe for
// concurrent mutation.
type Cart struct {
	ID    string
	items []models.LineItem
}

// New creates an empty cart.
func New() *Cart {
	return &Cart{ID: uuid.New().String()}
}

// Add appends a confirmed line item to the cart.
func (c *Cart) Add(item models.LineItem) {
	c.items = append(c.items, item)
}

// AddProduct appends an uncustomized product as a new line item and
// returns it.
func (c *Cart) AddProduct(product models.Product, quantity int) (models.LineItem, error) {
	if quantity < 1 {
		return models.LineItem{}, fmt.Errorf("invalid quantity: %d", quantity)
	}

	item := models.LineItem{
		ID:        uuid.New().String(),
		ProductID: product.ID,
		Name:      product.Name,
		UnitPrice: product.Price,
		Quantity:  quantity,
	}
	c.items = append(c.items, item)
	return item, nil
}

// Remove deletes a line item by its cart-scoped id. Returns false when
// no such item exists.
func (c *Cart) Remove(lineID string) bool {
	for i := range c.items {
		if c.items[i].ID == lineID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

// AdjustQuantity sets a line item's quantity.
func (c *Cart) AdjustQuantity(lineID string, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("invalid quantity: %d", quantity)
	}
	for i := range c.items {
		if c.items[i].ID == lineID {
			c.items[i].Quantity = quantity
			return nil
		}
	}
	return fmt.Errorf("line item not found: %s", lineID)
}

// Items returns a copy of the line items in insertion order.
func (c *Cart) Items() []models.LineItem {
	items := make([]models.LineItem, len(c.items))
	copy(items, c.items)
	return items
}

// Total returns the sum of all line totals.
func (c *Cart) Total() int64 {
	return pricing.CartTotal(c.items)
}

// ItemCount returns the sum of all line quantities.
func (c *Cart) ItemCount() int {
	var count int
	for _, item := range c.items {
		count += item.Quantity
	}
	return count
}

// Empty reports whether the cart has no line items.
func (c *Cart) Empty() bool {
	return len(c.items) == 0
}

// Clear removes all line items.
func (c *Cart) Clear() {
	c.items = nil
}

package pricing

import "storefront-service/internal/models"

// UnitPrice computes the resolved unit price of a product under the given
// addon selections: base price plus, for every referenced group, the sum of
// (item price delta x quantity). Unknown group or item ids are ignored.
func UnitPrice(product models.Product, groups []models.AddonGroup, selections models.Selections) int64 {
	total := product.Price

	for _, group := range groups {
		chosen, ok := selections[group.ID]
		if !ok {
			continue
		}
		for _, item := range group.Items {
			if qty, ok := chosen[item.ID]; ok && qty > 0 {
				total += item.Price * int64(qty)
			}
		}
	}

	return total
}

// LineTotal computes unit price x quantity for a line item.
func LineTotal(item models.LineItem) int64 {
	return item.UnitPrice * int64(item.Quantity)
}

// CartTotal sums the line totals of all items.
func CartTotal(items []models.LineItem) int64 {
	var total int64
	for _, item := range items {
		total += LineTotal(item)
	}
	return total
}

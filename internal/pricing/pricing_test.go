package pricing

import (
	"testing"

	"storefront-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestUnitPriceBaseOnly(t *testing.T) {
	product := models.Product{ID: 1, Price: 2000}

	price := UnitPrice(product, nil, models.Selections{})

	assert.Equal(t, int64(2000), price)
}

func TestUnitPriceWithSelections(t *testing.T) {
	product := models.Product{ID: 1, Price: 2000, AddonGroupIDs: []int64{10, 20}}
	groups := []models.AddonGroup{
		{
			ID: 10, Name: "Size", IsRequired: true, MinSelection: 1, MaxSelection: 1,
			Items: []models.AddonItem{
				{ID: 101, GroupID: 10, Name: "Regular", Price: 0, Available: true},
				{ID: 102, GroupID: 10, Name: "Large", Price: 500, Available: true},
			},
		},
		{
			ID: 20, Name: "Extras", MinSelection: 0, MaxSelection: 2,
			Items: []models.AddonItem{
				{ID: 201, GroupID: 20, Name: "Cheese", Price: 200, Available: true},
				{ID: 202, GroupID: 20, Name: "Bacon", Price: 300, Available: true},
			},
		},
	}
	selections := models.Selections{
		10: {102: 1},
		20: {201: 1, 202: 1},
	}

	price := UnitPrice(product, groups, selections)

	assert.Equal(t, int64(2000+500+200+300), price)
}

func TestUnitPriceIgnoresUnknownItems(t *testing.T) {
	product := models.Product{ID: 1, Price: 1000}
	groups := []models.AddonGroup{
		{ID: 10, MaxSelection: 1, Items: []models.AddonItem{
			{ID: 101, GroupID: 10, Price: 500, Available: true},
		}},
	}
	selections := models.Selections{
		10: {999: 1},
		77: {1: 1},
	}

	price := UnitPrice(product, groups, selections)

	assert.Equal(t, int64(1000), price)
}

func TestUnitPriceMonotonicInSelections(t *testing.T) {
	product := models.Product{ID: 1, Price: 1500}
	groups := []models.AddonGroup{
		{ID: 10, MaxSelection: 3, Items: []models.AddonItem{
			{ID: 101, GroupID: 10, Price: 100, Available: true},
			{ID: 102, GroupID: 10, Price: 250, Available: true},
			{ID: 103, GroupID: 10, Price: 0, Available: true},
		}},
	}

	selections := models.Selections{10: {}}
	prev := UnitPrice(product, groups, selections)
	for _, itemID := range []int64{101, 102, 103} {
		selections[10][itemID] = 1
		price := UnitPrice(product, groups, selections)
		assert.GreaterOrEqual(t, price, prev)
		prev = price
	}
}

func TestLineTotal(t *testing.T) {
	item := models.LineItem{UnitPrice: 3000, Quantity: 2}

	assert.Equal(t, int64(6000), LineTotal(item))
}

func TestCartTotal(t *testing.T) {
	items := []models.LineItem{
		{UnitPrice: 1000, Quantity: 2},
		{UnitPrice: 550, Quantity: 1},
		{UnitPrice: 300, Quantity: 3},
	}

	assert.Equal(t, int64(2000+550+900), CartTotal(items))
	assert.Equal(t, int64(0), CartTotal(nil))
}

package store

import (
	"context"
	"database/sql"
	"fmt"

	"storefront-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// GetProductByID retrieves a product with its referenced addon group ids
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product not found: %d", id)
	}
	if err != nil {
		return nil, err
	}

	err = s.db.SelectContext(ctx, &product.AddonGroupIDs,
		"SELECT group_id FROM product_addon_groups WHERE product_id = $1 ORDER BY position", id)
	if err != nil {
		return nil, fmt.Errorf("failed to load addon group ids: %w", err)
	}

	return &product, nil
}

// GetProductsByBusiness retrieves all products of a storefront
func (s *Store) GetProductsByBusiness(ctx context.Context, businessID int64) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products,
		"SELECT * FROM products WHERE business_id = $1 ORDER BY id", businessID)
	return products, err
}

// GetAddonGroupsByIDs retrieves addon groups with their items, in the
// order of the requested ids
func (s *Store) GetAddonGroupsByIDs(ctx context.Context, ids []int64) ([]models.AddonGroup, error) {
	if len(ids) == 0 {
		return []models.AddonGroup{}, nil
	}

	query, args, err := sqlx.In(
		"SELECT id, name, is_required, min_selection, max_selection FROM addon_groups WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var groups []models.AddonGroup
	if err := s.db.SelectContext(ctx, &groups, query, args...); err != nil {
		return nil, err
	}

	query, args, err = sqlx.In(
		"SELECT id, group_id, name, price, available FROM addon_items WHERE group_id IN (?) ORDER BY group_id, position", ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var items []models.AddonItem
	if err := s.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, err
	}

	byGroup := make(map[int64][]models.AddonItem, len(groups))
	for _, item := range items {
		byGroup[item.GroupID] = append(byGroup[item.GroupID], item)
	}

	ordered := make([]models.AddonGroup, 0, len(ids))
	byID := make(map[int64]models.AddonGroup, len(groups))
	for _, group := range groups {
		group.Items = byGroup[group.ID]
		byID[group.ID] = group
	}
	for _, id := range ids {
		if group, ok := byID[id]; ok {
			ordered = append(ordered, group)
		}
	}

	return ordered, nil
}

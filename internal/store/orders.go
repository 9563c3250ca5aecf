package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"storefront-service/internal/checkout"
	"storefront-service/internal/models"
)

// Submit persists a finalized order document atomically: the order row,
// its line items and its payment entries. Implements checkout.OrderSink.
func (s *Store) Submit(ctx context.Context, payload *checkout.OrderPayload) (int64, error) {
	if len(payload.Items) == 0 {
		return 0, &checkout.SubmitError{Kind: checkout.SubmitInvalid, Err: fmt.Errorf("order has no items")}
	}
	if payload.TotalAmount < 0 {
		return 0, &checkout.SubmitError{Kind: checkout.SubmitInvalid, Err: fmt.Errorf("negative total")}
	}

	var addressJSON []byte
	if payload.Address != nil {
		data, err := json.Marshal(payload.Address)
		if err != nil {
			return 0, &checkout.SubmitError{Kind: checkout.SubmitInvalid, Err: fmt.Errorf("failed to encode address: %w", err)}
		}
		addressJSON = data
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, &checkout.SubmitError{Kind: checkout.SubmitTransient, Err: err}
	}
	defer tx.Rollback()

	var orderID int64
	err = tx.GetContext(ctx, &orderID, `
		INSERT INTO orders (business_id, user_id, user_name, user_contact, total_amount, fulfillment_type, address_json, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		payload.BusinessID, payload.UserID, payload.UserName, payload.UserContact,
		payload.TotalAmount, payload.FulfillmentType, addressJSON, payload.Status)
	if err != nil {
		return 0, &checkout.SubmitError{Kind: checkout.SubmitTransient, Err: fmt.Errorf("failed to insert order: %w", err)}
	}

	for _, item := range payload.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, name, unit_price, quantity, observation)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			orderID, item.ProductID, item.Name, item.UnitPrice, item.Quantity, item.Observation)
		if err != nil {
			return 0, &checkout.SubmitError{Kind: checkout.SubmitTransient, Err: fmt.Errorf("failed to insert order item: %w", err)}
		}
	}

	for _, payment := range payload.Payments {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_payments (order_id, method, tendered, change_amount)
			VALUES ($1, $2, $3, $4)`,
			orderID, payment.Method, payment.Tendered, payment.Change)
		if err != nil {
			return 0, &checkout.SubmitError{Kind: checkout.SubmitTransient, Err: fmt.Errorf("failed to insert order payment: %w", err)}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, &checkout.SubmitError{Kind: checkout.SubmitTransient, Err: err}
	}

	return orderID, nil
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderItemsByOrderID retrieves all items for an order
func (s *Store) GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	return items, err
}

// GetOrderPaymentsByOrderID retrieves all payment entries for an order
func (s *Store) GetOrderPaymentsByOrderID(ctx context.Context, orderID int64) ([]models.OrderPayment, error) {
	var payments []models.OrderPayment
	err := s.db.SelectContext(ctx, &payments,
		"SELECT * FROM order_payments WHERE order_id = $1 ORDER BY id", orderID)
	return payments, err
}

// GetOrdersByUserID retrieves orders for a shopper
func (s *Store) GetOrdersByUserID(ctx context.Context, userID int64) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return orders, err
}

// UpdateOrderStatus updates order status
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID int64, status string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2",
		status, orderID)
	return err
}

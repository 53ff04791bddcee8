package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nyodera1-source/allivanfresh-whatsapp-bot/models"
)

// CreateOrder inserts the order and its items in one transaction.
func (db *DB) CreateOrder(ctx context.Context, o *models.Order) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	orderQuery := `
		INSERT INTO orders (
			id, customer_phone, order_number, status, subtotal, delivery_fee,
			total, delivery_location, delivery_km, delivery_zone, created_at, confirmed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = tx.ExecContext(ctx, orderQuery,
		o.ID, o.CustomerPhone, o.OrderNumber, o.Status, o.Subtotal, o.DeliveryFee,
		o.Total, o.DeliveryLocation, o.DeliveryKm, o.DeliveryZone, o.CreatedAt, o.ConfirmedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, product_name, quantity, unit, unit_price, total, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	for _, item := range o.Items {
		_, err = tx.ExecContext(ctx, itemQuery,
			item.ID, o.ID, item.ProductID, item.ProductName, item.Quantity,
			item.Unit, item.UnitPrice, item.Total, item.Notes,
		)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	return tx.Commit()
}

// CountOrdersForDate counts orders created on the given calendar day.
func (db *DB) CountOrdersForDate(ctx context.Context, day time.Time) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE created_at::date = $1::date`, day).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}

// OrderNumberExists checks for an order-number collision.
func (db *DB) OrderNumberExists(ctx context.Context, orderNumber string) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM orders WHERE order_number = $1)`, orderNumber).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check order number: %w", err)
	}
	return exists, nil
}

// UpdateOrderStatus records the notification outcome.
func (db *DB) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status string, notifiedAt *time.Time) error {
	_, err := db.ExecContext(ctx,
		`UPDATE orders SET status = $2, notified_at = $3 WHERE id = $1`, id, status, notifiedAt)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return nil
}

// GetOrderByNumber fetches an order with its items for tracking.
func (db *DB) GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	query := `
		SELECT id, customer_phone, order_number, status, subtotal, delivery_fee,
		       total, delivery_location, delivery_km, delivery_zone, created_at, confirmed_at, notified_at
		FROM orders WHERE order_number = $1
	`
	var o models.Order
	err := db.QueryRowContext(ctx, query, orderNumber).Scan(
		&o.ID, &o.CustomerPhone, &o.OrderNumber, &o.Status, &o.Subtotal, &o.DeliveryFee,
		&o.Total, &o.DeliveryLocation, &o.DeliveryKm, &o.DeliveryZone, &o.CreatedAt, &o.ConfirmedAt, &o.NotifiedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order: %w", err)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, order_id, product_id, product_name, quantity, unit, unit_price, total, notes
		FROM order_items WHERE order_id = $1
	`, o.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.Quantity, &item.Unit, &item.UnitPrice, &item.Total, &item.Notes)
		if err != nil {
			continue
		}
		o.Items = append(o.Items, item)
	}
	return &o, rows.Err()
}

// ListRecentOrders returns the latest orders for the admin surface.
func (db *DB) ListRecentOrders(ctx context.Context, limit int) ([]models.Order, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, customer_phone, order_number, status, subtotal, delivery_fee,
		       total, delivery_location, delivery_km, delivery_zone, created_at, confirmed_at, notified_at
		FROM orders ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		err := rows.Scan(&o.ID, &o.CustomerPhone, &o.OrderNumber, &o.Status, &o.Subtotal,
			&o.DeliveryFee, &o.Total, &o.DeliveryLocation, &o.DeliveryKm, &o.DeliveryZone,
			&o.CreatedAt, &o.ConfirmedAt, &o.NotifiedAt)
		if err != nil {
			continue
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

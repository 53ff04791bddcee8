package models

import (
	"time"

	"github.com/google/uuid"
)

// Order statuses. An order whose customer notification failed stays
// valid; the status records that the notification is still owed.
const (
	OrderStatusPending            = "pending"
	OrderStatusConfirmed          = "confirmed"
	OrderStatusNotificationSent   = "notification_sent"
	OrderStatusNotificationFailed = "notification_failed"
)

// Order represents a confirmed customer order
type Order struct {
	ID               uuid.UUID   `json:"id" db:"id"`
	CustomerPhone    string      `json:"customer_phone" db:"customer_phone"`
	OrderNumber      string      `json:"order_number" db:"order_number"`
	Status           string      `json:"status" db:"status"`
	Subtotal         float64     `json:"subtotal" db:"subtotal"`
	DeliveryFee      float64     `json:"delivery_fee" db:"delivery_fee"`
	Total            float64     `json:"total" db:"total"`
	DeliveryLocation string      `json:"delivery_location" db:"delivery_location"`
	DeliveryKm       float64     `json:"delivery_km" db:"delivery_km"`
	DeliveryZone     string      `json:"delivery_zone" db:"delivery_zone"`
	CreatedAt        time.Time   `json:"created_at" db:"created_at"`
	ConfirmedAt      *time.Time  `json:"confirmed_at,omitempty" db:"confirmed_at"`
	NotifiedAt       *time.Time  `json:"notified_at,omitempty" db:"notified_at"`
	Items            []OrderItem `json:"items,omitempty"`
}

// OrderItem is a cart line snapshotted at confirmation time. Price and
// quantity are fixed here, independent of later catalog changes.
type OrderItem struct {
	ID          uuid.UUID `json:"id" db:"id"`
	OrderID     uuid.UUID `json:"order_id" db:"order_id"`
	ProductID   uuid.UUID `json:"product_id" db:"product_id"`
	ProductName string    `json:"product_name" db:"product_name"`
	Quantity    float64   `json:"quantity" db:"quantity"`
	Unit        string    `json:"unit" db:"unit"`
	UnitPrice   float64   `json:"unit_price" db:"unit_price"`
	Total       float64   `json:"total" db:"total"`
	Notes       string    `json:"notes" db:"notes"`
}

func (Order) TableName() string {
	return "orders"
}

func (Order) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS orders (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		customer_phone VARCHAR(30) NOT NULL,
		order_number VARCHAR(50) NOT NULL UNIQUE,
		status VARCHAR(30) NOT NULL DEFAULT 'pending',
		subtotal NUMERIC(12,2) NOT NULL DEFAULT 0,
		delivery_fee NUMERIC(12,2) NOT NULL DEFAULT 0,
		total NUMERIC(12,2) NOT NULL DEFAULT 0,
		delivery_location TEXT DEFAULT '',
		delivery_km DOUBLE PRECISION DEFAULT 0,
		delivery_zone VARCHAR(20) DEFAULT '',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
		confirmed_at TIMESTAMP WITH TIME ZONE,
		notified_at TIMESTAMP WITH TIME ZONE
	);`
}

func (OrderItem) TableName() string {
	return "order_items"
}

func (OrderItem) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS order_items (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_id UUID NOT NULL,
		product_name TEXT NOT NULL,
		quantity DOUBLE PRECISION NOT NULL,
		unit VARCHAR(20) NOT NULL DEFAULT 'kg',
		unit_price NUMERIC(12,2) NOT NULL,
		total NUMERIC(12,2) NOT NULL,
		notes TEXT DEFAULT ''
	);`
}

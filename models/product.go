package models

import (
	"time"

	"github.com/google/uuid"
)

// Product categories. Fish and poultry are delivery-fee anchors: their
// presence in a cart qualifies the order for free in-town delivery.
const (
	CategoryFish       = "fish"
	CategoryPoultry    = "poultry"
	CategoryVegetables = "vegetables"
	CategoryFruits     = "fruits"
	CategoryCereals    = "cereals"
	CategorySpices     = "spices"
)

// Availability statuses for products.
const (
	AvailabilityInStock    = "in_stock"
	AvailabilityOnRequest  = "available_on_request"
	AvailabilityOutOfStock = "out_of_stock"
)

// Product represents a catalog item sold by the shop
type Product struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Category     string    `json:"category" db:"category"`
	Price        float64   `json:"price" db:"price"`
	Unit         string    `json:"unit" db:"unit"`
	Availability string    `json:"availability" db:"availability"`
	Stock        *int      `json:"stock,omitempty" db:"stock"`
	ImageURL     string    `json:"image_url" db:"image_url"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// IsAnchorCategory reports whether a category qualifies a cart for
// free in-town delivery.
func IsAnchorCategory(category string) bool {
	return category == CategoryFish || category == CategoryPoultry
}

// Sellable reports whether the product can be added to a cart.
func (p *Product) Sellable() bool {
	return p.IsActive && p.Availability != AvailabilityOutOfStock
}

func (Product) TableName() string {
	return "products"
}

func (Product) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS products (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name TEXT NOT NULL,
		category VARCHAR(30) NOT NULL,
		price NUMERIC(12,2) NOT NULL,
		unit VARCHAR(20) NOT NULL DEFAULT 'kg',
		availability VARCHAR(30) NOT NULL DEFAULT 'in_stock',
		stock INTEGER,
		image_url TEXT,
		is_active BOOLEAN DEFAULT TRUE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT now()
	);`
}

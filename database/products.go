package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/nyodera1-source/allivanfresh-whatsapp-bot/models"
)

const productColumns = `id, name, category, price, unit, availability, stock, image_url, is_active, created_at, updated_at`

func scanProduct(row interface{ Scan(...interface{}) error }) (*models.Product, error) {
	var p models.Product
	var stock sql.NullInt64
	var imageURL sql.NullString
	err := row.Scan(
		&p.ID, &p.Name, &p.Category, &p.Price, &p.Unit, &p.Availability,
		&stock, &imageURL, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if stock.Valid {
		v := int(stock.Int64)
		p.Stock = &v
	}
	p.ImageURL = imageURL.String
	return &p, nil
}

// GetProduct fetches one product. Returns nil, nil when absent.
func (db *DB) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	row := db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product: %w", err)
	}
	return p, nil
}

// ListActiveProducts returns the catalog the assistant sees.
func (db *DB) ListActiveProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE is_active = true ORDER BY category, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			continue
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// CreateProduct inserts a catalog item.
func (db *DB) CreateProduct(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (id, name, category, price, unit, availability, stock, image_url, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := db.ExecContext(ctx, query,
		p.ID, p.Name, p.Category, p.Price, p.Unit, p.Availability, p.Stock, p.ImageURL, p.IsActive)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// UpdateProduct updates the mutable catalog fields.
func (db *DB) UpdateProduct(ctx context.Context, p *models.Product) error {
	query := `
		UPDATE products
		SET name = $2, category = $3, price = $4, unit = $5, availability = $6,
		    stock = $7, image_url = $8, is_active = $9, updated_at = now()
		WHERE id = $1
	`
	res, err := db.ExecContext(ctx, query,
		p.ID, p.Name, p.Category, p.Price, p.Unit, p.Availability, p.Stock, p.ImageURL, p.IsActive)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DecrementStock reduces a bounded stock counter, flooring at zero.
// Reaching zero flips availability to out-of-stock. Products without a
// counter are unlimited and left alone.
func (db *DB) DecrementStock(ctx context.Context, productID uuid.UUID, quantity float64) error {
	query := `
		UPDATE products
		SET stock = GREATEST(stock - CEIL($2::numeric)::int, 0),
		    availability = CASE WHEN GREATEST(stock - CEIL($2::numeric)::int, 0) = 0
		                        THEN 'out_of_stock' ELSE availability END,
		    updated_at = now()
		WHERE id = $1 AND stock IS NOT NULL
	`
	if _, err := db.ExecContext(ctx, query, productID, quantity); err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}
	return nil
}

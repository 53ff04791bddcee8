package database

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/nyodera1-source/allivanfresh-whatsapp-bot/models"

	_ "github.com/lib/pq"
)

type DB struct {
	*sql.DB
}

var Database *DB

// Connect establishes a connection to the PostgreSQL database
func Connect(databaseURL string) (*DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	Database = &DB{db}
	return Database, nil
}

// InitializeTables creates all tables if they don't exist
func (db *DB) InitializeTables() error {
	// Enable pgcrypto extension
	if _, err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`); err != nil {
		return fmt.Errorf("failed to enable pgcrypto extension: %w", err)
	}

	// Order matters for foreign keys
	tables := []interface {
		TableName() string
		CreateTableSQL() string
	}{
		models.Product{},
		models.Session{},
		models.Order{},
		models.OrderItem{},
		models.RecommendationEdge{},
	}

	for _, model := range tables {
		log.Printf("Creating table: %s", model.TableName())
		if _, err := db.Exec(model.CreateTableSQL()); err != nil {
			return fmt.Errorf("failed to create table %s: %w", model.TableName(), err)
		}
	}

	if err := db.runMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("All tables created successfully!")
	return nil
}

// runMigrations handles schema updates for existing tables
func (db *DB) runMigrations() error {
	migrations := []string{
		`CREATE INDEX IF NOT EXISTS idx_orders_customer_phone ON orders(customer_phone);`,
		`CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id);`,
		`CREATE INDEX IF NOT EXISTS idx_recommendation_edges_strength ON recommendation_edges(product_id, strength DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_last_active ON sessions(last_active_at);`,

		// Earlier deployments tracked availability as a boolean
		`ALTER TABLE products ADD COLUMN IF NOT EXISTS availability VARCHAR(30) NOT NULL DEFAULT 'in_stock';`,
		`ALTER TABLE products ADD COLUMN IF NOT EXISTS image_url TEXT;`,
		`ALTER TABLE sessions ADD COLUMN IF NOT EXISTS location_not_found BOOLEAN DEFAULT FALSE;`,
		`ALTER TABLE orders ADD COLUMN IF NOT EXISTS delivery_km DOUBLE PRECISION DEFAULT 0;`,
		`ALTER TABLE orders ADD COLUMN IF NOT EXISTS delivery_zone VARCHAR(20) DEFAULT '';`,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			log.Printf("Warning: Migration %d failed: %v", i+1, err)
			// Continue with other migrations even if one fails
		}
	}

	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

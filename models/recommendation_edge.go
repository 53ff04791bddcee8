package models

import (
	"time"

	"github.com/google/uuid"
)

// RecommendationEdge is a directed product-to-product link whose
// strength reflects historical co-purchase frequency. Updates always
// write both directions, so the graph is symmetric by construction.
type RecommendationEdge struct {
	ProductID     uuid.UUID `json:"product_id" db:"product_id"`
	RecommendedID uuid.UUID `json:"recommended_id" db:"recommended_id"`
	Strength      float64   `json:"strength" db:"strength"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

func (RecommendationEdge) TableName() string {
	return "recommendation_edges"
}

func (RecommendationEdge) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS recommendation_edges (
		product_id UUID NOT NULL,
		recommended_id UUID NOT NULL,
		strength DOUBLE PRECISION NOT NULL DEFAULT 1.0,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
		PRIMARY KEY (product_id, recommended_id)
	);`
}

package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/nyodera1-source/allivanfresh-whatsapp-bot/models"
)

// EdgesFrom returns all edges whose source is any of the given
// products.
func (db *DB) EdgesFrom(ctx context.Context, productIDs []uuid.UUID) ([]models.RecommendationEdge, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	ids := make([]string, len(productIDs))
	for i, id := range productIDs {
		ids[i] = id.String()
	}

	rows, err := db.QueryContext(ctx, `
		SELECT product_id, recommended_id, strength, updated_at
		FROM recommendation_edges
		WHERE product_id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recommendation edges: %w", err)
	}
	defer rows.Close()

	var edges []models.RecommendationEdge
	for rows.Next() {
		var e models.RecommendationEdge
		if err := rows.Scan(&e.ProductID, &e.RecommendedID, &e.Strength, &e.UpdatedAt); err != nil {
			continue
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// IncrementEdge upserts one directed edge: create at the initial
// strength, or add the increment to an existing one.
func (db *DB) IncrementEdge(ctx context.Context, productID, recommendedID uuid.UUID, increment, initial float64) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO recommendation_edges (product_id, recommended_id, strength, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (product_id, recommended_id)
		DO UPDATE SET strength = recommendation_edges.strength + $4, updated_at = now()
	`, productID, recommendedID, initial, increment)
	if err != nil {
		return fmt.Errorf("failed to upsert recommendation edge: %w", err)
	}
	return nil
}

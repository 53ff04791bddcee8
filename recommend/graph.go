// Package recommend maintains a weighted co-occurrence graph over
// products and suggests complements for whatever is in the cart.
package recommend

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/google/uuid"

	"github.com/nyodera1-source/allivanfresh-whatsapp-bot/models"
)

// EdgeStore is the persistence the graph needs: read outgoing edges
// and upsert-increment a single directed edge.
type EdgeStore interface {
	EdgesFrom(ctx context.Context, productIDs []uuid.UUID) ([]models.RecommendationEdge, error)
	IncrementEdge(ctx context.Context, productID, recommendedID uuid.UUID, increment, initial float64) error
}

// ProductReader resolves edge targets back to catalog entries.
type ProductReader interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type Graph struct {
	Edges    EdgeStore
	Products ProductReader

	Limit           int
	MinStrength     float64
	Increment       float64
	InitialStrength float64
}

// Recommend returns up to Limit sellable products linked to the cart's
// contents, strongest first. Products already in the cart are never
// suggested. The ordering is deterministic: strength descending, then
// product id.
func (g *Graph) Recommend(ctx context.Context, cartProductIDs []uuid.UUID) ([]models.Product, error) {
	if len(cartProductIDs) == 0 {
		return nil, nil
	}

	edges, err := g.Edges.EdgesFrom(ctx, cartProductIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load recommendation edges: %w", err)
	}

	inCart := make(map[uuid.UUID]bool, len(cartProductIDs))
	for _, id := range cartProductIDs {
		inCart[id] = true
	}

	// De-duplicate by target, keeping the strongest edge.
	strongest := make(map[uuid.UUID]float64)
	for _, e := range edges {
		if inCart[e.RecommendedID] {
			continue
		}
		if e.Strength < g.MinStrength {
			continue
		}
		if e.Strength > strongest[e.RecommendedID] {
			strongest[e.RecommendedID] = e.Strength
		}
	}

	targets := make([]uuid.UUID, 0, len(strongest))
	for id := range strongest {
		targets = append(targets, id)
	}
	sort.Slice(targets, func(i, j int) bool {
		si, sj := strongest[targets[i]], strongest[targets[j]]
		if si != sj {
			return si > sj
		}
		return targets[i].String() < targets[j].String()
	})

	var out []models.Product
	for _, id := range targets {
		if len(out) >= g.Limit {
			break
		}
		p, err := g.Products.GetProduct(ctx, id)
		if err != nil || p == nil {
			continue
		}
		if !p.Sellable() {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

// UpdateFromOrder strengthens the link between every unordered pair of
// distinct products in a completed order, writing both directions. An
// order with fewer than two distinct products is a no-op. Individual
// upsert failures are logged and skipped; the order itself already
// stands.
func (g *Graph) UpdateFromOrder(ctx context.Context, orderedProductIDs []uuid.UUID) {
	distinct := make([]uuid.UUID, 0, len(orderedProductIDs))
	seen := make(map[uuid.UUID]bool)
	for _, id := range orderedProductIDs {
		if !seen[id] {
			seen[id] = true
			distinct = append(distinct, id)
		}
	}
	if len(distinct) < 2 {
		return
	}

	for i := 0; i < len(distinct); i++ {
		for j := i + 1; j < len(distinct); j++ {
			a, b := distinct[i], distinct[j]
			if err := g.Edges.IncrementEdge(ctx, a, b, g.Increment, g.InitialStrength); err != nil {
				log.Printf("failed to upsert recommendation edge %s -> %s: %v", a, b, err)
			}
			if err := g.Edges.IncrementEdge(ctx, b, a, g.Increment, g.InitialStrength); err != nil {
				log.Printf("failed to upsert recommendation edge %s -> %s: %v", b, a, err)
			}
		}
	}
}

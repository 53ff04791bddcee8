package recommend

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyodera1-source/allivanfresh-whatsapp-bot/models"
)

type edgeKey struct {
	from uuid.UUID
	to   uuid.UUID
}

type memEdgeStore struct {
	strengths map[edgeKey]float64
}

func newMemEdgeStore() *memEdgeStore {
	return &memEdgeStore{strengths: make(map[edgeKey]float64)}
}

func (m *memEdgeStore) EdgesFrom(ctx context.Context, productIDs []uuid.UUID) ([]models.RecommendationEdge, error) {
	var edges []models.RecommendationEdge
	for _, src := range productIDs {
		for k, s := range m.strengths {
			if k.from == src {
				edges = append(edges, models.RecommendationEdge{
					ProductID:     k.from,
					RecommendedID: k.to,
					Strength:      s,
				})
			}
		}
	}
	return edges, nil
}

func (m *memEdgeStore) IncrementEdge(ctx context.Context, productID, recommendedID uuid.UUID, increment, initial float64) error {
	k := edgeKey{from: productID, to: recommendedID}
	if _, ok := m.strengths[k]; ok {
		m.strengths[k] += increment
	} else {
		m.strengths[k] = initial
	}
	return nil
}

type memProducts struct {
	products map[uuid.UUID]*models.Product
}

func (m *memProducts) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return m.products[id], nil
}

func newGraph(store *memEdgeStore, catalog *memProducts) *Graph {
	return &Graph{
		Edges:           store,
		Products:        catalog,
		Limit:           3,
		MinStrength:     2.0,
		Increment:       1.0,
		InitialStrength: 1.0,
	}
}

func sellable(name string) *models.Product {
	return &models.Product{
		ID:           uuid.New(),
		Name:         name,
		Category:     models.CategoryVegetables,
		Availability: models.AvailabilityInStock,
		IsActive:     true,
	}
}

func TestUpdateFromOrderWritesBothDirections(t *testing.T) {
	store := newMemEdgeStore()
	g := newGraph(store, &memProducts{})

	a, b, c := uuid.New(), uuid.New(), uuid.New()
	g.UpdateFromOrder(context.Background(), []uuid.UUID{a, b, c})

	require.Len(t, store.strengths, 6, "three products pair into six directed edges")
	for _, k := range []edgeKey{{a, b}, {b, a}, {a, c}, {c, a}, {b, c}, {c, b}} {
		assert.Equal(t, 1.0, store.strengths[k])
	}

	// A repeat order over the same triple increments every edge.
	g.UpdateFromOrder(context.Background(), []uuid.UUID{a, b, c})
	require.Len(t, store.strengths, 6)
	for k := range store.strengths {
		assert.Equal(t, 2.0, store.strengths[k])
	}
}

func TestUpdateFromOrderIgnoresSingleProduct(t *testing.T) {
	store := newMemEdgeStore()
	g := newGraph(store, &memProducts{})

	a := uuid.New()
	g.UpdateFromOrder(context.Background(), []uuid.UUID{a})
	assert.Empty(t, store.strengths, "no self-edges, nothing to pair")

	// Duplicate lines of one product are still a single distinct product.
	g.UpdateFromOrder(context.Background(), []uuid.UUID{a, a})
	assert.Empty(t, store.strengths)
}

func TestRecommendFiltersAndRanks(t *testing.T) {
	store := newMemEdgeStore()
	inCart := sellable("tilapia")
	strong := sellable("sukuma wiki")
	weak := sellable("dhania")
	outOfStock := sellable("omena")
	outOfStock.Availability = models.AvailabilityOutOfStock
	alsoInCart := sellable("managu")

	catalog := &memProducts{products: map[uuid.UUID]*models.Product{
		inCart.ID:     inCart,
		strong.ID:     strong,
		weak.ID:       weak,
		outOfStock.ID: outOfStock,
		alsoInCart.ID: alsoInCart,
	}}

	store.strengths[edgeKey{inCart.ID, strong.ID}] = 5
	store.strengths[edgeKey{inCart.ID, weak.ID}] = 1.5 // below threshold
	store.strengths[edgeKey{inCart.ID, outOfStock.ID}] = 8
	store.strengths[edgeKey{inCart.ID, alsoInCart.ID}] = 9

	g := newGraph(store, catalog)
	got, err := g.Recommend(context.Background(), []uuid.UUID{inCart.ID, alsoInCart.ID})
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, strong.ID, got[0].ID)
}

func TestRecommendCapsAndOrdersDeterministically(t *testing.T) {
	store := newMemEdgeStore()
	inCart := sellable("kuku kienyeji")
	catalog := &memProducts{products: map[uuid.UUID]*models.Product{inCart.ID: inCart}}

	var targets []*models.Product
	for i := 0; i < 5; i++ {
		p := sellable("veg")
		catalog.products[p.ID] = p
		targets = append(targets, p)
		store.strengths[edgeKey{inCart.ID, p.ID}] = float64(3 + i)
	}

	g := newGraph(store, catalog)
	got, err := g.Recommend(context.Background(), []uuid.UUID{inCart.ID})
	require.NoError(t, err)
	require.Len(t, got, 3, "capped at the configured limit")

	// Strongest first.
	assert.Equal(t, targets[4].ID, got[0].ID)
	assert.Equal(t, targets[3].ID, got[1].ID)
	assert.Equal(t, targets[2].ID, got[2].ID)

	// Deterministic across repeated calls.
	again, err := g.Recommend(context.Background(), []uuid.UUID{inCart.ID})
	require.NoError(t, err)
	require.Len(t, again, 3)
	for i := range got {
		assert.Equal(t, got[i].ID, again[i].ID)
	}
}

func TestRecommendTieBreaksByProductID(t *testing.T) {
	store := newMemEdgeStore()
	inCart := sellable("tilapia")
	p1 := sellable("a")
	p2 := sellable("b")
	catalog := &memProducts{products: map[uuid.UUID]*models.Product{
		inCart.ID: inCart, p1.ID: p1, p2.ID: p2,
	}}
	store.strengths[edgeKey{inCart.ID, p1.ID}] = 4
	store.strengths[edgeKey{inCart.ID, p2.ID}] = 4

	g := newGraph(store, catalog)
	got, err := g.Recommend(context.Background(), []uuid.UUID{inCart.ID})
	require.NoError(t, err)
	require.Len(t, got, 2)

	wantFirst := p1.ID
	if p2.ID.String() < p1.ID.String() {
		wantFirst = p2.ID
	}
	assert.Equal(t, wantFirst, got[0].ID)
}

func TestRecommendEmptyCart(t *testing.T) {
	g := newGraph(newMemEdgeStore(), &memProducts{})
	got, err := g.Recommend(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

package checkout

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyodera1-source/allivanfresh-whatsapp-bot/models"
)

type memOrderStore struct {
	orders    []*models.Order
	createErr error
}

func (m *memOrderStore) CountOrdersForDate(ctx context.Context, day time.Time) (int, error) {
	count := 0
	for _, o := range m.orders {
		if o.CreatedAt.Format("20060102") == day.Format("20060102") {
			count++
		}
	}
	return count, nil
}

func (m *memOrderStore) OrderNumberExists(ctx context.Context, orderNumber string) (bool, error) {
	for _, o := range m.orders {
		if o.OrderNumber == orderNumber {
			return true, nil
		}
	}
	return false, nil
}

func (m *memOrderStore) CreateOrder(ctx context.Context, o *models.Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	copied := *o
	m.orders = append(m.orders, &copied)
	return nil
}

func (m *memOrderStore) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status string, notifiedAt *time.Time) error {
	for _, o := range m.orders {
		if o.ID == id {
			o.Status = status
			o.NotifiedAt = notifiedAt
			return nil
		}
	}
	return errors.New("order not found")
}

type memStock struct {
	decrements map[uuid.UUID]float64
	err        error
}

func (m *memStock) DecrementStock(ctx context.Context, productID uuid.UUID, quantity float64) error {
	if m.err != nil {
		return m.err
	}
	if m.decrements == nil {
		m.decrements = make(map[uuid.UUID]float64)
	}
	m.decrements[productID] += quantity
	return nil
}

type memNotifier struct {
	notified []string
	err      error
}

func (m *memNotifier) NotifyOrder(ctx context.Context, o *models.Order) error {
	if m.err != nil {
		return m.err
	}
	m.notified = append(m.notified, o.OrderNumber)
	return nil
}

type memRecommender struct {
	batches [][]uuid.UUID
}

func (m *memRecommender) UpdateFromOrder(ctx context.Context, productIDs []uuid.UUID) {
	m.batches = append(m.batches, productIDs)
}

func quotedSession(t *testing.T) *models.Session {
	t.Helper()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	sess := models.NewSession("254700000001", now)
	tilapia := &models.Product{
		ID: uuid.New(), Name: "tilapia", Category: models.CategoryFish,
		Price: 450, Unit: "kg", Availability: models.AvailabilityInStock, IsActive: true,
	}
	sukuma := &models.Product{
		ID: uuid.New(), Name: "sukuma wiki", Category: models.CategoryVegetables,
		Price: 30, Unit: "bunch", Availability: models.AvailabilityInStock, IsActive: true,
	}
	sess.AddToCart(tilapia, 2, "")
	sess.AddToCart(sukuma, 3, "")
	sess.ApplyQuote(models.DeliveryQuote{
		LocationName: "Kondele", DistanceKm: 4, Fee: 0,
		FeeReason: models.FeeReasonFreeAnchor, Zone: models.ZoneTown,
	})
	sess.Step = models.StepConfirmingOrder
	return sess
}

func testOrchestrator(store *memOrderStore, stock *memStock, notifier *memNotifier, rec *memRecommender) *Orchestrator {
	return &Orchestrator{
		Orders:      store,
		Stock:       stock,
		Notifier:    notifier,
		Graph:       rec,
		Now:         func() time.Time { return time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC) },
		OrderPrefix: "AF",
	}
}

func TestCheckoutHappyPath(t *testing.T) {
	store := &memOrderStore{}
	stock := &memStock{}
	notifier := &memNotifier{}
	rec := &memRecommender{}
	o := testOrchestrator(store, stock, notifier, rec)

	sess := quotedSession(t)
	ids := sess.CartProductIDs()

	order, err := o.Checkout(context.Background(), sess)
	require.NoError(t, err)
	require.NotNil(t, order)

	assert.Equal(t, "AF-20260310-0001", order.OrderNumber)
	assert.Equal(t, models.OrderStatusNotificationSent, order.Status)
	require.NotNil(t, order.NotifiedAt)
	assert.Equal(t, 990.0, order.Subtotal)
	assert.Equal(t, 0.0, order.DeliveryFee)
	assert.Equal(t, 990.0, order.Total)
	assert.Equal(t, "Kondele", order.DeliveryLocation)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "tilapia", order.Items[0].ProductName)
	assert.Equal(t, 900.0, order.Items[0].Total)

	assert.Equal(t, []string{"AF-20260310-0001"}, notifier.notified)
	assert.Equal(t, 2.0, stock.decrements[ids[0]])
	assert.Equal(t, 3.0, stock.decrements[ids[1]])
	require.Len(t, rec.batches, 1)
	assert.Equal(t, ids, rec.batches[0])

	assert.Empty(t, sess.Cart, "cart clears once the order stands")
}

func TestCheckoutRejectsEmptyCart(t *testing.T) {
	store := &memOrderStore{}
	o := testOrchestrator(store, &memStock{}, &memNotifier{}, &memRecommender{})

	sess := quotedSession(t)
	sess.ClearCart()

	order, err := o.Checkout(context.Background(), sess)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Nil(t, order)
	assert.Empty(t, store.orders)
}

func TestCheckoutRejectsMissingLocation(t *testing.T) {
	store := &memOrderStore{}
	o := testOrchestrator(store, &memStock{}, &memNotifier{}, &memRecommender{})

	sess := quotedSession(t)
	sess.DeliveryLocation = ""

	order, err := o.Checkout(context.Background(), sess)
	assert.ErrorIs(t, err, ErrMissingLocation)
	assert.Nil(t, order)
	assert.Empty(t, store.orders)
	require.Len(t, sess.Cart, 2, "a rejected checkout leaves the cart alone")
}

func TestCheckoutSkipsTakenOrderNumbers(t *testing.T) {
	store := &memOrderStore{}
	o := testOrchestrator(store, &memStock{}, &memNotifier{}, &memRecommender{})

	// A racing checkout already took the number the count points at.
	day := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	store.orders = append(store.orders,
		&models.Order{ID: uuid.New(), OrderNumber: "AF-20260310-0001", CreatedAt: day},
		&models.Order{ID: uuid.New(), OrderNumber: "AF-20260310-0003", CreatedAt: day},
	)

	order, err := o.Checkout(context.Background(), quotedSession(t))
	require.NoError(t, err)
	assert.Equal(t, "AF-20260310-0004", order.OrderNumber, "count says 3, 0003 is taken, sequence advances")
}

// racingOrderStore simulates a concurrent checkout winning the same
// order number between the existence check and the insert.
type racingOrderStore struct {
	memOrderStore
	conflicts int
}

func (s *racingOrderStore) CreateOrder(ctx context.Context, o *models.Order) error {
	if s.conflicts > 0 {
		s.conflicts--
		return fmt.Errorf("failed to insert order: %w", &pq.Error{
			Code:       "23505",
			Constraint: "orders_order_number_key",
			Message:    `duplicate key value violates unique constraint "orders_order_number_key"`,
		})
	}
	return s.memOrderStore.CreateOrder(ctx, o)
}

func TestCheckoutRetriesInsertTimeCollision(t *testing.T) {
	store := &racingOrderStore{conflicts: 1}
	stock := &memStock{}
	notifier := &memNotifier{}
	o := &Orchestrator{
		Orders:      store,
		Stock:       stock,
		Notifier:    notifier,
		Graph:       &memRecommender{},
		Now:         func() time.Time { return time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC) },
		OrderPrefix: "AF",
	}

	sess := quotedSession(t)
	order, err := o.Checkout(context.Background(), sess)
	require.NoError(t, err, "a unique-constraint collision is retried, never surfaced")
	require.NotNil(t, order)

	assert.Equal(t, "AF-20260310-0002", order.OrderNumber, "sequence advances past the taken number")
	require.Len(t, store.orders, 1)
	assert.Equal(t, "AF-20260310-0002", store.orders[0].OrderNumber)
	assert.Equal(t, []string{"AF-20260310-0002"}, notifier.notified, "settlement runs once, for the winning insert")
	assert.Empty(t, sess.Cart)
}

func TestCheckoutSurvivesNotificationFailure(t *testing.T) {
	store := &memOrderStore{}
	stock := &memStock{}
	notifier := &memNotifier{err: errors.New("push gateway down")}
	o := testOrchestrator(store, stock, notifier, &memRecommender{})

	sess := quotedSession(t)
	order, err := o.Checkout(context.Background(), sess)
	require.NoError(t, err, "notification failure never invalidates the order")
	assert.Equal(t, models.OrderStatusNotificationFailed, order.Status)
	assert.Nil(t, order.NotifiedAt)

	require.Len(t, store.orders, 1)
	assert.Equal(t, models.OrderStatusNotificationFailed, store.orders[0].Status)
	assert.NotEmpty(t, stock.decrements, "stock still settles")
	assert.Empty(t, sess.Cart)
}

func TestCheckoutSurvivesStockFailure(t *testing.T) {
	store := &memOrderStore{}
	stock := &memStock{err: errors.New("db timeout")}
	o := testOrchestrator(store, stock, &memNotifier{}, &memRecommender{})

	sess := quotedSession(t)
	order, err := o.Checkout(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusNotificationSent, order.Status)
	assert.Empty(t, sess.Cart)
}

func TestCheckoutAbortsWhenCreateFails(t *testing.T) {
	store := &memOrderStore{createErr: errors.New("connection reset")}
	stock := &memStock{}
	notifier := &memNotifier{}
	rec := &memRecommender{}
	o := testOrchestrator(store, stock, notifier, rec)

	sess := quotedSession(t)
	order, err := o.Checkout(context.Background(), sess)
	require.Error(t, err)
	assert.Nil(t, order)
	assert.Empty(t, notifier.notified)
	assert.Empty(t, stock.decrements)
	assert.Empty(t, rec.batches)
	require.Len(t, sess.Cart, 2)
}

func TestCheckoutSequencesWithinDay(t *testing.T) {
	store := &memOrderStore{}
	o := testOrchestrator(store, &memStock{}, &memNotifier{}, &memRecommender{})

	first, err := o.Checkout(context.Background(), quotedSession(t))
	require.NoError(t, err)
	second, err := o.Checkout(context.Background(), quotedSession(t))
	require.NoError(t, err)

	assert.Equal(t, "AF-20260310-0001", first.OrderNumber)
	assert.Equal(t, "AF-20260310-0002", second.OrderNumber)
}

func TestCheckoutTwiceNeedsARestockedCart(t *testing.T) {
	store := &memOrderStore{}
	o := testOrchestrator(store, &memStock{}, &memNotifier{}, &memRecommender{})

	sess := quotedSession(t)
	_, err := o.Checkout(context.Background(), sess)
	require.NoError(t, err)

	// A duplicated confirm lands on the now-empty cart and is rejected.
	order, err := o.Checkout(context.Background(), sess)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Nil(t, order)
	assert.Len(t, store.orders, 1)
}

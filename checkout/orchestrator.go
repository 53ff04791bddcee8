// Package checkout finalizes orders from session state: validation,
// order-number generation, line snapshotting, notification, stock
// decrement and recommendation-graph feedback.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/nyodera1-source/allivanfresh-whatsapp-bot/models"
)

// Validation failures. These abort the checkout call and leave the
// session untouched.
var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrMissingLocation = errors.New("delivery location is missing")
)

// OrderStore persists orders.
type OrderStore interface {
	CountOrdersForDate(ctx context.Context, day time.Time) (int, error)
	OrderNumberExists(ctx context.Context, orderNumber string) (bool, error)
	CreateOrder(ctx context.Context, o *models.Order) error
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status string, notifiedAt *time.Time) error
}

// StockStore decrements stock after confirmation. Implementations
// floor at zero and flip availability to out-of-stock when a counter
// reaches zero; products without a counter are unlimited.
type StockStore interface {
	DecrementStock(ctx context.Context, productID uuid.UUID, quantity float64) error
}

// Notifier tells the shop about a new order. Best effort: its failure
// never invalidates the order.
type Notifier interface {
	NotifyOrder(ctx context.Context, o *models.Order) error
}

// Recommender learns co-purchases from the completed order.
type Recommender interface {
	UpdateFromOrder(ctx context.Context, productIDs []uuid.UUID)
}

type Orchestrator struct {
	Orders    OrderStore
	Stock     StockStore
	Notifier  Notifier
	Graph     Recommender
	Now       func() time.Time

	// OrderPrefix scopes order numbers, e.g. AF-20260829-0007.
	OrderPrefix string
}

const maxNumberAttempts = 50

// Checkout validates the session, commits the order and settles the
// side effects. Any failure before the order row exists aborts with no
// partial state; failures after that (stock, notification, graph) are
// isolated per step and never undo the confirmed order.
func (o *Orchestrator) Checkout(ctx context.Context, sess *models.Session) (*models.Order, error) {
	if len(sess.Cart) == 0 {
		return nil, ErrEmptyCart
	}
	if sess.DeliveryLocation == "" {
		return nil, ErrMissingLocation
	}

	now := o.Now()
	order := &models.Order{
		ID:               uuid.New(),
		CustomerPhone:    sess.CustomerPhone,
		Status:           models.OrderStatusConfirmed,
		Subtotal:         sess.CartSubtotal(),
		DeliveryFee:      sess.DeliveryFee,
		DeliveryLocation: sess.DeliveryLocation,
		DeliveryKm:       sess.DeliveryKm,
		DeliveryZone:     sess.DeliveryZone,
		CreatedAt:        now,
		ConfirmedAt:      &now,
	}
	order.Total = order.Subtotal + order.DeliveryFee

	for _, line := range sess.Cart {
		order.Items = append(order.Items, models.OrderItem{
			ID:          uuid.New(),
			OrderID:     order.ID,
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			Unit:        line.Unit,
			UnitPrice:   line.UnitPrice,
			Total:       line.Total,
			Notes:       line.Notes,
		})
	}

	if err := o.insertWithFreshNumber(ctx, order, now); err != nil {
		return nil, err
	}

	// Past this point the order stands; each settlement step fails on
	// its own.
	if o.Notifier != nil {
		if err := o.Notifier.NotifyOrder(ctx, order); err != nil {
			log.Printf("order %s notification failed: %v", order.OrderNumber, err)
			order.Status = models.OrderStatusNotificationFailed
			if uerr := o.Orders.UpdateOrderStatus(ctx, order.ID, order.Status, nil); uerr != nil {
				log.Printf("order %s status update failed: %v", order.OrderNumber, uerr)
			}
		} else {
			notified := o.Now()
			order.Status = models.OrderStatusNotificationSent
			order.NotifiedAt = &notified
			if uerr := o.Orders.UpdateOrderStatus(ctx, order.ID, order.Status, &notified); uerr != nil {
				log.Printf("order %s status update failed: %v", order.OrderNumber, uerr)
			}
		}
	}

	for _, item := range order.Items {
		if err := o.Stock.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			log.Printf("stock decrement for %s failed: %v", item.ProductName, err)
		}
	}

	if o.Graph != nil {
		o.Graph.UpdateFromOrder(ctx, sess.CartProductIDs())
	}

	sess.ClearCart()
	return order, nil
}

// insertWithFreshNumber allocates a date-scoped sequential order number
// and inserts the order under it. The pre-insert existence check only
// narrows the race: checkouts for different customers run concurrently,
// so two of them can still pick the same number and the loser finds out
// at the unique constraint. Both kinds of collision advance the
// sequence and retry; the caller never sees them.
func (o *Orchestrator) insertWithFreshNumber(ctx context.Context, order *models.Order, now time.Time) error {
	count, err := o.Orders.CountOrdersForDate(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to count orders: %w", err)
	}

	seq := count + 1
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		number := fmt.Sprintf("%s-%s-%04d", o.OrderPrefix, now.Format("20060102"), seq)
		exists, err := o.Orders.OrderNumberExists(ctx, number)
		if err != nil {
			return fmt.Errorf("failed to check order number: %w", err)
		}
		if exists {
			seq++
			continue
		}

		order.OrderNumber = number
		err = o.Orders.CreateOrder(ctx, order)
		if err == nil {
			return nil
		}
		if isOrderNumberConflict(err) {
			log.Printf("order number %s taken at insert, advancing", number)
			seq++
			continue
		}
		return fmt.Errorf("failed to create order: %w", err)
	}
	return fmt.Errorf("could not allocate an order number after %d attempts", maxNumberAttempts)
}

// isOrderNumberConflict matches a postgres unique violation on the
// order-number constraint.
func isOrderNumberConflict(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "23505" && (pqErr.Constraint == "" || pqErr.Constraint == "orders_order_number_key")
}

package session

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/nyodera1-source/allivanfresh-whatsapp-bot/models"
)

// Action types the assistant may return.
const (
	ActionAddToCart       = "add_to_cart"
	ActionRemoveFromCart  = "remove_from_cart"
	ActionClearCart       = "clear_cart"
	ActionRequestLocation = "request_location"
	ActionConfirmOrder    = "confirm_order"
	ActionShowProducts    = "show_products"
)

// Action is one structured command parsed out of the assistant's reply.
type Action struct {
	Type       string
	ProductID  uuid.UUID
	Quantity   float64
	Notes      string
	ProductIDs []uuid.UUID
}

// ProductReader resolves products for cart mutations.
type ProductReader interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// CheckoutFunc finalizes an order from the session. Wired to the
// checkout orchestrator.
type CheckoutFunc func(ctx context.Context, sess *models.Session) (*models.Order, error)

// ActionDeps is what action application needs from the outside.
type ActionDeps struct {
	Products        ProductReader
	Checkout        CheckoutFunc
	MaxCartLines    int
	MaxLineQuantity float64
}

// Outcome collects side effects the caller must deliver to the
// customer after a batch of actions.
type Outcome struct {
	Order     *models.Order
	ImageURLs []string
}

// Apply runs a batch of actions against the session. Each action is
// independent: a failure is logged and the rest of the batch still
// runs. Step transitions happen here, through Transition, so the state
// machine stays in one place.
func Apply(ctx context.Context, sess *models.Session, actions []Action, deps ActionDeps) Outcome {
	var out Outcome
	for _, a := range actions {
		switch a.Type {
		case ActionAddToCart:
			applyAdd(ctx, sess, a, deps)
		case ActionRemoveFromCart:
			sess.RemoveFromCart(a.ProductID)
			sess.Step = Transition(sess.Step, EventCartChanged)
		case ActionClearCart:
			sess.ClearCart()
			sess.Step = Transition(sess.Step, EventCartChanged)
		case ActionRequestLocation:
			sess.Step = Transition(sess.Step, EventLocationRequested)
		case ActionConfirmOrder:
			order, err := deps.Checkout(ctx, sess)
			if err != nil {
				log.Printf("checkout for %s rejected: %v", sess.CustomerPhone, err)
				continue
			}
			out.Order = order
			sess.Step = Transition(sess.Step, EventOrderPlaced)
		case ActionShowProducts:
			out.ImageURLs = append(out.ImageURLs, showProducts(ctx, a.ProductIDs, deps)...)
			sess.Step = Transition(sess.Step, EventProductsShown)
		default:
			log.Printf("ignoring unknown action type %q", a.Type)
		}
	}
	return out
}

func applyAdd(ctx context.Context, sess *models.Session, a Action, deps ActionDeps) {
	if a.Quantity <= 0 {
		log.Printf("ignoring add_to_cart with quantity %.2f", a.Quantity)
		return
	}
	p, err := deps.Products.GetProduct(ctx, a.ProductID)
	if err != nil || p == nil {
		log.Printf("add_to_cart: product %s not found", a.ProductID)
		return
	}
	if !p.Sellable() {
		log.Printf("add_to_cart: product %s (%s) is not sellable", p.Name, a.ProductID)
		return
	}

	isNewLine := true
	for _, line := range sess.Cart {
		if line.ProductID == a.ProductID {
			isNewLine = false
			break
		}
	}
	if isNewLine && deps.MaxCartLines > 0 && len(sess.Cart) >= deps.MaxCartLines {
		log.Printf("add_to_cart: cart for %s is full", sess.CustomerPhone)
		return
	}

	sess.AddToCart(p, a.Quantity, a.Notes)
	if deps.MaxLineQuantity > 0 {
		for i := range sess.Cart {
			if sess.Cart[i].ProductID == a.ProductID && sess.Cart[i].Quantity > deps.MaxLineQuantity {
				sess.Cart[i].Quantity = deps.MaxLineQuantity
				sess.Cart[i].Total = sess.Cart[i].Quantity * sess.Cart[i].UnitPrice
			}
		}
	}
	sess.Step = Transition(sess.Step, EventCartChanged)
}

// showProducts is a pure read: it selects up to 5 image references for
// the transport layer to relay and never mutates the session.
func showProducts(ctx context.Context, ids []uuid.UUID, deps ActionDeps) []string {
	var urls []string
	for _, id := range ids {
		if len(urls) >= 5 {
			break
		}
		p, err := deps.Products.GetProduct(ctx, id)
		if err != nil || p == nil {
			log.Printf("show_products: product %s not found", id)
			continue
		}
		if p.ImageURL != "" {
			urls = append(urls, p.ImageURL)
		}
	}
	return urls
}

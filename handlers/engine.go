package handlers

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/nyodera1-source/allivanfresh-whatsapp-bot/checkout"
	"github.com/nyodera1-source/allivanfresh-whatsapp-bot/delivery"
	"github.com/nyodera1-source/allivanfresh-whatsapp-bot/location"
	"github.com/nyodera1-source/allivanfresh-whatsapp-bot/models"
	"github.com/nyodera1-source/allivanfresh-whatsapp-bot/recommend"
	"github.com/nyodera1-source/allivanfresh-whatsapp-bot/services"
	"github.com/nyodera1-source/allivanfresh-whatsapp-bot/session"
)

// Message kinds the core handles. Anything else is ignored.
const (
	KindText     = "text"
	KindLocation = "location"
)

// InboundMessage is a normalized webhook event.
type InboundMessage struct {
	MessageID string
	From      string
	Kind      string
	Text      string
	Lat       float64
	Lon       float64
}

// Assistant is the language-understanding collaborator.
type Assistant interface {
	Respond(ctx context.Context, tc services.TurnContext) services.AssistantReply
}

// Sender delivers outbound messages to the customer.
type Sender interface {
	SendText(ctx context.Context, to, text string) error
	SendImage(ctx context.Context, to, imageURL string) error
}

// Catalog is the read side of the product store.
type Catalog interface {
	ListActiveProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Engine runs one conversation turn per inbound message: load session,
// resolve location if the machine is waiting for one, consult the
// assistant, apply its actions, persist, reply.
type Engine struct {
	Sessions *session.Manager
	Resolver *location.Resolver
	Rules    delivery.Rules
	Graph    *recommend.Graph
	Brain    Assistant
	Orders   *checkout.Orchestrator
	Sender   Sender
	Catalog  Catalog

	HistoryDepth    int
	MaxCartLines    int
	MaxLineQuantity float64
}

// HandleInbound processes one normalized message. Messages from
// different customers run concurrently; messages from the same
// customer serialize on the session lock. A reply-delivery failure is
// returned but the message still counts as processed: session state is
// saved before any send.
func (e *Engine) HandleInbound(ctx context.Context, msg InboundMessage) error {
	if msg.Kind != KindText && msg.Kind != KindLocation {
		return nil
	}

	unlock := e.Sessions.Lock(msg.From)
	defer unlock()

	sess, err := e.Sessions.Load(ctx, msg.From)
	if err != nil {
		return err
	}
	sess.Step = session.Transition(sess.Step, session.EventMessageReceived)

	// Location resolution runs before the assistant so it receives the
	// quote as already-resolved context instead of asking again.
	var quote *models.DeliveryQuote
	if sess.Step == models.StepRequestingLocation {
		quote = e.resolveAndQuote(ctx, sess, msg)
	}

	catalog, err := e.Catalog.ListActiveProducts(ctx)
	if err != nil {
		log.Printf("failed to load catalog: %v", err)
	}

	var recommendations []models.Product
	if len(sess.Cart) > 0 {
		recommendations, err = e.Graph.Recommend(ctx, sess.CartProductIDs())
		if err != nil {
			log.Printf("recommendation lookup failed: %v", err)
		}
	}

	userText := msg.Text
	if msg.Kind == KindLocation {
		userText = "[shared location pin]"
	}

	reply := e.Brain.Respond(ctx, services.TurnContext{
		UserText:         userText,
		Session:          sess,
		Catalog:          catalog,
		Recommendations:  recommendations,
		Quote:            quote,
		LocationNotFound: sess.LocationNotFound,
	})

	outcome := session.Apply(ctx, sess, reply.Actions, session.ActionDeps{
		Products: e.Catalog,
		Checkout: func(ctx context.Context, s *models.Session) (*models.Order, error) {
			return e.Orders.Checkout(ctx, s)
		},
		MaxCartLines:    e.MaxCartLines,
		MaxLineQuantity: e.MaxLineQuantity,
	})

	sess.AppendHistory("user", userText, e.HistoryDepth)
	sess.AppendHistory("assistant", reply.Text, e.HistoryDepth)
	if err := e.Sessions.Save(ctx, sess); err != nil {
		return err
	}

	return e.deliver(ctx, msg.From, reply.Text, outcome)
}

// resolveAndQuote tries every location strategy for the inbound
// message and, on success, snapshots the quote and advances the
// machine. On failure the machine stays in RequestingLocation with the
// not-found flag raised so the assistant asks for a landmark instead
// of repeating itself.
func (e *Engine) resolveAndQuote(ctx context.Context, sess *models.Session, msg InboundMessage) *models.DeliveryQuote {
	var resolved location.Resolved
	var ok bool

	if msg.Kind == KindLocation {
		resolved = e.Resolver.ResolveGPS(msg.Lat, msg.Lon)
		ok = true
	} else {
		resolved, ok = e.Resolver.Resolve(ctx, msg.Text)
		if !ok {
			if km, parsed := location.ParseExplicitKm(msg.Text); parsed {
				resolved = location.Resolved{Name: msg.Text, DistanceKm: km}
				ok = true
			}
		}
	}

	if !ok {
		sess.LocationNotFound = true
		return nil
	}

	comp := delivery.Classify(sess.Cart, e.cartProducts(ctx, sess))
	q := e.Rules.Quote(resolved.Name, resolved.DistanceKm, comp)
	sess.ApplyQuote(q)
	sess.Step = session.Transition(sess.Step, session.EventQuoteResolved)
	return &q
}

func (e *Engine) cartProducts(ctx context.Context, sess *models.Session) map[string]*models.Product {
	products := make(map[string]*models.Product, len(sess.Cart))
	for _, line := range sess.Cart {
		p, err := e.Catalog.GetProduct(ctx, line.ProductID)
		if err != nil || p == nil {
			continue
		}
		products[line.ProductID.String()] = p
	}
	return products
}

func (e *Engine) deliver(ctx context.Context, to, text string, outcome session.Outcome) error {
	var firstErr error
	if err := e.Sender.SendText(ctx, to, text); err != nil {
		firstErr = err
	}
	for _, url := range outcome.ImageURLs {
		if err := e.Sender.SendImage(ctx, to, url); err != nil {
			log.Printf("failed to send product image: %v", err)
		}
	}
	if outcome.Order != nil {
		confirmation := fmt.Sprintf(
			"Order %s confirmed! Total KES %.0f (delivery KES %.0f to %s). Thank you for shopping with Allivan Fresh.",
			outcome.Order.OrderNumber, outcome.Order.Total, outcome.Order.DeliveryFee, outcome.Order.DeliveryLocation)
		if err := e.Sender.SendText(ctx, to, confirmation); err != nil {
			log.Printf("failed to send order confirmation: %v", err)
		}
	}
	return firstErr
}

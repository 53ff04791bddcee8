// Package session owns the per-customer conversation state: current
// step, cart, delivery snapshot and bounded history.
package session

import (
	"github.com/nyodera1-source/allivanfresh-whatsapp-bot/models"
)

// Event drives a step transition. Everything that moves the machine,
// including the automatic advance when a delivery quote resolves, is an
// event going through Transition, so the table below is the whole
// truth about step changes.
type Event string

const (
	EventMessageReceived   Event = "message_received"
	EventProductsShown     Event = "products_shown"
	EventCartChanged       Event = "cart_changed"
	EventLocationRequested Event = "location_requested"
	EventQuoteResolved     Event = "quote_resolved"
	EventOrderPlaced       Event = "order_placed"
)

// Transition returns the step that follows an event. Events that do
// not apply to the current step leave it unchanged.
func Transition(step string, event Event) string {
	switch event {
	case EventMessageReceived:
		// A first message (or one after an order) restarts browsing.
		if step == models.StepGreeting || step == models.StepOrderPlaced {
			return models.StepBrowsing
		}
	case EventProductsShown:
		if step == models.StepGreeting || step == models.StepCartManagement {
			return models.StepBrowsing
		}
	case EventCartChanged:
		if step != models.StepRequestingLocation && step != models.StepConfirmingOrder {
			return models.StepCartManagement
		}
	case EventLocationRequested:
		return models.StepRequestingLocation
	case EventQuoteResolved:
		if step == models.StepRequestingLocation {
			return models.StepConfirmingOrder
		}
	case EventOrderPlaced:
		return models.StepOrderPlaced
	}
	return step
}

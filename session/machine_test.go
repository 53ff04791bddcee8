package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nyodera1-source/allivanfresh-whatsapp-bot/models"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		name  string
		step  string
		event Event
		want  string
	}{
		{"first message starts browsing", models.StepGreeting, EventMessageReceived, models.StepBrowsing},
		{"message after order restarts browsing", models.StepOrderPlaced, EventMessageReceived, models.StepBrowsing},
		{"message mid-cart stays put", models.StepCartManagement, EventMessageReceived, models.StepCartManagement},
		{"message while awaiting location stays put", models.StepRequestingLocation, EventMessageReceived, models.StepRequestingLocation},

		{"cart change enters cart management", models.StepBrowsing, EventCartChanged, models.StepCartManagement},
		{"cart change from greeting", models.StepGreeting, EventCartChanged, models.StepCartManagement},
		{"cart change ignored while awaiting location", models.StepRequestingLocation, EventCartChanged, models.StepRequestingLocation},
		{"cart change ignored while confirming", models.StepConfirmingOrder, EventCartChanged, models.StepConfirmingOrder},

		{"location request from anywhere", models.StepBrowsing, EventLocationRequested, models.StepRequestingLocation},
		{"location request while confirming re-asks", models.StepConfirmingOrder, EventLocationRequested, models.StepRequestingLocation},

		{"quote resolution advances to confirmation", models.StepRequestingLocation, EventQuoteResolved, models.StepConfirmingOrder},
		{"quote resolution ignored outside location step", models.StepBrowsing, EventQuoteResolved, models.StepBrowsing},
		{"quote resolution ignored after order", models.StepOrderPlaced, EventQuoteResolved, models.StepOrderPlaced},

		{"order placed is terminal-ish", models.StepConfirmingOrder, EventOrderPlaced, models.StepOrderPlaced},

		{"products shown from greeting", models.StepGreeting, EventProductsShown, models.StepBrowsing},
		{"products shown from cart management", models.StepCartManagement, EventProductsShown, models.StepBrowsing},
		{"products shown while browsing stays", models.StepBrowsing, EventProductsShown, models.StepBrowsing},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Transition(tc.step, tc.event))
		})
	}
}

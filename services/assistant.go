package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nyodera1-source/allivanfresh-whatsapp-bot/models"
	"github.com/nyodera1-source/allivanfresh-whatsapp-bot/session"
)

// DefaultReply is what the customer sees when the assistant output is
// unusable. Never a raw error.
const DefaultReply = "Sorry, I didn't quite get that. Could you say it again?"

// TurnContext is everything the assistant sees for one turn.
type TurnContext struct {
	UserText         string
	Session          *models.Session
	Catalog          []models.Product
	Recommendations  []models.Product
	Quote            *models.DeliveryQuote
	LocationNotFound bool
}

// AssistantReply is the parsed, validated assistant output.
type AssistantReply struct {
	Text    string
	Intent  string
	Actions []session.Action
}

// AssistantClient talks to an OpenAI-compatible chat completions
// endpoint. The model is treated as an unreliable external reasoner:
// its output is parsed against a strict schema and anything malformed
// is dropped rather than trusted.
type AssistantClient struct {
	URL    string
	APIKey string
	Model  string
	Client *http.Client
}

func NewAssistantClient(url, apiKey, model string, timeout time.Duration) *AssistantClient {
	return &AssistantClient{
		URL:    url,
		APIKey: apiKey,
		Model:  model,
		Client: &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Respond runs one assistant turn. Transport failures and unusable
// output both degrade to the default reply with no actions.
func (a *AssistantClient) Respond(ctx context.Context, tc TurnContext) AssistantReply {
	reqBody := chatRequest{Model: a.Model}
	reqBody.ResponseFormat.Type = "json_object"
	reqBody.Messages = append(reqBody.Messages, chatMessage{Role: "system", Content: buildSystemPrompt(tc)})
	for _, h := range tc.Session.History {
		role := "user"
		if h.Role == "assistant" {
			role = "assistant"
		}
		reqBody.Messages = append(reqBody.Messages, chatMessage{Role: role, Content: h.Text})
	}
	reqBody.Messages = append(reqBody.Messages, chatMessage{Role: "user", Content: tc.UserText})

	payload, err := json.Marshal(reqBody)
	if err != nil {
		log.Printf("assistant request marshal failed: %v", err)
		return AssistantReply{Text: DefaultReply}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.URL, bytes.NewBuffer(payload))
	if err != nil {
		log.Printf("assistant request build failed: %v", err)
		return AssistantReply{Text: DefaultReply}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.APIKey)

	resp, err := a.Client.Do(req)
	if err != nil {
		log.Printf("assistant call failed: %v", err)
		return AssistantReply{Text: DefaultReply}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil || resp.StatusCode != http.StatusOK {
		log.Printf("assistant returned status %d: %v", resp.StatusCode, err)
		return AssistantReply{Text: DefaultReply}
	}

	var cr chatResponse
	if err := json.Unmarshal(body, &cr); err != nil || len(cr.Choices) == 0 {
		log.Printf("assistant response decode failed: %v", err)
		return AssistantReply{Text: DefaultReply}
	}

	return ParseAssistantOutput(cr.Choices[0].Message.Content)
}

// rawAction mirrors the schema the model is asked to produce. Fields
// are validated per action type; anything missing or of the wrong
// shape drops that action, never the whole reply.
type rawAction struct {
	Type       string   `json:"type"`
	ProductID  string   `json:"product_id"`
	Quantity   float64  `json:"quantity"`
	Notes      string   `json:"notes"`
	ProductIDs []string `json:"product_ids"`
}

type rawReply struct {
	Reply   string      `json:"reply"`
	Intent  string      `json:"intent"`
	Actions []rawAction `json:"actions"`
}

// ParseAssistantOutput parses model output into a validated reply.
// Garbage in, default reply out.
func ParseAssistantOutput(content string) AssistantReply {
	content = strings.TrimSpace(content)
	// Models wrap JSON in fences despite instructions.
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var raw rawReply
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		log.Printf("assistant output is not valid JSON: %v", err)
		return AssistantReply{Text: DefaultReply}
	}
	if raw.Reply == "" {
		return AssistantReply{Text: DefaultReply}
	}

	out := AssistantReply{Text: raw.Reply, Intent: raw.Intent}
	for _, ra := range raw.Actions {
		action, ok := validateAction(ra)
		if !ok {
			log.Printf("dropping malformed assistant action %+v", ra)
			continue
		}
		out.Actions = append(out.Actions, action)
	}
	return out
}

func validateAction(ra rawAction) (session.Action, bool) {
	switch ra.Type {
	case session.ActionAddToCart:
		id, err := uuid.Parse(ra.ProductID)
		if err != nil || ra.Quantity <= 0 {
			return session.Action{}, false
		}
		return session.Action{Type: ra.Type, ProductID: id, Quantity: ra.Quantity, Notes: ra.Notes}, true
	case session.ActionRemoveFromCart:
		id, err := uuid.Parse(ra.ProductID)
		if err != nil {
			return session.Action{}, false
		}
		return session.Action{Type: ra.Type, ProductID: id}, true
	case session.ActionClearCart, session.ActionRequestLocation, session.ActionConfirmOrder:
		return session.Action{Type: ra.Type}, true
	case session.ActionShowProducts:
		var ids []uuid.UUID
		for _, s := range ra.ProductIDs {
			if id, err := uuid.Parse(s); err == nil {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			return session.Action{}, false
		}
		return session.Action{Type: ra.Type, ProductIDs: ids}, true
	default:
		return session.Action{}, false
	}
}

func buildSystemPrompt(tc TurnContext) string {
	var b strings.Builder
	b.WriteString("You are the WhatsApp assistant for Allivan Fresh, a fresh food shop in Kisumu. ")
	b.WriteString("Reply with a single JSON object: {\"reply\": string, \"intent\": string, \"actions\": [...]}. ")
	b.WriteString("Allowed action types: add_to_cart {product_id, quantity, notes?}, remove_from_cart {product_id}, ")
	b.WriteString("clear_cart {}, request_location {}, confirm_order {}, show_products {product_ids}. ")
	b.WriteString("Be warm and brief. Prices are in KES.\n\n")

	b.WriteString("CATALOG:\n")
	for _, p := range tc.Catalog {
		fmt.Fprintf(&b, "- %s | %s | %s | KES %.0f per %s | %s\n",
			p.ID, p.Name, p.Category, p.Price, p.Unit, p.Availability)
	}

	fmt.Fprintf(&b, "\nSESSION: step=%s\n", tc.Session.Step)
	if len(tc.Session.Cart) > 0 {
		b.WriteString("CART:\n")
		for _, line := range tc.Session.Cart {
			fmt.Fprintf(&b, "- %s x%.1f %s = KES %.0f\n", line.ProductName, line.Quantity, line.Unit, line.Total)
		}
		fmt.Fprintf(&b, "Cart subtotal: KES %.0f\n", tc.Session.CartSubtotal())
	}

	if len(tc.Recommendations) > 0 {
		b.WriteString("CUSTOMERS ALSO BUY (suggest naturally when it fits):\n")
		for _, p := range tc.Recommendations {
			fmt.Fprintf(&b, "- %s | %s | KES %.0f per %s\n", p.ID, p.Name, p.Price, p.Unit)
		}
	}

	if tc.Quote != nil {
		fmt.Fprintf(&b, "\nDELIVERY RESOLVED: %s, %.1f km, zone %s, fee KES %.0f (%s).",
			tc.Quote.LocationName, tc.Quote.DistanceKm, tc.Quote.Zone, tc.Quote.Fee, tc.Quote.FeeReason)
		if tc.Quote.MinimumOrder > 0 {
			fmt.Fprintf(&b, " Minimum order for this zone is KES %.0f; if the cart is below it, discuss with the customer.", tc.Quote.MinimumOrder)
		}
		b.WriteString(" Confirm the fee with the customer; do not ask for the location again.\n")
	}

	if tc.LocationNotFound {
		b.WriteString("\nThe customer's last location could not be resolved. Ask for a nearby landmark or a shared location pin; do not repeat the original prompt word for word.\n")
	}

	return b.String()
}

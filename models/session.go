package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation steps for a customer session.
const (
	StepGreeting           = "greeting"
	StepBrowsing           = "browsing"
	StepCartManagement     = "cart_management"
	StepRequestingLocation = "requesting_location"
	StepConfirmingOrder    = "confirming_order"
	StepOrderPlaced        = "order_placed"
)

// CartLine is one product in the cart. There is at most one line per
// product; adding the same product again merges quantities.
type CartLine struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    float64   `json:"quantity"`
	Unit        string    `json:"unit"`
	UnitPrice   float64   `json:"unit_price"`
	Total       float64   `json:"total"`
	Notes       string    `json:"notes,omitempty"`
}

// HistoryMessage is one entry in the bounded conversation history.
type HistoryMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Session is the per-customer conversational state between messages,
// keyed by the customer's WhatsApp phone number.
type Session struct {
	CustomerPhone     string           `json:"customer_phone" db:"customer_phone"`
	Step              string           `json:"step" db:"step"`
	Cart              []CartLine       `json:"cart" db:"cart"`
	History           []HistoryMessage `json:"history" db:"history"`
	DeliveryLocation  string           `json:"delivery_location" db:"delivery_location"`
	DeliveryKm        float64          `json:"delivery_km" db:"delivery_km"`
	DeliveryFee       float64          `json:"delivery_fee" db:"delivery_fee"`
	DeliveryFeeReason string           `json:"delivery_fee_reason" db:"delivery_fee_reason"`
	DeliveryZone      string           `json:"delivery_zone" db:"delivery_zone"`
	LocationNotFound  bool             `json:"location_not_found" db:"location_not_found"`
	LastActiveAt      time.Time        `json:"last_active_at" db:"last_active_at"`
	CreatedAt         time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at" db:"updated_at"`
}

// NewSession returns a fresh default session for a customer.
func NewSession(phone string, now time.Time) *Session {
	return &Session{
		CustomerPhone: phone,
		Step:          StepGreeting,
		Cart:          []CartLine{},
		History:       []HistoryMessage{},
		LastActiveAt:  now,
		CreatedAt:     now,
	}
}

// AddToCart merges quantity into an existing line for the product, or
// appends a new line. Unit price is captured at add time and not
// live-repriced later.
func (s *Session) AddToCart(p *Product, quantity float64, notes string) {
	for i := range s.Cart {
		if s.Cart[i].ProductID == p.ID {
			s.Cart[i].Quantity += quantity
			s.Cart[i].Total = s.Cart[i].Quantity * s.Cart[i].UnitPrice
			if notes != "" {
				s.Cart[i].Notes = notes
			}
			return
		}
	}
	s.Cart = append(s.Cart, CartLine{
		ProductID:   p.ID,
		ProductName: p.Name,
		Quantity:    quantity,
		Unit:        p.Unit,
		UnitPrice:   p.Price,
		Total:       quantity * p.Price,
		Notes:       notes,
	})
}

// RemoveFromCart drops the line for the product if present. Absence is
// not an error.
func (s *Session) RemoveFromCart(productID uuid.UUID) {
	for i := range s.Cart {
		if s.Cart[i].ProductID == productID {
			s.Cart = append(s.Cart[:i], s.Cart[i+1:]...)
			return
		}
	}
}

// ClearCart empties the cart unconditionally.
func (s *Session) ClearCart() {
	s.Cart = []CartLine{}
}

// CartSubtotal is the sum of line totals, excluding delivery.
func (s *Session) CartSubtotal() float64 {
	total := 0.0
	for _, line := range s.Cart {
		total += line.Total
	}
	return total
}

// CartProductIDs returns the product ids currently in the cart, in
// insertion order.
func (s *Session) CartProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.Cart))
	for _, line := range s.Cart {
		ids = append(ids, line.ProductID)
	}
	return ids
}

// ApplyQuote snapshots a successful delivery quote into the session.
func (s *Session) ApplyQuote(q DeliveryQuote) {
	s.DeliveryLocation = q.LocationName
	s.DeliveryKm = q.DistanceKm
	s.DeliveryFee = q.Fee
	s.DeliveryFeeReason = q.FeeReason
	s.DeliveryZone = q.Zone
	s.LocationNotFound = false
}

// AppendHistory records a message, evicting the oldest entries beyond
// the depth limit.
func (s *Session) AppendHistory(role, text string, depth int) {
	s.History = append(s.History, HistoryMessage{Role: role, Text: text})
	if depth > 0 && len(s.History) > depth {
		s.History = s.History[len(s.History)-depth:]
	}
}

func (Session) TableName() string {
	return "sessions"
}

func (Session) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS sessions (
		customer_phone VARCHAR(30) PRIMARY KEY,
		step VARCHAR(30) NOT NULL DEFAULT 'greeting',
		cart JSONB NOT NULL DEFAULT '[]',
		history JSONB NOT NULL DEFAULT '[]',
		delivery_location TEXT DEFAULT '',
		delivery_km DOUBLE PRECISION DEFAULT 0,
		delivery_fee NUMERIC(12,2) DEFAULT 0,
		delivery_fee_reason VARCHAR(30) DEFAULT '',
		delivery_zone VARCHAR(20) DEFAULT '',
		location_not_found BOOLEAN DEFAULT FALSE,
		last_active_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT now()
	);`
}

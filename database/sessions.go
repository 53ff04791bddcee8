package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/nyodera1-source/allivanfresh-whatsapp-bot/models"
)

// GetSession loads the session row for a customer. Returns nil, nil
// when the customer has never been seen.
func (db *DB) GetSession(ctx context.Context, phone string) (*models.Session, error) {
	query := `
		SELECT customer_phone, step, cart, history, delivery_location,
		       delivery_km, delivery_fee, delivery_fee_reason, delivery_zone,
		       location_not_found, last_active_at, created_at, updated_at
		FROM sessions
		WHERE customer_phone = $1
	`

	var s models.Session
	var cartJSON, historyJSON []byte
	err := db.QueryRowContext(ctx, query, phone).Scan(
		&s.CustomerPhone, &s.Step, &cartJSON, &historyJSON, &s.DeliveryLocation,
		&s.DeliveryKm, &s.DeliveryFee, &s.DeliveryFeeReason, &s.DeliveryZone,
		&s.LocationNotFound, &s.LastActiveAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch session: %w", err)
	}

	if err := json.Unmarshal(cartJSON, &s.Cart); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	if err := json.Unmarshal(historyJSON, &s.History); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	return &s, nil
}

// UpsertSession writes the session with upsert-on-identity so a
// duplicate webhook delivery cannot create two rows for one customer.
func (db *DB) UpsertSession(ctx context.Context, s *models.Session) error {
	cartJSON, err := json.Marshal(s.Cart)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	historyJSON, err := json.Marshal(s.History)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	query := `
		INSERT INTO sessions (
			customer_phone, step, cart, history, delivery_location,
			delivery_km, delivery_fee, delivery_fee_reason, delivery_zone,
			location_not_found, last_active_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), now())
		ON CONFLICT (customer_phone) DO UPDATE SET
			step = EXCLUDED.step,
			cart = EXCLUDED.cart,
			history = EXCLUDED.history,
			delivery_location = EXCLUDED.delivery_location,
			delivery_km = EXCLUDED.delivery_km,
			delivery_fee = EXCLUDED.delivery_fee,
			delivery_fee_reason = EXCLUDED.delivery_fee_reason,
			delivery_zone = EXCLUDED.delivery_zone,
			location_not_found = EXCLUDED.location_not_found,
			last_active_at = EXCLUDED.last_active_at,
			updated_at = now()
	`

	_, err = db.ExecContext(ctx, query,
		s.CustomerPhone, s.Step, cartJSON, historyJSON, s.DeliveryLocation,
		s.DeliveryKm, s.DeliveryFee, s.DeliveryFeeReason, s.DeliveryZone,
		s.LocationNotFound, s.LastActiveAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}
	return nil
}

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/nyodera1-source/allivanfresh-whatsapp-bot/models"
)

// ExpoPushMessage represents a push notification message
type ExpoPushMessage struct {
	To    string                 `json:"to"`
	Title string                 `json:"title"`
	Body  string                 `json:"body"`
	Data  map[string]interface{} `json:"data,omitempty"`
	Sound string                 `json:"sound,omitempty"`
}

// NotificationService pushes new-order alerts to the shop staff app.
// Failures here never invalidate an order; the orchestrator records
// them on the order status instead.
type NotificationService struct {
	ExpoPushURL    string
	StaffPushToken string
	Client         *http.Client
}

func NewNotificationService(staffPushToken string, timeout time.Duration) *NotificationService {
	return &NotificationService{
		ExpoPushURL:    "https://exp.host/--/api/v2/push/send",
		StaffPushToken: staffPushToken,
		Client:         &http.Client{Timeout: timeout},
	}
}

// NotifyOrder implements checkout.Notifier.
func (ns *NotificationService) NotifyOrder(ctx context.Context, o *models.Order) error {
	if ns.StaffPushToken == "" {
		return fmt.Errorf("staff push token is empty")
	}

	message := ExpoPushMessage{
		To:    ns.StaffPushToken,
		Title: fmt.Sprintf("New order %s", o.OrderNumber),
		Body: fmt.Sprintf("%d items, KES %.0f, deliver to %s (%s)",
			len(o.Items), o.Total, o.DeliveryLocation, o.DeliveryZone),
		Data: map[string]interface{}{
			"order_number": o.OrderNumber,
			"customer":     o.CustomerPhone,
		},
		Sound: "default",
	}

	jsonData, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal push message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", ns.ExpoPushURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := ns.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send push notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("push service returned status %d", resp.StatusCode)
	}
	return nil
}

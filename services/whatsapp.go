package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// WhatsAppClient sends outbound messages through the WhatsApp Cloud
// API. Sends use bounded retry with exponential backoff; exhausting the
// retries surfaces the error but the inbound message that triggered the
// send is still considered processed.
type WhatsAppClient struct {
	Token   string
	PhoneID string
	BaseURL string
	Retries int
	Client  *http.Client

	// sleep is swappable in tests
	sleep func(ctx context.Context, d time.Duration) error
}

func NewWhatsAppClient(token, phoneID string, retries int, timeout time.Duration) *WhatsAppClient {
	return &WhatsAppClient{
		Token:   token,
		PhoneID: phoneID,
		BaseURL: "https://graph.facebook.com/v19.0",
		Retries: retries,
		Client:  &http.Client{Timeout: timeout},
		sleep:   sleepCtx,
	}
}

// sleepCtx waits out the backoff but yields immediately when the
// context is cancelled, so a dead request never sits through a retry
// delay.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SendText sends a plain text message to a customer.
func (w *WhatsAppClient) SendText(ctx context.Context, to, text string) error {
	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text":              map[string]string{"body": text},
	}
	return w.send(ctx, payload)
}

// SendImage sends an image by URL.
func (w *WhatsAppClient) SendImage(ctx context.Context, to, imageURL string) error {
	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "image",
		"image":             map[string]string{"link": imageURL},
	}
	return w.send(ctx, payload)
}

func (w *WhatsAppClient) send(ctx context.Context, payload map[string]interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", w.BaseURL, w.PhoneID)
	backoff := 500 * time.Millisecond
	var lastErr error

	attempts := w.Retries
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 1; attempt <= attempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+w.Token)

		resp, err := w.Client.Do(req)
		if err == nil {
			respBody, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			if resp.StatusCode < 300 {
				return nil
			}
			lastErr = fmt.Errorf("whatsapp api returned status %d: %s", resp.StatusCode, string(respBody))
		} else {
			lastErr = err
		}

		log.Printf("whatsapp send attempt %d/%d failed: %v", attempt, attempts, lastErr)
		if attempt < attempts {
			if err := w.sleep(ctx, backoff); err != nil {
				return fmt.Errorf("whatsapp send abandoned: %w", err)
			}
			backoff *= 2
		}
	}
	return fmt.Errorf("whatsapp send failed after %d attempts: %w", attempts, lastErr)
}

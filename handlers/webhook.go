package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nyodera1-source/allivanfresh-whatsapp-bot/config"
)

// VerifyWebhook handles GET /webhook, the Cloud API subscription
// handshake.
func VerifyWebhook(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token == config.AppConfig.WebhookVerifyToken {
		c.String(http.StatusOK, challenge)
		return
	}
	c.AbortWithStatus(http.StatusForbidden)
}

// whatsappWebhook mirrors the slice of the Cloud API payload we care
// about.
type whatsappWebhook struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []struct {
					ID   string `json:"id"`
					From string `json:"from"`
					Type string `json:"type"`
					Text struct {
						Body string `json:"body"`
					} `json:"text"`
					Location struct {
						Latitude  float64 `json:"latitude"`
						Longitude float64 `json:"longitude"`
					} `json:"location"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// ReceiveWebhook handles POST /webhook. It always answers 200: the
// Cloud API retries non-200s, and a processing failure on our side is
// not something a retry of the same payload will fix.
func ReceiveWebhook(c *gin.Context) {
	var payload whatsappWebhook
	if err := c.ShouldBindJSON(&payload); err != nil {
		fmt.Printf("❌ Webhook payload parse failed: %v\n", err)
		c.Status(http.StatusOK)
		return
	}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, m := range change.Value.Messages {
				msg := InboundMessage{
					MessageID: m.ID,
					From:      m.From,
					Kind:      m.Type,
					Text:      m.Text.Body,
					Lat:       m.Location.Latitude,
					Lon:       m.Location.Longitude,
				}

				if msg.Kind != KindText && msg.Kind != KindLocation {
					continue
				}
				if Dedupe.Seen(msg.MessageID) {
					fmt.Printf("🔁 Duplicate webhook delivery for %s, skipping\n", msg.MessageID)
					continue
				}

				fmt.Printf("📩 Inbound %s message from %s\n", msg.Kind, msg.From)
				go func(msg InboundMessage) {
					ctx, cancel := context.WithTimeout(context.Background(), config.AppConfig.ExternalTimeout*3)
					defer cancel()
					if err := Bot.HandleInbound(ctx, msg); err != nil {
						log.Printf("failed to handle message %s from %s: %v", msg.MessageID, msg.From, err)
					}
				}(msg)
			}
		}
	}

	c.Status(http.StatusOK)
}

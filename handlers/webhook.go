package handlers

import (
	"net/http"

	"income-bridge/api/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WebhookPayload is the subset of Plaid webhook fields we act on.
type WebhookPayload struct {
	WebhookType string `json:"webhook_type"`
	WebhookCode string `json:"webhook_code"`
	ItemID      string `json:"item_id"`
	UserID      string `json:"user_id"`
}

// HandleWebhook acknowledges verified Plaid webhooks. Income verification
// progress arrives here; the client application polls check/income for the
// actual decision, so acknowledging and logging is all that is needed.
func (h *Handler) HandleWebhook(c *gin.Context) {
	var payload WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook body"})
		return
	}

	logger.Get().Info("plaid webhook received",
		zap.String("webhook_type", payload.WebhookType),
		zap.String("webhook_code", payload.WebhookCode),
		zap.String("item_id", payload.ItemID))

	c.JSON(http.StatusOK, gin.H{"received": true})
}

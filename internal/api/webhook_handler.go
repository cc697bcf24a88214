package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/futevolei/futevolei-booking/internal/domain"
	"github.com/futevolei/futevolei-booking/internal/platform/mercadopago"
	"github.com/futevolei/futevolei-booking/internal/reconcile"
)

// WebhookHandler receives Mercado Pago payment notifications.
type WebhookHandler struct {
	engine    *reconcile.Engine
	validator *mercadopago.WebhookValidator
}

// NewWebhookHandler creates the webhook handler.
func NewWebhookHandler(engine *reconcile.Engine, validator *mercadopago.WebhookValidator) *WebhookHandler {
	return &WebhookHandler{engine: engine, validator: validator}
}

// notification is the body Mercado Pago posts. Only the type and the payment
// id matter; the actual status is always re-fetched from the API.
type notification struct {
	Type string `json:"type"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Handle processes POST /webhooks/mercadopago
//
// A rejected signature answers 400. An unknown charge id answers 404. A
// provider fetch failure answers 500 so Mercado Pago retries the delivery.
// Duplicate deliveries are harmless: reconciliation is idempotent.
func (h *WebhookHandler) Handle(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "unreadable body"})
		return
	}

	var payload notification
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Printf("Webhook parse error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "invalid payload"})
		return
	}

	if payload.Type != "payment" {
		// Merchant order and plan notifications are not our concern.
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	dataID := payload.Data.ID
	if dataID == "" {
		dataID = c.Query("data.id")
	}
	if dataID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "missing data.id"})
		return
	}

	if h.validator.Enabled() {
		xSignature := c.GetHeader("x-signature")
		xRequestID := c.GetHeader("x-request-id")
		if !h.validator.ValidateSignature(xSignature, xRequestID, dataID) {
			log.Printf("Webhook signature rejected for charge %s", dataID)
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "invalid signature"})
			return
		}
	}

	result, err := h.engine.Push(c.Request.Context(), dataID, raw)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "unknown charge id"})
			return
		}
		log.Printf("Webhook processing error for charge %s: %v", dataID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "processed", "result": result})
}

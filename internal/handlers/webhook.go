package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/josejalvarezm/payments-webhook-connector/internal/domain"
)

// SignatureHeader carries the raw-body signature when the header scheme is used
const SignatureHeader = "X-Webhook-Signature"

// maxBodyBytes bounds a single notification body
const maxBodyBytes = 1 << 20

// WebhookHandler handles incoming payment notifications (HTTP transport layer)
type WebhookHandler struct {
	processor domain.WebhookProcessor
	logger    domain.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(processor domain.WebhookProcessor, logger domain.Logger) *WebhookHandler {
	return &WebhookHandler{
		processor: processor,
		logger:    logger,
	}
}

// InsertOne accepts one notification. The response is sent once the
// notification is buffered, before it is durably written.
func (h *WebhookHandler) InsertOne(c *gin.Context) {
	// Read request body
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		h.logger.Error("failed to read request body", err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Notification body too large."})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read body"})
		return
	}

	// Process webhook
	if err := h.processor.Process(c.Request.Context(), body, c.GetHeader(SignatureHeader)); err != nil {
		h.logger.Error("failed to process webhook", err)
		switch {
		case errors.Is(err, domain.ErrInvalidSignature):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid hmac signature."})
		case errors.Is(err, domain.ErrInvalidPayload):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification payload."})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process notification."})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Transaction received"})
}

package services

import (
	"context"
	"fmt"

	"github.com/josejalvarezm/payments-webhook-connector/internal/domain"
	"github.com/josejalvarezm/payments-webhook-connector/internal/payload"
)

// WebhookService implements domain.WebhookProcessor
// Orchestrates validation, normalization and buffering (Business Logic Layer)
type WebhookService struct {
	validator  domain.SignatureValidator
	normalizer *Normalizer
	buffer     domain.RecordBuffer
	logger     domain.Logger
}

// NewWebhookService creates a new webhook service with dependency injection
func NewWebhookService(
	validator domain.SignatureValidator,
	normalizer *Normalizer,
	buffer domain.RecordBuffer,
	logger domain.Logger,
) *WebhookService {
	return &WebhookService{
		validator:  validator,
		normalizer: normalizer,
		buffer:     buffer,
		logger:     logger,
	}
}

// Process validates the notification and stages one record per notification item
func (s *WebhookService) Process(ctx context.Context, body []byte, signature string) error {
	// Step 1: Parse payload
	tree, err := payload.Decode(body)
	if err != nil {
		s.logger.Error("failed to parse webhook payload", err)
		return fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	items := payload.Items(tree)

	// Step 2: Validate signature over the items that will be stored
	if err := s.validator.Validate(body, items, signature); err != nil {
		s.logger.Error("webhook validation failed", err)
		return fmt.Errorf("webhook validation failed: %w", err)
	}

	// Step 3: Extract and normalize every item before touching the buffer
	records := make([]domain.NotificationRecord, 0, len(items))
	for _, item := range items {
		fields := payload.ExtractNative(item, domain.RequiredFields)
		if missing := len(domain.RequiredFields) - len(fields); missing > 0 {
			s.logger.Debug("notification has missing fields", "missing", missing)
		}

		record, err := s.normalizer.Normalize(fields, domain.RequiredFields)
		if err != nil {
			s.logger.Error("failed to normalize notification", err)
			return fmt.Errorf("failed to normalize notification: %w", err)
		}
		records = append(records, record)
	}

	// Step 4: Stage for the next flush
	for _, record := range records {
		s.buffer.Append(ctx, record)
	}

	s.logger.Info("webhook accepted", "items", len(records), "buffered", s.buffer.Len())
	return nil
}

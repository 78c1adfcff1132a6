// Package domain contains domain models and interfaces following SOLID principles
package domain

import (
	"context"

	"github.com/josejalvarezm/payments-webhook-connector/internal/payload"
)

// Field names located in every payment notification
const (
	FieldPSPReference         = "pspReference"
	FieldLive                 = "live"
	FieldCurrency             = "currency"
	FieldValue                = "value"
	FieldEventCode            = "eventCode"
	FieldEventDate            = "eventDate"
	FieldMerchantAccountCode  = "merchantAccountCode"
	FieldMerchantReference    = "merchantReference"
	FieldOriginalReference    = "originalReference"
	FieldPaymentMethodVariant = "paymentMethodVariant"
	FieldPaymentMethod        = "paymentMethod"
	FieldReason               = "reason"
	FieldSuccess              = "success"
)

// RequiredFields lists the notification fields in storage column order
var RequiredFields = []string{
	FieldPSPReference,
	FieldLive,
	FieldCurrency,
	FieldValue,
	FieldEventCode,
	FieldEventDate,
	FieldMerchantAccountCode,
	FieldMerchantReference,
	FieldOriginalReference,
	FieldPaymentMethodVariant,
	FieldPaymentMethod,
	FieldReason,
	FieldSuccess,
}

// NotificationRecord is one normalized payment notification.
// Every required field is present as a key; missing data is stored as nil.
type NotificationRecord map[string]any

// Values returns the record values in RequiredFields order
func (r NotificationRecord) Values() []any {
	values := make([]any, len(RequiredFields))
	for i, field := range RequiredFields {
		values[i] = r[field]
	}
	return values
}

// String returns the named field as a string, or "" when it is nil or not a string
func (r NotificationRecord) String(field string) string {
	if s, ok := r[field].(string); ok {
		return s
	}
	return ""
}

// Row is a single warehouse result row keyed by column name
type Row map[string]any

// BatchWriter interface (Dependency Inversion Principle)
// Performs one bulk durable write of a non-empty batch
type BatchWriter interface {
	WriteBatch(ctx context.Context, records []NotificationRecord) error
}

// RecordBuffer stages normalized records until the next flush
type RecordBuffer interface {
	Append(ctx context.Context, record NotificationRecord)
	Len() int
}

// Warehouse interface for the analytical read queries
type Warehouse interface {
	LatestTransaction(ctx context.Context) (Row, error)
	TopCustomers(ctx context.Context, start, end string) ([]Row, error)
	ClerkYearlySales(ctx context.Context, clerk string, year int) ([]Row, error)
	EmailHistory(ctx context.Context, parentID, relatedToID string) ([]Row, error)
}

// SignatureValidator interface (Dependency Inversion Principle)
// Separates validation logic from transport layer.
// items are the decoded notification items that will be stored.
type SignatureValidator interface {
	Validate(body []byte, items []payload.Value, signature string) error
}

// Logger interface (Dependency Inversion Principle)
// Allows swapping logging implementations
type Logger interface {
	Error(msg string, err error)
	Info(msg string, args ...interface{})
	Debug(msg string, args ...interface{})
}

// WebhookProcessor interface (Dependency Inversion Principle)
// Main business logic abstraction
type WebhookProcessor interface {
	Process(ctx context.Context, body []byte, signature string) error
}

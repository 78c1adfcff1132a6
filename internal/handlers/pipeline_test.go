package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/bwmarrin/snowflake"

	"github.com/josejalvarezm/payments-webhook-connector/internal/domain"
	"github.com/josejalvarezm/payments-webhook-connector/internal/ingest"
	"github.com/josejalvarezm/payments-webhook-connector/internal/services"
)

const pipelineHexKey = "44782DEF547AAA06C910C43932B1EB0C71FC68D9D0C057550C48EC2ACF6BA056"

type recordingWriter struct{ calls int }

func (r *recordingWriter) WriteBatch(ctx context.Context, records []domain.NotificationRecord) error {
	r.calls++
	return nil
}

func signedBody(t *testing.T, validator *domain.NotificationHMACValidator, tamper bool) []byte {
	t.Helper()
	item := map[string]any{
		"pspReference":        "7914073381342284",
		"merchantAccountCode": "TestMerchant",
		"merchantReference":   "order-42",
		"amount":              map[string]any{"value": json.Number("1050"), "currency": "AUD"},
		"eventCode":           "AUTHORISATION",
		"eventDate":           "2024-01-01T00:00:00Z",
		"success":             "true",
	}
	item["additionalData"] = map[string]any{"hmacSignature": validator.Sign(map[string]any{
		domain.FieldPSPReference:        item["pspReference"],
		domain.FieldMerchantAccountCode: item["merchantAccountCode"],
		domain.FieldMerchantReference:   item["merchantReference"],
		domain.FieldValue:               json.Number("1050"),
		domain.FieldCurrency:            "AUD",
		domain.FieldEventCode:           item["eventCode"],
		domain.FieldSuccess:             item["success"],
	})}
	if tamper {
		item["merchantReference"] = "order-43"
	}
	body, err := json.Marshal(map[string]any{
		"live":              "false",
		"notificationItems": []any{map[string]any{"NotificationRequestItem": item}},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return body
}

func TestPipelineSignedNotificationIsBuffered(t *testing.T) {
	validator, err := domain.NewNotificationHMACValidator(pipelineHexKey)
	if err != nil {
		t.Fatalf("validator: %v", err)
	}
	normalizer, err := services.NewNormalizer(services.DefaultEventTimezone)
	if err != nil {
		t.Fatalf("normalizer: %v", err)
	}
	node, _ := snowflake.NewNode(1)
	logger := &MockHandlerLogger{}
	writer := &recordingWriter{}
	buffer := ingest.NewBuffer(writer, logger, 100, node)
	service := services.NewWebhookService(validator, normalizer, buffer, logger)
	router := newTestRouter(service, &MockWarehouse{}, logger, nil)

	// valid signature
	w := postNotification(router, signedBody(t, validator, false), "")

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	var response map[string]string
	json.Unmarshal(w.Body.Bytes(), &response)
	if response["message"] != "Transaction received" {
		t.Errorf("Expected message 'Transaction received', got %v", response)
	}
	if buffer.Len() != 1 {
		t.Fatalf("Expected buffer length 1, got %d", buffer.Len())
	}

	// tampered signature
	w = postNotification(router, signedBody(t, validator, true), "")

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
	if buffer.Len() != 1 {
		t.Errorf("Expected buffer length unchanged at 1, got %d", buffer.Len())
	}

	staged := buffer.DrainAndClear()[0]
	if staged.String(domain.FieldEventDate) != "2024-01-01T11:00:00+11:00" {
		t.Errorf("Expected Sydney eventDate, got %v", staged[domain.FieldEventDate])
	}
	if staged.String(domain.FieldCurrency) != "AUD" {
		t.Errorf("Expected currency AUD, got %v", staged[domain.FieldCurrency])
	}
	if writer.calls != 0 {
		t.Errorf("Expected no flush below the watermark, got %d", writer.calls)
	}
}

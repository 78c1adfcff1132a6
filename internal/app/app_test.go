package app

import (
	"context"
	"testing"

	"go.uber.org/fx"

	"github.com/josejalvarezm/payments-webhook-connector/internal/config"
	"github.com/josejalvarezm/payments-webhook-connector/internal/domain"
	"github.com/josejalvarezm/payments-webhook-connector/internal/repositories"
)

func TestModuleGraphIsComplete(t *testing.T) {
	// the fx logger is built from config even when validating
	t.Setenv("WEBHOOK_SECRET", "00ff")

	if err := fx.ValidateApp(Module); err != nil {
		t.Fatalf("Expected a valid dependency graph, got %v", err)
	}
}

func TestNewSignatureValidatorSchemes(t *testing.T) {
	header, err := NewSignatureValidator(&config.Config{SignatureScheme: config.SchemeHeader, WebhookSecret: "plain"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, ok := header.(*domain.HMACValidator); !ok {
		t.Errorf("Expected HMACValidator, got %T", header)
	}

	notification, err := NewSignatureValidator(&config.Config{SignatureScheme: config.SchemeNotification, WebhookSecret: "00ff"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, ok := notification.(*domain.NotificationHMACValidator); !ok {
		t.Errorf("Expected NotificationHMACValidator, got %T", notification)
	}

	if _, err := NewSignatureValidator(&config.Config{SignatureScheme: config.SchemeNotification, WebhookSecret: "zz"}); err == nil {
		t.Errorf("Expected error for non-hex key")
	}
}

func TestNewBatchWriterWarehouseBackend(t *testing.T) {
	warehouse, err := repositories.NewWarehouseRepository(nil, repositories.DefaultTables())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	writer, err := NewBatchWriter(context.Background(), &config.Config{StorageBackend: config.BackendWarehouse}, warehouse, nil)

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if writer != domain.BatchWriter(warehouse) {
		t.Errorf("Expected the warehouse repository to be the writer")
	}
}

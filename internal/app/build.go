package app

import (
	"context"
	"net/http"

	"github.com/josejalvarezm/payments-webhook-connector/internal/config"
	"github.com/josejalvarezm/payments-webhook-connector/internal/ingest"
)

// Handler is a fully wired connector without a listener, for hosted runtimes
type Handler struct {
	http.Handler
	Flusher *ingest.Flusher
}

// Build assembles the connector the same way Module does and starts the flush timer
func Build(ctx context.Context, cfg *config.Config) (*Handler, error) {
	log, err := NewZap(cfg)
	if err != nil {
		return nil, err
	}
	logger := NewLogger(log)

	ids, err := NewIDNode()
	if err != nil {
		return nil, err
	}
	db, err := NewWarehouseDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	warehouse, err := NewWarehouse(db, cfg)
	if err != nil {
		return nil, err
	}
	writer, err := NewBatchWriter(ctx, cfg, warehouse, ids)
	if err != nil {
		return nil, err
	}
	validator, err := NewSignatureValidator(cfg)
	if err != nil {
		return nil, err
	}
	normalizer, err := NewNormalizer(cfg)
	if err != nil {
		return nil, err
	}

	buffer := NewBuffer(cfg, writer, logger, ids)
	flusher := NewFlusher(cfg, buffer, logger)
	flusher.Start()

	service := NewWebhookService(validator, normalizer, buffer, logger)
	router := NewRouter(cfg, service, warehouse, buffer, logger, log)

	logger.Info("connector initialized",
		"backend", cfg.StorageBackend,
		"watermark", cfg.BufferWatermark,
		"flushInterval", cfg.FlushInterval.String())

	return &Handler{Handler: router, Flusher: flusher}, nil
}

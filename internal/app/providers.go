// Package app assembles the connector from its layers
package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	firebase "firebase.google.com/go/v4"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"github.com/josejalvarezm/payments-webhook-connector/internal/config"
	"github.com/josejalvarezm/payments-webhook-connector/internal/domain"
	"github.com/josejalvarezm/payments-webhook-connector/internal/handlers"
	"github.com/josejalvarezm/payments-webhook-connector/internal/ingest"
	"github.com/josejalvarezm/payments-webhook-connector/internal/repositories"
	"github.com/josejalvarezm/payments-webhook-connector/internal/services"
)

// NewZap builds the process logger
func NewZap(cfg *config.Config) (*zap.Logger, error) {
	log, err := services.NewProductionLogger(cfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return log.With(zap.String("environment", cfg.Environment)), nil
}

// NewLogger adapts zap to domain.Logger
func NewLogger(log *zap.Logger) domain.Logger {
	return services.NewZapLogger(log)
}

// NewIDNode creates the generator for batch and document IDs
func NewIDNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}

// NewWarehouseDB connects to Snowflake
func NewWarehouseDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	return repositories.OpenSnowflake(ctx, repositories.SnowflakeConfig{
		Account:   cfg.Snowflake.Account,
		User:      cfg.Snowflake.User,
		Password:  cfg.Snowflake.Password,
		Warehouse: cfg.Snowflake.Warehouse,
		Database:  cfg.Snowflake.Database,
		Schema:    cfg.Snowflake.Schema,
		Host:      cfg.Snowflake.Host,
		Port:      cfg.Snowflake.Port,
		TokenFile: cfg.Snowflake.TokenFile,
	})
}

// NewWarehouse wraps the Snowflake pool
func NewWarehouse(db *sql.DB, cfg *config.Config) (*repositories.WarehouseRepository, error) {
	return repositories.NewWarehouseRepository(db, repositories.Tables{
		Transactions: cfg.Tables.Transactions,
		Orders:       cfg.Tables.Orders,
		Emails:       cfg.Tables.Emails,
	})
}

// NewBatchWriter selects the storage backend for flushed batches
func NewBatchWriter(ctx context.Context, cfg *config.Config, warehouse *repositories.WarehouseRepository, ids *snowflake.Node) (domain.BatchWriter, error) {
	if cfg.StorageBackend == config.BackendWarehouse {
		return warehouse, nil
	}

	var opts []option.ClientOption
	if cfg.GoogleCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.GoogleCredentialsFile))
	}
	firebaseApp, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:   cfg.FirebaseProjectID,
		DatabaseURL: cfg.FirebaseDatabaseURL,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase: %w", err)
	}

	switch cfg.StorageBackend {
	case config.BackendFirestore:
		client, err := firebaseApp.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get Firestore client: %w", err)
		}
		return repositories.NewFirestoreRepository(client, "transactions", ids), nil
	case config.BackendFirebase:
		client, err := firebaseApp.Database(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get Firebase database client: %w", err)
		}
		return repositories.NewFirebaseRepository(client, "transactions", ids), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// NewSignatureValidator selects the notification signature scheme
func NewSignatureValidator(cfg *config.Config) (domain.SignatureValidator, error) {
	if cfg.SignatureScheme == config.SchemeHeader {
		return domain.NewHMACValidator(cfg.WebhookSecret), nil
	}
	return domain.NewNotificationHMACValidator(cfg.WebhookSecret)
}

// NewNormalizer builds the field normalizer
func NewNormalizer(cfg *config.Config) (*services.Normalizer, error) {
	return services.NewNormalizer(cfg.EventTimezone)
}

// NewBuffer builds the ingestion buffer
func NewBuffer(cfg *config.Config, writer domain.BatchWriter, logger domain.Logger, ids *snowflake.Node) *ingest.Buffer {
	return ingest.NewBuffer(writer, logger, cfg.BufferWatermark, ids)
}

// NewFlusher builds the timer trigger
func NewFlusher(cfg *config.Config, buffer *ingest.Buffer, logger domain.Logger) *ingest.Flusher {
	return ingest.NewFlusher(buffer, cfg.FlushInterval, logger)
}

// NewWebhookService composes the ingestion pipeline
func NewWebhookService(validator domain.SignatureValidator, normalizer *services.Normalizer, buffer *ingest.Buffer, logger domain.Logger) *services.WebhookService {
	return services.NewWebhookService(validator, normalizer, buffer, logger)
}

// NewRouter builds the HTTP routes
func NewRouter(cfg *config.Config, service *services.WebhookService, warehouse *repositories.WarehouseRepository, buffer *ingest.Buffer, logger domain.Logger, log *zap.Logger) *gin.Engine {
	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	return handlers.NewRouter(handlers.RouterParams{
		Webhook: handlers.NewWebhookHandler(service, logger),
		Queries: handlers.NewQueryHandler(warehouse, logger),
		Stats:   buffer,
		Limiter: rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst),
		Log:     log,
	})
}

// NewHTTPServer binds the router to the configured port
func NewHTTPServer(cfg *config.Config, router *gin.Engine) *http.Server {
	return &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}
}

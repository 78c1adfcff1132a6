package app

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/josejalvarezm/payments-webhook-connector/internal/config"
	"github.com/josejalvarezm/payments-webhook-connector/internal/domain"
	"github.com/josejalvarezm/payments-webhook-connector/internal/ingest"
	"github.com/josejalvarezm/payments-webhook-connector/internal/repositories"
)

// Module wires the long-running server
var Module = fx.Options(
	fx.Provide(
		config.LoadConfig,
		NewZap,
		NewLogger,
		NewIDNode,
		func(lc fx.Lifecycle, cfg *config.Config) (*sql.DB, error) {
			db, err := NewWarehouseDB(context.Background(), cfg)
			if err != nil {
				return nil, err
			}
			lc.Append(fx.Hook{OnStop: func(context.Context) error { return db.Close() }})
			return db, nil
		},
		NewWarehouse,
		func(cfg *config.Config, warehouse *repositories.WarehouseRepository, ids *snowflake.Node) (domain.BatchWriter, error) {
			return NewBatchWriter(context.Background(), cfg, warehouse, ids)
		},
		NewSignatureValidator,
		NewNormalizer,
		NewBuffer,
		NewFlusher,
		NewWebhookService,
		NewRouter,
		NewHTTPServer,
	),
	fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
		return &fxevent.ZapLogger{Logger: log.Named("fx")}
	}),
	fx.Invoke(registerHooks),
)

// registerHooks starts the flush timer before the listener and, on stop,
// drains HTTP traffic before the final flush.
func registerHooks(lc fx.Lifecycle, server *http.Server, flusher *ingest.Flusher, logger domain.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			flusher.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return flusher.Stop(ctx)
		},
	})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", server.Addr)
			if err != nil {
				return err
			}
			logger.Info("Starting connector server", "addr", server.Addr)
			go func() {
				if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return server.Shutdown(ctx)
		},
	})
}

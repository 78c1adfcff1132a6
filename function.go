// Package function contains the Cloud Function entry point for GCP Cloud Functions Gen2
package function

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/josejalvarezm/payments-webhook-connector/internal/app"
	"github.com/josejalvarezm/payments-webhook-connector/internal/config"
)

var (
	handler http.Handler
	initMu  sync.Mutex

	// buildHandler is replaced in tests
	buildHandler = func(ctx context.Context) (http.Handler, error) {
		cfg, err := config.LoadConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		built, err := app.Build(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize connector: %w", err)
		}
		return built, nil
	}
)

func init() {
	functions.HTTP("PaymentsConnector", PaymentsConnector)
}

// loadHandler builds the connector on first use. A failed build is retried
// on the next request instead of pinning the instance to errors.
func loadHandler(ctx context.Context) (http.Handler, error) {
	initMu.Lock()
	defer initMu.Unlock()

	if handler != nil {
		return handler, nil
	}
	built, err := buildHandler(ctx)
	if err != nil {
		return nil, err
	}
	handler = built
	return handler, nil
}

// PaymentsConnector is the HTTP Cloud Function entry point.
// The buffer lives as long as the function instance does.
func PaymentsConnector(w http.ResponseWriter, r *http.Request) {
	h, err := loadHandler(context.WithoutCancel(r.Context()))
	if err != nil {
		log.Printf("[ERROR] %v", err)
		http.Error(w, "Handler not initialized", http.StatusInternalServerError)
		return
	}
	h.ServeHTTP(w, r)
}

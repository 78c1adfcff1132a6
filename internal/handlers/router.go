package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/josejalvarezm/payments-webhook-connector/internal/ingest"
)

// StatsProvider reports ingestion buffer statistics
type StatsProvider interface {
	Stats() ingest.Stats
}

// RouterParams groups the router dependencies
type RouterParams struct {
	Webhook *WebhookHandler
	Queries *QueryHandler
	Stats   StatsProvider
	Limiter *rate.Limiter
	Log     *zap.Logger
}

// NewRouter wires all HTTP routes
func NewRouter(p RouterParams) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), AccessLog(p.Log))

	router.POST("/insertOneTransaction", RateLimit(p.Limiter), p.Webhook.InsertOne)

	router.GET("/getLatestTransaction", p.Queries.LatestTransaction)
	router.GET("/customers/top10", p.Queries.TopCustomers)
	router.GET("/clerk/:clerkid/yearly_sales/:year", p.Queries.ClerkYearlySales)
	router.GET("/email_history", p.Queries.EmailHistory)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "buffer": p.Stats.Stats()})
	})

	return router
}

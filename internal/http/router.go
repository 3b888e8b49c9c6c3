// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-llm-usage/internal/analytics"
	"github.com/tbourn/go-llm-usage/internal/config"
	"github.com/tbourn/go-llm-usage/internal/domain"
	"github.com/tbourn/go-llm-usage/internal/http/handlers"
	"github.com/tbourn/go-llm-usage/internal/http/middleware"
	"github.com/tbourn/go-llm-usage/internal/llm"
	"github.com/tbourn/go-llm-usage/internal/pricing"
	"github.com/tbourn/go-llm-usage/internal/repo"
	"github.com/tbourn/go-llm-usage/internal/services"
)

// interactionRepoShim adapts the repository free functions to the
// services.InteractionRepo interface expected by the ChatService. This keeps
// services decoupled from the concrete repo package while reusing existing
// functions.
type interactionRepoShim struct{}

// CreateInteraction proxies repo.CreateInteraction.
func (interactionRepoShim) CreateInteraction(ctx context.Context, db *gorm.DB, rec *domain.Interaction) error {
	return repo.CreateInteraction(ctx, db, rec)
}

// CountInteractions proxies repo.CountInteractions (pagination support).
func (interactionRepoShim) CountInteractions(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountInteractions(ctx, db)
}

// ListInteractionsPage proxies repo.ListInteractionsPage (pagination support).
func (interactionRepoShim) ListInteractionsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Interaction, error) {
	return repo.ListInteractionsPage(ctx, db, offset, limit)
}

// analyticsRepoShim adapts the repository aggregate functions to the
// services.AnalyticsRepo interface.
type analyticsRepoShim struct{}

// SummaryStats proxies repo.SummaryStats.
func (analyticsRepoShim) SummaryStats(ctx context.Context, db *gorm.DB, f analytics.Filter) (analytics.Summary, error) {
	return repo.SummaryStats(ctx, db, f)
}

// UsageByModel proxies repo.UsageByModel.
func (analyticsRepoShim) UsageByModel(ctx context.Context, db *gorm.DB, f analytics.Filter) ([]analytics.GroupCount, error) {
	return repo.UsageByModel(ctx, db, f)
}

// UsageByProvider proxies repo.UsageByProvider.
func (analyticsRepoShim) UsageByProvider(ctx context.Context, db *gorm.DB, f analytics.Filter) ([]analytics.GroupCount, error) {
	return repo.UsageByProvider(ctx, db, f)
}

// UsageByUser proxies repo.UsageByUser.
func (analyticsRepoShim) UsageByUser(ctx context.Context, db *gorm.DB, f analytics.Filter) ([]analytics.UserUsage, error) {
	return repo.UsageByUser(ctx, db, f)
}

// ErrorsByProvider proxies repo.ErrorsByProvider.
func (analyticsRepoShim) ErrorsByProvider(ctx context.Context, db *gorm.DB, f analytics.Filter) ([]analytics.GroupCount, error) {
	return repo.ErrorsByProvider(ctx, db, f)
}

// ErrorsByMessage proxies repo.ErrorsByMessage.
func (analyticsRepoShim) ErrorsByMessage(ctx context.Context, db *gorm.DB, f analytics.Filter) ([]analytics.GroupCount, error) {
	return repo.ErrorsByMessage(ctx, db, f)
}

// TimeSeries proxies repo.TimeSeries.
func (analyticsRepoShim) TimeSeries(ctx context.Context, db *gorm.DB, f analytics.Filter) ([]analytics.TimeBucket, error) {
	return repo.TimeSeries(ctx, db, f)
}

// DistinctUsers proxies repo.DistinctUsers.
func (analyticsRepoShim) DistinctUsers(ctx context.Context, db *gorm.DB) ([]string, error) {
	return repo.DistinctUsers(ctx, db)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Rate limiter (per user/IP, bypass on replay)
//  9. CORS, security headers, gzip
func RegisterRoutes(r *gin.Engine, db *gorm.DB, gateway llm.Client, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-Gateway-Api-Key", // upstream gateway credential must never reach logs
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, userID, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 8) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Idempotency-Replayed", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Idempotency-Replayed", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Compress responses; the analytics payload in particular benefits.
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// API docs (optional)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/gateway
	chatSvc := services.NewChatService(
		db,
		interactionRepoShim{},
		gateway,
		pricing.NewCalculator(cfg.CostPer1KTokens),
		cfg.DefaultModel,
	)
	analyticsSvc := services.NewAnalyticsService(
		db,
		analyticsRepoShim{},
		analytics.NewTTLCache(cfg.AnalyticsCacheTTL),
	)

	h := handlers.New(chatSvc, analyticsSvc)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Chat
		api.POST("/chat", h.Chat)
		api.GET("/models", h.ListModels)

		// Analytics
		api.GET("/analytics", h.Analytics)
		api.GET("/analytics/filters", h.AnalyticsFilters)
		api.GET("/interactions", h.ListInteractions)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

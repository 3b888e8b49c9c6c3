// Chat HTTP handlers.
//
// This file exposes the endpoints of the chat request flow:
//   - POST /chat     (submit a prompt; the attempt is always logged)
//   - GET  /models   (enumerate selectable models)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-llm-usage/internal/analytics"
	"github.com/tbourn/go-llm-usage/internal/domain"
	"github.com/tbourn/go-llm-usage/internal/http/middleware"
	"github.com/tbourn/go-llm-usage/internal/repo"
	"github.com/tbourn/go-llm-usage/internal/services"
)

//
// Service contracts (context-aware)
//

// ChatService defines the chat operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ChatService interface {
	// Ask submits a prompt against a model and logs the attempt. Provider
	// failures are logged, not returned: the resulting record carries them.
	Ask(ctx context.Context, userID *string, model, prompt string) (*domain.Interaction, error)
	// Models enumerates selectable model identifiers.
	Models(ctx context.Context) ([]string, error)
	// ListPage returns a page of logged interactions and the total count.
	ListPage(ctx context.Context, page, pageSize int) ([]domain.Interaction, int64, error)
}

// AnalyticsService defines the analytics view consumed by HTTP handlers.
type AnalyticsService interface {
	// View computes the usage analytics payload for the given raw filters.
	View(ctx context.Context, user, startDate, endDate string) (analytics.Payload, error)
	// Users enumerates distinct user identities across the entire store.
	Users(ctx context.Context) ([]string, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for chat, models, analytics, and the
// interaction log. It depends on abstract service interfaces to keep
// transport concerns separate from business logic.
type Handlers struct {
	chatSvc      ChatService
	analyticsSvc AnalyticsService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(chatSvc ChatService, analyticsSvc AnalyticsService) *Handlers {
	return &Handlers{chatSvc: chatSvc, analyticsSvc: analyticsSvc}
}

// userID extracts the caller identity from the Gin context (set by upstream
// middleware), falling back to the "X-User-ID" header. It returns nil for
// anonymous callers — anonymity is a first-class state here, not an error.
func userID(c *gin.Context) *string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return &s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return &h
		}
	}
	return nil
}

// idempotencyKey returns the request's idempotency key if an upstream
// middleware validated and stashed one, falling back to the raw
// "Idempotency-Key" header when the route is mounted without it.
func idempotencyKey(c *gin.Context) (string, bool) {
	if k, ok := middleware.GetIdempotencyKey(c); ok {
		return k, true
	}
	if v := strings.TrimSpace(c.GetHeader(middleware.HeaderIdempotencyKey)); v != "" {
		return v, true
	}
	return "", false
}

//
// DTOs
//

// ChatRequest is the JSON payload for submitting a prompt.
type ChatRequest struct {
	// Model selects the target model; the configured default is used when empty.
	Model string `json:"model" example:"gpt-4"`
	// Query is the user prompt (required).
	Query string `json:"query" binding:"required" example:"Summarize the quarterly numbers"`
}

// ModelsResponse lists the selectable model identifiers.
type ModelsResponse struct {
	Models []string `json:"models"`
}

//
// Handlers
//

// Chat godoc
// @ID          chat
// @Summary     Submit a chat prompt
// @Description Sends the prompt to the configured LLM gateway and logs the
// @Description attempt. Failed provider calls are logged and returned with
// @Description status "error"; the HTTP status is still 200.
// @Description Supports idempotency via the Idempotency-Key header: replays
// @Description return the stored interaction and set `Idempotency-Replayed: true`.
// @Tags        Chat
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "User ID (omit for anonymous)"  example(alice)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.ChatRequest  true  "Chat payload"
//
// @Success     200  {object}  domain.Interaction
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /chat [post]
func (h *Handlers) Chat(c *gin.Context) {
	ctx := c.Request.Context()

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	uid := userID(c)
	idemScope := "anonymous"
	if uid != nil {
		idemScope = *uid
	}

	// Idempotency (replay path) – return the previously logged interaction.
	idemKey, _ := idempotencyKey(c)
	if idemKey != "" {
		if svc, okSvc := h.chatSvc.(*services.ChatService); okSvc && svc.DB != nil {
			if idem, err := repo.GetIdempotency(ctx, svc.DB, idemScope, idemKey, time.Now().UTC()); err == nil && idem != nil {
				if prev, err2 := repo.GetInteraction(ctx, svc.DB, idem.InteractionID); err2 == nil {
					c.Header("Idempotency-Replayed", "true")
					ok(c, http.StatusOK, prev)
					return
				}
			}
		}
	}

	rec, err := h.chatSvc.Ask(ctx, uid, req.Model, req.Query)
	switch {
	case errors.Is(err, services.ErrEmptyPrompt):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "query must not be empty")
		return
	case errors.Is(err, services.ErrTooLong):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "query too long")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeChatFailed, err.Error())
		return
	}

	// Idempotency (store path) – best effort.
	if idemKey != "" {
		if svc, okSvc := h.chatSvc.(*services.ChatService); okSvc && svc.DB != nil {
			ttl := 24 * time.Hour
			_, _ = repo.CreateIdempotency(ctx, svc.DB, idemScope, idemKey, rec.ID, http.StatusOK, ttl)
		}
	}

	ok(c, http.StatusOK, rec)
}

// ListModels godoc
// @ID          listModels
// @Summary     List selectable models
// @Description Enumerates model identifiers from the gateway, with a static
// @Description fallback when the gateway is unreachable.
// @Tags        Chat
// @Produce     json
//
// @Success     200  {object}  handlers.ModelsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /models [get]
func (h *Handlers) ListModels(c *gin.Context) {
	models, err := h.chatSvc.Models(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeModelsFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ModelsResponse{Models: models})
}

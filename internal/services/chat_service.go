// Package services – ChatService
//
// This file implements ChatService, the component that owns the chat request
// flow: validate the prompt, call the LLM gateway, classify the outcome, and
// log exactly one interaction record for the attempt — success or failure.
// The record is immutable once written; every aggregate the analytics engine
// computes reads from these rows.
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// the model and provider. Domain metrics (interactions, tokens, cost,
// provider latency) are recorded here as well.
package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/tbourn/go-llm-usage/internal/domain"
	"github.com/tbourn/go-llm-usage/internal/llm"
	"github.com/tbourn/go-llm-usage/internal/pricing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// noContentSentinel is stored as the response text when the upstream call
// succeeded but returned no content.
const noContentSentinel = "The AI did not return any content."

// InteractionRepo is the repository contract required by ChatService.
// Implementations are responsible for persistence of interaction records.
type InteractionRepo interface {
	// CreateInteraction inserts a completed interaction row.
	CreateInteraction(ctx context.Context, db *gorm.DB, rec *domain.Interaction) error

	// CountInteractions returns the total number of records for pagination.
	CountInteractions(ctx context.Context, db *gorm.DB) (int64, error)

	// ListInteractionsPage returns a page of records, most recent first.
	ListInteractionsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Interaction, error)
}

// ChatService coordinates gateway calls and interaction logging.
type ChatService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo persists interaction records.
	Repo InteractionRepo
	// Gateway is the LLM client used to obtain completions.
	Gateway llm.Client

	// Pricing derives cost from token usage.
	Pricing pricing.Calculator
	// DefaultModel is used when a request names no model.
	DefaultModel string
	// MaxPromptRunes caps accepted prompts by rune length (0 = no cap).
	MaxPromptRunes int
}

// NewChatService constructs a ChatService with sane defaults.
func NewChatService(db *gorm.DB, repo InteractionRepo, gw llm.Client, calc pricing.Calculator, defaultModel string) *ChatService {
	return &ChatService{
		DB:             db,
		Repo:           repo,
		Gateway:        gw,
		Pricing:        calc,
		DefaultModel:   defaultModel,
		MaxPromptRunes: 4000,
	}
}

// Ask validates the prompt, calls the gateway, and logs the attempt as a
// single immutable interaction record.
//
// Provider failures are not surfaced as errors: the failed attempt is logged
// (status "error", zero tokens, zero latency since the call never completed)
// and the record is returned so the caller can present the error text. Only
// input validation and store failures return an error.
func (s *ChatService) Ask(ctx context.Context, userID *string, model, prompt string) (*domain.Interaction, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "Ask",
		trace.WithAttributes(attribute.String("llm.model", model)),
	)
	defer span.End()

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	if s.MaxPromptRunes > 0 && utf8.RuneCountInString(prompt) > s.MaxPromptRunes {
		return nil, ErrTooLong
	}
	if model == "" {
		model = s.DefaultModel
	}
	provider := llm.ProviderFor(model)
	span.SetAttributes(attribute.String("llm.provider", provider))

	var (
		outcome      domain.Outcome
		responseText string
		tokens       int
		latencyMS    float64
	)

	start := time.Now()
	completion, err := s.Gateway.Complete(ctx, model, prompt)
	if err != nil {
		outcome = domain.Failed(err.Error())
		responseText = "Error: " + err.Error()
	} else {
		latencyMS = float64(time.Since(start).Nanoseconds()) / 1e6
		outcome = domain.Succeeded()
		tokens = completion.TokensUsed
		responseText = completion.Text
		if responseText == "" {
			responseText = noContentSentinel
		}
		providerLatency.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	}

	rec := &domain.Interaction{
		UserID:       userID,
		ModelName:    model,
		Provider:     provider,
		QueryText:    prompt,
		ResponseText: responseText,
		TokensUsed:   tokens,
		Cost:         s.Pricing.Cost(tokens),
		Latency:      latencyMS,
		Status:       outcome.Status(),
		ErrorMessage: outcome.ErrorMessage(),
		Timestamp:    time.Now().UTC(),
	}
	if err := s.Repo.CreateInteraction(ctx, s.DB, rec); err != nil {
		return nil, err
	}

	interactionsTotal.WithLabelValues(model, provider, rec.Status).Inc()
	tokensTotal.WithLabelValues(model, provider).Add(float64(tokens))
	costTotal.WithLabelValues(model, provider).Add(rec.Cost)

	return rec, nil
}

// Models enumerates the selectable model identifiers.
func (s *ChatService) Models(ctx context.Context) ([]string, error) {
	return s.Gateway.Models(ctx)
}

// ListPage returns a page of logged interactions, most recent first.
// It applies defaults for invalid page/pageSize and returns the total count.
func (s *ChatService) ListPage(ctx context.Context, page, pageSize int) ([]domain.Interaction, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountInteractions(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Interaction{}, 0, nil
	}

	items, err := s.Repo.ListInteractionsPage(ctx, s.DB, offset, pageSize)
	return items, total, err
}

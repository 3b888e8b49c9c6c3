// Package llm wraps the OpenAI-compatible LLM gateway behind a narrow
// client interface. The gateway multiplexes several upstream providers
// behind one chat-completion API, so a single client serves every model;
// the model→provider mapping lives here as well.
//
// The package is an external collaborator from the analytics engine's point
// of view: nothing in it is consulted during aggregation.
package llm

import (
	"context"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
)

// systemPrompt is sent ahead of every user prompt.
const systemPrompt = "You are a helpful assistant."

// modelProviders maps model identifiers to their backing provider. Unknown
// models resolve to the default provider.
var modelProviders = map[string]string{
	"gpt-4":                  "openai",
	"gpt-3.5-turbo":          "openai",
	"claude-3-opus-20240229": "anthropic",
	"gemini-2.5-pro":         "google",
}

// fallbackModels is the static model list served when the gateway cannot be
// reached for enumeration.
var fallbackModels = []string{
	"gpt-4",
	"gpt-3.5-turbo",
	"claude-3-opus-20240229",
	"gemini-2.5-pro",
}

// ProviderFor returns the backing provider for a model identifier, or
// "openai" when the model is not mapped.
func ProviderFor(model string) string {
	if p, ok := modelProviders[model]; ok {
		return p
	}
	return "openai"
}

// Completion is the distilled result of a chat-completion call: the reply
// text (possibly empty when the upstream returned no content) and the total
// token usage reported by the provider.
type Completion struct {
	Text       string
	TokensUsed int
}

// Client is the contract the chat service depends on. Implementations must
// be safe for concurrent use and honor the provided context.
type Client interface {
	// Complete requests a chat completion for prompt against model.
	Complete(ctx context.Context, model, prompt string) (Completion, error)
	// Models enumerates the model identifiers available for selection.
	// Implementations should fall back to a static list on gateway failure.
	Models(ctx context.Context) ([]string, error)
}

// GatewayClient talks to an OpenAI-compatible gateway (e.g. Portkey).
type GatewayClient struct {
	client    openai.Client
	maxTokens int64
}

// NewGatewayClient builds a GatewayClient for the given gateway endpoint.
// baseURL may be empty to use the SDK default; maxTokens caps completion
// length (values <= 0 default to 2048).
func NewGatewayClient(apiKey, baseURL string, maxTokens int) *GatewayClient {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	return &GatewayClient{
		client:    openai.NewClient(opts...),
		maxTokens: int64(maxTokens),
	}
}

// Complete implements Client.
func (g *GatewayClient) Complete(ctx context.Context, model, prompt string) (Completion, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
		MaxTokens: openai.Int(g.maxTokens),
	})
	if err != nil {
		return Completion{}, err
	}

	out := Completion{TokensUsed: int(resp.Usage.TotalTokens)}
	if len(resp.Choices) > 0 {
		out.Text = resp.Choices[0].Message.Content
	}
	return out, nil
}

// Models implements Client. Gateway enumeration failures degrade to the
// static fallback list rather than an error, matching the selection-UI use
// case: the caller still needs something to offer.
func (g *GatewayClient) Models(ctx context.Context) ([]string, error) {
	page, err := g.client.Models.List(ctx)
	if err != nil || page == nil || len(page.Data) == 0 {
		out := make([]string, len(fallbackModels))
		copy(out, fallbackModels)
		return out, nil
	}
	ids := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

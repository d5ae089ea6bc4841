package inference

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	domain "parley-server/chat-api/internal/domain/inference"
	"parley-server/chat-api/internal/domain/provider"
	"parley-server/chat-api/internal/infrastructure/metrics"
)

// OpenAIGenerator talks to any OpenAI-compatible chat completion endpoint.
// All supported provider kinds expose this surface, so one adapter covers the
// whole catalog; only base URL and credentials differ per provider.
type OpenAIGenerator struct {
	timeout time.Duration
	logger  zerolog.Logger

	mu      sync.Mutex
	clients map[string]*openai.Client
}

// NewOpenAIGenerator creates a generator with a per-request timeout.
func NewOpenAIGenerator(timeout time.Duration, logger zerolog.Logger) *OpenAIGenerator {
	return &OpenAIGenerator{
		timeout: timeout,
		logger:  logger.With().Str("component", "inference").Logger(),
		clients: make(map[string]*openai.Client),
	}
}

var _ domain.Generator = (*OpenAIGenerator)(nil)

// clientFor returns a cached client for the provider. Clients are keyed by
// public ID; a provider whose base URL changes gets a fresh catalog entry and
// therefore a fresh client.
func (g *OpenAIGenerator) clientFor(prov *provider.Provider) *openai.Client {
	g.mu.Lock()
	defer g.mu.Unlock()

	if client, ok := g.clients[prov.PublicID]; ok {
		return client
	}

	clientConfig := openai.DefaultConfig(prov.APIKey)
	if prov.BaseURL != "" {
		clientConfig.BaseURL = prov.BaseURL
	}
	client := openai.NewClientWithConfig(clientConfig)
	g.clients[prov.PublicID] = client
	return client
}

// Generate requests one completion. Every failure is returned as a classified
// *domain.Error so the engine can decide between an error turn and a direct
// rejection.
func (g *OpenAIGenerator) Generate(ctx context.Context, prov *provider.Provider, model string, history []domain.Message) (*domain.Result, error) {
	messages := make([]openai.ChatCompletionMessage, len(history))
	for i, msg := range history {
		messages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	reqCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := g.clientFor(prov).CreateChatCompletion(reqCtx, openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
	})
	elapsed := time.Since(start)
	latency := elapsed.Milliseconds()
	metrics.RecordInference(prov.PublicID, model, elapsed)

	if err != nil {
		classified := classify(prov.PublicID, model, err)
		g.logger.Warn().
			Str("provider_id", prov.PublicID).
			Str("model", model).
			Str("failure_kind", string(classified.Kind)).
			Int64("latency_ms", latency).
			Err(err).
			Msg("completion request failed")
		return nil, classified
	}

	if len(resp.Choices) == 0 {
		return nil, &domain.Error{
			Kind:     domain.FailureProviderUnavailable,
			Provider: prov.PublicID,
			Model:    model,
			Err:      errors.New("completion response carried no choices"),
		}
	}

	return &domain.Result{
		Content:   resp.Choices[0].Message.Content,
		TokensIn:  resp.Usage.PromptTokens,
		TokensOut: resp.Usage.CompletionTokens,
		LatencyMs: latency,
	}, nil
}

// classify maps transport and API failures onto the domain failure kinds.
func classify(providerID, model string, err error) *domain.Error {
	kind := domain.FailureProviderUnavailable

	var apiErr *openai.APIError
	switch {
	case errors.As(err, &apiErr):
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			kind = domain.FailureRateLimited
		case apiErr.HTTPStatusCode == http.StatusNotFound,
			apiErr.HTTPStatusCode == http.StatusBadRequest:
			kind = domain.FailureInvalidModel
		case apiErr.HTTPStatusCode == http.StatusRequestTimeout:
			kind = domain.FailureTimeout
		}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		kind = domain.FailureTimeout
	}

	return &domain.Error{
		Kind:     kind,
		Provider: providerID,
		Model:    model,
		Err:      err,
	}
}

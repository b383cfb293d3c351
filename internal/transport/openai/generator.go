package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/kailas-cloud/casedex/internal/domain"
	"github.com/kailas-cloud/casedex/internal/metrics"
)

// Generator is a text generation provider using the chat completions API.
type Generator struct {
	client      *openai.Client
	model       string
	temperature float32
	maxRetries  uint64
	backoff     time.Duration
	logger      *zap.Logger
}

var _ domain.TextGenerator = (*Generator)(nil)

// GeneratorConfig holds the generation provider settings.
type GeneratorConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxAttempts int
	BackoffSec  float64
	Logger      *zap.Logger
}

// NewGenerator creates an OpenAI-compatible text generation provider.
func NewGenerator(cfg *GeneratorConfig) *Generator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	maxRetries := cfg.MaxAttempts - 1
	if maxRetries < 0 {
		maxRetries = 0
	}
	backoff := time.Duration(cfg.BackoffSec * float64(time.Second))
	if backoff <= 0 {
		backoff = time.Second
	}

	return &Generator{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxRetries:  uint64(maxRetries),
		backoff:     backoff,
		logger:      cfg.Logger,
	}
}

// Generate implements domain.TextGenerator. Transient failures are retried
// with exponential backoff up to the configured attempt count.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: g.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	start := time.Now()

	var resp openai.ChatCompletionResponse
	backoff := retry.WithMaxRetries(g.maxRetries, retry.NewExponential(g.backoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var callErr error
		resp, callErr = g.client.CreateChatCompletion(ctx, req)
		if callErr != nil {
			if retryable(callErr) {
				return retry.RetryableError(callErr)
			}
			return callErr
		}
		return nil
	})

	duration := time.Since(start)

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(g.model, "error").Inc()
		return "", parseAPIError("generation", err, domain.ErrGenerationProviderError)
	}

	if len(resp.Choices) == 0 {
		metrics.GenerationRequestsTotal.WithLabelValues(g.model, "error").Inc()
		return "", fmt.Errorf("empty generation response: %w", domain.ErrGenerationProviderError)
	}

	metrics.GenerationRequestsTotal.WithLabelValues(g.model, "success").Inc()
	metrics.GenerationRequestDuration.WithLabelValues(g.model).Observe(duration.Seconds())

	return resp.Choices[0].Message.Content, nil
}

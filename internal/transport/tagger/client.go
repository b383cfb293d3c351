// Package tagger holds the HTTP client for the external lexical tagging
// service. When no service is configured the engine uses the heuristic
// fallback tagger from the domain package instead.
package tagger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/kailas-cloud/casedex/internal/domain"
)

// Client calls a lexical tagger service over HTTP.
type Client struct {
	url        string
	httpClient *http.Client
	maxRetries uint64
	logger     *zap.Logger
}

var _ domain.Tagger = (*Client)(nil)

// Config holds tagger service settings.
type Config struct {
	URL        string
	TimeoutSec int
	MaxRetries int
	Logger     *zap.Logger
}

// NewClient creates a tagger service client.
func NewClient(cfg *Config) *Client {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Client{
		url:        cfg.URL,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: uint64(maxRetries),
		logger:     cfg.Logger,
	}
}

type tagRequest struct {
	Text string `json:"text"`
}

type lexemeRow struct {
	Lemma string `json:"lemma"`
	POS   string `json:"pos"`
}

// Tag implements domain.Tagger. Transient failures (5xx, transport errors)
// are retried with exponential backoff.
func (c *Client) Tag(ctx context.Context, text string) ([]domain.Lexeme, error) {
	body, err := json.Marshal(tagRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("marshal tag request: %w", err)
	}

	var rows []lexemeRow
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(250*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		rows, err = c.tagOnce(ctx, body)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("tag text: %w", err)
	}

	lexemes := make([]domain.Lexeme, len(rows))
	for i, r := range rows {
		lexemes[i] = domain.Lexeme{Lemma: r.Lemma, POS: r.POS}
	}
	return lexemes, nil
}

func (c *Client) tagOnce(ctx context.Context, body []byte) ([]lexemeRow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build tag request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, retry.RetryableError(fmt.Errorf("tagger unreachable: %w: %v",
			domain.ErrTaggerProviderError, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		failure := fmt.Errorf("tagger status %d: %s: %w",
			resp.StatusCode, string(msg), domain.ErrTaggerProviderError)
		if resp.StatusCode >= 500 {
			return nil, retry.RetryableError(failure)
		}
		return nil, failure
	}

	var rows []lexemeRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode tagger response: %w: %v",
			domain.ErrTaggerProviderError, err)
	}
	return rows, nil
}

// Package gemini calls the Gemini generateContent endpoint for text generation.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"studio/internal/domain"
	"studio/internal/infra"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-2.5-flash-preview-05-20"
	defaultTimeout = 60 * time.Second
	errorBodyLimit = 512
)

// ErrNoContent is returned when the response carries no text, usually because it was blocked.
var ErrNoContent = errors.New("AI returned no text content or response was blocked.")

type Options struct {
	APIKey            string
	Model             string
	BaseURL           string
	HTTPClient        *http.Client
	RequestsPerSecond float64
	Logger            *infra.Logger
}

// Client implements domain.Generator.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	logger  *infra.Logger
}

type generateRequest struct {
	Contents          []content `json:"contents"`
	SystemInstruction *content  `json:"systemInstruction,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	limit := rate.Inf
	burst := 1
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
		burst = max(1, int(opts.RequestsPerSecond))
	}
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Client{
		apiKey:  strings.TrimSpace(opts.APIKey),
		model:   model,
		baseURL: baseURL,
		client:  client,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Generate sends prompt with instruction as the system instruction and returns the first text part.
// Every failure wraps domain.ErrServiceFailure.
func (c *Client) Generate(ctx context.Context, prompt, instruction string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("%w: gemini api key is not configured", domain.ErrServiceFailure)
	}
	payload := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	}
	if strings.TrimSpace(instruction) != "" {
		payload.SystemInstruction = &content{Parts: []part{{Text: instruction}}}
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", fmt.Errorf("%w: encode request: %w", domain.ErrServiceFailure, err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limiter: %w", domain.ErrServiceFailure, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), &buf)
	if err != nil {
		return "", fmt.Errorf("%w: build request: %w", domain.ErrServiceFailure, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrServiceFailure, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	c.logger.Debug().Str("model", c.model).Int("status", resp.StatusCode).Dur("latency", time.Since(start)).Msg("gemini generate")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return "", fmt.Errorf("%w: API call failed with status %d: %s", domain.ErrServiceFailure, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", domain.ErrServiceFailure, err)
	}
	text := extractText(out)
	if strings.TrimSpace(text) == "" {
		if out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
			c.logger.Warn().Str("block_reason", out.PromptFeedback.BlockReason).Msg("gemini blocked prompt")
		}
		return "", fmt.Errorf("%w: %w", domain.ErrServiceFailure, ErrNoContent)
	}
	return text, nil
}

func (c *Client) endpoint() string {
	model := url.PathEscape(c.model)
	return fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, model, url.QueryEscape(c.apiKey))
}

func extractText(resp generateResponse) string {
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return ""
	}
	return resp.Candidates[0].Content.Parts[0].Text
}

var _ domain.Generator = (*Client)(nil)

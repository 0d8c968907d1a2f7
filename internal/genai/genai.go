// Package genai provides GenAI content generation using the OpenAI API.
//
// It wraps the Responses API with JSON-schema constrained outputs so callers
// receive well-formed structures for survey questions and review candidates.
package genai

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

// Default generation parameters, overridable via options or environment.
const (
	// DefaultModel is the model used when none is configured.
	DefaultModel = "gpt-4o-mini"
	// DefaultTemperature is the sampling temperature used when none is configured.
	DefaultTemperature = 0.7
	// DefaultMaxOutputTokens bounds a single generation.
	DefaultMaxOutputTokens = 2500
)

// Opts holds configuration options for the GenAI client.
type Opts struct {
	// APIKey is the OpenAI API key. Falls back to OPENAI_API_KEY.
	APIKey string
	// Model overrides the default model. Falls back to OPENAI_MODEL.
	Model string
	// Temperature overrides the default sampling temperature.
	Temperature float64
}

// Option configures GenAI client construction.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key.
func WithAPIKey(key string) Option {
	return func(o *Opts) {
		o.APIKey = key
	}
}

// WithModel sets the model identifier.
func WithModel(model string) Option {
	return func(o *Opts) {
		o.Model = model
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(o *Opts) {
		o.Temperature = t
	}
}

// StructuredRequest describes one schema-constrained generation.
type StructuredRequest struct {
	SystemPrompt      string
	UserPrompt        string
	SchemaName        string
	SchemaDescription string
	Schema            map[string]interface{}
}

// ClientInterface defines the generation operations consumed by the content
// service. Implementations must be safe for concurrent use.
type ClientInterface interface {
	// GenerateText produces a plain-text completion.
	GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	// GenerateStructured produces output conforming to the request's JSON
	// schema and returns the raw JSON text.
	GenerateStructured(ctx context.Context, req StructuredRequest) (string, error)
}

// Client wraps the OpenAI Responses service.
type Client struct {
	client      openai.Client
	model       string
	temperature float64
}

// NewClient initializes a new GenAI client. The API key is taken from options
// or the OPENAI_API_KEY environment variable; the model from options or
// OPENAI_MODEL.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}

	model := cfg.Model
	if model == "" {
		model = os.Getenv("OPENAI_MODEL")
	}
	if model == "" {
		model = DefaultModel
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = DefaultTemperature
	}

	slog.Debug("genai.NewClient: created client", "model", model, "temperature", temperature)
	return &Client{
		client:      openai.NewClient(option.WithAPIKey(apiKey)),
		model:       model,
		temperature: temperature,
	}, nil
}

// GenerateText produces a plain-text completion from system and user prompts.
func (c *Client) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	params := responses.ResponseNewParams{
		Model:           c.model,
		MaxOutputTokens: openai.Int(DefaultMaxOutputTokens),
		Temperature:     openai.Float(c.temperature),
		Instructions:    openai.String(systemPrompt),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(userPrompt, responses.EasyInputMessageRoleUser),
			},
		},
	}

	resp, err := c.callWithRetry(ctx, params)
	if err != nil {
		slog.Error("Client.GenerateText: generation failed", "error", err, "model", c.model)
		return "", fmt.Errorf("text generation failed: %w", err)
	}

	out := strings.TrimSpace(resp.OutputText())
	if out == "" {
		return "", fmt.Errorf("empty completion from model %s", c.model)
	}
	slog.Debug("Client.GenerateText: generation succeeded", "model", c.model, "output_len", len(out))
	return out, nil
}

// GenerateStructured produces JSON conforming to the request's schema.
func (c *Client) GenerateStructured(ctx context.Context, req StructuredRequest) (string, error) {
	format := responses.ResponseFormatTextConfigUnionParam{
		OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
			Name:        req.SchemaName,
			Schema:      req.Schema,
			Strict:      openai.Bool(true),
			Description: openai.String(req.SchemaDescription),
			Type:        "json_schema",
		},
	}

	params := responses.ResponseNewParams{
		Model:           c.model,
		MaxOutputTokens: openai.Int(DefaultMaxOutputTokens),
		Temperature:     openai.Float(c.temperature),
		Instructions:    openai.String(req.SystemPrompt),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(req.UserPrompt, responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: format,
		},
	}

	resp, err := c.callWithRetry(ctx, params)
	if err != nil {
		slog.Error("Client.GenerateStructured: generation failed", "error", err, "model", c.model, "schema", req.SchemaName)
		return "", fmt.Errorf("structured generation %s failed: %w", req.SchemaName, err)
	}

	out := strings.TrimSpace(resp.OutputText())
	if out == "" {
		return "", fmt.Errorf("empty structured output for schema %s", req.SchemaName)
	}
	slog.Debug("Client.GenerateStructured: generation succeeded", "model", c.model, "schema", req.SchemaName, "output_len", len(out))
	return out, nil
}

// Retry configuration for transient API failures.
const maxAttempts = 3

var (
	rateLimitWaits   = []time.Duration{2 * time.Second, 5 * time.Second, 10 * time.Second}
	serverErrorWaits = []time.Duration{1 * time.Second, 3 * time.Second, 6 * time.Second}
)

// callWithRetry retries rate-limit and server errors with backoff. Context
// cancellation aborts the wait.
func (c *Client) callWithRetry(ctx context.Context, params responses.ResponseNewParams) (*responses.Response, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		resp, err := c.client.Responses.New(ctx, params)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		var wait time.Duration
		switch {
		case isRateLimitError(err):
			wait = rateLimitWaits[attempt]
		case isServerError(err):
			wait = serverErrorWaits[attempt]
		default:
			return nil, err
		}
		if attempt == maxAttempts-1 {
			break
		}

		slog.Warn("Client.callWithRetry: transient API error, backing off", "error", err, "attempt", attempt+1, "wait", wait)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("failed after %d attempts due to OpenAI API issues: %w", maxAttempts, lastErr)
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests")
}

func isServerError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "server_error")
}

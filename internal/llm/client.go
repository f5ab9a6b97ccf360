package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/dgallion1/newslens/internal/metrics"
)

// ClientConfig configures a Client.
type ClientConfig struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	Timeout      time.Duration
	MaxRetries   int

	// RetryInitialInterval is the first backoff delay. Defaults to 1s.
	RetryInitialInterval time.Duration
}

// Client calls an OpenAI-compatible chat completions endpoint.
type Client struct {
	api          openai.Client
	model        string
	maxRetries   int
	retryInitial time.Duration
	log          *slog.Logger
	metrics      *metrics.Metrics

	Stats *Stats
}

func NewClient(cfg ClientConfig, log *slog.Logger, m *metrics.Metrics) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// Retries are driven by Complete so each attempt is recorded.
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		opts = append(opts, option.WithBaseURL(base))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	initial := cfg.RetryInitialInterval
	if initial <= 0 {
		initial = time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	if log == nil {
		log = slog.Default()
	}

	return &Client{
		api:          openai.NewClient(opts...),
		model:        cfg.DefaultModel,
		maxRetries:   maxRetries,
		retryInitial: initial,
		log:          log.With("component", "llm"),
		metrics:      m,
		Stats:        NewStats(time.Hour),
	}
}

// Model returns the default model id.
func (c *Client) Model() string {
	return c.model
}

// Complete sends req and returns the trimmed content of the first choice.
// Retryable failures are retried with exponential backoff.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	params := buildParams(req, model)

	var content string
	attempt := 0
	op := func() error {
		attempt++
		start := time.Now()
		resp, err := c.api.Chat.Completions.New(ctx, params)
		elapsed := time.Since(start)

		if err != nil {
			c.Stats.Record(elapsed, true)
			c.metrics.LLMRequest(model, "error", elapsed)
			err = classify(err)
			if !IsRetryable(err) {
				return backoff.Permanent(err)
			}
			c.log.Warn("completion failed, retrying",
				"model", model,
				"attempt", attempt,
				"error", err,
			)
			return err
		}

		c.Stats.Record(elapsed, false)
		c.metrics.LLMRequest(model, "ok", elapsed)
		c.log.Debug("completion done",
			"model", model,
			"attempt", attempt,
			"duration_ms", elapsed.Milliseconds(),
		)
		if len(resp.Choices) == 0 {
			return backoff.Permanent(errors.New("empty response from completion service"))
		}
		content = strings.TrimSpace(resp.Choices[0].Message.Content)
		return nil
	}

	if err := backoff.Retry(op, newBackOff(ctx, c.retryInitial, c.maxRetries)); err != nil {
		return "", fmt.Errorf("completion (%s): %w", model, err)
	}
	return content, nil
}

func buildParams(req Request, model string) openai.ChatCompletionNewParams {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.User))

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(model),
		Messages:    messages,
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Schema != nil {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        req.Schema.Name,
					Description: openai.String(req.Schema.Description),
					Schema:      req.Schema.Definition,
					Strict:      openai.Bool(true),
				},
			},
		}
	}
	return params
}

// ListModels returns the ids of every model the endpoint reports.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	iter := c.api.Models.ListAutoPaging(ctx)
	var ids []string
	for iter.Next() {
		ids = append(ids, iter.Current().ID)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	return ids, nil
}

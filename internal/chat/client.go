// AngelaMos | 2026
// client.go

package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kidsask/api/internal/config"
	"github.com/kidsask/api/internal/core"
	"github.com/kidsask/api/internal/metrics"
)

type GenerateRequest struct {
	Message string        `json:"message"`
	Topic   string        `json:"topic"`
	History []HistoryItem `json:"history"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// AIClient calls the answer generation service. Requests are bounded by
// the configured timeout and never retried.
type AIClient struct {
	client *resty.Client
}

func NewAIClient(cfg config.AIConfig) *AIClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.URL, "/")).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json")

	return &AIClient{client: client}
}

func (c *AIClient) Generate(ctx context.Context, req GenerateRequest) (answer string, err error) {
	ctx, span := core.StartSpan(ctx, "ai.generate", attribute.String("topic", req.Topic))
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.ObserveAI(start, err)
		if err != nil {
			core.SetSpanError(ctx, err)
		}
	}()

	if req.History == nil {
		req.History = []HistoryItem{}
	}

	var out generateResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/generate")
	if err != nil {
		return "", fmt.Errorf("generate: %w: %w", ErrUpstreamUnavailable, err)
	}

	if resp.IsError() {
		return "", fmt.Errorf("generate: %w: status %d", ErrUpstreamUnavailable, resp.StatusCode())
	}

	if strings.TrimSpace(out.Response) == "" {
		return "", fmt.Errorf("generate: %w: empty response", ErrUpstreamUnavailable)
	}

	return out.Response, nil
}

// Ping checks that the answer service is reachable.
func (c *AIClient) Ping(ctx context.Context) error {
	resp, err := c.client.R().SetContext(ctx).Get("/health")
	if err != nil {
		return fmt.Errorf("ping: %w: %w", ErrUpstreamUnavailable, err)
	}
	if resp.IsError() {
		return fmt.Errorf("ping: %w: status %d", ErrUpstreamUnavailable, resp.StatusCode())
	}
	return nil
}

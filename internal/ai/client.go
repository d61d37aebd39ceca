package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/suPer8Hu/ai-assistant/internal/logx"
	"github.com/suPer8Hu/ai-assistant/internal/retry"
)

// DegradedReply is returned to the user when every inference attempt failed.
const DegradedReply = "⚠️ I'm having trouble connecting to the AI model right now. Please try again in a moment."

// ErrUnavailable wraps the last transport error once the retry budget is spent.
var ErrUnavailable = errors.New("inference service unavailable")

// Client calls the configured provider under a retry policy.
type Client struct {
	registry *Registry
	provider string
	policy   retry.Policy
	log      *slog.Logger
}

func NewClient(registry *Registry, provider string, policy retry.Policy) *Client {
	return &Client{
		registry: registry,
		provider: provider,
		policy:   policy,
		log:      logx.Module("ai"),
	}
}

// Generate never fails: after the last failed attempt it returns DegradedReply.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) string {
	out, err := c.GenerateErr(ctx, req)
	if err != nil {
		return DegradedReply
	}
	return out
}

// GenerateErr is Generate with the failure exposed. The returned text is trimmed.
func (c *Client) GenerateErr(ctx context.Context, req GenerateRequest) (string, error) {
	p, err := c.registry.Get(ctx, c.provider, req.Model)
	if err != nil {
		c.log.Error("inference provider unavailable", "provider", c.provider, "model", req.Model, "err", err)
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	var out string
	attempts, err := c.policy.Do(ctx, func(ctx context.Context) error {
		text, err := p.Generate(ctx, req)
		if err != nil {
			return err
		}
		out = text
		return nil
	}, func(attempt int, err error) {
		c.log.Warn("inference attempt failed",
			"provider", c.provider, "model", req.Model,
			"attempt", attempt, "max_attempts", c.policy.MaxAttempts, "err", err)
	})
	if err != nil {
		return "", fmt.Errorf("%w after %d attempts: %w", ErrUnavailable, attempts, err)
	}
	return strings.TrimSpace(out), nil
}

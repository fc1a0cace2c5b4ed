// Package ai sends narrative requests to a hosted language model and parses
// the structured segment it returns. Each call is a single attempt.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"weaver/internal/config"
	"weaver/internal/narrative"
)

var ErrNotConfigured = errors.New("ai provider is not configured")

// Transport generates the next segment for a request.
type Transport interface {
	Generate(ctx context.Context, req narrative.Request) (*narrative.Response, error)
}

// Completer is a provider that turns a system and user prompt into raw text.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
	Name() string
}

// Client adapts a Completer into a Transport.
type Client struct {
	completer Completer
	timeout   time.Duration
	logger    *zap.Logger
}

func NewClient(completer Completer, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{completer: completer, timeout: timeout, logger: logger}
}

// New builds the transport selected by cfg.
func New(ctx context.Context, cfg config.AIConfig, logger *zap.Logger) (*Client, error) {
	var (
		completer Completer
		err       error
	)
	switch cfg.Provider {
	case config.ProviderGemini:
		completer, err = NewGemini(ctx, cfg)
	case config.ProviderOpenAI:
		completer, err = NewOpenAI(cfg)
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return NewClient(completer, cfg.Timeout, logger), nil
}

func (c *Client) Generate(ctx context.Context, req narrative.Request) (*narrative.Response, error) {
	if c == nil || c.completer == nil {
		return nil, ErrNotConfigured
	}
	if _, ok := ctx.Deadline(); !ok && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	user, err := req.UserPrompt()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	raw, err := c.completer.Complete(ctx, req.SystemPrompt(), user)
	if err != nil {
		c.logger.Warn("generation request failed",
			zap.String("provider", c.completer.Name()),
			zap.String("kind", string(req.Kind)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, fmt.Errorf("%s: %w", c.completer.Name(), err)
	}

	resp, err := narrative.ParseResponse(raw)
	if err != nil {
		c.logger.Warn("generation response rejected",
			zap.String("provider", c.completer.Name()),
			zap.Int("raw_len", len(raw)),
			zap.Error(err))
		return nil, err
	}

	c.logger.Debug("segment generated",
		zap.String("provider", c.completer.Name()),
		zap.String("kind", string(req.Kind)),
		zap.Int("text_len", len(resp.Text)),
		zap.Int("choices", len(resp.Choices)),
		zap.Duration("elapsed", time.Since(start)))
	return resp, nil
}

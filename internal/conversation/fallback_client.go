package conversation

import (
	"context"

	"github.com/assistaura/leadchat/pkg/logging"
)

// FallbackLLMClient tries a primary provider and, on error, a secondary one.
type FallbackLLMClient struct {
	primary  LLMClient
	fallback LLMClient
	logger   *logging.Logger
}

// NewFallbackLLMClient chains two providers. A nil fallback makes it a
// pass-through to primary.
func NewFallbackLLMClient(primary, fallback LLMClient, logger *logging.Logger) *FallbackLLMClient {
	if primary == nil {
		panic("conversation: primary llm client required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &FallbackLLMClient{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// Complete returns the primary's answer, or the fallback's when the primary
// fails while ctx is still live. When both fail the fallback's error wins.
func (c *FallbackLLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	resp, primaryErr := c.primary.Complete(ctx, req)
	switch {
	case primaryErr == nil:
		return resp, nil
	case c.fallback == nil, ctx.Err() != nil:
		return LLMResponse{}, primaryErr
	}

	c.logger.Warn("llm provider failed, trying fallback", "error", primaryErr)
	resp, err := c.fallback.Complete(ctx, req)
	if err != nil {
		c.logger.Error("llm fallback failed", "primary_error", primaryErr, "error", err)
		return LLMResponse{}, err
	}
	c.logger.Info("llm fallback answered", "provider", resp.Provider)
	return resp, nil
}

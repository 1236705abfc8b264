package conversation

import (
	"context"
	"strings"
)

// Roles accepted in ChatMessage.Role.
const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// LLMClient is the text generation service seen by the gateway.
type LLMClient interface {
	Complete(ctx context.Context, req LLMRequest) (LLMResponse, error)
}

// LLMRequest is one non-streaming completion. Temperature < 0 leaves the
// provider default in place; MaxTokens <= 0 does the same for the output cap.
type LLMRequest struct {
	Model       string
	System      []string
	Messages    []ChatMessage
	MaxTokens   int32
	Temperature float32
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LLMResponse carries the completion text and the backend that produced it.
type LLMResponse struct {
	Text       string
	Provider   string
	StopReason string
	Usage      TokenUsage
}

type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

// split trims the request, folds system-role messages into the system blocks
// and drops anything blank.
func (r LLMRequest) split() (system []string, messages []ChatMessage) {
	for _, block := range r.System {
		if block = strings.TrimSpace(block); block != "" {
			system = append(system, block)
		}
	}
	for _, msg := range r.Messages {
		msg.Content = strings.TrimSpace(msg.Content)
		switch {
		case msg.Content == "":
		case msg.Role == ChatRoleSystem:
			system = append(system, msg.Content)
		default:
			messages = append(messages, msg)
		}
	}
	return system, messages
}

package conversation

import (
	"context"
	"errors"
)

const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// Stop reasons normalized across providers.
const (
	StopReasonStop      = "stop"
	StopReasonMaxTokens = "max_tokens"
	StopReasonSafety    = "safety"
	StopReasonOther     = "other"
)

// ErrEmptyCompletion is returned when a provider answers without any text.
var ErrEmptyCompletion = errors.New("conversation: empty completion")

// ChatMessage is an internal message representation that can include system prompts.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

// LLMRequest is a provider-neutral generation request. DisableSafetyFilters
// turns off the provider's content blocking for the harassment, hate speech,
// sexually explicit and dangerous content categories.
type LLMRequest struct {
	Model                string
	System               []string
	Messages             []ChatMessage
	MaxTokens            int32
	Temperature          float32
	TopP                 float32
	DisableSafetyFilters bool
}

type LLMResponse struct {
	Text       string
	Usage      TokenUsage
	StopReason string
}

type LLMClient interface {
	Complete(ctx context.Context, req LLMRequest) (LLMResponse, error)
}

// Package llm defines the completion provider interface and related types.
// Providers are interchangeable behind this interface.
package llm

import (
	"context"

	perrors "github.com/p-blackswan/taskflow/internal/errors"
)

// Role constants for Message.Role.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// StopReason describes why the model stopped generating.
const (
	StopReasonEndTurn   = "end_turn"
	StopReasonMaxTokens = "max_tokens"
)

// Message is a single turn in the conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the input to a provider's Complete() call.
type CompletionRequest struct {
	Messages     []Message
	SystemPrompt string
	// Schema, when set, asks the provider for a single JSON value matching it.
	Schema *Schema
	// SchemaName labels the structured output where the provider needs one.
	SchemaName string
	MaxTokens  int
	Model      string // override provider default if set
}

// CompletionResponse is returned by Complete().
type CompletionResponse struct {
	// Text is the reply. With a schema it is the raw JSON document.
	Text         string
	StopReason   string
	InputTokens  int
	OutputTokens int
}

// Provider is the core abstraction for completion backends.
type Provider interface {
	// Complete sends a completion request and waits for the full response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// ModelID returns the current model identifier string.
	ModelID() string

	// Name identifies the backend ("gemini", "anthropic").
	Name() string
}

// UserPrompt builds a single-turn request.
func UserPrompt(system, prompt string, schema *Schema) CompletionRequest {
	return CompletionRequest{
		SystemPrompt: system,
		Messages:     []Message{{Role: RoleUser, Content: prompt}},
		Schema:       schema,
	}
}

// Unconfigured is the provider used when no credential is available. Every
// call fails with ErrNotConfigured without touching the network.
type Unconfigured struct {
	Backend string
}

func (u Unconfigured) Complete(context.Context, CompletionRequest) (*CompletionResponse, error) {
	return nil, perrors.ErrNotConfigured
}

func (u Unconfigured) ModelID() string { return "" }
func (u Unconfigured) Name() string    { return u.Backend }

// Configured reports whether p can reach a backend.
func Configured(p Provider) bool {
	if p == nil {
		return false
	}
	switch p.(type) {
	case Unconfigured, *Unconfigured:
		return false
	}
	return true
}

// Package narrative provides LLM-powered episode generation. It defines a
// provider-agnostic LLM interface with an OpenAI implementation and a
// deterministic mock for testing, a Generator that validates structured model
// output against locally declared schemas, the episode prompt composer, and the
// previous-episode summarizer.
package narrative

import (
	"context"
	"errors"
	"time"
)

var (
	ErrLLMFailed     = errors.New("LLM request failed")
	ErrInvalidConfig = errors.New("invalid LLM configuration")
)

// Role tags a message in a conversation with the model.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged entry of a prompt.
type Message struct {
	Role    Role
	Content string
}

// SystemMessage builds a system-role message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage builds a user-role message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Request is a single structured-output call.
type Request struct {
	Messages []Message

	// Schema describes the JSON document the model must return.
	Schema *Schema
}

// LLM defines the interface for interacting with language models.
// Implementations must be stateless and thread-safe.
type LLM interface {
	// Generate sends the messages to the model and returns its raw output,
	// which is expected to be a JSON document conforming to req.Schema.
	Generate(ctx context.Context, req Request) (string, error)
}

// LLMConfig holds common configuration options for LLM providers.
type LLMConfig struct {
	// Model specifies the model identifier (e.g., "gpt-4o", "gpt-4o-mini")
	Model string

	// Temperature controls randomness (0.0 = provider default)
	Temperature float32

	// MaxTokens limits the response length (0 = use provider default)
	MaxTokens int

	// APIKey is the authentication key for the provider
	APIKey string

	// RequestTimeout bounds a single model call (0 = no timeout)
	RequestTimeout time.Duration
}

// DefaultLLMConfig returns sensible defaults for episode generation.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Model:       "gpt-4o",
		Temperature: 0, // model default
		MaxTokens:   4000,
	}
}

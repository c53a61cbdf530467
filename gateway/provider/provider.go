// Package provider holds the upstream LLM provider registry, the unified
// request/response shapes, and one adapter per provider family. Everything
// above this package (orchestrator, handlers) works only with these types and
// never sees a provider's wire format.
package provider

import "context"

// Family selects which adapter speaks to a provider.
type Family string

const (
	// FamilyHosted covers OpenAI-compatible chat-completions REST APIs
	// (OpenAI, Groq, DeepSeek share the same request/response shape).
	FamilyHosted Family = "hosted"
	// FamilyLocal covers a locally running Ollama backend.
	FamilyLocal Family = "local"
)

// Descriptor identifies one upstream provider. Descriptors are compiled-in
// constants, never mutated at runtime; adding a provider is a code change.
type Descriptor struct {
	ID          string
	Name        string
	BaseURL     string
	Family      Family
	KeyRequired bool
	KeyEnvVar   string
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat turn in the provider-agnostic conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the normalized chat request handed to an adapter. Messages is
// always [system, ...history, user].
type Request struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// Usage carries token counts when the upstream reports them.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Result is a successful completion from one provider.
type Result struct {
	Content string
	Usage   *Usage
}

// Completer is implemented once per provider family. A failed call returns a
// *Error so callers can decide whether a fallback attempt is worthwhile.
type Completer interface {
	Complete(ctx context.Context, desc Descriptor, req Request) (*Result, error)
}

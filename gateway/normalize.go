package gateway

import (
	"errors"
	"fmt"
	"strings"

	"github.com/complyloop/ai-director-gateway/gateway/provider"
)

const (
	maxMessageLength   = 10000
	maxHistoryTurns    = 10
	defaultMaxTokens   = 1024
	defaultTemperature = 0.7
)

// chatRequestBody is the inbound POST /chat payload.
type chatRequestBody struct {
	Provider    string        `json:"provider"`
	Model       string        `json:"model"`
	Message     string        `json:"message"`
	History     []historyTurn `json:"history"`
	ContextType string        `json:"context_type"`
}

type historyTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// normalize validates the inbound payload and builds the provider-agnostic
// message list: [system prompt, last 10 history turns, new user message].
// Violations fail here, before any network call.
func (g *Gateway) normalize(body chatRequestBody) (provider.Descriptor, provider.Request, error) {
	if strings.TrimSpace(body.Message) == "" {
		return provider.Descriptor{}, provider.Request{}, &InvalidRequestError{Reason: "message must not be empty"}
	}
	if len(body.Message) > maxMessageLength {
		return provider.Descriptor{}, provider.Request{},
			&InvalidRequestError{Reason: fmt.Sprintf("message exceeds %d characters", maxMessageLength)}
	}
	if strings.TrimSpace(body.Model) == "" {
		return provider.Descriptor{}, provider.Request{}, &InvalidRequestError{Reason: "model must not be empty"}
	}

	desc, err := g.registry.Lookup(body.Provider)
	if err != nil {
		if errors.Is(err, provider.ErrUnknownProvider) {
			return provider.Descriptor{}, provider.Request{},
				&InvalidRequestError{Reason: fmt.Sprintf("unknown provider %q", body.Provider)}
		}
		return provider.Descriptor{}, provider.Request{}, err
	}

	history := body.History
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}

	messages := make([]provider.Message, 0, len(history)+2)
	messages = append(messages, provider.Message{
		Role:    provider.RoleSystem,
		Content: systemPromptFor(body.ContextType),
	})
	for _, turn := range history {
		if strings.TrimSpace(turn.Content) == "" {
			continue
		}
		if turn.Role != provider.RoleUser && turn.Role != provider.RoleAssistant {
			continue
		}
		messages = append(messages, provider.Message{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, provider.Message{Role: provider.RoleUser, Content: body.Message})

	return desc, provider.Request{
		Model:       body.Model,
		Messages:    messages,
		MaxTokens:   defaultMaxTokens,
		Temperature: defaultTemperature,
	}, nil
}

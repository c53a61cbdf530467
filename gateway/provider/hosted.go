package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const defaultHostedTimeout = 60 * time.Second

// hostedRequest is the shared chat-completions request shape. OpenAI, Groq and
// DeepSeek all accept it unchanged.
type hostedRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

// HostedClient talks to OpenAI-compatible chat-completions endpoints.
type HostedClient struct {
	httpClient *http.Client
	// per-provider JSON overrides applied to the serialized request body,
	// e.g. {"groq": {"temperature": 0.2}}
	overrides map[string]map[string]any
}

type HostedOption func(*HostedClient)

// WithHostedTimeout overrides the request timeout (tests use short values).
func WithHostedTimeout(d time.Duration) HostedOption {
	return func(c *HostedClient) {
		c.httpClient.Timeout = d
	}
}

// WithRequestOverrides sets config-driven body overrides per provider id.
func WithRequestOverrides(overrides map[string]map[string]any) HostedOption {
	return func(c *HostedClient) {
		c.overrides = overrides
	}
}

func NewHostedClient(opts ...HostedOption) *HostedClient {
	c := &HostedClient{
		httpClient: &http.Client{Timeout: defaultHostedTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete performs one chat-completions call against desc.BaseURL.
func (c *HostedClient) Complete(ctx context.Context, desc Descriptor, req Request) (*Result, error) {
	body, err := json.Marshal(hostedRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("hosted: marshal request: %w", err)
	}

	for key, value := range c.overrides[desc.ID] {
		body, err = sjson.SetBytes(body, key, value)
		if err != nil {
			return nil, fmt.Errorf("hosted: apply override %q: %w", key, err)
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, desc.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("hosted: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if key := os.Getenv(desc.KeyEnvVar); key != "" {
		httpReq.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, transportError(desc.ID, err, KindUpstreamOther)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, Classify(desc.ID, resp.StatusCode, string(raw))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &Error{Provider: desc.ID, Kind: KindUpstreamOther, Detail: "read response body: " + err.Error()}
	}

	content := gjson.GetBytes(raw, "choices.0.message.content")
	if !content.Exists() {
		return nil, &Error{Provider: desc.ID, Kind: KindUpstreamOther, Detail: "no choices in response"}
	}

	result := &Result{Content: content.String()}
	if usage := gjson.GetBytes(raw, "usage"); usage.IsObject() {
		result.Usage = &Usage{
			PromptTokens:     int(usage.Get("prompt_tokens").Int()),
			CompletionTokens: int(usage.Get("completion_tokens").Int()),
			TotalTokens:      int(usage.Get("total_tokens").Int()),
		}
	}
	return result, nil
}

// transportError classifies a client-side failure: deadline overruns become
// Timeout, anything else gets the family's fallback kind.
func transportError(providerID string, err error, otherKind Kind) *Error {
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return &Error{Provider: providerID, Kind: KindTimeout, Detail: err.Error()}
	}
	return &Error{Provider: providerID, Kind: otherKind, Detail: err.Error()}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	defaultProbeTimeout = 3 * time.Second
	defaultLocalTimeout = 120 * time.Second
)

type ollamaChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

// OllamaClient talks to a locally running Ollama backend. Because the backend
// may simply not be running, every completion is preceded by a short liveness
// probe so a dead backend fails in seconds instead of burning the full chat
// timeout.
type OllamaClient struct {
	probeClient *http.Client
	chatClient  *http.Client
}

type OllamaOption func(*OllamaClient)

func WithProbeTimeout(d time.Duration) OllamaOption {
	return func(c *OllamaClient) {
		c.probeClient.Timeout = d
	}
}

func WithChatTimeout(d time.Duration) OllamaOption {
	return func(c *OllamaClient) {
		c.chatClient.Timeout = d
	}
}

func NewOllamaClient(opts ...OllamaOption) *OllamaClient {
	c := &OllamaClient{
		probeClient: &http.Client{Timeout: defaultProbeTimeout},
		chatClient:  &http.Client{Timeout: defaultLocalTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Probe checks backend liveness via GET /api/tags. The health reporter calls
// this directly; Complete calls it before every chat request.
func (c *OllamaClient) Probe(ctx context.Context, desc Descriptor) error {
	url := strings.TrimSuffix(desc.BaseURL, "/") + "/api/tags"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &Error{Provider: desc.ID, Kind: KindBackendUnreachable, Detail: err.Error()}
	}
	resp, err := c.probeClient.Do(req)
	if err != nil {
		return &Error{Provider: desc.ID, Kind: KindBackendUnreachable, Detail: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{
			Provider: desc.ID,
			Kind:     KindBackendUnreachable,
			Status:   resp.StatusCode,
			Detail:   fmt.Sprintf("tags endpoint status %d", resp.StatusCode),
		}
	}
	return nil
}

// Complete probes the backend, then performs one POST /api/chat call.
func (c *OllamaClient) Complete(ctx context.Context, desc Descriptor, req Request) (*Result, error) {
	if err := c.Probe(ctx, desc); err != nil {
		return nil, err
	}

	body, err := json.Marshal(ollamaChatRequest{
		Model:    req.Model,
		Messages: req.Messages,
		Stream:   false,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama: marshal request: %w", err)
	}

	url := strings.TrimSuffix(desc.BaseURL, "/") + "/api/chat"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ollama: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.chatClient.Do(httpReq)
	if err != nil {
		return nil, transportError(desc.ID, err, KindBackendUnreachable)
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

	content := gjson.GetBytes(raw, "message.content")
	if !content.Exists() {
		return nil, &Error{Provider: desc.ID, Kind: KindUpstreamOther, Detail: "no message in response"}
	}
	return &Result{Content: content.String()}, nil
}

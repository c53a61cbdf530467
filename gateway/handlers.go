package gateway

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/complyloop/ai-director-gateway/gateway/provider"
)

type chatResponseBody struct {
	Content          string          `json:"content"`
	Provider         string          `json:"provider"`
	Model            string          `json:"model"`
	ProcessingTimeMs int64           `json:"processing_time_ms"`
	Usage            *provider.Usage `json:"usage,omitempty"`
	UsedFallback     bool            `json:"used_fallback,omitempty"`
}

// handleChat is POST /chat: rate limit, normalize, dispatch with fallback.
func (g *Gateway) handleChat(c *gin.Context) {
	requestID := c.GetString("request_id")
	pol := g.policy.Load()

	identity := clientIdentity(c)
	if !pol.limiter.Allow(identity) {
		g.sendChatError(c, requestID, ErrRateLimited)
		return
	}

	var body chatRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse request body: " + err.Error()})
		return
	}

	desc, req, err := g.normalize(body)
	if err != nil {
		g.sendChatError(c, requestID, err)
		return
	}

	outcome, err := g.orchestrator.Execute(c.Request.Context(), desc, req, pol.fallbackProvider, pol.fallbackModel)
	if err != nil {
		g.sendChatError(c, requestID, err)
		return
	}

	g.logger.WithFields(log.Fields{
		"request_id":    requestID,
		"provider":      outcome.Provider,
		"model":         outcome.Model,
		"used_fallback": outcome.UsedFallback,
		"latency_ms":    outcome.ElapsedMs,
		"event":         "chat_complete",
	}).Info("Chat request served")

	c.JSON(http.StatusOK, chatResponseBody{
		Content:          outcome.Content,
		Provider:         outcome.Provider,
		Model:            outcome.Model,
		ProcessingTimeMs: outcome.ElapsedMs,
		Usage:            outcome.Usage,
		UsedFallback:     outcome.UsedFallback,
	})
}

type providerHealth struct {
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

// handleHealth is GET /chat: aggregate availability across all providers.
// Credential-based families report configuration presence only; the local
// family gets a live probe. No side effects on rate limits or fallback state.
func (g *Gateway) handleHealth(c *gin.Context) {
	providers := make(map[string]providerHealth)
	for _, desc := range g.registry.All() {
		switch desc.Family {
		case provider.FamilyLocal:
			if err := g.ollama.Probe(c.Request.Context(), desc); err != nil {
				providers[desc.ID] = providerHealth{Available: false, Error: err.Error()}
			} else {
				providers[desc.ID] = providerHealth{Available: true}
			}
		default:
			if provider.CredentialPresent(desc) {
				providers[desc.ID] = providerHealth{Available: true}
			} else {
				providers[desc.ID] = providerHealth{Available: false, Error: "missing " + desc.KeyEnvVar}
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"providers": providers,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// sendChatError maps the error taxonomy onto the HTTP contract. Every failure
// path gets a specific status and a human-readable message.
func (g *Gateway) sendChatError(c *gin.Context, requestID string, err error) {
	status := http.StatusInternalServerError
	message := "The AI Director could not process the request. Please try again."

	var invalidErr *InvalidRequestError
	var notConfiguredErr *NotConfiguredError
	var providerErr *provider.Error
	switch {
	case errors.Is(err, ErrRateLimited):
		status = http.StatusTooManyRequests
		message = "Rate limit exceeded. Please wait a moment before trying again."
	case errors.As(err, &invalidErr):
		status = http.StatusBadRequest
		message = invalidErr.Reason
	case errors.As(err, &notConfiguredErr):
		status = http.StatusServiceUnavailable
		message = "Provider " + notConfiguredErr.Provider + " is not configured. Set its API key to enable it."
	case errors.As(err, &providerErr):
		switch providerErr.Kind {
		case provider.KindQuotaExceeded:
			status = http.StatusPaymentRequired
			message = "API quota exceeded. Check the provider's billing settings."
		case provider.KindUpstreamRateLimited:
			status = http.StatusTooManyRequests
			message = "API rate limit reached. Please try again in a moment."
		case provider.KindModelNotFound:
			status = http.StatusNotFound
			message = "The requested model was not found on the provider."
		case provider.KindBackendUnreachable:
			status = http.StatusServiceUnavailable
			message = "The local AI backend is not reachable. Make sure it is running."
		case provider.KindTimeout:
			status = http.StatusInternalServerError
			message = "The provider took too long to respond."
		}
	}

	g.logger.WithFields(log.Fields{
		"request_id": requestID,
		"status":     status,
		"error":      err.Error(),
		"event":      "chat_error",
	}).Error("Chat request failed")

	c.JSON(status, gin.H{"error": message})
}

// clientIdentity is the rate-limit key: the identity header injected by the
// auth layer, or the client IP when absent.
func clientIdentity(c *gin.Context) string {
	if id := c.GetHeader("X-User-ID"); id != "" {
		return id
	}
	return c.ClientIP()
}

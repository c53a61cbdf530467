package provider

import (
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies an upstream failure. The fallback orchestrator and the HTTP
// layer both key off it.
type Kind string

const (
	KindQuotaExceeded       Kind = "quota_exceeded"
	KindUpstreamRateLimited Kind = "upstream_rate_limited"
	KindModelNotFound       Kind = "model_not_found"
	KindBackendUnreachable  Kind = "backend_unreachable"
	KindTimeout             Kind = "timeout"
	KindUpstreamOther       Kind = "upstream_other"
)

// Error is a classified upstream failure from one provider call.
type Error struct {
	Provider string
	Kind     Kind
	Status   int
	Detail   string
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("provider %s: %s (status %d): %s", e.Provider, e.Kind, e.Status, e.Detail)
	}
	return fmt.Sprintf("provider %s: %s: %s", e.Provider, e.Kind, e.Detail)
}

// Classify maps an upstream HTTP status and response body to a Kind. The
// status code is the primary signal; substring matching on the body is only a
// secondary signal for providers that hide everything behind a generic status.
func Classify(providerID string, status int, body string) *Error {
	kind := KindUpstreamOther

	switch status {
	case http.StatusTooManyRequests:
		kind = KindUpstreamRateLimited
	case http.StatusPaymentRequired:
		kind = KindQuotaExceeded
	case http.StatusNotFound:
		kind = KindModelNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		if k, ok := kindFromText(body); ok && k == KindQuotaExceeded {
			kind = KindQuotaExceeded
		}
	default:
		if k, ok := kindFromText(body); ok {
			kind = k
		}
	}

	return &Error{
		Provider: providerID,
		Kind:     kind,
		Status:   status,
		Detail:   truncateDetail(body),
	}
}

func kindFromText(body string) (Kind, bool) {
	lower := strings.ToLower(body)
	switch {
	case strings.Contains(lower, "quota") || strings.Contains(lower, "billing") || strings.Contains(lower, "insufficient_quota"):
		return KindQuotaExceeded, true
	case strings.Contains(lower, "rate limit") || strings.Contains(lower, "rate_limit"):
		return KindUpstreamRateLimited, true
	case strings.Contains(lower, "model_not_found") ||
		(strings.Contains(lower, "model") && (strings.Contains(lower, "not found") || strings.Contains(lower, "does not exist"))):
		return KindModelNotFound, true
	default:
		return "", false
	}
}

func truncateDetail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 512 {
		return s[:512]
	}
	return s
}

package gateway

import "errors"

// ErrRateLimited is returned before normalization when the caller exhausted
// its window. Denied requests never reach the network.
var ErrRateLimited = errors.New("rate limit exceeded")

// InvalidRequestError is a caller error caught by validation, before any
// provider call.
type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return "invalid request: " + e.Reason
}

// NotConfiguredError means the provider's credential is absent from the
// environment. No network call was attempted against that provider.
type NotConfiguredError struct {
	Provider string
}

func (e *NotConfiguredError) Error() string {
	return "provider " + e.Provider + " is not configured (missing API key)"
}

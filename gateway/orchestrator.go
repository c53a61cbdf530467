package gateway

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/complyloop/ai-director-gateway/gateway/provider"
)

// ChatOutcome is the unified result handed back to the HTTP layer.
type ChatOutcome struct {
	Content      string
	Provider     string
	Model        string
	UsedFallback bool
	Usage        *provider.Usage
	ElapsedMs    int64
}

// Orchestrator runs the two-leg primary/fallback state machine. The legs are
// explicit rather than a retry loop so the error-precedence rule stays
// visible: the primary provider's error always wins.
type Orchestrator struct {
	registry   *provider.Registry
	completers map[provider.Family]provider.Completer
	logger     *log.Logger
}

func NewOrchestrator(registry *provider.Registry, completers map[provider.Family]provider.Completer, logger *log.Logger) *Orchestrator {
	return &Orchestrator{
		registry:   registry,
		completers: completers,
		logger:     logger,
	}
}

// Execute runs the primary leg against desc and, on failure, at most one
// fallback leg against the policy-designated provider with its fixed model.
// Fallback never nests: a request already targeting the fallback provider
// propagates its own error.
func (o *Orchestrator) Execute(ctx context.Context, desc provider.Descriptor, req provider.Request, fallbackID, fallbackModel string) (*ChatOutcome, error) {
	start := time.Now()

	result, primaryErr := o.attempt(ctx, desc, req)
	if primaryErr == nil {
		return &ChatOutcome{
			Content:   result.Content,
			Provider:  desc.ID,
			Model:     req.Model,
			Usage:     result.Usage,
			ElapsedMs: time.Since(start).Milliseconds(),
		}, nil
	}

	if desc.ID == fallbackID {
		return nil, primaryErr
	}

	fallbackDesc, err := o.registry.Lookup(fallbackID)
	if err != nil {
		return nil, primaryErr
	}
	if !provider.CredentialPresent(fallbackDesc) {
		return nil, primaryErr
	}

	o.logger.WithFields(log.Fields{
		"provider": desc.ID,
		"fallback": fallbackID,
		"error":    primaryErr.Error(),
		"event":    "fallback_attempt",
	}).Warn("Primary provider failed, trying fallback")

	fallbackReq := req
	fallbackReq.Model = fallbackModel
	fallbackResult, fallbackErr := o.attempt(ctx, fallbackDesc, fallbackReq)
	if fallbackErr != nil {
		o.logger.WithFields(log.Fields{
			"fallback": fallbackID,
			"error":    fallbackErr.Error(),
			"event":    "fallback_failed",
		}).Warn("Fallback provider also failed")
		// callers should see why the provider they chose failed
		return nil, primaryErr
	}

	return &ChatOutcome{
		Content:      fallbackResult.Content,
		Provider:     fallbackDesc.ID,
		Model:        fallbackModel,
		UsedFallback: true,
		Usage:        fallbackResult.Usage,
		ElapsedMs:    time.Since(start).Milliseconds(),
	}, nil
}

// attempt checks the credential, then invokes the family adapter. A missing
// credential fails without any network I/O against that provider.
func (o *Orchestrator) attempt(ctx context.Context, desc provider.Descriptor, req provider.Request) (*provider.Result, error) {
	if !provider.CredentialPresent(desc) {
		return nil, &NotConfiguredError{Provider: desc.ID}
	}
	completer, ok := o.completers[desc.Family]
	if !ok {
		return nil, fmt.Errorf("no adapter for provider family %q", desc.Family)
	}
	return completer.Complete(ctx, desc, req)
}

// Package gateway is the multi-provider AI chat gateway behind the AI
// Director feature: per-identity rate limiting, request normalization,
// provider dispatch with a single policy-designated fallback, and an
// aggregate provider health report.
package gateway

import (
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/complyloop/ai-director-gateway/gateway/config"
	"github.com/complyloop/ai-director-gateway/gateway/provider"
)

// policy holds the reloadable part of the gateway configuration. It is
// swapped atomically on config reload; in-flight requests keep the snapshot
// they started with.
type policy struct {
	limiter          *RateLimiter
	fallbackProvider string
	fallbackModel    string
}

type Gateway struct {
	registry     *provider.Registry
	orchestrator *Orchestrator
	ollama       *provider.OllamaClient
	engine       *gin.Engine
	logger       *log.Logger

	policy atomic.Pointer[policy]
}

func New(cfg config.Config) *Gateway {
	logger := log.New()
	logger.SetFormatter(&log.JSONFormatter{})
	if level, err := log.ParseLevel(strings.TrimSpace(cfg.LogLevel)); err == nil {
		logger.SetLevel(level)
	}

	registry := provider.NewRegistry()
	ollama := provider.NewOllamaClient()
	completers := map[provider.Family]provider.Completer{
		provider.FamilyHosted: provider.NewHostedClient(
			provider.WithRequestOverrides(requestOverrides(cfg)),
		),
		provider.FamilyLocal: ollama,
	}

	g := &Gateway{
		registry:     registry,
		orchestrator: NewOrchestrator(registry, completers, logger),
		ollama:       ollama,
		logger:       logger,
	}
	g.ApplyConfig(cfg)

	if logger.GetLevel() < log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery(), requestIDMiddleware(), loggingMiddleware(logger))
	engine.POST("/chat", g.handleChat)
	engine.GET("/chat", g.handleHealth)
	g.engine = engine

	return g
}

// ApplyConfig swaps the reloadable policy (rate limit, fallback designation).
// The config watcher calls this on file change; counters restart with the new
// window settings.
func (g *Gateway) ApplyConfig(cfg config.Config) {
	cfg = cfg.WithDefaults()
	g.policy.Store(&policy{
		limiter:          NewRateLimiter(cfg.RateLimit.RequestsPerWindow, time.Duration(cfg.RateLimit.WindowSeconds)*time.Second),
		fallbackProvider: cfg.Fallback.Provider,
		fallbackModel:    cfg.Fallback.Model,
	})
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.engine.ServeHTTP(w, r)
}

func requestOverrides(cfg config.Config) map[string]map[string]any {
	out := make(map[string]map[string]any, len(cfg.Providers))
	for id, pc := range cfg.Providers {
		if len(pc.RequestOverrides) > 0 {
			out[id] = pc.RequestOverrides
		}
	}
	return out
}

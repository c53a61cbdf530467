package provider

import (
	"errors"
	"fmt"
	"os"
	"sort"
)

// ErrUnknownProvider is returned by Lookup for ids outside the registry.
var ErrUnknownProvider = errors.New("unknown provider")

// Registry is the fixed set of supported providers. It only describes them;
// credential presence is checked at call time, never here.
type Registry struct {
	descriptors map[string]Descriptor
}

func envOrDefault(envVar, defaultVal string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return defaultVal
}

// NewRegistry builds the registry from the compiled-in descriptor set. Base
// URLs honor an env override per provider so deployments (and tests) can point
// at a different endpoint without a code change.
func NewRegistry() *Registry {
	descriptors := []Descriptor{
		{
			ID:          "openai",
			Name:        "OpenAI",
			BaseURL:     envOrDefault("OPENAI_CHAT_URL", "https://api.openai.com/v1/chat/completions"),
			Family:      FamilyHosted,
			KeyRequired: true,
			KeyEnvVar:   "OPENAI_API_KEY",
		},
		{
			ID:          "groq",
			Name:        "Groq",
			BaseURL:     envOrDefault("GROQ_CHAT_URL", "https://api.groq.com/openai/v1/chat/completions"),
			Family:      FamilyHosted,
			KeyRequired: true,
			KeyEnvVar:   "GROQ_API_KEY",
		},
		{
			ID:          "deepseek",
			Name:        "DeepSeek",
			BaseURL:     envOrDefault("DEEPSEEK_CHAT_URL", "https://api.deepseek.com/chat/completions"),
			Family:      FamilyHosted,
			KeyRequired: true,
			KeyEnvVar:   "DEEPSEEK_API_KEY",
		},
		{
			ID:          "ollama",
			Name:        "Ollama",
			BaseURL:     envOrDefault("OLLAMA_BASE_URL", "http://127.0.0.1:11434"),
			Family:      FamilyLocal,
			KeyRequired: false,
		},
	}

	byID := make(map[string]Descriptor, len(descriptors))
	for _, d := range descriptors {
		byID[d.ID] = d
	}
	return &Registry{descriptors: byID}
}

// Lookup returns the descriptor for id.
func (r *Registry) Lookup(id string) (Descriptor, error) {
	d, ok := r.descriptors[id]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrUnknownProvider, id)
	}
	return d, nil
}

// All returns every descriptor sorted by id.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CredentialPresent reports whether the descriptor's credential is resolvable
// from the environment. Providers that need no key are always considered
// configured.
func CredentialPresent(d Descriptor) bool {
	if !d.KeyRequired {
		return true
	}
	return os.Getenv(d.KeyEnvVar) != ""
}

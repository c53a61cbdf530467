package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry()

	desc, err := reg.Lookup("openai")
	assert.NoError(t, err)
	assert.Equal(t, FamilyHosted, desc.Family)
	assert.True(t, desc.KeyRequired)
	assert.Equal(t, "OPENAI_API_KEY", desc.KeyEnvVar)

	desc, err = reg.Lookup("ollama")
	assert.NoError(t, err)
	assert.Equal(t, FamilyLocal, desc.Family)
	assert.False(t, desc.KeyRequired)

	_, err = reg.Lookup("claude")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestRegistryBaseURLOverride(t *testing.T) {
	t.Setenv("OPENAI_CHAT_URL", "http://127.0.0.1:9999/v1/chat/completions")

	reg := NewRegistry()
	desc, err := reg.Lookup("openai")
	assert.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9999/v1/chat/completions", desc.BaseURL)
}

func TestRegistryAllSorted(t *testing.T) {
	all := NewRegistry().All()
	assert.Len(t, all, 4)
	ids := make([]string, 0, len(all))
	for _, d := range all {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"deepseek", "groq", "ollama", "openai"}, ids)
}

func TestCredentialPresent(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")
	reg := NewRegistry()

	groq, _ := reg.Lookup("groq")
	assert.False(t, CredentialPresent(groq))

	t.Setenv("GROQ_API_KEY", "gsk_test")
	assert.True(t, CredentialPresent(groq))

	ollama, _ := reg.Lookup("ollama")
	assert.True(t, CredentialPresent(ollama))
}

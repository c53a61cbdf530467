package gateway

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/complyloop/ai-director-gateway/gateway/config"
)

func doChat(gw *Gateway, body, identity string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if identity != "" {
		req.Header.Set("X-User-ID", identity)
	}
	w := httptest.NewRecorder()
	gw.ServeHTTP(w, req)
	return w
}

func chatUpstream(t *testing.T, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintf(w, `{"choices":[{"message":{"content":%q}}],"usage":{"prompt_tokens":5,"completion_tokens":2,"total_tokens":7}}`, content)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestChatSuccess(t *testing.T) {
	srv := chatUpstream(t, "governance advice")
	t.Setenv("OPENAI_CHAT_URL", srv.URL)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("GROQ_API_KEY", "")

	gw := testGateway(t)
	w := doChat(gw, `{"provider":"openai","model":"gpt-4o-mini","message":"How do I scope ISO 27001?","context_type":"compliance"}`, "user-1")

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Equal(t, "governance advice", gjson.Get(body, "content").String())
	assert.Equal(t, "openai", gjson.Get(body, "provider").String())
	assert.Equal(t, "gpt-4o-mini", gjson.Get(body, "model").String())
	assert.Equal(t, int64(7), gjson.Get(body, "usage.total_tokens").Int())
	assert.False(t, gjson.Get(body, "used_fallback").Exists(), "used_fallback is omitted on a primary success")
	assert.True(t, gjson.Get(body, "processing_time_ms").Exists())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestChatInvalidRequest(t *testing.T) {
	gw := testGateway(t)

	tests := []string{
		`{"provider":"openai","model":"gpt-4o-mini","message":"  "}`,
		`{"provider":"claude","model":"opus","message":"hi"}`,
		`{"provider":"openai","message":"hi"}`,
		`not json`,
	}
	for _, body := range tests {
		w := doChat(gw, body, "user-1")
		assert.Equal(t, http.StatusBadRequest, w.Code, "body: %s", body)
		assert.NotEmpty(t, gjson.Get(w.Body.String(), "error").String())
	}
}

func TestChatRateLimit(t *testing.T) {
	srv := chatUpstream(t, "ok")
	t.Setenv("OPENAI_CHAT_URL", srv.URL)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("GROQ_API_KEY", "")

	gw := testGateway(t)
	body := `{"provider":"openai","model":"gpt-4o-mini","message":"hi"}`

	for i := 0; i < 30; i++ {
		w := doChat(gw, body, "heavy-user")
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
	}

	w := doChat(gw, body, "heavy-user")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, gjson.Get(w.Body.String(), "error").String(), "Rate limit exceeded")

	// another identity is unaffected
	w = doChat(gw, body, "light-user")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestChatUpstreamRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached for gpt-4o-mini"}}`))
	}))
	t.Cleanup(srv.Close)
	t.Setenv("OPENAI_CHAT_URL", srv.URL)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("GROQ_API_KEY", "")

	gw := testGateway(t)
	w := doChat(gw, `{"provider":"openai","model":"gpt-4o-mini","message":"hi"}`, "user-1")

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, gjson.Get(w.Body.String(), "error").String(), "API rate limit reached")
}

func TestChatQuotaExceeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"You exceeded your current quota","code":"insufficient_quota"}}`))
	}))
	t.Cleanup(srv.Close)
	t.Setenv("OPENAI_CHAT_URL", srv.URL)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("GROQ_API_KEY", "")

	gw := testGateway(t)
	w := doChat(gw, `{"provider":"openai","model":"gpt-4o-mini","message":"hi"}`, "user-1")

	// status-first classification: a 429 is upstream rate limiting even when
	// the body mentions quota
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestChatFallbackWhenPrimaryUnconfigured(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		gotModel = gjson.GetBytes(raw, "model").String()
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"fallback advice"}}]}`))
	}))
	t.Cleanup(srv.Close)
	t.Setenv("GROQ_CHAT_URL", srv.URL)
	t.Setenv("GROQ_API_KEY", "gsk-test")
	t.Setenv("OPENAI_API_KEY", "")

	gw := testGateway(t)
	w := doChat(gw, `{"provider":"openai","model":"gpt-4o-mini","message":"hi"}`, "user-1")

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Equal(t, "fallback advice", gjson.Get(body, "content").String())
	assert.True(t, gjson.Get(body, "used_fallback").Bool())
	assert.Equal(t, "groq", gjson.Get(body, "provider").String())
	assert.Equal(t, config.DefaultFallbackModel, gjson.Get(body, "model").String())
	assert.Equal(t, config.DefaultFallbackModel, gotModel, "fallback leg uses the policy model, not the caller's")
}

func TestChatNotConfigured(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "")
	t.Setenv("GROQ_API_KEY", "")

	gw := testGateway(t)
	w := doChat(gw, `{"provider":"deepseek","model":"deepseek-chat","message":"hi"}`, "user-1")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, gjson.Get(w.Body.String(), "error").String(), "not configured")
}

func TestHealthEndpoint(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("GROQ_API_KEY", "")
	t.Setenv("DEEPSEEK_API_KEY", "")
	t.Setenv("OLLAMA_BASE_URL", "http://127.0.0.1:1")

	gw := testGateway(t)
	req := httptest.NewRequest(http.MethodGet, "/chat", nil)
	w := httptest.NewRecorder()
	gw.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Equal(t, "ok", gjson.Get(body, "status").String())
	assert.NotEmpty(t, gjson.Get(body, "timestamp").String())

	assert.True(t, gjson.Get(body, "providers.openai.available").Bool())
	assert.False(t, gjson.Get(body, "providers.groq.available").Bool())
	assert.Contains(t, gjson.Get(body, "providers.groq.error").String(), "GROQ_API_KEY")
	assert.False(t, gjson.Get(body, "providers.ollama.available").Bool())
	assert.NotEmpty(t, gjson.Get(body, "providers.ollama.error").String())
}

package openai

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, url string, dims int) *Client {
	t.Helper()
	c, err := NewClient(Config{BaseURL: url, APIKey: "test-key", Model: "tiny", Dimensions: dims, MaxRetries: 2})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	c.backoff = func(int) time.Duration { return time.Millisecond }
	return c
}

func TestEmbedOpenAIShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		var body request
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body.Model != "tiny" || body.Input != "hello" || body.Dimensions != 0 {
			t.Errorf("unexpected request %+v", body)
		}
		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.1,0.2,0.3]}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	if c.Dimension() != 0 {
		t.Fatalf("dimension should be unknown before the first call")
	}
	vec, err := c.Embed("hello")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 3 || c.Dimension() != 3 {
		t.Fatalf("unexpected vector %v with dimension %d", vec, c.Dimension())
	}
}

func TestEmbedOllamaShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embedding":[1,2]}`))
	}))
	defer srv.Close()

	vec, err := newTestClient(t, srv.URL, 0).Embed("hello")
	if err != nil || len(vec) != 2 {
		t.Fatalf("unexpected result %v, %v", vec, err)
	}
}

func TestEmbedRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"embedding":[1,0]}]}`))
	}))
	defer srv.Close()

	if _, err := newTestClient(t, srv.URL, 0).Embed("x"); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
}

func TestEmbedGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "busy", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, 0).Embed("x")
	if err == nil || !strings.Contains(err.Error(), "after 3 attempts") {
		t.Fatalf("expected exhausted retries, got %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
}

func TestEmbedClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	if _, err := newTestClient(t, srv.URL, 0).Embed("x"); err == nil {
		t.Fatalf("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single call, got %d", calls.Load())
	}
}

func TestEmbedDimensionMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body request
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Dimensions != 4 {
			t.Errorf("dimensions not forwarded: %+v", body)
		}
		_, _ = w.Write([]byte(`{"data":[{"embedding":[1,0,0]}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 4)
	if c.Dimension() != 4 {
		t.Fatalf("configured dimension should be known up front, got %d", c.Dimension())
	}
	if _, err := c.Embed("x"); err == nil {
		t.Fatalf("expected mismatch error")
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	t.Setenv("SLIDEALIGN_TEST_EMPTY_KEY", "")
	if _, err := NewClient(Config{APIKeyEnv: "SLIDEALIGN_TEST_EMPTY_KEY"}); err == nil {
		t.Fatalf("expected missing key error")
	}
	t.Setenv("SLIDEALIGN_TEST_KEY", "k")
	if _, err := NewClient(Config{APIKeyEnv: "SLIDEALIGN_TEST_KEY"}); err != nil {
		t.Fatalf("NewClient: %v", err)
	}
}

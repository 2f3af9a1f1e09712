package resilience

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPostJSONDecodesSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected request %s %s", r.Method, r.Header.Get("Content-Type"))
		}
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["name"]})
	}))
	defer server.Close()

	var out struct {
		Echo string `json:"echo"`
	}
	err := PostJSON(context.Background(), server.Client(), "vision", "labels", server.URL, map[string]string{"name": "kale"}, &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Echo != "kale" {
		t.Fatalf("expected echo kale, got %q", out.Echo)
	}
}

func TestPostJSONReturnsStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	var out map[string]any
	err := PostJSON(context.Background(), server.Client(), "ollama", "generate", server.URL, map[string]string{}, &out)

	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected HTTPStatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusServiceUnavailable || statusErr.Service != "ollama" {
		t.Fatalf("unexpected status error %+v", statusErr)
	}
	if !ClassifyHTTP(err).Retryable {
		t.Fatalf("503 must be retryable")
	}
}

package genai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func candidateResponse(text string) string {
	payload := map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]string{{"text": text}}}},
		},
	}
	raw, _ := json.Marshal(payload)
	return string(raw)
}

func TestGenerateContentRelaysPromptAndParameters(t *testing.T) {
	var captured generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/gemini-pro:generateContent" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing api key, got %q", r.URL.Query().Get("key"))
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(candidateResponse("generated app")))
	}))
	defer srv.Close()

	client := NewGeminiClient(srv.URL, "test-key", "gemini-pro", time.Second)
	got, err := client.GenerateContent(context.Background(), "you are a builder", "make an app")
	if err != nil {
		t.Fatalf("GenerateContent returned error: %v", err)
	}
	if got != "generated app" {
		t.Fatalf("unexpected response %q", got)
	}

	if len(captured.Contents) != 1 || len(captured.Contents[0].Parts) != 2 {
		t.Fatalf("unexpected contents shape %+v", captured.Contents)
	}
	if captured.Contents[0].Parts[0].Text != "you are a builder" || captured.Contents[0].Parts[1].Text != "make an app" {
		t.Fatalf("prompt parts out of order: %+v", captured.Contents[0].Parts)
	}
	cfg := captured.GenerationConfig
	if cfg.Temperature != 0.7 || cfg.TopK != 40 || cfg.TopP != 0.8 || cfg.MaxOutputTokens != 8192 {
		t.Fatalf("unexpected generation config %+v", cfg)
	}
	if len(captured.SafetySettings) != 4 {
		t.Fatalf("expected 4 safety settings, got %d", len(captured.SafetySettings))
	}
	for _, setting := range captured.SafetySettings {
		if setting.Threshold != "BLOCK_MEDIUM_AND_ABOVE" {
			t.Fatalf("unexpected threshold %q", setting.Threshold)
		}
	}
}

func TestGenerateContentFallsBackOnEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	client := NewGeminiClient(srv.URL, "k", "gemini-pro", time.Second)
	got, err := client.GenerateContent(context.Background(), "", "prompt")
	if err != nil {
		t.Fatalf("GenerateContent returned error: %v", err)
	}
	if got != "No response generated" {
		t.Fatalf("expected fallback message, got %q", got)
	}
}

func TestGenerateContentSurfacesUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"quota exhausted"}`))
	}))
	defer srv.Close()

	client := NewGeminiClient(srv.URL, "k", "gemini-pro", time.Second)
	_, err := client.GenerateContent(context.Background(), "", "prompt")
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %T", err)
	}
	if upstream.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("unexpected status %d", upstream.StatusCode)
	}
	if upstream.Body == "" {
		t.Fatal("expected upstream body captured")
	}
}

func TestGenerateContentHonorsContextCancel(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	client := NewGeminiClient(srv.URL, "k", "gemini-pro", time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := client.GenerateContent(ctx, "", "prompt"); err == nil {
		t.Fatal("expected context deadline error")
	}
}

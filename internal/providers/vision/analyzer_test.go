package vision

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAnalyzeParsesModelReply(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected auth header: %s", got)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body["model"] != "gpt-4o-mini" {
			t.Errorf("unexpected model: %v", body["model"])
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": `{"room_type":"Bedroom","style":"Minimalist","key_elements":["bed","large window"],"suggestion":"Add warm lighting."}`}},
			},
		})
	}))
	defer ts.Close()

	analyzer := NewOpenAIAnalyzer(OpenAIOptions{
		APIKey:     "sk-test",
		BaseURL:    ts.URL,
		HTTPClient: ts.Client(),
	})
	analysis, err := analyzer.Analyze(context.Background(), "https://cdn.example.com/room.jpg")
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if analysis.RoomType != "Bedroom" || analysis.Style != "Minimalist" {
		t.Fatalf("unexpected analysis: %+v", analysis)
	}
	if analysis.Provider != "openai" {
		t.Fatalf("provider mismatch: %s", analysis.Provider)
	}
}

func TestAnalyzeCodeFencedReply(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content := "```json\n{\"room_type\":\"Kitchen\",\"style\":\"Industrial\"}\n```"
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": content}}},
		})
	}))
	defer ts.Close()

	analyzer := NewOpenAIAnalyzer(OpenAIOptions{APIKey: "sk-test", BaseURL: ts.URL, HTTPClient: ts.Client()})
	analysis, err := analyzer.Analyze(context.Background(), "https://cdn.example.com/room.jpg")
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if analysis.RoomType != "Kitchen" {
		t.Fatalf("fenced payload not parsed: %+v", analysis)
	}
}

func TestAnalyzeFallsBackOnHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	var reason string
	analyzer := NewOpenAIAnalyzer(OpenAIOptions{
		APIKey:     "sk-test",
		BaseURL:    ts.URL,
		HTTPClient: ts.Client(),
		OnFallback: func(r string, _ error) { reason = r },
	})
	analysis, err := analyzer.Analyze(context.Background(), "https://cdn.example.com/room.jpg")
	if err != nil {
		t.Fatalf("fallback must absorb the failure: %v", err)
	}
	if analysis.Provider != "static" {
		t.Fatalf("expected static fallback, got %+v", analysis)
	}
	if reason != "http_429" {
		t.Fatalf("unexpected fallback reason: %s", reason)
	}
}

func TestAnalyzeMissingKeyUsesFallback(t *testing.T) {
	analyzer := NewOpenAIAnalyzer(OpenAIOptions{})
	analysis, err := analyzer.Analyze(context.Background(), "https://cdn.example.com/room.jpg")
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if analysis.Provider != "static" || analysis.RoomType == "" {
		t.Fatalf("unexpected fallback analysis: %+v", analysis)
	}
}

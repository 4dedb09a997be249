// Package vision describes room photos through an OpenAI-compatible
// vision model. Analysis is advisory: when the model is unreachable or
// unconfigured a static analyzer answers instead, so callers never block
// a generation on it.
package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// RoomAnalysis is what the model inferred from one photo.
type RoomAnalysis struct {
	RoomType    string   `json:"room_type"`
	Style       string   `json:"style"`
	KeyElements []string `json:"key_elements"`
	Suggestion  string   `json:"suggestion"`
	Provider    string   `json:"provider"`
}

// Analyzer inspects a room photo by URL or data URI.
type Analyzer interface {
	Analyze(ctx context.Context, imageURL string) (*RoomAnalysis, error)
}

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 20 * time.Second

	openAIProviderName = "openai"
)

const systemPrompt = "You are an interior design assistant. Describe the room in the photo and respond only with valid JSON using the keys room_type, style, key_elements (array of strings) and suggestion."

type OpenAIOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Fallback   Analyzer
	OnFallback func(reason string, err error)
}

type OpenAIAnalyzer struct {
	apiKey     string
	model      string
	baseURL    string
	client     *http.Client
	fallback   Analyzer
	onFallback func(reason string, err error)
}

func NewOpenAIAnalyzer(opts OpenAIOptions) *OpenAIAnalyzer {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	fallback := opts.Fallback
	if fallback == nil {
		fallback = StaticAnalyzer{}
	}
	return &OpenAIAnalyzer{
		apiKey:     strings.TrimSpace(opts.APIKey),
		model:      model,
		baseURL:    baseURL,
		client:     client,
		fallback:   fallback,
		onFallback: opts.OnFallback,
	}
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature,omitempty"`
	ResponseFormat *chatFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (a *OpenAIAnalyzer) Analyze(ctx context.Context, imageURL string) (*RoomAnalysis, error) {
	if a.apiKey == "" {
		return a.useFallback(ctx, imageURL, "missing_api_key", nil)
	}
	payload := chatRequest{
		Model:          a.model,
		Temperature:    0.4,
		ResponseFormat: &chatFormat{Type: "json_object"},
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: []map[string]any{
				{"type": "text", "text": "Analyze this room."},
				{"type": "image_url", "image_url": map[string]string{"url": imageURL}},
			}},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return a.useFallback(ctx, imageURL, "encode_request", err)
	}
	endpoint := fmt.Sprintf("%s/chat/completions", a.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return a.useFallback(ctx, imageURL, "build_request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)
	resp, err := a.client.Do(httpReq)
	if err != nil {
		return a.useFallback(ctx, imageURL, "http_request", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return a.useFallback(ctx, imageURL, fmt.Sprintf("http_%d", resp.StatusCode), fmt.Errorf("openai status %d", resp.StatusCode))
	}
	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return a.useFallback(ctx, imageURL, "decode_response", err)
	}
	if len(out.Choices) == 0 {
		return a.useFallback(ctx, imageURL, "empty_choices", errors.New("no choices"))
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return a.useFallback(ctx, imageURL, "empty_response", errors.New("empty response"))
	}
	analysis, err := parseAnalysis(text)
	if err != nil {
		return a.useFallback(ctx, imageURL, "parse_payload", err)
	}
	analysis.Provider = openAIProviderName
	return analysis, nil
}

func (a *OpenAIAnalyzer) useFallback(ctx context.Context, imageURL, reason string, cause error) (*RoomAnalysis, error) {
	if a.onFallback != nil {
		a.onFallback(reason, cause)
	}
	if a.fallback == nil {
		if cause != nil {
			return nil, fmt.Errorf("vision analyze (%s): %w", reason, cause)
		}
		return nil, fmt.Errorf("vision analyze: %s", reason)
	}
	return a.fallback.Analyze(ctx, imageURL)
}

// parseAnalysis tolerates code fences around the JSON body.
func parseAnalysis(text string) (*RoomAnalysis, error) {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
		trimmed = strings.TrimSpace(trimmed)
	}
	var analysis RoomAnalysis
	if err := json.Unmarshal([]byte(trimmed), &analysis); err != nil {
		return nil, fmt.Errorf("parse analysis payload: %w", err)
	}
	if analysis.RoomType == "" && analysis.Style == "" {
		return nil, errors.New("analysis payload empty")
	}
	return &analysis, nil
}

// StaticAnalyzer answers with a generic analysis when no vision model is
// available. It never fails.
type StaticAnalyzer struct{}

func (StaticAnalyzer) Analyze(_ context.Context, _ string) (*RoomAnalysis, error) {
	return &RoomAnalysis{
		RoomType:    "Living Room",
		Style:       "Contemporary",
		KeyElements: []string{"natural light", "neutral palette"},
		Suggestion:  "Try a Modern or Scandinavian redesign to brighten the space.",
		Provider:    "static",
	}, nil
}

var (
	_ Analyzer = (*OpenAIAnalyzer)(nil)
	_ Analyzer = StaticAnalyzer{}
)

// Package replicate generates interior designs through the Replicate
// predictions API. Replicate has no synchronous mode: every submission
// returns a prediction id that is polled until terminal.
package replicate

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"server/internal/design"
)

const (
	defaultBaseURL = "https://api.replicate.com/v1"
	defaultModel   = "adirik/interior-design"
	defaultTimeout = 60 * time.Second
)

var ErrMissingAPIToken = errors.New("replicate: API token not configured")

// UpstreamError carries the provider's HTTP failure back to the caller.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("replicate: API error %d: %s", e.StatusCode, e.Body)
}

// Vocabulary is the Replicate predictions status table.
func Vocabulary() design.Vocabulary {
	return design.Vocabulary{
		StatusFields:    []string{"status"},
		SuccessStatuses: []string{"succeeded"},
		FailureStatuses: []string{"failed", "canceled"},
		PendingStatuses: []string{"starting", "processing"},
		ImageFields:     []string{"output"},
		ErrorFields:     []string{"error"},
	}
}

type Options struct {
	APIToken     string
	BaseURL      string
	Model        string
	HTTPClient   *http.Client
	PollInterval time.Duration
	MaxAttempts  int
	Logger       *zerolog.Logger
}

type Client struct {
	token   string
	baseURL string
	model   string
	httpc   *http.Client
	poller  *design.Poller
	logger  zerolog.Logger
}

func NewClient(opts Options) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := opts.Model
	if model == "" {
		model = defaultModel
	}
	httpc := opts.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: defaultTimeout}
	}
	logger := zerolog.New(io.Discard)
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Client{
		token:   opts.APIToken,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpc:   httpc,
		poller: design.NewPoller(design.PollerOptions{
			Interval:    opts.PollInterval,
			MaxAttempts: opts.MaxAttempts,
			Vocabulary:  Vocabulary(),
			Logger:      opts.Logger,
		}),
		logger: logger,
	}
}

func (c *Client) Name() string { return "replicate" }

func (c *Client) HasCredentials() bool { return c != nil && c.token != "" }

// Generate submits a prediction and polls it to a terminal state.
func (c *Client) Generate(ctx context.Context, req design.Request) (design.Result, error) {
	predictionID, err := c.Submit(ctx, req)
	if err != nil {
		return design.Result{}, err
	}
	c.logger.Info().Str("prediction_id", predictionID).Msg("replicate: prediction created, polling")
	return c.poller.PollUntilDone(ctx, c, predictionID), nil
}

// Submit creates a prediction and returns its id.
func (c *Client) Submit(ctx context.Context, req design.Request) (string, error) {
	if c.token == "" {
		return "", ErrMissingAPIToken
	}
	input, err := buildInput(req)
	if err != nil {
		return "", err
	}
	body, err := json.Marshal(map[string]any{"input": input})
	if err != nil {
		return "", fmt.Errorf("replicate: encode request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s/predictions", c.baseURL, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("replicate: build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("replicate: submit prediction: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("replicate: read response: %w", err)
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", &UpstreamError{StatusCode: resp.StatusCode, Body: truncateBody(raw)}
	}

	var decoded struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("replicate: decode response: %w", err)
	}
	if decoded.ID == "" {
		return "", errors.New("replicate: prediction id missing from response")
	}
	return decoded.ID, nil
}

// CheckStatus fetches the prediction and returns the decoded body for the
// poller to classify.
func (c *Client) CheckStatus(ctx context.Context, predictionID string) (map[string]any, error) {
	url := fmt.Sprintf("%s/predictions/%s", c.baseURL, predictionID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("replicate: build status request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("replicate: check status: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("replicate: read status response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: truncateBody(raw)}
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("replicate: decode status response: %w", err)
	}
	return payload, nil
}

// buildInput maps the generation request onto the model's input schema.
// The image must arrive as a URL or a data URI.
func buildInput(req design.Request) (map[string]any, error) {
	input := map[string]any{
		"prompt": buildPrompt(req),
	}
	switch {
	case req.Image.URL != "":
		input["image"] = req.Image.URL
	case len(req.Image.Data) > 0:
		input["image"] = "data:image/png;base64," + base64.StdEncoding.EncodeToString(req.Image.Data)
	case req.Image.Base64 != "":
		payload := req.Image.Base64
		if !strings.HasPrefix(payload, "data:") {
			payload = "data:image/png;base64," + payload
		}
		input["image"] = payload
	default:
		return nil, errors.New("replicate: request has no input image")
	}
	if req.Intervention != "" {
		input["prompt_strength"] = interventionStrength(req.Intervention)
	}
	return input, nil
}

func buildPrompt(req design.Request) string {
	var parts []string
	if req.DesignStyle != "" {
		parts = append(parts, req.DesignStyle+" style")
	}
	if req.RoomType != "" {
		parts = append(parts, strings.ToLower(req.RoomType))
	}
	if len(parts) == 0 {
		parts = append(parts, "interior")
	}
	prompt := "A " + strings.Join(parts, " ") + ", professional interior design photography, high quality"
	if req.CustomInstruction != "" {
		prompt += ", " + req.CustomInstruction
	}
	return prompt
}

func interventionStrength(level design.Intervention) float64 {
	switch level {
	case design.InterventionVeryLow:
		return 0.3
	case design.InterventionLow:
		return 0.5
	case design.InterventionMid:
		return 0.7
	default:
		return 0.9
	}
}

func truncateBody(raw []byte) string {
	const limit = 500
	s := strings.TrimSpace(string(raw))
	if len(s) > limit {
		return s[:limit]
	}
	return s
}

var (
	_ design.Generator     = (*Client)(nil)
	_ design.StatusChecker = (*Client)(nil)
)

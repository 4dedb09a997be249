package homedesign

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"server/internal/design"
)

// ErrMissingAPIToken indicates the client was configured without credentials.
var ErrMissingAPIToken = errors.New("homedesign: api token is required")

// ErrNoJobID indicates the provider reply carried neither images nor a
// recognizable queue identifier.
var ErrNoJobID = errors.New("homedesign: provider did not return images or a job identifier")

// UpstreamError is a non-success HTTP reply from the provider.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("homedesign: API error %d: %s", e.StatusCode, e.Body)
}

const upstreamBodyLimit = 500

// Vocabulary is the status table for the Home Designs AI API. The same
// endpoint has been observed reporting SUCCEEDED, succeeded and completed
// for finished jobs, and populating output images before flipping the
// status string, hence the generous synonym lists.
func Vocabulary() design.Vocabulary {
	return design.Vocabulary{
		StatusFields:    []string{"status", "state"},
		SuccessStatuses: []string{"SUCCEEDED", "succeeded", "completed"},
		FailureStatuses: []string{"FAILED", "failed", "error"},
		PendingStatuses: []string{"IN_QUEUE", "PROCESSING", "processing", "starting"},
		ImageFields:     []string{"output_images", "output"},
		InputFields:     []string{"input_image", "input"},
		ErrorFields:     []string{"error", "message"},
	}
}

// Options configures the Home Designs AI client.
type Options struct {
	APIToken     string
	BaseURL      string
	HTTPClient   *http.Client
	PollInterval time.Duration
	MaxAttempts  int
	Logger       *zerolog.Logger
}

// Client performs HTTP calls against the Home Designs AI creative redesign
// API. It is stateless across calls; a single value can serve concurrent
// generations.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	poller     *design.Poller
	logger     zerolog.Logger
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://homedesigns.ai/api/v2"
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 90 * time.Second}
	}
	logger := zerolog.New(io.Discard)
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Client{
		token:      strings.TrimSpace(opts.APIToken),
		baseURL:    baseURL,
		httpClient: httpClient,
		poller: design.NewPoller(design.PollerOptions{
			Interval:    opts.PollInterval,
			MaxAttempts: opts.MaxAttempts,
			Vocabulary:  Vocabulary(),
			Logger:      opts.Logger,
		}),
		logger: logger,
	}
}

// Name fulfils the design.Generator interface.
func (c *Client) Name() string { return "homedesign" }

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool { return c != nil && c.token != "" }

// Generate submits the request and resolves it to a terminal result,
// polling when the provider answers with a queue id.
func (c *Client) Generate(ctx context.Context, req design.Request) (design.Result, error) {
	job, err := c.Submit(ctx, req)
	if err != nil {
		return design.Result{}, err
	}
	if job.Sync {
		return design.Result{
			Success:      true,
			InputImage:   job.InputImage,
			OutputImages: job.OutputImages,
			Attempts:     1,
		}, nil
	}
	c.logger.Info().Str("queue_id", job.QueueID).Msg("homedesign: job queued, polling")
	return c.poller.PollUntilDone(ctx, c, job.QueueID), nil
}

// Submit posts the generation request and classifies the reply as sync
// (images embedded) or async (queue id to poll).
func (c *Client) Submit(ctx context.Context, req design.Request) (*design.Job, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIToken
	}
	imageData, err := c.resolveImage(ctx, req.Image)
	if err != nil {
		return nil, err
	}

	body, contentType, err := buildForm(req, imageData)
	if err != nil {
		return nil, fmt.Errorf("homedesign: build form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/creative_redesign", body)
	if err != nil {
		return nil, fmt.Errorf("homedesign: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("homedesign: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("homedesign: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: truncateBody(raw)}
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("homedesign: decode response: %w", err)
	}
	return classifyReply(decoded)
}

// CheckStatus fulfils design.StatusChecker for one poll attempt.
func (c *Client) CheckStatus(ctx context.Context, queueID string) (map[string]any, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/perfect_redesign/status_check/"+queueID, nil)
	if err != nil {
		return nil, fmt.Errorf("homedesign: build status request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("homedesign: status check: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("homedesign: read status response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: truncateBody(raw)}
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("homedesign: decode status response: %w", err)
	}
	return payload, nil
}

// resolveImage turns whichever image form the caller supplied into binary
// bytes, enforcing the size cap before any provider round trip.
func (c *Client) resolveImage(ctx context.Context, image design.ImageInput) ([]byte, error) {
	switch {
	case len(image.Data) > 0:
		return checkSize(image.Data)
	case image.Base64 != "":
		return DecodeImagePayload(image.Base64)
	case image.URL != "":
		return c.download(ctx, image.URL)
	default:
		return nil, fmt.Errorf("%w: no image provided", ErrBadBase64)
	}
}

func (c *Client) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("homedesign: build download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("homedesign: download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("homedesign: download image: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("homedesign: read image: %w", err)
	}
	return checkSize(data)
}

func buildForm(req design.Request, imageData []byte) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	filename := req.Image.Filename
	if filename == "" {
		filename = "image.jpg"
	}
	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, "", err
	}

	designType := req.DesignType
	if designType == "" {
		designType = design.DesignTypeInterior
	}
	intervention := req.Intervention
	if intervention == "" {
		intervention = design.InterventionMid
	}
	noDesign := req.NoDesign
	if noDesign < 1 {
		noDesign = 1
	}
	if noDesign > 2 {
		noDesign = 2
	}

	fields := map[string]string{
		"design_type":             string(designType),
		"ai_intervention":         string(intervention),
		"no_design":               strconv.Itoa(noDesign),
		"design_style":            req.DesignStyle,
		"keep_structural_element": strconv.FormatBool(req.KeepStructure),
	}
	if req.RoomType != "" {
		fields["room_type"] = req.RoomType
	}
	if req.HouseAngle != "" {
		fields["house_angle"] = req.HouseAngle
	}
	if req.GardenType != "" {
		fields["garden_type"] = req.GardenType
	}
	// The creative redesign endpoint takes the custom instruction as "prompt".
	if req.CustomInstruction != "" {
		fields["prompt"] = req.CustomInstruction
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, "", err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}

// classifyReply inspects a submission reply. Embedded images mean the job
// completed synchronously; otherwise a queue id is required under one of the
// known field names.
func classifyReply(decoded map[string]any) (*design.Job, error) {
	if success, ok := decoded["success"].(map[string]any); ok {
		if images := imagesFromAny(success["generated_image"]); len(images) > 0 {
			input, _ := success["original_image"].(string)
			return &design.Job{Sync: true, InputImage: input, OutputImages: images}, nil
		}
	}
	for _, field := range []string{"id", "queue_id", "queueId"} {
		if id := stringOrNumber(decoded[field]); id != "" {
			return &design.Job{QueueID: id}, nil
		}
	}
	return nil, ErrNoJobID
}

func imagesFromAny(raw any) []string {
	switch v := raw.(type) {
	case []any:
		images := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				images = append(images, s)
			}
		}
		return images
	case string:
		if v != "" {
			return []string{v}
		}
	}
	return nil
}

func stringOrNumber(raw any) string {
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func truncateBody(raw []byte) string {
	body := strings.TrimSpace(string(raw))
	if len(body) > upstreamBodyLimit {
		return body[:upstreamBodyLimit]
	}
	return body
}

var _ design.Generator = (*Client)(nil)
var _ design.StatusChecker = (*Client)(nil)

package homedesign

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"server/internal/design"
)

var testImage = base64.StdEncoding.EncodeToString([]byte{0xFF, 0xD8, 0xFF, 0xE0})

func testRequest() design.Request {
	return design.Request{
		Image:             design.ImageInput{Base64: testImage},
		DesignType:        design.DesignTypeInterior,
		DesignStyle:       "Modern",
		RoomType:          "Bedroom",
		Intervention:      design.InterventionExtreme,
		NoDesign:          1,
		CustomInstruction: "add a grey sofa",
		KeepStructure:     true,
	}
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	client := NewClient(Options{
		APIToken:     "test-token",
		BaseURL:      ts.URL,
		HTTPClient:   ts.Client(),
		PollInterval: time.Millisecond,
	})
	return client, ts
}

func TestGenerateSyncShortCircuit(t *testing.T) {
	var statusCalls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "status_check") {
			statusCalls.Add(1)
			t.Errorf("status endpoint must not be called in sync mode")
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("unexpected auth header: %s", got)
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("design_style"); got != "Modern" {
			t.Errorf("design_style mismatch: %s", got)
		}
		if got := r.FormValue("prompt"); got != "add a grey sofa" {
			t.Errorf("prompt mismatch: %s", got)
		}
		if got := r.FormValue("keep_structural_element"); got != "true" {
			t.Errorf("keep_structural_element mismatch: %s", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": map[string]any{
				"original_image":  "https://cdn.example.com/in.jpg",
				"generated_image": []string{"https://cdn.example.com/out.jpg"},
			},
		})
	}))

	result, err := client.Generate(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.Attempts != 1 {
		t.Fatalf("sync mode must report one attempt, got %d", result.Attempts)
	}
	if len(result.OutputImages) != 1 || result.OutputImages[0] != "https://cdn.example.com/out.jpg" {
		t.Fatalf("unexpected images: %v", result.OutputImages)
	}
	if statusCalls.Load() != 0 {
		t.Fatalf("poller ran in sync mode")
	}
}

func TestGenerateAsyncPollsToCompletion(t *testing.T) {
	var statusCalls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "status_check") {
			if !strings.HasSuffix(r.URL.Path, "/abc") {
				t.Errorf("queue id missing from path: %s", r.URL.Path)
			}
			n := statusCalls.Add(1)
			if n <= 2 {
				_ = json.NewEncoder(w).Encode(map[string]any{"status": "IN_QUEUE"})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"status": "succeeded",
				"output": []string{"u1", "u2"},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"queue_id": "abc"})
	}))

	result, err := client.Generate(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", result.Attempts)
	}
	if len(result.OutputImages) != 2 || result.OutputImages[0] != "u1" || result.OutputImages[1] != "u2" {
		t.Fatalf("unexpected images: %v", result.OutputImages)
	}
}

func TestSubmitQueueIDCandidates(t *testing.T) {
	for _, field := range []string{"id", "queue_id", "queueId"} {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{field: "job-9"})
		}))
		job, err := client.Submit(context.Background(), testRequest())
		if err != nil {
			t.Fatalf("field %s: Submit error: %v", field, err)
		}
		if job.Sync || job.QueueID != "job-9" {
			t.Fatalf("field %s: unexpected job %+v", field, job)
		}
	}
}

func TestSubmitNoJobID(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "accepted"})
	}))
	_, err := client.Submit(context.Background(), testRequest())
	if !errors.Is(err, ErrNoJobID) {
		t.Fatalf("expected ErrNoJobID, got %v", err)
	}
}

func TestSubmitUpstreamError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream exploded"))
	}))
	_, err := client.Submit(context.Background(), testRequest())
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstream.StatusCode != http.StatusBadGateway {
		t.Fatalf("unexpected status: %d", upstream.StatusCode)
	}
	if !strings.Contains(upstream.Body, "upstream exploded") {
		t.Fatalf("body missing: %q", upstream.Body)
	}
}

func TestSubmitRejectsBadImageBeforeNetwork(t *testing.T) {
	var hits atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))

	req := testRequest()
	req.Image = design.ImageInput{Base64: "***"}
	if _, err := client.Submit(context.Background(), req); !errors.Is(err, ErrBadBase64) {
		t.Fatalf("expected ErrBadBase64, got %v", err)
	}
	if hits.Load() != 0 {
		t.Fatalf("invalid image must be rejected before any network call")
	}
}

func TestSubmitMissingToken(t *testing.T) {
	client := NewClient(Options{})
	if _, err := client.Submit(context.Background(), testRequest()); !errors.Is(err, ErrMissingAPIToken) {
		t.Fatalf("expected ErrMissingAPIToken, got %v", err)
	}
}

package design

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

var testVocab = Vocabulary{
	StatusFields:    []string{"status"},
	SuccessStatuses: []string{"SUCCEEDED", "succeeded", "completed"},
	FailureStatuses: []string{"FAILED", "failed", "error"},
	PendingStatuses: []string{"IN_QUEUE", "PROCESSING", "processing", "starting"},
	ImageFields:     []string{"generated_image", "output", "images"},
	InputFields:     []string{"original_image", "input_image"},
	ErrorFields:     []string{"error", "message"},
}

type scriptedChecker struct {
	payloads []map[string]any
	errs     []error
	calls    int
}

func (c *scriptedChecker) CheckStatus(context.Context, string) (map[string]any, error) {
	i := c.calls
	c.calls++
	if i >= len(c.payloads) {
		i = len(c.payloads) - 1
	}
	if c.errs != nil && c.errs[i] != nil {
		return nil, c.errs[i]
	}
	return c.payloads[i], nil
}

func newTestPoller(maxAttempts int) *Poller {
	return NewPoller(PollerOptions{
		Interval:    time.Microsecond,
		MaxAttempts: maxAttempts,
		Vocabulary:  testVocab,
	})
}

func TestPollSucceedsOnThirdAttempt(t *testing.T) {
	checker := &scriptedChecker{payloads: []map[string]any{
		{"status": "IN_QUEUE"},
		{"status": "IN_QUEUE"},
		{"status": "succeeded", "output": []any{"u1", "u2"}},
	}}

	result := newTestPoller(60).PollUntilDone(context.Background(), checker, "q1")
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

func TestPollImagesOverrideNonTerminalStatus(t *testing.T) {
	checker := &scriptedChecker{payloads: []map[string]any{
		{"status": "processing", "generated_image": []any{"u1"}},
	}}

	result := newTestPoller(60).PollUntilDone(context.Background(), checker, "q1")
	if !result.Success || result.Attempts != 1 {
		t.Fatalf("images must win over a pending status, got %+v", result)
	}
}

func TestPollNestedResultImages(t *testing.T) {
	checker := &scriptedChecker{payloads: []map[string]any{
		{"status": "completed", "result": map[string]any{"images": []any{"u1"}}},
	}}

	result := newTestPoller(60).PollUntilDone(context.Background(), checker, "q1")
	if !result.Success || len(result.OutputImages) != 1 {
		t.Fatalf("nested result images not found: %+v", result)
	}
}

func TestPollFailureStatusSynonyms(t *testing.T) {
	for _, status := range []string{"FAILED", "failed", "error"} {
		checker := &scriptedChecker{payloads: []map[string]any{
			{"status": status, "error": "model crashed"},
		}}
		result := newTestPoller(60).PollUntilDone(context.Background(), checker, "q1")
		if result.Success {
			t.Fatalf("status %q: expected failure", status)
		}
		if result.Error != "model crashed" {
			t.Fatalf("status %q: expected provider error, got %q", status, result.Error)
		}
		if result.Attempts != 1 {
			t.Fatalf("status %q: expected 1 attempt, got %d", status, result.Attempts)
		}
	}
}

func TestPollFailureWithoutProviderMessage(t *testing.T) {
	checker := &scriptedChecker{payloads: []map[string]any{
		{"status": "FAILED"},
	}}
	result := newTestPoller(60).PollUntilDone(context.Background(), checker, "q1")
	if result.Success || result.Error != "Generation failed" {
		t.Fatalf("expected default failure message, got %+v", result)
	}
}

func TestPollExhaustsAttemptBudget(t *testing.T) {
	checker := &scriptedChecker{payloads: []map[string]any{
		{"status": "PROCESSING"},
	}}

	result := newTestPoller(60).PollUntilDone(context.Background(), checker, "q1")
	if result.Success {
		t.Fatalf("expected timeout failure")
	}
	if checker.calls != 60 {
		t.Fatalf("expected exactly 60 status checks, got %d", checker.calls)
	}
	if result.Attempts != 60 {
		t.Fatalf("expected 60 attempts, got %d", result.Attempts)
	}
	if !strings.Contains(result.Error, "Timeout after 60 attempts") {
		t.Fatalf("unexpected error: %q", result.Error)
	}
}

func TestPollTransientErrorsConsumeAttempts(t *testing.T) {
	transient := errors.New("connection reset")
	checker := &scriptedChecker{
		payloads: []map[string]any{
			nil,
			nil,
			{"status": "succeeded", "output": []any{"u1"}},
		},
		errs: []error{transient, transient, nil},
	}

	result := newTestPoller(60).PollUntilDone(context.Background(), checker, "q1")
	if !result.Success {
		t.Fatalf("expected eventual success, got %+v", result)
	}
	if result.Attempts != 3 {
		t.Fatalf("transient errors must count, got %d attempts", result.Attempts)
	}
}

func TestPollTransientErrorsOnlyTimesOut(t *testing.T) {
	failing := &scriptedChecker{
		payloads: []map[string]any{nil},
		errs:     []error{errors.New("unreachable")},
	}
	result := newTestPoller(5).PollUntilDone(context.Background(), failing, "q1")
	if result.Success || failing.calls != 5 {
		t.Fatalf("expected 5 failed checks, got %d (result %+v)", failing.calls, result)
	}
	if !strings.Contains(result.Error, "Timeout after 5 attempts") {
		t.Fatalf("unexpected error: %q", result.Error)
	}
}

func TestPollContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	checker := &scriptedChecker{payloads: []map[string]any{{"status": "PROCESSING"}}}
	poller := NewPoller(PollerOptions{Interval: time.Hour, MaxAttempts: 60, Vocabulary: testVocab})

	done := make(chan Result, 1)
	go func() { done <- poller.PollUntilDone(ctx, checker, "q1") }()

	select {
	case result := <-done:
		if result.Success {
			t.Fatalf("expected cancellation failure")
		}
		if checker.calls != 0 {
			t.Fatalf("no checks expected after cancellation, got %d", checker.calls)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("poll did not return after context cancellation")
	}
}

func TestPollSingleStringImageField(t *testing.T) {
	checker := &scriptedChecker{payloads: []map[string]any{
		{"status": "SUCCEEDED", "output": "https://cdn.example.com/one.png", "original_image": "https://cdn.example.com/in.png"},
	}}
	result := newTestPoller(60).PollUntilDone(context.Background(), checker, "q1")
	if !result.Success || len(result.OutputImages) != 1 {
		t.Fatalf("string image field not handled: %+v", result)
	}
	if result.InputImage != "https://cdn.example.com/in.png" {
		t.Fatalf("input image not captured: %q", result.InputImage)
	}
}

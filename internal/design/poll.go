package design

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// StatusChecker issues one status lookup for a queued provider job. The
// payload is the decoded JSON body, shape left to the provider.
type StatusChecker interface {
	CheckStatus(ctx context.Context, queueID string) (map[string]any, error)
}

// Vocabulary declares how one provider spells its status machine. Providers
// disagree on casing, wording and field names; the poller only ever consults
// this table instead of comparing strings inline.
type Vocabulary struct {
	StatusFields    []string
	SuccessStatuses []string
	FailureStatuses []string
	PendingStatuses []string
	ImageFields     []string
	InputFields     []string
	ErrorFields     []string
}

func (v Vocabulary) isSuccess(status string) bool { return containsFold(v.SuccessStatuses, status) }
func (v Vocabulary) isFailure(status string) bool { return containsFold(v.FailureStatuses, status) }

func containsFold(list []string, s string) bool {
	for _, candidate := range list {
		if strings.EqualFold(candidate, s) {
			return true
		}
	}
	return false
}

const (
	defaultPollInterval = time.Second
	defaultMaxAttempts  = 60
)

// PollerOptions configures a Poller. Zero values fall back to the provider
// contract of one attempt per second, 60 attempts.
type PollerOptions struct {
	Interval    time.Duration
	MaxAttempts int
	Vocabulary  Vocabulary
	Logger      *zerolog.Logger
}

// Poller resolves an async provider job into a terminal Result. Each Poller
// is stateless across calls; concurrent polls for different queue ids are
// independent.
type Poller struct {
	interval    time.Duration
	maxAttempts int
	vocab       Vocabulary
	logger      zerolog.Logger
}

func NewPoller(opts PollerOptions) *Poller {
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	logger := zerolog.New(io.Discard)
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Poller{interval: interval, maxAttempts: maxAttempts, vocab: opts.Vocabulary, logger: logger}
}

// PollUntilDone checks the job status once per interval until the provider
// reports a terminal state or the attempt budget runs out.
//
// Success is image-presence-first: a non-empty image list under any known
// field wins regardless of the literal status string, because some providers
// attach results before ever reporting a success status. Transient check
// errors consume an attempt and the loop continues.
func (p *Poller) PollUntilDone(ctx context.Context, checker StatusChecker, queueID string) Result {
	attempts := 0
	for attempts < p.maxAttempts {
		select {
		case <-ctx.Done():
			return Result{Success: false, Error: ctx.Err().Error(), Attempts: attempts}
		case <-time.After(p.interval):
		}

		payload, err := checker.CheckStatus(ctx, queueID)
		if err != nil {
			p.logger.Warn().Err(err).Str("queue_id", queueID).Int("attempt", attempts+1).Msg("poll: status check failed")
			attempts++
			continue
		}

		images := p.imagesFromPayload(payload)
		if len(images) > 0 {
			return Result{
				Success:      true,
				InputImage:   firstString(payload, p.vocab.InputFields),
				OutputImages: images,
				Attempts:     attempts + 1,
			}
		}

		status := firstString(payload, p.vocab.StatusFields)
		if p.vocab.isFailure(status) {
			msg := firstString(payload, p.vocab.ErrorFields)
			if msg == "" {
				msg = "Generation failed"
			}
			return Result{Success: false, Error: msg, Attempts: attempts + 1}
		}
		if status != "" && !containsFold(p.vocab.PendingStatuses, status) {
			p.logger.Warn().Str("queue_id", queueID).Str("status", status).Msg("poll: unrecognized status, continuing")
		} else {
			p.logger.Debug().Str("queue_id", queueID).Str("status", status).Int("attempt", attempts+1).Msg("poll: still pending")
		}
		attempts++
	}
	return Result{
		Success:  false,
		Error:    fmt.Sprintf("Timeout after %d attempts", attempts),
		Attempts: attempts,
	}
}

// imagesFromPayload scans the candidate image fields at the payload root and,
// failing that, one level down inside "result".
func (p *Poller) imagesFromPayload(payload map[string]any) []string {
	if images := imagesFromFields(payload, p.vocab.ImageFields); len(images) > 0 {
		return images
	}
	if nested, ok := payload["result"].(map[string]any); ok {
		return imagesFromFields(nested, p.vocab.ImageFields)
	}
	return nil
}

func imagesFromFields(payload map[string]any, fields []string) []string {
	for _, field := range fields {
		raw, ok := payload[field]
		if !ok {
			continue
		}
		switch v := raw.(type) {
		case []any:
			images := make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok && s != "" {
					images = append(images, s)
				}
			}
			if len(images) > 0 {
				return images
			}
		case []string:
			if len(v) > 0 {
				return v
			}
		case string:
			if v != "" {
				return []string{v}
			}
		}
	}
	return nil
}

func firstString(payload map[string]any, fields []string) string {
	for _, field := range fields {
		if s, ok := payload[field].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

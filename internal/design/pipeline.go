package design

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
)

// RecordStore is the slice of the design repository the pipeline needs.
type RecordStore interface {
	MarkProcessing(ctx context.Context, designID string) error
	Complete(ctx context.Context, designID string, imageURLs []string, duration time.Duration, meta domain.DesignMetadata) error
	Fail(ctx context.Context, designID string, errMsg string) error
}

// Translator rewrites a custom instruction into English. Implementations
// must be best effort and return the input on failure.
type Translator interface {
	ToEnglish(ctx context.Context, text string) string
}

// Task is one generation bound to a persisted design record.
type Task struct {
	DesignID string
	Request  Request
	Style    string
	RoomType string
	// Claimed marks records the worker already moved to PROCESSING while
	// claiming them, so the pipeline skips the redundant status write.
	Claimed bool
}

// Runner drives one design record through its full lifecycle: mark it
// processing, generate, persist artifacts, then record the terminal state.
type Runner struct {
	records    RecordStore
	orch       *Orchestrator
	persister  *ArtifactPersister
	translator Translator
	logger     zerolog.Logger
}

type RunnerOptions struct {
	Records    RecordStore
	Orch       *Orchestrator
	Persister  *ArtifactPersister
	Translator Translator
	Logger     *zerolog.Logger
}

func NewRunner(opts RunnerOptions) *Runner {
	logger := zerolog.New(io.Discard)
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Runner{
		records:    opts.Records,
		orch:       opts.Orch,
		persister:  opts.Persister,
		translator: opts.Translator,
		logger:     logger,
	}
}

// Start runs the task on its own goroutine so the submitting request can
// return immediately.
func (r *Runner) Start(ctx context.Context, task Task) {
	go r.Run(ctx, task)
}

// Run executes the task synchronously. Used directly by the worker binary,
// which manages its own goroutines. A panic anywhere in the pipeline fails
// the record instead of taking the process down, so a claimed record never
// stays stuck in PROCESSING.
func (r *Runner) Run(ctx context.Context, task Task) {
	logger := r.logger.With().Str("design_id", task.DesignID).Logger()
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error().Interface("panic", rec).Msg("pipeline: recovered from panic")
			_ = r.records.Fail(ctx, task.DesignID, "internal error during generation")
		}
	}()

	if !task.Claimed {
		if err := r.records.MarkProcessing(ctx, task.DesignID); err != nil {
			logger.Error().Err(err).Msg("pipeline: mark processing failed")
			return
		}
	}

	req := task.Request
	if r.translator != nil && req.CustomInstruction != "" {
		req.CustomInstruction = r.translator.ToEnglish(ctx, req.CustomInstruction)
	}

	started := time.Now()
	result := r.orch.Generate(ctx, req)
	elapsed := time.Since(started)

	if !result.Success {
		logger.Warn().Str("error", result.Error).Int("attempts", result.Attempts).Msg("pipeline: generation failed")
		if err := r.records.Fail(ctx, task.DesignID, result.Error); err != nil {
			logger.Error().Err(err).Msg("pipeline: record failure write failed")
		}
		return
	}

	urls := result.OutputImages
	if r.persister != nil {
		urls = r.persister.Persist(ctx, task.DesignID, urls)
	}

	meta := domain.DesignMetadata{
		Style:          task.Style,
		RoomType:       task.RoomType,
		AIIntervention: string(req.Intervention),
		Attempts:       result.Attempts,
		GeneratedCount: len(urls),
	}
	if err := r.records.Complete(ctx, task.DesignID, urls, elapsed, meta); err != nil {
		logger.Error().Err(err).Msg("pipeline: record completion write failed")
		return
	}
	logger.Info().Int("images", len(urls)).Dur("elapsed", elapsed).Int("attempts", result.Attempts).Msg("pipeline: design completed")
}

package design

import (
	"context"
	"io"

	"github.com/rs/zerolog"
)

// Orchestrator is the single entry point for generation. It hides whether
// the provider answered synchronously or via polling, and it never lets an
// error escape: callers only ever observe the Result shape.
type Orchestrator struct {
	primary  Generator
	fallback Generator
	logger   zerolog.Logger
}

// NewOrchestrator wires a primary generator with an optional fallback tried
// when the primary fails outright.
func NewOrchestrator(primary Generator, fallback Generator, logger *zerolog.Logger) *Orchestrator {
	l := zerolog.New(io.Discard)
	if logger != nil {
		l = *logger
	}
	return &Orchestrator{primary: primary, fallback: fallback, logger: l}
}

// Generate submits the request and resolves it to a terminal Result.
func (o *Orchestrator) Generate(ctx context.Context, req Request) Result {
	if o == nil || o.primary == nil {
		return Result{Success: false, Error: "no generation provider configured"}
	}

	result, err := o.primary.Generate(ctx, req)
	if err == nil {
		return result
	}
	o.logger.Error().Err(err).Str("provider", o.primary.Name()).Msg("orchestrator: generation failed")

	if o.fallback != nil {
		o.logger.Info().Str("provider", o.fallback.Name()).Msg("orchestrator: trying fallback provider")
		result, ferr := o.fallback.Generate(ctx, req)
		if ferr == nil {
			return result
		}
		o.logger.Error().Err(ferr).Str("provider", o.fallback.Name()).Msg("orchestrator: fallback failed")
	}

	return Result{Success: false, Error: err.Error()}
}

// Provider returns the name of the primary generator, used for the
// provider column on design records.
func (o *Orchestrator) Provider() string {
	if o == nil || o.primary == nil {
		return ""
	}
	return o.primary.Name()
}

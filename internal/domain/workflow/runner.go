package workflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"webhook-bridge/internal/infrastructure/metrics"
	"webhook-bridge/utils/platformerrors"
)

// StepStatus is the outcome of one side-effect branch.
type StepStatus string

const (
	StatusSuccess   StepStatus = "success"
	StatusFailed    StepStatus = "failed"
	StatusSkipped   StepStatus = "skipped"
	StatusException StepStatus = "exception"
)

// StepResult records the outcome of one step for the aggregate response.
type StepResult struct {
	Name   string     `json:"name"`
	Status StepStatus `json:"status"`
	Detail string     `json:"detail,omitempty"`
}

// AggregateResult is the combined outcome of a webhook flow. OK is false
// only when a required step failed; optional-step failures are surfaced
// through the step list and logging, never through the acknowledgment.
type AggregateResult struct {
	OK    bool         `json:"ok"`
	Steps []StepResult `json:"steps"`
}

// Failed reports whether any step ended in failure or exception.
func (r *AggregateResult) Failed() bool {
	for _, s := range r.Steps {
		if s.Status == StatusFailed || s.Status == StatusException {
			return true
		}
	}
	return false
}

// Step is one independent side-effect branch. Run returns an optional
// human-readable detail for the step result. A platformerrors CONFIGURATION
// error marks the step skipped rather than failed.
type Step struct {
	Name     string
	Required bool
	Run      func(ctx context.Context) (string, error)
}

// Run executes the steps with bounded concurrency and collects one result
// per step, in the order given. A step's failure or panic never blocks the
// execution of its siblings and never unwinds past the runner.
func Run(ctx context.Context, flow string, steps []Step, maxConcurrent int) AggregateResult {
	if maxConcurrent <= 0 {
		maxConcurrent = len(steps)
	}

	results := make([]StepResult, len(steps))
	sem := make(chan struct{}, maxConcurrent)

	var wg sync.WaitGroup
	for i, step := range steps {
		wg.Add(1)
		go func(i int, step Step) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = runStep(ctx, flow, step)
		}(i, step)
	}
	wg.Wait()

	agg := AggregateResult{OK: true, Steps: results}
	for i, s := range results {
		if steps[i].Required && (s.Status == StatusFailed || s.Status == StatusException) {
			agg.OK = false
		}
	}
	return agg
}

func runStep(ctx context.Context, flow string, step Step) (result StepResult) {
	result = StepResult{Name: step.Name}

	defer func() {
		if r := recover(); r != nil {
			result.Status = StatusException
			result.Detail = fmt.Sprintf("panic: %v", r)
			log.Error().
				Str("flow", flow).
				Str("step", step.Name).
				Interface("panic", r).
				Msg("step panicked")
		}
		metrics.RecordStep(flow, step.Name, string(result.Status))
	}()

	detail, err := step.Run(ctx)
	switch {
	case err == nil:
		result.Status = StatusSuccess
		result.Detail = detail
		log.Info().Str("flow", flow).Str("step", step.Name).Str("detail", detail).Msg("step succeeded")
	case platformerrors.IsErrorType(err, platformerrors.ErrorTypeConfiguration):
		result.Status = StatusSkipped
		result.Detail = err.Error()
		log.Warn().Str("flow", flow).Str("step", step.Name).Err(err).Msg("step skipped, not configured")
	default:
		result.Status = StatusFailed
		result.Detail = err.Error()
		log.Error().Str("flow", flow).Str("step", step.Name).Err(err).Msg("step failed")
	}
	return result
}

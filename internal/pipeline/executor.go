package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"reelcraft/internal/domain"
	"reelcraft/internal/storage"
)

// ObjectCopier is the slice of the content store the executor needs.
type ObjectCopier interface {
	CopyFromURL(ctx context.Context, sourceURL, destKey string) (string, error)
}

// StageOutput is a durably stored stage result.
type StageOutput struct {
	PermanentURL string
	Metadata     map[string]any
}

// Executor runs one stage's model invocation with bounded retry and
// relocates the transient output into permanent storage. A stage does not
// count as done until the copy succeeds, so the copy sits inside the
// retry budget alongside the invocation.
type Executor struct {
	store    ObjectCopier
	logger   zerolog.Logger
	attempts int
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewExecutor creates an Executor with retries extra attempts after the
// first (reference policy: 2 retries, 3 total attempts).
func NewExecutor(store ObjectCopier, logger zerolog.Logger, retries int) *Executor {
	if retries < 0 {
		retries = 0
	}
	return &Executor{
		store:    store,
		logger:   logger,
		attempts: retries + 1,
		sleep:    sleepCtx,
	}
}

// Execute invokes the model and copies its output under the stage's
// deterministic key. After exhausting the retry budget the last error
// propagates as an unrecoverable stage failure.
func (e *Executor) Execute(ctx context.Context, stage domain.Stage, inv Invoker, in Invocation) (StageOutput, error) {
	destKey := storage.JobOutputKey(in.JobID, stage)

	var lastErr error
	for attempt := 1; attempt <= e.attempts; attempt++ {
		stageAttemptsTotalMetric.WithLabelValues(string(stage)).Inc()
		out, err := e.attemptOnce(ctx, inv, in, destKey)
		if err == nil {
			return out, nil
		}
		lastErr = err
		remaining := e.attempts - attempt
		e.logger.Warn().Err(err).
			Str("job_id", in.JobID).
			Str("stage", string(stage)).
			Int("attempt", attempt).
			Int("retries_left", remaining).
			Msg("executor: attempt failed")
		if remaining == 0 {
			break
		}
		if err := e.sleep(ctx, backoffDelay(attempt)); err != nil {
			return StageOutput{}, fmt.Errorf("stage %s: %w", stage, err)
		}
	}
	return StageOutput{}, fmt.Errorf("stage %s failed after %d attempts: %w", stage, e.attempts, lastErr)
}

func (e *Executor) attemptOnce(ctx context.Context, inv Invoker, in Invocation, destKey string) (StageOutput, error) {
	result, err := inv.Invoke(ctx, in)
	if err != nil {
		return StageOutput{}, fmt.Errorf("invoke %s: %w", inv.ModelName(), err)
	}
	if result.OutputURL == "" {
		return StageOutput{}, fmt.Errorf("invoke %s: empty output url", inv.ModelName())
	}
	permanentURL, err := e.store.CopyFromURL(ctx, result.OutputURL, destKey)
	if err != nil {
		return StageOutput{}, fmt.Errorf("copy output to storage: %w", err)
	}
	return StageOutput{PermanentURL: permanentURL, Metadata: result.Metadata}, nil
}

func backoffDelay(attempt int) time.Duration {
	return time.Duration(attempt) * time.Second
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

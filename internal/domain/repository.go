package domain

import (
	"context"
	"time"
)

// JobRepository defines persistence for jobs and their stage sub-records.
// All updates are scoped by job id.
type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	GetByID(ctx context.Context, jobID string) (*Job, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]Job, error)
	Delete(ctx context.Context, jobID string) error

	SetStatus(ctx context.Context, jobID string, status JobStatus) error
	StartStage(ctx context.Context, jobID string, stage Stage, modelID string, startedAt time.Time) error
	CompleteStage(ctx context.Context, jobID string, stage Stage, outputURL string, completedAt time.Time) error
	FailStage(ctx context.Context, jobID string, stage Stage, errMsg string) error
	SetProductDescription(ctx context.Context, jobID, description string) error
	Complete(ctx context.Context, jobID string, durationMS int64) error
	Fail(ctx context.Context, jobID, errMsg string) error

	// ListStaleProcessing returns jobs still marked processing whose last
	// update is older than the cutoff. Used by the startup sweep.
	ListStaleProcessing(ctx context.Context, cutoff time.Time) ([]Job, error)
}

// CreditStore is the atomic balance capability backing the ledger. The
// balance mutation must happen server-side in a single statement so two
// concurrent adjustments for the same user cannot lose an update.
type CreditStore interface {
	// AdjustBalance atomically applies a signed delta and returns the new
	// balance. It fails with ErrInsufficientCredits instead of driving the
	// balance negative.
	AdjustBalance(ctx context.Context, userID string, delta int) (int, error)
	Balance(ctx context.Context, userID string) (int, error)
	InsertTransaction(ctx context.Context, tx *CreditTransaction) error
	ListTransactions(ctx context.Context, userID string, limit int) ([]CreditTransaction, error)
}

// ModelConfigRepository resolves the active model configuration per stage.
type ModelConfigRepository interface {
	// ActiveForStage returns the highest-priority active configuration for
	// the stage, or ErrStageNotConfigured.
	ActiveForStage(ctx context.Context, stage Stage) (*ModelConfig, error)
}

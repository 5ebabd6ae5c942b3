package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"reelcraft/internal/domain"
)

// JobRepositoryPG implements domain.JobRepository.
type JobRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewJobRepository creates a new job repository backed by PostgreSQL.
func NewJobRepository(pool *pgxpool.Pool) *JobRepositoryPG {
	return &JobRepositoryPG{pool: pool}
}

// stageColumns maps each stage to its fixed column group. The table keeps
// one column group per stage rather than a join table so a job row is a
// complete progress snapshot.
var stageColumns = map[domain.Stage]struct {
	status, output, errMsg, modelID, startedAt, completedAt string
}{
	domain.StageAnalyzer:        {"analyzer_status", "analyzer_output_url", "analyzer_error", "analyzer_model_id", "analyzer_started_at", "analyzer_completed_at"},
	domain.StageExtractor:       {"extractor_status", "extractor_output_url", "extractor_error", "extractor_model_id", "extractor_started_at", "extractor_completed_at"},
	domain.StageSetDesigner:     {"set_designer_status", "set_designer_output_url", "set_designer_error", "set_designer_model_id", "set_designer_started_at", "set_designer_completed_at"},
	domain.StageCinematographer: {"cinematographer_status", "cinematographer_output_url", "cinematographer_error", "cinematographer_model_id", "cinematographer_started_at", "cinematographer_completed_at"},
}

const jobSelectColumns = `
id, user_id, input_image_url, vibe, pipeline_version, status,
analyzer_status, COALESCE(analyzer_output_url, ''), COALESCE(analyzer_error, ''), COALESCE(analyzer_model_id, ''), analyzer_started_at, analyzer_completed_at,
extractor_status, COALESCE(extractor_output_url, ''), COALESCE(extractor_error, ''), COALESCE(extractor_model_id, ''), extractor_started_at, extractor_completed_at,
set_designer_status, COALESCE(set_designer_output_url, ''), COALESCE(set_designer_error, ''), COALESCE(set_designer_model_id, ''), set_designer_started_at, set_designer_completed_at,
cinematographer_status, COALESCE(cinematographer_output_url, ''), COALESCE(cinematographer_error, ''), COALESCE(cinematographer_model_id, ''), cinematographer_started_at, cinematographer_completed_at,
COALESCE(product_description, ''), credits_used, total_duration_ms, COALESCE(error_message, ''), created_at, updated_at`

func scanJob(row pgx.Row) (*domain.Job, error) {
	var job domain.Job
	if err := row.Scan(
		&job.ID,
		&job.UserID,
		&job.InputImageURL,
		&job.Vibe,
		&job.PipelineVersion,
		&job.Status,
		&job.Analyzer.Status, &job.Analyzer.OutputURL, &job.Analyzer.Error, &job.Analyzer.ModelID, &job.Analyzer.StartedAt, &job.Analyzer.CompletedAt,
		&job.Extractor.Status, &job.Extractor.OutputURL, &job.Extractor.Error, &job.Extractor.ModelID, &job.Extractor.StartedAt, &job.Extractor.CompletedAt,
		&job.SetDesigner.Status, &job.SetDesigner.OutputURL, &job.SetDesigner.Error, &job.SetDesigner.ModelID, &job.SetDesigner.StartedAt, &job.SetDesigner.CompletedAt,
		&job.Cinematographer.Status, &job.Cinematographer.OutputURL, &job.Cinematographer.Error, &job.Cinematographer.ModelID, &job.Cinematographer.StartedAt, &job.Cinematographer.CompletedAt,
		&job.ProductDescription,
		&job.CreditsUsed,
		&job.TotalDurationMS,
		&job.ErrorMessage,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

// Create inserts a new job record with all stage sub-records pending.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.Job) error {
	query := `
INSERT INTO jobs (id, user_id, input_image_url, vibe, pipeline_version, status, credits_used)
VALUES ($1, $2, $3, $4, $5, $6, $7);
`
	_, err := r.pool.Exec(ctx, query,
		job.ID,
		job.UserID,
		job.InputImageURL,
		job.Vibe,
		job.PipelineVersion,
		job.Status,
		job.CreditsUsed,
	)
	return err
}

// GetByID fetches a job by its identifier.
func (r *JobRepositoryPG) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	query := `SELECT ` + jobSelectColumns + ` FROM jobs WHERE id = $1;`
	return scanJob(r.pool.QueryRow(ctx, query, jobID))
}

// ListByUser returns the user's jobs, newest first.
func (r *JobRepositoryPG) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Job, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + jobSelectColumns + ` FROM jobs WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2;`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// Delete removes a job row.
func (r *JobRepositoryPG) Delete(ctx context.Context, jobID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1;`, jobID)
	return err
}

// SetStatus updates the overall job status.
func (r *JobRepositoryPG) SetStatus(ctx context.Context, jobID string, status domain.JobStatus) error {
	_, err := r.pool.Exec(ctx, `UPDATE jobs SET status = $2, updated_at = NOW() WHERE id = $1;`, jobID, status)
	return err
}

// StartStage marks a stage processing and records the resolved model.
func (r *JobRepositoryPG) StartStage(ctx context.Context, jobID string, stage domain.Stage, modelID string, startedAt time.Time) error {
	cols, ok := stageColumns[stage]
	if !ok {
		return fmt.Errorf("unknown stage %q", stage)
	}
	query := fmt.Sprintf(`
UPDATE jobs
SET %s = $2, %s = $3, %s = $4, updated_at = NOW()
WHERE id = $1;
`, cols.status, cols.modelID, cols.startedAt)
	_, err := r.pool.Exec(ctx, query, jobID, domain.StageStatusProcessing, modelID, startedAt)
	return err
}

// CompleteStage records a stage's durable output URL and completion time.
func (r *JobRepositoryPG) CompleteStage(ctx context.Context, jobID string, stage domain.Stage, outputURL string, completedAt time.Time) error {
	cols, ok := stageColumns[stage]
	if !ok {
		return fmt.Errorf("unknown stage %q", stage)
	}
	query := fmt.Sprintf(`
UPDATE jobs
SET %s = $2, %s = $3, %s = $4, updated_at = NOW()
WHERE id = $1;
`, cols.status, cols.output, cols.completedAt)
	_, err := r.pool.Exec(ctx, query, jobID, domain.StageStatusCompleted, outputURL, completedAt)
	return err
}

// FailStage records a stage failure message.
func (r *JobRepositoryPG) FailStage(ctx context.Context, jobID string, stage domain.Stage, errMsg string) error {
	cols, ok := stageColumns[stage]
	if !ok {
		return fmt.Errorf("unknown stage %q", stage)
	}
	query := fmt.Sprintf(`
UPDATE jobs
SET %s = $2, %s = $3, updated_at = NOW()
WHERE id = $1;
`, cols.status, cols.errMsg)
	_, err := r.pool.Exec(ctx, query, jobID, domain.StageStatusFailed, errMsg)
	return err
}

// SetProductDescription stores the analyzer stage's caption.
func (r *JobRepositoryPG) SetProductDescription(ctx context.Context, jobID, description string) error {
	_, err := r.pool.Exec(ctx, `UPDATE jobs SET product_description = $2, updated_at = NOW() WHERE id = $1;`, jobID, description)
	return err
}

// Complete marks the job completed and stamps its total duration.
func (r *JobRepositoryPG) Complete(ctx context.Context, jobID string, durationMS int64) error {
	_, err := r.pool.Exec(ctx, `
UPDATE jobs SET status = $2, total_duration_ms = $3, updated_at = NOW() WHERE id = $1;
`, jobID, domain.JobStatusCompleted, durationMS)
	return err
}

// Fail marks the job failed with the last unrecoverable error message.
func (r *JobRepositoryPG) Fail(ctx context.Context, jobID, errMsg string) error {
	_, err := r.pool.Exec(ctx, `
UPDATE jobs SET status = $2, error_message = $3, updated_at = NOW() WHERE id = $1;
`, jobID, domain.JobStatusFailed, errMsg)
	return err
}

// ListStaleProcessing returns processing jobs not updated since the cutoff.
func (r *JobRepositoryPG) ListStaleProcessing(ctx context.Context, cutoff time.Time) ([]domain.Job, error) {
	query := `SELECT ` + jobSelectColumns + ` FROM jobs WHERE status = $1 AND updated_at < $2;`
	rows, err := r.pool.Query(ctx, query, domain.JobStatusProcessing, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

var _ domain.JobRepository = (*JobRepositoryPG)(nil)

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"reelcraft/internal/credits"
	"reelcraft/internal/domain"
)

// SweepStaleJobs fails and refunds jobs left processing by a previous
// process that died mid-run. Queue state is in-memory only, so a crash
// strands its in-flight jobs in processing forever; this runs once at
// startup before the queue accepts work. Returns how many jobs were swept.
func SweepStaleJobs(ctx context.Context, jobs domain.JobRepository, ledger *credits.Ledger, olderThan time.Duration, logger zerolog.Logger) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	stale, err := jobs.ListStaleProcessing(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list stale jobs: %w", err)
	}

	swept := 0
	for i := range stale {
		job := &stale[i]
		if err := jobs.Fail(ctx, job.ID, "processing interrupted by service restart"); err != nil {
			logger.Error().Err(err).Str("job_id", job.ID).Msg("sweep: mark failed failed")
			continue
		}
		if job.CreditsUsed > 0 {
			if err := ledger.Refund(ctx, job.UserID, job.CreditsUsed, job.ID); err != nil {
				logger.Error().Err(err).Str("job_id", job.ID).Msg("sweep: refund failed")
			}
		}
		swept++
		logger.Warn().Str("job_id", job.ID).Time("last_update", job.UpdatedAt).Msg("sweep: failed stale job")
	}
	return swept, nil
}

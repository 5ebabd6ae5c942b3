package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"reelcraft/internal/credits"
	"reelcraft/internal/domain"
	"reelcraft/internal/prompts"
)

// Orchestrator drives one job through its ordered stage sequence to a
// terminal state. It is the error boundary for a job: Run always resolves,
// never panics or returns, so a failure inside one job can never take down
// the admission queue or touch other jobs.
type Orchestrator struct {
	jobs        domain.JobRepository
	ledger      *credits.Ledger
	switchboard *Switchboard
	executor    *Executor
	logger      zerolog.Logger
	now         func() time.Time
}

// NewOrchestrator wires the orchestrator's collaborators.
func NewOrchestrator(jobs domain.JobRepository, ledger *credits.Ledger, switchboard *Switchboard, executor *Executor, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:        jobs,
		ledger:      ledger,
		switchboard: switchboard,
		executor:    executor,
		logger:      logger,
		now:         time.Now,
	}
}

// Run processes the job through all stages of its pipeline version. Every
// stage transition is persisted before the next stage starts; on any
// unrecoverable stage failure the job is finalized failed and its credits
// refunded.
func (o *Orchestrator) Run(ctx context.Context, jobID string) {
	logger := o.logger.With().Str("job_id", jobID).Logger()

	job, err := o.jobs.GetByID(ctx, jobID)
	if err != nil {
		logger.Error().Err(err).Msg("orchestrator: load job failed")
		return
	}
	if job.Status.Terminal() {
		logger.Warn().Str("status", string(job.Status)).Msg("orchestrator: job already terminal, skipping")
		return
	}

	logger.Info().Str("vibe", string(job.Vibe)).Str("pipeline", string(job.PipelineVersion)).Msg("orchestrator: starting job")

	job.Status = domain.JobStatusProcessing
	if err := o.jobs.SetStatus(ctx, jobID, domain.JobStatusProcessing); err != nil {
		logger.Error().Err(err).Msg("orchestrator: mark processing failed")
		// Proceed anyway; stage updates will still land and the final
		// status write decides the outcome.
	}

	for _, stage := range job.Stages() {
		if err := o.runStage(ctx, job, stage, logger); err != nil {
			o.finalizeFailed(ctx, job, err, logger)
			return
		}
	}

	o.finalizeCompleted(ctx, job, logger)
}

func (o *Orchestrator) runStage(ctx context.Context, job *domain.Job, stage domain.Stage, logger zerolog.Logger) error {
	logger.Info().Str("stage", string(stage)).Msg("orchestrator: starting stage")

	inputURL, err := stageInput(job, stage)
	if err != nil {
		o.persistStageFailure(ctx, job, stage, err, logger)
		return err
	}

	invoker, cfg, err := o.switchboard.Resolve(ctx, stage)
	if err != nil {
		o.persistStageFailure(ctx, job, stage, err, logger)
		return err
	}

	prompt, negative := o.stagePrompts(job, stage, logger)

	startedAt := o.now()
	if err := o.jobs.StartStage(ctx, job.ID, stage, cfg.ID, startedAt); err != nil {
		logger.Error().Err(err).Str("stage", string(stage)).Msg("orchestrator: persist stage start failed")
	}
	rec := job.StageRecordFor(stage)
	rec.Status = domain.StageStatusProcessing
	rec.ModelID = cfg.ID
	rec.StartedAt = &startedAt

	out, err := o.executor.Execute(ctx, stage, invoker, Invocation{
		JobID:          job.ID,
		InputURL:       inputURL,
		Prompt:         prompt,
		NegativePrompt: negative,
		Config:         cfg.Config,
	})
	if err != nil {
		o.persistStageFailure(ctx, job, stage, err, logger)
		return err
	}

	completedAt := o.now()
	if err := o.jobs.CompleteStage(ctx, job.ID, stage, out.PermanentURL, completedAt); err != nil {
		logger.Error().Err(err).Str("stage", string(stage)).Msg("orchestrator: persist stage completion failed")
	}
	rec.Status = domain.StageStatusCompleted
	rec.OutputURL = out.PermanentURL
	rec.CompletedAt = &completedAt

	if stage == domain.StageAnalyzer {
		if desc, ok := out.Metadata["product_description"].(string); ok && desc != "" {
			job.ProductDescription = desc
			if err := o.jobs.SetProductDescription(ctx, job.ID, desc); err != nil {
				logger.Error().Err(err).Msg("orchestrator: persist product description failed")
			}
			logger.Info().Str("product_description", desc).Msg("orchestrator: stored product description")
		}
	}

	logger.Info().Str("stage", string(stage)).Str("output_url", out.PermanentURL).Msg("orchestrator: stage completed")
	return nil
}

// stageInput resolves a stage's input: the prior stage's durable output,
// or the job's original upload for the first stage.
func stageInput(job *domain.Job, stage domain.Stage) (string, error) {
	var url string
	switch stage {
	case domain.StageAnalyzer:
		url = job.InputImageURL
	case domain.StageExtractor:
		// The analyzer passes the original image through untouched.
		url = job.Analyzer.OutputURL
		if url == "" {
			url = job.InputImageURL
		}
	case domain.StageSetDesigner:
		url = job.Extractor.OutputURL
	case domain.StageCinematographer:
		if job.PipelineVersion == domain.PipelineV1 {
			url = job.SetDesigner.OutputURL
		} else {
			url = job.Extractor.OutputURL
		}
	}
	if url == "" {
		return "", domain.ErrNoStageInput
	}
	return url, nil
}

// stagePrompts resolves the prompt pair for generative stages. A missing
// prompt for the video stage never aborts the job: it falls back to the
// generic template.
func (o *Orchestrator) stagePrompts(job *domain.Job, stage domain.Stage, logger zerolog.Logger) (string, string) {
	switch stage {
	case domain.StageCinematographer:
		if job.ProductDescription != "" {
			prompt := prompts.SmartVideoPrompt(job.ProductDescription)
			logger.Info().Str("prompt", prompt).Msg("orchestrator: generated smart prompt")
			return prompt, prompts.DefaultNegativePrompt()
		}
		logger.Warn().Msg("orchestrator: no product description, using generic prompt")
		return prompts.GenericVideoPrompt, prompts.DefaultNegativePrompt()
	case domain.StageSetDesigner:
		vp, ok := prompts.VibeTemplate(job.Vibe)
		if !ok {
			logger.Warn().Str("vibe", string(job.Vibe)).Msg("orchestrator: no template for vibe")
			return "", ""
		}
		return vp.Template, vp.Negative
	default:
		return "", ""
	}
}

func (o *Orchestrator) persistStageFailure(ctx context.Context, job *domain.Job, stage domain.Stage, stageErr error, logger zerolog.Logger) {
	if err := o.jobs.FailStage(ctx, job.ID, stage, stageErr.Error()); err != nil {
		logger.Error().Err(err).Str("stage", string(stage)).Msg("orchestrator: persist stage failure failed")
	}
	if rec := job.StageRecordFor(stage); rec != nil {
		rec.Status = domain.StageStatusFailed
		rec.Error = stageErr.Error()
	}
}

func (o *Orchestrator) finalizeCompleted(ctx context.Context, job *domain.Job, logger zerolog.Logger) {
	durationMS := o.now().Sub(job.CreatedAt).Milliseconds()
	if err := o.jobs.Complete(ctx, job.ID, durationMS); err != nil {
		logger.Error().Err(err).Msg("orchestrator: mark completed failed")
	}
	jobsProcessedTotalMetric.WithLabelValues("completed").Inc()
	logger.Info().Int64("duration_ms", durationMS).Msg("orchestrator: job completed")
}

func (o *Orchestrator) finalizeFailed(ctx context.Context, job *domain.Job, cause error, logger zerolog.Logger) {
	if err := o.jobs.Fail(ctx, job.ID, cause.Error()); err != nil {
		logger.Error().Err(err).Msg("orchestrator: mark failed failed")
	}
	jobsProcessedTotalMetric.WithLabelValues("failed").Inc()

	if job.CreditsUsed > 0 {
		if err := o.ledger.Refund(ctx, job.UserID, job.CreditsUsed, job.ID); err != nil {
			// The job stays failed; the discrepancy surfaces through logs
			// and the audit trail for operator action.
			logger.Error().Err(err).Int("credits", job.CreditsUsed).Msg("orchestrator: refund failed")
		}
	}
	logger.Error().Err(cause).Msg("orchestrator: job failed")
}

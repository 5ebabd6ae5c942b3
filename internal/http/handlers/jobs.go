package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"reelcraft/internal/domain"
	"reelcraft/internal/storage"
)

// estimatedJobSeconds is the rough wall-clock a full pipeline takes; the
// client uses it to pace its polling.
const estimatedJobSeconds = 180

type createJobRequest struct {
	InputImageURL string `json:"input_image_url" validate:"required,url"`
	Vibe          string `json:"vibe" validate:"omitempty,oneof=minimalist eco_friendly high_energy luxury_noir"`
}

type createJobResponse struct {
	JobID                    string `json:"job_id"`
	Status                   string `json:"status"`
	EstimatedDurationSeconds int    `json:"estimated_duration_seconds"`
	CreditsUsed              int    `json:"credits_used"`
}

func (a *App) CreateJob(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req createJobRequest
	if !a.decodeAndValidate(w, r, &req) {
		return
	}

	ok, err := a.Ledger.HasCredits(r.Context(), userID, a.CreditsPerJob)
	if err != nil {
		a.Logger.Error().Err(err).Msg("jobs: credit check failed")
		a.error(w, http.StatusInternalServerError, "internal", "credit check failed")
		return
	}
	if !ok {
		a.error(w, http.StatusPaymentRequired, "insufficient_credits", "not enough credits to start a job")
		return
	}

	now := time.Now()
	job := &domain.Job{
		ID:              uuid.NewString(),
		UserID:          userID,
		InputImageURL:   req.InputImageURL,
		Vibe:            domain.Vibe(req.Vibe),
		PipelineVersion: domain.PipelineV2,
		Status:          domain.JobStatusPending,
		CreditsUsed:     a.CreditsPerJob,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := a.Jobs.Create(r.Context(), job); err != nil {
		a.Logger.Error().Err(err).Msg("jobs: create failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to create job")
		return
	}

	if err := a.Ledger.Deduct(r.Context(), userID, a.CreditsPerJob, job.ID); err != nil {
		// Undo the job row so a failed deduction leaves no orphan.
		if delErr := a.Jobs.Delete(r.Context(), job.ID); delErr != nil {
			a.Logger.Error().Err(delErr).Str("job_id", job.ID).Msg("jobs: rollback after failed deduction failed")
		}
		if errors.Is(err, domain.ErrInsufficientCredits) {
			a.error(w, http.StatusPaymentRequired, "insufficient_credits", "not enough credits to start a job")
			return
		}
		a.Logger.Error().Err(err).Msg("jobs: credit deduction failed")
		a.error(w, http.StatusInternalServerError, "internal", "credit deduction failed")
		return
	}

	a.Queue.Enqueue(job.ID)

	a.json(w, http.StatusCreated, createJobResponse{
		JobID:                    job.ID,
		Status:                   string(job.Status),
		EstimatedDurationSeconds: estimatedJobSeconds,
		CreditsUsed:              job.CreditsUsed,
	})
}

type stageView struct {
	Status      string     `json:"status"`
	OutputURL   string     `json:"output_url,omitempty"`
	Error       string     `json:"error,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type jobView struct {
	ID                 string               `json:"id"`
	Status             string               `json:"status"`
	ProgressPercentage int                  `json:"progress_percentage"`
	CurrentStage       string               `json:"current_stage,omitempty"`
	InputImageURL      string               `json:"input_image_url"`
	VideoURL           string               `json:"video_url,omitempty"`
	ProductDescription string               `json:"product_description,omitempty"`
	Vibe               string               `json:"vibe,omitempty"`
	Stages             map[string]stageView `json:"stages"`
	CreditsUsed        int                  `json:"credits_used"`
	Error              string               `json:"error,omitempty"`
	TotalDurationMS    *int64               `json:"total_duration_ms,omitempty"`
	CreatedAt          time.Time            `json:"created_at"`
}

func viewOf(job *domain.Job) jobView {
	stages := make(map[string]stageView, len(job.Stages()))
	for _, s := range job.Stages() {
		rec := job.StageRecordFor(s)
		status := rec.Status
		if status == "" {
			status = domain.StageStatusPending
		}
		stages[string(s)] = stageView{
			Status:      string(status),
			OutputURL:   rec.OutputURL,
			Error:       rec.Error,
			StartedAt:   rec.StartedAt,
			CompletedAt: rec.CompletedAt,
		}
	}
	view := jobView{
		ID:                 job.ID,
		Status:             string(job.Status),
		ProgressPercentage: job.Progress(),
		InputImageURL:      job.InputImageURL,
		VideoURL:           job.Cinematographer.OutputURL,
		ProductDescription: job.ProductDescription,
		Vibe:               string(job.Vibe),
		Stages:             stages,
		CreditsUsed:        job.CreditsUsed,
		Error:              job.ErrorMessage,
		TotalDurationMS:    job.TotalDurationMS,
		CreatedAt:          job.CreatedAt,
	}
	if current, ok := job.CurrentStage(); ok {
		view.CurrentStage = string(current)
	}
	return view
}

func (a *App) GetJob(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	job, ok := a.loadOwnedJob(w, r, userID)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, viewOf(job))
}

func (a *App) ListJobs(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	jobs, err := a.Jobs.ListByUser(r.Context(), userID, 50)
	if err != nil {
		a.Logger.Error().Err(err).Msg("jobs: list failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to list jobs")
		return
	}
	views := make([]jobView, 0, len(jobs))
	for i := range jobs {
		views = append(views, viewOf(&jobs[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"jobs": views})
}

func (a *App) DeleteJob(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	job, ok := a.loadOwnedJob(w, r, userID)
	if !ok {
		return
	}
	if job.Status == domain.JobStatusProcessing {
		a.error(w, http.StatusConflict, "conflict", "job is processing; wait for it to finish")
		return
	}

	// A pending job paid for work that will never run. Failed jobs were
	// already refunded when they failed.
	if job.Status == domain.JobStatusPending && job.CreditsUsed > 0 {
		if err := a.Ledger.Refund(r.Context(), userID, job.CreditsUsed, job.ID); err != nil {
			a.Logger.Error().Err(err).Str("job_id", job.ID).Msg("jobs: refund on delete failed")
		}
	}

	if err := a.Store.RemovePrefix(r.Context(), storage.JobPrefix(job.ID)); err != nil {
		a.Logger.Error().Err(err).Str("job_id", job.ID).Msg("jobs: storage cleanup failed")
	}
	if err := a.Jobs.Delete(r.Context(), job.ID); err != nil {
		a.Logger.Error().Err(err).Str("job_id", job.ID).Msg("jobs: delete failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to delete job")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (a *App) loadOwnedJob(w http.ResponseWriter, r *http.Request, userID string) (*domain.Job, bool) {
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return nil, false
	}
	job, err := a.Jobs.GetByID(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "job not found")
			return nil, false
		}
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("jobs: load failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load job")
		return nil, false
	}
	if job.UserID != userID {
		// Do not leak other users' job ids.
		a.error(w, http.StatusNotFound, "not_found", "job not found")
		return nil, false
	}
	return job, true
}

package domain

import "time"

// Stage enumerates the ordered steps of the video pipeline.
type Stage string

const (
	StageAnalyzer        Stage = "analyzer"
	StageExtractor       Stage = "extractor"
	StageSetDesigner     Stage = "set_designer"
	StageCinematographer Stage = "cinematographer"
)

// PipelineVersion selects which stage sequence a job runs through.
type PipelineVersion string

const (
	// PipelineV1 is the legacy sequence that composed a generated scene
	// behind the product. Kept for jobs created before the analyzer
	// rollout; new jobs never use it.
	PipelineV1 PipelineVersion = "v1"
	// PipelineV2 is the current sequence: caption the product, remove the
	// background, then synthesize the video.
	PipelineV2 PipelineVersion = "v2"
)

// StageSequence returns the ordered stages for a pipeline version.
// Unknown versions fall back to the current sequence.
func StageSequence(v PipelineVersion) []Stage {
	if v == PipelineV1 {
		return []Stage{StageExtractor, StageSetDesigner, StageCinematographer}
	}
	return []Stage{StageAnalyzer, StageExtractor, StageCinematographer}
}

// OutputExtension returns the file extension for a stage's durable output.
// Extensions are fixed per stage type, never inferred from model responses.
func (s Stage) OutputExtension() string {
	switch s {
	case StageAnalyzer:
		return "jpg"
	case StageCinematographer:
		return "mp4"
	default:
		return "png"
	}
}

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// Terminal reports whether no further transitions are possible.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// StageStatus enumerates per-stage lifecycle states.
type StageStatus string

const (
	StageStatusPending    StageStatus = "pending"
	StageStatusProcessing StageStatus = "processing"
	StageStatusCompleted  StageStatus = "completed"
	StageStatusFailed     StageStatus = "failed"
	StageStatusSkipped    StageStatus = "skipped"
)

// Vibe is a named aesthetic preset selecting prompt templates for
// generative stages.
type Vibe string

const (
	VibeMinimalist  Vibe = "minimalist"
	VibeEcoFriendly Vibe = "eco_friendly"
	VibeHighEnergy  Vibe = "high_energy"
	VibeLuxuryNoir  Vibe = "luxury_noir"
)

// StageRecord tracks one stage's progress within a job.
type StageRecord struct {
	Status      StageStatus
	OutputURL   string
	Error       string
	ModelID     string
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// Job is the unit of work: one uploaded product photo driven through the
// pipeline to a short video ad.
type Job struct {
	ID              string
	UserID          string
	InputImageURL   string
	Vibe            Vibe
	PipelineVersion PipelineVersion
	Status          JobStatus

	Analyzer        StageRecord
	Extractor       StageRecord
	SetDesigner     StageRecord
	Cinematographer StageRecord

	// ProductDescription is the caption produced by the analyzer stage,
	// used to derive the video prompt.
	ProductDescription string

	CreditsUsed     int
	TotalDurationMS *int64
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// StageRecordFor returns a pointer to the sub-record for the given stage,
// or nil for an unknown stage.
func (j *Job) StageRecordFor(stage Stage) *StageRecord {
	switch stage {
	case StageAnalyzer:
		return &j.Analyzer
	case StageExtractor:
		return &j.Extractor
	case StageSetDesigner:
		return &j.SetDesigner
	case StageCinematographer:
		return &j.Cinematographer
	default:
		return nil
	}
}

// Stages returns the job's ordered stage sequence.
func (j *Job) Stages() []Stage {
	return StageSequence(j.PipelineVersion)
}

// Progress returns the completed-stage percentage rounded to the nearest
// integer.
func (j *Job) Progress() int {
	stages := j.Stages()
	if len(stages) == 0 {
		return 0
	}
	completed := 0
	for _, s := range stages {
		if rec := j.StageRecordFor(s); rec != nil && rec.Status == StageStatusCompleted {
			completed++
		}
	}
	return int(float64(completed)/float64(len(stages))*100 + 0.5)
}

// CurrentStage returns the stage currently processing, or the first
// pending stage while the job itself is processing. Terminal jobs have no
// current stage.
func (j *Job) CurrentStage() (Stage, bool) {
	if j.Status.Terminal() {
		return "", false
	}
	for _, s := range j.Stages() {
		if rec := j.StageRecordFor(s); rec != nil && rec.Status == StageStatusProcessing {
			return s, true
		}
	}
	if j.Status != JobStatusProcessing {
		return "", false
	}
	for _, s := range j.Stages() {
		// A zero-value record is a stage that has not started.
		if rec := j.StageRecordFor(s); rec != nil && (rec.Status == StageStatusPending || rec.Status == "") {
			return s, true
		}
	}
	return "", false
}

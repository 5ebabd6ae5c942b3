package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// JobRunner executes one job to a terminal state. It must resolve rather
// than panic or propagate errors; the orchestrator is that boundary.
type JobRunner func(ctx context.Context, jobID string)

// QueueOptions tunes the admission policy. Zero values take the reference
// defaults: 3 concurrent jobs, 5 starts per rolling 1-second window.
type QueueOptions struct {
	Concurrency       int
	StartsPerInterval int
	Interval          time.Duration
}

// QueueStats is the queue's observability snapshot.
type QueueStats struct {
	Backlog  int  `json:"backlog"`
	InFlight int  `json:"in_flight"`
	Paused   bool `json:"paused"`
}

// AdmissionQueue accepts job-start requests and dispatches them with
// bounded concurrency and a rolling rate cap. The rate cap is separate
// from the concurrency ceiling because the upstream model API throttles
// request starts regardless of how long each job runs. Enqueue never
// rejects: the caller already committed the job row and credit deduction.
type AdmissionQueue struct {
	runner   JobRunner
	logger   zerolog.Logger
	baseCtx  context.Context
	capacity int
	rateCap  int
	interval time.Duration

	mu           sync.Mutex
	idle         *sync.Cond
	backlog      []string
	inFlight     int
	paused       bool
	recentStarts []time.Time
	retryArmed   bool
}

// NewAdmissionQueue constructs a queue that hands jobs to runner. baseCtx
// bounds the lifetime of dispatched jobs.
func NewAdmissionQueue(baseCtx context.Context, runner JobRunner, logger zerolog.Logger, opts QueueOptions) *AdmissionQueue {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 3
	}
	if opts.StartsPerInterval <= 0 {
		opts.StartsPerInterval = 5
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	q := &AdmissionQueue{
		runner:   runner,
		logger:   logger,
		baseCtx:  baseCtx,
		capacity: opts.Concurrency,
		rateCap:  opts.StartsPerInterval,
		interval: opts.Interval,
	}
	q.idle = sync.NewCond(&q.mu)
	return q
}

// Enqueue adds a job to the wait list and returns immediately. The job
// starts once a concurrency slot and a rate token are both available.
func (q *AdmissionQueue) Enqueue(jobID string) {
	q.mu.Lock()
	q.backlog = append(q.backlog, jobID)
	depth := len(q.backlog)
	q.mu.Unlock()

	queueBacklogMetric.Set(float64(depth))
	q.logger.Info().Str("job_id", jobID).Int("backlog", depth).Msg("queue: enqueued job")
	q.dispatch()
}

// dispatch starts as many backlog jobs as current slots and rate tokens
// allow. When only the rate cap blocks progress, it arms a timer for the
// moment the rolling window frees up.
func (q *AdmissionQueue) dispatch() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for {
		if q.paused || len(q.backlog) == 0 || q.inFlight >= q.capacity {
			return
		}
		now := time.Now()
		q.pruneStartsLocked(now)
		if len(q.recentStarts) >= q.rateCap {
			if !q.retryArmed {
				q.retryArmed = true
				delay := q.interval - now.Sub(q.recentStarts[0])
				if delay < 0 {
					delay = 0
				}
				time.AfterFunc(delay, func() {
					q.mu.Lock()
					q.retryArmed = false
					q.mu.Unlock()
					q.dispatch()
				})
			}
			return
		}

		jobID := q.backlog[0]
		q.backlog = q.backlog[1:]
		q.inFlight++
		q.recentStarts = append(q.recentStarts, now)

		queueBacklogMetric.Set(float64(len(q.backlog)))
		queueInFlightMetric.Set(float64(q.inFlight))
		jobStartsTotalMetric.Inc()

		go q.runJob(jobID)
	}
}

func (q *AdmissionQueue) runJob(jobID string) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error().Interface("panic", r).Str("job_id", jobID).Msg("queue: job runner panicked")
		}
		q.mu.Lock()
		q.inFlight--
		queueInFlightMetric.Set(float64(q.inFlight))
		if len(q.backlog) == 0 && q.inFlight == 0 {
			q.idle.Broadcast()
		}
		q.mu.Unlock()
		q.dispatch()
	}()

	q.logger.Info().Str("job_id", jobID).Msg("queue: dispatching job")
	q.runner(q.baseCtx, jobID)
}

// Stats returns the current backlog size, in-flight count and paused state.
func (q *AdmissionQueue) Stats() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return QueueStats{Backlog: len(q.backlog), InFlight: q.inFlight, Paused: q.paused}
}

// Pause stops dispatching new jobs. In-flight jobs continue to completion.
func (q *AdmissionQueue) Pause() {
	q.mu.Lock()
	q.paused = true
	q.mu.Unlock()
	q.logger.Info().Msg("queue: paused")
}

// Resume restarts dispatching.
func (q *AdmissionQueue) Resume() {
	q.mu.Lock()
	q.paused = false
	q.mu.Unlock()
	q.logger.Info().Msg("queue: resumed")
	q.dispatch()
}

// Clear drops all not-yet-started entries and returns how many were
// dropped. In-flight jobs are unaffected. Emergency operator use only:
// dropped jobs stay pending in storage.
func (q *AdmissionQueue) Clear() int {
	q.mu.Lock()
	dropped := len(q.backlog)
	q.backlog = nil
	if q.inFlight == 0 {
		q.idle.Broadcast()
	}
	q.mu.Unlock()

	queueBacklogMetric.Set(0)
	q.logger.Warn().Int("dropped", dropped).Msg("queue: cleared backlog")
	return dropped
}

// WaitForIdle blocks until both the backlog and the in-flight set are
// empty. Used for graceful shutdown and in tests.
func (q *AdmissionQueue) WaitForIdle() {
	q.mu.Lock()
	for len(q.backlog) > 0 || q.inFlight > 0 {
		q.idle.Wait()
	}
	q.mu.Unlock()
}

func (q *AdmissionQueue) pruneStartsLocked(now time.Time) {
	cutoff := now.Add(-q.interval)
	kept := q.recentStarts[:0]
	for _, t := range q.recentStarts {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	q.recentStarts = kept
}

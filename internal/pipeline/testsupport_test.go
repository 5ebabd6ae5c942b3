package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"reelcraft/internal/domain"
)

func testLogger() zerolog.Logger { return zerolog.Nop() }

// memJobRepo is an in-memory domain.JobRepository for pipeline tests.
type memJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*domain.Job
}

func newMemJobRepo(jobs ...*domain.Job) *memJobRepo {
	r := &memJobRepo{jobs: map[string]*domain.Job{}}
	for _, j := range jobs {
		r.jobs[j.ID] = j
	}
	return r
}

func (r *memJobRepo) get(jobID string) *domain.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.jobs[jobID]
}

func (r *memJobRepo) Create(_ context.Context, job *domain.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = job
	return nil
}

func (r *memJobRepo) GetByID(_ context.Context, jobID string) (*domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *job
	return &cp, nil
}

func (r *memJobRepo) ListByUser(_ context.Context, userID string, _ int) ([]domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Job
	for _, j := range r.jobs {
		if j.UserID == userID {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (r *memJobRepo) Delete(_ context.Context, jobID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, jobID)
	return nil
}

func (r *memJobRepo) SetStatus(_ context.Context, jobID string, status domain.JobStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[jobID].Status = status
	r.jobs[jobID].UpdatedAt = time.Now()
	return nil
}

func (r *memJobRepo) StartStage(_ context.Context, jobID string, stage domain.Stage, modelID string, startedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.jobs[jobID].StageRecordFor(stage)
	rec.Status = domain.StageStatusProcessing
	rec.ModelID = modelID
	rec.StartedAt = &startedAt
	return nil
}

func (r *memJobRepo) CompleteStage(_ context.Context, jobID string, stage domain.Stage, outputURL string, completedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.jobs[jobID].StageRecordFor(stage)
	rec.Status = domain.StageStatusCompleted
	rec.OutputURL = outputURL
	rec.CompletedAt = &completedAt
	return nil
}

func (r *memJobRepo) FailStage(_ context.Context, jobID string, stage domain.Stage, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.jobs[jobID].StageRecordFor(stage)
	rec.Status = domain.StageStatusFailed
	rec.Error = errMsg
	return nil
}

func (r *memJobRepo) SetProductDescription(_ context.Context, jobID, description string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[jobID].ProductDescription = description
	return nil
}

func (r *memJobRepo) Complete(_ context.Context, jobID string, durationMS int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[jobID].Status = domain.JobStatusCompleted
	r.jobs[jobID].TotalDurationMS = &durationMS
	return nil
}

func (r *memJobRepo) Fail(_ context.Context, jobID, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[jobID].Status = domain.JobStatusFailed
	r.jobs[jobID].ErrorMessage = errMsg
	return nil
}

func (r *memJobRepo) ListStaleProcessing(_ context.Context, cutoff time.Time) ([]domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Job
	for _, j := range r.jobs {
		if j.Status == domain.JobStatusProcessing && j.UpdatedAt.Before(cutoff) {
			out = append(out, *j)
		}
	}
	return out, nil
}

var _ domain.JobRepository = (*memJobRepo)(nil)

// memCreditStore mirrors the datastore's atomic adjustment contract.
type memCreditStore struct {
	mu       sync.Mutex
	balances map[string]int
	txs      []domain.CreditTransaction
}

func newMemCreditStore() *memCreditStore {
	return &memCreditStore{balances: map[string]int{}}
}

func (s *memCreditStore) AdjustBalance(_ context.Context, userID string, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	balance, ok := s.balances[userID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	if balance+delta < 0 {
		return 0, domain.ErrInsufficientCredits
	}
	s.balances[userID] = balance + delta
	return balance + delta, nil
}

func (s *memCreditStore) Balance(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[userID], nil
}

func (s *memCreditStore) InsertTransaction(_ context.Context, tx *domain.CreditTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = append(s.txs, *tx)
	return nil
}

func (s *memCreditStore) ListTransactions(_ context.Context, userID string, _ int) ([]domain.CreditTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.CreditTransaction
	for i := len(s.txs) - 1; i >= 0; i-- {
		if s.txs[i].UserID == userID {
			out = append(out, s.txs[i])
		}
	}
	return out, nil
}

func (s *memCreditStore) refunds(userID string) []domain.CreditTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.CreditTransaction
	for _, tx := range s.txs {
		if tx.UserID == userID && tx.Type == domain.TransactionRefund {
			out = append(out, tx)
		}
	}
	return out
}

var _ domain.CreditStore = (*memCreditStore)(nil)

// memModelConfigs resolves stages from a fixed table.
type memModelConfigs struct {
	configs map[domain.Stage]*domain.ModelConfig
}

func (m *memModelConfigs) ActiveForStage(_ context.Context, stage domain.Stage) (*domain.ModelConfig, error) {
	cfg, ok := m.configs[stage]
	if !ok {
		return nil, domain.ErrStageNotConfigured
	}
	return cfg, nil
}

// fakeInvoker scripts a model capability.
type fakeInvoker struct {
	name  string
	fn    func(in Invocation) (InvocationResult, error)
	mu    sync.Mutex
	calls int
}

func (f *fakeInvoker) ModelName() string { return f.name }

func (f *fakeInvoker) Invoke(_ context.Context, in Invocation) (InvocationResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.fn(in)
}

func (f *fakeInvoker) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeCopier records copy requests and returns deterministic permanent URLs.
type fakeCopier struct {
	mu     sync.Mutex
	copies map[string]string
	err    error
}

func newFakeCopier() *fakeCopier {
	return &fakeCopier{copies: map[string]string{}}
}

func (c *fakeCopier) CopyFromURL(_ context.Context, sourceURL, destKey string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return "", c.err
	}
	c.copies[destKey] = sourceURL
	return "https://cdn.test/" + destKey, nil
}

func newTestExecutor(copier ObjectCopier, retries int) *Executor {
	ex := NewExecutor(copier, testLogger(), retries)
	ex.sleep = func(context.Context, time.Duration) error { return nil }
	return ex
}

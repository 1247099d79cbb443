package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// RunStore persists one row per job execution.
type RunStore interface {
	CreateJobRun(ctx context.Context, tenantID, jobType string) (string, error)
	UpdateJobRun(ctx context.Context, runID, status string, detailsJSON []byte) error
}

type Func func(context.Context) (any, error)

type Service struct {
	runs  RunStore
	queue chan job
	wg    sync.WaitGroup
}

type job struct {
	Type     string
	TenantID string
	Run      Func
}

func New(runs RunStore, size int) *Service {
	if size <= 0 {
		size = 128
	}
	return &Service{
		runs:  runs,
		queue: make(chan job, size),
	}
}

// Start launches the worker. It returns when ctx is cancelled and the job in
// flight, if any, has finished.
func (s *Service) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.worker(ctx)
	}()
}

func (s *Service) Wait() {
	s.wg.Wait()
}

// Enqueue schedules run on the background worker. It reports false when the
// queue is full.
func (s *Service) Enqueue(jobType, tenantID string, run Func) bool {
	select {
	case s.queue <- job{Type: jobType, TenantID: tenantID, Run: run}:
		return true
	default:
		slog.Warn("job queue full", "jobType", jobType, "tenantId", tenantID)
		return false
	}
}

// RunNow runs the job on the calling goroutine and records it like a queued one.
func (s *Service) RunNow(ctx context.Context, jobType, tenantID string, run Func) (any, error) {
	return s.runJob(ctx, job{Type: jobType, TenantID: tenantID, Run: run})
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "tenantId", j.TenantID, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID := ""
	if s.runs != nil {
		id, err := s.runs.CreateJobRun(ctx, j.TenantID, j.Type)
		if err != nil {
			slog.Warn("job run insert failed", "jobType", j.Type, "err", err)
		}
		runID = id
	}

	details, err := j.Run(ctx)
	status := StatusCompleted
	if err != nil {
		status = StatusFailed
		details = map[string]any{"error": err.Error(), "details": details}
	}
	if runID == "" {
		return details, err
	}

	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if updErr := s.runs.UpdateJobRun(ctx, runID, status, detailsJSON); updErr != nil {
		slog.Warn("job run update failed", "runId", runID, "err", updErr)
	}
	return details, err
}

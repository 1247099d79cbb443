package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
)

type memoryRuns struct {
	mu      sync.Mutex
	created []string
	updates map[string]string
	details map[string][]byte
}

func (m *memoryRuns) CreateJobRun(ctx context.Context, tenantID, jobType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, jobType)
	return "run-" + jobType, nil
}

func (m *memoryRuns) UpdateJobRun(ctx context.Context, runID, status string, detailsJSON []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updates == nil {
		m.updates = map[string]string{}
		m.details = map[string][]byte{}
	}
	m.updates[runID] = status
	m.details[runID] = detailsJSON
	return nil
}

func (m *memoryRuns) status(runID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updates[runID]
}

func TestRunNowRecordsCompletion(t *testing.T) {
	runs := &memoryRuns{}
	svc := New(runs, 1)

	details, err := svc.RunNow(context.Background(), "batch", "t1", func(ctx context.Context) (any, error) {
		return map[string]int{"written": 3}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if details.(map[string]int)["written"] != 3 {
		t.Fatalf("unexpected details: %v", details)
	}
	if runs.status("run-batch") != StatusCompleted {
		t.Fatalf("expected completed, got %q", runs.status("run-batch"))
	}
	var stored map[string]int
	if err := json.Unmarshal(runs.details["run-batch"], &stored); err != nil || stored["written"] != 3 {
		t.Fatalf("unexpected stored details: %s", runs.details["run-batch"])
	}
}

func TestRunNowRecordsFailure(t *testing.T) {
	runs := &memoryRuns{}
	svc := New(runs, 1)

	_, err := svc.RunNow(context.Background(), "batch", "t1", func(ctx context.Context) (any, error) {
		return nil, errors.New("disk full")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if runs.status("run-batch") != StatusFailed {
		t.Fatalf("expected failed, got %q", runs.status("run-batch"))
	}
}

func TestWorkerDrainsQueue(t *testing.T) {
	runs := &memoryRuns{}
	svc := New(runs, 4)
	ctx, cancel := context.WithCancel(context.Background())
	svc.Start(ctx)

	done := make(chan struct{})
	if !svc.Enqueue("batch", "t1", func(ctx context.Context) (any, error) {
		close(done)
		return nil, nil
	}) {
		t.Fatal("expected job to be queued")
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}
	cancel()
	svc.Wait()
}

func TestEnqueueFullQueue(t *testing.T) {
	svc := New(nil, 1)
	noop := func(ctx context.Context) (any, error) { return nil, nil }
	if !svc.Enqueue("a", "t1", noop) {
		t.Fatal("expected first job to be queued")
	}
	if svc.Enqueue("b", "t1", noop) {
		t.Fatal("expected full queue to reject")
	}
}

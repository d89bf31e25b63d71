package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/abrezinsky/ownervote/internal/logger"
	"github.com/abrezinsky/ownervote/internal/services"
)

type mockSweeper struct {
	mu     sync.Mutex
	calls  int
	result *services.SweepResult
	err    error
}

func (m *mockSweeper) Sweep(ctx context.Context) (*services.SweepResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockSweeper) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestSweep_ReportsOutcomes(t *testing.T) {
	failed := uuid.New()
	sweeper := &mockSweeper{result: &services.SweepResult{
		Activated: []uuid.UUID{uuid.New()},
		Closed: []services.CloseOutcome{
			{VoteID: uuid.New(), Closed: true},
			{VoteID: failed, Error: "disk full"},
		},
		Failed: 1,
	}}
	s := New(logger.New(), sweeper, time.Minute)

	result := s.Sweep(context.Background())
	if result == nil {
		t.Fatal("expected a result")
	}
	if result.Failed != 1 || len(result.Activated) != 1 {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestSweep_ErrorIsSwallowed(t *testing.T) {
	sweeper := &mockSweeper{err: errors.New("database locked")}
	s := New(logger.New(), sweeper, time.Minute)

	if result := s.Sweep(context.Background()); result != nil {
		t.Errorf("expected nil result on failure, got %+v", result)
	}
	if sweeper.Calls() != 1 {
		t.Errorf("expected 1 call, got %d", sweeper.Calls())
	}
}

func TestRun_TicksUntilCancelled(t *testing.T) {
	sweeper := &mockSweeper{result: &services.SweepResult{}}
	s := New(logger.New(), sweeper, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for sweeper.Calls() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if sweeper.Calls() < 3 {
		t.Fatalf("expected at least 3 sweeps, got %d", sweeper.Calls())
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancellation")
	}

	after := sweeper.Calls()
	time.Sleep(30 * time.Millisecond)
	if sweeper.Calls() != after {
		t.Error("expected no sweeps after Run returned")
	}
}

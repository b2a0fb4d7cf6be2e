package repository

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/shoplist/component"
	"github.com/kbukum/shoplist/logger"
)

type countingTarget struct {
	name  string
	calls atomic.Int64
	err   error
}

func (c *countingTarget) Resource() string { return c.name }

func (c *countingTarget) Sweep(context.Context) (int64, error) {
	c.calls.Add(1)
	return 3, c.err
}

func TestSweepOnce(t *testing.T) {
	ok := &countingTarget{name: "access_token"}
	failing := &countingTarget{name: "authorization_code", err: stderrors.New("boom")}
	s := NewExpirySweeper(time.Hour, logger.NewNop(), failing, ok)

	removed, err := s.SweepOnce(context.Background())
	if err == nil {
		t.Fatal("expected the failing target to be reported")
	}
	if removed["access_token"] != 3 || ok.calls.Load() != 1 {
		t.Errorf("healthy target not swept: %v", removed)
	}
	if _, present := removed["authorization_code"]; present {
		t.Error("failing target should not report a count")
	}
}

func TestSweeperLifecycle(t *testing.T) {
	target := &countingTarget{name: "access_token"}
	s := NewExpirySweeper(10*time.Millisecond, logger.NewNop(), target)
	ctx := context.Background()

	if h := s.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy before Start, got %s", h.Status)
	}
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for target.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if target.calls.Load() == 0 {
		t.Fatal("sweeper never ran")
	}
	if h := s.Health(ctx); h.Status != component.StatusHealthy {
		t.Errorf("expected healthy, got %+v", h)
	}

	if err := s.Stop(ctx); err != nil {
		t.Fatal(err)
	}
	after := target.calls.Load()
	time.Sleep(30 * time.Millisecond)
	if target.calls.Load() != after {
		t.Error("sweeper kept running after Stop")
	}
	if err := s.Stop(ctx); err != nil {
		t.Errorf("second Stop: %v", err)
	}
}

func TestSweeperDegradedAfterFailure(t *testing.T) {
	s := NewExpirySweeper(time.Hour, logger.NewNop(), &countingTarget{name: "x", err: stderrors.New("boom")})
	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer s.Stop(ctx)
	_, _ = s.SweepOnce(ctx)
	if h := s.Health(ctx); h.Status != component.StatusDegraded {
		t.Errorf("expected degraded, got %+v", h)
	}
}

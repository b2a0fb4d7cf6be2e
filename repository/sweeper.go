package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kbukum/shoplist/component"
	"github.com/kbukum/shoplist/logger"
)

// DefaultSweepInterval is how often expired tokens are purged.
const DefaultSweepInterval = time.Minute

// SweepTarget is a token repository that can purge expired entries.
type SweepTarget interface {
	Resource() string
	Sweep(ctx context.Context) (int64, error)
}

// ExpirySweeper periodically purges expired entries from backends without
// native expiry.
type ExpirySweeper struct {
	targets  []SweepTarget
	interval time.Duration
	log      *logger.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	lastErr error
	lastRun time.Time
}

var _ component.Component = (*ExpirySweeper)(nil)

// NewExpirySweeper returns an unstarted sweeper over targets.
func NewExpirySweeper(interval time.Duration, log *logger.Logger, targets ...SweepTarget) *ExpirySweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &ExpirySweeper{
		targets:  targets,
		interval: interval,
		log:      log.WithComponent("sweeper"),
	}
}

func (s *ExpirySweeper) Name() string { return "expiry-sweeper" }

// SweepOnce purges every target and returns the removed count per resource.
// It keeps going after a failing target and returns the first error.
func (s *ExpirySweeper) SweepOnce(ctx context.Context) (map[string]int64, error) {
	removed := make(map[string]int64, len(s.targets))
	var firstErr error
	for _, t := range s.targets {
		n, err := t.Sweep(ctx)
		if err != nil {
			s.log.WithContext(ctx).WithError(err).Error("Sweep failed",
				logger.Fields(logger.FieldResource, t.Resource()))
			if firstErr == nil {
				firstErr = fmt.Errorf("sweep %s: %w", t.Resource(), err)
			}
			continue
		}
		removed[t.Resource()] = n
		if n > 0 {
			s.log.WithContext(ctx).Debug("Expired entries removed",
				logger.Fields(logger.FieldResource, t.Resource(), "count", n))
		}
	}

	s.mu.Lock()
	s.lastErr, s.lastRun = firstErr, time.Now()
	s.mu.Unlock()
	return removed, firstErr
}

// Start launches the sweep loop. Calling Start twice is a no-op.
func (s *ExpirySweeper) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)
	s.log.Info("Expiry sweeper started", logger.Fields("interval", s.interval.String(), "targets", len(s.targets)))
	return nil
}

func (s *ExpirySweeper) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.SweepOnce(ctx)
		}
	}
}

// Stop ends the sweep loop and waits for an in-flight sweep to finish.
func (s *ExpirySweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Health is degraded while the last sweep failed.
func (s *ExpirySweeper) Health(_ context.Context) component.Health {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := component.Health{Name: s.Name(), Status: component.StatusHealthy}
	if s.cancel == nil {
		h.Status, h.Message = component.StatusUnhealthy, "not running"
	} else if s.lastErr != nil {
		h.Status, h.Message = component.StatusDegraded, s.lastErr.Error()
	}
	return h
}

// Describe reports the interval and targets.
func (s *ExpirySweeper) Describe() component.Description {
	names := make([]string, 0, len(s.targets))
	for _, t := range s.targets {
		names = append(names, t.Resource())
	}
	return component.Description{
		Name:    "Expiry sweeper",
		Type:    "worker",
		Details: fmt.Sprintf("every %s targets=%s", s.interval, strings.Join(names, ",")),
	}
}

package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ngs-hydro/reach-metrics/internal/product"
)

// SchedulerConfig controls how often the Scheduler checks whether any product's cadence
// has a new cycle due.
type SchedulerConfig struct {
	PollInterval time.Duration
}

// DefaultSchedulerConfig polls once a minute, well under the tightest product cadence
// (analysis, hourly).
var DefaultSchedulerConfig = SchedulerConfig{PollInterval: time.Minute}

// Scheduler drives the Orchestrator on each configured product's independent cadence
// (spec §4.1), polling on a fixed interval and running any cycle that has newly become
// due since the last tick. A ticker-driven poll is sufficient here because the cadence
// table itself is closed and total (product.Schedules), not a user-supplied cron
// expression - there is nothing for a general cron parser to buy.
type Scheduler struct {
	orchestrator *Orchestrator
	config       SchedulerConfig
	logger       *slog.Logger

	mu      sync.Mutex
	running bool
	done    chan struct{}
	lastRun map[product.Name]time.Time
}

// NewScheduler builds a Scheduler for the given Orchestrator.
func NewScheduler(orchestrator *Orchestrator, config SchedulerConfig, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		orchestrator: orchestrator,
		config:       config,
		logger:       logger,
		lastRun:      make(map[product.Name]time.Time),
	}
}

// Start begins the polling loop in a new goroutine. It returns an error if the scheduler
// is already running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("ingest: scheduler is already running")
	}
	s.running = true
	s.done = make(chan struct{})
	s.mu.Unlock()

	s.logger.Info("ingestion scheduler starting", "poll_interval", s.config.PollInterval)
	go s.runLoop(ctx)
	return nil
}

// Stop signals the polling loop to exit and returns without waiting; a tick already in
// progress still runs its launched jobs to completion before the loop observes the signal.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	done := s.done
	s.mu.Unlock()

	close(done)
}

func (s *Scheduler) runLoop(ctx context.Context) {
	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick checks every configured product for a due cycle and, for each one that is due,
// runs its job in its own goroutine - products are independent and must not wait on one
// another's fetch/parse/load work. A job failure is logged and never blocks any other
// product's job in the same tick.
func (s *Scheduler) tick(ctx context.Context) {
	now := time.Now().UTC()
	var wg sync.WaitGroup
	for name := range s.orchestrator.Configs {
		cycleTime, err := product.LatestValidCycleTime(name, now)
		if err != nil {
			s.logger.Error("could not resolve cycle time", "product", name, "error", err)
			continue
		}

		s.mu.Lock()
		last, seen := s.lastRun[name]
		s.mu.Unlock()
		if seen && !cycleTime.After(last) {
			continue
		}

		wg.Add(1)
		go func(name product.Name, cycleTime time.Time) {
			defer wg.Done()
			if err := s.orchestrator.RunJob(ctx, name, cycleTime); err != nil {
				s.logger.Error("ingestion job failed", "product", name, "cycle_time", cycleTime, "error", err)
			}
			s.mu.Lock()
			s.lastRun[name] = cycleTime
			s.mu.Unlock()
		}(name, cycleTime)
	}
	wg.Wait()
}

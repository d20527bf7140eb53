package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ngs-hydro/reach-metrics/internal/product"
)

func TestSchedulerStartTwiceReturnsError(t *testing.T) {
	orch := &Orchestrator{Configs: map[product.Name]ProductConfig{}}
	s := NewScheduler(orch, SchedulerConfig{PollInterval: time.Hour}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Start(ctx))
	err := s.Start(ctx)
	require.Error(t, err)
	s.Stop()
}

func TestSchedulerStopIsIdempotent(t *testing.T) {
	orch := &Orchestrator{Configs: map[product.Name]ProductConfig{}}
	s := NewScheduler(orch, SchedulerConfig{PollInterval: time.Hour}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Start(ctx))
	s.Stop()
	require.NotPanics(t, s.Stop)
}

func TestSchedulerTickWithNoConfiguredProductsIsANoOp(t *testing.T) {
	orch := &Orchestrator{Configs: map[product.Name]ProductConfig{}}
	s := NewScheduler(orch, SchedulerConfig{PollInterval: time.Hour}, nil)

	done := make(chan struct{})
	go func() {
		s.tick(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("tick with no configured products did not return")
	}
	require.Empty(t, s.lastRun)
}

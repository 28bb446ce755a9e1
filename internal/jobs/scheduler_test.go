package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJobs struct {
	ranks    atomic.Int32
	sessions atomic.Int32
}

func (c *countingJobs) ReconcileRanks(context.Context) (int, error) {
	c.ranks.Add(1)
	return 1, nil
}

func (c *countingJobs) PurgeSessions(context.Context) (int64, error) {
	c.sessions.Add(1)
	return 0, nil
}

func TestSchedulerRunsJobs(t *testing.T) {
	jobs := &countingJobs{}
	s := NewScheduler(time.UTC, jobs, jobs, "@every 1s", "@every 1s")
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return jobs.ranks.Load() > 0 && jobs.sessions.Load() > 0
	}, 3*time.Second, 50*time.Millisecond)
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	jobs := &countingJobs{}
	s := NewScheduler(time.UTC, jobs, jobs, "not a spec", "@hourly")
	assert.Error(t, s.Start(context.Background()))
}

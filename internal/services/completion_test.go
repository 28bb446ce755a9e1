package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteOnTimeAndOverdue(t *testing.T) {
	f := newFixture(t)
	deadline := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	onTime := f.assignment(t, f.alice, &deadline)
	late := f.assignment(t, f.alice, &deadline)

	f.clock.Set(time.Date(2024, 1, 9, 23, 59, 0, 0, time.UTC))
	res, err := f.svc.Completions.Complete(f.ctx, f.bob, onTime.ID)
	require.NoError(t, err)
	assert.Equal(t, CompletionRecorded, res.Outcome)
	assert.True(t, res.OnTime)
	assert.Equal(t, 10, res.PointsAwarded)
	assert.Equal(t, "Completed on time! +10 points.", res.Message)
	assert.Equal(t, 10, f.points(t, f.bob))

	f.clock.Set(time.Date(2024, 1, 10, 0, 1, 0, 0, time.UTC))
	res, err = f.svc.Completions.Complete(f.ctx, f.bob, late.ID)
	require.NoError(t, err)
	assert.False(t, res.OnTime)
	assert.Equal(t, 3, res.PointsAwarded)
	assert.Equal(t, 13, f.points(t, f.bob))
}

func TestCompleteAtDeadlineIsOnTime(t *testing.T) {
	f := newFixture(t)
	deadline := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	r := f.assignment(t, f.alice, &deadline)

	f.clock.Set(deadline)
	res, err := f.svc.Completions.Complete(f.ctx, f.bob, r.ID)
	require.NoError(t, err)
	assert.True(t, res.OnTime)
}

func TestCompleteTwiceAwardsOnce(t *testing.T) {
	f := newFixture(t)
	r := f.assignment(t, f.alice, nil)

	first, err := f.svc.Completions.Complete(f.ctx, f.bob, r.ID)
	require.NoError(t, err)
	second, err := f.svc.Completions.Complete(f.ctx, f.bob, r.ID)
	require.NoError(t, err)

	assert.Equal(t, CompletionRecorded, first.Outcome)
	assert.Equal(t, CompletionAlreadyCompleted, second.Outcome)
	assert.Zero(t, second.PointsAwarded)
	assert.Equal(t, 10, f.points(t, f.bob))

	completions, err := f.svc.Completions.ListCompletions(f.ctx, f.alice, r.ID)
	require.NoError(t, err)
	assert.Len(t, completions, 1)

	done, err := f.svc.Completions.HasCompleted(f.ctx, f.bob, r.ID)
	require.NoError(t, err)
	assert.True(t, done)
	done, err = f.svc.Completions.HasCompleted(f.ctx, f.alice, r.ID)
	require.NoError(t, err)
	assert.False(t, done)
}

func TestConcurrentCompletionsAwardOnce(t *testing.T) {
	f := newFixture(t)
	r := f.assignment(t, f.alice, nil)

	var wg sync.WaitGroup
	outcomes := make([]CompletionOutcome, 8)
	for i := range outcomes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.svc.Completions.Complete(f.ctx, f.bob, r.ID)
			if assert.NoError(t, err) {
				outcomes[i] = res.Outcome
			}
		}(i)
	}
	wg.Wait()

	recorded := 0
	for _, o := range outcomes {
		if o == CompletionRecorded {
			recorded++
		}
	}
	assert.Equal(t, 1, recorded)
	assert.Equal(t, 10, f.points(t, f.bob))
}

func TestCompleteRejections(t *testing.T) {
	f := newFixture(t)
	note := f.note(t, f.alice)
	r := f.assignment(t, f.alice, nil)

	_, err := f.svc.Completions.Complete(f.ctx, f.bob, note.ID)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.svc.Completions.Complete(f.ctx, f.outsider, r.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.svc.Completions.Complete(f.ctx, f.bob, 9999)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Zero(t, f.points(t, f.bob))
	assert.Zero(t, f.points(t, f.outsider))
}

package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
)

func TestBuildReport(t *testing.T) {
	r := domain.NewBuildReport(time.Now())
	boom := errors.New("boom")

	r.Add(domain.Result{Task: id("a"), Outcome: domain.OutcomeExecuted})
	r.Add(domain.Failed(id("b"), boom))
	r.Add(domain.Skipped(id("c"), domain.SkipDependencyFailed))
	r.Add(domain.Result{Task: id("d"), Outcome: domain.OutcomeUpToDate})

	counts := r.Counts()
	assert.Equal(t, 1, counts[domain.OutcomeExecuted])
	assert.Equal(t, 1, counts[domain.OutcomeFailed])
	assert.Equal(t, 1, counts[domain.OutcomeSkipped])
	assert.Equal(t, 1, counts[domain.OutcomeUpToDate])

	failed := r.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, id("b"), failed[0].Task)

	err := r.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBuildExecutionFailed)
	assert.ErrorIs(t, err, boom)

	var bf *domain.BuildFailure
	require.True(t, errors.As(err, &bf))
	assert.Equal(t, []string{":app:b"}, bf.Paths())
	assert.Equal(t, "build execution failed: 1 task failed\n  * :app:b: boom", err.Error())
}

func TestBuildReport_NoFailures(t *testing.T) {
	r := domain.NewBuildReport(time.Now())
	r.Add(domain.Result{Task: id("a"), Outcome: domain.OutcomeFromCache})
	r.Add(domain.Skipped(id("b"), domain.SkipDisabled))

	assert.NoError(t, r.Err())
	assert.Empty(t, r.Failed())
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		outcome   domain.Outcome
		name      string
		state     domain.TaskState
		didWork   bool
		succeeded bool
	}{
		{domain.OutcomeExecuted, "EXECUTED", domain.StateExecuted, true, true},
		{domain.OutcomeUpToDate, "UP_TO_DATE", domain.StateSkipped, false, true},
		{domain.OutcomeFromCache, "FROM_CACHE", domain.StateSkipped, true, true},
		{domain.OutcomeSkipped, "SKIPPED", domain.StateSkipped, false, true},
		{domain.OutcomeFailed, "FAILED", domain.StateFailed, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.outcome.String())
			assert.Equal(t, tt.state, tt.outcome.State())
			assert.Equal(t, tt.didWork, tt.outcome.DidWork())
			assert.Equal(t, tt.succeeded, tt.outcome.Succeeded())
			assert.True(t, tt.outcome.State().IsTerminal())

			parsed, ok := domain.ParseOutcome(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.outcome, parsed)
		})
	}

	assert.False(t, domain.StatePending.IsTerminal())
	assert.False(t, domain.StateExecuting.IsTerminal())
}

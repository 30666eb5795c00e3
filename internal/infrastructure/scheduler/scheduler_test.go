package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingJob records how many times it has run.
type countingJob struct {
	name string
	err  error
	runs atomic.Int64
}

func (j *countingJob) Name() string        { return j.name }
func (j *countingJob) Description() string { return "counting job for tests" }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	return j.err
}

func newTestScheduler() *Scheduler {
	return NewScheduler(Config{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestScheduler_Lifecycle(t *testing.T) {
	sched := newTestScheduler()
	job := &countingJob{name: "heartbeat"}

	require.NoError(t, sched.Register(job, NewIntervalSchedule(time.Hour)))
	assert.False(t, sched.IsRunning())

	ctx := context.Background()
	require.NoError(t, sched.Start(ctx))
	assert.True(t, sched.IsRunning())

	err := sched.Start(ctx)
	require.ErrorIs(t, err, ErrSchedulerAlreadyRunning)

	require.NoError(t, sched.Stop())
	assert.False(t, sched.IsRunning())

	err = sched.Stop()
	require.ErrorIs(t, err, ErrSchedulerNotRunning)
}

func TestScheduler_Register(t *testing.T) {
	sched := newTestScheduler()

	t.Run("nil job is rejected", func(t *testing.T) {
		err := sched.Register(nil, NewIntervalSchedule(time.Minute))
		require.ErrorIs(t, err, ErrNilJob)
	})

	t.Run("nil schedule is rejected", func(t *testing.T) {
		err := sched.Register(&countingJob{name: "x"}, nil)
		require.ErrorIs(t, err, ErrNilSchedule)
	})

	t.Run("duplicate name is rejected", func(t *testing.T) {
		job := &countingJob{name: "rebuild"}
		require.NoError(t, sched.Register(job, NewIntervalSchedule(time.Minute)))

		err := sched.Register(&countingJob{name: "rebuild"}, NewDailySchedule(3, 0))
		require.ErrorIs(t, err, ErrJobAlreadyExists)
	})
}

func TestScheduler_RunNow(t *testing.T) {
	sched := newTestScheduler()
	ctx := context.Background()

	ok := &countingJob{name: "ok-job"}
	failing := &countingJob{name: "failing-job", err: errors.New("boom")}
	require.NoError(t, sched.Register(ok, NewIntervalSchedule(time.Hour)))
	require.NoError(t, sched.Register(failing, NewIntervalSchedule(time.Hour)))

	t.Run("unknown job", func(t *testing.T) {
		_, err := sched.RunNow(ctx, "no-such-job")
		require.ErrorIs(t, err, ErrJobNotFound)
	})

	t.Run("successful run", func(t *testing.T) {
		result, err := sched.RunNow(ctx, "ok-job")
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.True(t, result.Success)
		assert.Equal(t, "ok-job", result.JobName)
		assert.Equal(t, int64(1), ok.runs.Load())
	})

	t.Run("failed run reports the error", func(t *testing.T) {
		result, err := sched.RunNow(ctx, "failing-job")
		require.Error(t, err)
		require.NotNil(t, result)
		assert.False(t, result.Success)
		assert.Equal(t, failing.err, result.Error)
	})
}

func TestScheduler_IntervalTick(t *testing.T) {
	sched := newTestScheduler()
	job := &countingJob{name: "ticker"}

	require.NoError(t, sched.Register(job, NewIntervalSchedule(20*time.Millisecond)))
	require.NoError(t, sched.Start(context.Background()))

	assert.Eventually(t, func() bool {
		return job.runs.Load() >= 1
	}, 3*time.Second, 20*time.Millisecond)

	require.NoError(t, sched.Stop())
}

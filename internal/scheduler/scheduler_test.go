package scheduler

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name  string
	err   error
	count atomic.Int32
}

func (j *countingJob) Run() error {
	j.count.Add(1)
	return j.err
}

func (j *countingJob) Name() string { return j.name }

func TestAddJob_RejectsBadScheduleAndDuplicates(t *testing.T) {
	s := New(zerolog.Nop())

	err := s.AddJob("not a schedule", &countingJob{name: "bad"})
	assert.Error(t, err)

	require.NoError(t, s.AddJob("0 */30 * * * *", &countingJob{name: "cleanup"}))
	err = s.AddJob("@hourly", &countingJob{name: "cleanup"})
	assert.Error(t, err)
}

func TestRunNow_RecordsStatus(t *testing.T) {
	s := New(zerolog.Nop())
	ok := &countingJob{name: "ok"}
	failing := &countingJob{name: "failing", err: errors.New("disk full")}

	require.NoError(t, s.AddJob("@hourly", ok))
	require.NoError(t, s.AddJob("@hourly", failing))

	assert.NoError(t, s.RunNow(ok))
	assert.EqualError(t, s.RunNow(failing), "disk full")

	status := s.Status()
	require.Len(t, status, 2)
	assert.Equal(t, "failing", status[0].Name)
	assert.Equal(t, "disk full", status[0].LastErr)
	assert.Equal(t, 1, status[0].Runs)
	assert.Equal(t, "ok", status[1].Name)
	assert.Empty(t, status[1].LastErr)
	assert.False(t, status[1].LastRun.IsZero())
}

func TestScheduler_RunsJobsOnSchedule(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{name: "tick"}
	require.NoError(t, s.AddJob("@every 1s", job))

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return job.count.Load() >= 1
	}, 3*time.Second, 50*time.Millisecond)

	status := s.Status()
	require.Len(t, status, 1)
	assert.False(t, status[0].NextRun.IsZero())
}

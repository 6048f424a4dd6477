package schedule

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type countingJob struct {
	runs    atomic.Int32
	release chan struct{}
}

func (j *countingJob) Name() string {
	return "counting"
}

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.release != nil {
		<-j.release
	}
	return nil
}

func TestGuarded_DropsTickWhileRunning(t *testing.T) {
	sched := NewCronScheduler()
	job := &countingJob{release: make(chan struct{})}
	tick := sched.guarded(job, "* * * * *")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		tick()
	}()

	// Wait until the first run is inside Run and holding the guard.
	for job.runs.Load() == 0 {
		runtime.Gosched()
	}
	tick()
	require.Equal(t, int32(1), job.runs.Load())

	close(job.release)
	wg.Wait()

	tick()
	require.Equal(t, int32(2), job.runs.Load())
}

func TestAddJob_RejectsBadSpec(t *testing.T) {
	sched := NewCronScheduler()
	require.Error(t, sched.AddJob(&countingJob{}, "not a cron spec"))
	require.NoError(t, sched.AddJob(&countingJob{}, "0 2 * * *"))
}

package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errPermanent = errors.New("permanent")

func TestQueueProcessesJobs(t *testing.T) {
	done := make(chan string, 2)
	q := NewQueue("imports", func(ctx context.Context, job Job) error {
		done <- job.ID
		return nil
	}, QueueConfig{Workers: 2})

	require.Error(t, q.Enqueue(Job{ID: "early"}))

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "a"}))
	require.NoError(t, q.Enqueue(Job{ID: "b"}))

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case id := <-done:
			got[id] = true
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for jobs")
		}
	}
	assert.True(t, got["a"] && got["b"])
}

func TestQueueRetriesOnlyRetryableErrors(t *testing.T) {
	var attempts int32
	finished := make(chan struct{}, 4)
	q := NewQueue("imports", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&attempts, 1)
		finished <- struct{}{}
		if job.Type == "permanent" {
			return errPermanent
		}
		if job.Attempt == 0 {
			return errors.New("transient")
		}
		return nil
	}, QueueConfig{
		MaxRetries: 2,
		RetryDelay: 10 * time.Millisecond,
		Retryable:  func(err error) bool { return !errors.Is(err, errPermanent) },
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "t", Type: "transient"}))
	for i := 0; i < 2; i++ {
		select {
		case <-finished:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for retry")
		}
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))

	require.NoError(t, q.Enqueue(Job{ID: "p", Type: "permanent"}))
	<-finished
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/readinglists/internal/readinglists"
)

// BackgroundFetcher runs one synchronous sync pass.
type BackgroundFetcher interface {
	PerformBackgroundFetch(ctx context.Context) (readinglists.FetchResult, error)
}

// BackgroundSyncTask runs a reading list sync pass from the task queue.
type BackgroundSyncTask struct {
	Reason string `json:"reason,omitempty"`
}

// Config returns the queue configuration for background sync tasks.
func (t BackgroundSyncTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "background_sync",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     10 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// BackgroundSyncProcessor creates a processor function for BackgroundSyncTask.
func BackgroundSyncProcessor(fetcher BackgroundFetcher) backlite.QueueProcessor[BackgroundSyncTask] {
	return func(ctx context.Context, task BackgroundSyncTask) error {
		if fetcher == nil {
			return fmt.Errorf("reading lists controller not configured")
		}

		started := time.Now()
		result, err := fetcher.PerformBackgroundFetch(ctx)
		if err != nil {
			return fmt.Errorf("background sync (%s): %w", task.Reason, err)
		}

		log.Printf("[TASK] Background sync (%s) finished in %v: %s",
			task.Reason, time.Since(started).Round(time.Millisecond), result)
		return nil
	}
}

// NewBackgroundSyncQueue creates a backlite queue for background sync tasks.
func NewBackgroundSyncQueue(fetcher BackgroundFetcher) backlite.Queue {
	return backlite.NewQueue(BackgroundSyncProcessor(fetcher))
}

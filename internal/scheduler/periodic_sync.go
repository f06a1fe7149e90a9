package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/readinglists/internal/readinglists"
	"github.com/mrlokans/readinglists/internal/settingsstore"
)

// PeriodicWorker runs one synchronous sync pass.
type PeriodicWorker interface {
	DoPeriodicWork(ctx context.Context) (readinglists.FetchResult, error)
	IsSyncing() bool
}

// PeriodicSyncScheduler runs reading list sync passes on a cron schedule
type PeriodicSyncScheduler struct {
	settingsStore *settingsstore.SettingsStore
	worker        PeriodicWorker
	timeout       time.Duration

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isSyncing  bool
	lastResult readinglists.FetchResult
	lastRunAt  *time.Time
	cancelFunc context.CancelFunc
}

// NewPeriodicSyncScheduler creates a new scheduler instance
func NewPeriodicSyncScheduler(settingsStore *settingsstore.SettingsStore, worker PeriodicWorker) *PeriodicSyncScheduler {
	return &PeriodicSyncScheduler{
		settingsStore: settingsStore,
		worker:        worker,
		timeout:       10 * time.Minute,
		cron:          newCron(),
	}
}

func newCron() *cron.Cron {
	return cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)))
}

// Start begins the scheduler if periodic sync is enabled
func (s *PeriodicSyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	config := s.settingsStore.GetPeriodicSyncConfig()

	if !config.Enabled {
		log.Printf("Periodic sync scheduler: disabled")
		return nil
	}

	if err := settingsstore.ValidateCronSchedule(config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", config.Schedule, err)
	}

	// cron.Stop cannot be undone, so every start gets a fresh instance
	s.cron = newCron()
	entryID, err := s.cron.AddFunc(config.Schedule, func() {
		s.runSync()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sync job: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	nextRun, _ := settingsstore.GetNextRunTime(config.Schedule)
	log.Printf("Periodic sync scheduler: started with schedule '%s' (%s). Next run: %v",
		config.Schedule,
		settingsstore.GetCronDescription(config.Schedule),
		nextRun)

	// Monitor for context cancellation
	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler
func (s *PeriodicSyncScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	cancel := s.cancelFunc
	s.cancelFunc = nil
	c := s.cron
	s.mu.Unlock()

	// Stop accepting new jobs and wait for running jobs to complete
	<-c.Stop().Done()
	if cancel != nil {
		cancel()
	}

	log.Printf("Periodic sync scheduler: stopped")
}

// Reschedule updates the schedule (call after settings change)
func (s *PeriodicSyncScheduler) Reschedule() error {
	s.Stop()
	return s.Start(context.Background())
}

// RunNow triggers an immediate sync
func (s *PeriodicSyncScheduler) RunNow() {
	go s.runSync()
}

// IsRunning returns whether the scheduler is active
func (s *PeriodicSyncScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// IsSyncing returns whether a scheduled pass is in progress
func (s *PeriodicSyncScheduler) IsSyncing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isSyncing
}

// LastRun returns when the last scheduled pass finished and its result
func (s *PeriodicSyncScheduler) LastRun() (*time.Time, readinglists.FetchResult) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRunAt, s.lastResult
}

// GetNextRunTime returns when the next sync will occur
func (s *PeriodicSyncScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

func (s *PeriodicSyncScheduler) runSync() {
	s.mu.Lock()
	if s.isSyncing {
		s.mu.Unlock()
		log.Printf("Periodic sync: skipped (already syncing)")
		return
	}
	if s.worker.IsSyncing() {
		s.mu.Unlock()
		log.Printf("Periodic sync: skipped (sync pass in progress)")
		return
	}
	s.isSyncing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isSyncing = false
		s.mu.Unlock()
	}()

	log.Printf("Periodic sync: starting")
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	result, err := s.worker.DoPeriodicWork(ctx)
	if err != nil {
		result = readinglists.FetchResultFailed
		log.Printf("Periodic sync: failed after %v: %v", time.Since(startTime).Round(time.Millisecond), err)
	} else {
		log.Printf("Periodic sync: finished in %v (%s)", time.Since(startTime).Round(time.Millisecond), result)
	}

	finished := time.Now()
	s.mu.Lock()
	s.lastRunAt = &finished
	s.lastResult = result
	s.mu.Unlock()
}

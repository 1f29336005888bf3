// Package jobs runs the application's background work on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler wraps robfig/cron with named-job bookkeeping. Jobs are skipped
// when a previous run is still going, and a panic inside a job does not
// take the process down.
type Scheduler struct {
	cron    *cron.Cron
	logger  *zap.Logger
	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// NewScheduler creates a scheduler. Jobs may be added before or after Start.
func NewScheduler(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds(), cron.WithChain(
			cron.SkipIfStillRunning(cron.DefaultLogger),
			cron.Recover(cron.DefaultLogger),
		)),
		logger:  logger,
		entries: make(map[string]cron.EntryID),
	}
}

// Start begins running registered jobs on their schedules.
func (s *Scheduler) Start() {
	s.logger.Info("starting job scheduler")
	s.cron.Start()
}

// Stop stops scheduling new runs. The returned context is done once any
// in-flight job has finished.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("stopping job scheduler")
	return s.cron.Stop()
}

// AddJob registers a named job. cronExpr uses the six-field format with
// seconds ("0 0 7 * * *"), the five-field standard format, or descriptors
// like "@hourly" and "@every 1h". Names must be unique.
func (s *Scheduler) AddJob(name string, cronExpr string, job func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[name]; exists {
		return fmt.Errorf("job %s already exists", name)
	}

	entryID, err := s.cron.AddFunc(cronExpr, func() {
		s.logger.Info("running scheduled job", zap.String("job_name", name))
		job()
		s.logger.Info("completed scheduled job", zap.String("job_name", name))
	})
	if err != nil {
		return fmt.Errorf("failed to add job %s: %w", name, err)
	}
	s.entries[name] = entryID

	s.logger.Info("added scheduled job",
		zap.String("job_name", name),
		zap.String("cron_expr", cronExpr))
	return nil
}

// RemoveJob unregisters a job by name.
func (s *Scheduler) RemoveJob(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryID, exists := s.entries[name]
	if !exists {
		return fmt.Errorf("job %s not found", name)
	}
	s.cron.Remove(entryID)
	delete(s.entries, name)

	s.logger.Info("removed scheduled job", zap.String("job_name", name))
	return nil
}

// JobNames returns the names of all registered jobs.
func (s *Scheduler) JobNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	return names
}

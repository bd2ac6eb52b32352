package scheduler

import (
	"fmt"
	"sync"
	"time"

	"duesreminder/internal/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Scheduler runs one-shot jobs at absolute instants on top of a cron runner.
type Scheduler struct {
	cron    *cron.Cron
	log     logger.Logger
	mu      sync.Mutex
	stopped bool
}

// NewScheduler creates and starts a scheduler evaluating times in loc.
func NewScheduler(loc *time.Location, log logger.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	cl := cronLogger{log: log}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl)),
	)
	c.Start()
	log.Info("Cron scheduler started.")
	return &Scheduler{
		cron: c,
		log:  log,
	}
}

// ScheduleAt registers cmd to run once at the given instant.
// An instant that has already passed runs as soon as possible.
func (s *Scheduler) ScheduleAt(at time.Time, cmd func()) (cron.EntryID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return 0, fmt.Errorf("failed to add job at %v: scheduler stopped", at)
	}
	id := s.cron.Schedule(&onceSchedule{at: at}, cron.FuncJob(cmd))
	s.log.Debug(fmt.Sprintf("Added one-shot job with ID %d at %v", id, at))
	return id, nil
}

// RemoveJob removes a job from the scheduler by its EntryID.
func (s *Scheduler) RemoveJob(id cron.EntryID) {
	s.cron.Remove(id)
	s.log.Debug(fmt.Sprintf("Removed cron job with ID %d", id))
}

// Stop stops the cron scheduler and waits for running jobs to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("Cron scheduler stopped.")
}

// GetEntries returns the list of scheduled entries. Useful for debugging.
func (s *Scheduler) GetEntries() []cron.Entry {
	return s.cron.Entries()
}

// onceSchedule fires a single time. cron asks for the first activation when
// the entry is registered and again after every run; only the first answer is
// non-zero, and a past instant is clamped to "now" so it is never skipped.
type onceSchedule struct {
	at   time.Time
	done bool
}

func (s *onceSchedule) Next(now time.Time) time.Time {
	if s.done {
		return time.Time{}
	}
	s.done = true
	if s.at.After(now) {
		return s.at
	}
	return now
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(fmt.Sprintf("cron: %s %v", msg, keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(fmt.Sprintf("cron: %s %v", msg, keysAndValues), err)
}

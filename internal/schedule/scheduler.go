// Package schedule runs sweeps on a cron schedule.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context)

// Scheduler fires a Job on a standard five-field cron expression. A tick that
// arrives while the previous run is still in progress is skipped.
type Scheduler struct {
	expr    string
	job     Job
	cron    *cron.Cron
	logger  *slog.Logger
	mu      sync.Mutex
	running bool
	// stopped is done once the last Stop has drained the running job.
	stopped context.Context
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the scheduler logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// New validates the cron expression and returns a stopped Scheduler.
//
// Common expressions:
//   - "0 3 * * *"   daily at 03:00
//   - "0 */6 * * *" every 6 hours
//   - "@every 1h"
func New(expr string, job Job, opts ...Option) (*Scheduler, error) {
	if _, err := cron.ParseStandard(expr); err != nil {
		return nil, fmt.Errorf("invalid cron schedule %q: %w", expr, err)
	}
	s := &Scheduler{
		expr:   expr,
		job:    job,
		logger: slog.Default().With("component", "schedule"),
	}
	for _, opt := range opts {
		opt(s)
	}
	cl := cronLogger{s.logger}
	s.cron = cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	return s, nil
}

// Start schedules the job and returns. The scheduler stops when ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	if _, err := s.cron.AddFunc(s.expr, func() { s.job(ctx) }); err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}
	s.cron.Start()
	s.running = true
	s.stopped = nil
	s.logger.Info("scheduler started", "schedule", s.expr, "next_run", s.nextRunLocked())

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Run starts the scheduler and blocks until ctx is done and any job in
// progress has finished.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return nil
}

// Stop stops the scheduler and waits for a running job to complete. Every
// caller waits, including those that arrive after another Stop has begun.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	first := s.running
	if first {
		s.running = false
		s.stopped = s.cron.Stop()
	}
	done := s.stopped
	s.mu.Unlock()

	if done == nil {
		return
	}
	<-done.Done()
	if first {
		s.logger.Info("scheduler stopped")
	}
}

// IsRunning reports whether the scheduler has been started and not stopped.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next activation time, or the zero time when stopped.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextRunLocked()
}

func (s *Scheduler) nextRunLocked() time.Time {
	if !s.running {
		return time.Time{}
	}
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error(msg, append(keysAndValues, "error", err)...)
}

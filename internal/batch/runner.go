// Package batch runs every retention rule of a sweep concurrently.
//
// Each rule gets its own goroutine. A failing or panicking rule is reported in
// its Result and never cancels or delays the other rules.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dm/indexsweep/internal/metrics"
	"github.com/dm/indexsweep/internal/retention"
)

// Cleaner evaluates one retention rule.
type Cleaner interface {
	Apply(ctx context.Context, rule retention.Rule) (*retention.Outcome, error)
	Plan(ctx context.Context, rule retention.Rule) (*retention.Outcome, error)
}

// Mode selects whether the runner deletes or only plans.
type Mode int

const (
	// ModeApply deletes eligible indices.
	ModeApply Mode = iota
	// ModePlan only reports eligible indices.
	ModePlan
)

func (m Mode) String() string {
	if m == ModePlan {
		return "plan"
	}
	return "apply"
}

// Result is the outcome of one rule task.
type Result struct {
	Rule     retention.Rule
	Outcome  *retention.Outcome
	Err      error
	Duration time.Duration
}

// Panicked reports whether the task crashed rather than returning an error.
func (r Result) Panicked() bool {
	_, ok := r.Err.(*TaskPanicError)
	return ok
}

// TaskPanicError wraps a panic recovered from a rule task.
type TaskPanicError struct {
	Value any
	Stack []byte
}

func (e *TaskPanicError) Error() string {
	return fmt.Sprintf("rule task panicked: %v", e.Value)
}

// Runner fans rules out over a Cleaner.
type Runner struct {
	cleaner Cleaner
	mode    Mode
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Runner.
type Option func(*Runner)

// WithMode sets the run mode. The default is ModeApply.
func WithMode(m Mode) Option {
	return func(r *Runner) { r.mode = m }
}

// WithLogger sets the runner logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics records per-rule outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// NewRunner returns a Runner over cleaner.
func NewRunner(cleaner Cleaner, opts ...Option) *Runner {
	r := &Runner{
		cleaner: cleaner,
		logger:  slog.Default().With("component", "batch"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run evaluates every rule concurrently and waits for all of them.
// Results are returned in rule order.
func (r *Runner) Run(ctx context.Context, rules []retention.Rule) []Result {
	if len(rules) == 0 {
		r.logger.Info("no retention rules configured")
		return []Result{}
	}

	r.logger.Info("starting sweep", "rules", len(rules), "mode", r.mode)
	start := time.Now()

	results := make([]Result, len(rules))

	// Tasks never return an error to the group so one failure cannot cancel
	// or short-circuit its siblings.
	var g errgroup.Group
	for i, rule := range rules {
		g.Go(func() error {
			results[i] = r.runTask(ctx, rule)
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range results {
		r.logResult(res)
	}

	failed := CountFailed(results)
	r.metrics.SweepCompleted(time.Now())
	r.logger.Info("sweep completed",
		"rules", len(results),
		"successful", len(results)-failed,
		"failed", failed,
		"duration", time.Since(start))
	return results
}

// runTask evaluates one rule, converting a panic into a TaskPanicError.
func (r *Runner) runTask(ctx context.Context, rule retention.Rule) (res Result) {
	start := time.Now()
	res.Rule = rule

	defer func() {
		if v := recover(); v != nil {
			res.Outcome = nil
			res.Err = &TaskPanicError{Value: v, Stack: debug.Stack()}
		}
		res.Duration = time.Since(start)
		r.metrics.RuleCompleted(rule.IndexPattern, statusOf(res), res.Duration)
	}()

	if r.mode == ModePlan {
		res.Outcome, res.Err = r.cleaner.Plan(ctx, rule)
	} else {
		res.Outcome, res.Err = r.cleaner.Apply(ctx, rule)
	}
	return res
}

func (r *Runner) logResult(res Result) {
	log := r.logger.With("pattern", res.Rule.IndexPattern, "duration", res.Duration)
	switch {
	case res.Panicked():
		pe := res.Err.(*TaskPanicError)
		log.Error("rule task crashed", "panic", pe.Value, "stack", string(pe.Stack))
	case res.Err != nil:
		log.Error("rule task failed", "error", res.Err)
	case res.Outcome == nil:
		log.Info("rule task completed")
	default:
		o := res.Outcome
		log.Info("rule task completed",
			"listed", o.Listed,
			"deleted", len(o.Deleted),
			"eligible", len(o.Eligible),
			"retained", o.Retained,
			"skipped", len(o.Skipped),
			"delete_failures", len(o.Failed))
	}
}

func statusOf(res Result) string {
	switch {
	case res.Panicked():
		return "panic"
	case res.Err != nil:
		return "error"
	case res.Outcome != nil && len(res.Outcome.Failed) > 0:
		return "partial"
	default:
		return "success"
	}
}

// Package retention decides which indices have outlived their retention period
// and deletes them.
//
// A rule is processed in four sequential steps: list the indices matching the
// pattern, parse the date embedded in each name, compare it with the deadline
// and delete what is due. Only a failed listing aborts a rule; unparseable
// names and failed deletions are recorded and the loop continues.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dm/indexsweep/internal/client"
	"github.com/dm/indexsweep/internal/metrics"
)

// Repository is the index store the engine works against.
type Repository interface {
	ListIndices(ctx context.Context, pattern string) ([]client.IndexInfo, error)
	DeleteIndex(ctx context.Context, name string) error
}

// Engine applies retention rules through a Repository.
type Engine struct {
	repo    Repository
	now     func() time.Time
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source used to compute deadlines.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics records deletions and skips on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine returns an Engine over repo.
func NewEngine(repo Repository, opts ...Option) *Engine {
	e := &Engine{
		repo:   repo,
		now:    time.Now,
		logger: slog.Default().With("component", "retention"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Apply evaluates rule and deletes every index dated on or before its deadline.
// The returned error is non-nil only when the rule could not be evaluated at all.
func (e *Engine) Apply(ctx context.Context, rule Rule) (*Outcome, error) {
	out, err := e.evaluate(ctx, rule)
	if err != nil {
		return nil, err
	}

	log := e.logger.With("pattern", rule.IndexPattern)
	for _, idx := range out.Eligible {
		if err := e.repo.DeleteIndex(ctx, idx.Name); err != nil {
			log.Error("failed to delete index", "index", idx.Name, "error", err)
			out.Failed = append(out.Failed, FailedIndex{Name: idx.Name, Error: err.Error()})
			e.metrics.DeleteFailed(rule.IndexPattern)
			continue
		}
		log.Info("deleted index", "index", idx.Name, "index_date", idx.Date.Format(layoutDashed))
		out.Deleted = append(out.Deleted, idx.Name)
		e.metrics.IndexDeleted(rule.IndexPattern)
	}
	return out, nil
}

// Plan evaluates rule without deleting anything.
func (e *Engine) Plan(ctx context.Context, rule Rule) (*Outcome, error) {
	out, err := e.evaluate(ctx, rule)
	if err != nil {
		return nil, err
	}
	out.DryRun = true
	return out, nil
}

// evaluate lists, parses and selects the indices of rule that are past the deadline.
func (e *Engine) evaluate(ctx context.Context, rule Rule) (*Outcome, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	log := e.logger.With("pattern", rule.IndexPattern)
	deadline := Deadline(e.now(), rule.DurationDays)

	indices, err := e.repo.ListIndices(ctx, rule.IndexPattern)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", rule, err)
	}

	out := &Outcome{
		Rule:     rule,
		Deadline: deadline,
		Listed:   len(indices),
	}

	for _, info := range indices {
		date, err := ExtractDate(info.Index)
		if err != nil {
			log.Warn("skipping index without parseable date", "index", info.Index, "error", err)
			out.Skipped = append(out.Skipped, SkippedIndex{Name: info.Index, Reason: err.Error()})
			e.metrics.IndexSkipped(rule.IndexPattern, "no_date")
			continue
		}
		if !Eligible(date, deadline) {
			out.Retained++
			continue
		}
		out.Eligible = append(out.Eligible, IndexDescriptor{Name: info.Index, Date: date, Info: info})
	}

	log.Debug("rule evaluated",
		"deadline", deadline.Format(layoutDashed),
		"listed", out.Listed,
		"eligible", len(out.Eligible),
		"retained", out.Retained,
		"skipped", len(out.Skipped))
	return out, nil
}

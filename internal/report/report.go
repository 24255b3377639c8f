// Package report renders sweep results as a terminal table, JSON or YAML.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/dm/indexsweep/internal/batch"
	"github.com/dm/indexsweep/internal/format"
	"github.com/dm/indexsweep/internal/retention"
)

// Format is an output format name.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat accepts table, json, yaml and yml.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", s)
	}
}

// Rule status values.
const (
	StatusOK      = "ok"
	StatusPartial = "partial"
	StatusFailed  = "failed"
	StatusCrashed = "crashed"
)

// Report is the serializable view of one sweep.
type Report struct {
	RunID       string        `json:"run_id" yaml:"run_id"`
	Mode        string        `json:"mode" yaml:"mode"`
	GeneratedAt time.Time     `json:"generated_at" yaml:"generated_at"`
	Summary     batch.Summary `json:"summary" yaml:"summary"`
	Rules       []RuleReport  `json:"rules" yaml:"rules"`
}

// RuleReport is the view of one rule result.
type RuleReport struct {
	Pattern      string                   `json:"pattern" yaml:"pattern"`
	DurationDays uint                     `json:"duration_days" yaml:"duration_days"`
	Status       string                   `json:"status" yaml:"status"`
	Error        string                   `json:"error,omitempty" yaml:"error,omitempty"`
	Deadline     string                   `json:"deadline,omitempty" yaml:"deadline,omitempty"`
	Listed       int                      `json:"listed" yaml:"listed"`
	Retained     int                      `json:"retained" yaml:"retained"`
	Eligible     []IndexRow               `json:"eligible,omitempty" yaml:"eligible,omitempty"`
	Deleted      []string                 `json:"deleted,omitempty" yaml:"deleted,omitempty"`
	Skipped      []retention.SkippedIndex `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Failed       []retention.FailedIndex  `json:"failed,omitempty" yaml:"failed,omitempty"`
	Took         string                   `json:"took" yaml:"took"`
}

// IndexRow is one eligible index.
type IndexRow struct {
	Name      string `json:"name" yaml:"name"`
	Date      string `json:"date" yaml:"date"`
	Age       string `json:"age" yaml:"age"`
	Health    string `json:"health,omitempty" yaml:"health,omitempty"`
	Status    string `json:"status,omitempty" yaml:"status,omitempty"`
	DocsCount string `json:"docs_count,omitempty" yaml:"docs_count,omitempty"`
	StoreSize string `json:"store_size,omitempty" yaml:"store_size,omitempty"`
}

// Build converts runner results into a Report.
func Build(runID string, mode batch.Mode, results []batch.Result, now time.Time) Report {
	r := Report{
		RunID:       runID,
		Mode:        mode.String(),
		GeneratedAt: now.UTC(),
		Summary:     batch.Summarize(results),
		Rules:       make([]RuleReport, 0, len(results)),
	}
	for _, res := range results {
		r.Rules = append(r.Rules, buildRule(res, now))
	}
	return r
}

func buildRule(res batch.Result, now time.Time) RuleReport {
	rr := RuleReport{
		Pattern:      res.Rule.IndexPattern,
		DurationDays: res.Rule.DurationDays,
		Took:         res.Duration.Round(time.Millisecond).String(),
	}
	switch {
	case res.Panicked():
		rr.Status = StatusCrashed
		rr.Error = res.Err.Error()
		return rr
	case res.Err != nil:
		rr.Status = StatusFailed
		rr.Error = res.Err.Error()
		return rr
	case res.Outcome == nil:
		rr.Status = StatusOK
		return rr
	}

	o := res.Outcome
	rr.Status = StatusOK
	if len(o.Failed) > 0 {
		rr.Status = StatusPartial
	}
	rr.Deadline = format.FormatDate(o.Deadline)
	rr.Listed = o.Listed
	rr.Retained = o.Retained
	rr.Deleted = o.Deleted
	rr.Skipped = o.Skipped
	rr.Failed = o.Failed
	for _, idx := range o.Eligible {
		rr.Eligible = append(rr.Eligible, IndexRow{
			Name:      idx.Name,
			Date:      format.FormatDate(idx.Date),
			Age:       format.FormatAge(idx.Date, now),
			Health:    idx.Info.Health,
			Status:    idx.Info.Status,
			DocsCount: idx.Info.DocsCount,
			StoreSize: idx.Info.StoreSize,
		})
	}
	return rr
}

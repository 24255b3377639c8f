package retention

import (
	"fmt"
	"strings"
	"time"

	"github.com/dm/indexsweep/internal/client"
)

// Rule is one target index pattern with its retention period in days.
type Rule struct {
	IndexPattern string `json:"index_name" yaml:"index_name"`
	DurationDays uint   `json:"duration_days" yaml:"duration_days"`
}

// Validate rejects rules that cannot be evaluated.
func (r Rule) Validate() error {
	if strings.TrimSpace(r.IndexPattern) == "" {
		return fmt.Errorf("rule index_name must not be empty")
	}
	return nil
}

func (r Rule) String() string {
	return fmt.Sprintf("%s (%dd)", r.IndexPattern, r.DurationDays)
}

// IndexDescriptor is a listed index together with the date parsed from its name.
type IndexDescriptor struct {
	Name string           `json:"name" yaml:"name"`
	Date time.Time        `json:"date" yaml:"date"`
	Info client.IndexInfo `json:"info" yaml:"info"`
}

// SkippedIndex is a listed index without a usable date.
type SkippedIndex struct {
	Name   string `json:"name" yaml:"name"`
	Reason string `json:"reason" yaml:"reason"`
}

// FailedIndex is an eligible index whose deletion failed.
type FailedIndex struct {
	Name  string `json:"name" yaml:"name"`
	Error string `json:"error" yaml:"error"`
}

// Outcome summarizes one rule evaluation.
type Outcome struct {
	Rule     Rule              `json:"rule" yaml:"rule"`
	Deadline time.Time         `json:"deadline" yaml:"deadline"`
	DryRun   bool              `json:"dry_run" yaml:"dry_run"`
	Listed   int               `json:"listed" yaml:"listed"`
	Retained int               `json:"retained" yaml:"retained"`
	Eligible []IndexDescriptor `json:"eligible,omitempty" yaml:"eligible,omitempty"`
	Deleted  []string          `json:"deleted,omitempty" yaml:"deleted,omitempty"`
	Skipped  []SkippedIndex    `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Failed   []FailedIndex     `json:"failed,omitempty" yaml:"failed,omitempty"`
}

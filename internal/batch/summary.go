package batch

// Summary aggregates the results of one sweep.
type Summary struct {
	Rules          int `json:"rules" yaml:"rules"`
	Failed         int `json:"failed" yaml:"failed"`
	Panicked       int `json:"panicked" yaml:"panicked"`
	Listed         int `json:"listed" yaml:"listed"`
	Eligible       int `json:"eligible" yaml:"eligible"`
	Deleted        int `json:"deleted" yaml:"deleted"`
	Skipped        int `json:"skipped" yaml:"skipped"`
	DeleteFailures int `json:"delete_failures" yaml:"delete_failures"`
}

// HasFailures reports whether any rule or deletion failed.
func (s Summary) HasFailures() bool {
	return s.Failed > 0 || s.DeleteFailures > 0
}

// CountFailed returns the number of rules that failed or panicked.
func CountFailed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// Summarize folds results into a Summary.
func Summarize(results []Result) Summary {
	s := Summary{Rules: len(results)}
	for _, r := range results {
		if r.Err != nil {
			s.Failed++
			if r.Panicked() {
				s.Panicked++
			}
			continue
		}
		if r.Outcome == nil {
			continue
		}
		s.Listed += r.Outcome.Listed
		s.Eligible += len(r.Outcome.Eligible)
		s.Deleted += len(r.Outcome.Deleted)
		s.Skipped += len(r.Outcome.Skipped)
		s.DeleteFailures += len(r.Outcome.Failed)
	}
	return s
}

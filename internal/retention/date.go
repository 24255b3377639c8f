package retention

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ErrNoDate is returned when an index name carries no parseable date.
var ErrNoDate = errors.New("no date in index name")

// datePattern matches YYYY MM DD optionally separated by '-' or '_'.
var datePattern = regexp.MustCompile(`(\d{4})[-_]?(\d{2})[-_]?(\d{2})`)

const (
	layoutDashed  = "2006-01-02"
	layoutCompact = "20060102"
)

// ExtractDate returns the first date embedded in an index name, as a UTC midnight.
// "logs-2024-03-01" and "logs_20240301_v2" both yield 2024-03-01. Candidates
// that do not parse are passed over, so "app-12345-2024-03-01" still yields
// 2024-03-01.
func ExtractDate(name string) (time.Time, error) {
	first := ""
	for off := 0; off < len(name); {
		loc := datePattern.FindStringIndex(name[off:])
		if loc == nil {
			break
		}
		match := name[off+loc[0] : off+loc[1]]
		if first == "" {
			first = match
		}
		if d, ok := parseDate(match); ok {
			return d, nil
		}
		off += loc[0] + 1
	}
	if first == "" {
		return time.Time{}, fmt.Errorf("%w: %q", ErrNoDate, name)
	}
	return time.Time{}, fmt.Errorf("%w: %q has unparseable date %q", ErrNoDate, name, first)
}

func parseDate(match string) (time.Time, bool) {
	s := strings.ReplaceAll(match, "_", "-")
	if d, err := time.Parse(layoutDashed, s); err == nil {
		return d, true
	}
	if d, err := time.Parse(layoutCompact, s); err == nil {
		return d, true
	}
	return time.Time{}, false
}

// Deadline returns the UTC calendar date of now minus days.
func Deadline(now time.Time, days uint) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -int(days))
}

// Eligible reports whether an index dated date is past deadline. The boundary
// is inclusive: an index dated on the deadline is eligible.
func Eligible(date, deadline time.Time) bool {
	return !date.After(deadline)
}

package format

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Unknown is shown for values the cluster did not report, e.g. the size of a
// closed index.
const Unknown = "---"

// FormatBytes formats a byte count into a human-readable string with 1 decimal place.
// Thresholds: <1KB → B, <1MB → KB, <1GB → MB, <1TB → GB, else TB.
func FormatBytes(bytes int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
		tb = gb * 1024
	)
	switch {
	case bytes < kb:
		return fmt.Sprintf("%d B", bytes)
	case bytes < mb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/kb)
	case bytes < gb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/mb)
	case bytes < tb:
		return fmt.Sprintf("%.1f GB", float64(bytes)/gb)
	default:
		return fmt.Sprintf("%.1f TB", float64(bytes)/tb)
	}
}

// FormatNumber formats an integer with comma separators.
// Example: 12345678 → "12,345,678".
func FormatNumber(n int64) string {
	s := strconv.FormatInt(n, 10)
	if n < 0 {
		return "-" + insertCommas(s[1:])
	}
	return insertCommas(s)
}

// FormatSize formats a raw store.size value as returned by cat indices with
// bytes=b. Empty or non-numeric input yields Unknown.
func FormatSize(raw string) string {
	n, ok := parseCount(raw)
	if !ok {
		return Unknown
	}
	return FormatBytes(n)
}

// FormatCount formats a raw docs.count value. Empty or non-numeric input
// yields Unknown.
func FormatCount(raw string) string {
	n, ok := parseCount(raw)
	if !ok {
		return Unknown
	}
	return FormatNumber(n)
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return Unknown
	}
	return t.Format("2006-01-02")
}

// FormatAge returns the whole number of days between date and now, e.g. "42d".
func FormatAge(date, now time.Time) string {
	if date.IsZero() {
		return Unknown
	}
	days := int(now.UTC().Truncate(24*time.Hour).Sub(date.UTC().Truncate(24*time.Hour)).Hours() / 24)
	return fmt.Sprintf("%dd", days)
}

func parseCount(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// insertCommas inserts comma separators into a digit string every 3 digits from the right.
func insertCommas(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	var buf strings.Builder
	lead := n % 3
	if lead > 0 {
		buf.WriteString(s[:lead])
	}
	for i := lead; i < n; i += 3 {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(s[i : i+3])
	}
	return buf.String()
}

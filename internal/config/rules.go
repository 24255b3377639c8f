package config

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/dm/indexsweep/internal/retention"
)

const rulesKey = "index"

// ruleEntry is the on-disk shape of a rule. duration_days is kept raw and
// parsed by parseDurationDays so it is never coerced by the decoder.
type ruleEntry struct {
	IndexName    string `mapstructure:"index_name"`
	DurationDays any    `mapstructure:"duration_days"`
}

// LoadRules reads the retention rules from path. The format follows the file
// extension (toml, yaml or json); a file without extension is read as toml.
//
//	[[index]]
//	index_name = "logs-*"
//	duration_days = 30
//
// duration_days may also be a decimal string.
func LoadRules(path string) ([]retention.Rule, error) {
	v := viper.New()
	v.SetConfigFile(path)

	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")); ext {
	case "":
		v.SetConfigType("toml")
	case "toml", "yaml", "yml", "json":
		v.SetConfigType(ext)
	default:
		return nil, fmt.Errorf("%w: unsupported rule file format %q", ErrInvalidConfig, ext)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read rule file %s: %w", path, err)
	}
	if !v.IsSet(rulesKey) {
		return nil, fmt.Errorf("%w: rule file %s has no %q entries", ErrInvalidConfig, path, rulesKey)
	}

	var entries []ruleEntry
	if err := v.UnmarshalKey(rulesKey, &entries); err != nil {
		return nil, fmt.Errorf("%w: decode rule file %s: %v", ErrInvalidConfig, path, err)
	}

	rules := make([]retention.Rule, 0, len(entries))
	for i, e := range entries {
		days, err := parseDurationDays(e.DurationDays)
		if err != nil {
			return nil, fmt.Errorf("%w: rule %d in %s: %v", ErrInvalidConfig, i, path, err)
		}
		r := retention.Rule{IndexPattern: e.IndexName, DurationDays: days}
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("%w: rule %d in %s: %v", ErrInvalidConfig, i, path, err)
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// parseDurationDays accepts a non-negative whole number of days, either as a
// number or a decimal string.
func parseDurationDays(raw any) (uint, error) {
	switch v := raw.(type) {
	case nil:
		return 0, fmt.Errorf("duration_days must be set")
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, fmt.Errorf("duration_days must be set")
		}
		n, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("duration_days must be a non-negative decimal integer, got %q", v)
		}
		return uint(n), nil
	case int:
		return daysFromInt(int64(v))
	case int64:
		return daysFromInt(v)
	case uint64:
		if v > math.MaxUint32 {
			return 0, fmt.Errorf("duration_days out of range, got %d", v)
		}
		return uint(v), nil
	case float64:
		if v != math.Trunc(v) || v < 0 || v > math.MaxUint32 {
			return 0, fmt.Errorf("duration_days must be a non-negative whole number, got %v", v)
		}
		return uint(v), nil
	default:
		return 0, fmt.Errorf("duration_days must be a number, got %T", raw)
	}
}

func daysFromInt(n int64) (uint, error) {
	if n < 0 {
		return 0, fmt.Errorf("duration_days must not be negative, got %d", n)
	}
	if n > math.MaxUint32 {
		return 0, fmt.Errorf("duration_days out of range, got %d", n)
	}
	return uint(n), nil
}

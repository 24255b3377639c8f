package retention

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dm/indexsweep/internal/client"
	"github.com/dm/indexsweep/internal/metrics"
)

var errMockFailure = errors.New("mock failure")

// mockRepository is an in-memory Repository. Deleted indices disappear from
// subsequent listings.
type mockRepository struct {
	mu       sync.Mutex
	indices  map[string]bool
	ListFn   func(ctx context.Context, pattern string) ([]client.IndexInfo, error)
	DeleteFn func(ctx context.Context, name string) error
	deleted  []string
}

func newMockRepository(names ...string) *mockRepository {
	m := &mockRepository{indices: map[string]bool{}}
	for _, n := range names {
		m.indices[n] = true
	}
	return m
}

func (m *mockRepository) ListIndices(ctx context.Context, pattern string) ([]client.IndexInfo, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, pattern)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.indices))
	for n := range m.indices {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]client.IndexInfo, len(names))
	for i, n := range names {
		out[i] = client.IndexInfo{Index: n}
	}
	return out, nil
}

func (m *mockRepository) DeleteIndex(ctx context.Context, name string) error {
	if m.DeleteFn != nil {
		if err := m.DeleteFn(ctx, name); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.indices, name)
	m.deleted = append(m.deleted, name)
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var june10 = time.Date(2024, 6, 10, 8, 30, 0, 0, time.UTC)

func TestApply_RetentionBoundary(t *testing.T) {
	repo := newMockRepository(
		"logs-2024-05-10",
		"logs-2024-05-11",
		"logs-2024-05-12",
		"logs-2024-06-10",
	)
	e := NewEngine(repo, WithClock(fixedClock(june10)))

	out, err := e.Apply(context.Background(), Rule{IndexPattern: "logs-*", DurationDays: 30})
	require.NoError(t, err)

	assert.Equal(t, date(2024, 5, 11), out.Deadline)
	assert.Equal(t, 4, out.Listed)
	assert.ElementsMatch(t, []string{"logs-2024-05-10", "logs-2024-05-11"}, out.Deleted)
	assert.Equal(t, 2, out.Retained)
	assert.Empty(t, out.Failed)
	assert.Empty(t, out.Skipped)
	assert.False(t, out.DryRun)
}

func TestApply_SkipsUnparseableNames(t *testing.T) {
	repo := newMockRepository("logs-no-date", "logs-2024-13-40", "logs_20240301_v2")
	e := NewEngine(repo, WithClock(fixedClock(june10)))

	out, err := e.Apply(context.Background(), Rule{IndexPattern: "logs*", DurationDays: 30})
	require.NoError(t, err)

	assert.Equal(t, []string{"logs_20240301_v2"}, out.Deleted)
	require.Len(t, out.Skipped, 2)
	skipped := []string{out.Skipped[0].Name, out.Skipped[1].Name}
	assert.ElementsMatch(t, []string{"logs-no-date", "logs-2024-13-40"}, skipped)
}

func TestApply_DeleteFailureDoesNotStopOthers(t *testing.T) {
	repo := newMockRepository("logs-2024-01-01", "logs-2024-01-02", "logs-2024-01-03")
	repo.DeleteFn = func(_ context.Context, name string) error {
		if name == "logs-2024-01-01" {
			return errMockFailure
		}
		return nil
	}
	e := NewEngine(repo, WithClock(fixedClock(june10)))

	out, err := e.Apply(context.Background(), Rule{IndexPattern: "logs-*", DurationDays: 30})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"logs-2024-01-02", "logs-2024-01-03"}, out.Deleted)
	require.Len(t, out.Failed, 1)
	assert.Equal(t, "logs-2024-01-01", out.Failed[0].Name)
	assert.Contains(t, out.Failed[0].Error, "mock failure")
}

func TestApply_ListFailureAbortsRule(t *testing.T) {
	repo := newMockRepository()
	repo.ListFn = func(context.Context, string) ([]client.IndexInfo, error) {
		return nil, errMockFailure
	}
	e := NewEngine(repo, WithClock(fixedClock(june10)))

	out, err := e.Apply(context.Background(), Rule{IndexPattern: "logs-*", DurationDays: 30})
	require.Error(t, err)
	assert.Nil(t, out)
	assert.ErrorIs(t, err, errMockFailure)
	assert.Empty(t, repo.deleted)
}

func TestApply_InvalidRule(t *testing.T) {
	e := NewEngine(newMockRepository("logs-2024-01-01"))
	_, err := e.Apply(context.Background(), Rule{IndexPattern: "  ", DurationDays: 30})
	assert.Error(t, err)
}

func TestApply_Idempotent(t *testing.T) {
	repo := newMockRepository("logs-2024-01-01", "logs-2024-05-01", "logs-2024-06-01", "logs-2024-06-09")
	e := NewEngine(repo, WithClock(fixedClock(june10)))
	rule := Rule{IndexPattern: "logs-*", DurationDays: 30}

	first, err := e.Apply(context.Background(), rule)
	require.NoError(t, err)
	assert.Len(t, first.Deleted, 2)

	second, err := e.Apply(context.Background(), rule)
	require.NoError(t, err)
	assert.Empty(t, second.Deleted)
	assert.Empty(t, second.Eligible)
	assert.Equal(t, 2, second.Retained)
}

func TestApply_ZeroDaysDeletesToday(t *testing.T) {
	repo := newMockRepository("logs-2024-06-10", "logs-2024-06-11")
	e := NewEngine(repo, WithClock(fixedClock(june10)))

	out, err := e.Apply(context.Background(), Rule{IndexPattern: "logs-*", DurationDays: 0})
	require.NoError(t, err)
	assert.Equal(t, []string{"logs-2024-06-10"}, out.Deleted)
	assert.Equal(t, 1, out.Retained)
}

func TestPlan_NeverDeletes(t *testing.T) {
	repo := newMockRepository("logs-2024-01-01", "logs-2024-06-09")
	repo.DeleteFn = func(context.Context, string) error {
		t.Fatal("Plan must not delete")
		return nil
	}
	e := NewEngine(repo, WithClock(fixedClock(june10)))

	out, err := e.Plan(context.Background(), Rule{IndexPattern: "logs-*", DurationDays: 30})
	require.NoError(t, err)
	assert.True(t, out.DryRun)
	require.Len(t, out.Eligible, 1)
	assert.Equal(t, "logs-2024-01-01", out.Eligible[0].Name)
	assert.Equal(t, date(2024, 1, 1), out.Eligible[0].Date)
	assert.Empty(t, out.Deleted)
}

func TestApply_RecordsMetrics(t *testing.T) {
	repo := newMockRepository("logs-2024-01-01", "logs-2024-01-02", "logs-undated")
	repo.DeleteFn = func(_ context.Context, name string) error {
		if name == "logs-2024-01-02" {
			return errMockFailure
		}
		return nil
	}
	m := metrics.New()
	e := NewEngine(repo, WithClock(fixedClock(june10)), WithMetrics(m))

	_, err := e.Apply(context.Background(), Rule{IndexPattern: "logs-*", DurationDays: 30})
	require.NoError(t, err)

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	got := map[string]float64{}
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			got[f.GetName()] += metric.GetCounter().GetValue()
		}
	}
	assert.Equal(t, 1.0, got["indexsweep_indices_deleted_total"])
	assert.Equal(t, 1.0, got["indexsweep_delete_failures_total"])
	assert.Equal(t, 1.0, got["indexsweep_indices_skipped_total"])
}

func TestRule_String(t *testing.T) {
	assert.Equal(t, "logs-* (30d)", Rule{IndexPattern: "logs-*", DurationDays: 30}.String())
}

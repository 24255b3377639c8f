package pool

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/dm/indexsweep/internal/client"
)

var errMockFailure = errors.New("mock failure")

// MockESClient implements client.ESClient for testing.
type MockESClient struct {
	URL       string
	ListFn    func(ctx context.Context, pattern string) ([]client.IndexInfo, error)
	DeleteFn  func(ctx context.Context, name string) error
	listCalls atomic.Int32
	delCalls  atomic.Int32
}

func (m *MockESClient) ListIndices(ctx context.Context, pattern string) ([]client.IndexInfo, error) {
	m.listCalls.Add(1)
	if m.ListFn != nil {
		return m.ListFn(ctx, pattern)
	}
	return []client.IndexInfo{{Index: "logs-2024-03-01"}}, nil
}

func (m *MockESClient) DeleteIndex(ctx context.Context, name string) error {
	m.delCalls.Add(1)
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, name)
	}
	return nil
}

func (m *MockESClient) BaseURL() string {
	if m.URL != "" {
		return m.URL
	}
	return "http://mock:9200"
}

// newMockClients returns n mocks with distinct URLs.
func newMockClients(n int) ([]*MockESClient, []client.ESClient) {
	mocks := make([]*MockESClient, n)
	ifaces := make([]client.ESClient, n)
	for i := range mocks {
		mocks[i] = &MockESClient{URL: "http://node-" + string(rune('a'+i)) + ":9200"}
		ifaces[i] = mocks[i]
	}
	return mocks, ifaces
}

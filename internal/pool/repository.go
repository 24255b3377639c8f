package pool

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dm/indexsweep/internal/client"
)

// Repository exposes the index operations the retention engine needs, each
// run under its own guard with node failover.
type Repository struct {
	pool *Pool
}

// NewRepository returns a Repository backed by p.
func NewRepository(p *Pool) *Repository {
	return &Repository{pool: p}
}

// ListIndices returns every index matching pattern from any reachable node.
func (r *Repository) ListIndices(ctx context.Context, pattern string) ([]client.IndexInfo, error) {
	var indices []client.IndexInfo
	err := r.do(ctx, func(ctx context.Context, c client.ESClient) error {
		res, err := c.ListIndices(ctx, pattern)
		if err != nil {
			return err
		}
		indices = res
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list indices %q: %w", pattern, err)
	}
	return indices, nil
}

// DeleteIndex deletes one index through any reachable node.
func (r *Repository) DeleteIndex(ctx context.Context, name string) error {
	err := r.do(ctx, func(ctx context.Context, c client.ESClient) error {
		return c.DeleteIndex(ctx, name)
	})
	if err != nil {
		return fmt.Errorf("delete index %q: %w", name, err)
	}
	return nil
}

// do acquires a guard and runs op with failover. A client error status (4xx
// other than 429) is the cluster's answer, not a node fault: it ends failover
// and is returned as is.
func (r *Repository) do(ctx context.Context, op func(context.Context, client.ESClient) error) error {
	g, err := r.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer g.Release()

	var answer error
	err = g.ExecuteOnAnyNode(ctx, func(ctx context.Context, c client.ESClient) error {
		err := op(ctx, c)
		if isClusterAnswer(err) {
			answer = err
			return nil
		}
		return err
	})
	if err != nil {
		return err
	}
	return answer
}

func isClusterAnswer(err error) bool {
	var se *client.StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.StatusCode >= 400 && se.StatusCode < 500 && se.StatusCode != http.StatusTooManyRequests
}

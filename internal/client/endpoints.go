package client

import (
	"context"
	"encoding/json"
	"fmt"
)

// catIndexColumns are the _cat/indices columns requested by ListIndices.
var catIndexColumns = []string{"index", "health", "status", "docs.count", "store.size"}

// ListIndices returns every index matching pattern from _cat/indices.
// Sizes are requested in bytes so callers can format them.
func (c *DefaultClient) ListIndices(ctx context.Context, pattern string) ([]IndexInfo, error) {
	if pattern == "" {
		return nil, fmt.Errorf("ListIndices: pattern must not be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cat := c.es.Cat.Indices
	res, err := cat(
		cat.WithContext(ctx),
		cat.WithIndex(pattern),
		cat.WithFormat("json"),
		cat.WithH(catIndexColumns...),
		cat.WithBytes("b"),
		cat.WithS("index"),
	)
	if err != nil {
		return nil, fmt.Errorf("ListIndices: do request: %w", err)
	}

	body, err := readResponse("ListIndices", res)
	if err != nil {
		return nil, err
	}

	var result []IndexInfo
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("ListIndices decode: %w", err)
	}
	return result, nil
}

// DeleteIndex deletes a single index by name.
func (c *DefaultClient) DeleteIndex(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("DeleteIndex: name must not be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	del := c.es.Indices.Delete
	res, err := del([]string{name}, del.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("DeleteIndex: do request: %w", err)
	}

	if _, err := readResponse("DeleteIndex", res); err != nil {
		return err
	}
	return nil
}

package client

import "fmt"

// IndexInfo represents a single index entry from /_cat/indices.
type IndexInfo struct {
	Index     string `json:"index" yaml:"index"`
	Health    string `json:"health,omitempty" yaml:"health,omitempty"`
	Status    string `json:"status,omitempty" yaml:"status,omitempty"`
	DocsCount string `json:"docs.count,omitempty" yaml:"docs_count,omitempty"`
	StoreSize string `json:"store.size,omitempty" yaml:"store_size,omitempty"`
}

// StatusError is returned when a node answers with a non-2xx status.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.StatusCode, e.Body)
}

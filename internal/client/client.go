package client

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// DefaultRequestTimeout bounds every call made by a DefaultClient.
const DefaultRequestTimeout = 5 * time.Second

// ESClient is a connection handle to a single Elasticsearch node.
type ESClient interface {
	ListIndices(ctx context.Context, pattern string) ([]IndexInfo, error)
	DeleteIndex(ctx context.Context, name string) error
	BaseURL() string
}

// ClientConfig holds configuration for DefaultClient.
type ClientConfig struct {
	BaseURL            string
	Username           string
	Password           string
	InsecureSkipVerify bool
	RequestTimeout     time.Duration
}

// DefaultClient implements ESClient on top of the official go-elasticsearch client.
type DefaultClient struct {
	es      *elasticsearch.Client
	config  ClientConfig
	timeout time.Duration
}

// NewDefaultClient constructs a DefaultClient from the given config.
// Transport-level retries are disabled: failover across nodes belongs to the pool.
// Returns an error if BaseURL is empty or the transport cannot be built.
func NewDefaultClient(cfg ClientConfig) (*DefaultClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("BaseURL is required")
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec
	}
	transport.ResponseHeaderTimeout = cfg.RequestTimeout

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    []string{cfg.BaseURL},
		Username:     cfg.Username,
		Password:     cfg.Password,
		Transport:    transport,
		DisableRetry: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client for %s: %w", cfg.BaseURL, err)
	}

	return &DefaultClient{
		es:      es,
		config:  cfg,
		timeout: cfg.RequestTimeout,
	}, nil
}

// BaseURL returns the configured base URL of the node.
func (c *DefaultClient) BaseURL() string {
	return c.config.BaseURL
}

// readResponse drains the response body and turns a non-2xx status into a *StatusError.
func readResponse(op string, res *esapi.Response) ([]byte, error) {
	defer res.Body.Close()

	const maxResponseBytes = 32 * 1024 * 1024
	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxResponseBytes {
		return nil, fmt.Errorf("response body exceeds %d MB limit", maxResponseBytes/(1024*1024))
	}

	if res.IsError() {
		return nil, &StatusError{Op: op, StatusCode: res.StatusCode, Body: truncate(body, 200)}
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

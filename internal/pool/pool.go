// Package pool multiplexes a fixed set of node clients across concurrent callers.
//
// Admission is bounded by a weighted semaphore sized to the configured pool
// count, independent of the number of nodes. A Guard represents one admission
// token; operations run through a Guard fail over across every node in a
// freshly shuffled order.
package pool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/dm/indexsweep/internal/client"
)

// Pool size bounds.
const (
	MinSize = 1
	MaxSize = 10
)

var (
	// ErrInvalidPoolSize is returned when the pool size is outside [MinSize, MaxSize].
	ErrInvalidPoolSize = errors.New("invalid pool size")

	// ErrPoolClosed is returned by Acquire once the pool has been closed.
	ErrPoolClosed = errors.New("pool closed")

	errNoClients = errors.New("pool requires at least one client")
)

// Pool owns one client per configured node and an admission semaphore.
// It is safe for concurrent use.
type Pool struct {
	clients []client.ESClient
	size    int
	sem     *semaphore.Weighted
	inUse   atomic.Int64
	logger  *slog.Logger

	closeCtx  context.Context
	closeFn   context.CancelFunc
	closeOnce sync.Once
}

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets the logger used by the pool.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// New builds a pool over the given clients with size admission tokens.
// The client slice is copied and never resized afterwards.
func New(clients []client.ESClient, size int, opts ...Option) (*Pool, error) {
	if size < MinSize || size > MaxSize {
		return nil, fmt.Errorf("%w: %d (must be between %d and %d)", ErrInvalidPoolSize, size, MinSize, MaxSize)
	}
	if len(clients) == 0 {
		return nil, errNoClients
	}

	cs := make([]client.ESClient, len(clients))
	copy(cs, clients)

	closeCtx, closeFn := context.WithCancel(context.Background())
	p := &Pool{
		clients:  cs,
		size:     size,
		sem:      semaphore.NewWeighted(int64(size)),
		logger:   slog.Default().With("component", "pool"),
		closeCtx: closeCtx,
		closeFn:  closeFn,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Build creates one DefaultClient per endpoint and returns a pool over them.
// Every client gets the fixed DefaultRequestTimeout. Any client construction
// failure aborts the build.
func Build(endpoints []client.ClientConfig, size int, opts ...Option) (*Pool, error) {
	if size < MinSize || size > MaxSize {
		return nil, fmt.Errorf("%w: %d (must be between %d and %d)", ErrInvalidPoolSize, size, MinSize, MaxSize)
	}

	clients := make([]client.ESClient, 0, len(endpoints))
	for _, ep := range endpoints {
		ep.RequestTimeout = client.DefaultRequestTimeout
		c, err := client.NewDefaultClient(ep)
		if err != nil {
			return nil, fmt.Errorf("build pool: %w", err)
		}
		clients = append(clients, c)
	}
	return New(clients, size, opts...)
}

// Acquire blocks until an admission token is available and returns a Guard
// holding it. The caller must Release the guard, typically with defer.
func (p *Pool) Acquire(ctx context.Context) (*Guard, error) {
	if p.closeCtx.Err() != nil {
		return nil, ErrPoolClosed
	}

	actx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(p.closeCtx, cancel)
	defer stop()

	if err := p.sem.Acquire(actx, 1); err != nil {
		if p.closeCtx.Err() != nil {
			return nil, ErrPoolClosed
		}
		return nil, fmt.Errorf("acquire pool guard: %w", err)
	}

	if p.closeCtx.Err() != nil {
		p.sem.Release(1)
		return nil, ErrPoolClosed
	}

	n := p.inUse.Add(1)
	p.logger.Debug("pool guard acquired", "in_use", n, "size", p.size)
	return &Guard{pool: p}, nil
}

// executeOnAnyNode runs op against the nodes in a random order until one
// succeeds. Callers must hold a guard.
func (p *Pool) executeOnAnyNode(ctx context.Context, op func(context.Context, client.ESClient) error) error {
	order := make([]client.ESClient, len(p.clients))
	copy(order, p.clients)
	rand.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	var attempts []NodeError
	for _, c := range order {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("execute on any node: %w", err)
		}
		err := op(ctx, c)
		if err == nil {
			if len(attempts) > 0 {
				p.logger.Debug("node failover succeeded", "node", c.BaseURL(), "failed_attempts", len(attempts))
			}
			return nil
		}
		p.logger.Warn("node call failed", "node", c.BaseURL(), "error", err)
		attempts = append(attempts, NodeError{Node: c.BaseURL(), Err: err})
	}
	return &AllNodesFailedError{Attempts: attempts}
}

// randomClient returns an arbitrary client from the pool.
func (p *Pool) randomClient() client.ESClient {
	return p.clients[rand.IntN(len(p.clients))]
}

// Size returns the number of admission tokens.
func (p *Pool) Size() int { return p.size }

// Nodes returns the number of node clients.
func (p *Pool) Nodes() int { return len(p.clients) }

// InUse returns the number of guards currently held.
func (p *Pool) InUse() int { return int(p.inUse.Load()) }

// Close stops the pool from handing out new guards and wakes blocked
// acquirers. Guards already held stay valid until released.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.closeFn()
		p.logger.Debug("pool closed")
	})
}

// Guard is one admission token borrowed from a Pool.
type Guard struct {
	pool *Pool
	once sync.Once
}

// Release returns the admission token. Only the first call has effect.
func (g *Guard) Release() {
	g.once.Do(func() {
		n := g.pool.inUse.Add(-1)
		g.pool.sem.Release(1)
		g.pool.logger.Debug("pool guard released", "in_use", n)
	})
}

// Client returns an arbitrarily chosen node client.
func (g *Guard) Client() client.ESClient {
	return g.pool.randomClient()
}

// ExecuteOnAnyNode runs op with node failover under this guard's token.
func (g *Guard) ExecuteOnAnyNode(ctx context.Context, op func(context.Context, client.ESClient) error) error {
	return g.pool.executeOnAnyNode(ctx, op)
}

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dm/indexsweep/internal/batch"
	"github.com/dm/indexsweep/internal/client"
	"github.com/dm/indexsweep/internal/config"
	"github.com/dm/indexsweep/internal/metrics"
	"github.com/dm/indexsweep/internal/pool"
	"github.com/dm/indexsweep/internal/report"
	"github.com/dm/indexsweep/internal/retention"
)

// app is the composition root shared by the sweep commands.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	pool    *pool.Pool
	repo    *pool.Repository
	metrics *metrics.Metrics
	now     func() time.Time
}

// newApp loads the configuration, sets up logging and builds the client pool.
// Any failure here is a startup error.
func newApp(cmd *cobra.Command, opts *rootOptions) (*app, error) {
	if err := config.LoadEnvFile(opts.envFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(opts.logLevel))
	}
	if opts.logFormat != "" {
		cfg.LogFormat = strings.ToLower(strings.TrimSpace(opts.logFormat))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	endpoints, err := client.ParseNodeList(cfg.Nodes, cfg.Username, cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", config.ErrInvalidConfig, config.KeyNodes, err)
	}
	for i := range endpoints {
		endpoints[i].InsecureSkipVerify = cfg.Insecure
	}

	p, err := pool.Build(endpoints, cfg.PoolSize, pool.WithLogger(logger.With("component", "pool")))
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	m.ObservePool(p.InUse)

	logger.Info("indexsweep starting",
		"version", Version,
		"command", cmd.Name(),
		"nodes", p.Nodes(),
		"pool_size", p.Size(),
		"rules_path", cfg.RulesPath)
	logger.Debug("configuration loaded", "config", cfg)

	return &app{
		cfg:     cfg,
		logger:  logger,
		pool:    p,
		repo:    pool.NewRepository(p),
		metrics: m,
		now:     time.Now,
	}, nil
}

// sweep reads the rule file and evaluates every rule once. The rule file is
// read on each call so edits apply to the next scheduled sweep.
func (a *app) sweep(ctx context.Context, mode batch.Mode) (report.Report, error) {
	runID := uuid.NewString()
	logger := a.logger.With("run_id", runID)

	rules, err := config.LoadRules(a.cfg.RulesPath)
	if err != nil {
		return report.Report{}, err
	}

	engine := retention.NewEngine(a.repo,
		retention.WithClock(a.now),
		retention.WithLogger(logger.With("component", "retention")),
		retention.WithMetrics(a.metrics))
	runner := batch.NewRunner(engine,
		batch.WithMode(mode),
		batch.WithLogger(logger.With("component", "batch")),
		batch.WithMetrics(a.metrics))

	results := runner.Run(ctx, rules)
	return report.Build(runID, mode, results, a.now()), nil
}

func (a *app) close() {
	a.pool.Close()
	a.logger.Info("indexsweep stopped")
}

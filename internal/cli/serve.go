package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dm/indexsweep/internal/batch"
	"github.com/dm/indexsweep/internal/schedule"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	var runOnStart bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run sweeps on the SWEEP_SCHEDULE cron expression until stopped",
		Long: `Serve keeps running and starts a sweep on every activation of the
SWEEP_SCHEDULE cron expression (default "0 3 * * *"). A tick is skipped while
the previous sweep is still running.

When METRICS_ADDR is set, Prometheus metrics are served on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.close()
			return a.serve(cmd.Context(), runOnStart)
		},
	}

	cmd.Flags().BoolVar(&runOnStart, "run-on-start", false, "run one sweep immediately before waiting for the schedule")
	return cmd
}

func (a *app) serve(ctx context.Context, runOnStart bool) error {
	job := func(ctx context.Context) {
		rep, err := a.sweep(ctx, batch.ModeApply)
		if err != nil {
			a.logger.Error("scheduled sweep failed", "error", err)
			return
		}
		a.logger.Info("scheduled sweep finished",
			"run_id", rep.RunID,
			"deleted", rep.Summary.Deleted,
			"failed_rules", rep.Summary.Failed)
	}

	sched, err := schedule.New(a.cfg.SweepSchedule, job,
		schedule.WithLogger(a.logger.With("component", "schedule")))
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	if a.cfg.MetricsAddr != "" {
		srv := newMetricsServer(a)
		g.Go(func() error {
			a.logger.Info("serving metrics", "addr", a.cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		if runOnStart {
			job(ctx)
		}
		return sched.Run(ctx)
	})

	return g.Wait()
}

func newMetricsServer(a *app) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return &http.Server{
		Addr:              a.cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

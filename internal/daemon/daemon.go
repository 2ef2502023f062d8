package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/cadencio-app/cadencio/internal/api"
	"github.com/cadencio-app/cadencio/internal/app/insights"
	"github.com/cadencio-app/cadencio/internal/app/ledger"
	"github.com/cadencio-app/cadencio/internal/infra/observability"
	"github.com/cadencio-app/cadencio/internal/infra/sqlite"
	"github.com/cadencio-app/cadencio/internal/logger"
)

const shutdownTimeout = 10 * time.Second

// App is an opened store plus the services built over it.
type App struct {
	Config Config
	DB     *sqlite.DB
	Ledger *ledger.Service
	Tracer *observability.Tracer // nil when tracing is off
}

// Open opens the store at cfg.Store.Dir, builds the ledger service and
// seeds the reserved zone and default settings.
func Open(ctx context.Context, cfg Config, opts ...ledger.Option) (*App, error) {
	db, err := sqlite.Open(cfg.Store.Dir)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, DB: db}
	base := []ledger.Option{ledger.WithDefaultTimezone(cfg.Ledger.DefaultTimezone)}
	if cfg.Telemetry.Tracing {
		app.Tracer = observability.NewTracer(observability.TracerConfig{
			Enabled:  true,
			MaxSpans: cfg.Telemetry.MaxSpans,
		})
		base = append(base, ledger.WithTracer(app.Tracer))
	}
	app.Ledger = ledger.New(db, append(base, opts...)...)

	if err := app.Ledger.Seed(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed: %w", err)
	}
	return app, nil
}

// Close releases the store.
func (a *App) Close() error { return a.DB.Close() }

// DashboardOptions returns the configured dashboard windows at now.
func (a *App) DashboardOptions(now time.Time) insights.Options {
	o := insights.DefaultOptions(now)
	o.HeatmapDays = a.Config.Insights.HeatmapDays
	o.DueWindowDays = a.Config.Insights.DueWindowDays
	o.RecentLimit = a.Config.Insights.RecentActivities
	o.Timezone = a.Config.Ledger.DefaultTimezone
	return o
}

// Run serves the HTTP API until ctx is cancelled, then shuts down
// gracefully.
func Run(ctx context.Context, cfg Config) error {
	log := logger.GetLogger().Named("daemon")

	app, err := Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	if cfg.Ledger.SweepOnStartup {
		n, err := app.Ledger.RefreshMissedCycles(ctx, app.Ledger.Now())
		if err != nil {
			return fmt.Errorf("startup sweep: %w", err)
		}
		log.Infow("startup sweep complete", "obligations_changed", n)
	}

	srv := api.NewServer(app.Ledger)
	srv.SetDashboardDefaults(app.DashboardOptions(time.Time{}))
	if cfg.Telemetry.Metrics {
		srv.EnableMetrics()
	}
	if app.Tracer != nil {
		srv.SetTracer(app.Tracer)
	}
	hub := api.NewDashboardHub()
	srv.SetDashboardHub(hub)
	stopHub := hub.Run(ctx, app.DB, srv.DashboardOptions)
	defer stopHub()

	httpSrv := &http.Server{
		Addr:              cfg.API.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// Request contexts end with ctx so open SSE streams let go on shutdown.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("server started", "addr", httpSrv.Addr, "store", cfg.Store.Dir)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	stopHub()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err = httpSrv.Shutdown(shutdownCtx)
	log.Infow("server stopped", "error", err)
	if errors.Is(err, context.DeadlineExceeded) {
		return httpSrv.Close()
	}
	return err
}

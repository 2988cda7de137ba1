// Package app wires configuration, storage and services into the HTTP API and the
// background workers.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	api "github.com/siad-agro/siad-api/internal/api/http"
	"github.com/siad-agro/siad-api/internal/audit"
	auth "github.com/siad-agro/siad-api/internal/auth/middleware"
	"github.com/siad-agro/siad-api/internal/config"
	"github.com/siad-agro/siad-api/internal/crops"
	"github.com/siad-agro/siad-api/internal/dashboard"
	"github.com/siad-agro/siad-api/internal/etl"
	"github.com/siad-agro/siad-api/internal/fields"
	"github.com/siad-agro/siad-api/internal/inputs"
	"github.com/siad-agro/siad-api/internal/locale"
	"github.com/siad-agro/siad-api/internal/metrics"
	"github.com/siad-agro/siad-api/internal/prices"
	"github.com/siad-agro/siad-api/internal/ratelimit"
	"github.com/siad-agro/siad-api/internal/reports"
	"github.com/siad-agro/siad-api/internal/scenario"
	"github.com/siad-agro/siad-api/internal/soil"
	"github.com/siad-agro/siad-api/internal/storage"
	"github.com/siad-agro/siad-api/internal/users"
	"github.com/siad-agro/siad-api/internal/weather"
)

// FilesPrefix is the API route serving stored blobs.
const FilesPrefix = "/etl/files"

const shutdownTimeout = 10 * time.Second

type App struct {
	Config  config.Config
	Log     *zap.Logger
	DB      *sql.DB
	Handler http.Handler

	Users   *users.Service
	Prices  *prices.Service
	Reports *reports.Queue
	ETL     *etl.Service
	Limiter *ratelimit.Limiter
	Metrics *metrics.Metrics

	wg sync.WaitGroup
}

// New builds every service on an open database. It starts nothing; call Start.
func New(cfg config.Config, dbh *sql.DB, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	blobs, err := storage.NewFSStore(cfg.BlobBasePath, FilesPrefix)
	if err != nil {
		return nil, fmt.Errorf("blob store: %w", err)
	}

	authSvc := auth.NewAuthService(cfg.JWTSecret, cfg.JWTRefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	usersSvc := users.NewService(users.NewSQLStore(dbh), authSvc)
	weatherStore := weather.NewSQLStore(dbh)
	cropsSvc := crops.NewService(crops.NewSQLStore(dbh))
	fieldStore := fields.NewStore(dbh)
	inputStore := inputs.NewStore(dbh)
	m := metrics.New()

	priceSvc := prices.NewService(
		prices.DefaultProviders(cfg.CEPEAURL, cfg.B3URL, cfg.FertilizerURL, cfg.FreightURL),
		prices.Options{
			TTL:          cfg.PriceCacheTTL,
			FetchTimeout: cfg.PriceFetchTimeout,
			Logger:       log.Named("prices"),
			Fallbacks:    m.PriceFallbacks,
		})
	kpis := dashboard.NewKPIStore(dbh)
	queue := reports.NewQueue(reports.NewSQLStore(dbh), blobs,
		reports.NewRenderer(sections(weatherStore, cropsSvc, inputStore, fieldStore, cfg.DefaultStation)),
		cfg.ReportWorkers, log.Named("reports"), m.ReportJobs)
	etlSvc := etl.NewService(blobs, log.Named("etl"))
	limiter := ratelimit.New(cfg.RateLimitPerMinute)

	h := api.NewRouter(api.Deps{
		Log:            log.Named("http"),
		DB:             dbh,
		Auth:           authSvc,
		Users:          usersSvc,
		Audit:          audit.NewRepo(dbh, log.Named("audit")),
		Weather:        weatherStore,
		Crops:          cropsSvc,
		Scenarios:      scenario.NewService(scenario.NewSQLStore(dbh)),
		Soil:           soil.NewStore(dbh),
		Fields:         fieldStore,
		Inputs:         inputStore,
		Prices:         priceSvc,
		Dashboard:      dashboard.NewService(weatherStore, cropsSvc, priceSvc, kpis, cfg.DefaultStation, log.Named("dashboard")),
		KPIs:           kpis,
		Reports:        queue,
		ETL:            etlSvc,
		Blobs:          blobs,
		Metrics:        m,
		Limiter:        limiter,
		CORSOrigins:    cfg.CORSOrigins,
		DefaultLocale:  locale.Parse(cfg.DefaultLocale, locale.PortugueseBR),
		DefaultStation: cfg.DefaultStation,
	})

	return &App{
		Config:  cfg,
		Log:     log,
		DB:      dbh,
		Handler: h,
		Users:   usersSvc,
		Prices:  priceSvc,
		Reports: queue,
		ETL:     etlSvc,
		Limiter: limiter,
		Metrics: m,
	}, nil
}

// Start launches the report workers and the rate limiter sweeper. They stop when ctx
// is cancelled; Wait blocks until they have.
func (a *App) Start(ctx context.Context) error {
	if err := a.Reports.Start(ctx); err != nil {
		return fmt.Errorf("start report queue: %w", err)
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.Limiter.Run(ctx)
	}()
	return nil
}

func (a *App) Wait() {
	a.Reports.Wait()
	a.wg.Wait()
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down gracefully.
func (a *App) Serve(ctx context.Context, srv *http.Server) error {
	srv.Handler = a.Handler
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Log.Info("listening", zap.String("addr", srv.Addr), zap.String("env", string(a.Config.AppEnv)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

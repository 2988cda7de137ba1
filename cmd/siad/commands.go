package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/siad-agro/siad-api/internal/app"
	authmw "github.com/siad-agro/siad-api/internal/auth/middleware"
	"github.com/siad-agro/siad-api/internal/db"
	"github.com/siad-agro/siad-api/internal/etl"
	"github.com/siad-agro/siad-api/internal/scenario"
	"github.com/siad-agro/siad-api/internal/seed"
	"github.com/siad-agro/siad-api/internal/storage"
	"github.com/siad-agro/siad-api/internal/telemetry"
	"github.com/siad-agro/siad-api/internal/users"
)

const openTimeout = 10 * time.Second

var (
	seedValue     uint64
	projectIn     scenario.Inputs
	projectPreset string
)

func openDB(ctx context.Context) (*sql.DB, error) {
	ctx, cancel := context.WithTimeout(ctx, openTimeout)
	defer cancel()
	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("db open failed: %w", err)
	}
	return dbh, nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API until SIGINT or SIGTERM",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		shutdownTracing, err := telemetry.Setup(ctx, cfg.OTLPEndpoint, cfg.ServiceName)
		if err != nil {
			return err
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(flushCtx); err != nil {
				logger.Warn("tracing shutdown", zap.Error(err))
			}
		}()
		if cfg.OTLPEndpoint != "" {
			logger.Info("tracing enabled", zap.String("endpoint", cfg.OTLPEndpoint), zap.String("service", cfg.ServiceName))
		}

		dbh, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer dbh.Close()

		a, err := app.New(cfg, dbh, logger)
		if err != nil {
			return err
		}
		if err := a.Start(ctx); err != nil {
			return err
		}
		srv := &http.Server{
			Addr:              cfg.HTTPAddr,
			ReadHeaderTimeout: 10 * time.Second,
		}
		err = a.Serve(ctx, srv)
		stop()
		a.Wait()
		logger.Info("stopped")
		return err
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the reference dataset into an empty database",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		dbh, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer dbh.Close()

		authSvc := authmw.NewAuthService(cfg.JWTSecret, cfg.JWTRefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
		sum, err := seed.New(dbh, users.NewService(users.NewSQLStore(dbh), authSvc), logger, seedValue).Run(ctx)
		if errors.Is(err, seed.ErrAlreadySeeded) {
			logger.Warn("seed skipped", zap.Error(err))
			return nil
		}
		if err != nil {
			return err
		}
		return printJSON(cmd, sum)
	},
}

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Store a data file and report its quality issues",
	Long: `Copies a CSV, XLSX, JSON or GeoJSON file into the blob store under
STORAGE_DIR, exactly as POST /etl/upload does, and prints the resulting job.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		blobs, err := storage.NewFSStore(cfg.BlobBasePath, app.FilesPrefix)
		if err != nil {
			return fmt.Errorf("blob store: %w", err)
		}
		job, err := etl.NewService(blobs, logger.Named("etl")).Ingest(cmd.Context(), filepath.Base(args[0]), f)
		if err != nil {
			return err
		}
		return printJSON(cmd, job)
	},
}

type projectOutput struct {
	Inputs scenario.Inputs `json:"inputs"`
	scenario.Projection
	Display  scenario.Display `json:"display"`
	Warnings []string         `json:"warnings,omitempty"`
}

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Project yield, cost, margin and risk for slider values",
	Long: `Runs the what-if projector offline. Flags set explicitly override the
preset values.

Example:
  siad project --rain 10 --cost -5 --fert 3 --price 152`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := projectIn
		if projectPreset != "" {
			var found bool
			for _, p := range scenario.Presets() {
				if p.ID == projectPreset {
					in, found = p.Inputs(), true
					break
				}
			}
			if !found {
				return fmt.Errorf("unknown preset %q", projectPreset)
			}
			fl := cmd.Flags()
			if fl.Changed("rain") {
				in.RainfallDeltaPct = projectIn.RainfallDeltaPct
			}
			if fl.Changed("cost") {
				in.InputCostDeltaPct = projectIn.InputCostDeltaPct
			}
			if fl.Changed("fert") {
				in.FertilizationDeltaPct = projectIn.FertilizationDeltaPct
			}
			if fl.Changed("price") {
				in.PricePerUnit = projectIn.PricePerUnit
			}
		}
		p := scenario.Project(in)
		return printJSON(cmd, projectOutput{Inputs: in, Projection: p, Display: p.Display(), Warnings: in.DomainWarnings()})
	},
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

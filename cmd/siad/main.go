package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/siad-agro/siad-api/internal/config"
	"github.com/siad-agro/siad-api/internal/logging"
)

var (
	// Global flags
	verbose bool

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "siad",
	Short: "SIAD Agro decision-support API",
	Long: `siad serves the SIAD Agro API and runs its maintenance tasks.

Configuration comes from the environment (and .env when present): DB_DRIVER,
DB_DSN, HTTP_ADDR, JWT_SECRET, STORAGE_DIR and the PRICE_* upstreams.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.FromEnv()
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.Debug || verbose)
		if err != nil {
			return err
		}
		logger = logger.With(zap.String("app", cfg.AppName))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	seedCmd.Flags().Uint64Var(&seedValue, "seed", 42, "random seed for the generated weather")

	projectCmd.Flags().Float64Var(&projectIn.RainfallDeltaPct, "rain", 0, "rainfall delta in percent")
	projectCmd.Flags().Float64Var(&projectIn.InputCostDeltaPct, "cost", 0, "input cost delta in percent")
	projectCmd.Flags().Float64Var(&projectIn.FertilizationDeltaPct, "fert", 0, "fertilization delta in percent")
	projectCmd.Flags().Float64Var(&projectIn.PricePerUnit, "price", 152, "bag price in R$")
	projectCmd.Flags().StringVar(&projectPreset, "preset", "", "start from a built-in preset (base, rain+, insumos-)")

	rootCmd.AddCommand(serveCmd, seedCmd, ingestCmd, projectCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

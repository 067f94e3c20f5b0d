package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mamadbah2/bapokting/internal/config"
	"github.com/mamadbah2/bapokting/internal/repository/factory"
	"github.com/mamadbah2/bapokting/internal/seed"
	"github.com/mamadbah2/bapokting/pkg/logger"
)

var (
	envFile string
	dryRun  bool
	timeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "seed <file.yaml>",
	Short: "Load commodities and markets into the survey store",
	Long: `Reads a YAML document with "commodities" and "markets" lists and inserts
every entry whose name does not exist yet.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runSeed,
}

func init() {
	rootCmd.Flags().StringVar(&envFile, "env", "", "optional .env file with store settings")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would be inserted without writing")
	rootCmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "overall deadline for the seed run")
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	doc, err := seed.Load(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	store, err := factory.Open(ctx, cfg.Database, logger.Named(log, "repo.store"))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	sum, err := seed.Apply(ctx, store, doc, dryRun, logger.Named(log, "seed"))
	if err != nil {
		return err
	}

	log.Info("seed finished",
		zap.Int("commodities_created", sum.CommoditiesCreated),
		zap.Int("commodities_skipped", sum.CommoditiesSkipped),
		zap.Int("markets_created", sum.MarketsCreated),
		zap.Int("markets_skipped", sum.MarketsSkipped),
		zap.Bool("dry_run", dryRun))
	fmt.Fprintf(cmd.OutOrStdout(), "commodities: %d created, %d skipped\nmarkets: %d created, %d skipped\n",
		sum.CommoditiesCreated, sum.CommoditiesSkipped, sum.MarketsCreated, sum.MarketsSkipped)
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

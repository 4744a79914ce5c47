package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"talent-pipeline/internal/config"
	"talent-pipeline/internal/errors"
	"talent-pipeline/internal/logger"
	"talent-pipeline/internal/position"
	"talent-pipeline/internal/storage"
)

var (
	dryRun bool
	limit  int
)

var rootCmd = &cobra.Command{
	Use:   "close_positions",
	Short: "Close positions whose end date has passed",
	Long: `Scans positions and closes the open or processing ones whose end date
is in the past. Nothing is written unless --dry-run=false is given.

Examples:
  close_positions                      # list positions that would be closed
  close_positions --dry-run=false      # close them
  close_positions --limit 50`,
	SilenceUsage: true,
	RunE:         runClose,
}

func init() {
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", true, "If true, do not persist updates; just print changes")
	rootCmd.Flags().IntVar(&limit, "limit", 200, "Max number of positions to close in one run (0 for no cap)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runClose(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return errors.Validationf("DATABASE_URL is required")
	}
	log, err := logger.New(cfg.LogJSON, cfg.LogDebug)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	db, err := storage.NewDB(cfg.DatabaseURL, log)
	if err != nil {
		return err
	}
	defer db.Close()

	// Closing never summarizes a JD, so no processor is needed.
	svc := position.NewService(storage.NewStore(db), nil, log)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ids, err := svc.CloseExpired(ctx, limit, dryRun)
	for _, id := range ids {
		if dryRun {
			fmt.Fprintf(cmd.OutOrStdout(), "would close %s\n", id)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "closed %s\n", id)
		}
	}
	if err != nil {
		return err
	}
	log.Info("expired positions handled",
		zap.Bool("dry_run", dryRun),
		zap.Int(logger.FieldCount, len(ids)))
	return nil
}

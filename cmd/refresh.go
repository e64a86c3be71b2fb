package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fairwaylabs/clubtrack/internal/pipeline"
)

var (
	refreshSource      string
	refreshMaxBatch    int
	refreshConcurrency int
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Re-check stale product listings",
	Long:  "Re-fetches product pages whose last check is older than the refresh interval and folds price movements back into the catalog.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx, "pipeline")
		if err != nil {
			return err
		}
		defer env.Close()

		maxBatch := refreshMaxBatch
		if maxBatch == 0 {
			maxBatch = cfg.Refresh.MaxBatch
		}
		concurrency := refreshConcurrency
		if concurrency == 0 {
			concurrency = cfg.Refresh.Concurrency
		}
		interval := time.Duration(cfg.Refresh.IntervalHours) * time.Hour

		refresher := pipeline.NewRefresher(env.Store, env.Sources, env.Reconciler, interval, concurrency)
		summary, err := refresher.Run(ctx, pipeline.RefreshOptions{
			Source:   refreshSource,
			MaxBatch: maxBatch,
		})
		if err != nil {
			return eris.Wrap(err, "refresh")
		}

		zap.L().Info("refresh command complete",
			zap.String("run_id", summary.RunID),
			zap.Int("refreshed", summary.RecordsUpdated),
			zap.Int("errors", summary.Errors),
		)
		return printJSON(summary)
	},
}

func init() {
	refreshCmd.Flags().StringVar(&refreshSource, "source", "globalgolf", "retailer source to refresh")
	refreshCmd.Flags().IntVar(&refreshMaxBatch, "max-batch", 0, "max stale rows per run (default from config)")
	refreshCmd.Flags().IntVar(&refreshConcurrency, "concurrency", 0, "concurrent detail fetches (default from config)")
	rootCmd.AddCommand(refreshCmd)
}

package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fairwaylabs/clubtrack/internal/pipeline"
)

var (
	seedFile  string
	seedYears int
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load historical club releases from a seed file",
	Long:  "Inserts curated historical releases into the catalog. Existing identities are left untouched, so seeding never overwrites scraped data.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx, "pipeline")
		if err != nil {
			return err
		}
		defer env.Close()

		path := seedFile
		if path == "" {
			path = cfg.Seed.File
		}
		years := seedYears
		if years == 0 {
			years = cfg.Seed.MaxYears
		}

		seed, err := pipeline.LoadSeedFile(path)
		if err != nil {
			return err
		}

		summary, err := pipeline.NewSeeder(env.Store).Run(ctx, seed, years)
		if err != nil {
			return eris.Wrap(err, "seed")
		}

		zap.L().Info("seed command complete",
			zap.String("run_id", summary.RunID),
			zap.Int("added", summary.RecordsAdded),
			zap.Int("errors", summary.Errors),
		)
		return printJSON(summary)
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "seed YAML file (default from config)")
	seedCmd.Flags().IntVar(&seedYears, "years", 0, "max age of releases to load (default from config)")
	rootCmd.AddCommand(seedCmd)
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fairwaylabs/clubtrack/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "clubtrack",
	Short: "Golf club market data pipeline",
	Long:  "Crawls retail listings of golf clubs, reconciles them into a canonical catalog, and keeps prices fresh on a staleness schedule.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

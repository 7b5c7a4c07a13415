package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/forestshield/internal/config"
	"github.com/sells-group/forestshield/pkg/forestshield"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "forestshield",
	Short: "Forest Shield deforestation monitoring console",
	Long:  "Manages monitored regions, alerts and analysis jobs against the Forest Shield backend, and runs the live operations panels and map console locally.",
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

// newAPIClient builds a backend client from the loaded configuration.
func newAPIClient(mode string) (forestshield.Client, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}
	return forestshield.NewClient(
		forestshield.WithBaseURL(cfg.API.BaseURL),
		forestshield.WithAPIKey(cfg.API.APIKey),
		forestshield.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout()}),
		forestshield.WithRateLimit(cfg.API.RatePerSec, cfg.API.Burst),
	), nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", outputTable, "output format: table, json or yaml")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

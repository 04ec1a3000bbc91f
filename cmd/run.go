package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRunCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Crawl the search and reconcile it into the store (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCrawl(cmd, v)
		},
	}
}

func runCrawl(cmd *cobra.Command, v *viper.Viper) error {
	a, err := newApp(v)
	if err != nil {
		return err
	}
	defer a.close()

	a.logger.Info("=== immo-tracker starting ===")
	a.logger.Info("Config: store %s (%s) | retries %d | delay %s | timeout %s | workers %d",
		a.cfg.StorePath, a.cfg.StoreDriver, a.cfg.RetryAttempts, a.cfg.RequestDelay, a.cfg.RequestTimeout, a.cfg.MaxConcurrency)
	return a.crawlOnce(cmd.Context())
}

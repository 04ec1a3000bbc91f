package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"immo-tracker/pipeline"
)

func newScheduleCommand(v *viper.Viper) *cobra.Command {
	var runNow bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run crawls periodically on a cron schedule",
		Long: `schedule keeps running and performs a crawl whenever the cron expression
(IMMO_SCHEDULE or --cron) fires. A run still in progress when the next one is
due causes that one to be skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(v)
			if err != nil {
				return err
			}
			defer a.close()

			s, err := pipeline.NewScheduler(a.cfg.Schedule, a.crawlOnce, a.logger)
			if err != nil {
				return err
			}
			return s.Run(cmd.Context(), runNow)
		},
	}
	cmd.Flags().String("cron", "", "cron expression, e.g. \"0 6 * * *\" or \"@daily\"")
	cmd.Flags().BoolVar(&runNow, "now", false, "also run once immediately")
	if err := v.BindPFlag("schedule", cmd.Flags().Lookup("cron")); err != nil {
		panic(err)
	}
	return cmd
}

package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newStatsCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print statistics of the stored table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(v)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			store, err := a.openStore(ctx, a.logger)
			if err != nil {
				return err
			}
			defer store.Close()

			_, err = a.newRunner(store, a.logger).WithOutput(cmd.OutOrStdout()).Stats(ctx)
			return err
		},
	}
}

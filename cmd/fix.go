package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"immo-tracker/config"
	"immo-tracker/storage"
)

func newFixCommand(v *viper.Viper) *cobra.Command {
	var inPlace bool

	cmd := &cobra.Command{
		Use:   "fix",
		Short: "Normalize the stored table without crawling",
		Long: `fix recomputes parsed fields from the raw text, merges duplicate links onto
the earliest row and fills missing creation dates. For CSV stores the result
is written to fixed_<name> next to the store unless --in-place is given; SQL
stores are rewritten in place. With backups enabled the store is copied
before it is read.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(v)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			logger := a.runLogger()
			store, err := a.openStore(ctx, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			var dst storage.Store
			if a.cfg.StoreDriver == config.DriverCSV && !inPlace {
				path := filepath.Join(filepath.Dir(a.cfg.StorePath), "fixed_"+filepath.Base(a.cfg.StorePath))
				dst = storage.NewCSVStore(path, storage.Options{
					CheckpointDir: a.cfg.CheckpointDir,
					BackupDir:     a.cfg.BackupDir,
				}, logger)
			}

			n, err := a.newRunner(store, logger).Fix(ctx, dst)
			if err != nil {
				return err
			}
			logger.Info("Fixed table written with %d listings", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&inPlace, "in-place", false, "overwrite the CSV store instead of writing fixed_<name>")
	return cmd
}

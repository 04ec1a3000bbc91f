// Package cmd implements the immo-tracker command-line interface.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"immo-tracker/config"
)

// Exit codes.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitInterrupted = 130
)

// Execute runs the CLI with SIGINT/SIGTERM cancelling the context and
// returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCommand(config.NewViper())
	err := root.ExecuteContext(ctx)
	if ctx.Err() != nil {
		if err == nil || !errors.Is(err, context.Canceled) {
			err = fmt.Errorf("interrupted: %w", context.Canceled)
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return ExitCode(err)
}

// ExitCode maps a command error to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	default:
		return ExitFailure
	}
}

// NewRootCommand builds the command tree on top of v. Running the root
// command without a subcommand performs a crawl.
func NewRootCommand(v *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:   "immo-tracker",
		Short: "Track real-estate listings over time",
		Long: `immo-tracker crawls a paginated immowelt search, enriches new listings
from their detail pages and reconciles every crawl against the stored table
so each listing carries its creation and closure date.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCrawl(cmd, v)
		},
	}

	flags := root.PersistentFlags()
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("driver", "", "store driver: csv, sqlite or postgres")
	flags.StringP("output", "o", "", "store location (file path, relative to the data directory)")
	flags.String("url", "", "search URL to crawl")
	flags.Bool("backup", false, "back up the store before the run")
	flags.Bool("checkpoint", false, "write a dated checkpoint with the save")

	for key, name := range map[string]string{
		"log_level":          "log-level",
		"store_driver":       "driver",
		"store_path":         "output",
		"base_search_url":    "url",
		"backup_enabled":     "backup",
		"checkpoint_enabled": "checkpoint",
	} {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}

	root.AddCommand(
		newRunCommand(v),
		newFixCommand(v),
		newQueryCommand(v),
		newStatsCommand(v),
		newScheduleCommand(v),
	)
	return root
}

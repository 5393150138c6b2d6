// Package commands implements the jobkit command line.
package commands

import (
	"github.com/spf13/cobra"
)

const cliExecutable = "jobkit"

type rootFlags struct {
	memory bool
}

// NewRootCommand returns the jobkit command tree.
func NewRootCommand() *cobra.Command {
	flags := &rootFlags{}

	command := &cobra.Command{
		Use:   cliExecutable,
		Short: "Background job processing for bookings and payments",
		Long: `jobkit runs the asynchronous job backbone of the booking app.

Pick one processing mode per queue:
  worker   long-lived lanes that poll each queue continuously
  drain    periodic batch passes, for hosts without long-lived processes
  serve    the HTTP jobs API, optionally draining on a schedule

Configuration is read from the environment and an optional .env file.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	command.SuggestionsMinimumDistance = 1

	command.PersistentFlags().BoolVar(&flags.memory, "memory", false,
		"use in-process stores instead of Redis and Postgres (local runs only)")

	command.AddCommand(
		newWorkerCommand(flags),
		newDrainCommand(flags),
		newServeCommand(flags),
		newMigrateCommand(),
	)
	return command
}

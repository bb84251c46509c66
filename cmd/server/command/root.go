// Package command provides the root and sub-commands of the airplane seat
// reservation service.  The root command starts nothing by itself; the
// server runs under "serve" and database chores live under "db".
//
//	./airplane-seats serve [--env-file .env]
//	./airplane-seats db provision
//	./airplane-seats db seed-user --username admin --password ... --role ADMIN
//	./airplane-seats audit [--type 1]
package command

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iliyamo/airplane-seat-reservation/internal/config"
)

var envFiles []string

var rootCmd = &cobra.Command{
	Use:   "airplane-seats",
	Short: "Airplane seat reservation service",
	Long: `Airplane seat reservation service.

Users reserve and cancel seats on a fixed set of airplane types over a
JSON API.  Seat inventory and per-user reservations are kept in MySQL and
coordinated without cross-store transactions; inconsistencies are
compensated, reported over RabbitMQ and rolled forward by a consumer.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return config.LoadDotEnv(envFiles...)
	},
}

// Execute runs rootCmd which parses CLI arguments and runs the most
// specific sub-command.  Any error terminates the process with exit code 1.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(
		&envFiles, "env-file", nil, "dotenv files to load (default .env)",
	)
}

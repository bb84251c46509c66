package command

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iliyamo/airplane-seat-reservation/internal/config"
	"github.com/iliyamo/airplane-seat-reservation/internal/model"
	"github.com/iliyamo/airplane-seat-reservation/internal/repository"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database management actions",
	Long: `Database management actions can be chosen by sub-commands.
The provision action creates the tables and one airplane record per
configuration.  The seed-user action creates an account with any role,
which is the only way to create an ADMIN.`,
}

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Create the schema and the airplane records",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.Load()
		db, err := openDB(cmd.Context(), cfg, newLogger("db", cfg.Env))
		if err != nil {
			return err
		}
		defer db.Close()

		repo := repository.NewAirplaneRepo(db)
		for _, t := range model.AirplaneTypes {
			if err := repo.Provision(cmd.Context(), t); err != nil {
				return fmt.Errorf("provision %s: %w", t, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "provisioned %s (%d seats)\n", t, t.Rows()*t.Columns())
		}
		return nil
	},
}

var seed struct {
	username string
	password string
	role     string
}

var seedUserCmd = &cobra.Command{
	Use:   "seed-user",
	Short: "Create a user account",
	RunE: func(cmd *cobra.Command, _ []string) error {
		role := strings.ToUpper(seed.role)
		if role != model.RoleAdmin && role != model.RoleCustomer {
			return fmt.Errorf("unknown role %q", seed.role)
		}
		cfg := config.Load()
		db, err := openDB(cmd.Context(), cfg, newLogger("db", cfg.Env))
		if err != nil {
			return err
		}
		defer db.Close()

		id, err := repository.NewUserRepo(db).Create(cmd.Context(), seed.username, seed.password, role, cfg.BcryptCost)
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created user %d (%s)\n", id, role)
		return nil
	},
}

func init() {
	seedUserCmd.Flags().StringVar(&seed.username, "username", "", "login name")
	seedUserCmd.Flags().StringVar(&seed.password, "password", "", "plain-text password")
	seedUserCmd.Flags().StringVar(&seed.role, "role", model.RoleCustomer, "ADMIN or CUSTOMER")
	_ = seedUserCmd.MarkFlagRequired("username")
	_ = seedUserCmd.MarkFlagRequired("password")

	dbCmd.AddCommand(provisionCmd, seedUserCmd)
	rootCmd.AddCommand(dbCmd)
}

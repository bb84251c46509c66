package command

import (
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/iliyamo/airplane-seat-reservation/internal/config"
	"github.com/iliyamo/airplane-seat-reservation/internal/model"
	"github.com/iliyamo/airplane-seat-reservation/internal/reservation"
)

var auditTypes []string

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Compare seat inventory with user reservations and print the reports",
	RunE: func(cmd *cobra.Command, _ []string) error {
		types := model.AirplaneTypes
		if len(auditTypes) > 0 {
			types = nil
			for _, s := range auditTypes {
				t, err := model.ParseAirplaneType(s)
				if err != nil {
					return err
				}
				types = append(types, t)
			}
		}

		cfg := config.Load()
		logger := newLogger("audit", cfg.Env)
		db, err := openDB(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		coord, err := newCoordinator(db, nil, config.LoadReservationConfig(), nil, logger)
		if err != nil {
			return err
		}
		r := reservation.NewReconciler(coord)

		reports := make([]reservation.Report, 0, len(types))
		for _, t := range types {
			rep, err := r.Audit(cmd.Context(), t)
			if err != nil {
				return err
			}
			reports = append(reports, rep)
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	},
}

func init() {
	auditCmd.Flags().StringSliceVar(&auditTypes, "type", nil, "airplane types to audit (default all)")
	rootCmd.AddCommand(auditCmd)
}

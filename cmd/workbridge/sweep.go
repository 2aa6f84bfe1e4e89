package main

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Expire overdue pending matches once and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := buildApp(cmd.Context(), cfgFile)
		if err != nil {
			return err
		}
		defer a.close()

		n, err := a.matches.ExpireSweep(cmd.Context(), time.Now())
		if err != nil {
			return err
		}
		a.logger.Info("expiry sweep complete", zap.Int("expired", n))
		return nil
	},
}

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete audit entries past their retention date and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := buildApp(cmd.Context(), cfgFile)
		if err != nil {
			return err
		}
		defer a.close()

		n, err := a.sweeper.Sweep(cmd.Context(), time.Now())
		if err != nil {
			return err
		}
		a.logger.Info("retention purge complete", zap.Int64("purged", n))
		return nil
	},
}

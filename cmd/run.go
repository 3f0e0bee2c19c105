package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process all new leads once and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnvironment()
		if err != nil {
			return err
		}

		count, err := env.proc.ProcessAllNewLeads(cmd.Context())
		if err != nil {
			return err
		}

		zap.L().Info("run complete", zap.Int("processed", count))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/harborlaw/lead-qualifier/internal/dashboard"
)

var daemonNoDashboard bool

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Poll for new leads continuously, with the monitoring dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnvironment()
		if err != nil {
			return err
		}

		if err := env.store.CheckConnection(ctx); err != nil {
			return err
		}

		pollInterval := time.Duration(cfg.Processor.PollIntervalSecs) * time.Second

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			env.proc.RunDaemon(gctx, pollInterval)
			return nil
		})
		if !daemonNoDashboard {
			srv := dashboard.NewServer(env.history, env.store, cfg.Dashboard.Port)
			g.Go(func() error {
				return srv.Run(gctx)
			})
		}

		err = g.Wait()
		zap.L().Info("daemon stopped")
		return err
	},
}

func init() {
	daemonCmd.Flags().BoolVar(&daemonNoDashboard, "no-dashboard", false, "disable the monitoring dashboard server")
	rootCmd.AddCommand(daemonCmd)
}

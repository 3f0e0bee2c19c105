package main

import (
	"fmt"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check connectivity of all configured integrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnvironment()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		var mu sync.Mutex
		results := map[string]string{}
		record := func(name string, err error) {
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				results[name] = "FAILED: " + err.Error()
			} else {
				results[name] = "OK"
			}
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			record("airtable", env.store.CheckConnection(gctx))
			return nil
		})
		if env.matters != nil {
			g.Go(func() error {
				record("clio", env.matters.CheckConnection(gctx))
				return nil
			})
		}
		if env.notifier != nil {
			g.Go(func() error {
				record("smtp", env.notifier.CheckConnection(gctx))
				return nil
			})
		}
		if env.drive != nil {
			g.Go(func() error {
				record("drive", env.drive.CheckConnection(gctx))
				return nil
			})
		}
		_ = g.Wait()

		if env.ai != nil {
			results["ai"] = "configured (two-tier)"
		} else {
			results["ai"] = "not configured (rule engine only)"
		}

		failed := false
		for _, name := range []string{"airtable", "clio", "smtp", "drive", "ai"} {
			status, ok := results[name]
			if !ok {
				status = "SKIPPED (disabled)"
			}
			fmt.Printf("  %-10s %s\n", name, status)
			if name == "airtable" && status != "OK" {
				failed = true
			}
		}
		if failed {
			return eris.New("main: record store connection failed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

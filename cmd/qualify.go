package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/harborlaw/lead-qualifier/internal/model"
)

var (
	qualifyDryRun bool
	qualifyEngine string
)

var qualifyCmd = &cobra.Command{
	Use:   "qualify <record-id>",
	Short: "Qualify a single lead by record ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnvironment()
		if err != nil {
			return err
		}

		lead, err := env.store.GetLead(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if lead.Status != model.StatusNewLead && !qualifyDryRun {
			return eris.New("main: lead is not in New Lead status; use --dry-run to re-score without side effects")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		if qualifyDryRun {
			switch qualifyEngine {
			case "rules":
				return enc.Encode(env.rules.Qualify(cmd.Context(), *lead))
			case "twotier":
				if env.ai == nil {
					return eris.New("main: two-tier engine requires both openai.key and anthropic.key")
				}
				outcome := env.ai.Qualify(cmd.Context(), *lead)
				return enc.Encode(outcome.Result)
			default:
				return eris.New("main: --engine must be rules or twotier")
			}
		}

		return enc.Encode(env.proc.ProcessLead(cmd.Context(), *lead))
	},
}

func init() {
	qualifyCmd.Flags().BoolVar(&qualifyDryRun, "dry-run", false, "score without writing updates or sending notifications")
	qualifyCmd.Flags().StringVar(&qualifyEngine, "engine", "rules", "engine for --dry-run scoring: rules or twotier")
	rootCmd.AddCommand(qualifyCmd)
}

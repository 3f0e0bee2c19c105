package main

import (
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/harborlaw/lead-qualifier/internal/aitier"
	"github.com/harborlaw/lead-qualifier/internal/notify"
	"github.com/harborlaw/lead-qualifier/internal/processor"
	"github.com/harborlaw/lead-qualifier/internal/qualify"
	"github.com/harborlaw/lead-qualifier/internal/resilience"
	"github.com/harborlaw/lead-qualifier/pkg/airtable"
	"github.com/harborlaw/lead-qualifier/pkg/anthropic"
	"github.com/harborlaw/lead-qualifier/pkg/clio"
	"github.com/harborlaw/lead-qualifier/pkg/drivesearch"
	"github.com/harborlaw/lead-qualifier/pkg/openai"
)

// environment holds the wired collaborators for a command invocation.
// Optional integrations are nil when disabled or unconfigured.
type environment struct {
	store    airtable.Client
	rules    *qualify.Engine
	ai       *aitier.Engine
	matters  clio.Client
	notifier notify.Sender
	drive    drivesearch.Searcher
	history  *processor.History
	proc     *processor.Processor
}

// initEnvironment builds all collaborators from the loaded config.
func initEnvironment() (*environment, error) {
	retry := resilience.APIRetryConfig(
		cfg.Processor.MaxRetries,
		time.Duration(cfg.Processor.RetryDelaySecs)*time.Second,
		"airtable", "request",
	)
	store := airtable.NewClient(
		cfg.Airtable.Key,
		cfg.Airtable.BaseID,
		cfg.Airtable.LeadsTable,
		cfg.Airtable.ScoringTable,
		airtable.WithBaseURL(cfg.Airtable.BaseURL),
		airtable.WithRetry(retry),
	)

	state, err := qualify.LoadState(cfg.Firm.State)
	if err != nil {
		return nil, eris.Wrap(err, "main: load state data")
	}

	var ruleOpts []qualify.EngineOption
	if cfg.Anthropic.Key != "" {
		ruleOpts = append(ruleOpts, qualify.WithAICommentary(
			anthropic.NewClient(cfg.Anthropic.Key),
			cfg.Anthropic.Model,
			int64(cfg.Anthropic.MaxTokens),
		))
	}
	rules := qualify.NewEngine(cfg.Scoring, cfg.Keywords, state, ruleOpts...)

	env := &environment{store: store, rules: rules}

	if cfg.Drive.Enabled && cfg.Drive.Key != "" {
		env.drive = drivesearch.NewClient(cfg.Drive.Key, cfg.Drive.FolderID,
			drivesearch.WithBaseURL(cfg.Drive.BaseURL))
	}

	if cfg.OpenAI.Key != "" && cfg.Anthropic.Key != "" {
		scorer := aitier.NewScorer(openai.NewClient(cfg.OpenAI.Key), cfg.OpenAI, cfg.AI)
		analyzer := aitier.NewAnalyzer(anthropic.NewClient(cfg.Anthropic.Key), cfg.Anthropic, env.drive)
		env.ai = aitier.NewEngine(scorer, analyzer)
	} else {
		zap.L().Info("AI provider keys not configured, using rule engine only")
	}

	if cfg.Clio.Enabled {
		env.matters = clio.NewClient(
			cfg.Clio.Token,
			cfg.Clio.AttorneyName,
			cfg.Clio.PracticeArea,
			"US",
			clio.WithBaseURL(cfg.Clio.BaseURL),
		)
	}

	if cfg.Notify.Enabled {
		env.notifier = notify.NewSMTPSender(cfg.Notify, cfg.Firm)
	}

	env.history = processor.NewHistory(cfg.Processor.HistorySize)
	env.proc = processor.NewProcessor(env.store, env.rules, env.ai, env.matters, env.notifier, env.history)

	return env, nil
}

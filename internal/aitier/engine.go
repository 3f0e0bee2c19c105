package aitier

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/harborlaw/lead-qualifier/internal/model"
	"github.com/harborlaw/lead-qualifier/pkg/airtable"
)

// Engine runs the two-tier AI qualification pipeline: a fast GPT scoring
// pass, escalating borderline leads to deep Claude review.
type Engine struct {
	scorer   *Scorer
	analyzer *Analyzer
}

// NewEngine wires the two tiers together.
func NewEngine(scorer *Scorer, analyzer *Analyzer) *Engine {
	return &Engine{scorer: scorer, analyzer: analyzer}
}

// Outcome bundles everything downstream consumers need from one
// qualification run.
type Outcome struct {
	Result     model.TwoTierResult
	GPT        model.ScorerResult
	Claude     *model.AnalyzerResult
	Components ComponentBreakdown
}

// Qualify scores a lead and escalates to Tier-2 when the Tier-1
// recommendation calls for deep review.
func (e *Engine) Qualify(ctx context.Context, lead model.Lead) Outcome {
	gpt, components := e.scorer.ScoreLead(ctx, lead)

	result := model.TwoTierResult{
		ChatGPTScore:          gpt.Score,
		ChatGPTRecommendation: gpt.Recommendation,
		ChatGPTAnalysis:       gpt.Analysis,
		ChatGPTRedFlags:       gpt.RedFlags,
		ChatGPTConfidence:     gpt.Confidence,
	}

	outcome := Outcome{GPT: gpt, Components: components}

	switch gpt.Recommendation {
	case model.RecFastTrack:
		result.FinalDecision = model.DecisionAccept
		result.FinalConfidence = gpt.Confidence

	case model.RecClaudeReview:
		result.ClaudeTriggered = true
		claude := e.analyzer.AnalyzeLead(ctx, lead, gpt)
		outcome.Claude = &claude

		result.ClaudeAnalysis = claude.DeepAnalysis
		result.ClaudeCaseComparisons = claude.CaseComparisons
		result.ClaudeCarrierStrategy = claude.CarrierStrategy
		result.ClaudeRecommendation = claude.FinalRecommendation
		result.ClaudeConfidence = claude.Confidence

		result.FinalDecision = claude.FinalRecommendation
		result.FinalConfidence = claude.Confidence

	case model.RecNeedInfo:
		result.FinalDecision = model.DecisionNeedMoreInfo
		result.FinalConfidence = gpt.Confidence

	default:
		result.FinalDecision = model.DecisionDecline
		result.FinalConfidence = gpt.Confidence
	}

	zap.L().Info("two-tier qualification complete",
		zap.String("name", lead.Name),
		zap.Int("gpt_score", gpt.Score),
		zap.String("gpt_recommendation", string(gpt.Recommendation)),
		zap.Bool("claude_triggered", result.ClaudeTriggered),
		zap.String("final_decision", string(result.FinalDecision)),
	)

	outcome.Result = result
	return outcome
}

// RecordUpdate converts an outcome into the field update written back to
// the lead record.
func (o Outcome) RecordUpdate() airtable.TwoTierUpdate {
	confidence := o.Result.FinalConfidence
	return airtable.TwoTierUpdate{
		ChatGPTScore:          o.Result.ChatGPTScore,
		ChatGPTAnalysis:       o.Result.ChatGPTAnalysis,
		ChatGPTRedFlags:       strings.Join(o.Result.ChatGPTRedFlags, "\n"),
		ChatGPTRecommendation: o.Result.ChatGPTRecommendation,
		ClaudeAnalysis:        o.Result.ClaudeAnalysis,
		ClaudeCaseComparisons: o.Result.ClaudeCaseComparisons,
		ClaudeCarrierStrategy: o.Result.ClaudeCarrierStrategy,
		FinalAIDecision:       o.Result.FinalDecision,
		AIConfidenceLevel:     &confidence,
		Status:                model.StatusForDecision(o.Result.FinalDecision),
	}
}

// LogEntry converts an outcome into an audit-log entry for the scoring table.
func (o Outcome) LogEntry(lead model.Lead) airtable.ScoringLogEntry {
	return airtable.ScoringLogEntry{
		LeadRecordID: lead.RecordID,
		LeadName:     lead.Name,
		GPT:          o.GPT,
		Claude:       o.Claude,
		Decision:     o.Result.FinalDecision,
		Components: airtable.ComponentScores{
			IncidentType:   o.Components.IncidentType,
			InjurySeverity: o.Components.InjurySeverity,
			Liability:      o.Components.Liability,
			Insurance:      o.Components.Insurance,
			SOL:            o.Components.SOL,
			Geographic:     o.Components.Geographic,
		},
	}
}

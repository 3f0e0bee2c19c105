// Package qualify implements the deterministic rule-based qualification
// engine: geography and limitations gates, keyword scoring, safety flags,
// tier routing, and qualification notes.
package qualify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/harborlaw/lead-qualifier/internal/config"
	"github.com/harborlaw/lead-qualifier/internal/model"
	"github.com/harborlaw/lead-qualifier/pkg/anthropic"
)

// Engine scores leads against the firm's intake worksheet.
type Engine struct {
	scoring  config.ScoringConfig
	keywords config.KeywordConfig
	state    StateData

	accepted  map[string]bool
	preferred map[string]bool

	// ai is optional; when nil, qualification runs keyword-only.
	ai          anthropic.Client
	aiModel     string
	aiMaxTokens int64

	now func() time.Time
}

// EngineOption configures the engine.
type EngineOption func(*Engine)

// WithAICommentary attaches a model for a short narrative assessment on
// non-declined leads.
func WithAICommentary(client anthropic.Client, model string, maxTokens int64) EngineOption {
	return func(e *Engine) {
		e.ai = client
		e.aiModel = model
		e.aiMaxTokens = maxTokens
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine builds a rule engine for the given state. SOL years from the
// state data take precedence over the scoring config when set.
func NewEngine(scoring config.ScoringConfig, keywords config.KeywordConfig, state StateData, opts ...EngineOption) *Engine {
	e := &Engine{
		scoring:   scoring,
		keywords:  keywords,
		state:     state,
		accepted:  make(map[string]bool, len(state.Counties)),
		preferred: make(map[string]bool, len(state.PreferredCounties)),
		now:       time.Now,
	}
	if state.SOLYears > 0 {
		e.scoring.SOLYears = state.SOLYears
	}
	for _, county := range state.Counties {
		e.accepted[strings.ToLower(county)] = true
	}
	for _, county := range state.PreferredCounties {
		e.preferred[strings.ToLower(county)] = true
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Qualify runs the complete rule-based analysis on a lead.
func (e *Engine) Qualify(ctx context.Context, lead model.Lead) *model.QualificationResult {
	zap.L().Info("qualifying lead",
		zap.String("name", lead.Name),
		zap.String("record_id", lead.RecordID),
	)

	geo := e.analyzeGeography(lead.AccidentLocation)
	months := monthsUntilSOL(lead.AccidentDate, e.scoring.SOLYears, e.now())
	flags := e.checkSafetyRules(lead)

	medicalMet, medicalPoints, medicalDetails := e.analyzeMedicalTreatment(lead)
	liabilityMet, liabilityPoints, liabilityDetails := e.analyzeLiability(lead)
	insuranceMet, insurancePoints := e.analyzeInsurance(lead)
	solAdequate, solPoints := e.analyzeSOL(months)
	serious, seriousPoints, injuryType := e.analyzeInjurySeverity(lead)

	// Out-of-state leads are declined regardless, so no bonus applies.
	var geoBonus int
	if geo.IsInState && geo.IsTriCounty {
		geoBonus = e.scoring.TriCountyBonus
	}

	totalScore := medicalPoints + liabilityPoints + insurancePoints + solPoints + seriousPoints + geoBonus

	tier := e.determineTier(totalScore, flags, geo.IsInState, solAdequate)

	strengths, concerns, missing, questions := buildAnalysisLists(analysisInput{
		lead:             lead,
		medicalMet:       medicalMet,
		liabilityMet:     liabilityMet,
		insuranceMet:     insuranceMet,
		solAdequate:      solAdequate,
		serious:          serious,
		triCounty:        geo.IsTriCounty,
		county:           geo.County,
		medicalDetails:   medicalDetails,
		liabilityDetails: liabilityDetails,
	})

	result := &model.QualificationResult{
		Tier:                   tier,
		TotalScore:             totalScore,
		MedicalTreatmentMet:    medicalMet,
		MedicalTreatmentPoints: medicalPoints,
		LiabilityMet:           liabilityMet,
		LiabilityPoints:        liabilityPoints,
		InsuranceIdentified:    insuranceMet,
		InsurancePoints:        insurancePoints,
		SOLAdequate:            solAdequate,
		SOLPoints:              solPoints,
		SeriousInjury:          serious,
		SeriousInjuryPoints:    seriousPoints,
		GeographicBonus:        geoBonus,
		County:                 geo.County,
		IsTriCounty:            geo.IsTriCounty,
		IsInState:              geo.IsInState,
		MonthsUntilSOL:         months,
		EstimatedCaseValue:     e.estimateCaseValue(serious, medicalMet, liabilityMet, geo.IsTriCounty),
		InjuryType:             injuryType,
		Strengths:              strengths,
		Concerns:               concerns,
		MissingInfo:            missing,
		RecommendedQuestions:   questions,
		SafetyFlags:            flags,
	}

	// Declined leads skip the commentary call.
	if e.ai != nil && tier != model.TierAutoDecline {
		result.AIAnalysis = e.aiCommentary(ctx, lead, totalScore, tier, flags)
	}

	result.Notes = buildNotes(result, e.now())

	zap.L().Info("qualification complete",
		zap.String("name", lead.Name),
		zap.String("tier", string(tier)),
		zap.Int("score", totalScore),
		zap.Int("safety_flags", len(flags)),
	)
	return result
}

// aiCommentary asks for a short narrative assessment of the lead. Failures
// degrade to an empty commentary, never an error.
func (e *Engine) aiCommentary(ctx context.Context, lead model.Lead, score int, tier model.Tier, flags []model.SafetyFlag) string {
	accidentDate := "Not provided"
	if lead.AccidentDate != nil {
		accidentDate = lead.AccidentDate.Format("2006-01-02")
	}
	flagDescs := "None"
	if len(flags) > 0 {
		descs := make([]string, len(flags))
		for i, f := range flags {
			descs[i] = f.Description
		}
		flagDescs = strings.Join(descs, ", ")
	}

	prompt := fmt.Sprintf(`Analyze this personal injury lead for a %s law firm. Provide a brief, professional assessment.

Lead Information:
- Name: %s
- Accident Date: %s
- Location: %s
- Injuries: %s
- Medical Treatment: %s
- Liability Notes: %s
- Insurance Carrier: %s

Current Score: %d points
Qualification Tier: %s
Safety Flags: %s

Provide a 2-3 sentence assessment focusing on:
1. Overall case quality and potential
2. Any red flags or concerns not captured in the scoring
3. Recommended next steps for intake

Keep the response concise and actionable for an attorney.`,
		e.state.Name,
		lead.Name,
		accidentDate,
		orNotProvided(lead.AccidentLocation),
		orNotProvided(lead.InjuryDesc),
		orNotProvided(lead.MedicalTreatment),
		orNotProvided(lead.LiabilityNotes),
		orNotProvided(lead.InsuranceCarrier),
		score,
		tier,
		flagDescs,
	)

	resp, err := e.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     e.aiModel,
		MaxTokens: e.aiMaxTokens,
		Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		zap.L().Error("ai commentary failed", zap.Error(err))
		return ""
	}
	resp.Usage.LogCost(e.aiModel, "qualification commentary")
	return resp.Text()
}

func orNotProvided(s string) string {
	if s == "" {
		return "Not provided"
	}
	return s
}

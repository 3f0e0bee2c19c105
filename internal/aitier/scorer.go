package aitier

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/harborlaw/lead-qualifier/internal/config"
	"github.com/harborlaw/lead-qualifier/internal/model"
	"github.com/harborlaw/lead-qualifier/pkg/openai"
)

const scorerSystemPrompt = "You are an expert legal intake specialist. Respond only with valid JSON."

const scoringPrompt = `You are a lead qualification specialist for a personal injury law firm in South Carolina.
Analyze the following lead and provide a qualification score from 0-100.

SCORING CRITERIA (100 points total):

1. INCIDENT TYPE (25 points max):
   - Motor Vehicle Accident (MVA): 25 points
   - Commercial vehicle/18-wheeler: 25 points
   - Motorcycle accident: 22 points
   - Premises liability (slip/fall): 15 points
   - Dog bite: 10 points
   - Other/unclear: 5 points

2. INJURY SEVERITY (25 points max):
   - Surgery required/performed: 25 points
   - Permanent injury/disability: 25 points
   - Fracture/broken bone: 20 points
   - Herniated/bulging disc: 18 points
   - TBI/concussion: 18 points
   - Torn ligament/tendon: 15 points
   - Soft tissue only: 5 points
   - Unknown/not specified: 0 points

3. LIABILITY CLARITY (20 points max):
   - Rear-end collision (presumed liability): 20 points
   - DUI/DWI involved: 20 points
   - Citation issued to defendant: 20 points
   - Clear fault documented: 15 points
   - Fault appears clear from description: 12 points
   - Disputed/comparative fault: 5 points
   - Unknown/not documented: 0 points

4. INSURANCE COVERAGE (15 points max):
   - Policy limits known and adequate (>$50K): 15 points
   - Insurance carrier identified: 10 points
   - Unknown carrier: 0 points
   - Uninsured motorist only: 5 points

5. STATUTE OF LIMITATIONS (10 points max):
   - More than 24 months remaining: 10 points
   - 18-24 months remaining: 7 points
   - 12-18 months remaining: 3 points
   - Less than 12 months: 0 points
   - Cannot determine: 0 points

6. GEOGRAPHIC (5 points max):
   - Tri-county area (Charleston, Berkeley, Dorchester): 5 points
   - Other South Carolina county: 3 points
   - Out of state: 0 points

LEAD INFORMATION:
%s

Respond with a JSON object (no markdown, just pure JSON):
{
    "score": <0-100>,
    "recommendation": "<FAST-TRACK|CLAUDE-REVIEW|DECLINE|NEED-INFO>",
    "analysis": "<2-3 sentence assessment>",
    "red_flags": ["<list of concerns>"],
    "confidence": <0-100>,
    "component_scores": {
        "incident_type": <0-25>,
        "injury_severity": <0-25>,
        "liability": <0-20>,
        "insurance": <0-15>,
        "sol": <0-10>,
        "geographic": <0-5>
    },
    "missing_information": ["<list of critical missing data>"]
}

RECOMMENDATION LOGIC:
- FAST-TRACK (score >= 75): High-value case with clear merit. Auto-accept.
- CLAUDE-REVIEW (score 50-74): Promising but needs deeper analysis of nuances.
- NEED-INFO (score 25-49 AND missing critical information): Cannot properly assess without more data.
- DECLINE (score < 50 without data gaps, OR score < 25): Low viability case.

Be conservative. Only FAST-TRACK truly excellent cases. When in doubt, recommend CLAUDE-REVIEW.`

// Scorer performs first-pass Tier-1 scoring over the OpenAI chat API.
type Scorer struct {
	client     openai.Client
	cfg        config.OpenAIConfig
	thresholds config.AIConfig
	now        func() time.Time
}

// NewScorer creates a Tier-1 scorer.
func NewScorer(client openai.Client, cfg config.OpenAIConfig, thresholds config.AIConfig) *Scorer {
	return &Scorer{
		client:     client,
		cfg:        cfg,
		thresholds: thresholds,
		now:        time.Now,
	}
}

// ScoreLead scores a lead 0-100 and maps the score to a routing
// recommendation. API and parse failures degrade to a zero-score
// CLAUDE-REVIEW so no lead is silently dropped.
func (s *Scorer) ScoreLead(ctx context.Context, lead model.Lead) (model.ScorerResult, ComponentBreakdown) {
	zap.L().Info("tier-1 scoring lead",
		zap.String("name", lead.Name),
		zap.String("record_id", lead.RecordID),
	)

	prompt := strings.Replace(scoringPrompt, "%s", formatLeadData(lead, s.now()), 1)

	raw, err := s.client.ChatCompletion(ctx, openai.CompletionRequest{
		Model:       s.cfg.Model,
		System:      scorerSystemPrompt,
		User:        prompt,
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	})
	if err != nil {
		zap.L().Error("tier-1 scoring failed", zap.String("name", lead.Name), zap.Error(err))
		return model.ScorerResult{
			Score:          0,
			Recommendation: model.RecClaudeReview,
			Analysis:       "ChatGPT scoring failed: " + err.Error() + ". Escalating to Claude for manual review.",
			RedFlags:       []string{"API Error - scoring failed"},
			Confidence:     0,
		}, ComponentBreakdown{}
	}

	result, components := s.parseResponse(raw)
	zap.L().Info("tier-1 scoring complete",
		zap.String("name", lead.Name),
		zap.Int("score", result.Score),
		zap.String("recommendation", string(result.Recommendation)),
	)
	return result, components
}

// ComponentBreakdown is the rubric breakdown reported by the model.
type ComponentBreakdown struct {
	IncidentType   int `json:"incident_type"`
	InjurySeverity int `json:"injury_severity"`
	Liability      int `json:"liability"`
	Insurance      int `json:"insurance"`
	SOL            int `json:"sol"`
	Geographic     int `json:"geographic"`
}

type scorerResponse struct {
	Score              int                `json:"score"`
	Recommendation     string             `json:"recommendation"`
	Analysis           string             `json:"analysis"`
	RedFlags           []string           `json:"red_flags"`
	Confidence         *int               `json:"confidence"`
	ComponentScores    ComponentBreakdown `json:"component_scores"`
	MissingInformation []string           `json:"missing_information"`
}

func (s *Scorer) parseResponse(raw string) (model.ScorerResult, ComponentBreakdown) {
	var parsed scorerResponse
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &parsed); err != nil {
		zap.L().Error("failed to parse tier-1 response", zap.Error(err))
		return model.ScorerResult{
			Score:          0,
			Recommendation: model.RecClaudeReview,
			Analysis:       "Failed to parse scoring response. Escalating to Claude.",
			RedFlags:       []string{"Parse error - response was not valid JSON"},
			Confidence:     0,
		}, ComponentBreakdown{}
	}

	confidence := 50
	if parsed.Confidence != nil {
		confidence = *parsed.Confidence
	}
	analysis := parsed.Analysis
	if analysis == "" {
		analysis = "No analysis provided"
	}

	return model.ScorerResult{
		Score:          parsed.Score,
		Recommendation: s.determineRecommendation(parsed.Score, strings.ToUpper(parsed.Recommendation), parsed.MissingInformation),
		Analysis:       analysis,
		RedFlags:       parsed.RedFlags,
		MissingInfo:    parsed.MissingInformation,
		Confidence:     confidence,
	}, parsed.ComponentScores
}

// determineRecommendation applies the configured thresholds over the
// model's self-reported recommendation.
func (s *Scorer) determineRecommendation(score int, modelRec string, missingInfo []string) model.Recommendation {
	switch {
	case score >= s.thresholds.FastTrackThreshold:
		return model.RecFastTrack
	case score >= s.thresholds.ClaudeReviewThreshold:
		return model.RecClaudeReview
	case score >= s.thresholds.NeedInfoThreshold && len(missingInfo) > 0:
		return model.RecNeedInfo
	default:
		if modelRec == string(model.RecNeedInfo) && len(missingInfo) > 0 {
			return model.RecNeedInfo
		}
		return model.RecDecline
	}
}

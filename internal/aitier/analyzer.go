package aitier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/harborlaw/lead-qualifier/internal/config"
	"github.com/harborlaw/lead-qualifier/internal/model"
	"github.com/harborlaw/lead-qualifier/pkg/anthropic"
	"github.com/harborlaw/lead-qualifier/pkg/drivesearch"
)

const maxCaseComparisons = 5

const analysisPrompt = `You are a senior personal injury attorney analyzing a case that was flagged for deep review.
The case has already been scored by an initial AI system. Your job is to provide deeper analysis.

INITIAL CHATGPT SCORING:
- Score: {gpt_score}/100
- Recommendation: {gpt_recommendation}
- Initial Analysis: {gpt_analysis}
- Red Flags Identified: {gpt_red_flags}

LEAD INFORMATION:
{lead_data}

SIMILAR PRIOR CASES FROM FIRM FILES:
{case_comparisons}

INSURANCE CARRIER INTELLIGENCE:
{carrier_intel}

Provide a comprehensive analysis addressing:

1. DEEP CASE ANALYSIS
   - Assess the true merit of this case beyond the initial scoring
   - Identify any factors the initial scoring may have missed
   - Consider venue-specific factors (South Carolina law, local jury tendencies)

2. CASE COMPARISONS
   - How does this compare to similar cases in the firm's history?
   - What settlement range is realistic based on comparables?
   - What factors differentiate this case (better or worse)?

3. INSURANCE CARRIER STRATEGY
   - Based on the carrier's known patterns, what approach is recommended?
   - Timeline expectations for this carrier
   - Litigation probability assessment

4. INFORMATION GAPS
   - What critical information is missing?
   - What documents should be requested immediately?
   - What questions should be asked in the intake call?

5. FINAL RECOMMENDATION
   - Accept: Case has sufficient merit to pursue
   - Decline: Case does not meet firm criteria
   - Need More Info: Cannot make decision without additional information

Respond with JSON (no markdown):
{
    "deep_analysis": "<comprehensive 3-4 paragraph analysis>",
    "case_comparisons": "<summary of how this compares to similar cases>",
    "carrier_strategy": "<recommended approach for this insurance carrier>",
    "missing_gaps": ["<list of missing critical information>"],
    "recommended_questions": ["<specific questions for intake call>"],
    "final_recommendation": "<Accept|Decline|Need More Info>",
    "confidence": <0-100>,
    "estimated_value_range": "<e.g., $25,000 - $50,000>",
    "negotiation_notes": "<specific negotiation strategy recommendations>"
}`

// Analyzer performs Tier-2 deep review with Claude, enriched by prior-case
// search and carrier intelligence.
type Analyzer struct {
	client anthropic.Client
	cfg    config.AnthropicConfig

	// drive is optional; nil disables case comparisons.
	drive drivesearch.Searcher

	now func() time.Time
}

// NewAnalyzer creates a Tier-2 analyzer. drive may be nil.
func NewAnalyzer(client anthropic.Client, cfg config.AnthropicConfig, drive drivesearch.Searcher) *Analyzer {
	return &Analyzer{
		client: client,
		cfg:    cfg,
		drive:  drive,
		now:    time.Now,
	}
}

// AnalyzeLead performs deep analysis on a lead escalated from Tier-1.
// Failures degrade to a Need More Info verdict with zero confidence.
func (a *Analyzer) AnalyzeLead(ctx context.Context, lead model.Lead, gpt model.ScorerResult) model.AnalyzerResult {
	zap.L().Info("tier-2 analyzing lead",
		zap.String("name", lead.Name),
		zap.String("record_id", lead.RecordID),
	)

	caseComparisons := a.searchSimilarCases(ctx, lead)
	carrierIntel := carrierIntelligenceFor(lead.InsuranceCarrier)

	redFlags := "None"
	if len(gpt.RedFlags) > 0 {
		redFlags = strings.Join(gpt.RedFlags, ", ")
	}

	replacer := strings.NewReplacer(
		"{gpt_score}", fmt.Sprintf("%d", gpt.Score),
		"{gpt_recommendation}", string(gpt.Recommendation),
		"{gpt_analysis}", gpt.Analysis,
		"{gpt_red_flags}", redFlags,
		"{lead_data}", formatLeadData(lead, a.now()),
		"{case_comparisons}", caseComparisons,
		"{carrier_intel}", carrierIntel,
	)
	prompt := replacer.Replace(analysisPrompt)

	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     a.cfg.Model,
		MaxTokens: int64(a.cfg.MaxTokens),
		Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		zap.L().Error("tier-2 analysis failed", zap.String("name", lead.Name), zap.Error(err))
		return model.AnalyzerResult{
			DeepAnalysis:        "Claude analysis failed: " + err.Error(),
			CaseComparisons:     "Unable to retrieve case comparisons due to API error.",
			CarrierStrategy:     "Manual review required.",
			MissingGaps:         []string{"Unable to complete analysis"},
			FinalRecommendation: model.DecisionNeedMoreInfo,
			Confidence:          0,
		}
	}
	resp.Usage.LogCost(a.cfg.Model, "deep review")

	result := parseAnalyzerResponse(resp.Text())
	zap.L().Info("tier-2 analysis complete",
		zap.String("name", lead.Name),
		zap.String("recommendation", string(result.FinalRecommendation)),
	)
	return result
}

// searchSimilarCases builds keywords from the lead and searches the firm's
// prior case files.
func (a *Analyzer) searchSimilarCases(ctx context.Context, lead model.Lead) string {
	if a.drive == nil {
		return "Google Drive search not configured. No case comparisons available."
	}

	keywords := caseSearchKeywords(lead)

	matches, err := a.drive.Search(ctx, keywords, maxCaseComparisons)
	if err != nil {
		zap.L().Error("drive search failed", zap.Error(err))
		return "Drive search error: " + err.Error()
	}
	if len(matches) == 0 {
		return "No similar cases found in firm files."
	}

	lines := make([]string, len(matches))
	for i, m := range matches {
		lines[i] = fmt.Sprintf("- %s: %s", m.FileName, m.Snippet)
	}
	return strings.Join(lines, "\n")
}

// caseSearchKeywords derives search terms from the injury and liability
// narratives, the carrier, and the location.
func caseSearchKeywords(lead model.Lead) []string {
	var keywords []string

	injury := strings.ToLower(lead.InjuryDesc)
	if injury != "" {
		if strings.Contains(injury, "fracture") || strings.Contains(injury, "broken") {
			keywords = append(keywords, "fracture")
		}
		if strings.Contains(injury, "surgery") || strings.Contains(injury, "surgical") {
			keywords = append(keywords, "surgery")
		}
		if strings.Contains(injury, "herniated") || strings.Contains(injury, "disc") || strings.Contains(injury, "bulging") {
			keywords = append(keywords, "herniated disc")
		}
		if strings.Contains(injury, "tbi") || strings.Contains(injury, "concussion") || strings.Contains(injury, "brain") {
			keywords = append(keywords, "TBI")
		}
	}

	liability := strings.ToLower(lead.LiabilityNotes)
	if liability != "" {
		if strings.Contains(liability, "rear") && strings.Contains(liability, "end") {
			keywords = append(keywords, "rear-end")
		}
		if strings.Contains(liability, "slip") || strings.Contains(liability, "fall") || strings.Contains(liability, "premises") {
			keywords = append(keywords, "premises liability")
		}
	}

	if lead.InsuranceCarrier != "" {
		keywords = append(keywords, lead.InsuranceCarrier)
	}
	if lead.AccidentLocation != "" {
		keywords = append(keywords, lead.AccidentLocation)
	}

	if len(keywords) == 0 {
		keywords = []string{"settlement", "personal injury"}
	}
	return keywords
}

type analyzerResponse struct {
	DeepAnalysis         string   `json:"deep_analysis"`
	CaseComparisons      string   `json:"case_comparisons"`
	CarrierStrategy      string   `json:"carrier_strategy"`
	MissingGaps          []string `json:"missing_gaps"`
	RecommendedQuestions []string `json:"recommended_questions"`
	FinalRecommendation  string   `json:"final_recommendation"`
	Confidence           *int     `json:"confidence"`
	EstimatedValueRange  string   `json:"estimated_value_range"`
	NegotiationNotes     string   `json:"negotiation_notes"`
}

func parseAnalyzerResponse(raw string) model.AnalyzerResult {
	var parsed analyzerResponse
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &parsed); err != nil {
		zap.L().Error("failed to parse tier-2 response", zap.Error(err))

		// Keep what we can from the unstructured response, cut on a
		// rune boundary.
		excerpt := raw
		if len(excerpt) > 2000 {
			n := 2000
			for n > 0 && !utf8.RuneStart(excerpt[n]) {
				n--
			}
			excerpt = excerpt[:n]
		}
		if excerpt == "" {
			excerpt = "Parse error"
		}
		return model.AnalyzerResult{
			DeepAnalysis:        excerpt,
			CaseComparisons:     "Unable to parse structured response",
			CarrierStrategy:     "Manual review required",
			MissingGaps:         []string{"Response parsing failed"},
			FinalRecommendation: model.DecisionNeedMoreInfo,
			Confidence:          0,
		}
	}

	confidence := 50
	if parsed.Confidence != nil {
		confidence = *parsed.Confidence
	}

	return model.AnalyzerResult{
		DeepAnalysis:         withDefault(parsed.DeepAnalysis, "No analysis provided"),
		CaseComparisons:      withDefault(parsed.CaseComparisons, "No comparisons available"),
		CarrierStrategy:      withDefault(parsed.CarrierStrategy, "Standard approach recommended"),
		MissingGaps:          parsed.MissingGaps,
		RecommendedQuestions: parsed.RecommendedQuestions,
		FinalRecommendation:  model.Decision(withDefault(parsed.FinalRecommendation, string(model.DecisionNeedMoreInfo))),
		Confidence:           confidence,
		EstimatedValueRange:  parsed.EstimatedValueRange,
		NegotiationNotes:     parsed.NegotiationNotes,
	}
}

func withDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

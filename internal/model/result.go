package model

// Tier represents the rule-engine qualification outcome.
type Tier string

const (
	TierAutoAccept  Tier = "tier1"
	TierReview      Tier = "tier2"
	TierAutoDecline Tier = "tier3"
)

// FlagSeverity indicates how a safety flag affects routing.
type FlagSeverity string

const (
	SeverityBlock  FlagSeverity = "block"
	SeverityReview FlagSeverity = "review"
	SeverityInfo   FlagSeverity = "info"
)

// SafetyFlag represents a case attribute that requires attorney attention.
type SafetyFlag struct {
	Type        string       `json:"type"`
	Description string       `json:"description"`
	Severity    FlagSeverity `json:"severity"`
}

// QualificationResult is the complete output of the deterministic rule engine.
type QualificationResult struct {
	Tier       Tier `json:"tier"`
	TotalScore int  `json:"total_score"`

	// Component scores
	MedicalTreatmentMet    bool `json:"medical_treatment_met"`
	MedicalTreatmentPoints int  `json:"medical_treatment_points"`
	LiabilityMet           bool `json:"liability_met"`
	LiabilityPoints        int  `json:"liability_points"`
	InsuranceIdentified    bool `json:"insurance_identified"`
	InsurancePoints        int  `json:"insurance_points"`
	SOLAdequate            bool `json:"sol_adequate"`
	SOLPoints              int  `json:"sol_points"`
	SeriousInjury          bool `json:"serious_injury"`
	SeriousInjuryPoints    int  `json:"serious_injury_points"`
	GeographicBonus        int  `json:"geographic_bonus"`

	// Extracted data
	County             string   `json:"county,omitempty"`
	IsTriCounty        bool     `json:"is_tri_county"`
	IsInState          bool     `json:"is_in_state"`
	MonthsUntilSOL     *int     `json:"months_until_sol,omitempty"`
	EstimatedCaseValue *float64 `json:"estimated_case_value,omitempty"`
	InjuryType         string   `json:"injury_type"`

	// Analysis
	Notes                string   `json:"qualification_notes"`
	Strengths            []string `json:"strengths,omitempty"`
	Concerns             []string `json:"concerns,omitempty"`
	MissingInfo          []string `json:"missing_info,omitempty"`
	RecommendedQuestions []string `json:"recommended_questions,omitempty"`

	SafetyFlags []SafetyFlag `json:"safety_flags,omitempty"`

	AIAnalysis string `json:"ai_analysis,omitempty"`
}

// Recommendation is the Tier-1 AI scorer's routing verdict.
type Recommendation string

const (
	RecFastTrack    Recommendation = "FAST-TRACK"
	RecClaudeReview Recommendation = "CLAUDE-REVIEW"
	RecNeedInfo     Recommendation = "NEED-INFO"
	RecDecline      Recommendation = "DECLINE"
)

// Decision is the final outcome of the two-tier AI qualification.
type Decision string

const (
	DecisionAccept       Decision = "Accept"
	DecisionDecline      Decision = "Decline"
	DecisionNeedMoreInfo Decision = "Need More Info"
)

// StatusForDecision maps a final AI decision to a lead status.
func StatusForDecision(d Decision) LeadStatus {
	switch d {
	case DecisionAccept:
		return StatusAccepted
	case DecisionDecline:
		return StatusDeclined
	case DecisionNeedMoreInfo:
		return StatusNeedMoreInfo
	default:
		return StatusInReview
	}
}

// ScorerResult holds the Tier-1 first-pass AI scoring output.
type ScorerResult struct {
	Score          int            `json:"score"`
	Recommendation Recommendation `json:"recommendation"`
	Analysis       string         `json:"analysis"`
	RedFlags       []string       `json:"red_flags,omitempty"`
	MissingInfo    []string       `json:"missing_info,omitempty"`
	Confidence     int            `json:"confidence"`
}

// AnalyzerResult holds the Tier-2 deep-analysis output.
type AnalyzerResult struct {
	DeepAnalysis         string   `json:"deep_analysis"`
	CaseComparisons      string   `json:"case_comparisons,omitempty"`
	CarrierStrategy      string   `json:"carrier_strategy,omitempty"`
	MissingGaps          []string `json:"missing_gaps,omitempty"`
	RecommendedQuestions []string `json:"recommended_questions,omitempty"`
	FinalRecommendation  Decision `json:"final_recommendation"`
	Confidence           int      `json:"confidence"`
	EstimatedValueRange  string   `json:"estimated_value_range,omitempty"`
	NegotiationNotes     string   `json:"negotiation_notes,omitempty"`
}

// TwoTierResult is the combined output of both AI tiers.
type TwoTierResult struct {
	ChatGPTScore          int            `json:"chatgpt_score"`
	ChatGPTRecommendation Recommendation `json:"chatgpt_recommendation"`
	ChatGPTAnalysis       string         `json:"chatgpt_analysis"`
	ChatGPTRedFlags       []string       `json:"chatgpt_red_flags,omitempty"`
	ChatGPTConfidence     int            `json:"chatgpt_confidence"`

	ClaudeTriggered       bool     `json:"claude_triggered"`
	ClaudeAnalysis        string   `json:"claude_analysis,omitempty"`
	ClaudeCaseComparisons string   `json:"claude_case_comparisons,omitempty"`
	ClaudeCarrierStrategy string   `json:"claude_carrier_strategy,omitempty"`
	ClaudeRecommendation  Decision `json:"claude_recommendation,omitempty"`
	ClaudeConfidence      int      `json:"claude_confidence,omitempty"`

	FinalDecision   Decision `json:"final_decision"`
	FinalConfidence int      `json:"final_confidence"`
}

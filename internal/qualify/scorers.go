package qualify

import (
	"strings"

	"github.com/harborlaw/lead-qualifier/internal/model"
)

// Keyword tables for the treatment threshold check.
var (
	erKeywords       = []string{"emergency room", "er visit", "emergency department", "ed visit", "hospital"}
	orthoKeywords    = []string{"orthopedic", "orthopaedic", "orthopedist"}
	surgeryKeywords  = []string{"surgery", "surgical", "operation"}
	followupKeywords = []string{"physical therapy", "pt", "chiropractor", "follow-up", "followup", "specialist"}

	duiKeywords      = []string{"dui", "dwi", "drunk", "intoxicated", "bac"}
	citationKeywords = []string{"citation", "ticket", "cited", "ticketed"}

	unknownCarriers = []string{"", "unknown", "n/a", "none", "tbd"}
	umCarriers      = []string{"uninsured", "uninsured motorist", "um", "no insurance"}
)

// injuryTypeTable maps injury keywords to display labels, checked in order
// of decreasing severity.
var injuryTypeTable = []struct {
	keywords []string
	label    string
}{
	{[]string{"fracture", "broken", "break"}, "Fracture injuries"},
	{[]string{"surgery", "surgical"}, "Surgical case"},
	{[]string{"traumatic brain", "tbi", "concussion", "head injury"}, "Head/Brain injury"},
	{[]string{"spinal", "spine", "back injury", "neck injury", "herniated"}, "Spinal injuries"},
	{[]string{"torn", "rupture", "acl", "mcl", "rotator cuff"}, "Torn ligament/tendon"},
	{[]string{"whiplash", "strain", "sprain"}, "Whiplash/soft tissue"},
}

const defaultInjuryType = "Soft tissue injuries"

// analyzeMedicalTreatment checks whether documented care meets the firm's
// threshold: an ER visit with orthopedic or follow-up care, or surgery.
func (e *Engine) analyzeMedicalTreatment(lead model.Lead) (met bool, points int, details string) {
	combined := strings.ToLower(lead.MedicalTreatment + " " + lead.InjuryDesc)

	hasER := containsAny(combined, erKeywords)
	hasOrtho := containsAny(combined, orthoKeywords)
	hasSurgery := containsAny(combined, surgeryKeywords)
	hasFollowup := containsAny(combined, followupKeywords)

	var parts []string
	if hasER {
		parts = append(parts, "ER visit documented")
	}
	if hasOrtho {
		parts = append(parts, "Orthopedic care")
	}
	if hasSurgery {
		parts = append(parts, "Surgical intervention")
	}
	if hasFollowup {
		parts = append(parts, "Follow-up care documented")
	}

	met = (hasER && (hasOrtho || hasFollowup)) || hasSurgery
	if met {
		points = e.scoring.MedicalTreatmentPoints
	}

	details = "No qualifying treatment documented"
	if len(parts) > 0 {
		details = strings.Join(parts, "; ")
	}
	return met, points, details
}

// analyzeLiability looks for clear-fault indicators in the liability notes.
func (e *Engine) analyzeLiability(lead model.Lead) (met bool, points int, details string) {
	text := strings.ToLower(lead.LiabilityNotes)
	if strings.TrimSpace(text) == "" {
		return false, 0, "No liability information provided"
	}

	var parts []string
	var clear bool

	for _, keyword := range e.keywords.ClearLiability {
		if strings.Contains(text, strings.ToLower(keyword)) {
			clear = true
			parts = append(parts, "Clear liability indicator: "+keyword)
			break
		}
	}

	// Rear-end collisions carry presumed liability.
	if strings.Contains(text, "rear") && strings.Contains(text, "end") {
		clear = true
		parts = append(parts, "Rear-end collision (presumed liability)")
	}

	if containsAny(text, duiKeywords) {
		clear = true
		parts = append(parts, "DUI/DWI involved")
	}

	if containsAny(text, citationKeywords) {
		clear = true
		parts = append(parts, "Citation issued to defendant")
	}

	if clear {
		points = e.scoring.ClearLiabilityPoints
	}

	details = "Liability unclear or not documented"
	if len(parts) > 0 {
		details = strings.Join(parts, "; ")
	}
	return clear, points, details
}

// analyzeInsurance awards points only when a real carrier is named.
// UM-only cases score zero and go to review.
func (e *Engine) analyzeInsurance(lead model.Lead) (identified bool, points int) {
	carrier := strings.ToLower(strings.TrimSpace(lead.InsuranceCarrier))

	for _, unknown := range unknownCarriers {
		if carrier == unknown {
			return false, 0
		}
	}
	for _, um := range umCarriers {
		if carrier == um {
			return false, 0
		}
	}

	return true, e.scoring.InsuranceKnownPoints
}

// analyzeSOL checks the limitations runway. More than 24 months earns a
// buffer point.
func (e *Engine) analyzeSOL(monthsRemaining *int) (adequate bool, points int) {
	if monthsRemaining == nil {
		return false, 0
	}
	if *monthsRemaining < e.scoring.MinSOLMonths {
		return false, 0
	}
	if *monthsRemaining > 24 {
		return true, e.scoring.SOLBufferPoints
	}
	return true, 0
}

// analyzeInjurySeverity classifies the injury and flags serious cases.
func (e *Engine) analyzeInjurySeverity(lead model.Lead) (serious bool, points int, injuryType string) {
	combined := strings.ToLower(lead.InjuryDesc + " " + lead.MedicalTreatment)

	injuryType = defaultInjuryType
	for _, entry := range injuryTypeTable {
		if containsAny(combined, entry.keywords) {
			injuryType = entry.label
			break
		}
	}

	for _, kw := range e.keywords.SeriousInjury {
		if strings.Contains(combined, strings.ToLower(kw)) {
			serious = true
			break
		}
	}
	if serious {
		points = e.scoring.SeriousInjuryPoints
	}
	return serious, points, injuryType
}

// determineTier routes the lead from score, safety flags, and the hard
// geographic and limitations gates.
func (e *Engine) determineTier(score int, flags []model.SafetyFlag, inState, solAdequate bool) model.Tier {
	if !inState {
		return model.TierAutoDecline
	}
	if !solAdequate {
		return model.TierAutoDecline
	}

	var needsReview bool
	for _, f := range flags {
		if f.Severity == model.SeverityBlock || f.Severity == model.SeverityReview {
			needsReview = true
			break
		}
	}

	if needsReview && score >= e.scoring.Tier1Threshold {
		return model.TierReview
	}

	switch {
	case score >= e.scoring.Tier1Threshold:
		return model.TierAutoAccept
	case score >= e.scoring.Tier2Threshold:
		return model.TierReview
	default:
		return model.TierAutoDecline
	}
}

// estimateCaseValue gives a rough figure for prioritization only. Both the
// treatment and liability thresholds must be met to estimate at all.
func (e *Engine) estimateCaseValue(serious, medicalMet, liabilityMet, triCounty bool) *float64 {
	if !(medicalMet && liabilityMet) {
		return nil
	}

	value := e.scoring.BaseCaseValue
	if serious {
		value = e.scoring.SeriousCaseValue
	}
	if triCounty {
		value *= e.scoring.TriCountyValueMul
	}
	return &value
}

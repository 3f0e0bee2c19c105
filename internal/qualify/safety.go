package qualify

import (
	"strings"

	"github.com/harborlaw/lead-qualifier/internal/model"
)

// Indicator lists for conditions that always route a lead to an attorney.
var (
	minorIndicators = []string{
		"minor", "child", "age 17", "age 16", "age 15",
		"year old", "years old", "minor child", "juvenile",
	}
	multiPartyIndicators = []string{
		"multiple vehicles", "multi-vehicle", "chain reaction",
		"three car", "four car", "several parties", "multiple parties",
	}
	commercialIndicators = []string{
		"commercial", "truck", "18-wheeler", "semi", "tractor-trailer",
		"delivery van", "box truck", "company vehicle", "fleet",
	}
)

// checkSafetyRules scans the lead's free-text fields for conditions that
// block auto-acceptance regardless of score.
func (e *Engine) checkSafetyRules(lead model.Lead) []model.SafetyFlag {
	var flags []model.SafetyFlag

	allText := strings.ToLower(strings.Join(nonEmpty(
		lead.InjuryDesc,
		lead.MedicalTreatment,
		lead.LiabilityNotes,
	), " "))

	for _, keyword := range e.keywords.DisputedLiability {
		if strings.Contains(allText, strings.ToLower(keyword)) {
			flags = append(flags, model.SafetyFlag{
				Type:        "disputed_liability",
				Description: "Liability may be disputed: found '" + keyword + "'",
				Severity:    model.SeverityReview,
			})
			break
		}
	}

	medText := strings.ToLower(strings.TrimSpace(lead.MedicalTreatment))
	switch {
	case medText == "" || medText == "none" || medText == "n/a":
		flags = append(flags, model.SafetyFlag{
			Type:        "no_medical_treatment",
			Description: "No medical treatment information provided",
			Severity:    model.SeverityReview,
		})
	default:
		for _, keyword := range e.keywords.InsufficientTreatment {
			if strings.Contains(medText, strings.ToLower(keyword)) {
				flags = append(flags, model.SafetyFlag{
					Type:        "insufficient_treatment",
					Description: "Medical treatment may be insufficient: '" + keyword + "'",
					Severity:    model.SeverityReview,
				})
				break
			}
		}
	}

	if containsAny(allText, minorIndicators) {
		flags = append(flags, model.SafetyFlag{
			Type:        "minor_plaintiff",
			Description: "Plaintiff may be a minor - requires special handling",
			Severity:    model.SeverityReview,
		})
	}

	if containsAny(allText, multiPartyIndicators) {
		flags = append(flags, model.SafetyFlag{
			Type:        "multiple_parties",
			Description: "Multiple parties involved - requires review",
			Severity:    model.SeverityReview,
		})
	}

	if containsAny(allText, commercialIndicators) {
		flags = append(flags, model.SafetyFlag{
			Type:        "commercial_vehicle",
			Description: "Commercial vehicle involved - potential higher value case",
			Severity:    model.SeverityReview,
		})
	}

	return flags
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

package aitier

import (
	"fmt"
	"strings"
)

// carrierIntel captures the firm's institutional knowledge of how each
// insurance carrier negotiates. Entries are matched in declared order,
// so more specific names must precede names they contain.
type carrierIntel struct {
	name                 string
	tendency             string
	notes                string
	litigationLikelihood string
}

var carrierIntelligence = []carrierIntel{
	{
		name:                 "state farm",
		tendency:             "moderate",
		notes:                "Generally reasonable but slow. Expect 60-day response times. Often settles at 70-80% of demand.",
		litigationLikelihood: "low",
	},
	{
		name:                 "geico",
		tendency:             "aggressive",
		notes:                "Known for lowball offers. Initial offers typically 40-50% of demand. Be prepared to litigate.",
		litigationLikelihood: "high",
	},
	{
		name:                 "allstate",
		tendency:             "aggressive",
		notes:                "Boxing gloves mentality. Low initial offers. Recommend strong demand with litigation threat.",
		litigationLikelihood: "high",
	},
	{
		name:                 "usaa",
		tendency:             "fair",
		notes:                "Generally fair and professional. Often settles reasonably. Good faith negotiators.",
		litigationLikelihood: "low",
	},
	{
		name:                 "progressive",
		tendency:             "moderate",
		notes:                "Varies by adjuster. Document everything. Mid-range settlement tendency.",
		litigationLikelihood: "moderate",
	},
	{
		name:                 "nationwide",
		tendency:             "moderate",
		notes:                "Professional but firm. Expect negotiations. Usually settles before trial.",
		litigationLikelihood: "moderate",
	},
	{
		name:                 "liberty mutual",
		tendency:             "aggressive",
		notes:                "Corporate defense mindset. Low offers. May require litigation to get fair value.",
		litigationLikelihood: "high",
	},
	{
		name:                 "farmers",
		tendency:             "moderate",
		notes:                "Reasonable in clear liability cases. Can be difficult in disputed liability.",
		litigationLikelihood: "moderate",
	},
}

// carrierIntelligenceFor returns a negotiation briefing for the carrier,
// matching case-insensitively in both directions.
func carrierIntelligenceFor(carrier string) string {
	if carrier == "" {
		return "Insurance carrier not identified. Cannot provide carrier-specific strategy."
	}

	carrierLower := strings.ToLower(strings.TrimSpace(carrier))
	for _, intel := range carrierIntelligence {
		if strings.Contains(carrierLower, intel.name) || strings.Contains(intel.name, carrierLower) {
			return fmt.Sprintf(`
Carrier: %s
Settlement Tendency: %s
Litigation Likelihood: %s
Notes: %s
`, carrier, intel.tendency, intel.litigationLikelihood, intel.notes)
		}
	}

	return fmt.Sprintf("Carrier '%s' not in intelligence database. Use standard negotiation approach.", carrier)
}

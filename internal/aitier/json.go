package aitier

import (
	"fmt"
	"strings"
	"time"

	"github.com/harborlaw/lead-qualifier/internal/model"
)

// cleanJSON strips markdown fences and extracts the JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}

// formatLeadData renders the lead fields for the scoring prompts.
func formatLeadData(lead model.Lead, now time.Time) string {
	accidentDate := "Not provided"
	daysSince := "Cannot calculate"
	if lead.AccidentDate != nil {
		accidentDate = lead.AccidentDate.Format("2006-01-02")
		daysSince = fmt.Sprintf("%d", int(now.Sub(*lead.AccidentDate).Hours()/24))
	}

	return fmt.Sprintf(`
Name: %s
Phone: %s
Email: %s

Accident Date: %s
Days Since Incident: %s
Accident Location: %s

Injury Description: %s
Medical Treatment: %s

Liability Notes: %s
Insurance Carrier: %s

Lead Source: %s
`,
		orNotProvided(lead.Name),
		orNotProvided(lead.Phone),
		orNotProvided(lead.Email),
		accidentDate,
		daysSince,
		orNotProvided(lead.AccidentLocation),
		orNotProvided(lead.InjuryDesc),
		orNotProvided(lead.MedicalTreatment),
		orNotProvided(lead.LiabilityNotes),
		orNotProvided(lead.InsuranceCarrier),
		orNotProvided(lead.Source),
	)
}

func orNotProvided(s string) string {
	if s == "" {
		return "Not provided"
	}
	return s
}

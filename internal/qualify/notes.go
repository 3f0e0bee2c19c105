package qualify

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/harborlaw/lead-qualifier/internal/model"
)

var titleCaser = cases.Title(language.AmericanEnglish)

type analysisInput struct {
	lead             model.Lead
	medicalMet       bool
	liabilityMet     bool
	insuranceMet     bool
	solAdequate      bool
	serious          bool
	triCounty        bool
	county           string
	medicalDetails   string
	liabilityDetails string
}

// buildAnalysisLists derives strengths, concerns, missing information, and
// recommended intake questions from the component checks.
func buildAnalysisLists(in analysisInput) (strengths, concerns, missing, questions []string) {
	if in.medicalMet {
		strengths = append(strengths, "Medical treatment threshold met: "+in.medicalDetails)
	}
	if in.liabilityMet {
		strengths = append(strengths, "Clear liability established: "+in.liabilityDetails)
	}
	if in.insuranceMet {
		strengths = append(strengths, "Insurance carrier identified: "+in.lead.InsuranceCarrier)
	}
	if in.solAdequate {
		strengths = append(strengths, "Statute of limitations adequate")
	}
	if in.serious {
		strengths = append(strengths, "Serious injury documented")
	}
	if in.triCounty {
		county := "Unknown"
		if in.county != "" {
			county = titleCaser.String(in.county)
		}
		strengths = append(strengths, fmt.Sprintf("Tri-county area (%s County)", county))
	}

	if !in.medicalMet {
		concerns = append(concerns, "Medical treatment may not meet threshold")
	}
	if !in.liabilityMet {
		concerns = append(concerns, "Liability not clearly established")
	}
	if !in.insuranceMet {
		concerns = append(concerns, "Insurance carrier not identified or UM-only")
	}
	if !in.solAdequate {
		concerns = append(concerns, "Statute of limitations concern")
	}

	if in.lead.AccidentDate == nil {
		missing = append(missing, "Accident date not provided")
	}
	if in.lead.AccidentLocation == "" {
		missing = append(missing, "Accident location not provided")
	}
	if in.lead.InjuryDesc == "" {
		missing = append(missing, "Injury description not provided")
	}
	if in.lead.MedicalTreatment == "" {
		missing = append(missing, "Medical treatment details not provided")
	}
	if in.lead.LiabilityNotes == "" {
		missing = append(missing, "Liability notes not provided")
	}

	if !in.medicalMet {
		questions = append(questions,
			"What medical treatment have you received so far?",
			"Have you seen an orthopedic specialist or had any imaging (X-ray, MRI)?",
		)
	}
	if !in.liabilityMet {
		questions = append(questions,
			"How did the accident occur? Who was at fault?",
			"Was a police report filed? Were any citations issued?",
		)
	}
	if !in.insuranceMet {
		questions = append(questions, "Do you know the at-fault driver's insurance company?")
	}
	if in.lead.AccidentDate == nil {
		questions = append(questions, "When did the accident occur?")
	}

	return strengths, concerns, missing, questions
}

// buildNotes renders the qualification notes written back to the lead record.
// The format differs per tier: accepted leads get the criteria met, review
// leads get the full worksheet, declined leads get the reasons.
func buildNotes(result *model.QualificationResult, now time.Time) string {
	timestamp := now.Format("2006-01-02 15:04:05")
	var b strings.Builder

	switch result.Tier {
	case model.TierAutoAccept:
		fmt.Fprintf(&b, "Auto-qualified %s.\n\n", timestamp)
		fmt.Fprintf(&b, "Score: %d points\n\n", result.TotalScore)
		b.WriteString("CRITERIA MET:\n")
		for _, s := range result.Strengths {
			fmt.Fprintf(&b, "  - %s\n", s)
		}
		if result.AIAnalysis != "" {
			fmt.Fprintf(&b, "\nAI ASSESSMENT:\n%s\n", result.AIAnalysis)
		}
		b.WriteString("\nRecommended intake call within 24 hours.")

	case model.TierReview:
		fmt.Fprintf(&b, "Flagged for review %s.\n\n", timestamp)
		fmt.Fprintf(&b, "Score: %d points\n\n", result.TotalScore)

		if len(result.Strengths) > 0 {
			b.WriteString("STRENGTHS:\n")
			for _, s := range result.Strengths {
				fmt.Fprintf(&b, "  + %s\n", s)
			}
			b.WriteString("\n")
		}
		if len(result.Concerns) > 0 {
			b.WriteString("CONCERNS:\n")
			for _, c := range result.Concerns {
				fmt.Fprintf(&b, "  - %s\n", c)
			}
			b.WriteString("\n")
		}
		if len(result.SafetyFlags) > 0 {
			b.WriteString("SAFETY FLAGS:\n")
			for _, f := range result.SafetyFlags {
				fmt.Fprintf(&b, "  ! %s\n", f.Description)
			}
			b.WriteString("\n")
		}
		if len(result.MissingInfo) > 0 {
			b.WriteString("MISSING INFORMATION:\n")
			for _, m := range result.MissingInfo {
				fmt.Fprintf(&b, "  ? %s\n", m)
			}
			b.WriteString("\n")
		}
		if len(result.RecommendedQuestions) > 0 {
			b.WriteString("RECOMMENDED QUESTIONS:\n")
			for i, q := range result.RecommendedQuestions {
				fmt.Fprintf(&b, "  %d. %s\n", i+1, q)
			}
			b.WriteString("\n")
		}
		if result.AIAnalysis != "" {
			fmt.Fprintf(&b, "AI ASSESSMENT:\n%s\n", result.AIAnalysis)
		}

	default: // auto-decline
		fmt.Fprintf(&b, "Auto-declined %s.\n\n", timestamp)
		fmt.Fprintf(&b, "Score: %d points\n\n", result.TotalScore)
		b.WriteString("REASONS FOR DECLINE:\n")
		for _, c := range result.Concerns {
			fmt.Fprintf(&b, "  - %s\n", c)
		}
		for _, f := range result.SafetyFlags {
			fmt.Fprintf(&b, "  - %s\n", f.Description)
		}
	}

	return b.String()
}

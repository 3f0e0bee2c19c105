package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderAcceptedTemplate(t *testing.T) {
	content, err := renderEmailTemplate("accepted.html", acceptedEmailData{
		leadEmailData: leadEmailData{
			baseEmailData: baseEmailData{FirmName: "Harbor Law"},
			Name:          "Jane Smith",
			Phone:         "(843) 555-0123",
			Email:         "jane@example.com",
			Score:         16,
			InjuryType:    "Fracture injuries",
			Location:      "Charleston, SC",
			AccidentDate:  "2025-03-17",
			AIAssessment:  "Strong liability and documented treatment.",
		},
		Strengths: []string{"Medical treatment threshold met", "Clear liability"},
		MatterURL: "https://app.clio.com/matters/42",
	})
	require.NoError(t, err)

	assert.Contains(t, content, "AUTO-ACCEPTED LEAD")
	assert.Contains(t, content, "Jane Smith")
	assert.Contains(t, content, "16 points")
	assert.Contains(t, content, "Fracture injuries")
	assert.Contains(t, content, "Medical treatment threshold met")
	assert.Contains(t, content, "https://app.clio.com/matters/42")
	assert.Contains(t, content, "Strong liability and documented treatment.")
	assert.Contains(t, content, "Harbor Law Lead Qualifier System")
	assert.NotContains(t, content, "Matter creation pending")
}

func TestRenderAcceptedTemplateWithoutMatter(t *testing.T) {
	content, err := renderEmailTemplate("accepted.html", acceptedEmailData{
		leadEmailData: leadEmailData{baseEmailData: baseEmailData{FirmName: "Harbor Law"}},
	})
	require.NoError(t, err)
	assert.Contains(t, content, "Matter creation pending")
}

func TestRenderReviewTemplate(t *testing.T) {
	content, err := renderEmailTemplate("review.html", reviewEmailData{
		leadEmailData: leadEmailData{
			baseEmailData: baseEmailData{FirmName: "Harbor Law"},
			Name:          "John Doe",
			Score:         8,
			InjuryType:    "Whiplash/soft tissue",
		},
		Strengths:            []string{"Insurance carrier identified"},
		Concerns:             []string{"Injury severity unclear"},
		SafetyFlags:          []string{"Client describes still investigating fault"},
		MissingInfo:          []string{"Treatment records"},
		RecommendedQuestions: []string{"When did treatment begin?"},
		Recommendation:       reviewRecommendation(8),
	})
	require.NoError(t, err)

	assert.Contains(t, content, "REVIEW NEEDED")
	assert.Contains(t, content, "Insurance carrier identified")
	assert.Contains(t, content, "Injury severity unclear")
	assert.Contains(t, content, "Client describes still investigating fault")
	assert.Contains(t, content, "Treatment records")
	assert.Contains(t, content, "When did treatment begin?")
	assert.Contains(t, content, "BORDERLINE - Gather more information before deciding")
}

func TestRenderReviewTemplateOmitsEmptySections(t *testing.T) {
	content, err := renderEmailTemplate("review.html", reviewEmailData{
		leadEmailData: leadEmailData{baseEmailData: baseEmailData{FirmName: "Harbor Law"}},
	})
	require.NoError(t, err)

	assert.NotContains(t, content, "Safety Flags:")
	assert.NotContains(t, content, "Missing Information:")
	assert.NotContains(t, content, "Recommended Questions:")
}

func TestRenderDeclinedTemplate(t *testing.T) {
	content, err := renderEmailTemplate("declined.html", declinedEmailData{
		leadEmailData: leadEmailData{
			baseEmailData: baseEmailData{FirmName: "Harbor Law"},
			Name:          "Out Of State",
		},
		Reasons: []string{"Accident outside South Carolina"},
	})
	require.NoError(t, err)

	assert.Contains(t, content, "Out Of State")
	assert.Contains(t, content, "Accident outside South Carolina")
}

func TestRenderReferralTemplate(t *testing.T) {
	content, err := renderEmailTemplate("referral.html", referralEmailData{
		baseEmailData: baseEmailData{FirmName: "Harbor Law"},
		FirstName:     "Maria",
	})
	require.NoError(t, err)

	assert.Contains(t, content, "Dear Maria,")
	assert.Contains(t, content, "Thank you for contacting Harbor Law")
	assert.Contains(t, content, "South Carolina Bar Lawyer Referral Service")
	assert.Contains(t, content, "(803) 799-7100")
}

func TestRenderErrorTemplate(t *testing.T) {
	content, err := renderEmailTemplate("error.html", errorEmailData{
		baseEmailData: baseEmailData{FirmName: "Harbor Law"},
		ErrorMessage:  "record store timeout",
		LeadName:      "Jane Smith",
		LeadRecordID:  "rec123",
		LeadPhone:     "N/A",
	})
	require.NoError(t, err)

	assert.Contains(t, content, "record store timeout")
	assert.Contains(t, content, "Jane Smith")
	assert.Contains(t, content, "rec123")
}

func TestReviewRecommendation(t *testing.T) {
	assert.Equal(t, "LIKELY ACCEPT - Strong case with minor concerns", reviewRecommendation(9))
	assert.Equal(t, "BORDERLINE - Gather more information before deciding", reviewRecommendation(7))
	assert.Equal(t, "LIKELY DECLINE - Multiple concerns identified", reviewRecommendation(6))
}

func TestOrNA(t *testing.T) {
	assert.Equal(t, "N/A", orNA(""))
	assert.Equal(t, "(843) 555-0123", orNA("(843) 555-0123"))
}

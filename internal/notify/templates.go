package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	FirmName string
}

type leadEmailData struct {
	baseEmailData
	Name         string
	Phone        string
	Email        string
	Score        int
	InjuryType   string
	Location     string
	AccidentDate string
	AIAssessment string
}

type acceptedEmailData struct {
	leadEmailData
	Strengths []string
	MatterURL string
}

type reviewEmailData struct {
	leadEmailData
	Strengths            []string
	Concerns             []string
	SafetyFlags          []string
	MissingInfo          []string
	RecommendedQuestions []string
	Recommendation       string
}

type declinedEmailData struct {
	leadEmailData
	Reasons []string
}

type referralEmailData struct {
	baseEmailData
	FirstName string
}

type errorEmailData struct {
	baseEmailData
	ErrorMessage string
	LeadName     string
	LeadRecordID string
	LeadPhone    string
}

var emailTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

func renderEmailTemplate(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}
	return buf.String(), nil
}

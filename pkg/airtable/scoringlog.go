package airtable

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/harborlaw/lead-qualifier/internal/model"
)

// ScoringLogEntry is one row in the scoring audit table. Each AI decision is
// logged so prediction accuracy can be compared against signed outcomes.
type ScoringLogEntry struct {
	LeadRecordID string
	LeadName     string
	GPT          model.ScorerResult
	Claude       *model.AnalyzerResult
	Decision     model.Decision
	Components   ComponentScores
}

// ComponentScores holds the Tier-1 rubric breakdown for audit display.
type ComponentScores struct {
	IncidentType   int
	InjurySeverity int
	Liability      int
	Insurance      int
	SOL            int
	Geographic     int
}

// AccuracyStats summarizes predicted decisions against recorded outcomes.
type AccuracyStats struct {
	TotalEvaluated    int     `json:"total_evaluated"`
	OverallAccuracy   float64 `json:"overall_accuracy"`
	FastTrackAccuracy float64 `json:"fast_track_accuracy"`
	DeclineAccuracy   float64 `json:"decline_accuracy"`
}

// AppendScoringLog writes one audit row and returns its record ID.
func (c *httpClient) AppendScoringLog(ctx context.Context, entry ScoringLogEntry) (string, error) {
	name := entry.LeadName
	if name == "" {
		name = "Unknown"
	}

	fields := map[string]any{
		"Lead_Name":              name,
		"Timestamp":              time.Now().Format(time.RFC3339),
		"ChatGPT_Score":          entry.GPT.Score,
		"ChatGPT_Recommendation": string(entry.GPT.Recommendation),
		"ChatGPT_Confidence":     entry.GPT.Confidence,
		"Claude_Triggered":       entry.Claude != nil,
		"Final_Decision":         string(entry.Decision),
		"Processing_Details":     buildProcessingDetails(entry),
	}
	if entry.LeadRecordID != "" {
		fields["Lead_Record"] = []string{entry.LeadRecordID}
	}
	if entry.Claude != nil {
		fields["Claude_Confidence"] = entry.Claude.Confidence
		fields["Claude_Recommendation"] = string(entry.Claude.FinalRecommendation)
	}

	var created record
	payload := struct {
		Fields map[string]any `json:"fields"`
	}{Fields: fields}
	if err := c.do(ctx, http.MethodPost, c.tableURL(c.scoringTable), payload, &created); err != nil {
		return "", eris.Wrap(err, "airtable: append scoring log")
	}

	zap.L().Info("logged scoring decision",
		zap.String("lead", name),
		zap.String("decision", string(entry.Decision)),
		zap.String("record_id", created.ID),
	)
	return created.ID, nil
}

// AccuracyStats compares logged decisions against manually recorded outcomes.
// Accept is correct when the lead signed; Decline is correct when the lead
// declined or never responded.
func (c *httpClient) AccuracyStats(ctx context.Context) (*AccuracyStats, error) {
	params := url.Values{}
	params.Set("filterByFormula", "{Actual_Outcome} != ''")

	var records []record
	offset := ""
	for {
		if offset != "" {
			params.Set("offset", offset)
		}
		var page listResponse
		if err := c.do(ctx, http.MethodGet, c.tableURL(c.scoringTable)+"?"+params.Encode(), nil, &page); err != nil {
			return nil, eris.Wrap(err, "airtable: fetch scoring log")
		}
		records = append(records, page.Records...)
		offset = page.Offset
		if offset == "" {
			break
		}
	}

	stats := &AccuracyStats{TotalEvaluated: len(records)}
	if len(records) == 0 {
		return stats, nil
	}

	var correct, acceptTotal, acceptCorrect, declineTotal, declineCorrect int
	for _, rec := range records {
		decision := stringField(rec.Fields, "Final_Decision")
		outcome := stringField(rec.Fields, "Actual_Outcome")

		switch decision {
		case string(model.DecisionAccept):
			acceptTotal++
			if outcome == string(model.StatusSigned) {
				correct++
				acceptCorrect++
			}
		case string(model.DecisionDecline):
			declineTotal++
			if outcome == string(model.StatusDeclined) || outcome == string(model.StatusNoResponse) {
				correct++
				declineCorrect++
			}
		}
	}

	stats.OverallAccuracy = percent(correct, len(records))
	stats.FastTrackAccuracy = percent(acceptCorrect, acceptTotal)
	stats.DeclineAccuracy = percent(declineCorrect, declineTotal)
	return stats, nil
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(total)*1000) / 10
}

func buildProcessingDetails(entry ScoringLogEntry) string {
	var b strings.Builder

	fmt.Fprintf(&b, "=== CHATGPT TIER-1 ===\n")
	fmt.Fprintf(&b, "Score: %d/100\n", entry.GPT.Score)
	fmt.Fprintf(&b, "Recommendation: %s\n", entry.GPT.Recommendation)
	fmt.Fprintf(&b, "Confidence: %d%%\n\n", entry.GPT.Confidence)
	fmt.Fprintf(&b, "Component Scores:\n")
	fmt.Fprintf(&b, "  - Incident Type: %d/25\n", entry.Components.IncidentType)
	fmt.Fprintf(&b, "  - Injury Severity: %d/25\n", entry.Components.InjurySeverity)
	fmt.Fprintf(&b, "  - Liability: %d/20\n", entry.Components.Liability)
	fmt.Fprintf(&b, "  - Insurance: %d/15\n", entry.Components.Insurance)
	fmt.Fprintf(&b, "  - SOL: %d/10\n", entry.Components.SOL)
	fmt.Fprintf(&b, "  - Geographic: %d/5\n\n", entry.Components.Geographic)
	fmt.Fprintf(&b, "Analysis: %s", entry.GPT.Analysis)

	if len(entry.GPT.RedFlags) > 0 {
		b.WriteString("\n\nRed Flags:\n")
		for _, flag := range entry.GPT.RedFlags {
			fmt.Fprintf(&b, "  - %s\n", flag)
		}
	}

	if entry.Claude != nil {
		b.WriteString("\n=== CLAUDE TIER-2 ===\n")
		fmt.Fprintf(&b, "Final Recommendation: %s\n", entry.Claude.FinalRecommendation)
		fmt.Fprintf(&b, "Confidence: %d%%\n\n", entry.Claude.Confidence)
		b.WriteString("Deep Analysis (excerpt):\n")
		excerpt := entry.Claude.DeepAnalysis
		if len(excerpt) > 1000 {
			excerpt = truncateRunes(excerpt, 1000) + "..."
		}
		b.WriteString(excerpt)
	}

	return b.String()
}

// truncateRunes shortens s to at most n bytes without splitting a rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// Package airtable wraps the Airtable REST API for lead intake records
// and the scoring audit log.
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/harborlaw/lead-qualifier/internal/model"
	"github.com/harborlaw/lead-qualifier/internal/resilience"
)

const defaultBaseURL = "https://api.airtable.com/v0"

// Client defines the Airtable operations used by this application.
type Client interface {
	ListNewLeads(ctx context.Context) ([]model.Lead, error)
	GetLead(ctx context.Context, recordID string) (*model.Lead, error)
	RecentLeads(ctx context.Context, limit int) ([]model.Lead, error)
	UpdateQualification(ctx context.Context, recordID string, update QualificationUpdate) error
	UpdateTwoTierScoring(ctx context.Context, recordID string, update TwoTierUpdate) error
	MarkForReview(ctx context.Context, recordID, reason string) error
	AppendScoringLog(ctx context.Context, entry ScoringLogEntry) (string, error)
	AccuracyStats(ctx context.Context) (*AccuracyStats, error)
	CheckConnection(ctx context.Context) error
}

// QualificationUpdate carries rule-engine results back to the lead record.
type QualificationUpdate struct {
	Status             model.LeadStatus
	QualificationScore int
	QualificationNotes string
	AutoQualified      bool
	County             string
	EstimatedCaseValue *float64
}

// TwoTierUpdate carries two-tier AI scoring results back to the lead record.
type TwoTierUpdate struct {
	ChatGPTScore          int
	ChatGPTAnalysis       string
	ChatGPTRedFlags       string
	ChatGPTRecommendation model.Recommendation

	ClaudeAnalysis        string
	ClaudeCaseComparisons string
	ClaudeCarrierStrategy string

	FinalAIDecision   model.Decision
	AIConfidenceLevel *int

	Status model.LeadStatus
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit overrides the default Airtable rate limit (5 req/s).
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

// WithRetry overrides the default retry behavior.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

type httpClient struct {
	apiKey       string
	baseID       string
	leadsTable   string
	scoringTable string
	baseURL      string
	http         *http.Client
	limiter      *rate.Limiter
	retry        resilience.RetryConfig
}

// NewClient creates an Airtable client for the given base. By default, API
// calls are throttled to 5 req/s (Airtable's per-base rate limit).
func NewClient(apiKey, baseID, leadsTable, scoringTable string, opts ...Option) Client {
	c := &httpClient{
		apiKey:       apiKey,
		baseID:       baseID,
		leadsTable:   leadsTable,
		scoringTable: scoringTable,
		baseURL:      defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(5, 1),
		retry:   resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// record is the Airtable wire representation of a single row.
type record struct {
	ID          string         `json:"id,omitempty"`
	CreatedTime string         `json:"createdTime,omitempty"`
	Fields      map[string]any `json:"fields"`
}

type listResponse struct {
	Records []record `json:"records"`
	Offset  string   `json:"offset,omitempty"`
}

func (c *httpClient) tableURL(table string) string {
	return fmt.Sprintf("%s/%s/%s", c.baseURL, c.baseID, url.PathEscape(table))
}

// do performs one rate-limited, retried request and decodes the JSON body
// into out when out is non-nil.
func (c *httpClient) do(ctx context.Context, method, rawURL string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return eris.Wrap(err, "airtable: marshal request")
		}
	}

	return resilience.Do(ctx, c.retry, func(ctx context.Context) error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return eris.Wrap(err, "airtable: rate limit")
			}
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
		if err != nil {
			return eris.Wrap(err, "airtable: create request")
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return eris.Wrap(err, "airtable: send request")
		}
		defer resp.Body.Close() //nolint:errcheck

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return eris.Wrap(err, "airtable: read response")
		}

		if resp.StatusCode != http.StatusOK {
			err := eris.Errorf("airtable: unexpected status %d: %s", resp.StatusCode, string(respBody))
			return resilience.HTTPError(err, resp.StatusCode, resp.Header)
		}

		if out != nil {
			if err := json.Unmarshal(respBody, out); err != nil {
				return eris.Wrap(err, "airtable: unmarshal response")
			}
		}
		return nil
	})
}

// ListNewLeads fetches all leads with Case Status = 'New Lead', oldest first.
func (c *httpClient) ListNewLeads(ctx context.Context) ([]model.Lead, error) {
	var leads []model.Lead
	offset := ""

	for {
		params := url.Values{}
		params.Set("filterByFormula", "{Case Status} = 'New Lead'")
		params.Set("sort[0][field]", "Capture Date")
		params.Set("sort[0][direction]", "asc")
		if offset != "" {
			params.Set("offset", offset)
		}

		var page listResponse
		if err := c.do(ctx, http.MethodGet, c.tableURL(c.leadsTable)+"?"+params.Encode(), nil, &page); err != nil {
			return nil, eris.Wrap(err, "airtable: list new leads")
		}

		for _, rec := range page.Records {
			leads = append(leads, leadFromRecord(rec))
		}

		offset = page.Offset
		if offset == "" {
			break
		}
	}

	zap.L().Info("retrieved new leads", zap.Int("count", len(leads)))
	return leads, nil
}

// GetLead fetches a single lead by record ID.
func (c *httpClient) GetLead(ctx context.Context, recordID string) (*model.Lead, error) {
	var rec record
	if err := c.do(ctx, http.MethodGet, c.tableURL(c.leadsTable)+"/"+recordID, nil, &rec); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("airtable: get lead %s", recordID))
	}
	lead := leadFromRecord(rec)
	return &lead, nil
}

// RecentLeads returns the most recently created leads across all statuses.
func (c *httpClient) RecentLeads(ctx context.Context, limit int) ([]model.Lead, error) {
	params := url.Values{}
	params.Set("maxRecords", strconv.Itoa(limit))
	params.Set("sort[0][field]", "Created Time")
	params.Set("sort[0][direction]", "desc")

	var page listResponse
	if err := c.do(ctx, http.MethodGet, c.tableURL(c.leadsTable)+"?"+params.Encode(), nil, &page); err != nil {
		return nil, eris.Wrap(err, "airtable: recent leads")
	}

	leads := make([]model.Lead, 0, len(page.Records))
	for _, rec := range page.Records {
		leads = append(leads, leadFromRecord(rec))
	}
	return leads, nil
}

// UpdateQualification writes rule-engine qualification results to a lead.
func (c *httpClient) UpdateQualification(ctx context.Context, recordID string, update QualificationUpdate) error {
	fields := map[string]any{
		"Status":              string(update.Status),
		"Qualification Score": update.QualificationScore,
		"Qualification Notes": update.QualificationNotes,
		"Auto-Qualified":      update.AutoQualified,
	}
	if update.County != "" {
		fields["County"] = update.County
	}
	if update.EstimatedCaseValue != nil {
		fields["Estimated Case Value"] = *update.EstimatedCaseValue
	}

	if err := c.do(ctx, http.MethodPatch, c.tableURL(c.leadsTable)+"/"+recordID, record{Fields: fields}, nil); err != nil {
		return eris.Wrap(err, fmt.Sprintf("airtable: update lead %s", recordID))
	}

	zap.L().Info("updated lead qualification",
		zap.String("record_id", recordID),
		zap.String("status", string(update.Status)),
	)
	return nil
}

// UpdateTwoTierScoring writes two-tier AI scoring results to a lead.
func (c *httpClient) UpdateTwoTierScoring(ctx context.Context, recordID string, update TwoTierUpdate) error {
	fields := map[string]any{
		"ChatGPT_Score":          update.ChatGPTScore,
		"ChatGPT_Analysis":       update.ChatGPTAnalysis,
		"ChatGPT_Red_Flags":      update.ChatGPTRedFlags,
		"ChatGPT_Recommendation": string(update.ChatGPTRecommendation),
		"AI_Processed_At":        time.Now().Format(time.RFC3339),
	}

	if update.ClaudeAnalysis != "" {
		fields["Claude_Analysis"] = update.ClaudeAnalysis
	}
	if update.ClaudeCaseComparisons != "" {
		fields["Claude_Case_Comparisons"] = update.ClaudeCaseComparisons
	}
	if update.ClaudeCarrierStrategy != "" {
		fields["Claude_Carrier_Strategy"] = update.ClaudeCarrierStrategy
	}

	if update.FinalAIDecision != "" {
		fields["Final_AI_Decision"] = string(update.FinalAIDecision)
	}
	if update.AIConfidenceLevel != nil {
		fields["AI_Confidence_Level"] = *update.AIConfidenceLevel
	}

	if update.Status != "" {
		fields["Status"] = string(update.Status)
	}

	if err := c.do(ctx, http.MethodPatch, c.tableURL(c.leadsTable)+"/"+recordID, record{Fields: fields}, nil); err != nil {
		return eris.Wrap(err, fmt.Sprintf("airtable: update two-tier scoring %s", recordID))
	}

	zap.L().Info("updated two-tier scoring",
		zap.String("record_id", recordID),
		zap.String("decision", string(update.FinalAIDecision)),
	)
	return nil
}

// MarkForReview routes a lead to manual review after a processing error.
func (c *httpClient) MarkForReview(ctx context.Context, recordID, reason string) error {
	return c.UpdateQualification(ctx, recordID, QualificationUpdate{
		Status:             model.StatusInReview,
		QualificationScore: 0,
		QualificationNotes: "Requires manual review - processing error: " + reason,
	})
}

// CheckConnection verifies credentials and base access with a one-record read.
func (c *httpClient) CheckConnection(ctx context.Context) error {
	params := url.Values{}
	params.Set("maxRecords", "1")
	var page listResponse
	if err := c.do(ctx, http.MethodGet, c.tableURL(c.leadsTable)+"?"+params.Encode(), nil, &page); err != nil {
		return eris.Wrap(err, "airtable: connection check")
	}
	return nil
}

func leadFromRecord(rec record) model.Lead {
	f := rec.Fields

	lead := model.Lead{
		RecordID:  rec.ID,
		Name:      stringField(f, "Lead Name"),
		Phone:     stringField(f, "Phone Number"),
		Email:     stringField(f, "Email Address"),
		Source:    stringField(f, "Lead Source"),
		Summary:   stringField(f, "Lead Information Summary"),
		Sentiment: stringField(f, "Lead Sentiment Analysis"),
		Status:    model.LeadStatus(stringField(f, "Case Status")),

		AccidentLocation: stringField(f, "Accident Location"),
		MedicalTreatment: stringField(f, "Medical Treatment"),
		InsuranceCarrier: stringField(f, "Insurance Carrier"),
		LiabilityNotes:   stringField(f, "Liability Notes"),
	}
	if lead.Name == "" {
		lead.Name = "Unknown"
	}
	if lead.Status == "" {
		lead.Status = model.StatusNewLead
	}

	// The intake call summary carries the injury narrative.
	lead.InjuryDesc = lead.Summary

	lead.CaptureDate = timeField(f, "Capture Date")
	if rec.CreatedTime != "" {
		if t, err := time.Parse(time.RFC3339, rec.CreatedTime); err == nil {
			lead.CreatedTime = &t
		}
	}
	if days, ok := intField(f, "Days Since Capture"); ok {
		lead.DaysSinceCapture = &days
	}

	// Capture date stands in for the accident date when no dedicated
	// field is populated.
	lead.AccidentDate = timeField(f, "Accident Date")
	if lead.AccidentDate == nil {
		lead.AccidentDate = lead.CaptureDate
	}

	return lead
}

func stringField(fields map[string]any, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}

func timeField(fields map[string]any, key string) *time.Time {
	s := stringField(fields, key)
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	zap.L().Warn("could not parse date field", zap.String("field", key), zap.String("value", s))
	return nil
}

func intField(fields map[string]any, key string) (int, bool) {
	switch v := fields[key].(type) {
	case float64:
		return int(v), true
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n, true
		}
	}
	return 0, false
}

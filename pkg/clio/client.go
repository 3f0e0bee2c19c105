// Package clio wraps the Clio practice-management API v4 for matter
// creation on accepted leads.
package clio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/nyaruka/phonenumbers"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/harborlaw/lead-qualifier/internal/resilience"
)

const defaultBaseURL = "https://app.clio.com/api/v4"

// Client defines the Clio operations used by the lead processor.
type Client interface {
	CreateMatter(ctx context.Context, req MatterRequest) (*Matter, error)
	CheckConnection(ctx context.Context) error
}

// MatterRequest carries the data needed to open a matter for a signed lead.
type MatterRequest struct {
	ClientName       string
	InjuryType       string
	AccidentLocation string
	AccidentDate     *time.Time
	LeadSource       string
	Phone            string
	Email            string
}

// Matter represents a successfully created Clio matter.
type Matter struct {
	ID            int64
	DisplayNumber string
	Description   string
	ClientID      int64
	WebURL        string
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

type httpClient struct {
	token         string
	baseURL       string
	attorneyName  string
	practiceArea  string
	defaultRegion string
	http          *http.Client
	retry         resilience.RetryConfig

	mu             sync.Mutex
	attorneyID     int64
	practiceAreaID int64
}

// NewClient creates a Clio API client. attorneyName and practiceArea are used
// to resolve the responsible attorney and practice area on first use; the IDs
// are memoized for the life of the client.
func NewClient(token, attorneyName, practiceArea, defaultRegion string, opts ...Option) Client {
	c := &httpClient{
		token:         token,
		baseURL:       defaultBaseURL,
		attorneyName:  attorneyName,
		practiceArea:  practiceArea,
		defaultRegion: defaultRegion,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		retry: resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return eris.Wrap(err, "clio: marshal request")
		}
	}

	rawURL := c.baseURL + path
	if len(query) > 0 {
		rawURL += "?" + query.Encode()
	}

	return resilience.Do(ctx, c.retry, func(ctx context.Context) error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
		if err != nil {
			return eris.Wrap(err, "clio: create request")
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return eris.Wrap(err, "clio: send request")
		}
		defer resp.Body.Close() //nolint:errcheck

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return eris.Wrap(err, "clio: read response")
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			err := eris.Errorf("clio: unexpected status %d: %s", resp.StatusCode, string(respBody))
			return resilience.HTTPError(err, resp.StatusCode, resp.Header)
		}

		if out != nil {
			if err := json.Unmarshal(respBody, out); err != nil {
				return eris.Wrap(err, "clio: unmarshal response")
			}
		}
		return nil
	})
}

// CheckConnection verifies the access token against the who_am_i endpoint.
func (c *httpClient) CheckConnection(ctx context.Context) error {
	var resp struct {
		Data struct {
			Name string `json:"name"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/users/who_am_i", nil, nil, &resp); err != nil {
		return eris.Wrap(err, "clio: connection check")
	}
	zap.L().Info("clio connection verified", zap.String("user", resp.Data.Name))
	return nil
}

// CreateMatter opens a matter for the lead, finding or creating the client
// contact first. Custom fields are set best-effort after creation.
func (c *httpClient) CreateMatter(ctx context.Context, req MatterRequest) (*Matter, error) {
	clientID, err := c.findOrCreateContact(ctx, req.ClientName, req.Phone, req.Email)
	if err != nil {
		return nil, eris.Wrap(err, "clio: resolve client contact")
	}

	description := fmt.Sprintf("%s - %s", req.InjuryType, req.AccidentLocation)

	matterData := map[string]any{
		"description": description,
		"client":      map[string]any{"id": clientID},
		"status":      "Open",
	}
	if attorneyID := c.lookupAttorneyID(ctx); attorneyID != 0 {
		matterData["responsible_attorney"] = map[string]any{"id": attorneyID}
	}
	if areaID := c.lookupPracticeAreaID(ctx); areaID != 0 {
		matterData["practice_area"] = map[string]any{"id": areaID}
	}

	var resp struct {
		Data struct {
			ID            int64  `json:"id"`
			DisplayNumber string `json:"display_number"`
			Description   string `json:"description"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/matters", nil, map[string]any{"data": matterData}, &resp); err != nil {
		return nil, eris.Wrap(err, "clio: create matter")
	}

	c.setCustomFields(ctx, resp.Data.ID, req.LeadSource, req.AccidentDate)

	matter := &Matter{
		ID:            resp.Data.ID,
		DisplayNumber: resp.Data.DisplayNumber,
		Description:   resp.Data.Description,
		ClientID:      clientID,
		WebURL:        fmt.Sprintf("https://app.clio.com/nc/#/matters/%d", resp.Data.ID),
	}
	zap.L().Info("created clio matter",
		zap.Int64("matter_id", matter.ID),
		zap.String("description", description),
	)
	return matter, nil
}

func (c *httpClient) findOrCreateContact(ctx context.Context, name, phone, email string) (int64, error) {
	query := url.Values{}
	query.Set("query", name)
	query.Set("type", "Person")

	var search struct {
		Data []struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/contacts", query, nil, &search); err != nil {
		zap.L().Warn("contact search failed, creating new contact", zap.Error(err))
	} else {
		for _, contact := range search.Data {
			if strings.EqualFold(contact.Name, name) {
				return contact.ID, nil
			}
		}
	}

	first, last := splitName(name)
	contact := map[string]any{
		"type":       "Person",
		"first_name": first,
		"last_name":  last,
	}
	if normalized := c.normalizePhone(phone); normalized != "" {
		contact["phone_numbers"] = []map[string]any{
			{"name": "Mobile", "number": normalized, "default_number": true},
		}
	}
	if email != "" {
		contact["email_addresses"] = []map[string]any{
			{"name": "Work", "address": email, "default_email": true},
		}
	}

	var created struct {
		Data struct {
			ID int64 `json:"id"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/contacts", nil, map[string]any{"data": contact}, &created); err != nil {
		return 0, eris.Wrap(err, "clio: create contact")
	}
	return created.Data.ID, nil
}

// normalizePhone formats the number as E.164 when it parses, otherwise
// returns the raw input.
func (c *httpClient) normalizePhone(phone string) string {
	if phone == "" {
		return ""
	}
	region := c.defaultRegion
	if region == "" {
		region = "US"
	}
	num, err := phonenumbers.Parse(phone, region)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return phone
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}

func (c *httpClient) lookupAttorneyID(ctx context.Context) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.attorneyID != 0 || c.attorneyName == "" {
		return c.attorneyID
	}

	query := url.Values{}
	query.Set("query", c.attorneyName)
	var resp struct {
		Data []struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/users", query, nil, &resp); err != nil {
		zap.L().Warn("attorney lookup failed", zap.Error(err))
		return 0
	}
	for _, user := range resp.Data {
		if strings.Contains(strings.ToLower(user.Name), strings.ToLower(c.attorneyName)) {
			c.attorneyID = user.ID
			return c.attorneyID
		}
	}
	zap.L().Warn("responsible attorney not found", zap.String("name", c.attorneyName))
	return 0
}

func (c *httpClient) lookupPracticeAreaID(ctx context.Context) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.practiceAreaID != 0 || c.practiceArea == "" {
		return c.practiceAreaID
	}

	query := url.Values{}
	query.Set("query", c.practiceArea)
	var resp struct {
		Data []struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/practice_areas", query, nil, &resp); err != nil {
		zap.L().Warn("practice area lookup failed", zap.Error(err))
		return 0
	}
	for _, area := range resp.Data {
		if strings.Contains(strings.ToLower(area.Name), strings.ToLower(c.practiceArea)) {
			c.practiceAreaID = area.ID
			return c.practiceAreaID
		}
	}
	return 0
}

// setCustomFields writes Lead Source and Accident Date field values.
// Failures are logged and do not fail matter creation.
func (c *httpClient) setCustomFields(ctx context.Context, matterID int64, leadSource string, accidentDate *time.Time) {
	want := map[string]string{}
	if leadSource != "" {
		want["lead source"] = leadSource
	}
	if accidentDate != nil {
		want["accident date"] = accidentDate.Format("2006-01-02")
	}
	if len(want) == 0 {
		return
	}

	query := url.Values{}
	query.Set("parent_type", "Matter")
	var defs struct {
		Data []struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/custom_fields", query, nil, &defs); err != nil {
		zap.L().Warn("could not fetch custom field definitions", zap.Error(err))
		return
	}

	for _, def := range defs.Data {
		value, ok := want[strings.ToLower(def.Name)]
		if !ok {
			continue
		}
		payload := map[string]any{
			"data": map[string]any{
				"custom_field": map[string]any{"id": def.ID},
				"matter":       map[string]any{"id": matterID},
				"value":        value,
			},
		}
		if err := c.do(ctx, http.MethodPost, "/custom_field_values", nil, payload, nil); err != nil {
			zap.L().Warn("could not set custom field value",
				zap.String("field", def.Name),
				zap.Error(err),
			)
		}
	}
}

func splitName(name string) (first, last string) {
	parts := strings.Fields(strings.TrimSpace(name))
	if len(parts) == 0 {
		return "Unknown", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

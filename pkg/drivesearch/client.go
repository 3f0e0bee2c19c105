// Package drivesearch searches the firm's Google Drive for prior case
// files that resemble a new lead, to aid valuation during deep review.
package drivesearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/harborlaw/lead-qualifier/internal/resilience"
)

const defaultBaseURL = "https://www.googleapis.com/drive/v3"

// Searcher defines the Drive search operations used during deep review.
type Searcher interface {
	Search(ctx context.Context, keywords []string, maxResults int) ([]CaseMatch, error)
	CheckConnection(ctx context.Context) error
}

// CaseMatch is a prior case file that matched the search keywords.
type CaseMatch struct {
	FileID    string  `json:"file_id"`
	FileName  string  `json:"file_name"`
	FileType  string  `json:"file_type"`
	WebLink   string  `json:"web_link"`
	Snippet   string  `json:"snippet"`
	Relevance float64 `json:"relevance_score"`
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

// WithRetry overrides the retry configuration.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

type httpClient struct {
	token    string
	folderID string
	baseURL  string
	http     *http.Client
	retry    resilience.RetryConfig
}

// NewClient creates a Drive search client. folderID optionally restricts the
// search to one folder of prior case files.
func NewClient(token, folderID string, opts ...Option) Searcher {
	c := &httpClient{
		token:    token,
		folderID: folderID,
		baseURL:  defaultBaseURL,
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

type driveFile struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MimeType    string `json:"mimeType"`
	WebViewLink string `json:"webViewLink"`
	Description string `json:"description"`
}

type filesListResponse struct {
	Files []driveFile `json:"files"`
}

// Search returns prior case files matching any of the keywords, most
// relevant first.
func (c *httpClient) Search(ctx context.Context, keywords []string, maxResults int) ([]CaseMatch, error) {
	if len(keywords) == 0 {
		return nil, nil
	}

	query := buildQuery(keywords, c.folderID)

	params := url.Values{}
	params.Set("q", query)
	params.Set("pageSize", fmt.Sprintf("%d", maxResults))
	params.Set("fields", "files(id, name, mimeType, webViewLink, description)")
	params.Set("orderBy", "modifiedTime desc")

	var resp filesListResponse
	if err := c.get(ctx, "/files?"+params.Encode(), &resp); err != nil {
		return nil, eris.Wrap(err, "drivesearch: search files")
	}

	matches := make([]CaseMatch, 0, len(resp.Files))
	for _, f := range resp.Files {
		matches = append(matches, CaseMatch{
			FileID:    f.ID,
			FileName:  f.Name,
			FileType:  f.MimeType,
			WebLink:   f.WebViewLink,
			Snippet:   extractSnippet(f, keywords),
			Relevance: relevanceScore(f, keywords),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Relevance > matches[j].Relevance
	})

	zap.L().Info("drive search complete",
		zap.Strings("keywords", keywords),
		zap.Int("matches", len(matches)),
	)
	return matches, nil
}

// CheckConnection verifies Drive API access with a single-file listing.
func (c *httpClient) CheckConnection(ctx context.Context) error {
	var resp filesListResponse
	if err := c.get(ctx, "/files?pageSize=1", &resp); err != nil {
		return eris.Wrap(err, "drivesearch: connection check")
	}
	return nil
}

func (c *httpClient) get(ctx context.Context, path string, out any) error {
	return resilience.Do(ctx, c.retry, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return eris.Wrap(err, "drivesearch: create request")
		}
		req.Header.Set("Authorization", "Bearer "+c.token)

		resp, err := c.http.Do(req)
		if err != nil {
			return eris.Wrap(err, "drivesearch: send request")
		}
		defer resp.Body.Close() //nolint:errcheck

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return eris.Wrap(err, "drivesearch: read response")
		}
		if resp.StatusCode != http.StatusOK {
			err := eris.Errorf("drivesearch: unexpected status %d: %s", resp.StatusCode, string(body))
			return resilience.HTTPError(err, resp.StatusCode, resp.Header)
		}
		if err := json.Unmarshal(body, out); err != nil {
			return eris.Wrap(err, "drivesearch: unmarshal response")
		}
		return nil
	})
}

// buildQuery joins keywords as fullText clauses, excluding folders and
// trashed files.
func buildQuery(keywords []string, folderID string) string {
	parts := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		escaped := strings.ReplaceAll(kw, "'", `\'`)
		parts = append(parts, fmt.Sprintf("fullText contains '%s'", escaped))
	}

	query := "(" + strings.Join(parts, " or ") + ") and mimeType != 'application/vnd.google-apps.folder' and trashed = false"
	if folderID != "" {
		query += fmt.Sprintf(" and '%s' in parents", folderID)
	}
	return query
}

// extractSnippet prefers the file description; falls back to naming the
// keywords that matched the filename.
func extractSnippet(f driveFile, keywords []string) string {
	if f.Description != "" {
		if len(f.Description) > 500 {
			n := 500
			for n > 0 && !utf8.RuneStart(f.Description[n]) {
				n--
			}
			return f.Description[:n]
		}
		return f.Description
	}

	var matched []string
	nameLower := strings.ToLower(f.Name)
	for _, kw := range keywords {
		if strings.Contains(nameLower, strings.ToLower(kw)) {
			matched = append(matched, kw)
		}
	}
	if len(matched) > 0 {
		return "File matches: " + strings.Join(matched, ", ")
	}
	return "Potentially relevant file: " + f.Name
}

// relevanceScore weighs filename matches double over description matches.
func relevanceScore(f driveFile, keywords []string) float64 {
	var score float64
	nameLower := strings.ToLower(f.Name)
	descLower := strings.ToLower(f.Description)

	for _, kw := range keywords {
		kwLower := strings.ToLower(kw)
		if strings.Contains(nameLower, kwLower) {
			score += 2.0
		}
		if descLower != "" && strings.Contains(descLower, kwLower) {
			score += 1.0
		}
	}
	return score
}

package processor

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/harborlaw/lead-qualifier/internal/model"
)

// ProcessedLead records one processing outcome for dashboard display.
type ProcessedLead struct {
	ID         string           `json:"id"`
	RecordID   string           `json:"record_id"`
	Name       string           `json:"name"`
	Timestamp  time.Time        `json:"timestamp"`
	Tier       model.Tier       `json:"tier"`
	Score      int              `json:"score"`
	Status     model.LeadStatus `json:"status"`
	InjuryType string           `json:"injury_type"`
	County     string           `json:"county,omitempty"`
	MatterURL  string           `json:"matter_url,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// Stats summarizes the in-memory processing history.
type Stats struct {
	TotalProcessed int        `json:"total_processed"`
	AutoAccepted   int        `json:"auto_accepted"`
	NeedsReview    int        `json:"needs_review"`
	AutoDeclined   int        `json:"auto_declined"`
	Errors         int        `json:"errors"`
	LastProcessed  *time.Time `json:"last_processed,omitempty"`
}

// History is a bounded, thread-safe record of processed leads,
// newest first. Persistent state lives in the record store; this exists
// only to feed the dashboard.
type History struct {
	mu      sync.Mutex
	maxSize int
	entries []ProcessedLead
}

// NewHistory creates a history capped at maxSize entries.
func NewHistory(maxSize int) *History {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &History{maxSize: maxSize}
}

// Add prepends an entry, assigning it an ID, and evicts the oldest
// entries beyond the cap.
func (h *History) Add(entry ProcessedLead) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entry.ID = uuid.NewString()
	h.entries = append([]ProcessedLead{entry}, h.entries...)
	if len(h.entries) > h.maxSize {
		h.entries = h.entries[:h.maxSize]
	}
}

// Recent returns up to limit entries, newest first.
func (h *History) Recent(limit int) []ProcessedLead {
	h.mu.Lock()
	defer h.mu.Unlock()

	if limit <= 0 || limit > len(h.entries) {
		limit = len(h.entries)
	}
	out := make([]ProcessedLead, limit)
	copy(out, h.entries[:limit])
	return out
}

// Stats computes counters over the retained history.
func (h *History) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()

	stats := Stats{TotalProcessed: len(h.entries)}
	for _, e := range h.entries {
		switch {
		case e.Error != "":
			stats.Errors++
		case e.Tier == model.TierAutoAccept:
			stats.AutoAccepted++
		case e.Tier == model.TierReview:
			stats.NeedsReview++
		case e.Tier == model.TierAutoDecline:
			stats.AutoDeclined++
		}
	}
	if len(h.entries) > 0 {
		ts := h.entries[0].Timestamp
		stats.LastProcessed = &ts
	}
	return stats
}

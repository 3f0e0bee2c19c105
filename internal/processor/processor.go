package processor

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/harborlaw/lead-qualifier/internal/aitier"
	"github.com/harborlaw/lead-qualifier/internal/model"
	"github.com/harborlaw/lead-qualifier/internal/notify"
	"github.com/harborlaw/lead-qualifier/internal/qualify"
	"github.com/harborlaw/lead-qualifier/pkg/airtable"
	"github.com/harborlaw/lead-qualifier/pkg/clio"
)

// interLeadDelay spaces record-store writes between consecutive leads.
const interLeadDelay = time.Second

// Processor polls the record store for new leads, qualifies them, and
// applies per-decision side effects: status updates, matter creation,
// notifications, and the audit log.
type Processor struct {
	store airtable.Client
	rules *qualify.Engine

	// ai is optional; nil means rule-engine-only qualification.
	ai *aitier.Engine
	// matters is optional; nil disables matter creation.
	matters clio.Client
	// notifier is optional; nil disables email notifications.
	notifier notify.Sender

	history *History
	now     func() time.Time
}

// NewProcessor wires the processing pipeline. ai, matters, and notifier
// may each be nil to disable the corresponding integration.
func NewProcessor(store airtable.Client, rules *qualify.Engine, ai *aitier.Engine, matters clio.Client, notifier notify.Sender, history *History) *Processor {
	return &Processor{
		store:    store,
		rules:    rules,
		ai:       ai,
		matters:  matters,
		notifier: notifier,
		history:  history,
		now:      time.Now,
	}
}

// History exposes the in-memory processing history for the dashboard.
func (p *Processor) History() *History {
	return p.history
}

// ProcessAllNewLeads fetches and processes every lead still marked new.
// Returns the number of leads processed.
func (p *Processor) ProcessAllNewLeads(ctx context.Context) (int, error) {
	leads, err := p.store.ListNewLeads(ctx)
	if err != nil {
		p.notifyError(ctx, "Failed to fetch leads from record store: "+err.Error(), nil)
		return 0, eris.Wrap(err, "processor: list new leads")
	}
	zap.L().Info("found new leads to process", zap.Int("count", len(leads)))

	processed := 0
	for i, lead := range leads {
		if err := ctx.Err(); err != nil {
			zap.L().Info("shutdown requested, stopping processing")
			return processed, nil
		}

		p.ProcessLead(ctx, lead)
		processed++

		if i < len(leads)-1 {
			select {
			case <-ctx.Done():
				return processed, nil
			case <-time.After(interLeadDelay):
			}
		}
	}
	return processed, nil
}

// ProcessLead runs one lead through qualification and side effects,
// recording the outcome in the history.
func (p *Processor) ProcessLead(ctx context.Context, lead model.Lead) ProcessedLead {
	zap.L().Info("processing lead",
		zap.String("name", lead.Name),
		zap.String("record_id", lead.RecordID),
	)

	result := p.rules.Qualify(ctx, lead)
	tier := result.Tier
	status := statusForTier(tier)

	if p.ai != nil {
		outcome := p.ai.Qualify(ctx, lead)
		p.recordTwoTier(ctx, lead, outcome)
		tier = tierForDecision(outcome.Result.FinalDecision)
		// The AI decision carries its own status; Need More Info must
		// survive the review handler.
		status = model.StatusForDecision(outcome.Result.FinalDecision)
	}

	var matterURL string
	var err error
	switch tier {
	case model.TierAutoAccept:
		matterURL, err = p.handleAccept(ctx, lead, result)
	case model.TierAutoDecline:
		err = p.handleDecline(ctx, lead, result)
	default:
		err = p.handleReview(ctx, lead, result, status)
	}
	if err != nil {
		return p.handleError(ctx, lead, err)
	}

	processed := ProcessedLead{
		RecordID:   lead.RecordID,
		Name:       lead.Name,
		Timestamp:  p.now(),
		Tier:       tier,
		Score:      result.TotalScore,
		Status:     status,
		InjuryType: result.InjuryType,
		County:     result.County,
		MatterURL:  matterURL,
	}
	p.history.Add(processed)

	zap.L().Info("lead processed",
		zap.String("name", lead.Name),
		zap.String("tier", string(tier)),
		zap.Int("score", result.TotalScore),
	)
	return processed
}

// recordTwoTier writes the AI scoring fields and audit-log entry.
// Failures here never fail lead processing.
func (p *Processor) recordTwoTier(ctx context.Context, lead model.Lead, outcome aitier.Outcome) {
	if err := p.store.UpdateTwoTierScoring(ctx, lead.RecordID, outcome.RecordUpdate()); err != nil {
		zap.L().Error("failed to write two-tier scoring", zap.String("record_id", lead.RecordID), zap.Error(err))
	}
	if _, err := p.store.AppendScoringLog(ctx, outcome.LogEntry(lead)); err != nil {
		zap.L().Error("failed to append scoring log", zap.String("record_id", lead.RecordID), zap.Error(err))
	}
}

func (p *Processor) handleAccept(ctx context.Context, lead model.Lead, result *model.QualificationResult) (string, error) {
	zap.L().Info("auto-accepting lead", zap.String("name", lead.Name))

	update := airtable.QualificationUpdate{
		Status:             model.StatusAccepted,
		QualificationScore: result.TotalScore,
		QualificationNotes: result.Notes,
		AutoQualified:      true,
		County:             result.County,
		EstimatedCaseValue: result.EstimatedCaseValue,
	}
	if err := p.store.UpdateQualification(ctx, lead.RecordID, update); err != nil {
		return "", eris.Wrap(err, "processor: update accepted lead")
	}

	var matterURL string
	if p.matters != nil {
		matter, err := p.matters.CreateMatter(ctx, clio.MatterRequest{
			ClientName:       lead.Name,
			InjuryType:       result.InjuryType,
			AccidentLocation: lead.AccidentLocation,
			AccidentDate:     lead.AccidentDate,
			LeadSource:       lead.Source,
			Phone:            lead.Phone,
			Email:            lead.Email,
		})
		if err != nil {
			// Accepted lead stands; matter creation gets flagged for manual followup.
			zap.L().Error("matter creation failed", zap.String("name", lead.Name), zap.Error(err))
			p.notifyError(ctx, "Auto-accepted but failed to create matter. Please create manually: "+err.Error(), &lead)
		} else {
			matterURL = matter.WebURL
			zap.L().Info("created matter", zap.Int64("matter_id", matter.ID), zap.String("url", matter.WebURL))
		}
	}

	if p.notifier != nil {
		if err := p.notifier.SendAcceptNotification(ctx, lead, result, matterURL); err != nil {
			zap.L().Error("failed to send accept notification", zap.Error(err))
		}
	}
	return matterURL, nil
}

// handleReview parks the lead for a human decision. status is In Review,
// or Need More Info when the AI decision asked for it.
func (p *Processor) handleReview(ctx context.Context, lead model.Lead, result *model.QualificationResult, status model.LeadStatus) error {
	zap.L().Info("flagging lead for review", zap.String("name", lead.Name), zap.String("status", string(status)))

	update := airtable.QualificationUpdate{
		Status:             status,
		QualificationScore: result.TotalScore,
		QualificationNotes: result.Notes,
		County:             result.County,
		EstimatedCaseValue: result.EstimatedCaseValue,
	}
	if err := p.store.UpdateQualification(ctx, lead.RecordID, update); err != nil {
		return eris.Wrap(err, "processor: update review lead")
	}

	if p.notifier != nil {
		if err := p.notifier.SendReviewNotification(ctx, lead, result); err != nil {
			zap.L().Error("failed to send review notification", zap.Error(err))
		}
	}
	return nil
}

func (p *Processor) handleDecline(ctx context.Context, lead model.Lead, result *model.QualificationResult) error {
	zap.L().Info("auto-declining lead", zap.String("name", lead.Name))

	update := airtable.QualificationUpdate{
		Status:             model.StatusDeclined,
		QualificationScore: result.TotalScore,
		QualificationNotes: result.Notes,
		County:             result.County,
	}
	if err := p.store.UpdateQualification(ctx, lead.RecordID, update); err != nil {
		return eris.Wrap(err, "processor: update declined lead")
	}

	if p.notifier != nil {
		if err := p.notifier.SendReferral(ctx, lead); err != nil {
			zap.L().Error("failed to send referral email", zap.Error(err))
		}
		if err := p.notifier.SendDeclineNotification(ctx, lead, result); err != nil {
			zap.L().Error("failed to send decline notification", zap.Error(err))
		}
	}
	return nil
}

func (p *Processor) handleError(ctx context.Context, lead model.Lead, procErr error) ProcessedLead {
	zap.L().Error("error processing lead", zap.String("name", lead.Name), zap.Error(procErr))

	if err := p.store.MarkForReview(ctx, lead.RecordID, procErr.Error()); err != nil {
		zap.L().Error("failed to mark lead for review", zap.String("record_id", lead.RecordID), zap.Error(err))
	}
	p.notifyError(ctx, procErr.Error(), &lead)

	processed := ProcessedLead{
		RecordID:   lead.RecordID,
		Name:       lead.Name,
		Timestamp:  p.now(),
		Tier:       "error",
		Status:     model.StatusInReview,
		InjuryType: "Unknown",
		Error:      procErr.Error(),
	}
	p.history.Add(processed)
	return processed
}

func (p *Processor) notifyError(ctx context.Context, message string, lead *model.Lead) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.SendErrorNotification(ctx, message, lead); err != nil {
		zap.L().Error("failed to send error notification", zap.Error(err))
	}
}

// RunDaemon polls on the configured interval until ctx is canceled.
func (p *Processor) RunDaemon(ctx context.Context, pollInterval time.Duration) {
	zap.L().Info("starting lead processor daemon", zap.Duration("poll_interval", pollInterval))

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		count, err := p.ProcessAllNewLeads(ctx)
		if err != nil {
			zap.L().Error("poll pass failed", zap.Error(err))
		} else if count > 0 {
			zap.L().Info("poll pass complete", zap.Int("processed", count))
		}

		select {
		case <-ctx.Done():
			zap.L().Info("lead processor daemon stopped")
			return
		case <-ticker.C:
		}
	}
}

func tierForDecision(d model.Decision) model.Tier {
	switch d {
	case model.DecisionAccept:
		return model.TierAutoAccept
	case model.DecisionDecline:
		return model.TierAutoDecline
	default:
		return model.TierReview
	}
}

func statusForTier(tier model.Tier) model.LeadStatus {
	switch tier {
	case model.TierAutoAccept:
		return model.StatusAccepted
	case model.TierAutoDecline:
		return model.StatusDeclined
	default:
		return model.StatusInReview
	}
}

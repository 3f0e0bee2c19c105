package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/harborlaw/lead-qualifier/internal/config"
	"github.com/harborlaw/lead-qualifier/internal/model"
)

// Sender delivers attorney notifications and lead referrals.
type Sender interface {
	SendAcceptNotification(ctx context.Context, lead model.Lead, result *model.QualificationResult, matterURL string) error
	SendReviewNotification(ctx context.Context, lead model.Lead, result *model.QualificationResult) error
	SendDeclineNotification(ctx context.Context, lead model.Lead, result *model.QualificationResult) error
	SendReferral(ctx context.Context, lead model.Lead) error
	SendErrorNotification(ctx context.Context, errorMessage string, lead *model.Lead) error
	CheckConnection(ctx context.Context) error
}

// SMTPSender delivers email over the firm's SMTP server via go-mail.
type SMTPSender struct {
	cfg  config.NotifyConfig
	firm config.FirmConfig
}

// NewSMTPSender creates a sender from notification and firm settings.
func NewSMTPSender(cfg config.NotifyConfig, firm config.FirmConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg, firm: firm}
}

func (s *SMTPSender) newClient() (*gomail.Client, error) {
	client, err := gomail.NewClient(s.cfg.Host,
		gomail.WithPort(s.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.cfg.Username),
		gomail.WithPassword(s.cfg.Password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
	)
	if err != nil {
		return nil, eris.Wrap(err, "notify: create smtp client")
	}
	return client, nil
}

func (s *SMTPSender) send(ctx context.Context, to, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
		return eris.Wrap(err, "notify: set from address")
	}
	if err := msg.To(to); err != nil {
		return eris.Wrap(err, "notify: set to address")
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := s.newClient()
	if err != nil {
		return err
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return eris.Wrap(err, "notify: send email")
	}

	zap.L().Info("email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// CheckConnection dials the SMTP server without sending.
func (s *SMTPSender) CheckConnection(ctx context.Context) error {
	client, err := s.newClient()
	if err != nil {
		return err
	}
	if err := client.DialWithContext(ctx); err != nil {
		return eris.Wrap(err, "notify: dial smtp server")
	}
	return client.Close()
}

// SendAcceptNotification notifies the attorney of an auto-accepted lead.
func (s *SMTPSender) SendAcceptNotification(ctx context.Context, lead model.Lead, result *model.QualificationResult, matterURL string) error {
	subject := fmt.Sprintf("AUTO-ACCEPTED: %s - %s - Score: %d", lead.Name, result.InjuryType, result.TotalScore)

	content, err := renderEmailTemplate("accepted.html", acceptedEmailData{
		leadEmailData: s.leadData(lead, result),
		Strengths:     result.Strengths,
		MatterURL:     matterURL,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, s.cfg.To, subject, content)
}

// SendReviewNotification notifies the attorney that a lead needs manual review.
func (s *SMTPSender) SendReviewNotification(ctx context.Context, lead model.Lead, result *model.QualificationResult) error {
	subject := fmt.Sprintf("REVIEW NEEDED: %s - %s - Score: %d", lead.Name, result.InjuryType, result.TotalScore)

	flags := make([]string, len(result.SafetyFlags))
	for i, f := range result.SafetyFlags {
		flags[i] = f.Description
	}

	content, err := renderEmailTemplate("review.html", reviewEmailData{
		leadEmailData:        s.leadData(lead, result),
		Strengths:            result.Strengths,
		Concerns:             result.Concerns,
		SafetyFlags:          flags,
		MissingInfo:          result.MissingInfo,
		RecommendedQuestions: result.RecommendedQuestions,
		Recommendation:       reviewRecommendation(result.TotalScore),
	})
	if err != nil {
		return err
	}
	return s.send(ctx, s.cfg.To, subject, content)
}

// SendDeclineNotification records an auto-decline with the attorney.
func (s *SMTPSender) SendDeclineNotification(ctx context.Context, lead model.Lead, result *model.QualificationResult) error {
	primaryReason := "Does not meet qualification criteria"
	if len(result.Concerns) > 0 {
		primaryReason = result.Concerns[0]
	}
	subject := fmt.Sprintf("AUTO-DECLINED: %s - Reason: %s", lead.Name, primaryReason)

	reasons := append([]string{}, result.Concerns...)
	for _, f := range result.SafetyFlags {
		reasons = append(reasons, f.Description)
	}

	content, err := renderEmailTemplate("declined.html", declinedEmailData{
		leadEmailData: s.leadData(lead, result),
		Reasons:       reasons,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, s.cfg.To, subject, content)
}

// SendReferral sends a polite referral email to a declined lead.
func (s *SMTPSender) SendReferral(ctx context.Context, lead model.Lead) error {
	if lead.Email == "" {
		zap.L().Warn("cannot send referral email, lead has no email address", zap.String("name", lead.Name))
		return nil
	}

	firstName := "Friend"
	if parts := strings.Fields(lead.Name); len(parts) > 0 {
		firstName = parts[0]
	}

	content, err := renderEmailTemplate("referral.html", referralEmailData{
		baseEmailData: baseEmailData{FirmName: s.firm.Name},
		FirstName:     firstName,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, lead.Email, "Thank You for Contacting "+s.firm.Name, content)
}

// SendErrorNotification alerts the attorney to a processing failure.
// lead may be nil for failures not tied to a single record.
func (s *SMTPSender) SendErrorNotification(ctx context.Context, errorMessage string, lead *model.Lead) error {
	data := errorEmailData{
		baseEmailData: baseEmailData{FirmName: s.firm.Name},
		ErrorMessage:  errorMessage,
	}
	if lead != nil {
		data.LeadName = lead.Name
		data.LeadRecordID = lead.RecordID
		data.LeadPhone = orNA(lead.Phone)
	}

	content, err := renderEmailTemplate("error.html", data)
	if err != nil {
		return err
	}
	return s.send(ctx, s.cfg.To, "SYSTEM ERROR: "+s.firm.Name+" Lead Qualifier", content)
}

func (s *SMTPSender) leadData(lead model.Lead, result *model.QualificationResult) leadEmailData {
	accidentDate := "N/A"
	if lead.AccidentDate != nil {
		accidentDate = lead.AccidentDate.Format("2006-01-02")
	}
	return leadEmailData{
		baseEmailData: baseEmailData{FirmName: s.firm.Name},
		Name:          lead.Name,
		Phone:         orNA(lead.Phone),
		Email:         orNA(lead.Email),
		Score:         result.TotalScore,
		InjuryType:    result.InjuryType,
		Location:      orNA(lead.AccidentLocation),
		AccidentDate:  accidentDate,
		AIAssessment:  result.AIAnalysis,
	}
}

func reviewRecommendation(score int) string {
	switch {
	case score >= 9:
		return "LIKELY ACCEPT - Strong case with minor concerns"
	case score >= 7:
		return "BORDERLINE - Gather more information before deciding"
	default:
		return "LIKELY DECLINE - Multiple concerns identified"
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

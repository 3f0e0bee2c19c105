package processor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborlaw/lead-qualifier/internal/aitier"
	"github.com/harborlaw/lead-qualifier/internal/config"
	"github.com/harborlaw/lead-qualifier/internal/model"
	"github.com/harborlaw/lead-qualifier/internal/notify"
	"github.com/harborlaw/lead-qualifier/internal/qualify"
	"github.com/harborlaw/lead-qualifier/pkg/airtable"
	"github.com/harborlaw/lead-qualifier/pkg/anthropic"
	"github.com/harborlaw/lead-qualifier/pkg/clio"
	"github.com/harborlaw/lead-qualifier/pkg/openai"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type fakeStore struct {
	airtable.Client

	newLeads    []model.Lead
	listErr     error
	updateErr   error
	twoTierErr  error
	scoringErr  error
	markErr     error

	qualUpdates    map[string]airtable.QualificationUpdate
	twoTierUpdates map[string]airtable.TwoTierUpdate
	logEntries     []airtable.ScoringLogEntry
	markedReasons  map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		qualUpdates:    make(map[string]airtable.QualificationUpdate),
		twoTierUpdates: make(map[string]airtable.TwoTierUpdate),
		markedReasons:  make(map[string]string),
	}
}

func (f *fakeStore) ListNewLeads(ctx context.Context) ([]model.Lead, error) {
	return f.newLeads, f.listErr
}

func (f *fakeStore) UpdateQualification(ctx context.Context, recordID string, update airtable.QualificationUpdate) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.qualUpdates[recordID] = update
	return nil
}

func (f *fakeStore) UpdateTwoTierScoring(ctx context.Context, recordID string, update airtable.TwoTierUpdate) error {
	if f.twoTierErr != nil {
		return f.twoTierErr
	}
	f.twoTierUpdates[recordID] = update
	return nil
}

func (f *fakeStore) MarkForReview(ctx context.Context, recordID, reason string) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.markedReasons[recordID] = reason
	return nil
}

func (f *fakeStore) AppendScoringLog(ctx context.Context, entry airtable.ScoringLogEntry) (string, error) {
	if f.scoringErr != nil {
		return "", f.scoringErr
	}
	f.logEntries = append(f.logEntries, entry)
	return "recLOG", nil
}

type fakeNotifier struct {
	notify.Sender

	accepts   []string
	reviews   []string
	declines  []string
	referrals []string
	errors    []string
}

func (f *fakeNotifier) SendAcceptNotification(ctx context.Context, lead model.Lead, result *model.QualificationResult, matterURL string) error {
	f.accepts = append(f.accepts, lead.Name)
	return nil
}

func (f *fakeNotifier) SendReviewNotification(ctx context.Context, lead model.Lead, result *model.QualificationResult) error {
	f.reviews = append(f.reviews, lead.Name)
	return nil
}

func (f *fakeNotifier) SendDeclineNotification(ctx context.Context, lead model.Lead, result *model.QualificationResult) error {
	f.declines = append(f.declines, lead.Name)
	return nil
}

func (f *fakeNotifier) SendReferral(ctx context.Context, lead model.Lead) error {
	f.referrals = append(f.referrals, lead.Name)
	return nil
}

func (f *fakeNotifier) SendErrorNotification(ctx context.Context, errorMessage string, lead *model.Lead) error {
	f.errors = append(f.errors, errorMessage)
	return nil
}

type fakeMatters struct {
	clio.Client

	err      error
	requests []clio.MatterRequest
}

func (f *fakeMatters) CreateMatter(ctx context.Context, req clio.MatterRequest) (*clio.Matter, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.requests = append(f.requests, req)
	return &clio.Matter{ID: 42, DisplayNumber: "00042-Smith", WebURL: "https://app.clio.com/matters/42"}, nil
}

func testRules(t *testing.T) *qualify.Engine {
	t.Helper()
	state, err := qualify.LoadState("SC")
	require.NoError(t, err)
	scoring := config.ScoringConfig{
		MedicalTreatmentPoints: 3,
		ClearLiabilityPoints:   3,
		InsuranceKnownPoints:   2,
		SOLBufferPoints:        1,
		SeriousInjuryPoints:    2,
		TriCountyBonus:         5,
		Tier1Threshold:         11,
		Tier2Threshold:         7,
		SOLYears:               3,
		MinSOLMonths:           18,
		BaseCaseValue:          25000,
		SeriousCaseValue:       75000,
		TriCountyValueMul:      1.2,
	}
	keywords := config.KeywordConfig{
		DisputedLiability:     []string{"disputed", "unclear", "comparative"},
		InsufficientTreatment: []string{"none yet", "no treatment"},
		SeriousInjury:         []string{"fracture", "broken", "surgery", "herniated"},
		ClearLiability:        []string{"rear-end", "rear end", "dui", "citation issued"},
	}
	return qualify.NewEngine(scoring, keywords, state, qualify.WithClock(func() time.Time { return testNow }))
}

func daysAgo(n int) *time.Time {
	d := testNow.AddDate(0, 0, -n)
	return &d
}

// strongLead scores past the auto-accept threshold under testRules.
func strongLead() model.Lead {
	return model.Lead{
		RecordID:         "recSTRONG",
		Name:             "Jane Smith",
		Phone:            "+18435550123",
		Email:            "jane@example.com",
		Status:           model.StatusNewLead,
		AccidentDate:     daysAgo(90),
		AccidentLocation: "Charleston, SC",
		InjuryDesc:       "Fractured wrist, surgery scheduled",
		MedicalTreatment: "ER visit, orthopedic followup",
		InsuranceCarrier: "State Farm",
		LiabilityNotes:   "Rear-end collision, citation issued",
	}
}

func outOfStateLead() model.Lead {
	return model.Lead{
		RecordID:         "recOOS",
		Name:             "Out Of State",
		Status:           model.StatusNewLead,
		AccidentDate:     daysAgo(30),
		AccidentLocation: "Atlanta, GA",
		InjuryDesc:       "Whiplash",
	}
}

func TestProcessLeadAutoAccept(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	matters := &fakeMatters{}
	p := NewProcessor(store, testRules(t), nil, matters, notifier, NewHistory(10))

	processed := p.ProcessLead(context.Background(), strongLead())

	assert.Equal(t, model.TierAutoAccept, processed.Tier)
	assert.Equal(t, model.StatusAccepted, processed.Status)
	assert.Equal(t, "https://app.clio.com/matters/42", processed.MatterURL)

	update, ok := store.qualUpdates["recSTRONG"]
	require.True(t, ok)
	assert.Equal(t, model.StatusAccepted, update.Status)
	assert.True(t, update.AutoQualified)
	assert.Equal(t, "charleston", update.County)
	require.NotNil(t, update.EstimatedCaseValue)

	require.Len(t, matters.requests, 1)
	assert.Equal(t, "Jane Smith", matters.requests[0].ClientName)
	assert.Equal(t, []string{"Jane Smith"}, notifier.accepts)
	assert.Len(t, p.History().Recent(0), 1)
}

func TestProcessLeadAutoDecline(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	p := NewProcessor(store, testRules(t), nil, nil, notifier, NewHistory(10))

	processed := p.ProcessLead(context.Background(), outOfStateLead())

	assert.Equal(t, model.TierAutoDecline, processed.Tier)
	assert.Equal(t, model.StatusDeclined, processed.Status)
	assert.Empty(t, processed.MatterURL)

	update := store.qualUpdates["recOOS"]
	assert.Equal(t, model.StatusDeclined, update.Status)
	assert.False(t, update.AutoQualified)
	assert.Nil(t, update.EstimatedCaseValue)

	// Declined leads get the referral email before the internal notification.
	assert.Equal(t, []string{"Out Of State"}, notifier.referrals)
	assert.Equal(t, []string{"Out Of State"}, notifier.declines)
	assert.Empty(t, notifier.accepts)
}

func TestProcessLeadReview(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	lead := model.Lead{
		RecordID:         "recMID",
		Name:             "Borderline Case",
		Status:           model.StatusNewLead,
		AccidentDate:     daysAgo(480),
		AccidentLocation: "Columbia, SC",
		InjuryDesc:       "Neck pain",
		MedicalTreatment: "ER visit followed by physical therapy",
		InsuranceCarrier: "GEICO",
		LiabilityNotes:   "Rear-end collision",
	}
	p := NewProcessor(store, testRules(t), nil, nil, notifier, NewHistory(10))

	processed := p.ProcessLead(context.Background(), lead)

	assert.Equal(t, model.TierReview, processed.Tier)
	assert.Equal(t, model.StatusInReview, processed.Status)
	assert.Equal(t, model.StatusInReview, store.qualUpdates["recMID"].Status)
	assert.Equal(t, []string{"Borderline Case"}, notifier.reviews)
}

func TestProcessLeadStoreFailureMarksForReview(t *testing.T) {
	store := newFakeStore()
	store.updateErr = assert.AnError
	notifier := &fakeNotifier{}
	p := NewProcessor(store, testRules(t), nil, nil, notifier, NewHistory(10))

	processed := p.ProcessLead(context.Background(), strongLead())

	assert.NotEmpty(t, processed.Error)
	assert.Equal(t, model.StatusInReview, processed.Status)
	assert.Contains(t, store.markedReasons, "recSTRONG")
	require.Len(t, notifier.errors, 1)

	stats := p.History().Stats()
	assert.Equal(t, 1, stats.Errors)
	assert.Zero(t, stats.AutoAccepted)
}

func TestProcessLeadMatterFailureKeepsAcceptance(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	matters := &fakeMatters{err: assert.AnError}
	p := NewProcessor(store, testRules(t), nil, matters, notifier, NewHistory(10))

	processed := p.ProcessLead(context.Background(), strongLead())

	assert.Equal(t, model.TierAutoAccept, processed.Tier)
	assert.Empty(t, processed.Error)
	assert.Empty(t, processed.MatterURL)
	require.Len(t, notifier.errors, 1)
	assert.Contains(t, notifier.errors[0], "create manually")
	assert.Equal(t, []string{"Jane Smith"}, notifier.accepts)
}

type fakeOpenAI struct {
	response string
}

func (f *fakeOpenAI) ChatCompletion(ctx context.Context, req openai.CompletionRequest) (string, error) {
	return f.response, nil
}

type fakeAnthropic struct {
	calls int
}

func (f *fakeAnthropic) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	f.calls++
	return &anthropic.MessageResponse{Content: []anthropic.ContentBlock{{Type: "text", Text: "{}"}}}, nil
}

func testAIEngine(gptResponse string, claude *fakeAnthropic) *aitier.Engine {
	scorer := aitier.NewScorer(&fakeOpenAI{response: gptResponse}, config.OpenAIConfig{Model: "gpt-4o"}, config.AIConfig{
		FastTrackThreshold:    75,
		ClaudeReviewThreshold: 50,
		NeedInfoThreshold:     25,
	})
	analyzer := aitier.NewAnalyzer(claude, config.AnthropicConfig{Model: "claude-sonnet-4-5-20250929", MaxTokens: 2000}, nil)
	return aitier.NewEngine(scorer, analyzer)
}

func TestProcessLeadTwoTierOverridesRuleTier(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	// Rules would auto-accept this lead; the AI scores it low and declines.
	ai := testAIEngine(`{"score": 15, "analysis": "Minimal damages.", "confidence": 90}`, &fakeAnthropic{})
	p := NewProcessor(store, testRules(t), ai, nil, notifier, NewHistory(10))

	processed := p.ProcessLead(context.Background(), strongLead())

	assert.Equal(t, model.TierAutoDecline, processed.Tier)
	assert.Equal(t, model.StatusDeclined, store.qualUpdates["recSTRONG"].Status)

	twoTier, ok := store.twoTierUpdates["recSTRONG"]
	require.True(t, ok)
	assert.Equal(t, 15, twoTier.ChatGPTScore)
	assert.Equal(t, model.DecisionDecline, twoTier.FinalAIDecision)
	require.Len(t, store.logEntries, 1)
	assert.Equal(t, "recSTRONG", store.logEntries[0].LeadRecordID)
}

func TestProcessLeadTwoTierNeedMoreInfoKeepsStatus(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	ai := testAIEngine(`{"score": 30, "analysis": "Sparse intake.", "confidence": 60, "missing_information": ["treatment records"]}`, &fakeAnthropic{})
	p := NewProcessor(store, testRules(t), ai, nil, notifier, NewHistory(10))

	processed := p.ProcessLead(context.Background(), strongLead())

	assert.Equal(t, model.TierReview, processed.Tier)
	assert.Equal(t, model.StatusNeedMoreInfo, processed.Status)
	// The review handler must not downgrade the decision's status.
	assert.Equal(t, model.StatusNeedMoreInfo, store.qualUpdates["recSTRONG"].Status)
	assert.Equal(t, model.StatusNeedMoreInfo, store.twoTierUpdates["recSTRONG"].Status)
	assert.Equal(t, []string{"Jane Smith"}, notifier.reviews)
}

func TestProcessLeadTwoTierWriteFailureDoesNotFailLead(t *testing.T) {
	store := newFakeStore()
	store.twoTierErr = assert.AnError
	store.scoringErr = assert.AnError
	ai := testAIEngine(`{"score": 85, "analysis": "Strong case.", "confidence": 90}`, &fakeAnthropic{})
	p := NewProcessor(store, testRules(t), ai, nil, &fakeNotifier{}, NewHistory(10))

	processed := p.ProcessLead(context.Background(), strongLead())

	assert.Equal(t, model.TierAutoAccept, processed.Tier)
	assert.Empty(t, processed.Error)
	assert.Equal(t, model.StatusAccepted, store.qualUpdates["recSTRONG"].Status)
}

func TestProcessAllNewLeads(t *testing.T) {
	store := newFakeStore()
	store.newLeads = []model.Lead{strongLead()}
	notifier := &fakeNotifier{}
	p := NewProcessor(store, testRules(t), nil, nil, notifier, NewHistory(10))

	count, err := p.ProcessAllNewLeads(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Len(t, store.qualUpdates, 1)
}

func TestProcessAllNewLeadsListFailure(t *testing.T) {
	store := newFakeStore()
	store.listErr = assert.AnError
	notifier := &fakeNotifier{}
	p := NewProcessor(store, testRules(t), nil, nil, notifier, NewHistory(10))

	count, err := p.ProcessAllNewLeads(context.Background())

	require.Error(t, err)
	assert.Zero(t, count)
	require.Len(t, notifier.errors, 1)
	assert.Contains(t, notifier.errors[0], "Failed to fetch leads")
}

func TestProcessAllNewLeadsStopsOnCancel(t *testing.T) {
	store := newFakeStore()
	store.newLeads = []model.Lead{strongLead(), outOfStateLead()}
	p := NewProcessor(store, testRules(t), nil, nil, nil, NewHistory(10))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	count, err := p.ProcessAllNewLeads(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "Leads", cfg.Airtable.LeadsTable)
	assert.Equal(t, "Scoring_Log", cfg.Airtable.ScoringTable)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.InDelta(t, 0.3, cfg.OpenAI.Temperature, 0.001)
	assert.Equal(t, 1000, cfg.OpenAI.MaxTokens)
	assert.Equal(t, "claude-sonnet-4-5-20250929", cfg.Anthropic.Model)
	assert.Equal(t, 2000, cfg.Anthropic.MaxTokens)
	assert.False(t, cfg.Clio.Enabled)
	assert.Equal(t, "Personal Injury", cfg.Clio.PracticeArea)
	assert.Equal(t, 3, cfg.Scoring.MedicalTreatmentPoints)
	assert.Equal(t, 11, cfg.Scoring.Tier1Threshold)
	assert.Equal(t, 7, cfg.Scoring.Tier2Threshold)
	assert.Equal(t, 3, cfg.Scoring.SOLYears)
	assert.Equal(t, 18, cfg.Scoring.MinSOLMonths)
	assert.InDelta(t, 25000.0, cfg.Scoring.BaseCaseValue, 0.001)
	assert.InDelta(t, 1.2, cfg.Scoring.TriCountyValueMul, 0.001)
	assert.Contains(t, cfg.Keywords.SeriousInjury, "fracture")
	assert.Contains(t, cfg.Keywords.ClearLiability, "rear-end")
	assert.Equal(t, 75, cfg.AI.FastTrackThreshold)
	assert.Equal(t, 50, cfg.AI.ClaudeReviewThreshold)
	assert.Equal(t, 25, cfg.AI.NeedInfoThreshold)
	assert.Equal(t, 300, cfg.Processor.PollIntervalSecs)
	assert.Equal(t, 100, cfg.Processor.HistorySize)
	assert.Equal(t, 587, cfg.Notify.Port)
	assert.Equal(t, 8080, cfg.Dashboard.Port)
	assert.Equal(t, "Harbor Law", cfg.Firm.Name)
	assert.Equal(t, "SC", cfg.Firm.State)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
airtable:
  key: key-test
  base_id: appTEST
log:
  level: debug
  format: console
scoring:
  tier1_threshold: 12
dashboard:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "key-test", cfg.Airtable.Key)
	assert.Equal(t, "appTEST", cfg.Airtable.BaseID)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 12, cfg.Scoring.Tier1Threshold)
	assert.Equal(t, 9090, cfg.Dashboard.Port)
	// Defaults still apply for unset values
	assert.Equal(t, 7, cfg.Scoring.Tier2Threshold)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("LEADQ_LOG_LEVEL", "warn")
	t.Setenv("LEADQ_AIRTABLE_KEY", "key-from-env")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "key-from-env", cfg.Airtable.Key)
}

func TestValidateAllPresent(t *testing.T) {
	cfg := &Config{}
	cfg.Airtable.Key = "key-test"
	cfg.Airtable.BaseID = "appTEST"

	assert.NoError(t, Validate(cfg))
}

func TestValidateMissingAirtable(t *testing.T) {
	err := Validate(&Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "airtable.key")
	assert.Contains(t, err.Error(), "airtable.base_id")
}

func TestValidateClioRequiresToken(t *testing.T) {
	cfg := &Config{}
	cfg.Airtable.Key = "key-test"
	cfg.Airtable.BaseID = "appTEST"
	cfg.Clio.Enabled = true

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clio.token")

	cfg.Clio.Token = "token"
	assert.NoError(t, Validate(cfg))
}

func TestValidateNotifyRequiresHostAndTo(t *testing.T) {
	cfg := &Config{}
	cfg.Airtable.Key = "key-test"
	cfg.Airtable.BaseID = "appTEST"
	cfg.Notify.Enabled = true

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notify.host")
	assert.Contains(t, err.Error(), "notify.to")

	cfg.Notify.Host = "smtp.example.com"
	cfg.Notify.To = "intake@example.com"
	assert.NoError(t, Validate(cfg))
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

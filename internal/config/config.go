package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Airtable  AirtableConfig  `yaml:"airtable" mapstructure:"airtable"`
	OpenAI    OpenAIConfig    `yaml:"openai" mapstructure:"openai"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Clio      ClioConfig      `yaml:"clio" mapstructure:"clio"`
	Drive     DriveConfig     `yaml:"drive" mapstructure:"drive"`
	Scoring   ScoringConfig   `yaml:"scoring" mapstructure:"scoring"`
	Keywords  KeywordConfig   `yaml:"keywords" mapstructure:"keywords"`
	AI        AIConfig        `yaml:"ai" mapstructure:"ai"`
	Processor ProcessorConfig `yaml:"processor" mapstructure:"processor"`
	Notify    NotifyConfig    `yaml:"notify" mapstructure:"notify"`
	Dashboard DashboardConfig `yaml:"dashboard" mapstructure:"dashboard"`
	Firm      FirmConfig      `yaml:"firm" mapstructure:"firm"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// AirtableConfig holds Airtable API credentials and table names.
type AirtableConfig struct {
	Key          string `yaml:"key" mapstructure:"key"`
	BaseID       string `yaml:"base_id" mapstructure:"base_id"`
	LeadsTable   string `yaml:"leads_table" mapstructure:"leads_table"`
	ScoringTable string `yaml:"scoring_table" mapstructure:"scoring_table"`
	BaseURL      string `yaml:"base_url" mapstructure:"base_url"`
}

// OpenAIConfig holds OpenAI API settings for the first-pass scorer.
type OpenAIConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	Model       string  `yaml:"model" mapstructure:"model"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// AnthropicConfig holds Anthropic API settings for deep review.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ClioConfig holds Clio practice-management API settings.
type ClioConfig struct {
	Enabled      bool   `yaml:"enabled" mapstructure:"enabled"`
	Token        string `yaml:"token" mapstructure:"token"`
	BaseURL      string `yaml:"base_url" mapstructure:"base_url"`
	AttorneyName string `yaml:"attorney_name" mapstructure:"attorney_name"`
	PracticeArea string `yaml:"practice_area" mapstructure:"practice_area"`
}

// DriveConfig holds Google Drive precedent-search settings.
type DriveConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Key      string `yaml:"key" mapstructure:"key"`
	FolderID string `yaml:"folder_id" mapstructure:"folder_id"`
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
}

// ScoringConfig holds the deterministic rule-engine point values and
// thresholds. Values mirror the firm's intake worksheet.
type ScoringConfig struct {
	MedicalTreatmentPoints int `yaml:"medical_treatment_points" mapstructure:"medical_treatment_points"`
	ClearLiabilityPoints   int `yaml:"clear_liability_points" mapstructure:"clear_liability_points"`
	InsuranceKnownPoints   int `yaml:"insurance_known_points" mapstructure:"insurance_known_points"`
	SOLBufferPoints        int `yaml:"sol_buffer_points" mapstructure:"sol_buffer_points"`
	SeriousInjuryPoints    int `yaml:"serious_injury_points" mapstructure:"serious_injury_points"`
	TriCountyBonus         int `yaml:"tri_county_bonus" mapstructure:"tri_county_bonus"`

	Tier1Threshold int `yaml:"tier1_threshold" mapstructure:"tier1_threshold"`
	Tier2Threshold int `yaml:"tier2_threshold" mapstructure:"tier2_threshold"`

	SOLYears     int `yaml:"sol_years" mapstructure:"sol_years"`
	MinSOLMonths int `yaml:"min_sol_months" mapstructure:"min_sol_months"`

	BaseCaseValue     float64 `yaml:"base_case_value" mapstructure:"base_case_value"`
	SeriousCaseValue  float64 `yaml:"serious_case_value" mapstructure:"serious_case_value"`
	TriCountyValueMul float64 `yaml:"tri_county_value_mul" mapstructure:"tri_county_value_mul"`
}

// KeywordConfig holds the keyword lists the rule engine matches against
// free-text intake fields. All matching is case-insensitive substring.
type KeywordConfig struct {
	DisputedLiability     []string `yaml:"disputed_liability" mapstructure:"disputed_liability"`
	InsufficientTreatment []string `yaml:"insufficient_treatment" mapstructure:"insufficient_treatment"`
	SeriousInjury         []string `yaml:"serious_injury" mapstructure:"serious_injury"`
	ClearLiability        []string `yaml:"clear_liability" mapstructure:"clear_liability"`
}

// AIConfig holds two-tier AI escalation thresholds.
type AIConfig struct {
	FastTrackThreshold    int `yaml:"fast_track_threshold" mapstructure:"fast_track_threshold"`
	ClaudeReviewThreshold int `yaml:"claude_review_threshold" mapstructure:"claude_review_threshold"`
	NeedInfoThreshold     int `yaml:"need_info_threshold" mapstructure:"need_info_threshold"`
}

// ProcessorConfig configures the polling lead processor.
type ProcessorConfig struct {
	PollIntervalSecs int `yaml:"poll_interval_secs" mapstructure:"poll_interval_secs"`
	MaxRetries       int `yaml:"max_retries" mapstructure:"max_retries"`
	RetryDelaySecs   int `yaml:"retry_delay_secs" mapstructure:"retry_delay_secs"`
	HistorySize      int `yaml:"history_size" mapstructure:"history_size"`
}

// NotifyConfig holds SMTP notification settings.
type NotifyConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
	From     string `yaml:"from" mapstructure:"from"`
	FromName string `yaml:"from_name" mapstructure:"from_name"`
	To       string `yaml:"to" mapstructure:"to"`
}

// DashboardConfig configures the status HTTP server.
type DashboardConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// FirmConfig holds firm identity used in matters and emails.
type FirmConfig struct {
	Name  string `yaml:"name" mapstructure:"name"`
	State string `yaml:"state" mapstructure:"state"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("airtable.leads_table", "Leads")
	v.SetDefault("airtable.scoring_table", "Scoring_Log")
	v.SetDefault("airtable.base_url", "https://api.airtable.com/v0")
	v.SetDefault("openai.model", "gpt-4o")
	v.SetDefault("openai.temperature", 0.3)
	v.SetDefault("openai.max_tokens", 1000)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 2000)
	v.SetDefault("clio.enabled", false)
	v.SetDefault("clio.base_url", "https://app.clio.com/api/v4")
	v.SetDefault("clio.practice_area", "Personal Injury")
	v.SetDefault("drive.enabled", false)
	v.SetDefault("drive.base_url", "https://www.googleapis.com/drive/v3")
	v.SetDefault("scoring.medical_treatment_points", 3)
	v.SetDefault("scoring.clear_liability_points", 3)
	v.SetDefault("scoring.insurance_known_points", 2)
	v.SetDefault("scoring.sol_buffer_points", 1)
	v.SetDefault("scoring.serious_injury_points", 2)
	v.SetDefault("scoring.tri_county_bonus", 5)
	v.SetDefault("scoring.tier1_threshold", 11)
	v.SetDefault("scoring.tier2_threshold", 7)
	v.SetDefault("scoring.sol_years", 3)
	v.SetDefault("scoring.min_sol_months", 18)
	v.SetDefault("scoring.base_case_value", 25000.0)
	v.SetDefault("scoring.serious_case_value", 75000.0)
	v.SetDefault("scoring.tri_county_value_mul", 1.2)
	v.SetDefault("keywords.disputed_liability", []string{
		"disputed", "my client may be at fault", "unclear", "comparative",
		"contributory", "both parties", "shared fault", "partial fault",
	})
	v.SetDefault("keywords.insufficient_treatment", []string{
		"none yet", "no treatment", "hasn't seen doctor", "refused treatment",
		"self-treating", "home remedies only",
	})
	v.SetDefault("keywords.serious_injury", []string{
		"fracture", "broken", "surgery", "surgical", "operation", "permanent",
		"disability", "amputation", "traumatic brain", "tbi", "spinal cord",
		"paralysis", "herniated", "torn", "rupture", "internal bleeding",
	})
	v.SetDefault("keywords.clear_liability", []string{
		"rear-end", "rear end", "rearend", "ran red light", "ran stop sign",
		"ran the light", "ran the sign", "speeding", "dui", "dwi", "drunk",
		"intoxicated", "bac", "failed sobriety", "citation issued",
		"ticket issued", "at fault", "100% fault", "admitted fault",
	})
	v.SetDefault("ai.fast_track_threshold", 75)
	v.SetDefault("ai.claude_review_threshold", 50)
	v.SetDefault("ai.need_info_threshold", 25)
	v.SetDefault("processor.poll_interval_secs", 300)
	v.SetDefault("processor.max_retries", 3)
	v.SetDefault("processor.retry_delay_secs", 30)
	v.SetDefault("processor.history_size", 100)
	v.SetDefault("notify.enabled", false)
	v.SetDefault("notify.port", 587)
	v.SetDefault("notify.from_name", "Lead Intake")
	v.SetDefault("dashboard.port", 8080)
	v.SetDefault("firm.name", "Harbor Law")
	v.SetDefault("firm.state", "SC")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that credentials required for the enabled features are set.
func Validate(cfg *Config) error {
	var missing []string
	if cfg.Airtable.Key == "" {
		missing = append(missing, "airtable.key")
	}
	if cfg.Airtable.BaseID == "" {
		missing = append(missing, "airtable.base_id")
	}
	if cfg.Clio.Enabled && cfg.Clio.Token == "" {
		missing = append(missing, "clio.token")
	}
	if cfg.Notify.Enabled {
		if cfg.Notify.Host == "" {
			missing = append(missing, "notify.host")
		}
		if cfg.Notify.To == "" {
			missing = append(missing, "notify.to")
		}
	}
	if len(missing) > 0 {
		return eris.New("config: missing required settings: " + strings.Join(missing, ", "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

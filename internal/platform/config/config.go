package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr               string        `env:"APP_ADDR" envDefault:":8080"`
	Environment        string        `env:"APP_ENV" envDefault:"development"`
	LogLevel           string        `env:"LOG_LEVEL" envDefault:"info"`
	FrontendDir        string        `env:"FRONTEND_DIR" envDefault:"web/dist"`
	ContentFile        string        `env:"CONTENT_FILE"`
	MaxBodyBytes       int64         `env:"MAX_BODY_BYTES" envDefault:"12582912"`
	RateLimitPerMinute int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"30"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	MetricsEnabled     bool          `env:"METRICS_ENABLED" envDefault:"true"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	DatabaseURL   string `env:"DATABASE_URL"`
	SQLitePath    string `env:"SQLITE_PATH"`
	RunMigrations bool   `env:"RUN_MIGRATIONS" envDefault:"true"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	LLMProvider     string        `env:"LLM_PROVIDER"`
	LLMTimeout      time.Duration `env:"LLM_TIMEOUT" envDefault:"60s"`
	OpenAIAPIKey    string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL   string        `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	OpenAIModel     string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	AnthropicAPIKey string        `env:"ANTHROPIC_API_KEY"`
	AnthropicModel  string        `env:"ANTHROPIC_MODEL" envDefault:"claude-sonnet-4-5-20250929"`
	GeminiAPIKey    string        `env:"GEMINI_API_KEY"`
	GeminiModel     string        `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`

	ChartAPIURL  string        `env:"CHART_API_URL" envDefault:"https://quickchart.io/chart"`
	ChartTimeout time.Duration `env:"CHART_TIMEOUT" envDefault:"15s"`

	EmailFrom     string `env:"EMAIL_FROM" envDefault:"reports@example.com"`
	EmailFromName string `env:"EMAIL_FROM_NAME" envDefault:"AI Readiness Team"`
	ResendAPIKey  string `env:"RESEND_API_KEY"`
	ResendBaseURL string `env:"RESEND_BASE_URL" envDefault:"https://api.resend.com"`
	SMTPHost      string `env:"SMTP_HOST"`
	SMTPPort      int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser      string `env:"SMTP_USER"`
	SMTPPassword  string `env:"SMTP_PASSWORD"`
	SMTPUseTLS    bool   `env:"SMTP_USE_TLS" envDefault:"true"`

	CRMBaseURL             string  `env:"CRM_BASE_URL" envDefault:"https://api.hsforms.com"`
	HubSpotPortalID        string  `env:"HUBSPOT_PORTAL_ID"`
	HubSpotAssessmentForm  string  `env:"HUBSPOT_ASSESSMENT_FORM_ID"`
	HubSpotLeadForm        string  `env:"HUBSPOT_LEAD_FORM_ID"`
	HubSpotAccessToken     string  `env:"HUBSPOT_ACCESS_TOKEN"`
	SalesforceClientID     string  `env:"SALESFORCE_CLIENT_ID"`
	SalesforceUsername     string  `env:"SALESFORCE_USERNAME"`
	SalesforceKeyPath      string  `env:"SALESFORCE_KEY_PATH"`
	SalesforceDomain       string  `env:"SALESFORCE_DOMAIN" envDefault:"https://login.salesforce.com"`
	SalesforceRateLimitRPS float64 `env:"SALESFORCE_RATE_LIMIT_RPS" envDefault:"5"`
	NotionToken            string  `env:"NOTION_TOKEN"`
	NotionLeadDB           string  `env:"NOTION_LEAD_DB"`

	ReportLogoPath string `env:"REPORT_LOGO_PATH"`
	ReportFontDir  string `env:"REPORT_FONT_DIR"`

	DataEncryptionKey  string        `env:"DATA_ENCRYPTION_KEY"`
	BookingTokenSecret string        `env:"BOOKING_TOKEN_SECRET"`
	BookingTokenTTL    time.Duration `env:"BOOKING_TOKEN_TTL" envDefault:"720h"`

	JobQueueSize int `env:"JOB_QUEUE_SIZE" envDefault:"128"`
	JobWorkers   int `env:"JOB_WORKERS" envDefault:"2"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("dotenv load failed", "err", err)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func (c Config) Validate() error {
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must not be negative")
	}
	if c.JobQueueSize <= 0 {
		return fmt.Errorf("JOB_QUEUE_SIZE must be positive")
	}
	if c.JobWorkers <= 0 {
		return fmt.Errorf("JOB_WORKERS must be positive")
	}
	if c.DatabaseURL != "" && c.SQLitePath != "" {
		return fmt.Errorf("DATABASE_URL and SQLITE_PATH are mutually exclusive")
	}
	switch strings.ToLower(strings.TrimSpace(c.LLMProvider)) {
	case "", "openai", "anthropic", "gemini", "none":
	default:
		return fmt.Errorf("LLM_PROVIDER must be one of openai, anthropic, gemini, none")
	}
	if c.SalesforceClientID != "" && (c.SalesforceUsername == "" || c.SalesforceKeyPath == "") {
		return fmt.Errorf("SALESFORCE_USERNAME and SALESFORCE_KEY_PATH must be set with SALESFORCE_CLIENT_ID")
	}
	if c.NotionToken != "" && c.NotionLeadDB == "" {
		return fmt.Errorf("NOTION_LEAD_DB must be set with NOTION_TOKEN")
	}
	if c.IsProduction() {
		if strings.TrimSpace(c.BookingTokenSecret) == "" && c.DataEncryptionKey == "" {
			return fmt.Errorf("BOOKING_TOKEN_SECRET or DATA_ENCRYPTION_KEY must be set in production")
		}
		if len(c.CORSAllowedOrigins) == 1 && c.CORSAllowedOrigins[0] == "*" {
			return fmt.Errorf("CORS_ALLOWED_ORIGINS must list explicit origins in production")
		}
	}
	return nil
}

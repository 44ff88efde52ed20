package config

import (
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds all configuration for the webhook bridge service.
//
// Credentials for individual downstream systems are deliberately optional:
// a missing credential disables (skips) the side-effect branches that need
// it instead of failing the whole service at startup.
type Config struct {
	// HTTP Server - using BRIDGE_ prefix to avoid collisions
	HTTPPort  string `env:"BRIDGE_HTTP_PORT" envDefault:"8094"`
	LogLevel  string `env:"BRIDGE_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"BRIDGE_LOG_FORMAT" envDefault:"json"` // json or console

	// Contact directory / conversation service (Intercom)
	IntercomAccessToken string `env:"INTERCOM_ACCESS_TOKEN"`
	IntercomBaseURL     string `env:"INTERCOM_BASE_URL" envDefault:"https://api.intercom.io"`
	IntercomVersion     string `env:"INTERCOM_API_VERSION" envDefault:"2.14"`

	// Marketing automation (ConvertKit)
	ConvertKitAPISecret string `env:"CONVERTKIT_API_SECRET"`
	ConvertKitBaseURL   string `env:"CONVERTKIT_BASE_URL" envDefault:"https://api.convertkit.com/v3"`

	// Course access (ThriveCart)
	ThriveCartAPIKey   string `env:"THRIVECART_API_KEY"`
	ThriveCartBaseURL  string `env:"THRIVECART_BASE_URL" envDefault:"https://thrivecart.com/api"`
	ThriveCartCourseID string `env:"THRIVECART_COURSE_ID" envDefault:"187845"`

	// CRM (HubSpot)
	HubSpotAccessToken string `env:"HUBSPOT_ACCESS_TOKEN"`
	HubSpotBaseURL     string `env:"HUBSPOT_BASE_URL" envDefault:"https://api.hubapi.com"`

	// Alerting sink (Slack incoming webhook)
	SlackAlertWebhook string `env:"SLACK_ALERT_WEBHOOK"`

	// Tag routing rules
	TagRulesPath string `env:"BRIDGE_TAG_RULES_PATH" envDefault:"configs/tag-rules.yml"`

	// Conversation analysis - bound on recent-conversation scans per contact
	ConversationScanLimit int `env:"BRIDGE_CONVERSATION_SCAN_LIMIT" envDefault:"5"`

	// HTTP Client Performance
	HTTPTimeout     int `env:"BRIDGE_HTTP_TIMEOUT" envDefault:"15"`
	MaxConnsPerHost int `env:"BRIDGE_MAX_CONNS_PER_HOST" envDefault:"50"`
	MaxIdleConns    int `env:"BRIDGE_MAX_IDLE_CONNS" envDefault:"100"`
	IdleConnTimeout int `env:"BRIDGE_IDLE_CONN_TIMEOUT" envDefault:"90"`

	// Retry Configuration (contact directory / conversation service calls)
	RetryMaxAttempts   int     `env:"BRIDGE_RETRY_MAX_ATTEMPTS" envDefault:"3"`
	RetryInitialDelay  int     `env:"BRIDGE_RETRY_INITIAL_DELAY" envDefault:"250"`
	RetryMaxDelay      int     `env:"BRIDGE_RETRY_MAX_DELAY" envDefault:"5000"`
	RetryBackoffFactor float64 `env:"BRIDGE_RETRY_BACKOFF_FACTOR" envDefault:"1.5"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(os.Getenv("BRIDGE_LOG_LEVEL")) == "" {
		if global := strings.TrimSpace(os.Getenv("LOG_LEVEL")); global != "" {
			cfg.LogLevel = global
		}
	}
	if strings.TrimSpace(os.Getenv("BRIDGE_LOG_FORMAT")) == "" {
		if global := strings.TrimSpace(os.Getenv("LOG_FORMAT")); global != "" {
			cfg.LogFormat = global
		}
	}
	if cfg.ConversationScanLimit <= 0 {
		cfg.ConversationScanLimit = 5
	}
	return cfg, nil
}

// HasIntercom reports whether the contact directory credential is present.
func (c *Config) HasIntercom() bool {
	return strings.TrimSpace(c.IntercomAccessToken) != ""
}

// HasConvertKit reports whether the marketing automation credential is present.
func (c *Config) HasConvertKit() bool {
	return strings.TrimSpace(c.ConvertKitAPISecret) != ""
}

// HasThriveCart reports whether the course access credential is present.
func (c *Config) HasThriveCart() bool {
	return strings.TrimSpace(c.ThriveCartAPIKey) != ""
}

// HasHubSpot reports whether the CRM credential is present.
func (c *Config) HasHubSpot() bool {
	return strings.TrimSpace(c.HubSpotAccessToken) != ""
}

// HasSlack reports whether the alerting webhook is configured.
func (c *Config) HasSlack() bool {
	return strings.TrimSpace(c.SlackAlertWebhook) != ""
}

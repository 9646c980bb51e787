package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL string

	// Server ports
	APIPort  int
	SMTPPort int

	// Mail
	DefaultEmailDomain string
	InboundMailHost    string
	DKIMHost           string
	MailArchiveDir     string

	// Outbound provider
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	SESConfigurationSet string

	// Quotas
	DailyMessageLimit int

	// Webhooks
	WebhookTimeout time.Duration

	// Logging
	LogLevel string

	// Security
	AllowedOrigins string
	AppEnv         string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}

	// Required: DATABASE_URL
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required but not set")
	}

	var err error
	if cfg.APIPort, err = intEnv("API_PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.SMTPPort, err = intEnv("SMTP_PORT", 2525); err != nil {
		return nil, err
	}

	// Required: DEFAULT_EMAIL_DOMAIN, the domain generated addresses live on
	cfg.DefaultEmailDomain = strings.ToLower(os.Getenv("DEFAULT_EMAIL_DOMAIN"))
	if cfg.DefaultEmailDomain == "" {
		return nil, fmt.Errorf("DEFAULT_EMAIL_DOMAIN is required but not set")
	}

	cfg.InboundMailHost = os.Getenv("INBOUND_MAIL_HOST")
	if cfg.InboundMailHost == "" {
		cfg.InboundMailHost = "inbound." + cfg.DefaultEmailDomain
	}
	cfg.DKIMHost = os.Getenv("DKIM_HOST")
	if cfg.DKIMHost == "" {
		cfg.DKIMHost = "dkim." + cfg.DefaultEmailDomain
	}

	// Optional: raw-mail archive for locally received messages
	cfg.MailArchiveDir = os.Getenv("MAIL_ARCHIVE_DIR")

	cfg.AWSRegion = os.Getenv("AWS_REGION")
	if cfg.AWSRegion == "" {
		cfg.AWSRegion = "us-east-1"
	}
	cfg.AWSAccessKeyID = os.Getenv("AWS_ACCESS_KEY_ID")
	cfg.AWSSecretAccessKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	cfg.SESConfigurationSet = os.Getenv("SES_CONFIGURATION_SET")

	if cfg.DailyMessageLimit, err = intEnv("DAILY_MESSAGE_LIMIT", 1000); err != nil {
		return nil, err
	}

	timeoutSeconds, err := intEnv("WEBHOOK_TIMEOUT_SECONDS", 10)
	if err != nil {
		return nil, err
	}
	cfg.WebhookTimeout = time.Duration(timeoutSeconds) * time.Second

	// LOG_LEVEL (default: info)
	cfg.LogLevel = os.Getenv("LOG_LEVEL")
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.AllowedOrigins = os.Getenv("ALLOWED_ORIGINS")
	cfg.AppEnv = os.Getenv("APP_ENV")
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}

	return cfg, nil
}

func intEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return value, nil
}

// LoadWithValidation loads and validates configuration, failing fast on errors
func LoadWithValidation() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.AppEnv == "production" {
		if err := cfg.ValidateProduction(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DatabaseURL cannot be empty")
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("APIPort must be between 1 and 65535")
	}
	if c.SMTPPort <= 0 || c.SMTPPort > 65535 {
		return fmt.Errorf("SMTPPort must be between 1 and 65535")
	}
	if !strings.Contains(c.DefaultEmailDomain, ".") {
		return fmt.Errorf("DefaultEmailDomain must be a fully qualified domain")
	}
	if c.WebhookTimeout <= 0 {
		return fmt.Errorf("WebhookTimeout must be positive")
	}
	return nil
}

// ValidateProduction performs additional validation for production environment
func (c *Config) ValidateProduction() error {
	if c.AllowedOrigins == "" {
		return fmt.Errorf("ALLOWED_ORIGINS is required in production")
	}

	if strings.Contains(c.AllowedOrigins, "*") {
		return fmt.Errorf("wildcard (*) origins are not allowed in production")
	}

	if strings.Contains(c.DatabaseURL, "sslmode=disable") {
		return fmt.Errorf("sslmode=disable is not allowed in production")
	}

	return nil
}

// LogConfig logs configuration values (excluding secrets)
func (c *Config) LogConfig(logger *slog.Logger) {
	logger.Info("configuration loaded",
		slog.Int("api_port", c.APIPort),
		slog.Int("smtp_port", c.SMTPPort),
		slog.String("default_email_domain", c.DefaultEmailDomain),
		slog.Bool("mail_archive_enabled", c.MailArchiveDir != ""),
		slog.String("aws_region", c.AWSRegion),
		slog.Bool("ses_configuration_set_set", c.SESConfigurationSet != ""),
		slog.Int("daily_message_limit", c.DailyMessageLimit),
		slog.Duration("webhook_timeout", c.WebhookTimeout),
		slog.String("log_level", c.LogLevel),
		slog.String("app_env", c.AppEnv),
		slog.Bool("allowed_origins_set", c.AllowedOrigins != ""),
	)
}

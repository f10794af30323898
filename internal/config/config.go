package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"
	"time"

	"github.com/ZerkerEOD/appserver/internal/db"
	"github.com/ZerkerEOD/appserver/pkg/debug"
	emailtypes "github.com/ZerkerEOD/appserver/pkg/email"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the application configuration. It is read once at startup
// and not modified afterwards.
type Config struct {
	Host string `env:"SERVER_HOST"`
	Port int    `env:"SERVER_PORT" envDefault:"8080"`

	JWTSecret  string `env:"CAKE_JWT_SECRET"`
	JWTIssuer  string `env:"JWT_ISSUER" envDefault:"CakePlanner"`
	TOTPIssuer string `env:"TOTP_ISSUER"`

	DBDriver    string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBPath      string `env:"DB_DIR" envDefault:"./data/db/appserver.sqlite"`
	DatabaseURL string `env:"DATABASE_URL"`

	MailProvider    string        `env:"MAIL_PROVIDER" envDefault:"smtp"`
	SMTPServer      string        `env:"SMTP_SERVER" envDefault:"localhost"`
	SMTPPort        int           `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername    string        `env:"SMTP_USERNAME"`
	SMTPPassword    string        `env:"SMTP_PASSWORD"`
	SMTPFrom        string        `env:"SMTP_FROM"`
	SMTPStartTLS    bool          `env:"SMTP_STARTTLS" envDefault:"true"`
	MailgunDomain   string        `env:"MAILGUN_DOMAIN"`
	MailgunAPIKey   string        `env:"MAILGUN_API_KEY"`
	SendGridAPIKey  string        `env:"SENDGRID_API_KEY"`
	MailFromName    string        `env:"MAIL_FROM_NAME"`
	MailTemplateDir string        `env:"MAIL_TEMPLATE_DIR" envDefault:"./data/templates"`
	MailTimeout     time.Duration `env:"MAIL_TIMEOUT" envDefault:"30s"`

	AdminName  string `env:"SERVER_ADMIN_NAME" envDefault:"Admin Test"`
	AdminEmail string `env:"SERVER_ADMIN_EMAIL" envDefault:"admin@example.com"`

	LogDir   string `env:"LOG_DIR"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"INFO"`
}

// Load reads envFile into the process environment, if it exists, and
// parses the environment into a Config. Variables already set in the
// environment take precedence over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				debug.Warning("No .env file found at %s, using environment variables", envFile)
			} else {
				return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
			}
		} else {
			debug.Info("Loaded environment from %s", envFile)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.TOTPIssuer == "" {
		cfg.TOTPIssuer = cfg.JWTIssuer
	}
	return cfg, nil
}

// Address returns the listen address for the HTTP server
func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Warnings lists configuration weaknesses that do not prevent startup
func (c *Config) Warnings() []string {
	var warnings []string
	if c.JWTSecret == "" {
		warnings = append(warnings, "CAKE_JWT_SECRET is not set; tokens are signed with an unsafe default key")
	}
	switch emailtypes.ProviderType(c.MailProvider) {
	case emailtypes.ProviderSMTP:
		if c.SMTPServer == "" || c.SMTPFrom == "" {
			warnings = append(warnings, "SMTP_SERVER or SMTP_FROM is not set; email delivery will fail")
		}
	case emailtypes.ProviderMailgun:
		if c.MailgunAPIKey == "" || c.MailgunDomain == "" {
			warnings = append(warnings, "MAILGUN_API_KEY or MAILGUN_DOMAIN is not set; email delivery will fail")
		}
	case emailtypes.ProviderSendGrid:
		if c.SendGridAPIKey == "" {
			warnings = append(warnings, "SENDGRID_API_KEY is not set; email delivery will fail")
		}
	}
	if c.DBDriver == string(db.DialectPostgres) && c.DatabaseURL == "" {
		warnings = append(warnings, "DB_DRIVER is postgres but DATABASE_URL is not set")
	}
	return warnings
}

// DBConfig returns the settings for db.Open
func (c *Config) DBConfig() db.Config {
	return db.Config{
		Driver: c.DBDriver,
		Path:   c.DBPath,
		URL:    c.DatabaseURL,
	}
}

// EmailConfig returns the settings for the configured mail provider
func (c *Config) EmailConfig() *emailtypes.Config {
	cfg := &emailtypes.Config{
		ProviderType: emailtypes.ProviderType(c.MailProvider),
		FromEmail:    c.SMTPFrom,
		FromName:     c.MailFromName,
		SMTPHost:     c.SMTPServer,
		SMTPPort:     c.SMTPPort,
		SMTPUsername: c.SMTPUsername,
		SMTPPassword: c.SMTPPassword,
		SMTPStartTLS: c.SMTPStartTLS,
		DialTimeout:  c.MailTimeout,
	}

	switch cfg.ProviderType {
	case emailtypes.ProviderMailgun:
		cfg.APIKey = c.MailgunAPIKey
		cfg.Domain = c.MailgunDomain
	case emailtypes.ProviderSendGrid:
		cfg.APIKey = c.SendGridAPIKey
	}
	return cfg
}

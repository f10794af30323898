package email

import "time"

// ProviderType represents supported email providers
type ProviderType string

const (
	ProviderSMTP     ProviderType = "smtp"
	ProviderMailgun  ProviderType = "mailgun"
	ProviderSendGrid ProviderType = "sendgrid"
)

// DefaultFromName is the sender display name when none is configured
const DefaultFromName = "App Server"

// Config represents email provider configuration
type Config struct {
	ProviderType ProviderType `json:"provider_type"`
	FromEmail    string       `json:"from_email"`
	FromName     string       `json:"from_name"`

	// APIKey authenticates against Mailgun or SendGrid
	APIKey string `json:"-"`
	// Domain is the Mailgun sending domain
	Domain string `json:"domain,omitempty"`
	// APIBase overrides the provider API endpoint. For Mailgun it ends in an
	// API version such as /v3; one is appended when missing.
	APIBase string `json:"api_base,omitempty"`

	SMTPHost     string        `json:"smtp_host,omitempty"`
	SMTPPort     int           `json:"smtp_port,omitempty"`
	SMTPUsername string        `json:"smtp_username,omitempty"`
	SMTPPassword string        `json:"-"`
	SMTPStartTLS bool          `json:"smtp_starttls"`
	DialTimeout  time.Duration `json:"dial_timeout,omitempty"`
}

// Message is a fully rendered email ready for a provider
type Message struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	// HTMLContent is empty for plain-text deliveries
	HTMLContent string `json:"html_content,omitempty"`
	TextContent string `json:"text_content"`
}

// HasHTML reports whether the message carries an HTML part
func (m *Message) HasHTML() bool {
	return m.HTMLContent != ""
}

// From formats the sender address for message headers
func (c *Config) From() string {
	name := c.FromName
	if name == "" {
		name = DefaultFromName
	}
	return name + " <" + c.FromEmail + ">"
}

package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ZerkerEOD/appserver/pkg/debug"
	emailtypes "github.com/ZerkerEOD/appserver/pkg/email"
	"github.com/mailgun/mailgun-go/v4"
)

// mailgunProvider implements the Provider interface for Mailgun
type mailgunProvider struct {
	mg   *mailgun.MailgunImpl
	from string
}

// init registers the Mailgun provider
func init() {
	Register(emailtypes.ProviderMailgun, func() Provider {
		return &mailgunProvider{}
	})
}

// Initialize sets up the Mailgun client
func (p *mailgunProvider) Initialize(cfg *emailtypes.Config) error {
	if err := p.ValidateConfig(cfg); err != nil {
		return err
	}

	p.mg = mailgun.NewMailgun(cfg.Domain, cfg.APIKey)
	if cfg.APIBase != "" {
		p.mg.SetAPIBase(mailgunAPIBase(cfg.APIBase))
	}
	p.from = cfg.From()
	debug.Info("initialized mailgun client for domain: %s with sender: %s", cfg.Domain, p.from)
	return nil
}

// ValidateConfig validates the Mailgun configuration
func (p *mailgunProvider) ValidateConfig(cfg *emailtypes.Config) error {
	if cfg.APIKey == "" {
		debug.Error("mailgun API key not provided")
		return ErrProviderNotConfigured
	}

	if cfg.Domain == "" {
		debug.Error("mailgun domain not provided")
		return errors.New("mailgun domain is required")
	}

	if cfg.FromEmail == "" {
		debug.Error("mailgun from_email not provided")
		return errors.New("mailgun from_email is required")
	}

	return nil
}

// Send sends an email using Mailgun
func (p *mailgunProvider) Send(ctx context.Context, msg *emailtypes.Message) error {
	if p.mg == nil {
		debug.Error("mailgun client not initialized")
		return ErrProviderNotConfigured
	}
	if err := validateMessage(msg); err != nil {
		return err
	}

	message := p.mg.NewMessage(
		p.from,
		msg.Subject,
		msg.TextContent,
		msg.To...,
	)

	if msg.HasHTML() {
		message.SetHtml(msg.HTMLContent)
	}

	debug.Info("sending email from %s to %v", p.from, msg.To)

	_, id, err := p.mg.Send(ctx, message)
	if err != nil {
		debug.Error("failed to send email: %v", err)
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}

	debug.Info("successfully sent email with ID: %s", id)
	return nil
}

// TestConnection tests the connection to Mailgun
func (p *mailgunProvider) TestConnection(ctx context.Context, testEmail string) error {
	debug.Info("testing mailgun connection with test email to: %s", testEmail)
	return p.Send(ctx, connectionTestMessage(testEmail))
}

// mailgunAPIBase appends the default API version when base has none
func mailgunAPIBase(base string) string {
	base = strings.TrimRight(base, "/")
	for _, version := range []string{"/v1", "/v2", "/v3", "/v4"} {
		if strings.HasSuffix(base, version) {
			return base
		}
	}
	return base + "/v3"
}

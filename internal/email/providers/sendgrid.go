package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/ZerkerEOD/appserver/pkg/debug"
	emailtypes "github.com/ZerkerEOD/appserver/pkg/email"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const sendgridSendEndpoint = "/v3/mail/send"

// sendgridProvider implements the Provider interface for SendGrid
type sendgridProvider struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

// init registers the SendGrid provider
func init() {
	Register(emailtypes.ProviderSendGrid, func() Provider {
		return &sendgridProvider{}
	})
}

// Initialize sets up the SendGrid client
func (p *sendgridProvider) Initialize(cfg *emailtypes.Config) error {
	if err := p.ValidateConfig(cfg); err != nil {
		return err
	}

	if cfg.APIBase != "" {
		request := sendgrid.GetRequest(cfg.APIKey, sendgridSendEndpoint, cfg.APIBase)
		request.Method = "POST"
		p.client = &sendgrid.Client{Request: request}
	} else {
		p.client = sendgrid.NewSendClient(cfg.APIKey)
	}
	p.fromEmail = cfg.FromEmail
	p.fromName = cfg.FromName
	if p.fromName == "" {
		p.fromName = emailtypes.DefaultFromName
	}

	debug.Info("initialized sendgrid client with from: %s <%s>", p.fromName, p.fromEmail)
	return nil
}

// ValidateConfig validates the SendGrid configuration
func (p *sendgridProvider) ValidateConfig(cfg *emailtypes.Config) error {
	if cfg.APIKey == "" {
		debug.Error("sendgrid API key not provided")
		return ErrProviderNotConfigured
	}

	if cfg.FromEmail == "" {
		debug.Error("sendgrid from_email not provided")
		return errors.New("sendgrid from_email is required")
	}

	return nil
}

// Send sends an email using SendGrid
func (p *sendgridProvider) Send(ctx context.Context, msg *emailtypes.Message) error {
	if p.client == nil {
		debug.Error("sendgrid client not initialized")
		return ErrProviderNotConfigured
	}
	if err := validateMessage(msg); err != nil {
		return err
	}

	message := mail.NewV3Mail()
	message.SetFrom(mail.NewEmail(p.fromName, p.fromEmail))
	message.Subject = msg.Subject

	personalization := mail.NewPersonalization()
	for _, to := range msg.To {
		personalization.AddTos(mail.NewEmail("", to))
	}
	message.AddPersonalizations(personalization)

	// text/plain must precede text/html
	if msg.TextContent != "" {
		message.AddContent(mail.NewContent("text/plain", msg.TextContent))
	}
	if msg.HasHTML() {
		message.AddContent(mail.NewContent("text/html", msg.HTMLContent))
	}

	debug.Info("sending email from %s <%s> to %v", p.fromName, p.fromEmail, msg.To)

	response, err := p.client.SendWithContext(ctx, message)
	if err != nil {
		debug.Error("failed to send email: %v", err)
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}

	if response.StatusCode >= 400 {
		debug.Error("sendgrid API error: %d - %s", response.StatusCode, response.Body)
		return fmt.Errorf("%w: sendgrid API error: %d - %s", ErrSendFailed, response.StatusCode, response.Body)
	}

	debug.Info("successfully sent email with status code: %d", response.StatusCode)
	return nil
}

// TestConnection tests the connection to SendGrid
func (p *sendgridProvider) TestConnection(ctx context.Context, testEmail string) error {
	debug.Info("testing sendgrid connection with test email to: %s", testEmail)
	return p.Send(ctx, connectionTestMessage(testEmail))
}

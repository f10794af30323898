package providers

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/hex"
	"errors"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/ZerkerEOD/appserver/pkg/debug"
	emailtypes "github.com/ZerkerEOD/appserver/pkg/email"
)

const defaultSMTPDialTimeout = 10 * time.Second

// smtpProvider implements the Provider interface on top of net/smtp
type smtpProvider struct {
	addr        string
	host        string
	auth        smtp.Auth
	startTLS    bool
	from        string
	fromHeader  string
	dialTimeout time.Duration
}

// init registers the SMTP provider
func init() {
	Register(emailtypes.ProviderSMTP, func() Provider {
		return &smtpProvider{}
	})
}

// Initialize sets up the SMTP relay settings
func (p *smtpProvider) Initialize(cfg *emailtypes.Config) error {
	if err := p.ValidateConfig(cfg); err != nil {
		return err
	}

	port := cfg.SMTPPort
	if port == 0 {
		port = 587
	}

	p.host = cfg.SMTPHost
	p.addr = net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(port))
	p.startTLS = cfg.SMTPStartTLS
	p.from = cfg.FromEmail
	p.fromHeader = mime.QEncoding.Encode("utf-8", fromName(cfg)) + " <" + cfg.FromEmail + ">"
	p.dialTimeout = cfg.DialTimeout
	if p.dialTimeout <= 0 {
		p.dialTimeout = defaultSMTPDialTimeout
	}
	if cfg.SMTPUsername != "" {
		p.auth = smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)
	}

	debug.Info("initialized smtp relay %s (starttls: %v) with sender: %s", p.addr, p.startTLS, p.from)
	return nil
}

// ValidateConfig validates the SMTP configuration
func (p *smtpProvider) ValidateConfig(cfg *emailtypes.Config) error {
	if cfg.SMTPHost == "" {
		debug.Error("smtp server not provided")
		return ErrProviderNotConfigured
	}

	if cfg.FromEmail == "" {
		debug.Error("smtp from address not provided")
		return errors.New("smtp from address is required")
	}

	if cfg.SMTPPort < 0 || cfg.SMTPPort > 65535 {
		return fmt.Errorf("invalid smtp port: %d", cfg.SMTPPort)
	}

	return nil
}

// Send delivers the message over one SMTP session
func (p *smtpProvider) Send(ctx context.Context, msg *emailtypes.Message) error {
	if p.addr == "" {
		debug.Error("smtp relay not initialized")
		return ErrProviderNotConfigured
	}
	if err := validateMessage(msg); err != nil {
		return err
	}

	body, err := p.buildMessage(msg)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}

	if err := p.deliver(ctx, msg.To, body); err != nil {
		debug.Error("failed to send email via %s: %v", p.addr, err)
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}

	debug.Info("successfully sent email to %v via %s", msg.To, p.addr)
	return nil
}

// TestConnection tests the connection to the SMTP relay
func (p *smtpProvider) TestConnection(ctx context.Context, testEmail string) error {
	debug.Info("testing smtp connection with test email to: %s", testEmail)
	return p.Send(ctx, connectionTestMessage(testEmail))
}

func (p *smtpProvider) deliver(ctx context.Context, to []string, body []byte) error {
	dialer := &net.Dialer{Timeout: p.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", p.addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", p.addr, err)
	}

	// The whole session is bounded by the context deadline.
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	client, err := smtp.NewClient(conn, p.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if p.startTLS {
		if ok, _ := client.Extension("STARTTLS"); !ok {
			return errors.New("server does not support STARTTLS")
		}
		if err := client.StartTLS(&tls.Config{ServerName: p.host, MinVersion: tls.VersionTLS12}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}

	if p.auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(p.auth); err != nil {
				return fmt.Errorf("auth: %w", err)
			}
		}
	}

	if err := client.Mail(p.from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt to %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close body: %w", err)
	}

	return client.Quit()
}

func (p *smtpProvider) buildMessage(msg *emailtypes.Message) ([]byte, error) {
	var buf bytes.Buffer

	writeHeader := func(key, value string) {
		buf.WriteString(key + ": " + value + "\r\n")
	}

	writeHeader("From", p.fromHeader)
	writeHeader("To", strings.Join(msg.To, ", "))
	writeHeader("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	writeHeader("Date", time.Now().Format(time.RFC1123Z))
	writeHeader("MIME-Version", "1.0")

	if !msg.HasHTML() {
		writeHeader("Content-Type", `text/plain; charset="utf-8"`)
		writeHeader("Content-Transfer-Encoding", "quoted-printable")
		buf.WriteString("\r\n")
		if err := writeQuotedPrintable(&buf, msg.TextContent); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	boundary, err := newBoundary()
	if err != nil {
		return nil, err
	}
	writeHeader("Content-Type", `multipart/alternative; boundary="`+boundary+`"`)
	buf.WriteString("\r\n")

	parts := []struct {
		contentType string
		content     string
	}{
		{"text/plain", msg.TextContent},
		{"text/html", msg.HTMLContent},
	}
	for _, part := range parts {
		if part.content == "" {
			continue
		}
		buf.WriteString("--" + boundary + "\r\n")
		writeHeader("Content-Type", part.contentType+`; charset="utf-8"`)
		writeHeader("Content-Transfer-Encoding", "quoted-printable")
		buf.WriteString("\r\n")
		if err := writeQuotedPrintable(&buf, part.content); err != nil {
			return nil, err
		}
		buf.WriteString("\r\n")
	}
	buf.WriteString("--" + boundary + "--\r\n")

	return buf.Bytes(), nil
}

func writeQuotedPrintable(buf *bytes.Buffer, content string) error {
	qp := quotedprintable.NewWriter(buf)
	if _, err := qp.Write([]byte(content)); err != nil {
		return err
	}
	return qp.Close()
}

func newBoundary() (string, error) {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate mime boundary: %w", err)
	}
	return "appserver-" + hex.EncodeToString(b), nil
}

func fromName(cfg *emailtypes.Config) string {
	if cfg.FromName == "" {
		return emailtypes.DefaultFromName
	}
	return cfg.FromName
}

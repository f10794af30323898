package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"html/template"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/ZerkerEOD/appserver/internal/email/providers"
	"github.com/ZerkerEOD/appserver/pkg/debug"
	emailtypes "github.com/ZerkerEOD/appserver/pkg/email"
	"github.com/mitchellh/mapstructure"
	"golang.org/x/text/language"
)

const (
	// FallbackLanguage is used when no template matches the requested language
	FallbackLanguage = "en"

	// DefaultSubject and DefaultTitle fill in missing payload fields
	DefaultSubject = "Notification"
	DefaultTitle   = "Notification"

	// DefaultTimeout bounds a single send when the caller's context has no deadline
	DefaultTimeout = 30 * time.Second

	templatePrefix = "email_template_"
	templateSuffix = ".html"
)

var (
	ErrTemplateNotFound = errors.New("email template not found")
	ErrTemplateRender   = errors.New("email template rendering failed")
	ErrInvalidPayload   = errors.New("invalid notification payload")
)

// TemplateData is the notification payload as seen by templates
type TemplateData struct {
	Name    string `mapstructure:"name"`
	Subject string `mapstructure:"subject"`
	Title   string `mapstructure:"title"`
	// Message is server-composed markup and is rendered unescaped
	Message  template.HTML `mapstructure:"message"`
	HasLink  bool          `mapstructure:"has_link"`
	LinkURL  string        `mapstructure:"link_url"`
	LinkText string        `mapstructure:"link_text"`
	AppName  string        `mapstructure:"app_name"`
	// Extra holds payload keys without a dedicated field
	Extra map[string]interface{} `mapstructure:",remain"`
}

const textBody = `{{.Title}}
{{if .Name}}
Hello {{.Name}},
{{end}}
{{.PlainMessage}}
{{if .HasLink}}
{{if .LinkText}}{{.LinkText}}: {{end}}{{.LinkURL}}
{{end}}{{if .AppName}}
--
{{.AppName}}
{{end}}`

var (
	textTemplate = texttemplate.Must(texttemplate.New("email_text").Parse(textBody))
	lineBreakTag = regexp.MustCompile(`(?i)<br\s*/?>|</p>`)
	markupTag    = regexp.MustCompile(`<[^>]*>`)
)

// Service renders notification payloads into language-specific templates
// and hands them to the configured provider.
type Service struct {
	provider    providers.Provider
	templateDir string
	timeout     time.Duration
}

// Option configures a Service
type Option func(*Service)

// WithTimeout bounds each Send
func WithTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// NewService creates a new email service
func NewService(provider providers.Provider, templateDir string, opts ...Option) *Service {
	s := &Service{
		provider:    provider,
		templateDir: templateDir,
		timeout:     DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send renders the payload with the template best matching lang and
// delivers it to a single recipient. When htmlEmail is false only the
// plain text rendering is sent.
func (s *Service) Send(ctx context.Context, to, lang string, htmlEmail bool, payload map[string]any) error {
	msg, resolved, err := s.Render(to, lang, htmlEmail, payload)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.provider.Send(ctx, msg); err != nil {
		debug.Error("Failed to send email to %s: %v", to, err)
		return err
	}

	debug.Info("Email sent to %s (Lang: %s)", to, resolved)
	return nil
}

// Render builds the message for a payload without sending it. It returns
// the language of the template that was used.
func (s *Service) Render(to, lang string, htmlEmail bool, payload map[string]any) (*emailtypes.Message, string, error) {
	data, err := DecodePayload(payload)
	if err != nil {
		return nil, "", err
	}

	msg := &emailtypes.Message{
		To:      []string{to},
		Subject: data.Subject,
	}

	var text bytes.Buffer
	if err := textTemplate.Execute(&text, plainView{TemplateData: data, PlainMessage: plainText(string(data.Message))}); err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrTemplateRender, err)
	}
	msg.TextContent = strings.TrimSpace(text.String()) + "\n"

	resolved := lang
	if htmlEmail {
		path, matched, err := s.resolveTemplate(lang)
		if err != nil {
			return nil, "", err
		}
		resolved = matched

		tmpl, err := template.ParseFiles(path)
		if err != nil {
			debug.Error("Template parsing failed for %s: %v", path, err)
			return nil, "", fmt.Errorf("%w: %w", ErrTemplateRender, err)
		}

		var body bytes.Buffer
		if err := tmpl.Execute(&body, data); err != nil {
			debug.Error("Template rendering failed for %s: %v", path, err)
			return nil, "", fmt.Errorf("%w: %w", ErrTemplateRender, err)
		}
		msg.HTMLContent = body.String()
	}

	return msg, resolved, nil
}

// DecodePayload converts a notification payload into TemplateData and
// applies the defaults for missing fields.
func DecodePayload(payload map[string]any) (*TemplateData, error) {
	data := &TemplateData{}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           data,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	if err := decoder.Decode(payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	if data.Subject == "" {
		data.Subject = DefaultSubject
	}
	if data.Title == "" {
		data.Title = DefaultTitle
	}
	return data, nil
}

// AvailableLanguages lists the languages that have a template in the
// template directory, sorted.
func (s *Service) AvailableLanguages() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.templateDir, templatePrefix+"*"+templateSuffix))
	if err != nil {
		return nil, err
	}

	langs := make([]string, 0, len(matches))
	for _, match := range matches {
		name := filepath.Base(match)
		lang := strings.TrimSuffix(strings.TrimPrefix(name, templatePrefix), templateSuffix)
		if lang != "" {
			langs = append(langs, lang)
		}
	}
	sort.Strings(langs)
	return langs, nil
}

// resolveTemplate picks the template for lang, falling back to English.
func (s *Service) resolveTemplate(lang string) (string, string, error) {
	available, err := s.AvailableLanguages()
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrTemplateNotFound, err)
	}

	chosen := matchLanguage(lang, available)
	path := s.templatePath(chosen)
	if _, err := os.Stat(path); err != nil {
		debug.Error("Template not found: %s", path)
		return "", "", fmt.Errorf("%w: %s", ErrTemplateNotFound, path)
	}
	return path, chosen, nil
}

func (s *Service) templatePath(lang string) string {
	return filepath.Join(s.templateDir, templatePrefix+lang+templateSuffix)
}

// matchLanguage returns the entry of available that best serves requested,
// or FallbackLanguage when nothing matches.
func matchLanguage(requested string, available []string) string {
	requested = strings.TrimSpace(requested)
	if requested == "" || len(available) == 0 {
		return FallbackLanguage
	}

	for _, lang := range available {
		if strings.EqualFold(lang, requested) {
			return lang
		}
	}

	want, err := language.Parse(requested)
	if err != nil {
		return FallbackLanguage
	}

	// The fallback goes first so it wins when confidence is No.
	supported := []language.Tag{language.Make(FallbackLanguage)}
	names := []string{FallbackLanguage}
	for _, lang := range available {
		tag, err := language.Parse(lang)
		if err != nil || lang == FallbackLanguage {
			continue
		}
		supported = append(supported, tag)
		names = append(names, lang)
	}

	_, index, confidence := language.NewMatcher(supported).Match(want)
	if confidence == language.No {
		return FallbackLanguage
	}
	return names[index]
}

type plainView struct {
	*TemplateData
	PlainMessage string
}

// plainText turns message markup into readable text
func plainText(markup string) string {
	text := lineBreakTag.ReplaceAllString(markup, "\n")
	text = markupTag.ReplaceAllString(text, "")
	return strings.TrimSpace(html.UnescapeString(text))
}

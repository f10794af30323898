package email

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	emailtypes "github.com/ZerkerEOD/appserver/pkg/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProvider struct {
	mu      sync.Mutex
	sent    []*emailtypes.Message
	sendErr error
	block   bool
}

func (p *recordingProvider) Initialize(*emailtypes.Config) error     { return nil }
func (p *recordingProvider) ValidateConfig(*emailtypes.Config) error { return nil }
func (p *recordingProvider) TestConnection(context.Context, string) error {
	return nil
}

func (p *recordingProvider) Send(ctx context.Context, msg *emailtypes.Message) error {
	if p.block {
		<-ctx.Done()
		return ctx.Err()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sendErr != nil {
		return p.sendErr
	}
	p.sent = append(p.sent, msg)
	return nil
}

func writeTemplates(t *testing.T, langs ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, lang := range langs {
		body := `<h1>[` + lang + `] {{.Title}}</h1><p>{{.Name}}</p><div>{{.Message}}</div>{{if .HasLink}}<a href="{{.LinkURL}}">{{.LinkText}}</a>{{end}}`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "email_template_"+lang+".html"), []byte(body), 0o644))
	}
	return dir
}

func TestDecodePayload(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
		check   func(t *testing.T, data *TemplateData)
	}{
		{
			name:    "defaults for empty payload",
			payload: nil,
			check: func(t *testing.T, data *TemplateData) {
				assert.Equal(t, DefaultSubject, data.Subject)
				assert.Equal(t, DefaultTitle, data.Title)
				assert.False(t, data.HasLink)
			},
		},
		{
			name: "well-known keys",
			payload: map[string]any{
				"name":      "Alice",
				"subject":   "Hi",
				"title":     "Greeting",
				"message":   "Line<br>Two",
				"has_link":  true,
				"link_url":  "https://example.com",
				"link_text": "Visit",
				"app_name":  "App",
			},
			check: func(t *testing.T, data *TemplateData) {
				assert.Equal(t, "Alice", data.Name)
				assert.Equal(t, "Hi", data.Subject)
				assert.Equal(t, "Greeting", data.Title)
				assert.Equal(t, "Line<br>Two", string(data.Message))
				assert.True(t, data.HasLink)
				assert.Equal(t, "https://example.com", data.LinkURL)
				assert.Equal(t, "Visit", data.LinkText)
				assert.Equal(t, "App", data.AppName)
				assert.Empty(t, data.Extra)
			},
		},
		{
			name:    "weakly typed flag and extra keys",
			payload: map[string]any{"has_link": "true", "order_id": 42},
			check: func(t *testing.T, data *TemplateData) {
				assert.True(t, data.HasLink)
				assert.Equal(t, 42, data.Extra["order_id"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := DecodePayload(tt.payload)
			require.NoError(t, err)
			tt.check(t, data)
		})
	}

	_, err := DecodePayload(map[string]any{"has_link": []int{1}})
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestMatchLanguage(t *testing.T) {
	available := []string{"de", "en"}

	tests := []struct {
		requested string
		available []string
		want      string
	}{
		{"de", available, "de"},
		{"DE", available, "de"},
		{"de-AT", available, "de"},
		{"en-GB", available, "en"},
		{"fr", available, "en"},
		{"", available, "en"},
		{"not a language!", available, "en"},
		{"de", nil, "en"},
	}

	for _, tt := range tests {
		t.Run(tt.requested, func(t *testing.T) {
			assert.Equal(t, tt.want, matchLanguage(tt.requested, tt.available))
		})
	}
}

func TestService_Render(t *testing.T) {
	payload := map[string]any{
		"name":     "Alice",
		"subject":  "Status",
		"message":  "Line one<br>Line two &amp; more",
		"has_link": true,
		"link_url": "https://example.com/x",
	}

	t.Run("html in requested language", func(t *testing.T) {
		svc := NewService(&recordingProvider{}, writeTemplates(t, "en", "de"))
		msg, lang, err := svc.Render("alice@example.com", "de", true, payload)
		require.NoError(t, err)

		assert.Equal(t, "de", lang)
		assert.Equal(t, []string{"alice@example.com"}, msg.To)
		assert.Equal(t, "Status", msg.Subject)
		assert.Contains(t, msg.HTMLContent, "[de] Notification")
		assert.Contains(t, msg.HTMLContent, "Line one<br>Line two")
		assert.Contains(t, msg.HTMLContent, `href="https://example.com/x"`)
		assert.NotEmpty(t, msg.TextContent)
	})

	t.Run("falls back to english", func(t *testing.T) {
		svc := NewService(&recordingProvider{}, writeTemplates(t, "en", "de"))
		msg, lang, err := svc.Render("alice@example.com", "fr", true, payload)
		require.NoError(t, err)
		assert.Equal(t, "en", lang)
		assert.Contains(t, msg.HTMLContent, "[en]")
	})

	t.Run("no english template", func(t *testing.T) {
		svc := NewService(&recordingProvider{}, writeTemplates(t, "de"))
		_, _, err := svc.Render("alice@example.com", "fr", true, payload)
		assert.ErrorIs(t, err, ErrTemplateNotFound)
	})

	t.Run("plain text only", func(t *testing.T) {
		svc := NewService(&recordingProvider{}, filepath.Join(t.TempDir(), "missing"))
		msg, _, err := svc.Render("alice@example.com", "de", false, payload)
		require.NoError(t, err)

		assert.Empty(t, msg.HTMLContent)
		assert.Contains(t, msg.TextContent, "Hello Alice,")
		assert.Contains(t, msg.TextContent, "Line one\nLine two & more")
		assert.Contains(t, msg.TextContent, "https://example.com/x")
		assert.NotContains(t, msg.TextContent, "<br>")
	})

	t.Run("broken template", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "email_template_en.html"), []byte("{{.Title"), 0o644))
		svc := NewService(&recordingProvider{}, dir)
		_, _, err := svc.Render("alice@example.com", "en", true, payload)
		assert.ErrorIs(t, err, ErrTemplateRender)
	})
}

func TestService_AvailableLanguages(t *testing.T) {
	svc := NewService(&recordingProvider{}, writeTemplates(t, "fr", "en", "de"))
	langs, err := svc.AvailableLanguages()
	require.NoError(t, err)
	assert.Equal(t, []string{"de", "en", "fr"}, langs)
}

func TestService_Send(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers rendered message", func(t *testing.T) {
		provider := &recordingProvider{}
		svc := NewService(provider, writeTemplates(t, "en"))
		require.NoError(t, svc.Send(ctx, "alice@example.com", "en", true, map[string]any{"message": "hi"}))

		require.Len(t, provider.sent, 1)
		assert.Equal(t, DefaultSubject, provider.sent[0].Subject)
		assert.True(t, provider.sent[0].HasHTML())
	})

	t.Run("provider failure", func(t *testing.T) {
		sendErr := errors.New("relay down")
		svc := NewService(&recordingProvider{sendErr: sendErr}, writeTemplates(t, "en"))
		err := svc.Send(ctx, "alice@example.com", "en", false, nil)
		assert.ErrorIs(t, err, sendErr)
	})

	t.Run("timeout", func(t *testing.T) {
		svc := NewService(&recordingProvider{block: true}, writeTemplates(t, "en"), WithTimeout(50*time.Millisecond))
		start := time.Now()
		err := svc.Send(ctx, "alice@example.com", "en", false, nil)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), 5*time.Second)
	})
}

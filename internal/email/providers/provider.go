package providers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ZerkerEOD/appserver/pkg/debug"
	emailtypes "github.com/ZerkerEOD/appserver/pkg/email"
)

var (
	// ErrProviderNotConfigured is returned when the email provider is not properly configured
	ErrProviderNotConfigured = errors.New("email provider not configured")
	// ErrUnsupportedProvider is returned for provider types with no registered factory
	ErrUnsupportedProvider = errors.New("unsupported email provider type")
	// ErrInvalidMessage is returned when a message has no recipient or body
	ErrInvalidMessage = errors.New("invalid email message")
	// ErrSendFailed is returned when the email fails to send
	ErrSendFailed = errors.New("failed to send email")
)

// Provider defines the interface for email providers
type Provider interface {
	// Initialize sets up the provider with the given configuration
	Initialize(cfg *emailtypes.Config) error

	// Send delivers a rendered message
	Send(ctx context.Context, msg *emailtypes.Message) error

	// ValidateConfig validates the provider configuration
	ValidateConfig(cfg *emailtypes.Config) error

	// TestConnection sends a short test message to testEmail
	TestConnection(ctx context.Context, testEmail string) error
}

// ProviderFactory is a function that creates a new Provider instance
type ProviderFactory func() Provider

var (
	registryMu sync.RWMutex
	providers  = make(map[emailtypes.ProviderType]ProviderFactory)
)

// Register registers a new provider factory for the given provider type
func Register(providerType emailtypes.ProviderType, factory ProviderFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	debug.Debug("registering email provider: %s", providerType)
	providers[providerType] = factory
}

// New creates a new Provider instance for the given provider type
func New(providerType emailtypes.ProviderType) (Provider, error) {
	registryMu.RLock()
	factory, exists := providers[providerType]
	registryMu.RUnlock()

	if !exists {
		debug.Error("unsupported email provider type: %s", providerType)
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, providerType)
	}
	debug.Info("creating new instance of email provider: %s", providerType)
	return factory(), nil
}

// NewFromConfig creates and initializes the provider named by cfg
func NewFromConfig(cfg *emailtypes.Config) (Provider, error) {
	provider, err := New(cfg.ProviderType)
	if err != nil {
		return nil, err
	}
	if err := provider.Initialize(cfg); err != nil {
		return nil, err
	}
	return provider, nil
}

func validateMessage(msg *emailtypes.Message) error {
	if msg == nil || len(msg.To) == 0 {
		return fmt.Errorf("%w: no recipient", ErrInvalidMessage)
	}
	if msg.TextContent == "" && msg.HTMLContent == "" {
		return fmt.Errorf("%w: empty body", ErrInvalidMessage)
	}
	return nil
}

func connectionTestMessage(to string) *emailtypes.Message {
	return &emailtypes.Message{
		To:          []string{to},
		Subject:     "App Server Email Test",
		TextContent: "This is a test email from App Server.",
	}
}

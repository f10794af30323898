package providers

import (
	"context"
	"fmt"

	"github.com/ZerkerEOD/appserver/pkg/debug"
	emailtypes "github.com/ZerkerEOD/appserver/pkg/email"
)

// unavailableProvider stands in for a provider that failed to initialize.
// Every send fails, so mail errors surface per request instead of at startup.
type unavailableProvider struct {
	cause error
}

// Unavailable returns a Provider whose sends fail with ErrProviderNotConfigured
// wrapping cause.
func Unavailable(cause error) Provider {
	return &unavailableProvider{cause: cause}
}

func (p *unavailableProvider) Initialize(*emailtypes.Config) error {
	return p.err()
}

func (p *unavailableProvider) ValidateConfig(*emailtypes.Config) error {
	return p.err()
}

func (p *unavailableProvider) Send(ctx context.Context, msg *emailtypes.Message) error {
	if err := validateMessage(msg); err != nil {
		return err
	}
	debug.Warning("email to %v dropped: %v", msg.To, p.cause)
	return p.err()
}

func (p *unavailableProvider) TestConnection(ctx context.Context, testEmail string) error {
	return p.err()
}

func (p *unavailableProvider) err() error {
	return fmt.Errorf("%w: %w", ErrProviderNotConfigured, p.cause)
}

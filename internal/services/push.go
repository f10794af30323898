package services

import (
	"context"
	"errors"

	"github.com/ZerkerEOD/appserver/internal/models"
	"github.com/ZerkerEOD/appserver/pkg/debug"
)

// ErrPushNotImplemented is reported by NoopPushSender for every push
var ErrPushNotImplemented = errors.New("push notifications are not implemented")

// PushSender delivers a notification to a user's devices. Implementations
// must treat payload as read-only.
type PushSender interface {
	Push(ctx context.Context, user *models.User, payload map[string]any) error
}

// NoopPushSender stands in until a push backend exists. It never delivers.
type NoopPushSender struct{}

// Push logs the attempt and reports ErrPushNotImplemented
func (NoopPushSender) Push(_ context.Context, user *models.User, _ map[string]any) error {
	debug.Info("Push notification requested for %s but no push backend is configured", user.UUID)
	return ErrPushNotImplemented
}

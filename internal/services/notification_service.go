package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ZerkerEOD/appserver/internal/models"
	"github.com/ZerkerEOD/appserver/internal/repository"
	"github.com/ZerkerEOD/appserver/pkg/debug"
)

// DefaultSendTimeout bounds each channel delivery
const DefaultSendTimeout = 30 * time.Second

var (
	// ErrUserNotFound is returned when the notified user does not exist
	ErrUserNotFound = errors.New("user not found")
	// ErrNoChannelDelivered is returned when no enabled channel accepted the notification
	ErrNoChannelDelivered = errors.New("notification not delivered on any channel")
)

// Channel names a delivery channel
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPush  Channel = "push"
)

// Payload is the free-form notification content. Well-known keys are
// name, subject, title, message, has_link, link_url, link_text and app_name.
type Payload map[string]any

// PreferenceStore is the part of the user repository the dispatcher reads
type PreferenceStore interface {
	GetUser(ctx context.Context, uuid string) (*models.User, error)
	GetPreference(ctx context.Context, uuid string) (*models.NotificationPreference, error)
}

// MailTransport delivers one notification email
type MailTransport interface {
	Send(ctx context.Context, to, language string, html bool, payload map[string]any) error
}

// ChannelResult is the outcome of one channel delivery
type ChannelResult struct {
	Channel Channel
	Err     error
}

// Delivered reports whether the channel accepted the notification
func (r ChannelResult) Delivered() bool {
	return r.Err == nil
}

// DispatchReport describes one Dispatch call
type DispatchReport struct {
	UserUUID string
	Results  []ChannelResult
}

// Delivered reports whether at least one channel succeeded
func (r *DispatchReport) Delivered() bool {
	for _, result := range r.Results {
		if result.Delivered() {
			return true
		}
	}
	return false
}

// Err is nil when at least one channel succeeded. Otherwise it joins
// ErrNoChannelDelivered with every channel error.
func (r *DispatchReport) Err() error {
	if r.Delivered() {
		return nil
	}
	errs := []error{ErrNoChannelDelivered}
	for _, result := range r.Results {
		errs = append(errs, fmt.Errorf("%s: %w", result.Channel, result.Err))
	}
	return errors.Join(errs...)
}

// NotificationService delivers notifications according to each user's preferences
type NotificationService struct {
	store       PreferenceStore
	mail        MailTransport
	push        PushSender
	sendTimeout time.Duration
}

// NotificationOption configures a NotificationService
type NotificationOption func(*NotificationService)

// WithSendTimeout overrides the per-channel delivery timeout
func WithSendTimeout(timeout time.Duration) NotificationOption {
	return func(s *NotificationService) {
		if timeout > 0 {
			s.sendTimeout = timeout
		}
	}
}

// NewNotificationService creates a new notification service. A nil push
// sender is replaced with NoopPushSender.
func NewNotificationService(store PreferenceStore, mail MailTransport, push PushSender, opts ...NotificationOption) *NotificationService {
	if push == nil {
		push = NoopPushSender{}
	}
	s := &NotificationService{
		store:       store,
		mail:        mail,
		push:        push,
		sendTimeout: DefaultSendTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Notify delivers payload to the user over every enabled channel. It
// succeeds if at least one enabled channel delivered.
func (s *NotificationService) Notify(ctx context.Context, userUUID string, payload Payload) error {
	report, err := s.Dispatch(ctx, userUUID, payload)
	if err != nil {
		return err
	}
	return report.Err()
}

// Dispatch resolves the user and preferences, then runs each enabled
// channel concurrently and reports per-channel outcomes. The returned
// error is only set when resolution fails or no channel is enabled.
func (s *NotificationService) Dispatch(ctx context.Context, userUUID string, payload Payload) (*DispatchReport, error) {
	user, err := s.store.GetUser(ctx, userUUID)
	if errors.Is(err, repository.ErrNotFound) {
		debug.Warning("Notification for unknown user %s dropped", userUUID)
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userUUID)
	}
	if err != nil {
		debug.Error("Failed to load user %s: %v", userUUID, err)
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	pref, err := s.store.GetPreference(ctx, userUUID)
	if err != nil {
		debug.Error("Failed to load notification preference for %s: %v", userUUID, err)
		return nil, fmt.Errorf("failed to load notification preference: %w", err)
	}

	if !pref.AnyChannelEnabled() {
		debug.Info("User %s has every notification channel disabled", userUUID)
		return nil, fmt.Errorf("%w: all channels disabled for user %s", ErrNoChannelDelivered, userUUID)
	}

	enriched := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		enriched[k] = v
	}
	if _, ok := enriched["name"]; !ok {
		enriched["name"] = user.Name
	}

	type delivery struct {
		channel Channel
		send    func(ctx context.Context) error
	}
	var deliveries []delivery
	if pref.EmailEnabled {
		deliveries = append(deliveries, delivery{ChannelEmail, func(ctx context.Context) error {
			return s.mail.Send(ctx, user.Email, pref.Language, pref.HTMLEmail, enriched)
		}})
	}
	if pref.PushEnabled {
		deliveries = append(deliveries, delivery{ChannelPush, func(ctx context.Context) error {
			return s.push.Push(ctx, user, enriched)
		}})
	}

	report := &DispatchReport{
		UserUUID: userUUID,
		Results:  make([]ChannelResult, len(deliveries)),
	}

	var wg sync.WaitGroup
	for i, d := range deliveries {
		wg.Add(1)
		go func(i int, d delivery) {
			defer wg.Done()

			sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
			defer cancel()

			err := d.send(sendCtx)
			if err != nil {
				debug.Error("Failed to deliver %s notification to %s: %v", d.channel, userUUID, err)
			} else {
				debug.Info("Delivered %s notification to %s", d.channel, userUUID)
			}
			report.Results[i] = ChannelResult{Channel: d.channel, Err: err}
		}(i, d)
	}
	wg.Wait()

	return report, nil
}

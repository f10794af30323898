package jwt

import (
	"context"
)

type contextKey string

const payloadKey contextKey = "token_payload"

// WithPayload attaches a verified token payload to the context
func WithPayload(ctx context.Context, payload *TokenPayload) context.Context {
	return context.WithValue(ctx, payloadKey, payload)
}

// PayloadFromContext retrieves the verified payload, if any
func PayloadFromContext(ctx context.Context) (*TokenPayload, bool) {
	payload, ok := ctx.Value(payloadKey).(*TokenPayload)
	return payload, ok && payload != nil
}

// GetUserID retrieves the authenticated user ID from the context
func GetUserID(ctx context.Context) (string, bool) {
	payload, ok := PayloadFromContext(ctx)
	if !ok {
		return "", false
	}
	return payload.UserID(), true
}

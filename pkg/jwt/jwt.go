package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/ZerkerEOD/appserver/pkg/debug"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultIssuer is used when no issuer is configured
	DefaultIssuer = "AppServer"
	// DefaultTTL is the lifetime of issued tokens
	DefaultTTL = 24 * time.Hour

	// unsafeFallbackSecret signs tokens when no secret is configured. Anyone
	// reading this source can forge tokens for such deployments.
	unsafeFallbackSecret = "CHANGE_ME_IN_PRODUCTION_THIS_IS_UNSAFE"

	tokenType = "JWS"
)

// ErrInvalidToken is returned for any token that fails verification
var ErrInvalidToken = errors.New("invalid token")

// Claims are the registered claims plus the user id and admin flag.
// Admin is untyped so a non-boolean adm claim does not break decoding.
type Claims struct {
	UserID string      `json:"uid"`
	Admin  interface{} `json:"adm,omitempty"`
	jwt.RegisteredClaims
}

// TokenPayload is the identity carried by a verified token. It is only
// produced by Service.Verify.
type TokenPayload struct {
	userID    string
	email     string
	isAdmin   bool
	issuedAt  time.Time
	expiresAt time.Time
}

func (p *TokenPayload) UserID() string       { return p.userID }
func (p *TokenPayload) Email() string        { return p.email }
func (p *TokenPayload) IsAdmin() bool        { return p.isAdmin }
func (p *TokenPayload) IssuedAt() time.Time  { return p.issuedAt }
func (p *TokenPayload) ExpiresAt() time.Time { return p.expiresAt }

// Service issues and verifies HS256 bearer tokens.
type Service struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithTTL overrides the token lifetime
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a token service. An empty secret falls back to a
// well-known key and logs a warning; deployments must configure one.
func NewService(secret, issuer string, opts ...Option) *Service {
	if secret == "" {
		debug.Warning("JWT signing secret not set! Using unsafe default.")
		secret = unsafeFallbackSecret
	}
	if issuer == "" {
		issuer = DefaultIssuer
	}

	s := &Service{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    DefaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issuer returns the issuer claim written into and required from tokens
func (s *Service) Issuer() string {
	return s.issuer
}

// Issue signs a token for the given user, valid from now for the service TTL.
func (s *Service) Issue(userID, email string, isAdmin bool) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: userID,
		Admin:  isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["typ"] = tokenType

	signed, err := token.SignedString(s.secret)
	if err != nil {
		debug.Error("Failed to sign token for user %s: %v", userID, err)
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm, issuer and expiry and returns the
// decoded payload. Every failure is reported as ErrInvalidToken.
func (s *Service) Verify(raw string) (*TokenPayload, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing uid claim", ErrInvalidToken)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrInvalidToken)
	}

	payload := &TokenPayload{
		userID: claims.UserID,
		email:  claims.Subject,
	}
	payload.isAdmin, _ = claims.Admin.(bool)
	if claims.IssuedAt != nil {
		payload.issuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		payload.expiresAt = claims.ExpiresAt.Time
	}
	return payload, nil
}

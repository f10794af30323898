// Package totp implements RFC 6238 time-based one-time codes for
// authenticator apps: secret generation, provisioning URIs and validation
// with a one-step drift window.
package totp

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base32"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ZerkerEOD/appserver/pkg/debug"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
	"github.com/skip2/go-qrcode"
)

const (
	// Alphabet is the RFC 4648 Base32 alphabet
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

	SecretLength = 32
	Digits       = 6
	Period       = 30
	Skew         = 1

	defaultQRSize = 256
)

var (
	// ErrNegativeStep is returned when a code is requested before the Unix epoch
	ErrNegativeStep = errors.New("time step must not be negative")
	// ErrEmptyKey is returned when a secret holds no Base32 symbols
	ErrEmptyKey = errors.New("secret decodes to an empty key")
)

// GenerateSecret returns SecretLength random symbols of the Base32 alphabet.
func GenerateSecret() (string, error) {
	raw := make([]byte, SecretLength)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	// 256 is a multiple of 32, so masking keeps every symbol equally likely.
	secret := make([]byte, SecretLength)
	for i, b := range raw {
		secret[i] = Alphabet[b&0x1f]
	}
	return string(secret), nil
}

// ProvisioningURI builds the otpauth:// URI consumed by authenticator apps.
// Issuer and email are inserted verbatim, without percent-encoding.
func ProvisioningURI(email, secret, issuer string) string {
	return fmt.Sprintf("otpauth://totp/%s:%s?secret=%s&issuer=%s&algorithm=SHA1&digits=%d&period=%d",
		issuer, email, secret, issuer, Digits, Period)
}

// ProvisioningQR renders uri as a PNG QR code. A non-positive size selects 256px.
func ProvisioningQR(uri string, size int) ([]byte, error) {
	if size <= 0 {
		size = defaultQRSize
	}
	png, err := qrcode.Encode(uri, qrcode.Medium, size)
	if err != nil {
		debug.Error("Failed to generate QR code: %v", err)
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}
	return png, nil
}

// ValidateCode checks code against the current time step and its neighbours.
func ValidateCode(secret, code string) bool {
	return ValidateCodeAt(secret, code, time.Now())
}

// ValidateCodeAt is ValidateCode with an explicit clock.
func ValidateCodeAt(secret, code string, now time.Time) bool {
	if secret == "" || !isSixDigits(code) {
		return false
	}

	key := decodeSecret(secret)
	if len(key) == 0 {
		return false
	}
	step := now.Unix() / Period
	for offset := int64(-Skew); offset <= Skew; offset++ {
		candidate, err := codeForKey(key, step+offset)
		if err != nil {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(code)) == 1 {
			return true
		}
	}
	return false
}

// CodeForStep returns the code for a given 30-second step.
func CodeForStep(secret string, step int64) (string, error) {
	return codeForKey(decodeSecret(secret), step)
}

// Step returns the time step containing t.
func Step(t time.Time) int64 {
	return t.Unix() / Period
}

func codeForKey(key []byte, step int64) (string, error) {
	if len(key) == 0 {
		return "", ErrEmptyKey
	}
	if step < 0 {
		return "", ErrNegativeStep
	}
	// Key bytes are re-encoded canonically so hotp never sees foreign characters.
	return hotp.GenerateCodeCustom(base32.StdEncoding.EncodeToString(key), uint64(step), hotp.ValidateOpts{
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
}

// decodeSecret decodes Base32 case-insensitively, skipping characters outside
// the alphabet (padding, spaces, dashes) and dropping trailing partial bits.
func decodeSecret(secret string) []byte {
	out := make([]byte, 0, len(secret)*5/8)
	var buffer uint32
	bits := 0
	for _, c := range strings.ToUpper(secret) {
		idx := strings.IndexRune(Alphabet, c)
		if idx < 0 {
			continue
		}
		buffer = buffer<<5 | uint32(idx)
		bits += 5
		if bits >= 8 {
			out = append(out, byte(buffer>>(bits-8)))
			bits -= 8
		}
	}
	return out
}

func isSixDigits(code string) bool {
	if len(code) != Digits {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

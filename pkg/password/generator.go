package password

import (
	"crypto/rand"
	"math/big"

	"github.com/ZerkerEOD/appserver/pkg/debug"
)

const (
	alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// DefaultRandomLength is used when GenerateRandom is called with a non-positive length
	DefaultRandomLength = 12
)

// GenerateRandom returns length characters drawn from the 62-symbol
// alphanumeric alphabet. Each symbol is one uniform draw over exactly
// len(alphanumeric) values. Returns "" if the random source fails.
func GenerateRandom(length int) string {
	if length <= 0 {
		length = DefaultRandomLength
	}

	max := big.NewInt(int64(len(alphanumeric)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			debug.Error("failed to draw random character: %v", err)
			return ""
		}
		out[i] = alphanumeric[n.Int64()]
	}
	return string(out)
}

// GenerateTemporaryPassword generates a 12 character temporary password
func GenerateTemporaryPassword() string {
	return GenerateRandom(DefaultRandomLength)
}

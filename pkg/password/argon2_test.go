package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/argon2"
)

func TestHashAndVerify(t *testing.T) {
	encoded := Hash("correct horse battery staple")
	require.NotEmpty(t, encoded)

	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=65536,t=3,p=4$"))
	assert.True(t, Verify("correct horse battery staple", encoded))
	assert.False(t, Verify("correct horse battery stapler", encoded))
	assert.False(t, Verify("", encoded))
}

func TestHashUsesFreshSalt(t *testing.T) {
	first := Hash("s3cret")
	second := Hash("s3cret")
	require.NotEmpty(t, first)
	require.NotEmpty(t, second)

	assert.NotEqual(t, first, second)
	assert.True(t, Verify("s3cret", first))
	assert.True(t, Verify("s3cret", second))
}

func TestVerifyRejectsMalformed(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
	}{
		{"empty", ""},
		{"garbage", "not-a-hash"},
		{"bcrypt", "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"},
		{"argon2i", "$argon2i$v=19$m=65536,t=3,p=4$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA"},
		{"old version", "$argon2id$v=16$m=65536,t=3,p=4$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA"},
		{"missing params", "$argon2id$v=19$$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA"},
		{"zero memory", "$argon2id$v=19$m=0,t=3,p=4$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA"},
		{"huge memory", "$argon2id$v=19$m=99999999,t=3,p=4$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA"},
		{"bad salt", "$argon2id$v=19$m=65536,t=3,p=4$!!!$aGFzaGhhc2hoYXNoaGFzaA"},
		{"unknown param", "$argon2id$v=19$m=65536,t=3,x=4$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA"},
		{"too few parts", "$argon2id$v=19$m=65536,t=3,p=4$c2FsdHNhbHRzYWx0c2FsdA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.False(t, Verify("password", tt.encoded))
			})
		})
	}
}

func TestVerifyHonorsEncodedParameters(t *testing.T) {
	// Cheap parameters so the test stays fast; Verify must read them from the string.
	encoded := "$argon2id$v=19$m=8,t=1,p=1$c29tZXNhbHQ$"
	encoded += b64.EncodeToString(argon2.IDKey([]byte("password"), []byte("somesalt"), 1, 8, 1, 32))

	assert.True(t, Verify("password", encoded))
	assert.False(t, Verify("Password", encoded))
	assert.True(t, NeedsRehash(encoded))
}

func TestNeedsRehash(t *testing.T) {
	assert.True(t, NeedsRehash(""))
	assert.True(t, NeedsRehash("$argon2id$v=19$m=4096,t=3,p=4$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaGhhc2hoYXNoaGFzaGg"))
	assert.False(t, NeedsRehash(Hash("whatever")))
}

func TestGenerateRandom(t *testing.T) {
	t.Run("default length", func(t *testing.T) {
		assert.Len(t, GenerateRandom(0), DefaultRandomLength)
		assert.Len(t, GenerateTemporaryPassword(), DefaultRandomLength)
	})

	t.Run("requested length and alphabet", func(t *testing.T) {
		got := GenerateRandom(64)
		require.Len(t, got, 64)
		for _, c := range got {
			assert.True(t, strings.ContainsRune(alphanumeric, c), "unexpected character %q", c)
		}
	})

	t.Run("alphabet size", func(t *testing.T) {
		assert.Len(t, alphanumeric, 62)
	})

	t.Run("all symbols reachable", func(t *testing.T) {
		seen := make(map[rune]bool)
		for i := 0; i < 50 && len(seen) < len(alphanumeric); i++ {
			for _, c := range GenerateRandom(100) {
				seen[c] = true
			}
		}
		assert.Len(t, seen, len(alphanumeric))
	})
}

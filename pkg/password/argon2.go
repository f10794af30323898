package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ZerkerEOD/appserver/pkg/debug"
	"golang.org/x/crypto/argon2"
)

// Argon2id parameters (OWASP recommendation: 3 passes over 64 MiB on 4 lanes).
const (
	TimeCost    uint32 = 3
	MemoryCost  uint32 = 64 * 1024
	Parallelism uint8  = 4
	SaltLength         = 16
	KeyLength   uint32 = 32

	algorithmID = "argon2id"

	// Upper bounds for parameters read back from stored hashes.
	maxMemoryCost uint32 = 1024 * 1024
	maxTimeCost   uint32 = 64
	maxKeyLength         = 1024
)

var (
	// ErrMalformedHash is returned when an encoded hash cannot be parsed
	ErrMalformedHash = errors.New("malformed password hash")
	// ErrUnsupportedHash is returned for other algorithms or argon2 versions
	ErrUnsupportedHash = errors.New("unsupported password hash")
)

var b64 = base64.RawStdEncoding

type params struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

// Hash derives an Argon2id hash of plaintext with a fresh random salt and
// returns it in the self-describing $argon2id$v=19$m=..,t=..,p=..$salt$hash form.
// An empty string is returned if the salt could not be generated.
//
// Hashing deliberately costs tens of milliseconds and 64 MiB; keep it off
// latency-sensitive paths.
func Hash(plaintext string) string {
	salt := make([]byte, SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		debug.Error("failed to generate password salt: %v", err)
		return ""
	}

	key := argon2.IDKey([]byte(plaintext), salt, TimeCost, MemoryCost, Parallelism, KeyLength)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		MemoryCost,
		TimeCost,
		Parallelism,
		b64.EncodeToString(salt),
		b64.EncodeToString(key),
	)
}

// Verify reports whether plaintext matches the encoded hash. It returns false
// for empty or malformed input instead of an error.
func Verify(plaintext, encoded string) bool {
	if encoded == "" {
		return false
	}

	p, err := decode(encoded)
	if err != nil {
		debug.Debug("rejecting password hash: %v", err)
		return false
	}

	computed := argon2.IDKey([]byte(plaintext), p.salt, p.time, p.memory, p.parallelism, uint32(len(p.key)))
	return subtle.ConstantTimeCompare(computed, p.key) == 1
}

// NeedsRehash reports whether encoded was produced with weaker parameters
// than the current defaults, or cannot be parsed at all.
func NeedsRehash(encoded string) bool {
	p, err := decode(encoded)
	if err != nil {
		return true
	}
	return p.memory < MemoryCost ||
		p.time < TimeCost ||
		p.parallelism < Parallelism ||
		uint32(len(p.key)) < KeyLength
}

func decode(encoded string) (*params, error) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, hash
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, ErrMalformedHash
	}
	if parts[1] != algorithmID {
		return nil, fmt.Errorf("%w: algorithm %q", ErrUnsupportedHash, parts[1])
	}

	version, ok := strings.CutPrefix(parts[2], "v=")
	if !ok {
		return nil, ErrMalformedHash
	}
	if v, err := strconv.Atoi(version); err != nil || v != argon2.Version {
		return nil, fmt.Errorf("%w: version %q", ErrUnsupportedHash, version)
	}

	p := &params{}
	for _, kv := range strings.Split(parts[3], ",") {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, ErrMalformedHash
		}
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return nil, ErrMalformedHash
		}
		switch name {
		case "m":
			p.memory = uint32(n)
		case "t":
			p.time = uint32(n)
		case "p":
			if n > 255 {
				return nil, ErrMalformedHash
			}
			p.parallelism = uint8(n)
		default:
			return nil, ErrMalformedHash
		}
	}
	if p.memory == 0 || p.memory > maxMemoryCost ||
		p.time == 0 || p.time > maxTimeCost ||
		p.parallelism == 0 {
		return nil, ErrMalformedHash
	}

	var err error
	if p.salt, err = b64.DecodeString(strings.TrimRight(parts[4], "=")); err != nil || len(p.salt) == 0 {
		return nil, ErrMalformedHash
	}
	if p.key, err = b64.DecodeString(strings.TrimRight(parts[5], "=")); err != nil || len(p.key) == 0 || len(p.key) > maxKeyLength {
		return nil, ErrMalformedHash
	}

	return p, nil
}

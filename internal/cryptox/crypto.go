// Package cryptox implements the one-way hashing used for passwords and stored
// values, plus the content digest used for export change detection.
//
// Secrets are hashed with Argon2id and encoded in the PHC string format:
//
//	$argon2id$v=19$m=65536,t=3,p=2$<base64 salt>$<base64 key>
//
// The encoding carries its own parameters, so hashes produced with older
// settings keep verifying after the defaults change.
package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Params are the Argon2id cost parameters.
type Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	SaltLen uint32
	KeyLen  uint32
}

// DefaultParams is used by HashSecret.
var DefaultParams = Params{
	Time:    3,
	Memory:  64 * 1024,
	Threads: 2,
	SaltLen: 16,
	KeyLen:  32,
}

var (
	ErrMalformedHash       = errors.New("malformed hash")
	ErrIncompatibleVersion = errors.New("incompatible argon2 version")
	ErrUnsupportedAlgo     = errors.New("unsupported hash algorithm")
)

var b64 = base64.RawStdEncoding

// HashSecret hashes secret with a fresh random salt using DefaultParams.
// Two calls with the same secret never return the same string.
func HashSecret(secret string) (string, error) {
	return HashSecretWithParams(secret, DefaultParams)
}

// HashSecretWithParams is HashSecret with explicit cost parameters.
func HashSecretWithParams(secret string, p Params) (string, error) {
	salt, err := GenerateRandByteArray(int(p.SaltLen))
	if err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}
	key := argon2.IDKey([]byte(secret), salt, p.Time, p.Memory, p.Threads, p.KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Time, p.Threads,
		b64.EncodeToString(salt), b64.EncodeToString(key)), nil
}

// VerifySecret reports whether secret matches the encoded hash. The
// comparison is constant-time. A non-nil error means the encoded hash could
// not be parsed; callers that must not distinguish failure causes should treat
// it as a mismatch.
func VerifySecret(secret, encoded string) (bool, error) {
	p, salt, key, err := decodeHash(encoded)
	if err != nil {
		return false, err
	}
	other := argon2.IDKey([]byte(secret), salt, p.Time, p.Memory, p.Threads, p.KeyLen)
	return subtle.ConstantTimeCompare(key, other) == 1, nil
}

func decodeHash(encoded string) (p Params, salt, key []byte, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return p, nil, nil, ErrMalformedHash
	}
	if parts[1] != "argon2id" {
		return p, nil, nil, ErrUnsupportedAlgo
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return p, nil, nil, ErrMalformedHash
	}
	if version != argon2.Version {
		return p, nil, nil, ErrIncompatibleVersion
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return p, nil, nil, ErrMalformedHash
	}
	if p.Time == 0 || p.Memory == 0 || p.Threads == 0 {
		return p, nil, nil, ErrMalformedHash
	}

	salt, err = b64.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return p, nil, nil, ErrMalformedHash
	}
	key, err = b64.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, ErrMalformedHash
	}
	p.SaltLen = uint32(len(salt))
	p.KeyLen = uint32(len(key))

	return p, salt, key, nil
}

// ContentHash returns the lower-case hex SHA-256 digest of data. It is used
// for change detection only, never for secrets.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"

	"github.com/google/uuid"
)

const refreshSecretSize = 48

// ErrEmptySecret is returned when hashing an empty credential.
var ErrEmptySecret = errors.New("empty secret")

// NewID returns a random UUIDv4 string used for session and ledger ids.
func NewID() string {
	return uuid.NewString()
}

// NewRefreshSecret returns a fresh raw refresh credential (base64url, no padding).
// The raw value is handed to the client once and never persisted.
func NewRefreshSecret() (string, error) {
	var secret [refreshSecretSize]byte
	if _, err := rand.Read(secret[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(secret[:]), nil
}

// HashRefreshSecret returns the hex sha256 of a raw refresh credential.
func HashRefreshSecret(raw string) (string, error) {
	if raw == "" {
		return "", ErrEmptySecret
	}
	return HashString(raw), nil
}

// HashString is the shared one-way digest for credentials and bearer tokens.
func HashString(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
)

// refreshTokenBytes is the entropy of a raw refresh token (512 bits).
const refreshTokenBytes = 64

// GenerateRefreshToken returns a new opaque refresh token: 64 random bytes,
// URL-safe base64 without padding. The raw value is disclosed to the client
// exactly once; only its hash is ever persisted.
func GenerateRefreshToken() (string, error) {
	b := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateVerificationToken returns a hex token for email verification links (256 bits).
func GenerateVerificationToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// HashRefreshToken returns a SHA-256 hash of the refresh token string, hex-encoded.
// Sessions are looked up by this digest; the raw token is never stored.
func HashRefreshToken(token string) string {
	return sha256Hex(token)
}

// HashVerificationToken returns the stored digest of an email verification token.
func HashVerificationToken(token string) string {
	return sha256Hex(token)
}

func sha256Hex(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// RefreshTokenHashEqual performs constant-time comparison of the provided token's
// hash with the stored hash. Returns true only if they match.
func RefreshTokenHashEqual(providedToken, storedHash string) bool {
	providedHash := HashRefreshToken(providedToken)
	return subtle.ConstantTimeCompare([]byte(providedHash), []byte(storedHash)) == 1
}

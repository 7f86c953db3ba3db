package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// verifierBytes is the amount of entropy backing a code verifier. RFC 7636
// requires at least 32 bytes before encoding.
const verifierBytes = 32

// Params is a one-time PKCE verifier/challenge pair. The verifier is secret:
// it lives only in memory for the duration of one authorization attempt and
// must never be persisted or logged.
type Params struct {
	Verifier  string
	Challenge string
}

// GeneratePKCE produces a fresh verifier from the system randomness source
// together with its derived S256 challenge. Exhaustion of the randomness
// source is the only failure mode and is fatal to the authorization attempt.
func GeneratePKCE() (Params, error) {
	buf := make([]byte, verifierBytes)
	if _, err := rand.Read(buf); err != nil {
		return Params{}, fmt.Errorf("failed to read random bytes: %w", err)
	}
	verifier := base64.RawURLEncoding.EncodeToString(buf)
	return Params{
		Verifier:  verifier,
		Challenge: ChallengeS256(verifier),
	}, nil
}

// ChallengeS256 derives a code challenge from a verifier: the URL-safe,
// unpadded base64 encoding of the SHA-256 digest of the verifier bytes.
func ChallengeS256(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"testing"
)

func TestGeneratePKCE_ChallengeDerivation(t *testing.T) {
	p, err := GeneratePKCE()
	if err != nil {
		t.Fatalf("GeneratePKCE() error = %v", err)
	}

	sum := sha256.Sum256([]byte(p.Verifier))
	want := base64.RawURLEncoding.EncodeToString(sum[:])
	if p.Challenge != want {
		t.Errorf("Challenge = %s, want %s", p.Challenge, want)
	}
}

func TestGeneratePKCE_VerifierEntropy(t *testing.T) {
	p, err := GeneratePKCE()
	if err != nil {
		t.Fatalf("GeneratePKCE() error = %v", err)
	}

	if strings.ContainsAny(p.Verifier, "=+/") {
		t.Errorf("Verifier %q is not URL-safe unpadded base64", p.Verifier)
	}

	raw, err := base64.RawURLEncoding.DecodeString(p.Verifier)
	if err != nil {
		t.Fatalf("Verifier is not valid base64url: %v", err)
	}
	if len(raw) < 32 {
		t.Errorf("Verifier decodes to %d bytes, want at least 32", len(raw))
	}
}

func TestGeneratePKCE_Uniqueness(t *testing.T) {
	a, err := GeneratePKCE()
	if err != nil {
		t.Fatalf("GeneratePKCE() error = %v", err)
	}
	b, err := GeneratePKCE()
	if err != nil {
		t.Fatalf("GeneratePKCE() error = %v", err)
	}

	if a.Verifier == b.Verifier {
		t.Errorf("two independently generated verifiers are equal: %s", a.Verifier)
	}
}

func TestChallengeS256_KnownVector(t *testing.T) {
	// Test vector from RFC 7636 appendix B.
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	want := "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"

	if got := ChallengeS256(verifier); got != want {
		t.Errorf("ChallengeS256(%q) = %s, want %s", verifier, got, want)
	}

	// Deterministic for the same verifier.
	if ChallengeS256(verifier) != ChallengeS256(verifier) {
		t.Error("ChallengeS256 is not deterministic")
	}
}

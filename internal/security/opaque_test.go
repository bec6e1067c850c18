package security

import (
	"encoding/base64"
	"testing"
)

func TestGenerateRefreshToken(t *testing.T) {
	tok, err := GenerateRefreshToken()
	if err != nil {
		t.Fatalf("GenerateRefreshToken: %v", err)
	}
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil {
		t.Fatalf("token is not URL-safe base64: %v", err)
	}
	if len(raw) != refreshTokenBytes {
		t.Errorf("token entropy = %d bytes, want %d", len(raw), refreshTokenBytes)
	}

	tok2, err := GenerateRefreshToken()
	if err != nil {
		t.Fatalf("GenerateRefreshToken: %v", err)
	}
	if tok == tok2 {
		t.Error("two generated tokens are identical")
	}
}

func TestGenerateVerificationToken(t *testing.T) {
	tok, err := GenerateVerificationToken()
	if err != nil {
		t.Fatalf("GenerateVerificationToken: %v", err)
	}
	if len(tok) != 64 { // 32 bytes hex-encoded
		t.Errorf("token length = %d, want 64", len(tok))
	}
}

func TestHashRefreshToken(t *testing.T) {
	h1 := HashRefreshToken("token-a")
	h2 := HashRefreshToken("token-a")
	h3 := HashRefreshToken("token-b")
	if h1 != h2 {
		t.Error("same token hashed to different values")
	}
	if h1 == h3 {
		t.Error("different tokens hashed to same value")
	}
	if len(h1) != 64 { // sha256 hex
		t.Errorf("hash length = %d, want 64", len(h1))
	}
}

func TestRefreshTokenHashEqual(t *testing.T) {
	tok, _ := GenerateRefreshToken()
	stored := HashRefreshToken(tok)
	if !RefreshTokenHashEqual(tok, stored) {
		t.Error("matching token not recognized")
	}
	if RefreshTokenHashEqual("fabricated", stored) {
		t.Error("non-matching token recognized")
	}
}

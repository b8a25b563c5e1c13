package auth

import (
	"testing"
	"time"
)

func TestGenerateAndValidate_Success(t *testing.T) {
	Init("test-secret", time.Hour)

	userID := "3b9f2a64-1f0e-4a8c-9a6e-1df1c7a20b11"
	tok, err := GenerateToken(userID)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	got, err := ValidateToken(tok)
	if err != nil {
		t.Fatalf("ValidateToken error: %v", err)
	}
	if got != userID {
		t.Fatalf("userID mismatch: got %q want %q", got, userID)
	}
}

func TestValidateToken_Expired(t *testing.T) {
	Init("test-secret", -1*time.Second)

	tok, err := GenerateToken("u1")
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	if _, err = ValidateToken(tok); err == nil {
		t.Fatalf("expected error for expired token, got nil")
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	Init("right-secret", time.Hour)
	tok, err := GenerateToken("u2")
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	Init("wrong-secret", time.Hour)
	if _, err = ValidateToken(tok); err == nil {
		t.Fatalf("expected error for invalid signature, got nil")
	}
}

func TestValidateToken_Malformed(t *testing.T) {
	Init("k", time.Hour)

	if _, err := ValidateToken("not.a.jwt"); err == nil {
		t.Fatalf("expected error for malformed token, got nil")
	}
}

package auth

import (
	"testing"
	"time"
)

func TestTokenRoundtrip(t *testing.T) {
	tm := NewTokenManager("test-secret", "instahyre")

	token, err := tm.GenerateToken("u1", "9000000001", "Alice", time.Hour)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	claims, err := tm.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if claims.UserID != "u1" || claims.Phone != "9000000001" || claims.Name != "Alice" {
		t.Errorf("claims mismatch: %+v", claims)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	tm := NewTokenManager("test-secret", "instahyre")
	other := NewTokenManager("different-secret", "instahyre")

	token, err := tm.GenerateToken("u1", "9000000001", "Alice", time.Hour)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if _, err := other.ValidateToken(token); err == nil {
		t.Error("expected validation to fail with a different secret")
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	tm := NewTokenManager("test-secret", "instahyre")

	token, err := tm.GenerateToken("u1", "9000000001", "Alice", -time.Minute)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if _, err := tm.ValidateToken(token); err == nil {
		t.Error("expected expired token to be rejected")
	}
}

func TestExtractToken(t *testing.T) {
	if got, err := ExtractToken("Bearer abc.def.ghi"); err != nil || got != "abc.def.ghi" {
		t.Errorf("ExtractToken = %q, %v", got, err)
	}
	if _, err := ExtractToken("abc.def.ghi"); err == nil {
		t.Error("expected error without Bearer prefix")
	}
	if _, err := ExtractToken(""); err == nil {
		t.Error("expected error for empty header")
	}
}

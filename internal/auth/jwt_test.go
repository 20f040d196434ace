package auth

import (
	"strings"
	"testing"
)

func TestTokenRoundTrip(t *testing.T) {
	ts := NewTokenService("test-secret")

	token, err := ts.GenerateAccessToken("123456789012345678")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	claims, err := ts.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken: %v", err)
	}
	if claims.UserID != "123456789012345678" {
		t.Errorf("UserID = %q", claims.UserID)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, err := NewTokenService("secret-a").GenerateAccessToken("u1")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if _, err := NewTokenService("secret-b").ValidateAccessToken(token); err == nil {
		t.Error("expected validation to fail with a different secret")
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	ts := NewTokenService("test-secret")
	if _, err := ts.ValidateAccessToken("not.a.jwt"); err == nil {
		t.Error("expected validation to fail for garbage input")
	}
}

func TestValidateRejectsTampering(t *testing.T) {
	ts := NewTokenService("test-secret")
	token, err := ts.GenerateAccessToken("u1")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	parts := strings.Split(token, ".")
	tampered := parts[0] + ".eyJ1c2VyX2lkIjoidTIifQ." + parts[2]
	if _, err := ts.ValidateAccessToken(tampered); err == nil {
		t.Error("expected validation to fail for a tampered payload")
	}
}

package auth

import (
	"testing"
	"time"
)

func TestIssueAndParseToken(t *testing.T) {
	secret := []byte("test-secret")

	token, err := IssueToken(secret, time.Hour, "u-1", "r-1", RoleAdmin)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	claims, err := ParseToken(secret, token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != "u-1" {
		t.Errorf("user id = %q, want u-1", claims.UserID)
	}
	if claims.RoleName != RoleAdmin {
		t.Errorf("role = %q, want admin", claims.RoleName)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := IssueToken([]byte("one"), time.Hour, "u-1", "r-1", RoleMember)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if _, err := ParseToken([]byte("two"), token); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestParseTokenExpired(t *testing.T) {
	secret := []byte("test-secret")
	token, err := IssueToken(secret, -time.Minute, "u-1", "r-1", RoleMember)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if _, err := ParseToken(secret, token); err == nil {
		t.Fatal("expected error for expired token")
	}
}

package httpapi

import (
	"testing"
	"time"
)

func newTestAuthenticator(ttl time.Duration, now func() time.Time) *Authenticator {
	return NewAuthenticator(Config{
		TokenSecret: "test-signing-key",
		TokenIssuer: "arena",
		TokenTTL:    ttl,
	}, now)
}

func TestTokenRoundTrip(test *testing.T) {
	test.Parallel()
	auth := newTestAuthenticator(time.Hour, nil)
	token, err := auth.IssueToken(42, false)
	if err != nil {
		test.Fatalf("issue token: %v", err)
	}
	userID, admin, err := auth.ParseToken(token)
	if err != nil {
		test.Fatalf("parse token: %v", err)
	}
	if userID != 42 {
		test.Fatalf("expected user 42, got %d", userID)
	}
	if admin {
		test.Fatal("expected a non-admin token")
	}
}

func TestAdminClaimRoundTrip(test *testing.T) {
	test.Parallel()
	auth := newTestAuthenticator(time.Hour, nil)
	token, err := auth.IssueToken(7, true)
	if err != nil {
		test.Fatalf("issue token: %v", err)
	}
	userID, admin, err := auth.ParseToken(token)
	if err != nil {
		test.Fatalf("parse token: %v", err)
	}
	if userID != 7 || !admin {
		test.Fatalf("expected admin token for user 7, got user %d admin %v", userID, admin)
	}
}

func TestExpiredTokenRejected(test *testing.T) {
	test.Parallel()
	issuedAt := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	issuing := newTestAuthenticator(time.Hour, func() time.Time { return issuedAt })
	token, err := issuing.IssueToken(7, false)
	if err != nil {
		test.Fatalf("issue token: %v", err)
	}
	verifying := newTestAuthenticator(time.Hour, func() time.Time { return issuedAt.Add(2 * time.Hour) })
	if _, _, err := verifying.ParseToken(token); err == nil {
		test.Fatal("expected expired token to be rejected")
	}
}

func TestTokenFromDifferentIssuerRejected(test *testing.T) {
	test.Parallel()
	other := NewAuthenticator(Config{
		TokenSecret: "test-signing-key",
		TokenIssuer: "someone-else",
		TokenTTL:    time.Hour,
	}, nil)
	token, err := other.IssueToken(7, false)
	if err != nil {
		test.Fatalf("issue token: %v", err)
	}
	auth := newTestAuthenticator(time.Hour, nil)
	if _, _, err := auth.ParseToken(token); err == nil {
		test.Fatal("expected token with foreign issuer to be rejected")
	}
}

func TestTokenSignedWithDifferentKeyRejected(test *testing.T) {
	test.Parallel()
	other := NewAuthenticator(Config{
		TokenSecret: "some-other-key",
		TokenIssuer: "arena",
		TokenTTL:    time.Hour,
	}, nil)
	token, err := other.IssueToken(7, false)
	if err != nil {
		test.Fatalf("issue token: %v", err)
	}
	auth := newTestAuthenticator(time.Hour, nil)
	if _, _, err := auth.ParseToken(token); err == nil {
		test.Fatal("expected token signed with a different key to be rejected")
	}
}

func TestPasswordHashRoundTrip(test *testing.T) {
	test.Parallel()
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		test.Fatalf("hash password: %v", err)
	}
	if !CheckPassword(hash, "correct horse battery staple") {
		test.Fatal("expected matching password to verify")
	}
	if CheckPassword(hash, "wrong password") {
		test.Fatal("expected mismatched password to fail")
	}
}

func TestParseAllowedOrigins(test *testing.T) {
	test.Parallel()
	origins := ParseAllowedOrigins(" http://localhost:5173 , https://arena.example.com ,")
	if len(origins) != 2 {
		test.Fatalf("expected 2 origins, got %v", origins)
	}
	if origins[0] != "http://localhost:5173" || origins[1] != "https://arena.example.com" {
		test.Fatalf("unexpected origins %v", origins)
	}
}

package util

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestTokenIssuerAndParserRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("top-secret", time.Minute)
	parser := NewTokenParser("top-secret")

	userID := uuid.New()
	token, expiresAt, err := issuer.Issue(userID, "pilgrim@example.com")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if expiresAt.Before(time.Now()) {
		t.Fatalf("expected expiry in the future")
	}

	identity, err := parser.Identity(token)
	if err != nil {
		t.Fatalf("Identity returned error: %v", err)
	}
	if identity.UserID != userID {
		t.Fatalf("expected user id %s, got %s", userID, identity.UserID)
	}
	if identity.Email != "pilgrim@example.com" {
		t.Fatalf("expected email claim, got %q", identity.Email)
	}
	if identity.AccessToken != token {
		t.Fatalf("expected access token to be kept on the identity")
	}
}

func TestTokenParserRejectsWrongSecret(t *testing.T) {
	token, _, err := NewTokenIssuer("secret-a", time.Minute).Issue(uuid.New(), "")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if _, err := NewTokenParser("secret-b").Identity(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenParserUnverifiedReadsClaims(t *testing.T) {
	userID := uuid.New()
	token, _, err := NewTokenIssuer("provider-secret", time.Minute).Issue(userID, "")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	identity, err := NewTokenParser("").Identity(token)
	if err != nil {
		t.Fatalf("Identity returned error: %v", err)
	}
	if identity.UserID != userID {
		t.Fatalf("expected user id %s, got %s", userID, identity.UserID)
	}
}

func TestTokenParserExpiredToken(t *testing.T) {
	token, _, err := NewTokenIssuer("secret", time.Minute).Issue(uuid.New(), "")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	for _, secret := range []string{"secret", ""} {
		parser := NewTokenParser(secret)
		parser.now = func() time.Time { return time.Now().Add(time.Hour) }
		if _, err := parser.Identity(token); !errors.Is(err, ErrTokenExpired) {
			t.Fatalf("secret %q: expected ErrTokenExpired, got %v", secret, err)
		}
	}
}

func TestTokenParserRejectsGarbage(t *testing.T) {
	if _, err := NewTokenParser("").Identity("not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := NewTokenParser("").Identity("   "); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for blank token, got %v", err)
	}
}

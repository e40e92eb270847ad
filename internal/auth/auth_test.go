package auth

import (
	"errors"
	"testing"
	"time"
)

func newTestService(t *testing.T, secret string) *Service {
	t.Helper()
	hash, err := HashSecret(secret)
	if err != nil {
		t.Fatalf("Failed to hash secret: %v", err)
	}
	return NewService(Config{
		SecretHash:    hash,
		JWTSecret:     "test-signing-key",
		TokenDuration: time.Minute,
	})
}

// TestAuthenticate tests the shared-secret comparison.
func TestAuthenticate(t *testing.T) {
	svc := newTestService(t, "correct-horse")

	t.Run("Correct secret issues a token", func(t *testing.T) {
		token, err := svc.Authenticate("correct-horse")
		if err != nil {
			t.Fatalf("Expected token, got error: %v", err)
		}
		if token == "" {
			t.Error("Expected non-empty token")
		}
	})

	t.Run("Wrong secret is rejected", func(t *testing.T) {
		_, err := svc.Authenticate("battery-staple")
		if !errors.Is(err, ErrInvalidSecret) {
			t.Errorf("Expected ErrInvalidSecret, got %v", err)
		}
	})

	t.Run("Missing hash is rejected as unconfigured", func(t *testing.T) {
		unconfigured := NewService(Config{JWTSecret: "key"})
		_, err := unconfigured.Authenticate("anything")
		if !errors.Is(err, ErrNotConfigured) {
			t.Errorf("Expected ErrNotConfigured, got %v", err)
		}
	})
}

// TestValidateToken tests session token validation.
func TestValidateToken(t *testing.T) {
	svc := newTestService(t, "correct-horse")

	t.Run("Fresh token validates with admin claim", func(t *testing.T) {
		token, err := svc.Authenticate("correct-horse")
		if err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}

		claims, err := svc.ValidateToken(token)
		if err != nil {
			t.Fatalf("Expected valid token, got error: %v", err)
		}
		if !claims.Admin {
			t.Error("Expected admin claim set")
		}
		if claims.Issuer != "skyframe" {
			t.Errorf("Expected skyframe issuer, got %s", claims.Issuer)
		}
	})

	t.Run("Garbage token is rejected", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.token")
		if !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("Token signed with a different key is rejected", func(t *testing.T) {
		other := NewService(Config{
			SecretHash:    svc.config.SecretHash,
			JWTSecret:     "some-other-key",
			TokenDuration: time.Minute,
		})
		token, err := other.Authenticate("correct-horse")
		if err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}

		_, err = svc.ValidateToken(token)
		if !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("Expired token is rejected", func(t *testing.T) {
		hash, _ := HashSecret("correct-horse")
		expired := NewService(Config{
			SecretHash:    hash,
			JWTSecret:     "test-signing-key",
			TokenDuration: -time.Minute,
		})
		token, err := expired.Authenticate("correct-horse")
		if err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}

		_, err = expired.ValidateToken(token)
		if !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Expected ErrInvalidToken for expired token, got %v", err)
		}
	})
}

// TestHashSecret tests that hashing is salted and verifiable.
func TestHashSecret(t *testing.T) {
	h1, err := HashSecret("secret")
	if err != nil {
		t.Fatalf("HashSecret failed: %v", err)
	}
	h2, err := HashSecret("secret")
	if err != nil {
		t.Fatalf("HashSecret failed: %v", err)
	}
	if h1 == h2 {
		t.Error("Expected salted hashes to differ")
	}
}

// Package auth guards the admin surface with a single shared secret. A
// successful secret comparison issues a short-lived JWT for the admin
// session; there are no users or roles.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidSecret is returned when the shared secret does not match
	ErrInvalidSecret = errors.New("invalid shared secret")
	// ErrInvalidToken is returned when token validation fails
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrNotConfigured is returned when no secret hash was configured
	ErrNotConfigured = errors.New("admin secret not configured")
)

// Claims represents the JWT claims for an admin session.
type Claims struct {
	Admin bool `json:"admin"`
	jwt.RegisteredClaims
}

// Config holds authentication configuration.
type Config struct {
	// SecretHash is the bcrypt hash of the shared admin secret
	SecretHash string

	// JWTSecret signs session tokens
	JWTSecret string

	// TokenDuration is how long session tokens are valid
	TokenDuration time.Duration
}

// Service provides the shared-secret comparison and session tokens.
type Service struct {
	config Config
}

// NewService creates a new authentication service.
func NewService(cfg Config) *Service {
	if cfg.TokenDuration == 0 {
		cfg.TokenDuration = time.Hour
	}
	return &Service{config: cfg}
}

// HashSecret hashes a plaintext shared secret for storage in config.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Authenticate compares the presented secret against the configured hash
// and, on success, issues a session token.
func (s *Service) Authenticate(secret string) (string, error) {
	if s.config.SecretHash == "" {
		return "", ErrNotConfigured
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.config.SecretHash), []byte(secret)); err != nil {
		return "", ErrInvalidSecret
	}
	return s.generateToken()
}

// generateToken issues a signed admin session token.
func (s *Service) generateToken() (string, error) {
	now := time.Now()
	claims := &Claims{
		Admin: true,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "skyframe",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ValidateToken validates a session token and returns its claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.Admin {
		return claims, nil
	}

	return nil, ErrInvalidToken
}

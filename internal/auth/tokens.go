package auth

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"docuvault/internal/domain"
	"docuvault/internal/domain/models"
)

// Claims are the token claims carried for an authenticated user.
type Claims struct {
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies signed tokens.
type TokenManager interface {
	// IssueToken signs a token for the user. Returns the token and its expiry.
	IssueToken(user *models.User) (string, time.Time, error)

	// VerifyToken validates a token string and returns its claims.
	// Returns an error if the token is invalid, expired, or has an invalid signature.
	VerifyToken(tokenString string) (*Claims, error)
}

// HMACTokenManager implements TokenManager with an HS256 shared secret.
type HMACTokenManager struct {
	secret []byte
	ttl    time.Duration
	logger *slog.Logger
}

// NewTokenManager creates a token manager signing with the given secret.
func NewTokenManager(secret string, ttl time.Duration, logger *slog.Logger) (*HMACTokenManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("token secret cannot be empty")
	}
	return &HMACTokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		logger: logger,
	}, nil
}

// IssueToken signs a token for the user
func (m *HMACTokenManager) IssueToken(user *models.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(m.ttl)

	claims := Claims{
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// VerifyToken validates a token string and returns its claims
func (m *HMACTokenManager) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Prevent algorithm confusion attacks, allow only HS256
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method %s", t.Method.Alg())
		}
		return m.secret, nil
	})
	if err != nil {
		m.logger.Debug("token verification failed", "error", err)
		return nil, domain.ErrUnauthorized
	}
	if !token.Valid {
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if claims.Subject == "" {
		return nil, domain.ErrUnauthorized
	}
	if !claims.Role.Valid() {
		m.logger.Warn("token carries unknown role", "role", claims.Role, "user_id", claims.Subject)
		return nil, domain.ErrUnauthorized
	}

	return claims, nil
}

var _ TokenManager = (*HMACTokenManager)(nil)

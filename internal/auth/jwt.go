// Package auth turns bearer tokens into users with resolved capabilities.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vitingo/advance-workflow/internal/domain/entity"
)

var (
	// ErrMissingToken is returned when no bearer token is present
	ErrMissingToken = errors.New("authorization is required")

	// ErrInvalidToken is returned for bad signatures, expiry or missing claims
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Config holds token verification settings
type Config struct {
	Secret string
	// Issuer is checked when set
	Issuer string
}

// Claims are the fields the backend puts in its tokens
type Claims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier parses HMAC-signed tokens
type Verifier struct {
	secret []byte
	issuer string
}

// NewVerifier creates a Verifier
func NewVerifier(cfg Config) *Verifier {
	return &Verifier{secret: []byte(cfg.Secret), issuer: cfg.Issuer}
}

// BearerToken extracts the token from an Authorization header value
func BearerToken(header string) (string, error) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(parts[1]), nil
}

// Parse verifies tokenString and resolves the caller's capabilities from
// the role claim
func (v *Verifier) Parse(tokenString string) (*entity.User, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id := claims.UserID
	if id == "" {
		id = claims.Subject
	}
	if id == "" {
		return nil, fmt.Errorf("%w: user id missing", ErrInvalidToken)
	}

	return &entity.User{
		ID:           id,
		Name:         claims.Name,
		Role:         claims.Role,
		Capabilities: entity.CapabilitiesForRole(claims.Role),
	}, nil
}

// Issue signs a token for user; used by the dev tooling and tests
func (v *Verifier) Issue(user entity.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: user.ID,
		Name:   user.Name,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

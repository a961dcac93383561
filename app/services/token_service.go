// Package services provides external service integrations and technical concerns like tokens, events and AI analysis
package services

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token service error constants
var (
	ErrTokenExpired       = errors.New("token has expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenWrongAudience = errors.New("token audience mismatch")
)

// TokenService verifies access tokens issued by Supabase Auth
type TokenService interface {
	ValidateToken(token string) (*TokenClaims, error)
}

// TokenClaims are the identity claims the API relies on
type TokenClaims struct {
	Subject   uuid.UUID `json:"sub"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// supabaseClaims mirrors the payload of a Supabase access token
type supabaseClaims struct {
	Email        string         `json:"email"`
	Role         string         `json:"role"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	jwt.RegisteredClaims
}

// TokenServiceImpl implements TokenService with the project's HS256 JWT secret
type TokenServiceImpl struct {
	secretKey []byte
	audience  string
	issuer    string
}

// NewTokenService creates a new token service; issuer may be empty to skip the iss check
func NewTokenService(secretKey, audience, issuer string) (TokenService, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("secret key is required")
	}
	return &TokenServiceImpl{
		secretKey: []byte(secretKey),
		audience:  audience,
		issuer:    issuer,
	}, nil
}

// ValidateToken verifies signature, expiry and audience and extracts the caller identity
func (s *TokenServiceImpl) ValidateToken(token string) (*TokenClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &supabaseClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secretKey, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !parsed.Valid {
		return nil, ErrTokenInvalid
	}

	if s.audience != "" && !slices.Contains(claims.Audience, s.audience) {
		return nil, ErrTokenWrongAudience
	}

	sub, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	out := &TokenClaims{
		Subject: sub,
		Email:   claims.Email,
		Role:    claims.Role,
	}
	if name, ok := claims.UserMetadata["full_name"].(string); ok {
		out.FullName = name
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

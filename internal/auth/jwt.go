// Package auth issues and verifies bearer tokens, hashes passwords, and
// provides the HTTP middleware that turns an Authorization header into a
// caller identity.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. POST /auth/login checks the password and returns a signed JWT.
//  2. The client stores the token and sends it on later requests as
//     "Authorization: Bearer <token>".
//  3. RequireAuth / OptionalAuth validate the token and put its claims in
//     the request context; handlers read them with ClaimsFromContext.
//
// WHY JWT?
// Tokens are stateless: the server keeps no session table. Anything holding
// the signing secret can verify a token, so several instances can sit behind
// one load balancer as long as they share JWT_SECRET.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: {"alg":"HS256","typ":"JWT"}
//	- Payload: {"id":"...","username":"...","isAdmin":false,"alias":"...","sub":"...","exp":...}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultTokenTTL is how long a login stays valid.
	DefaultTokenTTL = 2 * time.Hour

	issuer = "clubboard"
)

var (
	// ErrTokenExpired is returned by Validate for a well-formed token past its exp.
	ErrTokenExpired = errors.New("auth: token expired")
	// ErrInvalidToken covers every other validation failure.
	ErrInvalidToken = errors.New("auth: invalid token")
)

// Identity is what a token says about its bearer.
type Identity struct {
	ID       string
	Username string
	IsAdmin  bool
	Alias    string
}

// Claims is the JWT payload. The custom fields keep the names clients
// already decode ({id, username, isAdmin, alias}); Subject repeats the id
// in its standard slot.
type Claims struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
	Alias    string `json:"alias"`
	jwt.RegisteredClaims
}

// Identity returns the bearer's identity.
func (c *Claims) Identity() Identity {
	return Identity{ID: c.ID, Username: c.Username, IsAdmin: c.IsAdmin, Alias: c.Alias}
}

// TokenService handles JWT creation and validation.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService. A ttl of zero means DefaultTokenTTL.
//
// The secret should be at least 32 bytes of random data in production:
//
//	JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// TTL returns the lifetime of newly issued tokens.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Generate signs a token for id with the service TTL.
func (s *TokenService) Generate(id Identity) (string, error) {
	return s.GenerateWithDuration(id, s.ttl)
}

// GenerateWithDuration signs a token with a custom lifetime. Tests use a
// negative duration to mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(id Identity, d time.Duration) (string, error) {
	now := time.Now()

	c := Claims{
		ID:       id.ID,
		Username: id.Username,
		IsAdmin:  id.IsAdmin,
		Alias:    id.Alias,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a token string.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - signature matches (not tampered with)
//   - exp is present and in the future
//   - iss is "clubboard"
//   - alg is HS256, which rules out the "none" algorithm trick
func (s *TokenService) Validate(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: unexpected claims", ErrInvalidToken)
	}

	// Older tokens may only carry sub.
	if c.ID == "" {
		c.ID = c.Subject
	}
	if c.ID == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrInvalidToken)
	}
	return c, nil
}

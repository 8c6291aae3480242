package auth

// LOCAL TOKENS:
// When no identity-provider project is configured the server verifies
// HS256 tokens signed with JWT_SECRET instead. cmd/devtoken mints them.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: {"alg":"HS256","typ":"JWT"}
//	- Payload: {"sub":"<uid>","email":"<email>","iss":"scholar-stream","exp":...}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const localIssuer = "scholar-stream"

// DefaultTokenLifetime is how long Generate's tokens are valid.
const DefaultTokenLifetime = time.Hour

var _ Verifier = (*TokenService)(nil)

// TokenService issues and verifies HS256 tokens with a shared secret.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

type localClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Generate signs a token for email/uid valid for DefaultTokenLifetime.
func (s *TokenService) Generate(email, uid string) (string, error) {
	return s.GenerateWithDuration(email, uid, DefaultTokenLifetime)
}

// GenerateWithDuration signs a token with a custom lifetime. A negative d
// yields an already expired token, which tests use.
func (s *TokenService) GenerateWithDuration(email, uid string, d time.Duration) (string, error) {
	now := time.Now()
	c := localClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    localIssuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Verify parses and checks a token: HS256 only, our issuer, not expired, and
// carrying both a subject and an email.
//
// ALGORITHM CONFUSION ATTACK:
// Without pinning the algorithm, a token with "alg":"none" could be accepted.
// jwt.WithValidMethods prevents this.
func (s *TokenService) Verify(_ context.Context, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&localClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(localIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("auth: token expired")
		}
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*localClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" || c.Email == "" {
		return nil, fmt.Errorf("auth: token has no subject or email")
	}

	return &Claims{Email: c.Email, UID: c.Subject}, nil
}

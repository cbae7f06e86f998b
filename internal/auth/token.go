package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/utafrali/MicroblogGo/internal/domain"
)

// ErrInvalidPayload is returned when a correctly signed token lacks the
// subject or role claim.
var ErrInvalidPayload = errors.New("Received invalid JWT payload")

// Claims is the access token payload. Only sub and role are written.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenCodec issues and verifies HS256 access tokens. Tokens carry no
// expiry, so issuing the same payload twice yields the same token.
type TokenCodec struct {
	secret []byte
	parser *jwt.Parser
}

// NewTokenCodec creates a codec signing with secret.
func NewTokenCodec(secret string) *TokenCodec {
	return &TokenCodec{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

// Issue signs a token for subject with role.
func (c *TokenCodec) Issue(subject, role string) (string, error) {
	claims := &Claims{
		Role:             role,
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// Verify checks the token signature and returns the identity it carries.
func (c *TokenCodec) Verify(token string) (domain.Identity, error) {
	claims := &Claims{}
	_, err := c.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		return domain.Identity{}, err
	}

	if claims.Subject == "" || claims.Role == "" {
		return domain.Identity{}, ErrInvalidPayload
	}
	return domain.Identity{Subject: claims.Subject, Role: claims.Role}, nil
}

package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/erp/restaurant/internal/domain/shared/valueobject"
	"github.com/erp/restaurant/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
)

// clockSkew tolerates small clock differences between the identity provider and the tills
const clockSkew = 30 * time.Second

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrInvalidSubject   = errors.New("token subject is not a valid identity")
)

// Claims are the access token claims issued by the identity provider.
// Only the subject is needed for settlement; name and roles are carried for logging.
type Claims struct {
	jwt.RegisteredClaims
	Name      string   `json:"name,omitempty"`
	Roles     []string `json:"roles,omitempty"`
	TokenType string   `json:"token_type,omitempty"`
}

// HasRole reports whether the token carries role
func (c *Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// Identity returns the validated subject of the token
func (c *Claims) Identity() (valueobject.Subject, error) {
	subject, err := valueobject.NewSubject(c.Subject)
	if err != nil {
		return valueobject.Subject{}, fmt.Errorf("%w: %v", ErrInvalidSubject, err)
	}
	return subject, nil
}

// TokenVerifier validates HS256 access tokens. This service never issues tokens.
type TokenVerifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewTokenVerifier creates a verifier for tokens signed with cfg.Secret and issued by cfg.Issuer
func NewTokenVerifier(cfg config.JWTConfig) *TokenVerifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	return &TokenVerifier{
		secret: []byte(cfg.Secret),
		parser: jwt.NewParser(opts...),
	}
}

// Verify parses and validates token and returns its claims.
// Refresh tokens are rejected; a missing token_type is treated as an access token.
func (v *TokenVerifier) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return nil, ErrTokenNotYetValid
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.TokenType != "" && claims.TokenType != "access" {
		return nil, ErrInvalidTokenType
	}
	if _, err := claims.Identity(); err != nil {
		return nil, err
	}
	return claims, nil
}

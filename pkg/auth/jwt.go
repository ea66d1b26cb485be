package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleGuest = "guest"
	RoleAdmin = "admin"

	audience = "wedding-api"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	Role  string `json:"role"`
	Scope string `json:"scope"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

func newToken(subject, email, role, scope, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role:  role,
		Scope: scope,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Audience:  []string{audience},
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// NewGuestSession binds a session to a guest id. The token carries no RSVP
// state; member handlers load that from the database on each request.
func NewGuestSession(guestID, secret string, ttl time.Duration) (string, error) {
	return newToken(guestID, "", RoleGuest, "rsvp:write photos:write", secret, ttl)
}

func NewAdminToken(email, secret string, ttl time.Duration) (string, error) {
	return newToken(email, email, RoleAdmin, "access_requests:read access_requests:write", secret, ttl)
}

func Parse(tokenString, secret string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
	)
	if err != nil {
		return nil, err
	}
	if claims, ok := tok.Claims.(*Claims); ok && tok.Valid && claims.Subject != "" {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

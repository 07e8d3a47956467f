package adapter

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"

	"github.com/thorep/stallplass-sub008/internal/infrastructure/auth/port"
)

// JWTAuthenticator validates HMAC-signed session tokens issued by the auth
// subsystem. Claims: sub = user id, email.
type JWTAuthenticator struct {
	secret []byte
}

// NewJWTAuthenticatorFromEnv constructs an authenticator using JWT_SECRET.
func NewJWTAuthenticatorFromEnv() (*JWTAuthenticator, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, errors.New("jwt: JWT_SECRET environment variable is not set")
	}
	return &JWTAuthenticator{secret: []byte(secret)}, nil
}

var _ port.Authenticator = (*JWTAuthenticator)(nil)

type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func (a *JWTAuthenticator) Authenticate(_ context.Context, token string) (*port.Identity, error) {
	if token == "" {
		return nil, port.ErrUnauthenticated
	}

	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("jwt: unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return nil, port.ErrUnauthenticated
	}

	return &port.Identity{UserID: claims.Subject, Email: claims.Email}, nil
}

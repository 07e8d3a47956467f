package port

import (
	"context"
	"errors"
)

// Identity is the authenticated caller as established by the session
// subsystem. Account management itself lives outside this service.
type Identity struct {
	UserID string
	Email  string
}

// ErrUnauthenticated is returned for missing, malformed or expired credentials.
var ErrUnauthenticated = errors.New("auth: unauthenticated")

// Authenticator validates a bearer credential and resolves the caller.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*Identity, error)
}

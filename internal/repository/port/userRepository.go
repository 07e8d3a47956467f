package repository

import "context"

// User is the read-only slice of the account model this service needs:
// display names for typing indicators and system-message phrasing.
type User struct {
	ID          string `db:"id"`
	DisplayName string `db:"display_name"`
	Email       string `db:"email"`
}

// UserRepository resolves users managed by the account subsystem.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*User, error)
}

package repository

import (
	"context"
	"errors"
	"time"

	booking "github.com/thorep/stallplass-sub008/internal/pkg/booking/application/domain"
	messaging "github.com/thorep/stallplass-sub008/internal/pkg/messaging/application/domain"
)

// ErrNotFound is returned when an id does not resolve to a row.
var ErrNotFound = errors.New("repository: not found")

// RentalRepository defines persistence operations for the booking domain.
// CreateRental surfaces booking.ErrAlreadyConfirmed when the per-conversation
// unique index rejects a second rental.
type RentalRepository interface {
	CreateRental(ctx context.Context, r booking.Rental) (string, error)
	DeleteRental(ctx context.Context, rentalID string) error
	FindRentalByConversation(ctx context.Context, conversationID string) (*booking.Rental, error)

	GetBox(ctx context.Context, boxID string) (*booking.Box, error)
	SetBoxAvailability(ctx context.Context, boxID string, available bool) error

	// ConfirmConversation flips the conversation to RENTAL_CONFIRMED and bumps
	// its last-activity timestamp.
	ConfirmConversation(ctx context.Context, conversationID string, at time.Time) error
}

// MessageStore is the slice of the messaging persistence the workflow needs to
// append its system message.
type MessageStore interface {
	SaveMessage(ctx context.Context, m messaging.Message) (string, error)
}

package booking

import (
	"errors"
	"time"
)

// Domain-level errors for the rental confirmation workflow
var (
	ErrAlreadyConfirmed = errors.New("booking: a rental already exists for this conversation")
	ErrMissingBox       = errors.New("booking: conversation has no box to rent")
	ErrInvalidDates     = errors.New("booking: end date precedes start date")
)

// RentalStatus tracks a rental's lifecycle.
type RentalStatus string

const (
	RentalActive RentalStatus = "ACTIVE"
	RentalEnded  RentalStatus = "ENDED"
)

// Rental is the durable record of a confirmed booking. At most one rental
// exists per conversation; the rentals table enforces it with a unique index
// on conversation_id.
type Rental struct {
	ID             string       `db:"id"`
	ConversationID string       `db:"conversation_id"`
	RenterID       string       `db:"renter_id"`
	StableID       string       `db:"stable_id"`
	BoxID          string       `db:"box_id"`
	StartDate      time.Time    `db:"start_date"`
	EndDate        *time.Time   `db:"end_date"`
	MonthlyPrice   float64      `db:"monthly_price"`
	Status         RentalStatus `db:"status"`
	CreatedAt      time.Time    `db:"created_at"`
}

// NewRental validates dates and fills defaults. A zero monthly price means
// "use the box's listed price"; the caller resolves it before construction.
func NewRental(r Rental) (*Rental, error) {
	if r.ConversationID == "" || r.RenterID == "" || r.StableID == "" {
		return nil, errors.New("booking: conversation, renter and stable are required")
	}
	if r.BoxID == "" {
		return nil, ErrMissingBox
	}
	if r.StartDate.IsZero() {
		return nil, errors.New("booking: start date is required")
	}
	if r.EndDate != nil && r.EndDate.Before(r.StartDate) {
		return nil, ErrInvalidDates
	}
	if r.Status == "" {
		r.Status = RentalActive
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return &r, nil
}

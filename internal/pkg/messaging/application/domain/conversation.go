package messaging

import (
	"errors"
	"time"
)

// Domain-level errors for conversation and message behaviors
var (
	ErrNotParticipant     = errors.New("messaging: requester is not a party to the conversation")
	ErrEmptyMessage       = errors.New("messaging: message content is empty")
	ErrConversationClosed = errors.New("messaging: conversation is closed")
)

// ConversationStatus tracks the booking lifecycle of a thread.
type ConversationStatus string

const (
	ConversationOpen            ConversationStatus = "OPEN"
	ConversationRentalConfirmed ConversationStatus = "RENTAL_CONFIRMED"
	ConversationClosed          ConversationStatus = "CLOSED"
)

// Conversation is a 1:1 thread between a prospective renter and a stable owner,
// opened about a specific box. It is never hard-deleted.
type Conversation struct {
	ID             string             `db:"id"`
	RenterID       string             `db:"renter_id"`
	StableID       string             `db:"stable_id"`
	StableOwnerID  string             `db:"stable_owner_id"` // joined from the stable row
	BoxID          *string            `db:"box_id"`
	Status         ConversationStatus `db:"status"`
	CreatedAt      time.Time          `db:"created_at"`
	LastActivityAt time.Time          `db:"last_activity_at"`
}

// IsParty tells whether userID is one of the two legitimate parties.
func (c *Conversation) IsParty(userID string) bool {
	if c == nil || userID == "" {
		return false
	}
	return userID == c.RenterID || userID == c.StableOwnerID
}

// Counterpart returns the other party's user id, or "" when userID is not a party.
func (c *Conversation) Counterpart(userID string) string {
	switch {
	case c == nil:
		return ""
	case userID == c.RenterID:
		return c.StableOwnerID
	case userID == c.StableOwnerID:
		return c.RenterID
	default:
		return ""
	}
}

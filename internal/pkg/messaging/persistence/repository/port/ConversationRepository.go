package repository

import (
	"context"
	"errors"
	"time"

	messaging "github.com/thorep/stallplass-sub008/internal/pkg/messaging/application/domain"
)

// ErrNotFound is returned when a conversation id does not resolve to a row.
// Use cases fold it into messaging.ErrNotParticipant so that callers cannot
// tell a missing conversation from one they are not a party to.
var ErrNotFound = errors.New("repository: conversation not found")

// ConversationRepository defines persistence operations for the messaging domain.
type ConversationRepository interface {
	// GetConversation returns the conversation joined with its stable's owner id.
	GetConversation(ctx context.Context, conversationID string) (*messaging.Conversation, error)
	CreateConversation(ctx context.Context, c messaging.Conversation) (string, error)
	// TouchConversation bumps last_activity_at.
	TouchConversation(ctx context.Context, conversationID string, at time.Time) error

	SaveMessage(ctx context.Context, m messaging.Message) (string, error)
	// GetMessagesByConversation returns all messages ascending by created_at, id.
	GetMessagesByConversation(ctx context.Context, conversationID string) ([]messaging.Message, error)
	// MarkMessagesRead flags every message not authored by viewerID as read and
	// reports how many rows changed.
	MarkMessagesRead(ctx context.Context, conversationID string, viewerID string) (int64, error)
	// CountUnread counts messages not authored by viewerID with read=false.
	CountUnread(ctx context.Context, conversationID string, viewerID string) (int, error)
}

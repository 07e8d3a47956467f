package messaging

import (
	"strings"
	"time"
)

// MessageType discriminates user-authored text from system-generated entries.
type MessageType string

const (
	MessageTypeText            MessageType = "TEXT"
	MessageTypeRentalConfirmed MessageType = "RENTAL_CONFIRMATION"
	MessageTypeSystem          MessageType = "SYSTEM"
)

// Message is an immutable log entry in a conversation. Only the read flag is
// ever updated after creation; ordering within a conversation is CreatedAt,
// ties broken by ID.
type Message struct {
	ID             string      `db:"id"`
	ConversationID string      `db:"conversation_id"`
	SenderID       string      `db:"sender_id"`
	Content        string      `db:"content"`
	Type           MessageType `db:"msg_type"`
	Metadata       Metadata    `db:"metadata"`
	Read           bool        `db:"is_read"`
	CreatedAt      time.Time   `db:"created_at"`
}

// NewMessage validates and normalizes a message before persistence.
// Content is required for every type, system messages included.
func NewMessage(m Message) (*Message, error) {
	if m.ConversationID == "" || m.SenderID == "" {
		return nil, ErrNotParticipant
	}

	m.Content = strings.TrimSpace(m.Content)
	if m.Content == "" {
		return nil, ErrEmptyMessage
	}

	if m.Type == "" {
		m.Type = MessageTypeText
	}
	if m.Metadata == nil {
		m.Metadata = TextMeta{}
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	return &m, nil
}

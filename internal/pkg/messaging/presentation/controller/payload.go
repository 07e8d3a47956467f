package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	messaging "github.com/thorep/stallplass-sub008/internal/pkg/messaging/application/domain"
	"github.com/thorep/stallplass-sub008/internal/pkg/messaging/application/usecase"
)

// messagePayload is the wire shape of a message, shared by the REST responses
// and the websocket frames so clients deduplicate by one id regardless of the
// path a message arrived on.
type messagePayload struct {
	ID             string                `json:"id"`
	ConversationID string                `json:"conversation_id"`
	SenderID       string                `json:"sender_id"`
	Content        string                `json:"content"`
	Type           messaging.MessageType `json:"type"`
	Metadata       json.RawMessage       `json:"metadata,omitempty"`
	Read           bool                  `json:"read"`
	CreatedAt      time.Time             `json:"created_at"`
}

// outboundMessage is the realtime envelope for a newly created message. It
// carries the full payload so subscribers never have to re-fetch by count.
type outboundMessage struct {
	Type           string         `json:"type"`
	ConversationID string         `json:"conversation_id"`
	Message        messagePayload `json:"message"`
}

func toMessagePayload(m messaging.Message) messagePayload {
	raw, err := messaging.EncodeMetadata(m.Metadata)
	if err != nil {
		raw = nil
	}
	return messagePayload{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Content:        m.Content,
		Type:           m.Type,
		Metadata:       raw,
		Read:           m.Read,
		CreatedAt:      m.CreatedAt,
	}
}

func encodeMessageFrame(m messaging.Message) ([]byte, error) {
	return json.Marshal(outboundMessage{
		Type:           "message",
		ConversationID: m.ConversationID,
		Message:        toMessagePayload(m),
	})
}

// EncodeSystemMessageFrame builds the realtime envelope for a message created
// outside this package (the rental-confirmation workflow). Returns nil when
// encoding fails; callers skip the broadcast in that case.
func EncodeSystemMessageFrame(m messaging.Message) []byte {
	payload, err := encodeMessageFrame(m)
	if err != nil {
		return nil
	}
	return payload
}

// writeUseCaseError maps domain errors onto HTTP statuses. A conversation the
// requester is not a party to is reported as not found, identically to one
// that does not exist.
func writeUseCaseError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, messaging.ErrNotParticipant):
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
	case errors.Is(err, messaging.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": "message content must not be empty"})
	case errors.Is(err, messaging.ErrConversationClosed):
		c.JSON(http.StatusConflict, gin.H{"error": "conversation is closed"})
	case errors.Is(err, usecase.ErrPersistence):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unexpected persistence error"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

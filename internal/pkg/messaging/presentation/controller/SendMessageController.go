package controller

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/thorep/stallplass-sub008/internal/infrastructure/auth"
	cacheport "github.com/thorep/stallplass-sub008/internal/infrastructure/cache/port"
	"github.com/thorep/stallplass-sub008/internal/infrastructure/realtime"
	messaging "github.com/thorep/stallplass-sub008/internal/pkg/messaging/application/domain"
	"github.com/thorep/stallplass-sub008/internal/pkg/messaging/application/usecase"
	"github.com/thorep/stallplass-sub008/internal/pkg/messaging/persistence/repository/adapter"
)

// SendMessageController handles the send-message endpoint only (one controller
// per endpoint). The persisted message is fanned out to the conversation's
// realtime room; the sender gets it back in the HTTP response.
type SendMessageController struct {
	UC     *usecase.SendMessageUseCase
	Router *realtime.Router
	Log    *slog.Logger
}

func NewSendMessageController(pool *pgxpool.Pool, cache cacheport.Cache, router *realtime.Router, log *slog.Logger) *SendMessageController {
	repo := adapter.NewPgConversationRepository(pool)
	if log == nil {
		log = slog.Default()
	}
	return &SendMessageController{
		UC:     usecase.NewSendMessageUseCase(repo, cache, log),
		Router: router,
		Log:    log,
	}
}

// sendMessageRequest is the DTO for the HTTP request body
type sendMessageRequest struct {
	Content  string          `json:"content" binding:"required"`
	Type     *string         `json:"type"`
	Metadata json.RawMessage `json:"metadata"`
}

// Handle returns a gin handler serving POST /conversations/:conversationId/messages
func (h *SendMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := auth.CurrentIdentity(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		conversationID := c.Param("conversationId")

		var req sendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		msgType := messaging.MessageTypeText
		if req.Type != nil {
			msgType = messaging.MessageType(*req.Type)
		}
		meta, err := messaging.DecodeMetadata(msgType, req.Metadata)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid metadata"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		msg, err := h.UC.Execute(ctx, usecase.SendMessageInput{
			ConversationID: conversationID,
			SenderID:       identity.UserID,
			Content:        req.Content,
			Type:           msgType,
			Metadata:       meta,
		})
		if err != nil {
			writeUseCaseError(c, err)
			return
		}

		if h.Router != nil {
			if frame, err := encodeMessageFrame(*msg); err == nil {
				h.Router.Broadcast(conversationID, frame, identity.UserID)
			} else {
				h.Log.Warn("messaging: encode broadcast frame failed", "error", err)
			}
		}

		c.JSON(http.StatusCreated, toMessagePayload(*msg))
	}
}

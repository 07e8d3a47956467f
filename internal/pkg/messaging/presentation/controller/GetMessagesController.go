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
	qport "github.com/thorep/stallplass-sub008/internal/infrastructure/queue/port"
	"github.com/thorep/stallplass-sub008/internal/pkg/messaging/application/task"
	"github.com/thorep/stallplass-sub008/internal/pkg/messaging/application/usecase"
	"github.com/thorep/stallplass-sub008/internal/pkg/messaging/persistence/repository/adapter"
)

// GetMessagesController handles the message-history endpoint only (one
// controller per endpoint). Listing marks the returned messages read: through
// the queue when one is wired, inline otherwise, swallowed either way.
type GetMessagesController struct {
	UC     *usecase.ListMessagesUseCase
	MarkUC *usecase.MarkReadUseCase
	Queue  qport.Client // optional
	Log    *slog.Logger
}

func NewGetMessagesController(pool *pgxpool.Pool, cache cacheport.Cache, client qport.Client, log *slog.Logger) *GetMessagesController {
	repo := adapter.NewPgConversationRepository(pool)
	if log == nil {
		log = slog.Default()
	}
	return &GetMessagesController{
		UC:     usecase.NewListMessagesUseCase(repo),
		MarkUC: usecase.NewMarkReadUseCase(repo, cache),
		Queue:  client,
		Log:    log,
	}
}

// Handle returns a gin handler serving GET /conversations/:conversationId/messages
func (h *GetMessagesController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := auth.CurrentIdentity(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		conversationID := c.Param("conversationId")

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		msgs, err := h.UC.Execute(ctx, usecase.ListMessagesInput{
			ConversationID: conversationID,
			RequesterID:    identity.UserID,
		})
		if err != nil {
			writeUseCaseError(c, err)
			return
		}

		h.markRead(ctx, conversationID, identity.UserID)

		payloads := make([]messagePayload, 0, len(msgs))
		for _, m := range msgs {
			payloads = append(payloads, toMessagePayload(m))
		}
		c.JSON(http.StatusOK, gin.H{"messages": payloads})
	}
}

// markRead is best-effort: a failed read receipt never fails the read.
func (h *GetMessagesController) markRead(ctx context.Context, conversationID string, viewerID string) {
	if h.Queue != nil {
		payload, err := json.Marshal(task.MarkReadTaskPayload{
			ConversationID: conversationID,
			ViewerID:       viewerID,
		})
		if err == nil {
			_, err = h.Queue.Enqueue(ctx, qport.Task{Type: task.MarkReadTaskType, Payload: payload},
				qport.EnqueueOption{Queue: "messaging", MaxRetry: 3})
		}
		if err == nil {
			return
		}
		h.Log.Warn("messaging: mark-read enqueue failed, falling back inline",
			"conversation_id", conversationID, "error", err)
	}

	if _, err := h.MarkUC.Execute(ctx, usecase.MarkReadInput{
		ConversationID: conversationID,
		ViewerID:       viewerID,
	}); err != nil {
		h.Log.Warn("messaging: mark-read failed", "conversation_id", conversationID, "error", err)
	}
}

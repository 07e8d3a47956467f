package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/thorep/stallplass-sub008/internal/infrastructure/auth"
	cacheport "github.com/thorep/stallplass-sub008/internal/infrastructure/cache/port"
	"github.com/thorep/stallplass-sub008/internal/pkg/messaging/application/usecase"
	"github.com/thorep/stallplass-sub008/internal/pkg/messaging/persistence/repository/adapter"
)

// UnreadCountController handles the unread-count endpoint only.
type UnreadCountController struct {
	UC *usecase.UnreadCountUseCase
}

func NewUnreadCountController(pool *pgxpool.Pool, cache cacheport.Cache) *UnreadCountController {
	repo := adapter.NewPgConversationRepository(pool)
	return &UnreadCountController{UC: usecase.NewUnreadCountUseCase(repo, cache)}
}

// Handle returns a gin handler serving GET /conversations/:conversationId/unread
func (h *UnreadCountController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := auth.CurrentIdentity(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		n, err := h.UC.Execute(ctx, usecase.UnreadCountInput{
			ConversationID: c.Param("conversationId"),
			ViewerID:       identity.UserID,
		})
		if err != nil {
			writeUseCaseError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"unread": n})
	}
}

package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/thorep/stallplass-sub008/internal/infrastructure/auth"
	"github.com/thorep/stallplass-sub008/internal/pkg/messaging/application/usecase"
	"github.com/thorep/stallplass-sub008/internal/pkg/messaging/persistence/repository/adapter"
)

// StartConversationController handles the conversation-creation endpoint only.
type StartConversationController struct {
	UC *usecase.StartConversationUseCase
}

func NewStartConversationController(pool *pgxpool.Pool) *StartConversationController {
	repo := adapter.NewPgConversationRepository(pool)
	return &StartConversationController{UC: usecase.NewStartConversationUseCase(repo)}
}

// startConversationRequest is the DTO for the HTTP request body
type startConversationRequest struct {
	StableID string  `json:"stable_id" binding:"required"`
	BoxID    *string `json:"box_id"`
	Content  string  `json:"content" binding:"required"`
}

// Handle returns a gin handler serving POST /conversations
func (h *StartConversationController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := auth.CurrentIdentity(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		var req startConversationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		conv, err := h.UC.Execute(ctx, usecase.StartConversationInput{
			RenterID: identity.UserID,
			StableID: req.StableID,
			BoxID:    req.BoxID,
			Content:  req.Content,
		})
		if err != nil {
			writeUseCaseError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"id":               conv.ID,
			"renter_id":        conv.RenterID,
			"stable_id":        conv.StableID,
			"box_id":           conv.BoxID,
			"status":           conv.Status,
			"created_at":       conv.CreatedAt,
			"last_activity_at": conv.LastActivityAt,
		})
	}
}

package controller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/thorep/stallplass-sub008/internal/infrastructure/auth"
	"github.com/thorep/stallplass-sub008/internal/infrastructure/realtime"
	booking "github.com/thorep/stallplass-sub008/internal/pkg/booking/application/domain"
	"github.com/thorep/stallplass-sub008/internal/pkg/booking/application/usecase"
	bookingAdapter "github.com/thorep/stallplass-sub008/internal/pkg/booking/persistence/repository/adapter"
	messagingAdapter "github.com/thorep/stallplass-sub008/internal/pkg/messaging/persistence/repository/adapter"
	userAdapter "github.com/thorep/stallplass-sub008/internal/repository/adapter"

	messaging "github.com/thorep/stallplass-sub008/internal/pkg/messaging/application/domain"
	messagingctl "github.com/thorep/stallplass-sub008/internal/pkg/messaging/presentation/controller"
)

const dateLayout = "2006-01-02"

// ConfirmRentalController handles the rental-confirmation endpoint only.
// On success the system message (when posted) is fanned out to the
// conversation's realtime room.
type ConfirmRentalController struct {
	UC     *usecase.ConfirmRentalUseCase
	Router *realtime.Router
	Log    *slog.Logger
}

func NewConfirmRentalController(pool *pgxpool.Pool, router *realtime.Router, log *slog.Logger) *ConfirmRentalController {
	if log == nil {
		log = slog.Default()
	}
	messagingRepo := messagingAdapter.NewPgConversationRepository(pool)
	return &ConfirmRentalController{
		UC: usecase.NewConfirmRentalUseCase(
			messagingRepo,
			bookingAdapter.NewPgRentalRepository(pool),
			messagingRepo,
			userAdapter.NewPgUserRepository(pool),
			log,
		),
		Router: router,
		Log:    log,
	}
}

// confirmRentalRequest is the DTO for the HTTP request body
type confirmRentalRequest struct {
	StartDate    string   `json:"start_date" binding:"required"`
	EndDate      *string  `json:"end_date"`
	MonthlyPrice *float64 `json:"monthly_price" binding:"omitempty,gt=0"`
}

// Handle returns a gin handler serving POST /conversations/:conversationId/confirm-rental
func (h *ConfirmRentalController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := auth.CurrentIdentity(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		conversationID := c.Param("conversationId")

		var req confirmRentalRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		start, err := time.Parse(dateLayout, req.StartDate)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "start_date must be YYYY-MM-DD"})
			return
		}
		var end *time.Time
		if req.EndDate != nil {
			t, err := time.Parse(dateLayout, *req.EndDate)
			if err != nil {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "end_date must be YYYY-MM-DD"})
				return
			}
			end = &t
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		result, err := h.UC.Execute(ctx, usecase.ConfirmRentalInput{
			ConversationID: conversationID,
			ConfirmerID:    identity.UserID,
			StartDate:      start,
			EndDate:        end,
			MonthlyPrice:   req.MonthlyPrice,
		})
		if err != nil {
			h.writeError(c, err)
			return
		}

		if h.Router != nil && result.SystemMessage != nil {
			if frame := messagingctl.EncodeSystemMessageFrame(*result.SystemMessage); frame != nil {
				// Both parties get the frame; the confirmer's UI dedupes by id.
				h.Router.Broadcast(conversationID, frame, "")
			}
		}

		r := result.Rental
		c.JSON(http.StatusCreated, gin.H{
			"id":              r.ID,
			"conversation_id": r.ConversationID,
			"renter_id":       r.RenterID,
			"stable_id":       r.StableID,
			"box_id":          r.BoxID,
			"start_date":      r.StartDate.Format(dateLayout),
			"end_date":        formatDate(r.EndDate),
			"monthly_price":   r.MonthlyPrice,
			"status":          r.Status,
			"created_at":      r.CreatedAt,
		})
	}
}

func (h *ConfirmRentalController) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, messaging.ErrNotParticipant):
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
	case errors.Is(err, booking.ErrAlreadyConfirmed):
		c.JSON(http.StatusConflict, gin.H{"error": "a rental is already confirmed for this conversation"})
	case errors.Is(err, booking.ErrMissingBox), errors.Is(err, booking.ErrInvalidDates):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrPersistence):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unexpected persistence error"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

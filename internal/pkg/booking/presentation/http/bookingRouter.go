package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/thorep/stallplass-sub008/internal/infrastructure/realtime"
	"github.com/thorep/stallplass-sub008/internal/pkg/booking/presentation/controller"
)

// RegisterRoutes registers booking endpoints under the given router group.
func RegisterRoutes(g *gin.RouterGroup, pool *pgxpool.Pool, router *realtime.Router, log *slog.Logger) {
	confirmCtl := controller.NewConfirmRentalController(pool, router, log)

	// POST /api/v1/conversations/:conversationId/confirm-rental -> confirm the booking
	g.POST("/conversations/:conversationId/confirm-rental", confirmCtl.Handle())
}

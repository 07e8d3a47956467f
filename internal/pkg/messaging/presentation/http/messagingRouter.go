package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	cacheport "github.com/thorep/stallplass-sub008/internal/infrastructure/cache/port"
	qport "github.com/thorep/stallplass-sub008/internal/infrastructure/queue/port"
	"github.com/thorep/stallplass-sub008/internal/infrastructure/realtime"
	"github.com/thorep/stallplass-sub008/internal/pkg/messaging/presentation/controller"
	userport "github.com/thorep/stallplass-sub008/internal/repository/port"
)

// Deps bundles the shared infrastructure the messaging endpoints need.
type Deps struct {
	Pool     *pgxpool.Pool
	Cache    cacheport.Cache // optional
	Queue    qport.Client    // optional
	Router   *realtime.Router
	Presence *realtime.Presence
	Users    userport.UserRepository
	Log      *slog.Logger
}

// RegisterRoutes registers messaging endpoints under the given router group.
// It constructs per-endpoint controllers and binds them directly to routes.
func RegisterRoutes(g *gin.RouterGroup, d Deps) {
	startCtl := controller.NewStartConversationController(d.Pool)
	getMsgCtl := controller.NewGetMessagesController(d.Pool, d.Cache, d.Queue, d.Log)
	sendMsgCtl := controller.NewSendMessageController(d.Pool, d.Cache, d.Router, d.Log)
	unreadCtl := controller.NewUnreadCountController(d.Pool, d.Cache)
	socketCtl := controller.NewChatSocketController(d.Pool, d.Cache, d.Router, d.Presence, d.Users, d.Log)

	// POST /api/v1/conversations -> open a conversation about a box
	g.POST("/conversations", startCtl.Handle())

	// GET /api/v1/conversations/:conversationId/messages -> history (marks read)
	g.GET("/conversations/:conversationId/messages", getMsgCtl.Handle())

	// POST /api/v1/conversations/:conversationId/messages -> send a message
	g.POST("/conversations/:conversationId/messages", sendMsgCtl.Handle())

	// GET /api/v1/conversations/:conversationId/unread -> unread count
	g.GET("/conversations/:conversationId/unread", unreadCtl.Handle())

	// GET /api/v1/chat/ws -> websocket endpoint for realtime chat
	g.GET("/chat/ws", socketCtl.Handle())
}

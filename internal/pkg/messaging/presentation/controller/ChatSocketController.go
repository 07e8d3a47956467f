package controller

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/thorep/stallplass-sub008/internal/infrastructure/auth"
	cacheport "github.com/thorep/stallplass-sub008/internal/infrastructure/cache/port"
	"github.com/thorep/stallplass-sub008/internal/infrastructure/realtime"
	messaging "github.com/thorep/stallplass-sub008/internal/pkg/messaging/application/domain"
	"github.com/thorep/stallplass-sub008/internal/pkg/messaging/application/usecase"
	repoAdapter "github.com/thorep/stallplass-sub008/internal/pkg/messaging/persistence/repository/adapter"
	userport "github.com/thorep/stallplass-sub008/internal/repository/port"
)

// ChatSocketController handles the websocket endpoint for realtime chat
// traffic: message fan-out and typing indicators.
type ChatSocketController struct {
	router          *realtime.Router
	presence        *realtime.Presence
	users           userport.UserRepository
	sendMessageUC   *usecase.SendMessageUseCase
	authorizeUC     *usecase.AuthorizeConversationUseCase
	log             *slog.Logger
	inflightTimeout time.Duration
}

func NewChatSocketController(
	pool *pgxpool.Pool,
	cache cacheport.Cache,
	router *realtime.Router,
	presence *realtime.Presence,
	users userport.UserRepository,
	log *slog.Logger,
) *ChatSocketController {
	repo := repoAdapter.NewPgConversationRepository(pool)
	if log == nil {
		log = slog.Default()
	}
	return &ChatSocketController{
		router:          router,
		presence:        presence,
		users:           users,
		sendMessageUC:   usecase.NewSendMessageUseCase(repo, cache, log),
		authorizeUC:     usecase.NewAuthorizeConversationUseCase(repo),
		log:             log,
		inflightTimeout: 5 * time.Second,
	}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The token query parameter is the credential; origin is not.
		return true
	},
}

type inboundFrame struct {
	Type           string          `json:"type"`
	ConversationID string          `json:"conversation_id,omitempty"`
	Content        string          `json:"content,omitempty"`
	MsgType        *string         `json:"msg_type,omitempty"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
	IsTyping       *bool           `json:"is_typing,omitempty"`
}

type errorFrame struct {
	Type  string `json:"type"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

type ackFrame struct {
	Type           string   `json:"type"`
	ConversationID string   `json:"conversation_id,omitempty"`
	Typists        []string `json:"typists,omitempty"`
}

type typingFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	DisplayName    string `json:"display_name"`
	IsTyping       bool   `json:"is_typing"`
}

const defaultReadTimeout = 60 * time.Second

// EncodeTypingStopped builds the frame broadcast when a typing flag lapses.
// Wired into the presence registry's expiry callback at startup.
func EncodeTypingStopped(conversationID string, state realtime.TypingState) []byte {
	payload, err := json.Marshal(typingFrame{
		Type:           "typing",
		ConversationID: conversationID,
		UserID:         state.UserID,
		DisplayName:    state.DisplayName,
		IsTyping:       false,
	})
	if err != nil {
		return nil
	}
	return payload
}

// Handle upgrades HTTP connections to websocket and processes frames until the client disconnects.
func (ctl *ChatSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := auth.CurrentIdentity(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		userID := identity.UserID
		displayName := ctl.displayName(c.Request.Context(), userID)

		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response; just log and return.
			return
		}

		conn := realtime.NewConnection(userID, ws)
		ctl.router.Attach(conn)
		defer func() {
			ctl.presence.DropUser(userID)
			ctl.router.Detach(conn)
			conn.Close(websocket.CloseNormalClosure, "session closed")
		}()

		ws.SetReadLimit(1 << 20) // 1MB payload cap
		_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		})

		handshakeAck := ackFrame{Type: "connected"}
		if payload, err := json.Marshal(handshakeAck); err == nil {
			_ = conn.Send(payload)
		}

		joined := make(map[string]struct{})

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) ||
					errors.Is(err, websocket.ErrCloseSent) {
					return
				}
				ctl.replyError(conn, "read_error", err.Error())
				return
			}

			var frame inboundFrame
			if err := json.Unmarshal(data, &frame); err != nil {
				ctl.replyError(conn, "bad_request", "invalid payload")
				continue
			}

			switch frame.Type {
			case "join":
				ctl.handleJoin(c, conn, frame, joined)
			case "leave":
				ctl.handleLeave(conn, userID, frame, joined)
			case "message":
				ctl.handleMessage(c, conn, userID, frame, joined)
			case "typing":
				ctl.handleTyping(conn, userID, displayName, frame, joined)
			default:
				ctl.replyError(conn, "unsupported_type", "unknown frame type")
			}
		}
	}
}

func (ctl *ChatSocketController) handleJoin(c *gin.Context, conn *realtime.Connection, frame inboundFrame, joined map[string]struct{}) {
	if frame.ConversationID == "" {
		ctl.replyError(conn, "bad_request", "conversation_id is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.inflightTimeout)
	defer cancel()

	_, err := ctl.authorizeUC.Execute(ctx, usecase.AuthorizeConversationInput{
		ConversationID: frame.ConversationID,
		UserID:         conn.UserID,
	})
	if err != nil {
		ctl.handleUseCaseError(conn, err)
		return
	}

	ctl.router.Join(frame.ConversationID, conn)
	joined[frame.ConversationID] = struct{}{}

	// Ack carries the live typing set so late joiners start in sync.
	ack := ackFrame{
		Type:           "joined",
		ConversationID: frame.ConversationID,
		Typists:        ctl.presence.Typists(frame.ConversationID, conn.UserID),
	}
	if payload, err := json.Marshal(ack); err == nil {
		_ = conn.Send(payload)
	}
}

func (ctl *ChatSocketController) handleLeave(conn *realtime.Connection, userID string, frame inboundFrame, joined map[string]struct{}) {
	if frame.ConversationID == "" {
		ctl.replyError(conn, "bad_request", "conversation_id is required")
		return
	}
	ctl.presence.SetTyping(frame.ConversationID, realtime.TypingState{UserID: userID}, false)
	ctl.router.Leave(frame.ConversationID, conn)
	delete(joined, frame.ConversationID)

	ack := ackFrame{Type: "left", ConversationID: frame.ConversationID}
	if payload, err := json.Marshal(ack); err == nil {
		_ = conn.Send(payload)
	}
}

func (ctl *ChatSocketController) handleMessage(c *gin.Context, conn *realtime.Connection, userID string, frame inboundFrame, joined map[string]struct{}) {
	if frame.ConversationID == "" {
		ctl.replyError(conn, "bad_request", "conversation_id is required")
		return
	}
	if _, ok := joined[frame.ConversationID]; !ok {
		ctl.replyError(conn, "forbidden", "join the conversation first")
		return
	}

	msgType := messaging.MessageTypeText
	if frame.MsgType != nil {
		msgType = messaging.MessageType(*frame.MsgType)
	}
	meta, err := messaging.DecodeMetadata(msgType, frame.Metadata)
	if err != nil {
		ctl.replyError(conn, "bad_request", "invalid metadata")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.inflightTimeout)
	defer cancel()

	result, err := ctl.sendMessageUC.Execute(ctx, usecase.SendMessageInput{
		ConversationID: frame.ConversationID,
		SenderID:       userID,
		Content:        frame.Content,
		Type:           msgType,
		Metadata:       meta,
	})
	if err != nil {
		ctl.handleUseCaseError(conn, err)
		return
	}

	// Posting a message implies the typing burst is over.
	ctl.presence.SetTyping(frame.ConversationID, realtime.TypingState{UserID: userID}, false)

	payload, err := encodeMessageFrame(*result)
	if err != nil {
		ctl.replyError(conn, "internal_error", "failed to encode message")
		return
	}

	ctl.router.Broadcast(frame.ConversationID, payload, userID)

	// Echo to the sender for optimistic-UI reconciliation; clients dedupe by id.
	if !ctl.router.NotifyUser(userID, payload) {
		_ = conn.Send(payload)
	}
}

func (ctl *ChatSocketController) handleTyping(conn *realtime.Connection, userID string, displayName string, frame inboundFrame, joined map[string]struct{}) {
	if frame.ConversationID == "" {
		ctl.replyError(conn, "bad_request", "conversation_id is required")
		return
	}
	if _, ok := joined[frame.ConversationID]; !ok {
		ctl.replyError(conn, "forbidden", "join the conversation first")
		return
	}

	typing := frame.IsTyping != nil && *frame.IsTyping
	state := realtime.TypingState{UserID: userID, DisplayName: displayName, UpdatedAt: time.Now()}
	ctl.presence.SetTyping(frame.ConversationID, state, typing)

	out := typingFrame{
		Type:           "typing",
		ConversationID: frame.ConversationID,
		UserID:         userID,
		DisplayName:    displayName,
		IsTyping:       typing,
	}
	if payload, err := json.Marshal(out); err == nil {
		ctl.router.Broadcast(frame.ConversationID, payload, userID)
	}
}

func (ctl *ChatSocketController) displayName(ctx context.Context, userID string) string {
	if ctl.users == nil {
		return userID
	}
	ctx, cancel := context.WithTimeout(ctx, ctl.inflightTimeout)
	defer cancel()
	u, err := ctl.users.FindByID(ctx, userID)
	if err != nil || u == nil || u.DisplayName == "" {
		return userID
	}
	return u.DisplayName
}

func (ctl *ChatSocketController) handleUseCaseError(conn *realtime.Connection, err error) {
	switch {
	case errors.Is(err, usecase.ErrPersistence):
		ctl.replyError(conn, "internal_error", "unexpected persistence error")
	case errors.Is(err, messaging.ErrNotParticipant):
		ctl.replyError(conn, "not_found", "conversation not found")
	case errors.Is(err, messaging.ErrConversationClosed):
		ctl.replyError(conn, "conflict", "conversation is closed")
	default:
		ctl.replyError(conn, "bad_request", err.Error())
	}
}

func (ctl *ChatSocketController) replyError(conn *realtime.Connection, code string, message string) {
	frame := errorFrame{
		Type:  "error",
		Code:  code,
		Error: message,
	}
	if payload, err := json.Marshal(frame); err == nil {
		_ = conn.Send(payload)
	}
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	cacheport "github.com/thorep/stallplass-sub008/internal/infrastructure/cache/port"
	messaging "github.com/thorep/stallplass-sub008/internal/pkg/messaging/application/domain"
	repository "github.com/thorep/stallplass-sub008/internal/pkg/messaging/persistence/repository/port"
)

// SendMessageInput carries the data needed to post a new message.
type SendMessageInput struct {
	ConversationID string
	SenderID       string
	Content        string
	Type           messaging.MessageType
	Metadata       messaging.Metadata
}

// SendMessageUseCase persists a message into a conversation the sender is a
// party to. The message is the primary artifact: the last-activity bump and
// the counterpart's unread-count invalidation are best-effort and never roll
// the message back.
type SendMessageUseCase struct {
	Repo  repository.ConversationRepository
	Cache cacheport.Cache // optional
	Log   *slog.Logger
}

func NewSendMessageUseCase(repo repository.ConversationRepository, cache cacheport.Cache, log *slog.Logger) *SendMessageUseCase {
	if log == nil {
		log = slog.Default()
	}
	return &SendMessageUseCase{Repo: repo, Cache: cache, Log: log}
}

// Execute validates and persists a new message, then bumps the conversation.
func (uc *SendMessageUseCase) Execute(ctx context.Context, in SendMessageInput) (*messaging.Message, error) {
	conv, err := uc.Repo.GetConversation(ctx, in.ConversationID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, messaging.ErrNotParticipant
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !conv.IsParty(in.SenderID) {
		return nil, messaging.ErrNotParticipant
	}
	if conv.Status == messaging.ConversationClosed {
		return nil, messaging.ErrConversationClosed
	}

	msg, err := messaging.NewMessage(messaging.Message{
		ConversationID: in.ConversationID,
		SenderID:       in.SenderID,
		Content:        in.Content,
		Type:           in.Type,
		Metadata:       in.Metadata,
	})
	if err != nil {
		return nil, err
	}

	id, err := uc.Repo.SaveMessage(ctx, *msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	msg.ID = id

	if err := uc.Repo.TouchConversation(ctx, in.ConversationID, msg.CreatedAt); err != nil {
		uc.Log.Warn("messaging: last-activity bump failed",
			"conversation_id", in.ConversationID, "error", err)
	}

	if uc.Cache != nil {
		if other := conv.Counterpart(in.SenderID); other != "" {
			_, _ = uc.Cache.Del(ctx, UnreadCacheKey(in.ConversationID, other))
		}
	}

	return msg, nil
}

package usecase

import (
	"context"
	"fmt"

	cacheport "github.com/thorep/stallplass-sub008/internal/infrastructure/cache/port"
	repository "github.com/thorep/stallplass-sub008/internal/pkg/messaging/persistence/repository/port"
)

// UnreadCacheKey is the cache key for a viewer's unread count in a conversation.
func UnreadCacheKey(conversationID string, viewerID string) string {
	return fmt.Sprintf("unread:%s:%s", conversationID, viewerID)
}

// MarkReadInput identifies the conversation and the reading party.
type MarkReadInput struct {
	ConversationID string
	ViewerID       string
}

// MarkReadUseCase flags every message not authored by the viewer as read and
// drops the viewer's cached unread count. Callers treat it as best-effort:
// both the HTTP controller and the queue task log failures and move on.
type MarkReadUseCase struct {
	Repo  repository.ConversationRepository
	Cache cacheport.Cache // optional
}

func NewMarkReadUseCase(repo repository.ConversationRepository, cache cacheport.Cache) *MarkReadUseCase {
	return &MarkReadUseCase{Repo: repo, Cache: cache}
}

// Execute returns the number of messages flipped to read.
func (uc *MarkReadUseCase) Execute(ctx context.Context, in MarkReadInput) (int64, error) {
	if in.ConversationID == "" || in.ViewerID == "" {
		return 0, fmt.Errorf("conversation_id and viewer_id are required")
	}

	n, err := uc.Repo.MarkMessagesRead(ctx, in.ConversationID, in.ViewerID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if uc.Cache != nil && n > 0 {
		// Stale counts self-heal on TTL expiry; a failed delete is not an error.
		_, _ = uc.Cache.Del(ctx, UnreadCacheKey(in.ConversationID, in.ViewerID))
	}
	return n, nil
}

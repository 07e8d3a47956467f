package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	cacheport "github.com/thorep/stallplass-sub008/internal/infrastructure/cache/port"
	messaging "github.com/thorep/stallplass-sub008/internal/pkg/messaging/application/domain"
	repository "github.com/thorep/stallplass-sub008/internal/pkg/messaging/persistence/repository/port"
)

const unreadCacheTTL = 30 * time.Second

// UnreadCountInput identifies the conversation and the viewing party.
type UnreadCountInput struct {
	ConversationID string
	ViewerID       string
}

// UnreadCountUseCase counts messages the viewer has not read yet. The count is
// purely derived; a short-lived cache entry absorbs dashboard polling and is
// invalidated on send and on mark-read.
type UnreadCountUseCase struct {
	Repo  repository.ConversationRepository
	Cache cacheport.Cache // optional
}

func NewUnreadCountUseCase(repo repository.ConversationRepository, cache cacheport.Cache) *UnreadCountUseCase {
	return &UnreadCountUseCase{Repo: repo, Cache: cache}
}

// Execute returns the unread count for the viewer.
func (uc *UnreadCountUseCase) Execute(ctx context.Context, in UnreadCountInput) (int, error) {
	conv, err := uc.Repo.GetConversation(ctx, in.ConversationID)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, messaging.ErrNotParticipant
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !conv.IsParty(in.ViewerID) {
		return 0, messaging.ErrNotParticipant
	}

	key := UnreadCacheKey(in.ConversationID, in.ViewerID)
	if uc.Cache != nil {
		if v, err := uc.Cache.Get(ctx, key); err == nil {
			if n, err := strconv.Atoi(v); err == nil {
				return n, nil
			}
		}
	}

	n, err := uc.Repo.CountUnread(ctx, in.ConversationID, in.ViewerID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if uc.Cache != nil {
		_ = uc.Cache.Set(ctx, key, strconv.Itoa(n), unreadCacheTTL)
	}
	return n, nil
}

package usecase

import (
	"context"
	"errors"
	"fmt"

	messaging "github.com/thorep/stallplass-sub008/internal/pkg/messaging/application/domain"
	repository "github.com/thorep/stallplass-sub008/internal/pkg/messaging/persistence/repository/port"
)

// AuthorizeConversationInput identifies the conversation and the requester.
type AuthorizeConversationInput struct {
	ConversationID string
	UserID         string
}

// AuthorizeConversationUseCase gates every read and write on a conversation:
// the requester must be the renter or the stable's owner. A missing
// conversation and a foreign one produce the same ErrNotParticipant, so the
// endpoint does not leak which conversation ids exist.
type AuthorizeConversationUseCase struct {
	Repo repository.ConversationRepository
}

func NewAuthorizeConversationUseCase(repo repository.ConversationRepository) *AuthorizeConversationUseCase {
	return &AuthorizeConversationUseCase{Repo: repo}
}

// Execute returns the conversation when the requester is a party to it.
func (uc *AuthorizeConversationUseCase) Execute(ctx context.Context, in AuthorizeConversationInput) (*messaging.Conversation, error) {
	if in.ConversationID == "" || in.UserID == "" {
		return nil, messaging.ErrNotParticipant
	}

	conv, err := uc.Repo.GetConversation(ctx, in.ConversationID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, messaging.ErrNotParticipant
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !conv.IsParty(in.UserID) {
		return nil, messaging.ErrNotParticipant
	}
	return conv, nil
}
